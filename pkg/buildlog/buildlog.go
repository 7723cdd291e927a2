/*
Copyright 2025 The Kubernetes Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package buildlog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

var (
	// ErrNotFound is returned when the build log file does not exist.
	ErrNotFound = errors.New("build log not found")

	// ErrMalformed is returned when the build log content cannot be parsed.
	ErrMalformed = errors.New("malformed build log")
)

// Record is a single build log entry. The build pipeline appends one record
// per finished build; any additional fields it writes are ignored here.
type Record struct {
	Version       string `json:"version"`
	ContainerHash string `json:"container_hash"`
}

// Valid returns true if the record carries both a version and a container
// hash. Records failing this check are diagnosed and skipped, never fatal.
func (r *Record) Valid() bool {
	return r.Version != "" && r.ContainerHash != ""
}

// Load reads the build log from the provided path and returns its records in
// file order. The order is significant: the build log is append-only and the
// tag state reduction depends on it staying chronological.
func Load(path string) ([]Record, error) {
	logrus.Debugf("Reading build log from %s", path)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}

		return nil, fmt.Errorf("reading build log %s: %w", path, err)
	}

	records := []Record{}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %s: %s", ErrMalformed, path, err)
	}

	logrus.Debugf("Found %d build log records", len(records))

	return records, nil
}
