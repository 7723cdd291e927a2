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

package tagstate

import (
	"fmt"
	"strings"

	"github.com/blang/semver/v4"
	"github.com/sirupsen/logrus"

	"sigs.k8s.io/tagsync/pkg/buildlog"
)

// Status tracks the sync outcome of a single tag. It starts out as
// StatusPending and transitions at most once, during sync.
type Status int

const (
	StatusPending Status = iota
	StatusSucceeded
	StatusFailed
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	default:
		return "pending"
	}
}

// Entry is the value a tag name maps to: either a concrete image digest or a
// placeholder for a multi-arch manifest that still has to be created.
//
// The generation records which reduction step assigned the entry. Composite
// tags set by the same step share a generation, which lets the reducer
// distinguish "major still points at the value this patch tag used to hold"
// from "major was pinned by some other build" without comparing digest
// strings (a real digest could collide with whatever placeholder text we
// would otherwise compare against).
type Entry struct {
	Digest        string
	NeedsManifest bool
	Status        Status

	generation uint64
}

// State is the accumulated tag name to entry mapping. Insertion order is
// tracked only to keep the final sort stable.
type State struct {
	entries map[string]*Entry
	order   []string

	generation uint64
}

// NewState creates an empty State.
func NewState() *State {
	return &State{entries: map[string]*Entry{}}
}

// Get returns the entry for the provided tag name, or nil.
func (s *State) Get(name string) *Entry {
	return s.entries[name]
}

// Len returns the number of tags in the state.
func (s *State) Len() int {
	return len(s.order)
}

func (s *State) assign(name string, entry Entry) {
	if existing, ok := s.entries[name]; ok {
		*existing = entry

		return
	}

	s.entries[name] = &entry
	s.order = append(s.order, name)
}

// Reduce folds the provided build records, in strict input order, into the
// tag state they describe. The build log being chronologically ordered is a
// precondition; it is not verified here.
func Reduce(records []buildlog.Record) *State {
	state := NewState()

	for i := range records {
		record := &records[i]
		if !record.Valid() {
			logrus.Errorf(
				"Build log entry found without associated container hash: %+v",
				*record,
			)

			continue
		}

		if _, err := semver.Parse(record.Version); err != nil {
			logrus.Debugf(
				"Version %q is not strict semver, relying on loose ordering: %v",
				record.Version, err,
			)
		}

		tokens := strings.Split(
			strings.ReplaceAll(record.Version, ".", "-"), "-",
		)
		if len(tokens) > 4 {
			logrus.Errorf(
				"Build log entry with unrecognized version shape %q, skipping",
				record.Version,
			)

			continue
		}

		for len(tokens) < 4 {
			tokens = append(tokens, "")
		}

		major, minor, patch, arch := tokens[0], tokens[1], tokens[2], tokens[3]
		mediumTag := fmt.Sprintf("%s.%s", major, minor)
		manifestSemver := fmt.Sprintf("%s.%s.%s", major, minor, patch)
		digest := record.ContainerHash

		state.generation++
		generation := state.generation

		if arch != "" {
			// One platform specific build: record it verbatim and turn all
			// three composite ancestors into manifest placeholders.
			state.assign(record.Version, Entry{
				Digest: digest, generation: generation,
			})

			for _, tag := range []string{major, mediumTag, manifestSemver} {
				state.assign(tag, Entry{
					NeedsManifest: true, generation: generation,
				})
			}

			continue
		}

		if current := state.Get(manifestSemver); current != nil {
			// A later build of an already seen patch version. Advance major
			// and minor only while they still reference the value this patch
			// tag held before.
			previous := current.generation

			for _, tag := range []string{major, mediumTag} {
				if entry := state.Get(tag); entry != nil && entry.generation == previous {
					state.assign(tag, Entry{
						Digest: digest, generation: generation,
					})
				}
			}

			state.assign(manifestSemver, Entry{
				Digest: digest, generation: generation,
			})

			continue
		}

		for _, tag := range []string{major, mediumTag, manifestSemver} {
			state.assign(tag, Entry{Digest: digest, generation: generation})
		}
	}

	return state
}
