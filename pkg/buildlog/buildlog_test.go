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

package buildlog_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"sigs.k8s.io/tagsync/pkg/buildlog"
)

func writeLog(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "buildlog.json")
	require.NoError(t, os.WriteFile(path, []byte(content), os.FileMode(0o644)))

	return path
}

func TestLoad(t *testing.T) {
	t.Parallel()

	t.Run("success preserving order and ignoring unknown fields", func(t *testing.T) {
		t.Parallel()

		path := writeLog(t, `[
			{"version": "1.2.3-arm64", "container_hash": "aaa", "builder": "ci"},
			{"version": "1.2.3-amd64", "container_hash": "bbb"},
			{"version": "1.2.3", "container_hash": "ccc", "date": "2025-06-01"}
		]`)

		records, err := buildlog.Load(path)
		require.NoError(t, err)
		require.Len(t, records, 3)
		require.Equal(t, "1.2.3-arm64", records[0].Version)
		require.Equal(t, "bbb", records[1].ContainerHash)
		require.Equal(t, "1.2.3", records[2].Version)
	})

	t.Run("success empty log", func(t *testing.T) {
		t.Parallel()

		records, err := buildlog.Load(writeLog(t, `[]`))
		require.NoError(t, err)
		require.Empty(t, records)
	})

	t.Run("failure file does not exist", func(t *testing.T) {
		t.Parallel()

		records, err := buildlog.Load(filepath.Join(t.TempDir(), "missing.json"))
		require.ErrorIs(t, err, buildlog.ErrNotFound)
		require.Nil(t, records)
	})

	t.Run("failure malformed content", func(t *testing.T) {
		t.Parallel()

		records, err := buildlog.Load(writeLog(t, `{"not": "an array"`))
		require.ErrorIs(t, err, buildlog.ErrMalformed)
		require.Nil(t, records)
	})
}

func TestRecordValid(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		name     string
		record   buildlog.Record
		expected bool
	}{
		{
			name:     "both fields set",
			record:   buildlog.Record{Version: "1.2.3", ContainerHash: "abc"},
			expected: true,
		},
		{
			name:     "missing container hash",
			record:   buildlog.Record{Version: "1.2.3"},
			expected: false,
		},
		{
			name:     "missing version",
			record:   buildlog.Record{ContainerHash: "abc"},
			expected: false,
		},
		{
			name:     "empty record",
			record:   buildlog.Record{},
			expected: false,
		},
	} {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			require.Equal(t, tc.expected, tc.record.Valid())
		})
	}
}
