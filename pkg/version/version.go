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

package version

import (
	"regexp"
	"strings"
)

var segmentRegex = regexp.MustCompile(`[.+-]`)

// Key is a loose version representation. It does not require its input to be
// valid semver: the string is split on `.`, `+` and `-` and the resulting
// segments are kept verbatim, which allows comparing arbitrarily shaped
// version strings like `1.2`, `1.2.3-rc.1` or `1.2.3-arm64`.
type Key struct {
	segments []string
	width    int
}

// NewKey builds a Key from the provided version string.
func NewKey(s string) Key {
	segments := segmentRegex.Split(s, -1)

	width := 0
	for _, segment := range segments {
		if len(segment) > width {
			width = len(segment)
		}
	}

	return Key{segments: segments, width: width}
}

// Compare returns -1, 0 or 1 if a sorts before, equal to or after b.
//
// Every segment of both keys is left padded with zeros to the widest segment
// length across the pair, then the padded sequences are compared element-wise
// as strings with the shorter sequence sorting first on a common prefix.
// Because the padding width depends on the pair being compared, the induced
// ordering is not guaranteed to be transitive for wildly different segment
// shapes. This mirrors the comparison the existing sorted output was produced
// with and has to stay stable.
func Compare(a, b Key) int {
	width := a.width
	if b.width > width {
		width = b.width
	}

	common := len(a.segments)
	if len(b.segments) < common {
		common = len(b.segments)
	}

	for i := 0; i < common; i++ {
		segA := zfill(a.segments[i], width)
		segB := zfill(b.segments[i], width)

		if segA != segB {
			if segA < segB {
				return -1
			}

			return 1
		}
	}

	switch {
	case len(a.segments) < len(b.segments):
		return -1
	case len(a.segments) > len(b.segments):
		return 1
	}

	return 0
}

// Less returns true if k sorts before other.
func (k Key) Less(other Key) bool {
	return Compare(k, other) < 0
}

func zfill(s string, width int) string {
	if len(s) >= width {
		return s
	}

	return strings.Repeat("0", width-len(s)) + s
}
