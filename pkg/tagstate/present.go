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
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"sigs.k8s.io/tagsync/pkg/version"
)

// PlaceholderDigest is the serialized form of an entry which has no concrete
// image yet, only constituent arch images.
const PlaceholderDigest = "NEEDS_MANIFEST"

// Tag pairs a tag name with its entry for presentation. The entry is shared
// with the originating state so that sync status mutations stay visible to
// every derived view.
type Tag struct {
	Name  string
	Entry *Entry
}

// View is an ordered sequence of tags.
type View []Tag

// SortedView returns the tags of the state ordered ascending by loose
// version comparison over their names, ties broken by insertion order.
func (s *State) SortedView() View {
	view := make(View, 0, len(s.order))
	for _, name := range s.order {
		view = append(view, Tag{Name: name, Entry: s.entries[name]})
	}

	keys := make(map[string]version.Key, len(view))
	for _, tag := range view {
		keys[tag.Name] = version.NewKey(tag.Name)
	}

	sort.SliceStable(view, func(i, j int) bool {
		return keys[view[i].Name].Less(keys[view[j].Name])
	})

	return view
}

// Serialize renders the view as a canonical JSON object: keys in view order,
// 4 space indentation, values being the digest or the manifest placeholder.
func (v View) Serialize() string {
	if len(v) == 0 {
		return "{}"
	}

	buf := bytes.Buffer{}
	buf.WriteString("{\n")

	for i, tag := range v {
		name, _ := json.Marshal(tag.Name)

		digest := tag.Entry.Digest
		if tag.Entry.NeedsManifest {
			digest = PlaceholderDigest
		}

		value, _ := json.Marshal(digest)

		buf.WriteString("    ")
		buf.Write(name)
		buf.WriteString(": ")
		buf.Write(value)

		if i < len(v)-1 {
			buf.WriteString(",")
		}

		buf.WriteString("\n")
	}

	buf.WriteString("}")

	return buf.String()
}

// Deserialize parses a canonical tag state object back into a view. Key order
// is preserved; the sync status of every entry resets to pending.
func Deserialize(data []byte) (View, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	token, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("parsing tag state: %w", err)
	}

	if delim, ok := token.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("parsing tag state: expected object, got %v", token)
	}

	view := View{}

	for dec.More() {
		token, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("parsing tag state key: %w", err)
		}

		name, ok := token.(string)
		if !ok {
			return nil, fmt.Errorf("parsing tag state: expected string key, got %v", token)
		}

		digest := ""
		if err := dec.Decode(&digest); err != nil {
			return nil, fmt.Errorf("parsing digest for tag %s: %w", name, err)
		}

		entry := &Entry{Digest: digest}
		if digest == PlaceholderDigest {
			entry.Digest = ""
			entry.NeedsManifest = true
		}

		view = append(view, Tag{Name: name, Entry: entry})
	}

	return view, nil
}

// FilterByStatus returns the subset of the view holding the provided sync
// status, preserving order.
func (v View) FilterByStatus(status Status) View {
	filtered := View{}

	for _, tag := range v {
		if tag.Entry.Status == status {
			filtered = append(filtered, tag)
		}
	}

	return filtered
}

// FilterNeedsManifest returns the subset of the view still holding the
// manifest placeholder, preserving order.
func (v View) FilterNeedsManifest() View {
	filtered := View{}

	for _, tag := range v {
		if tag.Entry.NeedsManifest {
			filtered = append(filtered, tag)
		}
	}

	return filtered
}
