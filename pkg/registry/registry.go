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

package registry

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"sigs.k8s.io/tagsync/pkg/tagstate"
)

// DefaultArchitectures are the platforms composing a multi-arch manifest if
// nothing else is configured.
var DefaultArchitectures = []string{"arm64", "amd64"}

// Options configure the registry sync.
type Options struct {
	// Registry is the registry host, for example `registry.k8s.io`.
	Registry string

	// Namespace is the project or organization below the registry host.
	Namespace string

	// Image is the image name the synced tags belong to.
	Image string

	// Architectures are the platforms participating in multi-arch
	// manifests.
	Architectures []string
}

// DefaultOptions returns a new default Options instance.
func DefaultOptions() *Options {
	return &Options{Architectures: DefaultArchitectures}
}

// Validate checks the options for completeness.
func (o *Options) Validate() error {
	if o.Registry == "" || o.Namespace == "" || o.Image == "" {
		return errors.New("registry, namespace and image are all required")
	}

	if len(o.Architectures) == 0 {
		return errors.New("at least one architecture is required")
	}

	return nil
}

func (o *Options) imageRef() string {
	return fmt.Sprintf("%s/%s/%s", o.Registry, o.Namespace, o.Image)
}

// Sync drives a container registry towards the reconstructed tag state by
// pulling, tagging and pushing images and by assembling multi-arch
// manifests. All registry interaction runs through external processes.
type Sync struct {
	impl
	options *Options
}

// New creates a new Sync instance for the provided options.
func New(options *Options) *Sync {
	return &Sync{impl: &defaultImpl{}, options: options}
}

// SetImpl can be used to set the internal implementation.
func (s *Sync) SetImpl(impl impl) {
	s.impl = impl
}

// phase is the per-tag progress through the push pipeline. Phases only ever
// move forward, which keeps the door open for adding retries or timeouts per
// step later on.
type phase int

const (
	phasePending phase = iota
	phasePulling
	phaseTagging
	phasePushing
	phaseDone
)

// PushTags pushes every tag of the view holding a concrete digest: the image
// is pulled by digest, tagged and pushed, strictly one tag at a time. The
// first failing step marks the tag as failed and skips its remaining steps;
// other tags are unaffected. Outcomes are recorded on the entries, the run
// itself always completes.
func (s *Sync) PushTags(view tagstate.View) {
	image := s.options.imageRef()

	for _, tag := range view {
		if tag.Entry.NeedsManifest {
			continue
		}

		digestRef := fmt.Sprintf("%s@sha256:%s", image, tag.Entry.Digest)
		tagRef := fmt.Sprintf("%s:%s", image, tag.Name)

		logrus.Infof("Pushing %s", tagRef)

		current := phasePending

		var err error
		for current < phaseDone && err == nil {
			switch current {
			case phasePending:
				current = phasePulling
			case phasePulling:
				err = s.Execute("docker", "pull", digestRef)
				current = phaseTagging
			case phaseTagging:
				err = s.Execute("docker", "tag", digestRef, tagRef)
				current = phasePushing
			case phasePushing:
				err = s.Execute("docker", "push", tagRef)
				current = phaseDone
			}
		}

		if err != nil {
			logrus.Errorf("Unable to push %s: %v", tagRef, err)
			tag.Entry.Status = tagstate.StatusFailed

			continue
		}

		tag.Entry.Status = tagstate.StatusSucceeded
	}
}

// CreateManifests assembles a multi-arch manifest for every tag of the view
// still holding the manifest placeholder. Manifests are built from the patch
// level tags; the major and minor ancestors get equivalent manifests pointing
// at the same architecture members and share the outcome of the patch tag
// that built them. A failing step aborts only the remaining steps of that
// tag.
func (s *Sync) CreateManifests(view tagstate.View) {
	entries := map[string]*tagstate.Entry{}
	for _, tag := range view {
		entries[tag.Name] = tag.Entry
	}

	for _, tag := range view {
		if !tag.Entry.NeedsManifest || strings.Count(tag.Name, ".") != 2 {
			continue
		}

		tokens := strings.Split(tag.Name, ".")
		ancestors := []string{tokens[0], tokens[0] + "." + tokens[1]}

		err := s.createManifest(tag.Name, tag.Name)
		if err == nil {
			for _, ancestor := range ancestors {
				if err = s.createManifest(ancestor, tag.Name); err != nil {
					break
				}

				if err = s.pushManifest(ancestor); err != nil {
					break
				}
			}
		}

		if err == nil {
			err = s.pushManifest(tag.Name)
		}

		status := tagstate.StatusSucceeded
		if err != nil {
			logrus.Errorf("Unable to create manifest for %s: %v", tag.Name, err)

			status = tagstate.StatusFailed
		}

		for _, name := range append([]string{tag.Name}, ancestors...) {
			if entry := entries[name]; entry != nil &&
				entry.Status == tagstate.StatusPending {
				entry.Status = status
			}
		}
	}
}

// createManifest creates and annotates a manifest under the provided tag,
// referencing the arch specific images of the source tag.
func (s *Sync) createManifest(tag, source string) error {
	image := s.options.imageRef()
	manifestRef := fmt.Sprintf("%s:%s", image, tag)

	members := []string{}
	for _, arch := range s.options.Architectures {
		members = append(members,
			fmt.Sprintf("%s:%s-%s", image, source, arch),
		)
	}

	logrus.Infof("Creating manifest %s", manifestRef)

	if err := s.Execute("docker", append(
		[]string{"manifest", "create", "--amend", manifestRef}, members...,
	)...); err != nil {
		return fmt.Errorf("create manifest: %w", err)
	}

	for i, arch := range s.options.Architectures {
		logrus.Infof("Annotating %s with --arch %s", members[i], arch)

		if err := s.Execute(
			"docker", "manifest", "annotate", "--arch", arch,
			manifestRef, members[i],
		); err != nil {
			return fmt.Errorf("annotate manifest with arch: %w", err)
		}
	}

	return nil
}

// pushManifest pushes the manifest under the provided tag.
func (s *Sync) pushManifest(tag string) error {
	manifestRef := fmt.Sprintf("%s:%s", s.options.imageRef(), tag)

	logrus.Infof("Pushing manifest %s", manifestRef)

	if err := s.Execute(
		"docker", "manifest", "push", manifestRef, "--purge",
	); err != nil {
		return fmt.Errorf("push manifest: %w", err)
	}

	return nil
}
