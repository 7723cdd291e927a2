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

package registry_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"sigs.k8s.io/tagsync/pkg/buildlog"
	"sigs.k8s.io/tagsync/pkg/registry"
	"sigs.k8s.io/tagsync/pkg/registry/registryfakes"
	"sigs.k8s.io/tagsync/pkg/tagstate"
)

func testOptions() *registry.Options {
	opts := registry.DefaultOptions()
	opts.Registry = "registry.k8s.io"
	opts.Namespace = "build-image"
	opts.Image = "setcap"

	return opts
}

func testView(t *testing.T) tagstate.View {
	t.Helper()

	return tagstate.Reduce([]buildlog.Record{
		{Version: "1.2.3-arm64", ContainerHash: "aaa"},
		{Version: "1.2.3-amd64", ContainerHash: "bbb"},
		{Version: "1.3.0", ContainerHash: "ccc"},
	}).SortedView()
}

func statuses(view tagstate.View) map[string]tagstate.Status {
	res := map[string]tagstate.Status{}
	for _, tag := range view {
		res[tag.Name] = tag.Entry.Status
	}

	return res
}

func commandLines(mock *registryfakes.FakeImpl) []string {
	lines := []string{}
	for i := 0; i < mock.ExecuteCallCount(); i++ {
		cmd, args := mock.ExecuteArgsForCall(i)
		lines = append(lines, cmd+" "+strings.Join(args, " "))
	}

	return lines
}

func TestOptionsValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, testOptions().Validate())

	incomplete := testOptions()
	incomplete.Image = ""
	require.Error(t, incomplete.Validate())

	noArch := testOptions()
	noArch.Architectures = nil
	require.Error(t, noArch.Validate())
}

func TestPushTags(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		sut := registry.New(testOptions())
		mock := &registryfakes.FakeImpl{}
		sut.SetImpl(mock)

		view := testView(t)
		sut.PushTags(view)

		res := statuses(view)
		require.Equal(t, tagstate.StatusSucceeded, res["1.2.3-arm64"])
		require.Equal(t, tagstate.StatusSucceeded, res["1.2.3-amd64"])
		require.Equal(t, tagstate.StatusSucceeded, res["1.3.0"])
		require.Equal(t, tagstate.StatusSucceeded, res["1"])
		require.Equal(t, tagstate.StatusSucceeded, res["1.3"])

		// Placeholders are left for the manifest pass.
		require.Equal(t, tagstate.StatusPending, res["1.2"])
		require.Equal(t, tagstate.StatusPending, res["1.2.3"])

		require.Contains(t, commandLines(mock),
			"docker pull registry.k8s.io/build-image/setcap@sha256:aaa")
		require.Contains(t, commandLines(mock),
			"docker tag registry.k8s.io/build-image/setcap@sha256:ccc "+
				"registry.k8s.io/build-image/setcap:1.3.0")
		require.Contains(t, commandLines(mock),
			"docker push registry.k8s.io/build-image/setcap:1.3.0")
	})

	t.Run("failure on pull skips remaining steps for that tag only", func(t *testing.T) {
		t.Parallel()

		sut := registry.New(testOptions())
		mock := &registryfakes.FakeImpl{}
		sut.SetImpl(mock)

		mock.ExecuteCalls(func(_ string, args ...string) error {
			if args[0] == "pull" && strings.Contains(args[1], "sha256:aaa") {
				return errors.New("")
			}

			return nil
		})

		view := testView(t)
		sut.PushTags(view)

		res := statuses(view)
		require.Equal(t, tagstate.StatusFailed, res["1.2.3-arm64"])
		require.Equal(t, tagstate.StatusSucceeded, res["1.2.3-amd64"])
		require.Equal(t, tagstate.StatusSucceeded, res["1.3.0"])

		for _, line := range commandLines(mock) {
			require.NotContains(t, line, "push registry.k8s.io/build-image/setcap:1.2.3-arm64")
		}
	})

	t.Run("failure on push marks tag failed", func(t *testing.T) {
		t.Parallel()

		sut := registry.New(testOptions())
		mock := &registryfakes.FakeImpl{}
		sut.SetImpl(mock)

		mock.ExecuteCalls(func(_ string, args ...string) error {
			if args[0] == "push" {
				return errors.New("")
			}

			return nil
		})

		view := testView(t)
		sut.PushTags(view)

		for _, tag := range view {
			if tag.Entry.NeedsManifest {
				continue
			}

			require.Equal(t, tagstate.StatusFailed, tag.Entry.Status)
		}
	})
}

func TestCreateManifests(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		sut := registry.New(testOptions())
		mock := &registryfakes.FakeImpl{}
		sut.SetImpl(mock)

		view := testView(t)
		sut.CreateManifests(view)

		res := statuses(view)
		require.Equal(t, tagstate.StatusSucceeded, res["1.2.3"])
		require.Equal(t, tagstate.StatusSucceeded, res["1.2"])

		lines := commandLines(mock)
		require.Contains(t, lines,
			"docker manifest create --amend registry.k8s.io/build-image/setcap:1.2.3 "+
				"registry.k8s.io/build-image/setcap:1.2.3-arm64 "+
				"registry.k8s.io/build-image/setcap:1.2.3-amd64")
		require.Contains(t, lines,
			"docker manifest annotate --arch arm64 "+
				"registry.k8s.io/build-image/setcap:1.2.3 "+
				"registry.k8s.io/build-image/setcap:1.2.3-arm64")
		require.Contains(t, lines,
			"docker manifest create --amend registry.k8s.io/build-image/setcap:1 "+
				"registry.k8s.io/build-image/setcap:1.2.3-arm64 "+
				"registry.k8s.io/build-image/setcap:1.2.3-amd64")
		require.Contains(t, lines,
			"docker manifest create --amend registry.k8s.io/build-image/setcap:1.2 "+
				"registry.k8s.io/build-image/setcap:1.2.3-arm64 "+
				"registry.k8s.io/build-image/setcap:1.2.3-amd64")

		// The patch level manifest is pushed last.
		require.Equal(t,
			"docker manifest push registry.k8s.io/build-image/setcap:1.2.3 --purge",
			lines[len(lines)-1],
		)
	})

	t.Run("failure on manifest create", func(t *testing.T) {
		t.Parallel()

		sut := registry.New(testOptions())
		mock := &registryfakes.FakeImpl{}
		sut.SetImpl(mock)

		mock.ExecuteCalls(func(_ string, args ...string) error {
			if args[0] == "manifest" && args[1] == "create" {
				return errors.New("")
			}

			return nil
		})

		view := testView(t)
		sut.CreateManifests(view)

		res := statuses(view)
		require.Equal(t, tagstate.StatusFailed, res["1.2.3"])
		require.Equal(t, tagstate.StatusFailed, res["1.2"])

		for _, line := range commandLines(mock) {
			require.NotContains(t, line, "manifest push")
		}
	})

	t.Run("failure on manifest annotate", func(t *testing.T) {
		t.Parallel()

		sut := registry.New(testOptions())
		mock := &registryfakes.FakeImpl{}
		sut.SetImpl(mock)

		mock.ExecuteCalls(func(_ string, args ...string) error {
			if args[0] == "manifest" && args[1] == "annotate" {
				return errors.New("")
			}

			return nil
		})

		view := testView(t)
		sut.CreateManifests(view)

		require.Equal(t, tagstate.StatusFailed, statuses(view)["1.2.3"])
	})

	t.Run("failure on manifest push", func(t *testing.T) {
		t.Parallel()

		sut := registry.New(testOptions())
		mock := &registryfakes.FakeImpl{}
		sut.SetImpl(mock)

		mock.ExecuteCalls(func(_ string, args ...string) error {
			if args[0] == "manifest" && args[1] == "push" {
				return errors.New("")
			}

			return nil
		})

		view := testView(t)
		sut.CreateManifests(view)

		require.Equal(t, tagstate.StatusFailed, statuses(view)["1.2.3"])
	})

	t.Run("concrete digests are not touched", func(t *testing.T) {
		t.Parallel()

		sut := registry.New(testOptions())
		mock := &registryfakes.FakeImpl{}
		sut.SetImpl(mock)

		view := tagstate.Reduce([]buildlog.Record{
			{Version: "1.3.0", ContainerHash: "ccc"},
		}).SortedView()

		sut.CreateManifests(view)
		require.Zero(t, mock.ExecuteCallCount())
	})
}
