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

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sigs.k8s.io/tagsync/pkg/buildlog"
	"sigs.k8s.io/tagsync/pkg/registry"
	"sigs.k8s.io/tagsync/pkg/tagstate"
)

var pushOpts = registry.DefaultOptions()

var pushCmd = &cobra.Command{
	Use:   "push <buildlog>",
	Short: "Sync the reconstructed tag state to a container registry",
	Long: `Reconstruct the tag to digest mapping from a build log and drive the
target registry towards it: every tag holding a concrete digest is pulled by
digest, tagged and pushed; every composite tag still awaiting a multi-arch
manifest gets one created from its architecture specific images, annotated
per platform and pushed.

The reconstructed state is printed to stdout, followed by the succeeded and
the needs-manifest reports. The failed report is printed to stderr. The
command exits non-zero if any tag could not be synced.`,
	Args: cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		return runPush(pushOpts, args[0])
	},
}

func init() {
	pushCmd.PersistentFlags().StringVar(
		&pushOpts.Registry,
		"registry",
		"",
		"registry host to push to, for example registry.k8s.io",
	)
	pushCmd.PersistentFlags().StringVar(
		&pushOpts.Namespace,
		"namespace",
		"",
		"registry namespace below the host",
	)
	pushCmd.PersistentFlags().StringVar(
		&pushOpts.Image,
		"image",
		"",
		"name of the image the synced tags belong to",
	)
	pushCmd.PersistentFlags().StringSliceVar(
		&pushOpts.Architectures,
		"arch",
		registry.DefaultArchitectures,
		"architectures participating in multi-arch manifests",
	)

	rootCmd.AddCommand(pushCmd)
}

func runPush(opts *registry.Options, buildlogPath string) error {
	if err := opts.Validate(); err != nil {
		return fmt.Errorf("validating options: %w", err)
	}

	records, err := buildlog.Load(buildlogPath)
	if err != nil {
		return fmt.Errorf("loading build log: %w", err)
	}

	view := tagstate.Reduce(records).SortedView()
	fmt.Println(view.Serialize())

	sync := registry.New(opts)
	sync.PushTags(view)

	fmt.Println(view.FilterByStatus(tagstate.StatusSucceeded).Serialize())
	fmt.Fprintln(os.Stderr, view.FilterByStatus(tagstate.StatusFailed).Serialize())
	fmt.Println(view.FilterNeedsManifest().Serialize())

	sync.CreateManifests(view)

	if failed := view.FilterByStatus(tagstate.StatusFailed); len(failed) > 0 {
		return fmt.Errorf("unable to sync %d tags", len(failed))
	}

	return nil
}
