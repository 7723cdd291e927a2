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

	"github.com/spf13/cobra"

	"sigs.k8s.io/tagsync/pkg/buildlog"
	"sigs.k8s.io/tagsync/pkg/tagstate"
)

var stateCmd = &cobra.Command{
	Use:   "state <buildlog>",
	Short: "Reconstruct the tag state from a build log",
	Long: `Reconstruct the tag to digest mapping from a build log and print it
to stdout as a canonical JSON object, sorted ascending by loose version
comparison. Composite tags still awaiting a multi-arch manifest are marked
with the NEEDS_MANIFEST placeholder. Issues with single build log records are
printed to stderr.`,
	Args: cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		return runState(args[0])
	},
}

func init() {
	rootCmd.AddCommand(stateCmd)
}

func runState(buildlogPath string) error {
	records, err := buildlog.Load(buildlogPath)
	if err != nil {
		return fmt.Errorf("loading build log: %w", err)
	}

	view := tagstate.Reduce(records).SortedView()
	fmt.Println(view.Serialize())

	return nil
}
