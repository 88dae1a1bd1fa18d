/***************************************************************
 *
 * Copyright (C) 2025, MediaDepot Project
 *
 * Licensed under the Apache License, Version 2.0 (the "License"); you
 * may not use this file except in compliance with the License.  You may
 * obtain a copy of the License at
 *
 *    http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 *
 ***************************************************************/

package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stationops/mediadepot/config"
)

func TestHandleCLIVersionFlag(t *testing.T) {
	// Save the current version to reset these variables when done
	currentVersion := config.GetVersion()
	currentDate := config.GetBuiltDate()
	currentCommit := config.GetBuiltCommit()
	oldArgs := os.Args

	config.SetVersion("0.0.1")
	config.SetBuiltDate("2025-02-11T15:26:50Z")
	config.SetBuiltCommit("f0f94a3edf6641c2472345819a0d5453fc9e68d1")

	t.Cleanup(func() {
		os.Args = oldArgs
		config.SetVersion(currentVersion)
		config.SetBuiltDate(currentDate)
		config.SetBuiltCommit(currentCommit)
	})

	os.Args = []string{os.Args[0]}

	mockVersionOutput := fmt.Sprintf(
		"Version: %s\nBuild Date: %s\nBuild Commit: %s",
		config.GetVersion(), config.GetBuiltDate(), config.GetBuiltCommit(),
	)

	testCases := []struct {
		name     string
		args     []string
		expected string
	}{
		// The root help carries the Long description and lists each
		// subcommand with its Short description
		{
			"no-flag-on-root-command",
			[]string{"mediadepot"},
			rootCmd.Long,
		},
		{
			"no-flag-on-subcommand",
			[]string{"mediadepot", "channel"},
			channelCmd.Short,
		},
		{
			"flag-on-root-command",
			[]string{"mediadepot", "--version"},
			mockVersionOutput,
		},
		{
			"flag-on-subcommand",
			[]string{"mediadepot", "channel", "--version"},
			mockVersionOutput,
		},
		{
			"flag-on-second-layer-subcommand",
			[]string{"mediadepot", "channel", "list", "--version"},
			mockVersionOutput,
		},
		{
			"other-flag-on-root-command",
			[]string{"mediadepot", "--help"},
			rootCmd.Long,
		},
	}

	batchTest := func(t *testing.T, arguments []string, expected string) {
		// Redirect output to a pipe so the printed text can be inspected
		oldStdout := os.Stdout
		r, w, _ := os.Pipe()
		os.Stdout = w

		err := handleCLI(arguments)
		require.NoError(t, err)

		w.Close()
		out, _ := io.ReadAll(r)
		os.Stdout = oldStdout

		got := strings.TrimSpace(string(out))

		if expected != mockVersionOutput {
			// Help output carries usage text around the description, so
			// only check containment there
			assert.Contains(t, got, expected, "Output does not match expectation")
		} else {
			assert.Equal(t, expected, got, "Output does not match expectation")
		}
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			batchTest(t, tc.args, tc.expected)
		})
	}
}
