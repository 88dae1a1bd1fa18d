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
	"github.com/spf13/cobra"

	"github.com/stationops/mediadepot/launchers"
)

var serveCmd = &cobra.Command{
	Use:          "serve",
	Short:        "Start the MediaDepot server",
	RunE:         serveStart,
	SilenceUsage: true,
}

func init() {
	serveCmd.Flags().AddFlag(portFlag)
}

// serveStart hands the process over to the launcher. The errgroup created
// in Execute keeps running after RunE returns, until a signal or a
// component failure brings the server down.
func serveStart(cmd *cobra.Command, _ []string) error {
	shutdownCancel, err := launchers.LaunchServer(cmd.Context())
	if err != nil {
		shutdownCancel()
		return err
	}
	return nil
}
