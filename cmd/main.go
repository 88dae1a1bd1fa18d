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
	"os"

	"github.com/stationops/mediadepot/config"
	"github.com/stationops/mediadepot/logging"
)

func main() {
	// Buffer log output until the configuration decides whether it goes
	// to a file or to stderr.
	logging.SetupLogBuffering()
	defer logging.CloseLogger()

	err := handleCLI(os.Args)
	if err != nil {
		os.Exit(1)
	}
}

func handleCLI(args []string) error {
	// The version flag is captured manually so that appending "--version"
	// works for every command and subcommand without per-flagset wiring
	// in cobra.
	if args[len(args)-1] == "--version" {
		fmt.Println("Version:", config.GetVersion())
		fmt.Println("Build Date:", config.GetBuiltDate())
		fmt.Println("Build Commit:", config.GetBuiltCommit())
		return nil
	}
	return Execute()
}
