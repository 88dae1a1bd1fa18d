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

package config

import (
	log "github.com/sirupsen/logrus"
)

// Overridden at build time via -ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func GetVersion() string {
	return version
}

func SetVersion(v string) {
	version = v
}

func GetBuiltCommit() string {
	return commit
}

func SetBuiltCommit(c string) {
	commit = c
}

func GetBuiltDate() string {
	return date
}

func SetBuiltDate(d string) {
	date = d
}

// LogMediaDepotVersion records the running build in the server log at
// startup.
func LogMediaDepotVersion() {
	log.Infoln("MediaDepot version:", version)
	log.Debugln("Built commit:", commit, "on", date)
}
