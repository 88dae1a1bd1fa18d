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

package storage

import (
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/stationops/mediadepot/param"
)

// noHomeSentinel stands in when the running user has no resolvable home
// directory. The path is intentionally nonexistent so the home-directory
// branch of the containment check can never match by accident.
const noHomeSentinel = "/home/mediadepot-nohome"

// Policy is the immutable containment configuration: the mount prefixes a
// channel root may live under, plus the operator's home directory.
// Built once at startup; every sandboxed path is validated against it.
type Policy struct {
	AllowedPrefixes []string
	HomeDir         string
}

// DefaultPolicy assembles the process-wide policy from
// Storage.MountPrefixes and the invoking user's home directory.
func DefaultPolicy() Policy {
	var prefixes []string
	for _, p := range param.Storage_MountPrefixes.GetStringSlice() {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !filepath.IsAbs(p) {
			log.Warningln("Ignoring relative storage mount prefix:", p)
			continue
		}
		prefixes = append(prefixes, filepath.Clean(p))
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = noHomeSentinel
	}
	return Policy{AllowedPrefixes: prefixes, HomeDir: filepath.Clean(home)}
}

// permitted reports whether abs sits under one of the allowed prefixes or
// the home directory. Matches are component-wise: /mediafoo is not under
// /media.
func (p Policy) permitted(abs string) bool {
	for _, prefix := range p.AllowedPrefixes {
		if underPrefix(abs, prefix) {
			return true
		}
	}
	return underPrefix(abs, p.HomeDir)
}

func underPrefix(abs, prefix string) bool {
	switch prefix {
	case "":
		return false
	case "/":
		return strings.HasPrefix(abs, "/")
	}
	return abs == prefix || strings.HasPrefix(abs, prefix+"/")
}
