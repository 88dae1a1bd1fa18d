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
	"path"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
)

// ResolvedPath is the outcome of sandboxing one user-supplied path string
// against a channel root.
type ResolvedPath struct {
	// Abs is the canonical on-disk path, contained in the policy's
	// allowed prefixes.
	Abs string
	// RootName is the final segment of the channel root ("chan1" for a
	// root of /media/chan1).
	RootName string
	// Rel is the path relative to the channel root; empty when Abs is
	// the root itself.
	Rel string
}

// relNormalize flattens p to a relative, traversal-free form: separators
// slash-normalized, leading separators dropped, "." and ".." segments
// resolved lexically, and leftover "../" sequences removed outright.
func relNormalize(p string) string {
	p = strings.TrimLeft(filepath.ToSlash(p), "/")
	p = path.Clean(p)
	if p == "." {
		return ""
	}
	return strings.ReplaceAll(p, "../", "")
}

// Resolve normalizes input against the channel root and validates the
// result against the containment policy. Every path handed to the
// filesystem flows through here first; no traversal sequence survives to
// the join, and the joined path must still land under an allowed prefix
// or the home directory.
//
// Relativization takes one of two branches. Input that already carries
// the root — as a raw string prefix or after normalization — has the
// normalized root stripped. Otherwise the input is a bare relative path
// that may echo the root's directory name as its first segment, which is
// stripped when present.
func (p Policy) Resolve(root, input string) (ResolvedPath, error) {
	rootNorm := relNormalize(root)
	inputNorm := relNormalize(input)

	rootName := filepath.Base(filepath.Clean(root))
	if rootName == "/" || rootName == "." {
		rootName = ""
	}

	var rel string
	if strings.HasPrefix(input, root) || strings.HasPrefix(inputNorm, rootNorm) {
		rest := strings.TrimPrefix(inputNorm, rootNorm)
		if strings.HasPrefix(rest, "/") {
			rel = rest[1:]
		}
	} else {
		rel = inputNorm
		if rootName != "" {
			if rest := strings.TrimPrefix(inputNorm, rootName+"/"); rest != inputNorm {
				rel = rest
			}
		}
	}

	abs := filepath.Join(root, rel)
	if !p.permitted(abs) {
		log.Warningf("Rejecting path %q: resolves to %q, outside all permitted storage roots", input, abs)
		return ResolvedPath{}, Forbidden("ill-formed path")
	}

	return ResolvedPath{Abs: abs, RootName: rootName, Rel: rel}, nil
}
