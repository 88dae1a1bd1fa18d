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

package server_structs

type (

	// PathObject doubles as the browse request and its response. A
	// request carries Source (the path to list, relative to the channel
	// root or loosely absolute) and FoldersOnly; the response echoes
	// Source as the root-relative remainder, sets Parent to the root's
	// directory name, and fills the listing fields.
	PathObject struct {
		Source        string      `json:"source"`
		Parent        string      `json:"parent,omitempty"`
		ParentFolders []string    `json:"parent_folders,omitempty"`
		Folders       []string    `json:"folders,omitempty"`
		Files         []VideoFile `json:"files,omitempty"`
		FoldersOnly   bool        `json:"folders_only"`
	}

	// VideoFile is one playable media file in a browse listing, with its
	// probed duration in seconds.
	VideoFile struct {
		Name     string  `json:"name"`
		Duration float64 `json:"duration"`
	}

	// MoveObject carries a rename/move request. The response form holds
	// only the final base names of the moved item, never full paths.
	MoveObject struct {
		Source string `json:"source"`
		Target string `json:"target"`
	}
)
