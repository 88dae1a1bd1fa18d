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
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/maruel/natural"
	log "github.com/sirupsen/logrus"

	"github.com/stationops/mediadepot/server_structs"
)

// Browse lists the immediate children of req.Source under the channel's
// storage root. Folders and files are reported separately and naturally
// sorted; files are kept only when their extension is allowed for the
// channel and are enriched with a probed duration. With FoldersOnly set,
// files and the parent listing are skipped entirely.
func (d *Depot) Browse(ctx context.Context, channelID int, req *server_structs.PathObject) (*server_structs.PathObject, error) {
	cs, err := d.channels.StorageOf(ctx, channelID)
	if err != nil {
		return nil, err
	}
	exts := mergedExtensions(cs)

	rp, err := d.policy.Resolve(cs.Root, req.Source)
	if err != nil {
		return nil, err
	}

	parentPath := filepath.Clean(cs.Root)
	if rp.Rel != "" {
		parentPath = filepath.Dir(rp.Abs)
	}

	obj := &server_structs.PathObject{
		Source:      rp.Rel,
		Parent:      rp.RootName,
		FoldersOnly: req.FoldersOnly,
	}

	if rp.Abs != parentPath && !req.FoldersOnly {
		parents, err := os.ReadDir(parentPath)
		if err != nil {
			log.Errorln("Unable to read parent directory", parentPath, ":", err)
			return nil, BadRequest(fmt.Sprintf("unable to read directory: %v", err))
		}
		for _, entry := range parents {
			if info, err := os.Stat(filepath.Join(parentPath, entry.Name())); err == nil && info.IsDir() {
				obj.ParentFolders = append(obj.ParentFolders, entry.Name())
			}
		}
		sort.Slice(obj.ParentFolders, func(i, j int) bool {
			return natural.Less(obj.ParentFolders[i], obj.ParentFolders[j])
		})
	}

	entries, err := os.ReadDir(rp.Abs)
	if err != nil {
		log.Errorln("Unable to read directory", rp.Abs, ":", err)
		return nil, BadRequest(fmt.Sprintf("unable to read directory: %v", err))
	}

	var mediaFiles []string
	for _, entry := range entries {
		full := filepath.Join(rp.Abs, entry.Name())
		if strings.Contains(full, "/.") {
			continue
		}
		info, err := os.Stat(full)
		if err != nil {
			continue
		}
		if info.IsDir() {
			obj.Folders = append(obj.Folders, entry.Name())
			continue
		}
		if !info.Mode().IsRegular() || req.FoldersOnly {
			continue
		}
		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(entry.Name()), "."))
		if _, ok := exts[ext]; ok {
			mediaFiles = append(mediaFiles, entry.Name())
		}
	}

	sort.Slice(obj.Folders, func(i, j int) bool {
		return natural.Less(obj.Folders[i], obj.Folders[j])
	})
	sort.Slice(mediaFiles, func(i, j int) bool {
		return natural.Less(mediaFiles[i], mediaFiles[j])
	})

	for _, name := range mediaFiles {
		info, err := d.prober.Probe(ctx, filepath.Join(rp.Abs, name))
		if err != nil {
			log.Errorln("Unable to probe media file", name, ":", err)
			continue
		}
		duration, err := strconv.ParseFloat(info.Duration, 64)
		if err != nil {
			duration = 0.0
		}
		obj.Files = append(obj.Files, server_structs.VideoFile{Name: name, Duration: duration})
	}

	return obj, nil
}
