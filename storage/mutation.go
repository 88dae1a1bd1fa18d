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
	"io"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"github.com/stationops/mediadepot/server_structs"
)

// CreateDirectory creates req.Source under the channel root, including
// any missing ancestors. Repeat calls on an existing directory succeed.
func (d *Depot) CreateDirectory(ctx context.Context, channelID int, req *server_structs.PathObject) error {
	_, rp, err := d.sandbox(ctx, channelID, req.Source)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(rp.Abs, 0755); err != nil {
		log.Errorln("Unable to create directory", rp.Abs, ":", err)
		return BadRequest(fmt.Sprintf("unable to create directory: %v", err))
	}
	return nil
}

// RenameItem renames or moves req.Source to req.Target inside the
// channel root. Same-parent renames go straight through; a target that
// resolves to an existing directory receives the source inside it. An
// occupied target is rejected without touching the existing file. The
// returned object carries only the final base names.
func (d *Depot) RenameItem(ctx context.Context, channelID int, req *server_structs.MoveObject) (*server_structs.MoveObject, error) {
	cs, err := d.channels.StorageOf(ctx, channelID)
	if err != nil {
		return nil, err
	}
	srcRP, err := d.policy.Resolve(cs.Root, req.Source)
	if err != nil {
		return nil, err
	}
	dstRP, err := d.policy.Resolve(cs.Root, req.Target)
	if err != nil {
		return nil, err
	}

	source := srcRP.Abs
	target := dstRP.Abs

	srcInfo, err := os.Stat(source)
	if err != nil {
		return nil, BadRequest("source does not exist")
	}

	if (srcInfo.IsDir() || srcInfo.Mode().IsRegular()) && filepath.Dir(source) == filepath.Dir(target) {
		return moveItem(source, target)
	}

	if info, err := os.Stat(target); err == nil && info.IsDir() {
		target = filepath.Join(target, filepath.Base(source))
	}

	if info, err := os.Stat(target); err == nil && info.Mode().IsRegular() {
		return nil, BadRequest("target already exists")
	}

	if srcInfo.Mode().IsRegular() {
		return moveItem(source, target)
	}

	return nil, Internal()
}

// Remove deletes the file or empty directory at source inside the
// channel root. Directories holding any entry are refused; there is no
// recursive delete.
func (d *Depot) Remove(ctx context.Context, channelID int, source string) error {
	_, rp, err := d.sandbox(ctx, channelID, source)
	if err != nil {
		return err
	}

	info, err := os.Stat(rp.Abs)
	if err != nil {
		return BadRequest("source does not exist")
	}

	if info.IsDir() {
		if err := os.Remove(rp.Abs); err != nil {
			log.Errorln("Unable to remove directory", rp.Abs, ":", err)
			return BadRequest("unable to delete folder, folder must be empty")
		}
		return nil
	}

	if info.Mode().IsRegular() {
		if err := os.Remove(rp.Abs); err != nil {
			log.Errorln("Unable to remove file", rp.Abs, ":", err)
			return BadRequest("unable to delete file")
		}
		return nil
	}

	return Internal()
}

// moveItem renames source onto target, falling back to copy-then-delete
// when the direct rename fails (cross-device moves). The returned object
// holds the final base names only.
func moveItem(source, target string) (*server_structs.MoveObject, error) {
	if err := os.Rename(source, target); err != nil {
		log.Errorln("Direct rename of", source, "failed:", err)
		return copyAndDelete(source, target)
	}
	return &server_structs.MoveObject{
		Source: filepath.Base(source),
		Target: filepath.Base(target),
	}, nil
}

// copyAndDelete is the degraded-mode move. A copy that lands but a
// source that cannot be removed afterwards is surfaced as an error, so a
// silent duplicate never goes unnoticed.
func copyAndDelete(source, target string) (*server_structs.MoveObject, error) {
	in, err := os.Open(source)
	if err != nil {
		log.Errorln("Unable to open", source, "for copying:", err)
		return nil, BadRequest("error in file copy")
	}
	defer in.Close()

	out, err := os.Create(target)
	if err != nil {
		log.Errorln("Unable to create copy target", target, ":", err)
		return nil, BadRequest("error in file copy")
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		log.Errorln("Unable to copy", source, "to", target, ":", err)
		return nil, BadRequest("error in file copy")
	}
	if err := out.Close(); err != nil {
		log.Errorln("Unable to finalize copy target", target, ":", err)
		return nil, BadRequest("error in file copy")
	}

	if err := os.Remove(source); err != nil {
		log.Errorln("Unable to remove", source, "after copying:", err)
		return nil, BadRequest("removing source file after copy not possible")
	}

	return &server_structs.MoveObject{
		Source: filepath.Base(source),
		Target: filepath.Base(target),
	}, nil
}
