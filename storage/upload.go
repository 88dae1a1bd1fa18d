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
	"io"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/stationops/mediadepot/metrics"
)

// ReceiveFile streams a multipart upload into the channel's storage.
// Each part is written under a sanitized (or generated) filename inside
// the destination directory; an occupied target is rejected without
// overwriting, and a stream that dies mid-part leaves no partial file
// behind. With absolute set, destPath is trusted verbatim as the
// destination directory — an operator-only escape hatch; otherwise the
// path is sandboxed and must name an existing directory.
func (d *Depot) ReceiveFile(ctx context.Context, channelID int, destPath string, absolute bool, sizeHint int64, mr *multipart.Reader) error {
	destDir := destPath
	if !absolute {
		_, rp, err := d.sandbox(ctx, channelID, destPath)
		if err != nil {
			return err
		}
		info, err := os.Stat(rp.Abs)
		if err != nil || !info.IsDir() {
			return BadRequest("upload directory does not exist")
		}
		destDir = rp.Abs
	}

	log.Debugf("Receiving upload of %d declared bytes for channel %d into %s", sizeHint, channelID, destDir)

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Errorln("Unable to read multipart stream:", err)
			return BadRequest("malformed upload stream")
		}

		name := sanitizeFilename(part.FileName())
		if name == "" {
			name = randomName()
		}
		target := filepath.Join(destDir, name)

		if info, err := os.Stat(target); err == nil && info.Mode().IsRegular() {
			return Conflict("target already exists")
		}

		if err := d.writePart(ctx, part, target); err != nil {
			return err
		}
	}

	return nil
}

// writePart streams one part body into target while holding a write
// slot, so many concurrent uploads cannot exhaust file handles. The
// partial file is removed on every non-committed exit path.
func (d *Depot) writePart(ctx context.Context, part *multipart.Part, target string) error {
	if err := d.writeSlots.Acquire(ctx, 1); err != nil {
		return errors.Wrap(err, "waiting for an upload write slot")
	}
	defer d.writeSlots.Release(1)

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if os.IsExist(err) {
			return Conflict("target already exists")
		}
		log.Errorln("Unable to create upload target", target, ":", err)
		return BadRequest("unable to create upload target")
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		out.Close()
		if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
			log.Errorln("Unable to remove partial upload", target, ":", err)
		}
	}()

	written, err := io.Copy(out, part)
	if err != nil {
		log.Infoln("Removing unfinished upload:", target)
		return BadRequest("upload stream interrupted")
	}
	if err := out.Close(); err != nil {
		log.Errorln("Unable to finalize upload", target, ":", err)
		return BadRequest("unable to finalize upload")
	}
	committed = true

	metrics.UploadedBytesTotal.Add(float64(written))
	log.Infof("Uploaded %d bytes to %s", written, target)
	return nil
}
