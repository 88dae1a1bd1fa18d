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

// Package storage implements the channel-scoped media store behind the
// MediaDepot APIs: path sandboxing, directory browsing, file mutation,
// and upload ingest. Every path that reaches the filesystem is resolved
// through the containment policy first.
package storage

import (
	"context"
	"os"
	"strings"

	"golang.org/x/sync/semaphore"

	"github.com/stationops/mediadepot/param"
)

// ChannelStorage is a channel's storage configuration as the store needs
// it: the directory its media lives under and any extensions the channel
// allows beyond the globally configured set.
type ChannelStorage struct {
	Root            string
	ExtraExtensions []string
}

// ChannelResolver yields per-channel storage configuration, typically
// backed by the channel database.
type ChannelResolver interface {
	StorageOf(ctx context.Context, channelID int) (ChannelStorage, error)
}

// MediaInfo carries the container metadata listings are enriched with.
// Duration is the decimal-seconds string as the probe reports it; an
// empty or malformed value is treated as zero.
type MediaInfo struct {
	Duration string
}

// MediaProber inspects a media file. Probe failures are survivable; the
// browser drops the affected file and keeps going.
type MediaProber interface {
	Probe(ctx context.Context, path string) (MediaInfo, error)
}

// Depot ties the containment policy, channel configuration, and media
// probing together into the storage operations the API layer exposes.
type Depot struct {
	policy     Policy
	channels   ChannelResolver
	prober     MediaProber
	writeSlots *semaphore.Weighted
}

// NewDepot builds a depot whose upload writes are bounded by
// Storage.ConcurrentWrites slots.
func NewDepot(policy Policy, channels ChannelResolver, prober MediaProber) *Depot {
	slots := int64(param.Storage_ConcurrentWrites.GetInt())
	if slots < 1 {
		slots = 1
	}
	return &Depot{
		policy:     policy,
		channels:   channels,
		prober:     prober,
		writeSlots: semaphore.NewWeighted(slots),
	}
}

// Policy exposes the containment policy the depot was built with.
func (d *Depot) Policy() Policy {
	return d.policy
}

// sandbox resolves the channel's storage config, then the input path
// against the channel root.
func (d *Depot) sandbox(ctx context.Context, channelID int, input string) (ChannelStorage, ResolvedPath, error) {
	cs, err := d.channels.StorageOf(ctx, channelID)
	if err != nil {
		return ChannelStorage{}, ResolvedPath{}, err
	}
	rp, err := d.policy.Resolve(cs.Root, input)
	if err != nil {
		return ChannelStorage{}, ResolvedPath{}, err
	}
	return cs, rp, nil
}

// ResolveFile returns the absolute path of a regular file inside the
// channel's sandbox, for handlers that serve file contents directly.
func (d *Depot) ResolveFile(ctx context.Context, channelID int, input string) (string, error) {
	_, rp, err := d.sandbox(ctx, channelID, input)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(rp.Abs)
	if err != nil {
		return "", BadRequest("source does not exist")
	}
	if !info.Mode().IsRegular() {
		return "", BadRequest("source is not a file")
	}
	return rp.Abs, nil
}

// mergedExtensions is the lowercase, dot-free union of the globally
// configured extensions and the channel's extras.
func mergedExtensions(cs ChannelStorage) map[string]struct{} {
	exts := make(map[string]struct{})
	for _, src := range [][]string{param.Storage_Extensions.GetStringSlice(), cs.ExtraExtensions} {
		for _, e := range src {
			e = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(e), "."))
			if e != "" {
				exts[e] = struct{}{}
			}
		}
	}
	return exts
}
