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

package mediaprobe

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"golang.org/x/sync/errgroup"

	"github.com/stationops/mediadepot/param"
	"github.com/stationops/mediadepot/storage"
)

// CachingProber wraps another prober with a TTL cache. Entries are keyed
// on path, size, and mtime, so a rewritten file misses the cache even
// within the TTL.
type CachingProber struct {
	inner storage.MediaProber
	cache *ttlcache.Cache[string, storage.MediaInfo]
}

func NewCachingProber(inner storage.MediaProber) *CachingProber {
	ttl := param.Probe_CacheTTL.GetDuration()
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachingProber{
		inner: inner,
		cache: ttlcache.New(
			ttlcache.WithTTL[string, storage.MediaInfo](ttl),
		),
	}
}

// LaunchEviction starts the cache eviction goroutine and stops it once
// ctx is canceled.
func (p *CachingProber) LaunchEviction(ctx context.Context, egrp *errgroup.Group) {
	go p.cache.Start()
	egrp.Go(func() error {
		<-ctx.Done()
		p.cache.Stop()
		return nil
	})
}

func (p *CachingProber) Probe(ctx context.Context, path string) (storage.MediaInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		// Let the inner prober produce the real error for a missing file
		return p.inner.Probe(ctx, path)
	}
	key := fmt.Sprintf("%s|%d|%d", path, info.Size(), info.ModTime().UnixNano())

	if item := p.cache.Get(key); item != nil {
		return item.Value(), nil
	}

	media, err := p.inner.Probe(ctx, path)
	if err != nil {
		return media, err
	}
	p.cache.Set(key, media, ttlcache.DefaultTTL)
	return media, nil
}
