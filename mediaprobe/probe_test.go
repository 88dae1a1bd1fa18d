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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stationops/mediadepot/param"
	"github.com/stationops/mediadepot/storage"
)

func TestFFProbeParsesDuration(t *testing.T) {
	originalImpl := runProbeCommand
	defer func() { runProbeCommand = originalImpl }()
	viper.Reset()
	defer viper.Reset()

	var gotName string
	var gotArgs []string
	runProbeCommand = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		gotName = name
		gotArgs = args
		return []byte(`{"format": {"filename": "/tv-media/news/a.mp4", "duration": "30.000000"}}`), nil
	}

	info, err := FFProbe{}.Probe(context.Background(), "/tv-media/news/a.mp4")
	require.NoError(t, err)
	assert.Equal(t, "30.000000", info.Duration)
	assert.Equal(t, "ffprobe", gotName)
	assert.Contains(t, gotArgs, "-show_format")
	assert.Equal(t, "/tv-media/news/a.mp4", gotArgs[len(gotArgs)-1])
}

func TestFFProbeUsesConfiguredCommand(t *testing.T) {
	originalImpl := runProbeCommand
	defer func() { runProbeCommand = originalImpl }()
	viper.Reset()
	defer viper.Reset()
	viper.Set(param.Probe_Command.GetName(), "/opt/ffmpeg/bin/ffprobe")

	var gotName string
	runProbeCommand = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		gotName = name
		return []byte(`{"format": {"duration": "1.5"}}`), nil
	}

	_, err := FFProbe{}.Probe(context.Background(), "/tv-media/a.mp4")
	require.NoError(t, err)
	assert.Equal(t, "/opt/ffmpeg/bin/ffprobe", gotName)
}

func TestFFProbeCommandFailure(t *testing.T) {
	originalImpl := runProbeCommand
	defer func() { runProbeCommand = originalImpl }()
	viper.Reset()
	defer viper.Reset()

	runProbeCommand = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return nil, assert.AnError
	}

	_, err := FFProbe{}.Probe(context.Background(), "/tv-media/broken.mp4")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to probe /tv-media/broken.mp4")
}

func TestFFProbeMalformedOutput(t *testing.T) {
	originalImpl := runProbeCommand
	defer func() { runProbeCommand = originalImpl }()
	viper.Reset()
	defer viper.Reset()

	runProbeCommand = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return []byte("not json"), nil
	}

	_, err := FFProbe{}.Probe(context.Background(), "/tv-media/odd.mp4")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse probe output")
}

func TestFFProbeAppliesTimeout(t *testing.T) {
	originalImpl := runProbeCommand
	defer func() { runProbeCommand = originalImpl }()
	viper.Reset()
	defer viper.Reset()
	viper.Set(param.Probe_Timeout.GetName(), "10s")

	var gotDeadline bool
	runProbeCommand = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		_, gotDeadline = ctx.Deadline()
		return []byte(`{"format": {"duration": "2"}}`), nil
	}

	_, err := FFProbe{}.Probe(context.Background(), "/tv-media/a.mp4")
	require.NoError(t, err)
	assert.True(t, gotDeadline, "probe context should carry the configured deadline")
}

type countingProber struct {
	calls    int
	duration string
	err      error
}

func (p *countingProber) Probe(ctx context.Context, path string) (storage.MediaInfo, error) {
	p.calls++
	if p.err != nil {
		return storage.MediaInfo{}, p.err
	}
	return storage.MediaInfo{Duration: p.duration}, nil
}

func TestCachingProberHitsCache(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	mediaFile := filepath.Join(t.TempDir(), "a.mp4")
	require.NoError(t, os.WriteFile(mediaFile, []byte("x"), 0644))

	inner := &countingProber{duration: "12.5"}
	prober := NewCachingProber(inner)

	for i := 0; i < 3; i++ {
		info, err := prober.Probe(context.Background(), mediaFile)
		require.NoError(t, err)
		assert.Equal(t, "12.5", info.Duration)
	}
	assert.Equal(t, 1, inner.calls, "repeated probes of an unchanged file should hit the cache")
}

func TestCachingProberMissesOnModifiedFile(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	mediaFile := filepath.Join(t.TempDir(), "a.mp4")
	require.NoError(t, os.WriteFile(mediaFile, []byte("x"), 0644))

	inner := &countingProber{duration: "12.5"}
	prober := NewCachingProber(inner)

	_, err := prober.Probe(context.Background(), mediaFile)
	require.NoError(t, err)

	// Same size, different mtime
	require.NoError(t, os.Chtimes(mediaFile, time.Now(), time.Now().Add(time.Hour)))
	_, err = prober.Probe(context.Background(), mediaFile)
	require.NoError(t, err)

	assert.Equal(t, 2, inner.calls, "a changed mtime should bypass the cached entry")
}

func TestCachingProberDoesNotCacheFailures(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	mediaFile := filepath.Join(t.TempDir(), "a.mp4")
	require.NoError(t, os.WriteFile(mediaFile, []byte("x"), 0644))

	inner := &countingProber{err: assert.AnError}
	prober := NewCachingProber(inner)

	_, err := prober.Probe(context.Background(), mediaFile)
	require.Error(t, err)

	inner.err = nil
	inner.duration = "3"
	info, err := prober.Probe(context.Background(), mediaFile)
	require.NoError(t, err)
	assert.Equal(t, "3", info.Duration)
	assert.Equal(t, 2, inner.calls)
}

func TestCachingProberPassesThroughMissingFile(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	inner := &countingProber{err: assert.AnError}
	prober := NewCachingProber(inner)

	_, err := prober.Probe(context.Background(), "/nonexistent/a.mp4")
	require.Error(t, err)
	assert.Equal(t, 1, inner.calls)
}
