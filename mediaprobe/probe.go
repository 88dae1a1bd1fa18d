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

// Package mediaprobe shells out to ffprobe (or a compatible tool) to read
// container metadata from media files, with a TTL cache in front so that
// browsing a directory twice does not probe every file twice.
package mediaprobe

import (
	"context"
	"encoding/json"
	"os/exec"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/stationops/mediadepot/metrics"
	"github.com/stationops/mediadepot/param"
	"github.com/stationops/mediadepot/storage"
)

// runProbeCommand is a package-level variable that holds the function used to
// execute the probe binary. It can be overridden in tests to inject custom
// implementations.
var runProbeCommand = func(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// FFProbe probes media files by invoking the configured Probe.Command with
// ffprobe-compatible arguments. It satisfies storage.MediaProber.
type FFProbe struct{}

func (FFProbe) Probe(ctx context.Context, path string) (storage.MediaInfo, error) {
	if timeout := param.Probe_Timeout.GetDuration(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	command := param.Probe_Command.GetString()
	if command == "" {
		command = "ffprobe"
	}

	out, err := runProbeCommand(ctx, command,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		path,
	)
	if err != nil {
		metrics.ProbesTotal.WithLabelValues("error").Inc()
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			log.Debugf("Probe of %s exited with %d: %s", path, exitErr.ExitCode(), string(exitErr.Stderr))
		}
		return storage.MediaInfo{}, errors.Wrapf(err, "failed to probe %s", path)
	}

	var parsed probeOutput
	if err := json.Unmarshal(out, &parsed); err != nil {
		metrics.ProbesTotal.WithLabelValues("error").Inc()
		return storage.MediaInfo{}, errors.Wrapf(err, "failed to parse probe output for %s", path)
	}

	metrics.ProbesTotal.WithLabelValues("ok").Inc()
	return storage.MediaInfo{Duration: parsed.Format.Duration}, nil
}
