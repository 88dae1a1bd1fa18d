//go:build !windows

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

package metrics

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/stationops/mediadepot/param"
)

const (
	// firstCheckDelay is the delay before the first storage usage check runs
	firstCheckDelay = 5 * time.Second

	usageWarningThreshold  = 80.0
	usageCriticalThreshold = 90.0
)

var (
	StorageTotalBytes = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "mediadepot_storage_total_bytes",
		Help: "Total size of the filesystem backing a monitored path",
	}, []string{"path"})

	StorageUsedBytes = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "mediadepot_storage_used_bytes",
		Help: "Used bytes on the filesystem backing a monitored path",
	}, []string{"path"})
)

// getFilesystemUsageImpl is a package-level variable that holds the function to get filesystem usage.
// It can be overridden in tests to inject custom implementations.
var getFilesystemUsageImpl = func(path string) (usagePercent float64, totalBytes uint64, usedBytes uint64, err error) {
	var stat syscall.Statfs_t
	if err = syscall.Statfs(path, &stat); err != nil {
		err = errors.Wrapf(err, "unable to determine filesystem usage for path %s", path)
		return
	}

	// Calculate usage
	totalBytes = stat.Blocks * uint64(stat.Bsize)
	availableBytes := stat.Bavail * uint64(stat.Bsize)
	usedBytes = totalBytes - availableBytes

	if totalBytes > 0 {
		usagePercent = float64(usedBytes) / float64(totalBytes) * 100.0
	}

	return
}

// getFilesystemUsage returns the percentage of storage used for a given path.
// Returns usage percentage (0-100), total bytes, used bytes, and any error.
func getFilesystemUsage(ctx context.Context, path string) (usagePercent float64, totalBytes uint64, usedBytes uint64, err error) {
	return getFilesystemUsageImpl(path)
}

// getPathsToCheck returns a deduplicated list of filesystem paths whose usage
// should be sampled: every channel storage root plus the directories holding
// the server database and the log file.
func getPathsToCheck(channelRoots []string) []string {
	pathsMap := make(map[string]bool)
	var paths []string

	for _, root := range channelRoots {
		if root != "" {
			pathsMap[root] = true
		}
	}

	// Empty string means stderr, so we skip it
	if logPath := param.Logging_LogLocation.GetString(); logPath != "" && logPath != "/dev/null" {
		pathsMap[filepath.Dir(logPath)] = true
	}

	if dbPath := param.Server_DbLocation.GetString(); dbPath != "" {
		pathsMap[filepath.Dir(dbPath)] = true
	}

	for path := range pathsMap {
		paths = append(paths, path)
	}

	return paths
}

// checkStorageUsage samples filesystem usage for all monitored paths, updates
// the exported gauges, and rolls the worst finding into the storage component
// health.
func checkStorageUsage(ctx context.Context, channelRoots []string) {
	paths := getPathsToCheck(channelRoots)

	if len(paths) == 0 {
		log.Debug("No paths configured for storage usage check")
		SetComponentHealthStatus(Server_StorageUsage, StatusOK, "No paths configured for monitoring")
		return
	}

	// Track the worst status found
	worstStatus := StatusOK
	var statusMessages []string

	for _, path := range paths {
		usage, totalBytes, usedBytes, err := getFilesystemUsage(ctx, path)
		if err != nil {
			log.Warningf("Failed to check storage for path %s: %v", path, err)
			if worstStatus > StatusWarning {
				worstStatus = StatusWarning
			}
			statusMessages = append(statusMessages, fmt.Sprintf("Failed to check %s: %v", path, err))
			continue
		}

		log.Debugf("Storage check for %s: %.2f%% used (%d/%d bytes)", path, usage, usedBytes, totalBytes)

		StorageTotalBytes.With(prometheus.Labels{"path": path}).Set(float64(totalBytes))
		StorageUsedBytes.With(prometheus.Labels{"path": path}).Set(float64(usedBytes))

		if usage >= usageCriticalThreshold {
			worstStatus = StatusCritical
			statusMessages = append(statusMessages, fmt.Sprintf("%s: %.1f%% used (critical threshold: %.0f%%)", path, usage, usageCriticalThreshold))
		} else if usage >= usageWarningThreshold {
			if worstStatus > StatusWarning {
				worstStatus = StatusWarning
			}
			statusMessages = append(statusMessages, fmt.Sprintf("%s: %.1f%% used (warning threshold: %.0f%%)", path, usage, usageWarningThreshold))
		}
	}

	switch worstStatus {
	case StatusOK:
		SetComponentHealthStatus(Server_StorageUsage, StatusOK, "All monitored filesystems have adequate storage")
	case StatusWarning:
		msg := "Storage usage is elevated: " + strings.Join(statusMessages, "; ")
		SetComponentHealthStatus(Server_StorageUsage, StatusWarning, msg)
	case StatusCritical:
		msg := "Storage usage is critical: " + strings.Join(statusMessages, "; ")
		SetComponentHealthStatus(Server_StorageUsage, StatusCritical, msg)
	}
}

// LaunchStorageUsageMonitor starts a goroutine that periodically samples
// filesystem usage for the channel storage roots (as reported by channelRoots)
// and the server's own data directories.
func LaunchStorageUsageMonitor(ctx context.Context, egrp *errgroup.Group, channelRoots func() []string) {
	checkInterval := param.Storage_UsageCheckInterval.GetDuration()

	if checkInterval <= 0 {
		log.Debug("Storage usage check disabled (interval <= 0)")
		return
	}

	ticker := time.NewTicker(checkInterval)
	firstCheck := time.After(firstCheckDelay)

	egrp.Go(func() error {
		defer ticker.Stop()
		log.Debugf("Storage usage monitor started with interval: %s", checkInterval)

		for {
			select {
			case <-firstCheck:
				checkStorageUsage(ctx, channelRoots())
			case <-ticker.C:
				checkStorageUsage(ctx, channelRoots())
			case <-ctx.Done():
				log.Info("Storage usage monitor has been terminated")
				return nil
			}
		}
	})
}
