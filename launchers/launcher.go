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

// Package launchers assembles the MediaDepot server: configuration, the
// channel database, the media prober, the web engine, and the monitoring
// routines, all tied to a single errgroup-managed lifecycle.
package launchers

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/stationops/mediadepot/config"
	"github.com/stationops/mediadepot/database"
	"github.com/stationops/mediadepot/mediaprobe"
	"github.com/stationops/mediadepot/metrics"
	"github.com/stationops/mediadepot/param"
	"github.com/stationops/mediadepot/storage"
	"github.com/stationops/mediadepot/web_api"
)

var (
	ErrExitOnSignal error = errors.New("Exit program on signal")
	ErrRestart      error = errors.New("Restart program")
)

// LaunchServer starts every server component and returns once the web
// engine owns its listener. The returned cancel function tears the stack
// down; the caller waits on the context's errgroup for the shutdown to
// finish.
func LaunchServer(ctx context.Context) (shutdownCancel context.CancelFunc, err error) {
	egrp, ok := ctx.Value(config.EgrpKey).(*errgroup.Group)
	if !ok {
		egrp = &errgroup.Group{}
	}

	ctx, shutdownCancel = context.WithCancel(ctx)

	config.LogMediaDepotVersion()

	var engine *gin.Engine
	engine, err = web_api.GetEngine()
	if err != nil {
		return
	}

	if err = config.InitServer(ctx); err != nil {
		err = errors.Wrap(err, "Failure when configuring the server")
		return
	}

	if err = database.InitServerDatabase(); err != nil {
		metrics.SetComponentHealthStatus(metrics.Server_Database, metrics.StatusCritical, err.Error())
		err = errors.Wrap(err, "Failure when initializing the channel database")
		return
	}
	metrics.SetComponentHealthStatus(metrics.Server_Database, metrics.StatusOK, "")
	egrp.Go(func() error {
		<-ctx.Done()
		return database.ShutdownDB(database.ServerDatabase)
	})

	database.LaunchChannelCache(ctx, egrp)

	prober := mediaprobe.NewCachingProber(mediaprobe.FFProbe{})
	prober.LaunchEviction(ctx, egrp)

	resolver := database.StorageResolver{}
	depot := storage.NewDepot(storage.DefaultPolicy(), resolver, prober)

	web_api.RegisterStorageAPI(engine, depot)
	web_api.RegisterChannelAPI(engine)
	web_api.RegisterWebDAV(engine, resolver)

	metrics.LaunchStorageUsageMonitor(ctx, egrp, channelRoots)

	addr := fmt.Sprintf("%v:%v", param.Server_WebHost.GetString(), param.Server_WebPort.GetInt())
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		err = errors.Wrapf(err, "failed to listen on %s", addr)
		return
	}
	lnReference := ln
	defer func() {
		if lnReference != nil {
			lnReference.Close()
		}
	}()

	log.Info("Starting web engine...")
	lnReference = nil
	egrp.Go(func() error {
		if err := web_api.RunEngineWithListener(ctx, ln, engine, egrp); err != nil {
			log.Errorln("Failure when running the web engine:", err)
			metrics.SetComponentHealthStatus(metrics.Server_WebAPI, metrics.StatusCritical, err.Error())
			shutdownCancel()
			return err
		}
		log.Info("Web engine has shutdown")
		shutdownCancel()
		return nil
	})
	metrics.SetComponentHealthStatus(metrics.Server_WebAPI, metrics.StatusOK, "")

	egrp.Go(func() error {
		log.Debug("Will shutdown process on signal")
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGHUP)
		defer signal.Stop(sigs)
		select {
		case sig := <-sigs:
			if sig == syscall.SIGHUP {
				log.Warning("Received SIGHUP; will restart process")
				shutdownCancel()
				return ErrRestart
			}
			log.Warningf("Received signal %v; will shutdown process", sig)
			shutdownCancel()
			return ErrExitOnSignal
		case <-ctx.Done():
			return nil
		}
	})

	return
}

// channelRoots feeds the storage usage monitor the current set of channel
// storage roots, so channels added at runtime get picked up on the next
// sweep without a restart.
func channelRoots() []string {
	channels, err := database.ListChannels()
	if err != nil {
		log.Warningln("Failed to list channel roots for the storage usage monitor:", err)
		return nil
	}
	roots := make([]string, 0, len(channels))
	for _, channel := range channels {
		roots = append(roots, channel.StorageRoot)
	}
	return roots
}
