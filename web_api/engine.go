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

// Package web_api assembles the gin engine serving the file management
// API, the channel listing, the WebDAV export, and the monitoring
// endpoints.
package web_api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/stationops/mediadepot/metrics"
	"github.com/stationops/mediadepot/param"
)

// engineShutdownTimeout bounds how long in-flight requests may drain
// once the server context is canceled.
const engineShutdownTimeout = 10 * time.Second

func ConfigureMetrics(engine *gin.Engine) error {
	if param.Monitoring_EnablePrometheus.GetBool() {
		prometheusMonitor := ginprometheus.NewPrometheus("gin")
		prometheusMonitor.Use(engine)
	}

	engine.GET("/api/v1.0/health", func(ctx *gin.Context) {
		healthStatus := metrics.GetHealthStatus()
		ctx.JSON(http.StatusOK, healthStatus)
	})
	return nil
}

func GetEngine() (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	webLogger := log.WithFields(log.Fields{"daemon": "gin"})
	engine.Use(func(ctx *gin.Context) {
		startTime := time.Now()

		requestID := uuid.NewString()
		ctx.Header("X-Request-ID", requestID)

		ctx.Next()

		latency := time.Since(startTime)
		webLogger.WithFields(log.Fields{"method": ctx.Request.Method,
			"status":     ctx.Writer.Status(),
			"time":       latency.String(),
			"client":     ctx.RemoteIP(),
			"resource":   ctx.Request.URL.Path,
			"request_id": requestID},
		).Info("Served Request")
	})
	if err := ConfigureMetrics(engine); err != nil {
		return nil, err
	}
	return engine, nil
}

// RunEngine serves the engine on Server.WebHost:Server.WebPort until ctx
// is canceled, then drains in-flight requests.
func RunEngine(ctx context.Context, engine *gin.Engine, egrp *errgroup.Group) error {
	addr := fmt.Sprintf("%v:%v", param.Server_WebHost.GetString(), param.Server_WebPort.GetInt())
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "failed to listen on %s", addr)
	}
	return RunEngineWithListener(ctx, ln, engine, egrp)
}

// RunEngineWithListener serves on a listener the caller already opened,
// which lets the launcher bind the port before any component starts.
func RunEngineWithListener(ctx context.Context, ln net.Listener, engine *gin.Engine, egrp *errgroup.Group) error {
	server := &http.Server{Handler: engine}
	egrp.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), engineShutdownTimeout)
		defer cancel()
		err := server.Shutdown(shutdownCtx)
		if err != nil {
			log.Errorln("Failed to shutdown server:", err)
		}
		return err
	})

	log.Debugln("Starting web engine at address", ln.Addr().String())
	if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
