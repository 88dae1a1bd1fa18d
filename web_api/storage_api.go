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

package web_api

import (
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/stationops/mediadepot/metrics"
	"github.com/stationops/mediadepot/server_structs"
	"github.com/stationops/mediadepot/storage"
)

type storageAPI struct {
	depot *storage.Depot
}

// RegisterStorageAPI mounts the file management routes on the engine.
func RegisterStorageAPI(engine *gin.Engine, depot *storage.Depot) {
	api := storageAPI{depot: depot}

	storageGroup := engine.Group("/api/v1.0/storage")
	{
		storageGroup.POST("/:id/browse", api.handleBrowse)
		storageGroup.POST("/:id/directory", api.handleCreateDirectory)
		storageGroup.POST("/:id/rename", api.handleRename)
		storageGroup.DELETE("/:id/remove", api.handleRemove)
		storageGroup.PUT("/:id/upload", api.handleUpload)
		storageGroup.GET("/:id/download", api.handleDownload)
	}
}

// channelID extracts the :id route parameter. On a malformed id it writes
// the error response itself and reports false.
func channelID(ctx *gin.Context) (int, bool) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, server_structs.SimpleApiResp{
			Status: server_structs.RespFailed,
			Msg:    "invalid channel id",
		})
		return 0, false
	}
	return id, true
}

func failOperation(ctx *gin.Context, operation string, err error) {
	code, msg := storage.StatusFor(err)
	metrics.FileOperationsTotal.WithLabelValues(operation, "error").Inc()
	ctx.JSON(code, server_structs.SimpleApiResp{Status: server_structs.RespFailed, Msg: msg})
}

func (a storageAPI) handleBrowse(ctx *gin.Context) {
	id, ok := channelID(ctx)
	if !ok {
		return
	}

	var req server_structs.PathObject
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, server_structs.SimpleApiResp{Status: server_structs.RespFailed, Msg: "invalid browse request payload"})
		return
	}

	obj, err := a.depot.Browse(ctx.Request.Context(), id, &req)
	if err != nil {
		failOperation(ctx, "browse", err)
		return
	}
	metrics.FileOperationsTotal.WithLabelValues("browse", "ok").Inc()
	ctx.JSON(http.StatusOK, obj)
}

func (a storageAPI) handleCreateDirectory(ctx *gin.Context) {
	id, ok := channelID(ctx)
	if !ok {
		return
	}

	var req server_structs.PathObject
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, server_structs.SimpleApiResp{Status: server_structs.RespFailed, Msg: "invalid directory request payload"})
		return
	}

	if err := a.depot.CreateDirectory(ctx.Request.Context(), id, &req); err != nil {
		failOperation(ctx, "mkdir", err)
		return
	}
	metrics.FileOperationsTotal.WithLabelValues("mkdir", "ok").Inc()
	ctx.JSON(http.StatusOK, server_structs.SimpleApiResp{Status: server_structs.RespOK})
}

func (a storageAPI) handleRename(ctx *gin.Context) {
	id, ok := channelID(ctx)
	if !ok {
		return
	}

	var req server_structs.MoveObject
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, server_structs.SimpleApiResp{Status: server_structs.RespFailed, Msg: "invalid rename request payload"})
		return
	}

	moved, err := a.depot.RenameItem(ctx.Request.Context(), id, &req)
	if err != nil {
		failOperation(ctx, "rename", err)
		return
	}
	metrics.FileOperationsTotal.WithLabelValues("rename", "ok").Inc()
	ctx.JSON(http.StatusOK, moved)
}

func (a storageAPI) handleRemove(ctx *gin.Context) {
	id, ok := channelID(ctx)
	if !ok {
		return
	}

	path := ctx.Query("path")
	if path == "" {
		ctx.JSON(http.StatusBadRequest, server_structs.SimpleApiResp{Status: server_structs.RespFailed, Msg: "no path provided"})
		return
	}

	if err := a.depot.Remove(ctx.Request.Context(), id, path); err != nil {
		failOperation(ctx, "delete", err)
		return
	}
	metrics.FileOperationsTotal.WithLabelValues("delete", "ok").Inc()
	ctx.JSON(http.StatusOK, server_structs.SimpleApiResp{Status: server_structs.RespOK})
}

func (a storageAPI) handleUpload(ctx *gin.Context) {
	id, ok := channelID(ctx)
	if !ok {
		return
	}

	path := ctx.Query("path")
	absolute, _ := strconv.ParseBool(ctx.Query("absolute"))

	mr, err := ctx.Request.MultipartReader()
	if err != nil {
		ctx.JSON(http.StatusBadRequest, server_structs.SimpleApiResp{Status: server_structs.RespFailed, Msg: "expected a multipart upload"})
		return
	}

	err = a.depot.ReceiveFile(ctx.Request.Context(), id, path, absolute, ctx.Request.ContentLength, mr)
	if err != nil {
		failOperation(ctx, "upload", err)
		return
	}
	metrics.FileOperationsTotal.WithLabelValues("upload", "ok").Inc()
	ctx.JSON(http.StatusOK, server_structs.SimpleApiResp{Status: server_structs.RespOK})
}

func (a storageAPI) handleDownload(ctx *gin.Context) {
	id, ok := channelID(ctx)
	if !ok {
		return
	}

	path := ctx.Query("path")
	if path == "" {
		ctx.JSON(http.StatusBadRequest, server_structs.SimpleApiResp{Status: server_structs.RespFailed, Msg: "no path provided"})
		return
	}

	abs, err := a.depot.ResolveFile(ctx.Request.Context(), id, path)
	if err != nil {
		failOperation(ctx, "download", err)
		return
	}
	metrics.FileOperationsTotal.WithLabelValues("download", "ok").Inc()
	ctx.FileAttachment(abs, filepath.Base(abs))
}
