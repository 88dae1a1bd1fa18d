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

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/stationops/mediadepot/database"
	"github.com/stationops/mediadepot/server_structs"
)

// RegisterChannelAPI mounts the read-only channel listing routes.
func RegisterChannelAPI(engine *gin.Engine) {
	channelGroup := engine.Group("/api/v1.0/channels")
	{
		channelGroup.GET("", handleListChannels)
		channelGroup.GET("/:id", handleGetChannel)
	}
}

func handleListChannels(ctx *gin.Context) {
	channels, err := database.ListChannels()
	if err != nil {
		log.Errorln("Failed to list channels:", err)
		ctx.JSON(http.StatusInternalServerError, server_structs.SimpleApiResp{
			Status: server_structs.RespFailed,
			Msg:    "failed to list channels",
		})
		return
	}
	ctx.JSON(http.StatusOK, channels)
}

func handleGetChannel(ctx *gin.Context) {
	id, ok := channelID(ctx)
	if !ok {
		return
	}

	channel, err := database.GetChannel(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, server_structs.SimpleApiResp{
				Status: server_structs.RespFailed,
				Msg:    "channel not found",
			})
			return
		}
		log.Errorln("Failed to fetch channel:", err)
		ctx.JSON(http.StatusInternalServerError, server_structs.SimpleApiResp{
			Status: server_structs.RespFailed,
			Msg:    "failed to fetch channel",
		})
		return
	}
	ctx.JSON(http.StatusOK, channel)
}
