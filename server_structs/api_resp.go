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

// Package server_structs shares the wire structs and database models used
// across the MediaDepot server packages (storage/web_api/database).
//
// It should only import lower level packages (config/param/etc) and never
// any server package, so everything above it can exchange these types
// freely.
package server_structs

type (

	// A short response object, meant for the result from most of the
	// MediaDepot APIs. Will generate a JSON of the form:
	// {"status": "error", "msg": "Some Error Message"}
	// or
	// {"status": "success"}
	SimpleApiResp struct {
		Status SimpleRespStatus `json:"status"`
		Msg    string           `json:"msg,omitempty"`
	}

	// The standardized status message for the API response
	SimpleRespStatus string
)

const (
	// Indicates the API succeeded.
	RespOK SimpleRespStatus = "success"
	// Indicates the API call failed; the SimpleApiResp Msg should be non-empty in this case
	RespFailed SimpleRespStatus = "error"
)
