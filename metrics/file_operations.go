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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counters for the file management API. The operation label carries
// "browse", "mkdir", "rename", "delete", "upload", or "download"; the
// outcome label is "ok" or "error".

var (
	FileOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mediadepot_file_operations_total",
		Help: "Total number of file management operations processed",
	}, []string{"operation", "outcome"})

	UploadedBytesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mediadepot_upload_bytes_total",
		Help: "Total bytes accepted through the upload endpoint",
	})

	ProbesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mediadepot_media_probes_total",
		Help: "Total number of media probe invocations",
	}, []string{"outcome"})

	WebDAVRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mediadepot_webdav_requests_total",
		Help: "Total number of WebDAV requests processed",
	}, []string{"method", "code"})
)
