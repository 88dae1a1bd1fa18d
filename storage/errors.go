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

package storage

import (
	"net/http"

	"github.com/pkg/errors"
)

// StatusError classifies a storage failure with the HTTP status code the
// API layer should answer with. The message is safe to hand to the
// caller; underlying causes stay in the server log.
type StatusError struct {
	Code int
	Msg  string
}

func (e *StatusError) Error() string {
	return e.Msg
}

// Forbidden marks paths the containment policy rejected.
func Forbidden(msg string) error {
	return &StatusError{Code: http.StatusForbidden, Msg: msg}
}

// BadRequest marks failures caused by the request itself: missing
// sources, occupied rename targets, non-empty directory deletes, and
// filesystem operations that the underlying OS refused.
func BadRequest(msg string) error {
	return &StatusError{Code: http.StatusBadRequest, Msg: msg}
}

// Conflict marks an upload whose resolved target already exists.
func Conflict(msg string) error {
	return &StatusError{Code: http.StatusConflict, Msg: msg}
}

// Internal marks a classification branch that should be unreachable; it
// signals a logic bug rather than a user error.
func Internal() error {
	return &StatusError{Code: http.StatusInternalServerError, Msg: "internal server error"}
}

// StatusFor maps err to the response status and message for the API
// layer. Errors outside the storage taxonomy collapse to a generic 500 so
// internal details never leak to the caller.
func StatusFor(err error) (int, string) {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code, se.Msg
	}
	return http.StatusInternalServerError, "internal server error"
}
