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
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stationops/mediadepot/server_structs"
	"github.com/stationops/mediadepot/storage"
	"github.com/stationops/mediadepot/test_utils"
)

// staticResolver serves channel storage configs from a fixed map, standing
// in for the database-backed resolver.
type staticResolver struct {
	channels map[int]storage.ChannelStorage
}

func (r staticResolver) StorageOf(_ context.Context, id int) (storage.ChannelStorage, error) {
	cs, ok := r.channels[id]
	if !ok {
		return storage.ChannelStorage{}, storage.BadRequest("channel not found")
	}
	return cs, nil
}

// staticProber reports canned durations keyed by base name and fails for
// anything else.
type staticProber struct {
	durations map[string]string
}

func (p staticProber) Probe(_ context.Context, path string) (storage.MediaInfo, error) {
	if d, ok := p.durations[filepath.Base(path)]; ok {
		return storage.MediaInfo{Duration: d}, nil
	}
	return storage.MediaInfo{}, errors.New("unprobeable file")
}

func jsonRequest(t *testing.T, router *gin.Engine, method, target string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, target, body)
	require.NoError(t, err)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func decodeApiResp(t *testing.T, recorder *httptest.ResponseRecorder) server_structs.SimpleApiResp {
	t.Helper()
	var resp server_structs.SimpleApiResp
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
	return resp
}

func multipartUpload(t *testing.T, router *gin.Engine, target, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	var (
		fw  io.Writer
		err error
	)
	if filename != "" {
		fw, err = mw.CreateFormFile("file", filename)
	} else {
		fw, err = mw.CreateFormField("file")
	}
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPut, target, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func TestStorageAPI(t *testing.T) {
	t.Cleanup(test_utils.SetupTestLogging(t))
	gin.SetMode(gin.TestMode)
	viper.Reset()
	t.Cleanup(viper.Reset)
	viper.Set("Storage.Extensions", []string{"mp4", "mkv"})

	tmp := t.TempDir()
	root := filepath.Join(tmp, "chan1")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "clips", "b"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "clips", "clip.mp4"), []byte("fake-video-data"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "clips", "notes.txt"), []byte("not media"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "clips", ".hidden.mp4"), []byte("skipped"), 0644))

	resolver := staticResolver{channels: map[int]storage.ChannelStorage{
		1: {Root: root},
		// Points outside the containment policy on purpose; every
		// request against it must be rejected.
		7: {Root: "/media/chan1"},
	}}
	prober := staticProber{durations: map[string]string{"clip.mp4": "42.5"}}

	depot := storage.NewDepot(storage.Policy{AllowedPrefixes: []string{tmp}}, resolver, prober)
	router := gin.Default()
	RegisterStorageAPI(router, depot)

	t.Run("browse-listing", func(t *testing.T) {
		recorder := jsonRequest(t, router, http.MethodPost, "/api/v1.0/storage/1/browse", server_structs.PathObject{Source: "clips"})
		require.Equal(t, http.StatusOK, recorder.Code, fmt.Sprintf("unexpected status %d on browse, body: %s", recorder.Code, recorder.Body.String()))

		var listing server_structs.PathObject
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&listing))
		assert.Equal(t, "clips", listing.Source)
		assert.Equal(t, "chan1", listing.Parent)
		assert.Equal(t, []string{"clips"}, listing.ParentFolders)
		assert.Equal(t, []string{"b"}, listing.Folders)
		require.Len(t, listing.Files, 1, "only allowed, probeable media should be listed")
		assert.Equal(t, "clip.mp4", listing.Files[0].Name)
		assert.Equal(t, 42.5, listing.Files[0].Duration)
	})

	t.Run("browse-folders-only", func(t *testing.T) {
		recorder := jsonRequest(t, router, http.MethodPost, "/api/v1.0/storage/1/browse", server_structs.PathObject{Source: "clips", FoldersOnly: true})
		require.Equal(t, http.StatusOK, recorder.Code)

		var listing server_structs.PathObject
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&listing))
		assert.True(t, listing.FoldersOnly)
		assert.Equal(t, []string{"b"}, listing.Folders)
		assert.Empty(t, listing.Files)
		assert.Empty(t, listing.ParentFolders)
	})

	t.Run("browse-outside-policy-forbidden", func(t *testing.T) {
		recorder := jsonRequest(t, router, http.MethodPost, "/api/v1.0/storage/7/browse", server_structs.PathObject{Source: "../../etc/passwd"})
		require.Equal(t, http.StatusForbidden, recorder.Code, fmt.Sprintf("unexpected status %d, body: %s", recorder.Code, recorder.Body.String()))
		resp := decodeApiResp(t, recorder)
		assert.Equal(t, server_structs.RespFailed, resp.Status)
		assert.Equal(t, "ill-formed path", resp.Msg)
	})

	t.Run("browse-traversal-stays-contained", func(t *testing.T) {
		// Traversal segments are stripped before the path ever reaches
		// the filesystem, so this resolves under the channel root and
		// fails only because no such directory exists there.
		recorder := jsonRequest(t, router, http.MethodPost, "/api/v1.0/storage/1/browse", server_structs.PathObject{Source: "../../etc/passwd"})
		require.Equal(t, http.StatusBadRequest, recorder.Code)
		resp := decodeApiResp(t, recorder)
		assert.Contains(t, resp.Msg, "unable to read directory")
	})

	t.Run("browse-unknown-channel", func(t *testing.T) {
		recorder := jsonRequest(t, router, http.MethodPost, "/api/v1.0/storage/99/browse", server_structs.PathObject{Source: "clips"})
		require.Equal(t, http.StatusBadRequest, recorder.Code)
		assert.Equal(t, "channel not found", decodeApiResp(t, recorder).Msg)
	})

	t.Run("browse-invalid-channel-id", func(t *testing.T) {
		recorder := jsonRequest(t, router, http.MethodPost, "/api/v1.0/storage/abc/browse", server_structs.PathObject{Source: "clips"})
		require.Equal(t, http.StatusBadRequest, recorder.Code)
		assert.Equal(t, "invalid channel id", decodeApiResp(t, recorder).Msg)
	})

	t.Run("browse-malformed-payload", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodPost, "/api/v1.0/storage/1/browse", bytes.NewReader([]byte("{")))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)
		require.Equal(t, http.StatusBadRequest, recorder.Code)
		assert.Equal(t, "invalid browse request payload", decodeApiResp(t, recorder).Msg)
	})

	t.Run("create-directory", func(t *testing.T) {
		recorder := jsonRequest(t, router, http.MethodPost, "/api/v1.0/storage/1/directory", server_structs.PathObject{Source: "shows/s01"})
		require.Equal(t, http.StatusOK, recorder.Code, fmt.Sprintf("unexpected status %d, body: %s", recorder.Code, recorder.Body.String()))
		assert.Equal(t, server_structs.RespOK, decodeApiResp(t, recorder).Status)
		assert.DirExists(t, filepath.Join(root, "shows", "s01"))

		// Repeating the call is fine.
		recorder = jsonRequest(t, router, http.MethodPost, "/api/v1.0/storage/1/directory", server_structs.PathObject{Source: "shows/s01"})
		assert.Equal(t, http.StatusOK, recorder.Code)
	})

	t.Run("rename-same-parent", func(t *testing.T) {
		require.NoError(t, os.MkdirAll(filepath.Join(root, "clips2"), 0755))
		require.NoError(t, os.WriteFile(filepath.Join(root, "clips2", "x.mp4"), []byte("x"), 0644))

		recorder := jsonRequest(t, router, http.MethodPost, "/api/v1.0/storage/1/rename", server_structs.MoveObject{Source: "clips2/x.mp4", Target: "clips2/y.mp4"})
		require.Equal(t, http.StatusOK, recorder.Code, fmt.Sprintf("unexpected status %d, body: %s", recorder.Code, recorder.Body.String()))

		var moved server_structs.MoveObject
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&moved))
		assert.Equal(t, server_structs.MoveObject{Source: "x.mp4", Target: "y.mp4"}, moved)
		assert.NoFileExists(t, filepath.Join(root, "clips2", "x.mp4"))
		assert.FileExists(t, filepath.Join(root, "clips2", "y.mp4"))
	})

	t.Run("rename-into-directory", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(root, "clips2", "a.mp4"), []byte("a"), 0644))
		require.NoError(t, os.MkdirAll(filepath.Join(root, "archive"), 0755))

		recorder := jsonRequest(t, router, http.MethodPost, "/api/v1.0/storage/1/rename", server_structs.MoveObject{Source: "clips2/a.mp4", Target: "archive"})
		require.Equal(t, http.StatusOK, recorder.Code, fmt.Sprintf("unexpected status %d, body: %s", recorder.Code, recorder.Body.String()))

		var moved server_structs.MoveObject
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&moved))
		assert.Equal(t, server_structs.MoveObject{Source: "a.mp4", Target: "a.mp4"}, moved)
		assert.FileExists(t, filepath.Join(root, "archive", "a.mp4"))
	})

	t.Run("rename-occupied-target", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(root, "src.mp4"), []byte("src"), 0644))
		require.NoError(t, os.MkdirAll(filepath.Join(root, "moves"), 0755))
		require.NoError(t, os.WriteFile(filepath.Join(root, "moves", "occupied.mp4"), []byte("keep me"), 0644))

		recorder := jsonRequest(t, router, http.MethodPost, "/api/v1.0/storage/1/rename", server_structs.MoveObject{Source: "src.mp4", Target: "moves/occupied.mp4"})
		require.Equal(t, http.StatusBadRequest, recorder.Code)
		assert.Equal(t, "target already exists", decodeApiResp(t, recorder).Msg)

		assert.FileExists(t, filepath.Join(root, "src.mp4"))
		content, err := os.ReadFile(filepath.Join(root, "moves", "occupied.mp4"))
		require.NoError(t, err)
		assert.Equal(t, "keep me", string(content))
	})

	t.Run("rename-missing-source", func(t *testing.T) {
		recorder := jsonRequest(t, router, http.MethodPost, "/api/v1.0/storage/1/rename", server_structs.MoveObject{Source: "ghost.mp4", Target: "elsewhere.mp4"})
		require.Equal(t, http.StatusBadRequest, recorder.Code)
		assert.Equal(t, "source does not exist", decodeApiResp(t, recorder).Msg)
	})

	t.Run("remove-file", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(root, "del.mp4"), []byte("bye"), 0644))

		recorder := jsonRequest(t, router, http.MethodDelete, "/api/v1.0/storage/1/remove?path=del.mp4", nil)
		require.Equal(t, http.StatusOK, recorder.Code, fmt.Sprintf("unexpected status %d, body: %s", recorder.Code, recorder.Body.String()))
		assert.NoFileExists(t, filepath.Join(root, "del.mp4"))
	})

	t.Run("remove-empty-directory", func(t *testing.T) {
		require.NoError(t, os.MkdirAll(filepath.Join(root, "emptydir"), 0755))

		recorder := jsonRequest(t, router, http.MethodDelete, "/api/v1.0/storage/1/remove?path=emptydir", nil)
		require.Equal(t, http.StatusOK, recorder.Code)
		assert.NoDirExists(t, filepath.Join(root, "emptydir"))
	})

	t.Run("remove-non-empty-directory", func(t *testing.T) {
		recorder := jsonRequest(t, router, http.MethodDelete, "/api/v1.0/storage/1/remove?path=clips", nil)
		require.Equal(t, http.StatusBadRequest, recorder.Code)
		assert.Equal(t, "unable to delete folder, folder must be empty", decodeApiResp(t, recorder).Msg)

		assert.DirExists(t, filepath.Join(root, "clips"))
		assert.FileExists(t, filepath.Join(root, "clips", "clip.mp4"))
	})

	t.Run("remove-missing-path-param", func(t *testing.T) {
		recorder := jsonRequest(t, router, http.MethodDelete, "/api/v1.0/storage/1/remove", nil)
		require.Equal(t, http.StatusBadRequest, recorder.Code)
		assert.Equal(t, "no path provided", decodeApiResp(t, recorder).Msg)
	})

	t.Run("remove-nonexistent", func(t *testing.T) {
		recorder := jsonRequest(t, router, http.MethodDelete, "/api/v1.0/storage/1/remove?path=ghost.mp4", nil)
		require.Equal(t, http.StatusBadRequest, recorder.Code)
		assert.Equal(t, "source does not exist", decodeApiResp(t, recorder).Msg)
	})

	t.Run("upload-new-file", func(t *testing.T) {
		recorder := multipartUpload(t, router, "/api/v1.0/storage/1/upload?path=clips", "upload.mp4", "media-bytes")
		require.Equal(t, http.StatusOK, recorder.Code, fmt.Sprintf("unexpected status %d, body: %s", recorder.Code, recorder.Body.String()))
		assert.Equal(t, server_structs.RespOK, decodeApiResp(t, recorder).Status)

		content, err := os.ReadFile(filepath.Join(root, "clips", "upload.mp4"))
		require.NoError(t, err)
		assert.Equal(t, "media-bytes", string(content))
	})

	t.Run("upload-conflict-keeps-existing", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(root, "clips", "taken.mp4"), []byte("original-content"), 0644))

		recorder := multipartUpload(t, router, "/api/v1.0/storage/1/upload?path=clips", "taken.mp4", "overwrite-attempt")
		require.Equal(t, http.StatusConflict, recorder.Code)
		assert.Equal(t, "target already exists", decodeApiResp(t, recorder).Msg)

		content, err := os.ReadFile(filepath.Join(root, "clips", "taken.mp4"))
		require.NoError(t, err)
		assert.Equal(t, "original-content", string(content))
	})

	t.Run("upload-traversal-filename-sanitized", func(t *testing.T) {
		recorder := multipartUpload(t, router, "/api/v1.0/storage/1/upload?path=clips", "../../../evil.mp4", "contained")
		require.Equal(t, http.StatusOK, recorder.Code, fmt.Sprintf("unexpected status %d, body: %s", recorder.Code, recorder.Body.String()))

		assert.FileExists(t, filepath.Join(root, "clips", "evil.mp4"))
		assert.NoFileExists(t, filepath.Join(root, "evil.mp4"))
	})

	t.Run("upload-nameless-part-gets-random-name", func(t *testing.T) {
		require.NoError(t, os.MkdirAll(filepath.Join(root, "updir"), 0755))

		recorder := multipartUpload(t, router, "/api/v1.0/storage/1/upload?path=updir", "", "anonymous payload")
		require.Equal(t, http.StatusOK, recorder.Code, fmt.Sprintf("unexpected status %d, body: %s", recorder.Code, recorder.Body.String()))

		entries, err := os.ReadDir(filepath.Join(root, "updir"))
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Len(t, entries[0].Name(), 20)
	})

	t.Run("upload-to-missing-directory", func(t *testing.T) {
		recorder := multipartUpload(t, router, "/api/v1.0/storage/1/upload?path=nosuchdir", "file.mp4", "data")
		require.Equal(t, http.StatusBadRequest, recorder.Code)
		assert.Equal(t, "upload directory does not exist", decodeApiResp(t, recorder).Msg)
	})

	t.Run("upload-not-multipart", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodPut, "/api/v1.0/storage/1/upload?path=clips", bytes.NewReader([]byte("raw body")))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "text/plain")
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)
		require.Equal(t, http.StatusBadRequest, recorder.Code)
		assert.Equal(t, "expected a multipart upload", decodeApiResp(t, recorder).Msg)
	})

	t.Run("download-file", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, "/api/v1.0/storage/1/download?path=clips/clip.mp4", nil)
		require.NoError(t, err)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)
		require.Equal(t, http.StatusOK, recorder.Code, fmt.Sprintf("unexpected status %d, body: %s", recorder.Code, recorder.Body.String()))
		assert.Contains(t, recorder.Header().Get("Content-Disposition"), `filename="clip.mp4"`)
		assert.Equal(t, "fake-video-data", recorder.Body.String())
	})

	t.Run("download-missing-file", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, "/api/v1.0/storage/1/download?path=clips/ghost.mp4", nil)
		require.NoError(t, err)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)
		require.Equal(t, http.StatusBadRequest, recorder.Code)
		assert.Equal(t, "source does not exist", decodeApiResp(t, recorder).Msg)
	})

	t.Run("download-directory-rejected", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, "/api/v1.0/storage/1/download?path=clips", nil)
		require.NoError(t, err)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)
		require.Equal(t, http.StatusBadRequest, recorder.Code)
		assert.Equal(t, "source is not a file", decodeApiResp(t, recorder).Msg)
	})

	t.Run("download-missing-path-param", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, "/api/v1.0/storage/1/download", nil)
		require.NoError(t, err)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)
		require.Equal(t, http.StatusBadRequest, recorder.Code)
		assert.Equal(t, "no path provided", decodeApiResp(t, recorder).Msg)
	})
}
