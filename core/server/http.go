/*
SPDX-License-Identifier: Apache-2.0

Copyright 2024 The Recordview Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    https://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package server

import (
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// maxImportBytes bounds the size of an imported views document.
const maxImportBytes = 1 << 20

// Handler returns the HTTP routes of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		// Errors are logged by the handler.
		_ = s.HandleLandingRequest(w, w.Header().Set)
	})

	mux.HandleFunc("GET /table", func(w http.ResponseWriter, r *http.Request) {
		if result := s.HandleTableRequest(w, r.URL, w.Header().Set); result != nil {
			writeResult(w, result)
		}
	})

	mux.HandleFunc("POST /views/{action}", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form", http.StatusBadRequest)
			return
		}
		target, result := s.HandleViewAction(r.PathValue("action"), r.PostForm)
		if result != nil {
			writeResult(w, result)
			return
		}
		http.Redirect(w, r, target, http.StatusSeeOther)
	})

	mux.HandleFunc("GET /views/bar", func(w http.ResponseWriter, r *http.Request) {
		if result := s.HandleViewsBarRequest(w, r.URL, w.Header().Set); result != nil {
			writeResult(w, result)
		}
	})

	mux.HandleFunc("GET /views/export", func(w http.ResponseWriter, r *http.Request) {
		if result := s.HandleExport(w, r.URL.Query().Get("dataset"), w.Header().Set); result != nil {
			writeResult(w, result)
		}
	})

	mux.HandleFunc("POST /views/import", func(w http.ResponseWriter, r *http.Request) {
		body := http.MaxBytesReader(w, r.Body, maxImportBytes)
		n, result := s.HandleImport(r.URL.Query().Get("dataset"), body)
		if result != nil {
			writeResult(w, result)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprintf(w, "imported %d views\n", n)
	})

	return s.logRequests(mux)
}

func writeResult(w http.ResponseWriter, result *TableHandlerResult) {
	if result.StatusCode == 0 {
		// The body may already be partly written.
		return
	}
	http.Error(w, result.Message, result.StatusCode)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", time.Since(start)))
	})
}
