// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package session

import (
	"encoding/json"
	"net/http"
)

// Handler returns an http.Handler exposing the current session over HTTP,
// typically mounted at a path like /api/session.
//
// GET returns the session payload as JSON ({} when no session exists).
// DELETE clears the session cookie and returns 204. Other methods get 405.
func (s *Store) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.Header().Set("Content-Type", "application/json")
			if err := json.NewEncoder(w).Encode(s.Get(r)); err != nil {
				s.logger.Debug("failed to write session payload", "error", err)
			}
		case http.MethodDelete:
			s.Clear(w)
			w.WriteHeader(http.StatusNoContent)
		default:
			w.Header().Set("Allow", "GET, DELETE")
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})
}
