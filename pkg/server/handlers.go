// SPDX-FileCopyrightText: Copyright 2026 Arcline Software, Inc.
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/arcline/tokengate/pkg/errs"
	"github.com/arcline/tokengate/pkg/logger"
)

// sessionCookieName is the cookie carrying the admin session token.
const sessionCookieName = "session"

func setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}

func sessionToken(r *http.Request) string {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// requireSession resolves the session cookie to a username. On failure it
// redirects to the login endpoint and reports false.
func (s *Routes) requireSession(w http.ResponseWriter, r *http.Request) (username, token string, ok bool) {
	token = sessionToken(r)
	if token == "" {
		http.Redirect(w, r, "/admin", http.StatusFound)
		return "", "", false
	}

	username, err := s.sessions.Validate(r.Context(), token)
	if err != nil {
		if errs.IsStore(err) {
			writeError(w, err)
			return "", "", false
		}
		http.Redirect(w, r, "/admin", http.StatusFound)
		return "", "", false
	}
	return username, token, true
}

func (*Routes) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// adminStatus reports whether the caller holds a valid session. The admin
// UI uses this to decide between the login form and the application list.
func (s *Routes) adminStatus(w http.ResponseWriter, r *http.Request) {
	resp := struct {
		Authenticated bool   `json:"authenticated"`
		Username      string `json:"username,omitempty"`
	}{}

	if token := sessionToken(r); token != "" {
		if username, err := s.sessions.Validate(r.Context(), token); err == nil {
			resp.Authenticated = true
			resp.Username = username
		}
	}

	writeJSON(w, resp)
}

func (s *Routes) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}

	sess, err := s.sessions.Login(r.Context(), r.FormValue("username"), r.FormValue("password"))
	if err != nil {
		s.metrics.adminActions.WithLabelValues("login", outcomeLabel(err)).Inc()
		writeError(w, err)
		return
	}

	s.metrics.adminActions.WithLabelValues("login", "ok").Inc()
	setSessionCookie(w, sess.Token)
	http.Redirect(w, r, "/admin/apps", http.StatusFound)
}

func (s *Routes) listApps(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := s.requireSession(w, r); !ok {
		return
	}

	apps, err := s.registry.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, apps)
}

// handleAction dispatches the admin form actions.
func (s *Routes) handleAction(w http.ResponseWriter, r *http.Request) {
	_, token, ok := s.requireSession(w, r)
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	action := r.FormValue("action")
	name := r.FormValue("name")

	var err error
	switch action {
	case "logout":
		err = s.sessions.Revoke(ctx, token)
		if err == nil {
			clearSessionCookie(w)
			s.metrics.adminActions.WithLabelValues(action, "ok").Inc()
			http.Redirect(w, r, "/admin", http.StatusFound)
			return
		}
	case "create":
		_, err = s.registry.Create(ctx, name,
			r.FormValue("client_id"), r.FormValue("auth_path"), r.FormValue("api_path"), r.FormValue("scope"))
	case "edit":
		_, err = s.registry.Edit(ctx, name,
			r.FormValue("auth_path"), r.FormValue("api_path"), r.FormValue("scope"))
	case "delete":
		err = s.registry.Delete(ctx, name)
	case "regenerate_token":
		_, err = s.registry.RegenerateProxyToken(ctx, name)
	case "authorize":
		var redirect string
		redirect, err = s.flow.Begin(ctx, name)
		if err == nil {
			s.metrics.adminActions.WithLabelValues(action, "ok").Inc()
			http.Redirect(w, r, redirect, http.StatusFound)
			return
		}
	default:
		http.Error(w, "unknown action", http.StatusBadRequest)
		return
	}

	s.metrics.adminActions.WithLabelValues(action, outcomeLabel(err)).Inc()
	if err != nil {
		writeError(w, err)
		return
	}
	http.Redirect(w, r, "/admin/apps", http.StatusFound)
}

func (s *Routes) oauthCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	appName, err := s.flow.Callback(r.Context(), q.Get("code"), q.Get("state"))
	s.metrics.authorizations.WithLabelValues(outcomeLabel(err)).Inc()
	if err != nil {
		logger.Warnf("authorization callback failed: %v", err)
		writeError(w, err)
		return
	}

	logger.Infow("application authorized", "app", appName)
	http.Redirect(w, r, "/admin/apps", http.StatusFound)
}

func (s *Routes) forward(w http.ResponseWriter, r *http.Request) {
	appName := chi.URLParam(r, "appName")
	subpath := chi.URLParam(r, "*")

	err := s.forwarder.Forward(w, r, appName, subpath)
	s.metrics.proxyForwards.WithLabelValues(forwardOutcome(err)).Inc()
	if err != nil {
		writeError(w, err)
	}
}

func forwardOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errs.IsAuth(err):
		return "auth_error"
	case errs.IsNotFound(err):
		return "not_found"
	case errs.IsUpstream(err):
		return "upstream_error"
	default:
		return "error"
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

// writeError maps the error taxonomy onto HTTP status codes. Upstream
// failures keep their diagnostic detail; internal failures do not.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errs.IsAuth(err):
		http.Error(w, err.Error(), http.StatusUnauthorized)
	case errs.IsNameConflict(err), errs.IsInvalidRequest(err), errs.IsInvalidState(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errs.IsNotFound(err):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errs.IsUpstream(err):
		http.Error(w, err.Error(), http.StatusBadGateway)
	default:
		logger.Errorf("internal error: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
