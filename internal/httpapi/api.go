// Package httpapi is the consuming request pipeline: it resolves the caller
// identity from headers, guards GraphQL fields through the authorization
// pipeline and exposes the credential endpoints.
package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"

	"caseflow.org/internal/auth"
	"caseflow.org/internal/authz"
	"caseflow.org/internal/obs"
	"caseflow.org/internal/store"
)

// ReadyProbe reports readiness, typically by pinging the database.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// API is the HTTP layer.
type API struct {
	mux        *http.ServeMux
	readyProbe ReadyProbe
	version    string

	authn    *auth.ContextBuilder
	authsvc  *auth.Service
	pipeline *authz.Pipeline
	dir      store.Directory
	gql      *gqlGate
}

// New assembles routes. All collaborators are required except the ready
// probe's DB.
func New(rp ReadyProbe, version string, authn *auth.ContextBuilder, authsvc *auth.Service, pipeline *authz.Pipeline, dir store.Directory) *API {
	a := &API{
		mux:        http.NewServeMux(),
		readyProbe: rp,
		version:    version,
		authn:      authn,
		authsvc:    authsvc,
		pipeline:   pipeline,
		dir:        dir,
	}
	a.gql = newGQLGate(pipeline, dir)

	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)

	a.mux.Handle("/v1/auth/login", RateLimit(http.HandlerFunc(a.Login), 5, 2))
	a.mux.Handle("/v1/auth/password-reset", RateLimit(http.HandlerFunc(a.RequestPasswordReset), 5, 2))
	a.mux.HandleFunc("/v1/auth/password-reset/confirm", a.ConfirmPasswordReset)

	a.mux.HandleFunc("/graphql", a.GraphQL)

	a.mux.Handle("/metrics", obs.Handler())

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler returns the fully wrapped handler for the server.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.mux
	h = a.withAuthn(h)
	h = MaxBodyBytes(h, 1<<20)
	h = RequestID(h)
	h = SecurityHeaders(h)
	h = Logging(h)
	return obs.Instrument(h)
}

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "caseflow-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": msg})
}
