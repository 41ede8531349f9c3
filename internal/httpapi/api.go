package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"taskhive.org/internal/access"
	"taskhive.org/internal/obs"
	"taskhive.org/internal/session"
	"taskhive.org/internal/task"
)

// ReadyProbe reports whether downstream dependencies answer.
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

	issuer *session.Issuer
	clock  *session.Clock
	tasks  *task.Service
	users  task.Store
}

func New(rp ReadyProbe, version string, issuer *session.Issuer, clock *session.Clock, tasks *task.Service, users task.Store) *API {
	a := &API{
		mux:        http.NewServeMux(),
		readyProbe: rp,
		version:    version,
		issuer:     issuer,
		clock:      clock,
		tasks:      tasks,
		users:      users,
	}

	// health/ready/info
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	// session lifecycle
	a.mux.HandleFunc("/v1/auth/login", a.handleLogin)
	a.mux.HandleFunc("/v1/auth/refresh", a.handleRefresh)
	a.mux.HandleFunc("/v1/auth/logout", a.handleLogout)

	// user management, owner only
	a.mux.Handle("/v1/users", RequireRole(access.RoleOwner)(http.HandlerFunc(a.handleCreateUser)))

	// tasks
	a.mux.HandleFunc("/v1/tasks", a.handleTasks)
	a.mux.HandleFunc("/v1/tasks/mine", a.handleTasksMine)
	a.mux.HandleFunc("/v1/tasks/", a.handleTaskByID)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler returns the full middleware chain around the mux.
func (a *API) Handler() http.Handler {
	return obs.Instrument(a.withAuth(a.mux))
}

// --- Handlers ---

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "taskhive-api",
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
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "taskhive-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}
