// Package handlers exposes the draft ledger and the player query engine
// over HTTP.
package handlers

import (
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"

	"github.com/Billy-Davies-2/fpl-draft-ledger/internal/clickhouse"
	"github.com/Billy-Davies-2/fpl-draft-ledger/internal/dal"
	"github.com/Billy-Davies-2/fpl-draft-ledger/internal/draft"
	"github.com/Billy-Davies-2/fpl-draft-ledger/internal/logger"
	"github.com/Billy-Davies-2/fpl-draft-ledger/internal/models"
	"github.com/Billy-Davies-2/fpl-draft-ledger/internal/pubsub"
)

// errInvalidRequest marks malformed or invalid request bodies.
var errInvalidRequest = errors.New("invalid request")

// Options configure the optional parts of the API.
type Options struct {
	// Catalog is the fixture player set, in catalog order.
	Catalog []models.Player
	// Analytics answers pick-count queries when set.
	Analytics clickhouse.Sink
	// ImageAllowedHost is the only host the image proxy will fetch from.
	ImageAllowedHost string
	ImageClient      *http.Client
	// KeepAlive is the SSE comment interval; defaults to 30s.
	KeepAlive time.Duration
}

// APIHandlers contains all API handler methods
type APIHandlers struct {
	svc       *draft.Service
	pubsub    *pubsub.PubSub
	catalog   []models.Player
	analytics clickhouse.Sink
	images    *ImageProxy
	keepAlive time.Duration
	validate  *validator.Validate
}

// NewAPIHandlers creates a new API handlers instance
func NewAPIHandlers(svc *draft.Service, ps *pubsub.PubSub, opts Options) *APIHandlers {
	if opts.KeepAlive <= 0 {
		opts.KeepAlive = 30 * time.Second
	}
	return &APIHandlers{
		svc:       svc,
		pubsub:    ps,
		catalog:   opts.Catalog,
		analytics: opts.Analytics,
		images:    NewImageProxy(opts.ImageAllowedHost, opts.ImageClient),
		keepAlive: opts.KeepAlive,
		validate:  validator.New(),
	}
}

// Register mounts every API route on mux. Setup and reset go through
// commissioner, which should authenticate and authorize the caller.
func (h *APIHandlers) Register(mux *http.ServeMux, commissioner func(http.HandlerFunc) http.HandlerFunc) {
	if commissioner == nil {
		commissioner = func(next http.HandlerFunc) http.HandlerFunc { return next }
	}

	// Draft API
	mux.HandleFunc("/api/draft/state", h.GetDraftState)
	mux.HandleFunc("/api/draft/setup", commissioner(h.SetupDraft))
	mux.HandleFunc("/api/draft/pick", h.DraftPick)
	mux.HandleFunc("/api/draft/undraft", h.UndraftPlayer)
	mux.HandleFunc("/api/draft/reset", commissioner(h.ResetDraft))
	mux.HandleFunc("/api/draft/summary", h.GetSummary)

	// Teams API
	mux.HandleFunc("/api/teams", h.ListTeams)
	mux.HandleFunc("/api/teams/roster", h.GetTeamRoster)

	// Players API
	mux.HandleFunc("/api/players", h.QueryPlayers)
	mux.HandleFunc("/api/players/export", h.ExportPlayers)
	mux.HandleFunc("/api/rankings", h.Rankings)
	mux.HandleFunc("/api/analytics/picks", h.PickCounts)
	mux.Handle("/api/image", h.images)

	// SSE for realtime updates
	mux.HandleFunc("/api/events", h.EventsSSE)

	// Health check endpoints
	mux.HandleFunc("/api/health", h.Health)
	mux.HandleFunc("/healthz", h.Liveness)
	mux.HandleFunc("/readyz", h.Readiness)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := sonic.ConfigDefault.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("Failed to encode response", "error", err)
	}
}

func writeOK(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// decode reads a JSON body into dst and validates it.
func (h *APIHandlers) decode(r *http.Request, dst any) error {
	if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.Mark(errors.Wrap(err, "decode request"), errInvalidRequest)
	}
	if err := h.validate.StructCtx(r.Context(), dst); err != nil {
		return errors.Mark(errors.Wrap(err, "validation failed"), errInvalidRequest)
	}
	return nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, dal.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, draft.ErrInvalidTeams), errors.Is(err, errInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, dal.ErrNotInitialized):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// fail logs err and writes it with the matching status.
func fail(w http.ResponseWriter, msg string, err error, args ...any) {
	status := statusFor(err)
	args = append(args, "error", err, "status", status)
	if status >= http.StatusInternalServerError {
		logger.Error(msg, args...)
	} else {
		logger.Warn(msg, args...)
	}
	http.Error(w, err.Error(), status)
}

func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}
