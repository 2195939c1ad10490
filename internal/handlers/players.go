package handlers

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Billy-Davies-2/fpl-draft-ledger/internal/catalog"
	"github.com/Billy-Davies-2/fpl-draft-ledger/internal/logger"
	"github.com/Billy-Davies-2/fpl-draft-ledger/internal/models"
	"github.com/Billy-Davies-2/fpl-draft-ledger/internal/query"
)

type playersResponse struct {
	query.View
	TeamOptions []string `json:"teamOptions"`
}

type rankingRequest struct {
	Position string             `json:"position" validate:"required,oneof=GK DEF MID FWD"`
	Weights  map[string]float64 `json:"weights"`
}

// ParamsFromQuery reads table controls from URL parameters. Filters are
// repeated filter=column:op:value and weights repeated weight=column:value.
func ParamsFromQuery(q url.Values) query.Params {
	page, _ := strconv.Atoi(q.Get("page"))

	var weights map[string]float64
	for _, raw := range q["weight"] {
		col, w, ok := query.ParseWeight(raw)
		if !ok {
			continue
		}
		if weights == nil {
			weights = make(map[string]float64)
		}
		weights[col] = w
	}

	return query.Params{
		Position:  q.Get("position"),
		Team:      q.Get("team"),
		Sort:      q.Get("sort"),
		Direction: q.Get("dir"),
		Page:      page,
		Logic:     q.Get("logic"),
		Filters:   q["filter"],
		Weights:   weights,
		Columns:   q.Get("columns"),
		Toggle:    q["toggle"],
		Search:    q.Get("search"),
	}
}

// players returns the query input: the catalog annotated with ledger
// state.
func (h *APIHandlers) players() []models.DraftPlayer {
	return h.svc.Annotate(h.catalog)
}

func (h *APIHandlers) teamOptions(players []models.DraftPlayer) []string {
	if len(h.catalog) > 0 {
		return catalog.Teams(h.catalog)
	}
	plain := make([]models.Player, len(players))
	for i, p := range players {
		plain[i] = p.Player
	}
	return catalog.Teams(plain)
}

// QueryPlayers runs the query engine over the annotated player set
func (h *APIHandlers) QueryPlayers(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	params := ParamsFromQuery(r.URL.Query())
	players := h.players()
	view := params.View(players)

	writeJSON(w, http.StatusOK, playersResponse{View: view, TeamOptions: h.teamOptions(players)})
}

// ExportPlayers writes every filtered row, unpaginated, as CSV limited to
// the visible columns.
func (h *APIHandlers) ExportPlayers(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	view := ParamsFromQuery(r.URL.Query()).View(h.players())

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="players.csv"`)
	if err := query.WriteCSV(w, view.Matched, view.VisibleColumns); err != nil {
		logger.Error("Failed to write CSV export", "error", err)
	}
}

// Rankings reads (GET ?position=) or saves (POST) per-position weights.
func (h *APIHandlers) Rankings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		position := models.Position(strings.ToUpper(r.URL.Query().Get("position")))
		if !position.Valid() {
			http.Error(w, "position must be one of GK, DEF, MID, FWD", http.StatusBadRequest)
			return
		}
		ranking, err := h.svc.PositionRanking(r.Context(), position)
		if err != nil {
			fail(w, "Failed to load position ranking", err, "position", position)
			return
		}
		if ranking == nil {
			ranking = &models.PositionRanking{Position: position, Weights: map[string]float64{}}
		}
		writeJSON(w, http.StatusOK, ranking)

	case http.MethodPost:
		var req rankingRequest
		if err := h.decode(r, &req); err != nil {
			fail(w, "Invalid ranking request", err)
			return
		}
		ranking, err := h.svc.SavePositionRanking(r.Context(), models.Position(req.Position), req.Weights)
		if err != nil {
			fail(w, "Failed to save position ranking", err, "position", req.Position)
			return
		}
		writeJSON(w, http.StatusOK, ranking)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// PickCounts reports picks per team since the last reset, from the
// analytics sink.
func (h *APIHandlers) PickCounts(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	if h.analytics == nil {
		http.Error(w, "analytics not configured", http.StatusServiceUnavailable)
		return
	}
	counts, err := h.analytics.PickCounts(r.Context())
	if err != nil {
		fail(w, "Failed to query pick counts", err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}
