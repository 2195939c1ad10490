package handlers

import (
	"net/http"

	"github.com/Billy-Davies-2/fpl-draft-ledger/internal/logger"
	"github.com/Billy-Davies-2/fpl-draft-ledger/internal/models"
)

type setupRequest struct {
	TeamNames []string `json:"teamNames" validate:"required,max=32,dive,max=64"`
}

type pickRequest struct {
	PlayerID string `json:"playerId" validate:"required"`
	TeamID   string `json:"teamId" validate:"required"`
}

type undraftRequest struct {
	PlayerID string `json:"playerId" validate:"required"`
}

type rosterResponse struct {
	Team    models.Team          `json:"team"`
	Players []models.DraftPlayer `json:"players"`
}

// GetDraftState returns the current ledger snapshot
func (h *APIHandlers) GetDraftState(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, h.svc.State())
}

// SetupDraft creates the league's teams. An empty ledger is seeded from
// the catalog first.
func (h *APIHandlers) SetupDraft(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	var req setupRequest
	if err := h.decode(r, &req); err != nil {
		fail(w, "Invalid setup request", err)
		return
	}

	if len(h.svc.Players()) == 0 && len(h.catalog) > 0 {
		if err := h.svc.InitializePlayers(r.Context(), h.catalog); err != nil {
			fail(w, "Failed to initialize players", err)
			return
		}
	}

	logger.Info("Setting up draft", "teams", len(req.TeamNames))
	if err := h.svc.CreateTeams(r.Context(), req.TeamNames); err != nil {
		fail(w, "Failed to create teams", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "teams": h.svc.Teams()})
}

// DraftPick assigns a player to a team
func (h *APIHandlers) DraftPick(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	var req pickRequest
	if err := h.decode(r, &req); err != nil {
		fail(w, "Invalid draft pick request", err)
		return
	}

	if err := h.svc.DraftPlayer(r.Context(), req.PlayerID, req.TeamID); err != nil {
		fail(w, "Failed to draft player", err, "player_id", req.PlayerID, "team_id", req.TeamID)
		return
	}
	writeOK(w)
}

func (h *APIHandlers) UndraftPlayer(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	var req undraftRequest
	if err := h.decode(r, &req); err != nil {
		fail(w, "Invalid undraft request", err)
		return
	}

	if err := h.svc.UndraftPlayer(r.Context(), req.PlayerID); err != nil {
		fail(w, "Failed to undraft player", err, "player_id", req.PlayerID)
		return
	}
	writeOK(w)
}

// ResetDraft wipes the ledger and reloads the catalog so a new league can
// be set up straight away.
func (h *APIHandlers) ResetDraft(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	if err := h.svc.ResetDraft(r.Context()); err != nil {
		fail(w, "Failed to reset draft", err)
		return
	}
	if len(h.catalog) > 0 {
		if err := h.svc.InitializePlayers(r.Context(), h.catalog); err != nil {
			fail(w, "Failed to reload catalog after reset", err)
			return
		}
	}
	writeOK(w)
}

func (h *APIHandlers) GetSummary(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, h.svc.Summary())
}

// ListTeams returns all teams
func (h *APIHandlers) ListTeams(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, h.svc.Teams())
}

// GetTeamRoster lists the players drafted by ?teamId=.
func (h *APIHandlers) GetTeamRoster(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	teamID := r.URL.Query().Get("teamId")
	if teamID == "" {
		http.Error(w, "teamId is required", http.StatusBadRequest)
		return
	}
	team, ok := h.svc.Team(teamID)
	if !ok {
		http.Error(w, "team not found", http.StatusNotFound)
		return
	}
	players := h.svc.TeamRoster(teamID)
	if players == nil {
		players = []models.DraftPlayer{}
	}
	writeJSON(w, http.StatusOK, rosterResponse{Team: team, Players: players})
}
