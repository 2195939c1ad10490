// Package mcpserver exposes read-only draft tools over the Model Context
// Protocol.
package mcpserver

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Billy-Davies-2/fpl-draft-ledger/internal/dal"
	"github.com/Billy-Davies-2/fpl-draft-ledger/internal/draft"
	"github.com/Billy-Davies-2/fpl-draft-ledger/internal/logger"
	"github.com/Billy-Davies-2/fpl-draft-ledger/internal/models"
	"github.com/Billy-Davies-2/fpl-draft-ledger/internal/query"
)

const (
	serverName    = "fpl-draft-ledger"
	serverVersion = "0.1.0"
	apiKeyHeader  = "X-API-Key"
)

type QueryPlayersArgs struct {
	Position string             `json:"position,omitempty" jsonschema:"GK, DEF, MID, FWD or ALL (default ALL)"`
	Team     string             `json:"team,omitempty" jsonschema:"Club name or ALL (default ALL)"`
	Sort     string             `json:"sort,omitempty" jsonschema:"Column to sort by, e.g. total_points or rank_score"`
	Dir      string             `json:"dir,omitempty" jsonschema:"asc or desc (default asc)"`
	Page     int                `json:"page,omitempty" jsonschema:"1-based page of 50 rows (default 1)"`
	Logic    string             `json:"logic,omitempty" jsonschema:"AND or OR across filters (default AND)"`
	Filters  []string           `json:"filters,omitempty" jsonschema:"Up to 5 numeric filters as column:gte|lte:value"`
	Weights  map[string]float64 `json:"weights,omitempty" jsonschema:"Ranking weights per column, each 0-100; applied when they total 100"`
	Columns  string             `json:"columns,omitempty" jsonschema:"all, default or a comma separated column list"`
}

type TeamRosterArgs struct {
	TeamID string `json:"team_id" jsonschema:"Team id such as team-1 (required)"`
}

type DraftSummaryArgs struct{}

type queryPlayersResult struct {
	Rows           []map[string]models.Value `json:"rows"`
	Total          int                       `json:"total"`
	Page           query.Page                `json:"pagination"`
	Columns        []string                  `json:"columns"`
	RankingApplied bool                      `json:"rankingApplied"`
}

// Server owns the MCP tool set.
type Server struct {
	svc     *draft.Service
	catalog []models.Player
	server  *mcp.Server
}

// New builds the MCP server. catalog supplies the query order; an empty
// catalog queries the ledger players directly.
func New(svc *draft.Service, catalog []models.Player) *Server {
	s := &Server{
		svc:     svc,
		catalog: catalog,
		server: mcp.NewServer(&mcp.Implementation{
			Name:    serverName,
			Version: serverVersion,
		}, nil),
	}

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "query_players",
		Description: "Filter, rank, sort and page the player pool with draft status",
	}, s.queryPlayers)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "draft_summary",
		Description: "Drafted and available counts with per-team position breakdown",
	}, s.draftSummary)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "team_roster",
		Description: "Players drafted by one team",
	}, s.teamRoster)

	return s
}

// MCP returns the underlying server, for in-process transports.
func (s *Server) MCP() *mcp.Server {
	return s.server
}

// Handler serves streamable HTTP. A non-empty apiKey must be sent as
// X-API-Key or a bearer token.
func (s *Server) Handler(apiKey string) http.Handler {
	handler := mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		return s.server
	}, &mcp.StreamableHTTPOptions{JSONResponse: true})

	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimSpace(r.Header.Get(apiKeyHeader))
		if key == "" {
			if authz := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(authz), "bearer ") {
				key = strings.TrimSpace(authz[7:])
			}
		}
		if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) != 1 {
			logger.Warn("Rejected MCP request", "remote", r.RemoteAddr)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"unauthorized"}`))
			return
		}
		handler.ServeHTTP(w, r)
	})
}

func (s *Server) queryPlayers(ctx context.Context, req *mcp.CallToolRequest, args QueryPlayersArgs) (*mcp.CallToolResult, any, error) {
	params := query.Params{
		Position:  args.Position,
		Team:      args.Team,
		Sort:      args.Sort,
		Direction: args.Dir,
		Page:      args.Page,
		Logic:     args.Logic,
		Filters:   args.Filters,
		Weights:   args.Weights,
		Columns:   args.Columns,
	}
	view := params.View(s.svc.Annotate(s.catalog))

	// always carry identity and draft status, whatever is visible
	keys := append([]string{models.KeyID, models.KeyIsDrafted, models.KeyDraftedBy}, view.VisibleColumns...)
	rows := make([]map[string]models.Value, len(view.Rows))
	for i, r := range view.Rows {
		row := make(map[string]models.Value, len(keys))
		for _, k := range keys {
			if v := r.Get(k); !v.IsAbsent() {
				row[k] = v
			}
		}
		rows[i] = row
	}

	return toolJSON(queryPlayersResult{
		Rows:           rows,
		Total:          view.Total,
		Page:           view.Page,
		Columns:        view.VisibleColumns,
		RankingApplied: view.RankingApplied,
	})
}

func (s *Server) draftSummary(ctx context.Context, req *mcp.CallToolRequest, args DraftSummaryArgs) (*mcp.CallToolResult, any, error) {
	return toolJSON(s.svc.Summary())
}

func (s *Server) teamRoster(ctx context.Context, req *mcp.CallToolRequest, args TeamRosterArgs) (*mcp.CallToolResult, any, error) {
	if args.TeamID == "" {
		return toolError(errors.New("team_id is required")), nil, nil
	}
	team, ok := s.svc.Team(args.TeamID)
	if !ok {
		return toolError(errors.Wrapf(dal.ErrNotFound, "team %s", args.TeamID)), nil, nil
	}
	players := s.svc.TeamRoster(args.TeamID)
	if players == nil {
		players = []models.DraftPlayer{}
	}
	return toolJSON(map[string]any{"team": team, "players": players})
}

func toolJSON(v any) (*mcp.CallToolResult, any, error) {
	b, err := sonic.Marshal(v)
	if err != nil {
		return toolError(err), nil, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(b)},
		},
	}, nil, nil
}

func toolError(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf("error: %v", err)},
		},
	}
}
