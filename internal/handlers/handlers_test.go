package handlers

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"

	"github.com/Billy-Davies-2/fpl-draft-ledger/internal/dal"
	"github.com/Billy-Davies-2/fpl-draft-ledger/internal/draft"
	"github.com/Billy-Davies-2/fpl-draft-ledger/internal/logger"
	"github.com/Billy-Davies-2/fpl-draft-ledger/internal/mocks"
	"github.com/Billy-Davies-2/fpl-draft-ledger/internal/models"
	"github.com/Billy-Davies-2/fpl-draft-ledger/internal/pubsub"
)

func init() {
	logger.InitWithWriter(io.Discard, "error")
}

func fixtureCatalog() []models.Player {
	mk := func(web, team string, pos models.Position, points, goals float64) models.Player {
		return models.Player{
			WebName:     web,
			Team:        team,
			Position:    pos,
			TotalPoints: models.Number(points),
			Stats:       map[string]models.Value{"goals_scored": models.Number(goals)},
		}
	}
	return []models.Player{
		mk("Raya", "Arsenal", models.PositionGK, 140, 0),
		mk("Saliba", "Arsenal", models.PositionDEF, 150, 2),
		mk("Salah", "Liverpool", models.PositionMID, 250, 20),
		mk("Palmer", "Chelsea", models.PositionMID, 230, 18),
		mk("Haaland", "Man City", models.PositionFWD, 220, 25),
	}
}

type testEnv struct {
	svc *draft.Service
	ps  *pubsub.PubSub
	api *APIHandlers
	mux *http.ServeMux
}

func newTestEnv(t *testing.T, opts Options) *testEnv {
	t.Helper()
	svc := draft.NewService(dal.NewMemoryDAL())
	if err := svc.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	ps := pubsub.New()
	if opts.Catalog == nil {
		opts.Catalog = fixtureCatalog()
	}
	api := NewAPIHandlers(svc, ps, opts)
	mux := http.NewServeMux()
	api.Register(mux, nil)
	return &testEnv{svc: svc, ps: ps, api: api, mux: mux}
}

func (e *testEnv) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) setup(t *testing.T) {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/draft/setup", `{"teamNames":["Alpha"," Beta ",""]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("setup: %d %s", rec.Code, rec.Body.String())
	}
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := sonic.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func TestSetupSeedsCatalogAndCreatesTeams(t *testing.T) {
	e := newTestEnv(t, Options{})
	e.setup(t)

	if got := len(e.svc.Players()); got != 5 {
		t.Errorf("expected 5 ledger players, got %d", got)
	}
	teams := e.svc.Teams()
	if len(teams) != 2 || teams[1].Name != "Beta" || teams[1].ID != "team-2" {
		t.Errorf("unexpected teams %+v", teams)
	}
}

func TestSetupRejectsBadInput(t *testing.T) {
	e := newTestEnv(t, Options{})

	tests := []struct {
		name   string
		method string
		body   string
		want   int
	}{
		{"one team", http.MethodPost, `{"teamNames":["Solo","  "]}`, http.StatusBadRequest},
		{"missing names", http.MethodPost, `{}`, http.StatusBadRequest},
		{"bad json", http.MethodPost, `{"teamNames":`, http.StatusBadRequest},
		{"wrong method", http.MethodGet, "", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := e.do(t, tt.method, "/api/draft/setup", tt.body)
			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestPickRosterUndraft(t *testing.T) {
	e := newTestEnv(t, Options{})
	e.setup(t)

	rec := e.do(t, http.MethodPost, "/api/draft/pick", `{"playerId":"Salah-Liverpool","teamId":"team-1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("pick: %d %s", rec.Code, rec.Body.String())
	}

	rec = e.do(t, http.MethodGet, "/api/teams/roster?teamId=team-1", "")
	var roster struct {
		Team    models.Team          `json:"team"`
		Players []models.DraftPlayer `json:"players"`
	}
	decodeBody(t, rec, &roster)
	if roster.Team.Name != "Alpha" || len(roster.Players) != 1 || roster.Players[0].PlayerID != "Salah-Liverpool" {
		t.Fatalf("unexpected roster %+v", roster)
	}

	rec = e.do(t, http.MethodPost, "/api/draft/undraft", `{"playerId":"Salah-Liverpool"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("undraft: %d %s", rec.Code, rec.Body.String())
	}
	if got := len(e.svc.TeamRoster("team-1")); got != 0 {
		t.Errorf("roster should be empty after undraft, has %d", got)
	}
}

func TestPickErrors(t *testing.T) {
	e := newTestEnv(t, Options{})
	e.setup(t)

	if rec := e.do(t, http.MethodPost, "/api/draft/pick", `{"playerId":"Nobody-Nowhere","teamId":"team-1"}`); rec.Code != http.StatusNotFound {
		t.Errorf("unknown player: expected 404, got %d", rec.Code)
	}
	if rec := e.do(t, http.MethodPost, "/api/draft/pick", `{"teamId":"team-1"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("missing player id: expected 400, got %d", rec.Code)
	}
	if rec := e.do(t, http.MethodGet, "/api/teams/roster", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("roster without team: expected 400, got %d", rec.Code)
	}
	if rec := e.do(t, http.MethodGet, "/api/teams/roster?teamId=team-9", ""); rec.Code != http.StatusNotFound {
		t.Errorf("unknown roster: expected 404, got %d", rec.Code)
	}
}

func TestResetReseedsCatalog(t *testing.T) {
	e := newTestEnv(t, Options{})
	e.setup(t)
	e.do(t, http.MethodPost, "/api/draft/pick", `{"playerId":"Raya-Arsenal","teamId":"team-2"}`)

	rec := e.do(t, http.MethodPost, "/api/draft/reset", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("reset: %d %s", rec.Code, rec.Body.String())
	}
	if len(e.svc.Teams()) != 0 || e.svc.IsSetUp() {
		t.Errorf("teams should be gone after reset")
	}
	if len(e.svc.AvailablePlayers()) != 5 {
		t.Errorf("catalog should be re-seeded undrafted, got %d available", len(e.svc.AvailablePlayers()))
	}
}

func TestCommissionerRoutesAreGuarded(t *testing.T) {
	svc := draft.NewService(dal.NewMemoryDAL())
	if err := svc.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	api := NewAPIHandlers(svc, pubsub.New(), Options{Catalog: fixtureCatalog()})
	mux := http.NewServeMux()
	deny := func(http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) { http.Error(w, "Forbidden", http.StatusForbidden) }
	}
	api.Register(mux, deny)

	for _, path := range []string{"/api/draft/setup", "/api/draft/reset"} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{"teamNames":["A","B"]}`)))
		if rec.Code != http.StatusForbidden {
			t.Errorf("%s: expected 403, got %d", path, rec.Code)
		}
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/draft/summary", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("summary should stay public, got %d", rec.Code)
	}
}

func TestSummaryEndpoint(t *testing.T) {
	e := newTestEnv(t, Options{})
	e.setup(t)
	e.do(t, http.MethodPost, "/api/draft/pick", `{"playerId":"Haaland-Man City","teamId":"team-1"}`)

	var sum models.DraftSummary
	decodeBody(t, e.do(t, http.MethodGet, "/api/draft/summary", ""), &sum)
	if sum.DraftedPlayers != 1 || sum.AvailablePlayers != 4 || sum.TotalTeams != 2 {
		t.Errorf("unexpected summary %+v", sum)
	}
}

type playersBody struct {
	Rows []struct {
		WebName   string  `json:"web_name"`
		IsDrafted bool    `json:"isDrafted"`
		RankScore float64 `json:"rank_score"`
	} `json:"rows"`
	Total          int      `json:"total"`
	VisibleColumns []string `json:"visibleColumns"`
	NumericColumns []string `json:"numericColumns"`
	TeamOptions    []string `json:"teamOptions"`
	PickerColumns  []string `json:"pickerColumns"`
	Pagination     struct {
		Page       int `json:"page"`
		TotalPages int `json:"totalPages"`
	} `json:"pagination"`
}

func TestQueryPlayers(t *testing.T) {
	e := newTestEnv(t, Options{})
	e.setup(t)
	e.do(t, http.MethodPost, "/api/draft/pick", `{"playerId":"Palmer-Chelsea","teamId":"team-1"}`)

	q := url.Values{}
	q.Set("position", "mid")
	q.Set("sort", "total_points")
	q.Set("dir", "desc")
	q.Add("filter", "goals_scored:gte:10")
	q.Add("filter", "not-a-filter")
	q.Set("page", "7")
	q.Set("search", "goal")

	var body playersBody
	decodeBody(t, e.do(t, http.MethodGet, "/api/players?"+q.Encode(), ""), &body)

	if body.Total != 2 || len(body.Rows) != 2 {
		t.Fatalf("expected the two midfielders, got %+v", body)
	}
	if body.Rows[0].WebName != "Salah" || body.Rows[1].WebName != "Palmer" {
		t.Errorf("unexpected order %+v", body.Rows)
	}
	if !body.Rows[1].IsDrafted {
		t.Errorf("ledger state should be overlaid on the catalog")
	}
	if body.Pagination.Page != 1 || body.Pagination.TotalPages != 1 {
		t.Errorf("page should clamp to 1, got %+v", body.Pagination)
	}
	if strings.Join(body.TeamOptions, ",") != "Arsenal,Chelsea,Liverpool,Man City" {
		t.Errorf("unexpected team options %v", body.TeamOptions)
	}
	if strings.Join(body.PickerColumns, ",") != "goals_scored" {
		t.Errorf("unexpected picker columns %v", body.PickerColumns)
	}
}

func TestQueryPlayersRanking(t *testing.T) {
	e := newTestEnv(t, Options{})
	e.setup(t)

	q := url.Values{}
	q.Add("weight", "goals_scored:100")
	q.Set("sort", "rank_score")
	q.Set("dir", "desc")

	var body playersBody
	decodeBody(t, e.do(t, http.MethodGet, "/api/players?"+q.Encode(), ""), &body)
	if len(body.Rows) != 5 || body.Rows[0].WebName != "Haaland" || body.Rows[0].RankScore != 25 {
		t.Fatalf("unexpected ranked rows %+v", body.Rows)
	}
	if len(body.VisibleColumns) == 0 || body.VisibleColumns[0] != "rank_score" {
		t.Errorf("rank_score should lead the visible columns, got %v", body.VisibleColumns)
	}
}

func TestExportPlayers(t *testing.T) {
	e := newTestEnv(t, Options{})
	e.setup(t)

	rec := e.do(t, http.MethodGet, "/api/players/export?team=Arsenal&columns=web_name,total_points", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("export: %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("unexpected content type %q", ct)
	}
	want := "Web Name,Total Points\nRaya,140\nSaliba,150\n"
	if rec.Body.String() != want {
		t.Errorf("unexpected csv:\n%s", rec.Body.String())
	}
}

func TestRankingsEndpoint(t *testing.T) {
	e := newTestEnv(t, Options{})

	var empty models.PositionRanking
	decodeBody(t, e.do(t, http.MethodGet, "/api/rankings?position=fwd", ""), &empty)
	if empty.Position != models.PositionFWD || len(empty.Weights) != 0 {
		t.Errorf("unexpected empty ranking %+v", empty)
	}

	rec := e.do(t, http.MethodPost, "/api/rankings", `{"position":"FWD","weights":{"goals_scored":150}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("save: %d %s", rec.Code, rec.Body.String())
	}
	var saved models.PositionRanking
	decodeBody(t, e.do(t, http.MethodGet, "/api/rankings?position=FWD", ""), &saved)
	if saved.Weights["goals_scored"] != 100 {
		t.Errorf("weight should be clamped to 100, got %v", saved.Weights)
	}

	if rec := e.do(t, http.MethodPost, "/api/rankings", `{"position":"KEEPER"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("bad position: expected 400, got %d", rec.Code)
	}
	if rec := e.do(t, http.MethodGet, "/api/rankings", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("missing position: expected 400, got %d", rec.Code)
	}
}

func TestPickCounts(t *testing.T) {
	e := newTestEnv(t, Options{})
	if rec := e.do(t, http.MethodGet, "/api/analytics/picks", ""); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("without analytics: expected 503, got %d", rec.Code)
	}

	sink := mocks.NewMockClickHouseClient()
	sink.RecordEvent(context.Background(), pubsub.NewEvent(pubsub.EventDraftPick, map[string]any{"teamId": "team-1"}))
	e = newTestEnv(t, Options{Analytics: sink})

	var counts map[string]int
	decodeBody(t, e.do(t, http.MethodGet, "/api/analytics/picks", ""), &counts)
	if counts["team-1"] != 1 {
		t.Errorf("unexpected counts %v", counts)
	}
}

func TestImageProxy(t *testing.T) {
	var upstream *httptest.Server
	upstream = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing.png":
			http.NotFound(w, r)
			return
		case "/moved.png":
			http.Redirect(w, r, "/p1.png", http.StatusFound)
			return
		case "/offsite.png":
			// same server under another host name
			offsite := strings.Replace(upstream.URL, "127.0.0.1", "localhost", 1) + "/p1.png"
			http.Redirect(w, r, offsite, http.StatusFound)
			return
		case "/bare.png":
			w.Header()["Content-Type"] = nil
			w.WriteHeader(http.StatusNonAuthoritativeInfo)
			io.WriteString(w, "RAW")
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("ETag", `"abc"`)
		io.WriteString(w, "PNGDATA")
	}))
	defer upstream.Close()
	host, _ := url.Parse(upstream.URL)

	e := newTestEnv(t, Options{ImageAllowedHost: host.Hostname(), ImageClient: upstream.Client()})

	rec := e.do(t, http.MethodGet, "/api/image?url="+url.QueryEscape(upstream.URL+"/p1.png"), "")
	if rec.Code != http.StatusOK || rec.Body.String() != "PNGDATA" {
		t.Fatalf("proxy: %d %q", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("Content-Type") != "image/png" || rec.Header().Get("ETag") != `"abc"` {
		t.Errorf("upstream headers not passed through: %v", rec.Header())
	}
	if rec.Header().Get("Cache-Control") != imageCacheControl {
		t.Errorf("unexpected cache control %q", rec.Header().Get("Cache-Control"))
	}

	rec = e.do(t, http.MethodGet, "/api/image?url="+url.QueryEscape(upstream.URL+"/moved.png"), "")
	if rec.Code != http.StatusOK || rec.Body.String() != "PNGDATA" {
		t.Errorf("same-host redirect: %d %q", rec.Code, rec.Body.String())
	}

	rec = e.do(t, http.MethodGet, "/api/image?url="+url.QueryEscape(upstream.URL+"/bare.png"), "")
	if rec.Code != http.StatusOK || rec.Body.String() != "RAW" {
		t.Fatalf("2xx upstream: %d %q", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("Content-Type") != "image/png" {
		t.Errorf("expected default content type, got %q", rec.Header().Get("Content-Type"))
	}

	tests := []struct {
		name   string
		target string
		want   int
	}{
		{"off-host redirect", "/api/image?url=" + url.QueryEscape(upstream.URL+"/offsite.png"), http.StatusForbidden},
		{"missing url", "/api/image", http.StatusBadRequest},
		{"relative url", "/api/image?url=" + url.QueryEscape("/p1.png"), http.StatusBadRequest},
		{"other host", "/api/image?url=" + url.QueryEscape("https://evil.example.com/p1.png"), http.StatusForbidden},
		{"upstream status", "/api/image?url=" + url.QueryEscape(upstream.URL+"/missing.png"), http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := e.do(t, http.MethodGet, tt.target, ""); rec.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, rec.Code)
			}
		})
	}
}

func TestEventsSSE(t *testing.T) {
	e := newTestEnv(t, Options{KeepAlive: time.Hour})
	srv := httptest.NewServer(e.mux)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/events", nil)
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer resp.Body.Close()

	lines := bufio.NewReader(resp.Body)
	first, err := lines.ReadString('\n')
	if err != nil || first != "data: {\"type\":\"connected\"}\n" {
		t.Fatalf("unexpected greeting %q (%v)", first, err)
	}
	lines.ReadString('\n')

	e.ps.Publish(pubsub.NewEvent(pubsub.EventDraftPick, map[string]any{"playerId": "Salah-Liverpool"}))

	line, err := lines.ReadString('\n')
	if err != nil {
		t.Fatalf("read event: %v", err)
	}
	var got pubsub.Event
	if err := sonic.UnmarshalString(strings.TrimPrefix(strings.TrimSpace(line), "data: "), &got); err != nil {
		t.Fatalf("decode %q: %v", line, err)
	}
	if got.Type != pubsub.EventDraftPick || got.Payload["playerId"] != "Salah-Liverpool" {
		t.Errorf("unexpected event %+v", got)
	}
}

func TestHealthProbes(t *testing.T) {
	e := newTestEnv(t, Options{})

	for _, path := range []string{"/api/health", "/healthz", "/readyz"} {
		rec := e.do(t, http.MethodGet, path, "")
		if rec.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d: %s", path, rec.Code, rec.Body.String())
		}
	}

	store := dal.NewMemoryDAL()
	down := NewAPIHandlers(draft.NewService(store), pubsub.New(), Options{})
	rec := httptest.NewRecorder()
	down.Readiness(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("uninitialized store should not be ready, got %d", rec.Code)
	}
}
