package dal

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/Billy-Davies-2/fpl-draft-ledger/internal/models"
)

func samplePlayers() []models.DraftPlayer {
	mk := func(web, team string, pos models.Position, pts float64) models.DraftPlayer {
		return models.NewDraftPlayer(models.Player{
			WebName:     web,
			Team:        team,
			Position:    pos,
			TotalPoints: models.Number(pts),
			Stats:       map[string]models.Value{"goals_scored": models.Number(pts / 10)},
		})
	}
	return []models.DraftPlayer{
		mk("Raya", "Arsenal", models.PositionGK, 120),
		mk("Gabriel", "Arsenal", models.PositionDEF, 130),
		mk("Salah", "Liverpool", models.PositionMID, 211),
	}
}

func sampleTeams() []models.Team {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	return []models.Team{
		{ID: "team-1", Name: "Alpha", Owner: "Alpha", Players: []string{}, CreatedAt: now},
		{ID: "team-2", Name: "Beta", Owner: "Beta", Players: []string{}, CreatedAt: now},
	}
}

// stores returns every backend that can run in this environment.
func stores(t *testing.T) map[string]DraftDAL {
	t.Helper()
	ctx := context.Background()

	mem := NewMemoryDAL()
	if err := mem.Init(ctx); err != nil {
		t.Fatalf("memory init: %v", err)
	}

	lite, err := NewSQLiteDAL(ctx, filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("sqlite open: %v", err)
	}
	t.Cleanup(func() { lite.Close() })

	out := map[string]DraftDAL{"memory": mem, "sqlite": lite}

	if url := os.Getenv("TEST_DATABASE_URL"); url != "" {
		pg, err := NewPostgresDAL(ctx, url)
		if err != nil {
			t.Fatalf("postgres open: %v", err)
		}
		if err := pg.ClearAll(ctx); err != nil {
			t.Fatalf("postgres clear: %v", err)
		}
		t.Cleanup(func() { pg.Close() })
		out["postgres"] = pg
	}
	return out
}

func seed(t *testing.T, s DraftDAL) {
	t.Helper()
	ctx := context.Background()
	if err := s.UpsertPlayers(ctx, samplePlayers()); err != nil {
		t.Fatalf("UpsertPlayers: %v", err)
	}
	if err := s.UpsertTeams(ctx, sampleTeams()); err != nil {
		t.Fatalf("UpsertTeams: %v", err)
	}
}

func TestDraftUndraftRoundTrip(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			seed(t, s)

			if err := s.DraftPlayer(ctx, "Salah-Liverpool", "team-1"); err != nil {
				t.Fatalf("DraftPlayer: %v", err)
			}
			drafted, err := s.GetPlayersByDraftedStatus(ctx, true)
			if err != nil {
				t.Fatalf("GetPlayersByDraftedStatus: %v", err)
			}
			if len(drafted) != 1 || drafted[0].PlayerID != "Salah-Liverpool" || drafted[0].DraftedBy != "team-1" {
				t.Fatalf("unexpected drafted set: %+v", drafted)
			}
			if got, _ := drafted[0].Get("goals_scored").Float(); got != 21.1 {
				t.Errorf("stats should survive the write, got %v", got)
			}

			if err := s.UndraftPlayer(ctx, "Salah-Liverpool"); err != nil {
				t.Fatalf("UndraftPlayer: %v", err)
			}
			drafted, _ = s.GetPlayersByDraftedStatus(ctx, true)
			if len(drafted) != 0 {
				t.Fatalf("expected no drafted players, got %d", len(drafted))
			}
			available, _ := s.GetPlayersByDraftedStatus(ctx, false)
			if len(available) != 3 {
				t.Fatalf("expected 3 available players, got %d", len(available))
			}
			for _, p := range available {
				if p.IsDrafted || p.DraftedBy != "" {
					t.Errorf("player %s still carries draft state", p.PlayerID)
				}
			}
		})
	}
}

func TestMissingRecordsReturnNotFound(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			seed(t, s)

			checks := map[string]error{
				"draft":       s.DraftPlayer(ctx, "Nobody-Nowhere", "team-1"),
				"undraft":     s.UndraftPlayer(ctx, "Nobody-Nowhere"),
				"add roster":  s.AddPlayerToTeam(ctx, "team-9", "Salah-Liverpool"),
				"drop roster": s.RemovePlayerFromTeam(ctx, "team-9", "Salah-Liverpool"),
			}
			for op, err := range checks {
				if !errors.Is(err, ErrNotFound) {
					t.Errorf("%s: expected ErrNotFound, got %v", op, err)
				}
			}
		})
	}
}

func TestRosterSetSemantics(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			seed(t, s)

			for i := 0; i < 2; i++ {
				if err := s.AddPlayerToTeam(ctx, "team-1", "Salah-Liverpool"); err != nil {
					t.Fatalf("AddPlayerToTeam: %v", err)
				}
			}
			if err := s.AddPlayerToTeam(ctx, "team-1", "Raya-Arsenal"); err != nil {
				t.Fatalf("AddPlayerToTeam: %v", err)
			}
			if err := s.RemovePlayerFromTeam(ctx, "team-1", "Raya-Arsenal"); err != nil {
				t.Fatalf("RemovePlayerFromTeam: %v", err)
			}

			teams, err := s.GetAllTeams(ctx)
			if err != nil {
				t.Fatalf("GetAllTeams: %v", err)
			}
			sort.Slice(teams, func(i, j int) bool { return teams[i].ID < teams[j].ID })
			if got := teams[0].Players; len(got) != 1 || got[0] != "Salah-Liverpool" {
				t.Fatalf("team-1 roster = %v", got)
			}
			if len(teams[1].Players) != 0 {
				t.Fatalf("team-2 roster should be untouched, got %v", teams[1].Players)
			}
		})
	}
}

func TestUpsertReplacesWholeRecord(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			seed(t, s)

			teams := sampleTeams()
			teams[0].Name = "Renamed"
			teams[0].Players = []string{"Raya-Arsenal"}
			if err := s.UpsertTeams(ctx, teams[:1]); err != nil {
				t.Fatalf("UpsertTeams: %v", err)
			}
			all, _ := s.GetAllTeams(ctx)
			if len(all) != 2 {
				t.Fatalf("upsert must not duplicate, got %d teams", len(all))
			}
			for _, tm := range all {
				if tm.ID == "team-1" && (tm.Name != "Renamed" || !tm.HasPlayer("Raya-Arsenal")) {
					t.Fatalf("team-1 not replaced: %+v", tm)
				}
			}
		})
	}
}

func TestSettingsAndRankingsSingletons(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			got, err := s.GetSettings(ctx)
			if err != nil || got != nil {
				t.Fatalf("expected no settings yet, got %+v, %v", got, err)
			}

			settings := models.DraftSettings{Teams: sampleTeams(), IsActive: true}
			if err := s.SaveSettings(ctx, settings); err != nil {
				t.Fatalf("SaveSettings: %v", err)
			}
			settings.IsActive = false
			if err := s.SaveSettings(ctx, settings); err != nil {
				t.Fatalf("SaveSettings: %v", err)
			}
			got, err = s.GetSettings(ctx)
			if err != nil || got == nil {
				t.Fatalf("GetSettings: %+v, %v", got, err)
			}
			if got.ID != models.SettingsID || got.IsActive || len(got.Teams) != 2 {
				t.Fatalf("unexpected settings: %+v", got)
			}

			ranking := models.PositionRanking{
				Position: models.PositionMID,
				Weights:  map[string]float64{"total_points": 60, "goals_scored": 40},
			}
			if err := s.SavePositionRanking(ctx, ranking); err != nil {
				t.Fatalf("SavePositionRanking: %v", err)
			}
			r, err := s.GetPositionRanking(ctx, models.PositionMID)
			if err != nil || r == nil || r.Weights["goals_scored"] != 40 {
				t.Fatalf("GetPositionRanking: %+v, %v", r, err)
			}
			if r, _ := s.GetPositionRanking(ctx, models.PositionGK); r != nil {
				t.Fatalf("GK ranking should be absent, got %+v", r)
			}
		})
	}
}

func TestClearAllWipesEveryCollection(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			seed(t, s)
			_ = s.SaveSettings(ctx, models.DraftSettings{Teams: sampleTeams(), IsActive: true})
			_ = s.SavePositionRanking(ctx, models.PositionRanking{Position: models.PositionFWD, Weights: map[string]float64{"x": 1}})

			if err := s.ClearAll(ctx); err != nil {
				t.Fatalf("ClearAll: %v", err)
			}
			players, _ := s.GetAllPlayers(ctx)
			teams, _ := s.GetAllTeams(ctx)
			settings, _ := s.GetSettings(ctx)
			ranking, _ := s.GetPositionRanking(ctx, models.PositionFWD)
			if len(players) != 0 || len(teams) != 0 || settings != nil || ranking != nil {
				t.Fatalf("ClearAll left data: players=%d teams=%d settings=%v ranking=%v",
					len(players), len(teams), settings, ranking)
			}

			// Init stays idempotent after a wipe.
			if err := s.Init(ctx); err != nil {
				t.Fatalf("re-Init: %v", err)
			}
		})
	}
}

func TestMemoryDALRequiresInit(t *testing.T) {
	m := NewMemoryDAL()
	ctx := context.Background()
	if _, err := m.GetAllPlayers(ctx); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}
	if err := m.Init(ctx); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := m.Init(ctx); err != nil {
		t.Fatalf("second Init: %v", err)
	}
}

func TestNumberedPlaceholders(t *testing.T) {
	s := &docStore{dialect: postgresDialect}
	got := s.q(`UPDATE players SET data = ? WHERE id = ?`)
	want := `UPDATE players SET data = $1 WHERE id = $2`
	if got != want {
		t.Fatalf("q() = %q, want %q", got, want)
	}
}
