// Package draft runs multi-step ledger actions and serves reads from a
// snapshot that is fully reloaded after every mutation.
package draft

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/sourcegraph/conc/pool"

	"github.com/Billy-Davies-2/fpl-draft-ledger/internal/dal"
	"github.com/Billy-Davies-2/fpl-draft-ledger/internal/logger"
	"github.com/Billy-Davies-2/fpl-draft-ledger/internal/models"
	"github.com/Billy-Davies-2/fpl-draft-ledger/internal/pubsub"
	"github.com/Billy-Davies-2/fpl-draft-ledger/internal/query"
)

const (
	MinTeams = 2
	MaxTeams = 12
)

// ErrInvalidTeams is returned by CreateTeams when the names do not make a
// valid league.
var ErrInvalidTeams = errors.New("invalid team setup")

// Service owns the in-memory snapshot of the ledger. Mutations run one at a
// time and always end with a reload, so readers only see committed state.
type Service struct {
	store  dal.DraftDAL
	events pubsub.Publisher
	now    func() time.Time

	// serializes mutations end to end
	write sync.Mutex

	mu       sync.RWMutex
	players  []models.DraftPlayer
	teams    []models.Team
	settings *models.DraftSettings
}

// Option customizes a Service.
type Option func(*Service)

// WithPublisher sends a change event after each successful mutation.
func WithPublisher(p pubsub.Publisher) Option {
	return func(s *Service) { s.events = p }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService wraps store. Call Load before serving reads.
func NewService(store dal.DraftDAL, opts ...Option) *Service {
	s := &Service{store: store, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load initializes the store and reads the first snapshot. A store that
// cannot initialize makes every draft feature unavailable.
func (s *Service) Load(ctx context.Context) error {
	if err := s.store.Init(ctx); err != nil {
		return errors.Wrap(err, "initialize ledger store")
	}
	s.write.Lock()
	defer s.write.Unlock()
	return s.reload(ctx)
}

// Reload re-reads the ledger, picking up changes made by other instances.
func (s *Service) Reload(ctx context.Context) error {
	s.write.Lock()
	defer s.write.Unlock()
	return s.reload(ctx)
}

// reload replaces the snapshot with the store's contents. Callers hold
// s.write.
func (s *Service) reload(ctx context.Context) error {
	var (
		players  []models.DraftPlayer
		teams    []models.Team
		settings *models.DraftSettings
	)

	p := pool.New().WithContext(ctx).WithCancelOnError()
	p.Go(func(ctx context.Context) error {
		var err error
		players, err = s.store.GetAllPlayers(ctx)
		return errors.Wrap(err, "load players")
	})
	p.Go(func(ctx context.Context) error {
		var err error
		teams, err = s.store.GetAllTeams(ctx)
		return errors.Wrap(err, "load teams")
	})
	p.Go(func(ctx context.Context) error {
		var err error
		settings, err = s.store.GetSettings(ctx)
		return errors.Wrap(err, "load settings")
	})
	if err := p.Wait(); err != nil {
		return err
	}

	sort.SliceStable(players, func(i, j int) bool { return players[i].PlayerID < players[j].PlayerID })
	sort.SliceStable(teams, func(i, j int) bool { return teamOrder(teams[i].ID, teams[j].ID) })

	if err := s.reconcile(ctx, players, teams); err != nil {
		return err
	}

	s.mu.Lock()
	s.players = players
	s.teams = teams
	s.settings = settings
	s.mu.Unlock()
	return nil
}

// teamOrder sorts generated ids numerically, so team-10 follows team-9.
func teamOrder(a, b string) bool {
	na, oka := teamNumber(a)
	nb, okb := teamNumber(b)
	if oka && okb && na != nb {
		return na < nb
	}
	return a < b
}

func teamNumber(id string) (int, bool) {
	rest, ok := strings.CutPrefix(id, "team-")
	if !ok || rest == "" {
		return 0, false
	}
	n := 0
	for _, r := range rest {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	return n, true
}

// InitializePlayers writes the catalog into the ledger as undrafted players.
func (s *Service) InitializePlayers(ctx context.Context, catalog []models.Player) error {
	s.write.Lock()
	defer s.write.Unlock()

	players := make([]models.DraftPlayer, len(catalog))
	for i, p := range catalog {
		players[i] = models.NewDraftPlayer(p)
	}
	err := s.store.UpsertPlayers(ctx, players)
	if err != nil {
		logger.Error("failed to initialize players", "error", err, "count", len(players))
		err = errors.Wrap(err, "initialize players")
	} else {
		logger.Info("players initialized", "count", len(players))
	}
	return s.finish(ctx, err, pubsub.EventPlayersInit, map[string]any{"count": len(players)})
}

// NormalizeTeamNames trims names and drops blanks.
func NormalizeTeamNames(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// CreateTeams sets up the league: teams team-1..team-n owned by their own
// names, plus an active settings record.
func (s *Service) CreateTeams(ctx context.Context, names []string) error {
	names = NormalizeTeamNames(names)
	if len(names) < MinTeams || len(names) > MaxTeams {
		return errors.Wrapf(ErrInvalidTeams, "need %d to %d named teams, got %d", MinTeams, MaxTeams, len(names))
	}

	s.write.Lock()
	defer s.write.Unlock()

	now := s.now().UTC()
	teams := make([]models.Team, len(names))
	for i, name := range names {
		teams[i] = models.Team{
			ID:        "team-" + strconv.Itoa(i+1),
			Name:      name,
			Owner:     name,
			Players:   []string{},
			CreatedAt: now,
		}
	}

	settings := models.DraftSettings{Teams: teams, IsActive: true, CreatedAt: now, UpdatedAt: now}
	err := s.store.UpsertTeams(ctx, teams)
	if err != nil {
		logger.Error("failed to create teams", "error", err)
		err = errors.Wrap(err, "create teams")
	} else if err = s.store.SaveSettings(ctx, settings); err != nil {
		logger.Error("failed to save draft settings", "error", err)
		err = errors.Wrap(err, "save draft settings")
	} else {
		logger.Info("teams created", "count", len(teams))
	}
	return s.finish(ctx, err, pubsub.EventDraftSetup, map[string]any{"teams": len(teams)})
}

// DraftPlayer assigns playerID to teamID. A player already owned by another
// team is released from that team first. Each step is its own ledger
// transaction; a failure part way leaves the earlier steps committed.
func (s *Service) DraftPlayer(ctx context.Context, playerID, teamID string) error {
	s.write.Lock()
	defer s.write.Unlock()

	payload, err := s.draftSteps(ctx, playerID, teamID)
	return s.finish(ctx, err, pubsub.EventDraftPick, payload)
}

func (s *Service) draftSteps(ctx context.Context, playerID, teamID string) (map[string]any, error) {
	log := logger.With("player_id", playerID, "team_id", teamID)
	payload := map[string]any{"playerId": playerID, "teamId": teamID}

	current, _ := s.lookup(playerID)
	if current.IsDrafted && current.DraftedBy != teamID {
		previous := current.DraftedBy
		if err := s.store.UndraftPlayer(ctx, playerID); err != nil {
			log.Error("failed to release player from previous team", "error", err, "previous_team", previous)
			return nil, errors.Wrapf(err, "undraft %s", playerID)
		}
		if err := s.store.RemovePlayerFromTeam(ctx, previous, playerID); err != nil {
			log.Error("failed to remove player from previous roster", "error", err, "previous_team", previous)
			return nil, errors.Wrapf(err, "remove %s from %s", playerID, previous)
		}
		log.Info("player released for reassignment", "previous_team", previous)
		payload["previousTeamId"] = previous
	}

	if err := s.store.DraftPlayer(ctx, playerID, teamID); err != nil {
		log.Error("failed to draft player", "error", err)
		return nil, errors.Wrapf(err, "draft %s", playerID)
	}
	if err := s.store.AddPlayerToTeam(ctx, teamID, playerID); err != nil {
		log.Error("failed to add player to roster", "error", err)
		return nil, errors.Wrapf(err, "add %s to %s", playerID, teamID)
	}
	log.Info("player drafted")
	return payload, nil
}

// UndraftPlayer releases playerID. Undrafted or unknown players are left
// alone.
func (s *Service) UndraftPlayer(ctx context.Context, playerID string) error {
	s.write.Lock()
	defer s.write.Unlock()

	current, ok := s.lookup(playerID)
	if !ok || !current.IsDrafted {
		return nil
	}
	teamID := current.DraftedBy
	log := logger.With("player_id", playerID, "team_id", teamID)

	err := s.store.UndraftPlayer(ctx, playerID)
	if err != nil {
		log.Error("failed to undraft player", "error", err)
		err = errors.Wrapf(err, "undraft %s", playerID)
	} else if err = s.store.RemovePlayerFromTeam(ctx, teamID, playerID); err != nil {
		log.Error("failed to remove player from roster", "error", err)
		err = errors.Wrapf(err, "remove %s from %s", playerID, teamID)
	} else {
		log.Info("player undrafted")
	}
	return s.finish(ctx, err, pubsub.EventDraftUndraft, map[string]any{"playerId": playerID, "teamId": teamID})
}

// ResetDraft wipes the whole ledger.
func (s *Service) ResetDraft(ctx context.Context) error {
	s.write.Lock()
	defer s.write.Unlock()

	err := s.store.ClearAll(ctx)
	if err != nil {
		logger.Error("failed to reset draft", "error", err)
		err = errors.Wrap(err, "reset draft")
	} else {
		logger.Info("draft reset")
	}
	return s.finish(ctx, err, pubsub.EventDraftReset, nil)
}

// SavePositionRanking stores weights for a position. Weights are clamped
// to [0,100].
func (s *Service) SavePositionRanking(ctx context.Context, position models.Position, weights map[string]float64) (*models.PositionRanking, error) {
	if !position.Valid() {
		return nil, errors.Newf("unknown position %q", position)
	}
	clamped := query.Weights(weights).Clamped()
	ranking := models.PositionRanking{Position: position, Weights: clamped, UpdatedAt: s.now().UTC()}
	if err := s.store.SavePositionRanking(ctx, ranking); err != nil {
		logger.Error("failed to save position ranking", "error", err, "position", position)
		return nil, errors.Wrapf(err, "save %s ranking", position)
	}
	s.publish(pubsub.EventRankingsSave, map[string]any{"position": string(position)})
	return &ranking, nil
}

// PositionRanking returns the saved weights for position, or nil.
func (s *Service) PositionRanking(ctx context.Context, position models.Position) (*models.PositionRanking, error) {
	r, err := s.store.GetPositionRanking(ctx, position)
	return r, errors.Wrapf(err, "get %s ranking", position)
}

// finish reloads after a mutation. The reload runs even when a
// step failed, so the snapshot shows the legs that did commit; the step's
// error wins over a reload error. The event is only sent on success.
func (s *Service) finish(ctx context.Context, stepErr error, typ pubsub.EventType, payload map[string]any) error {
	reloadErr := s.reload(ctx)
	if stepErr != nil {
		if reloadErr != nil {
			logger.Warn("reload after failed mutation also failed", "error", reloadErr)
		}
		return stepErr
	}
	if reloadErr != nil {
		return reloadErr
	}
	s.publish(typ, payload)
	return nil
}

func (s *Service) publish(typ pubsub.EventType, payload map[string]any) {
	if s.events == nil {
		return
	}
	e := pubsub.NewEvent(typ, payload)
	e.At = s.now().UTC()
	s.events.Publish(e)
}

func (s *Service) lookup(playerID string) (models.DraftPlayer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.players {
		if p.PlayerID == playerID {
			return p, true
		}
	}
	return models.DraftPlayer{}, false
}
