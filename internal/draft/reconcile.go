package draft

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/Billy-Davies-2/fpl-draft-ledger/internal/dal"
	"github.com/Billy-Davies-2/fpl-draft-ledger/internal/logger"
	"github.com/Billy-Davies-2/fpl-draft-ledger/internal/models"
)

// reconcile rebuilds each team's replica from draftedBy, in the snapshot
// and in the store. Player records are never written here: players and
// teams are read separately, so a team missing from this read may exist by
// the time a write would land. A player whose team is missing stays drafted
// and simply appears on no roster.
//
// Store repairs go member by member against the current team record, so a
// team deleted since the read is skipped instead of recreated.
func (s *Service) reconcile(ctx context.Context, players []models.DraftPlayer, teams []models.Team) error {
	rosters := derivedRosters(players)
	for i := range teams {
		have := teams[i].Players
		want := rosters[teams[i].ID]
		if sameMembers(have, want) {
			continue
		}
		log := logger.With("team_id", teams[i].ID)
		log.Warn("repairing team roster replica", "stored", len(have), "derived", len(want))
		teams[i].Players = append([]string{}, want...)

		if err := s.patchReplica(ctx, teams[i].ID, missingFrom(have, want), missingFrom(want, have)); err != nil {
			if errors.Is(err, dal.ErrNotFound) {
				log.Info("team removed before its replica could be repaired")
				continue
			}
			return err
		}
	}
	return nil
}

func (s *Service) patchReplica(ctx context.Context, teamID string, add, remove []string) error {
	for _, id := range add {
		if err := s.store.AddPlayerToTeam(ctx, teamID, id); err != nil {
			return errors.Wrapf(err, "repair roster of %s", teamID)
		}
	}
	for _, id := range remove {
		if err := s.store.RemovePlayerFromTeam(ctx, teamID, id); err != nil {
			return errors.Wrapf(err, "repair roster of %s", teamID)
		}
	}
	return nil
}

// derivedRosters groups drafted player ids by team, in player order.
func derivedRosters(players []models.DraftPlayer) map[string][]string {
	out := make(map[string][]string)
	for _, p := range players {
		if p.IsDrafted {
			out[p.DraftedBy] = append(out[p.DraftedBy], p.PlayerID)
		}
	}
	return out
}

func sameMembers(a, b []string) bool {
	set := make(map[string]bool, len(a))
	for _, id := range a {
		set[id] = true
	}
	if len(set) != len(b) {
		return false
	}
	for _, id := range b {
		if !set[id] {
			return false
		}
	}
	return true
}

// missingFrom lists the ids in want that are absent from have.
func missingFrom(have, want []string) []string {
	set := make(map[string]bool, len(have))
	for _, id := range have {
		set[id] = true
	}
	var out []string
	for _, id := range want {
		if !set[id] {
			out = append(out, id)
			set[id] = true
		}
	}
	return out
}
