package dal

import (
	"context"
	"database/sql"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/Billy-Davies-2/fpl-draft-ledger/internal/models"
)

// dialect captures what differs between the SQL backends.
type dialect struct {
	name string
	// numbered placeholders ($1) instead of ?
	numbered bool
	// appended to single-row reads inside read-modify-write transactions
	lockRow string
	schema  []string
}

// docStore keeps each ledger record as a JSON document. The players table
// also projects is_drafted and drafted_by into indexed columns, written in
// the same statement as the document.
type docStore struct {
	db      *sql.DB
	dialect dialect
	ready   bool
}

func (s *docStore) q(query string) string {
	if !s.dialect.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *docStore) Init(ctx context.Context) error {
	if s.db == nil {
		return ErrNotInitialized
	}
	for _, stmt := range s.dialect.schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrapf(err, "%s: init schema", s.dialect.name)
		}
	}
	s.ready = true
	return nil
}

func (s *docStore) check() error {
	if s.db == nil || !s.ready {
		return ErrNotInitialized
	}
	return nil
}

// withTx runs fn in a transaction that commits when fn returns nil and
// rolls back otherwise.
func (s *docStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	if err := s.check(); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return errors.Wrap(tx.Commit(), "commit transaction")
}

func (s *docStore) UpsertPlayers(ctx context.Context, players []models.DraftPlayer) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, s.q(`
			INSERT INTO players (id, position, is_drafted, drafted_by, data)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				position = excluded.position,
				is_drafted = excluded.is_drafted,
				drafted_by = excluded.drafted_by,
				data = excluded.data
		`))
		if err != nil {
			return errors.Wrap(err, "prepare player upsert")
		}
		defer stmt.Close()

		for _, p := range players {
			if err := s.writePlayer(ctx, stmt, p); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *docStore) writePlayer(ctx context.Context, stmt *sql.Stmt, p models.DraftPlayer) error {
	data, err := json.Marshal(p)
	if err != nil {
		return errors.Wrapf(err, "marshal player %s", p.PlayerID)
	}
	var draftedBy sql.NullString
	if p.DraftedBy != "" {
		draftedBy = sql.NullString{String: p.DraftedBy, Valid: true}
	}
	if _, err := stmt.ExecContext(ctx, p.PlayerID, string(p.Position), p.IsDrafted, draftedBy, string(data)); err != nil {
		return errors.Wrapf(err, "write player %s", p.PlayerID)
	}
	return nil
}

func (s *docStore) UpsertTeams(ctx context.Context, teams []models.Team) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, t := range teams {
			if err := s.writeTeam(ctx, tx, t); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *docStore) writeTeam(ctx context.Context, tx *sql.Tx, t models.Team) error {
	data, err := json.Marshal(t.Clone())
	if err != nil {
		return errors.Wrapf(err, "marshal team %s", t.ID)
	}
	_, err = tx.ExecContext(ctx, s.q(`
		INSERT INTO teams (id, data) VALUES (?, ?)
		ON CONFLICT (id) DO UPDATE SET data = excluded.data
	`), t.ID, string(data))
	return errors.Wrapf(err, "write team %s", t.ID)
}

func (s *docStore) GetAllPlayers(ctx context.Context) ([]models.DraftPlayer, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	return s.queryPlayers(ctx, `SELECT data FROM players`)
}

func (s *docStore) GetPlayersByDraftedStatus(ctx context.Context, drafted bool) ([]models.DraftPlayer, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	return s.queryPlayers(ctx, s.q(`SELECT data FROM players WHERE is_drafted = ?`), drafted)
}

func (s *docStore) queryPlayers(ctx context.Context, query string, args ...any) ([]models.DraftPlayer, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query players")
	}
	defer rows.Close()

	var players []models.DraftPlayer
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, errors.Wrap(err, "scan player")
		}
		var p models.DraftPlayer
		if err := json.Unmarshal([]byte(data), &p); err != nil {
			return nil, errors.Wrap(err, "decode player")
		}
		players = append(players, p)
	}
	return players, errors.Wrap(rows.Err(), "iterate players")
}

func (s *docStore) GetAllTeams(ctx context.Context) ([]models.Team, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT data FROM teams`)
	if err != nil {
		return nil, errors.Wrap(err, "query teams")
	}
	defer rows.Close()

	var teams []models.Team
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, errors.Wrap(err, "scan team")
		}
		var t models.Team
		if err := json.Unmarshal([]byte(data), &t); err != nil {
			return nil, errors.Wrap(err, "decode team")
		}
		teams = append(teams, t.Clone())
	}
	return teams, errors.Wrap(rows.Err(), "iterate teams")
}

func (s *docStore) DraftPlayer(ctx context.Context, playerID, teamID string) error {
	return s.updatePlayer(ctx, playerID, func(p *models.DraftPlayer) { p.Draft(teamID) })
}

func (s *docStore) UndraftPlayer(ctx context.Context, playerID string) error {
	return s.updatePlayer(ctx, playerID, func(p *models.DraftPlayer) { p.Undraft() })
}

func (s *docStore) updatePlayer(ctx context.Context, playerID string, fn func(*models.DraftPlayer)) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var data string
		err := tx.QueryRowContext(ctx, s.q(`SELECT data FROM players WHERE id = ?`)+s.dialect.lockRow, playerID).Scan(&data)
		if errors.Is(err, sql.ErrNoRows) {
			return notFound("player", playerID)
		}
		if err != nil {
			return errors.Wrapf(err, "read player %s", playerID)
		}

		var p models.DraftPlayer
		if err := json.Unmarshal([]byte(data), &p); err != nil {
			return errors.Wrapf(err, "decode player %s", playerID)
		}
		fn(&p)

		stmt, err := tx.PrepareContext(ctx, s.q(`
			UPDATE players SET position = ?, is_drafted = ?, drafted_by = ?, data = ?
			WHERE id = ?
		`))
		if err != nil {
			return errors.Wrap(err, "prepare player update")
		}
		defer stmt.Close()

		encoded, err := json.Marshal(p)
		if err != nil {
			return errors.Wrapf(err, "marshal player %s", playerID)
		}
		var draftedBy sql.NullString
		if p.DraftedBy != "" {
			draftedBy = sql.NullString{String: p.DraftedBy, Valid: true}
		}
		_, err = stmt.ExecContext(ctx, string(p.Position), p.IsDrafted, draftedBy, string(encoded), playerID)
		return errors.Wrapf(err, "write player %s", playerID)
	})
}

func (s *docStore) AddPlayerToTeam(ctx context.Context, teamID, playerID string) error {
	return s.updateTeam(ctx, teamID, func(t *models.Team) { t.AddPlayer(playerID) })
}

func (s *docStore) RemovePlayerFromTeam(ctx context.Context, teamID, playerID string) error {
	return s.updateTeam(ctx, teamID, func(t *models.Team) { t.RemovePlayer(playerID) })
}

func (s *docStore) updateTeam(ctx context.Context, teamID string, fn func(*models.Team)) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var data string
		err := tx.QueryRowContext(ctx, s.q(`SELECT data FROM teams WHERE id = ?`)+s.dialect.lockRow, teamID).Scan(&data)
		if errors.Is(err, sql.ErrNoRows) {
			return notFound("team", teamID)
		}
		if err != nil {
			return errors.Wrapf(err, "read team %s", teamID)
		}

		var t models.Team
		if err := json.Unmarshal([]byte(data), &t); err != nil {
			return errors.Wrapf(err, "decode team %s", teamID)
		}
		fn(&t)
		return s.writeTeam(ctx, tx, t)
	})
}

func (s *docStore) SaveSettings(ctx context.Context, settings models.DraftSettings) error {
	settings.ID = models.SettingsID
	data, err := json.Marshal(settings)
	if err != nil {
		return errors.Wrap(err, "marshal settings")
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, s.q(`
			INSERT INTO settings (id, data) VALUES (?, ?)
			ON CONFLICT (id) DO UPDATE SET data = excluded.data
		`), models.SettingsID, string(data))
		return errors.Wrap(err, "write settings")
	})
}

func (s *docStore) GetSettings(ctx context.Context) (*models.DraftSettings, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	var data string
	err := s.db.QueryRowContext(ctx, s.q(`SELECT data FROM settings WHERE id = ?`), models.SettingsID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "read settings")
	}
	var settings models.DraftSettings
	if err := json.Unmarshal([]byte(data), &settings); err != nil {
		return nil, errors.Wrap(err, "decode settings")
	}
	return &settings, nil
}

func (s *docStore) SavePositionRanking(ctx context.Context, ranking models.PositionRanking) error {
	data, err := json.Marshal(ranking)
	if err != nil {
		return errors.Wrap(err, "marshal position ranking")
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, s.q(`
			INSERT INTO position_rankings (position, data) VALUES (?, ?)
			ON CONFLICT (position) DO UPDATE SET data = excluded.data
		`), string(ranking.Position), string(data))
		return errors.Wrapf(err, "write %s ranking", ranking.Position)
	})
}

func (s *docStore) GetPositionRanking(ctx context.Context, position models.Position) (*models.PositionRanking, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	var data string
	err := s.db.QueryRowContext(ctx, s.q(`SELECT data FROM position_rankings WHERE position = ?`), string(position)).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read %s ranking", position)
	}
	var ranking models.PositionRanking
	if err := json.Unmarshal([]byte(data), &ranking); err != nil {
		return nil, errors.Wrapf(err, "decode %s ranking", position)
	}
	return &ranking, nil
}

func (s *docStore) ClearAll(ctx context.Context) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"players", "teams", "settings", "position_rankings"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return errors.Wrapf(err, "clear %s", table)
			}
		}
		return nil
	})
}

func (s *docStore) Ping(ctx context.Context) error {
	if err := s.check(); err != nil {
		return err
	}
	return s.db.PingContext(ctx)
}

func (s *docStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
