package store

import (
	"context"

	"github.com/AdamBeresnev/esports-bracket/internal/bracket"
	"github.com/jmoiron/sqlx"
)

type TeamStore struct {
	db *sqlx.DB
}

const (
	createTeamQuery = `
		INSERT INTO teams (name, tag, logo_url, captain_id) VALUES
		(:name, :tag, :logo_url, :captain_id)
	`
	updateTeamLogoQuery = "UPDATE teams SET logo_url = ? WHERE id = ?"
)

func NewTeamStore(db *sqlx.DB) *TeamStore {
	return &TeamStore{db: db}
}

// CreateTeam inserts team and fills in its generated ID.
func (s *TeamStore) CreateTeam(ctx context.Context, team *bracket.Team) error {
	return createTeam(ctx, s.db, team)
}

func (s *TeamStore) CreateTeamTx(ctx context.Context, tx *sqlx.Tx, team *bracket.Team) error {
	return createTeam(ctx, tx, team)
}

func createTeam(ctx context.Context, e sqlx.ExtContext, team *bracket.Team) error {
	res, err := sqlx.NamedExecContext(ctx, e, createTeamQuery, team)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	team.ID = id
	return nil
}

func (s *TeamStore) GetTeam(ctx context.Context, id int64) (*bracket.Team, error) {
	var team bracket.Team
	if err := s.db.GetContext(ctx, &team, "SELECT * FROM teams WHERE id = ?", id); err != nil {
		return nil, err
	}
	return &team, nil
}

func (s *TeamStore) GetTeamTx(ctx context.Context, tx *sqlx.Tx, id int64) (*bracket.Team, error) {
	var team bracket.Team
	if err := tx.GetContext(ctx, &team, "SELECT * FROM teams WHERE id = ?", id); err != nil {
		return nil, err
	}
	return &team, nil
}

func (s *TeamStore) GetTeamByNameTx(ctx context.Context, tx *sqlx.Tx, name string) (*bracket.Team, error) {
	var team bracket.Team
	if err := tx.GetContext(ctx, &team, "SELECT * FROM teams WHERE name = ?", name); err != nil {
		return nil, err
	}
	return &team, nil
}

func (s *TeamStore) ListTeams(ctx context.Context) ([]bracket.Team, error) {
	var teams []bracket.Team
	err := s.db.SelectContext(ctx, &teams, "SELECT * FROM teams ORDER BY name ASC")
	return teams, err
}

func (s *TeamStore) UpdateTeamLogo(ctx context.Context, id int64, logoURL string) error {
	_, err := s.db.ExecContext(ctx, updateTeamLogoQuery, logoURL, id)
	return err
}
