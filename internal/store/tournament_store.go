package store

import (
	"context"

	"github.com/AdamBeresnev/esports-bracket/internal/bracket"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type TournamentStore struct {
	db *sqlx.DB
}

func NewTournamentStore(db *sqlx.DB) *TournamentStore {
	return &TournamentStore{db: db}
}

const (
	insertMatchQuery = `INSERT INTO matches (tournament_id, round, match_number, team1_id, team2_id, team1_score, team2_score,
		winner_id, status, scheduled_time, team1_name_override, team2_name_override, stream_url)
		VALUES (:tournament_id, :round, :match_number, :team1_id, :team2_id, :team1_score, :team2_score,
		:winner_id, :status, :scheduled_time, :team1_name_override, :team2_name_override, :stream_url)`
	updateMatchQuery = `UPDATE matches SET
		team1_id = :team1_id,
		team2_id = :team2_id,
		team1_score = :team1_score,
		team2_score = :team2_score,
		winner_id = :winner_id,
		status = :status,
		scheduled_time = :scheduled_time,
		stream_url = :stream_url
		WHERE id = :id`
)

func (s *TournamentStore) CreateTournament(ctx context.Context, tx *sqlx.Tx, tournament *bracket.Tournament) error {
	_, err := tx.NamedExecContext(ctx, `INSERT INTO tournaments (id, owner_id, name, game, status, max_players, starts_at)
        VALUES (:id, :owner_id, :name, :game, :status, :max_players, :starts_at)`, tournament)
	return err
}

func (s *TournamentStore) GetTournament(ctx context.Context, id string) (*bracket.Tournament, error) {
	return getTournament(ctx, s.db, id)
}

func (s *TournamentStore) GetTournamentTx(ctx context.Context, tx *sqlx.Tx, id string) (*bracket.Tournament, error) {
	return getTournament(ctx, tx, id)
}

func getTournament(ctx context.Context, q sqlx.QueryerContext, id string) (*bracket.Tournament, error) {
	var tournament bracket.Tournament
	if err := sqlx.GetContext(ctx, q, &tournament, "SELECT * FROM tournaments WHERE id = ?", id); err != nil {
		return nil, err
	}
	return &tournament, nil
}

// ListTournaments returns every tournament, newest first, optionally filtered by game.
func (s *TournamentStore) ListTournaments(ctx context.Context, game string) ([]bracket.Tournament, error) {
	var tournaments []bracket.Tournament
	if game == "" {
		err := s.db.SelectContext(ctx, &tournaments, "SELECT * FROM tournaments ORDER BY starts_at DESC, created_at DESC")
		return tournaments, err
	}
	err := s.db.SelectContext(ctx, &tournaments, "SELECT * FROM tournaments WHERE game = ? ORDER BY starts_at DESC, created_at DESC", game)
	return tournaments, err
}

func (s *TournamentStore) GetTournamentsByUserID(ctx context.Context, userID uuid.UUID) ([]bracket.Tournament, error) {
	var tournaments []bracket.Tournament
	err := s.db.SelectContext(ctx, &tournaments, "SELECT * FROM tournaments WHERE owner_id = ? ORDER BY created_at DESC", userID)
	return tournaments, err
}

func (s *TournamentStore) ListGames(ctx context.Context) ([]string, error) {
	var games []string
	err := s.db.SelectContext(ctx, &games, "SELECT DISTINCT game FROM tournaments WHERE game != '' ORDER BY game")
	return games, err
}

func (s *TournamentStore) UpdateTournamentStatusTx(ctx context.Context, tx *sqlx.Tx, id string, status bracket.TournamentStatus) error {
	_, err := tx.ExecContext(ctx, "UPDATE tournaments SET status = ? WHERE id = ?", status, id)
	return err
}

func (s *TournamentStore) CreateRegistration(ctx context.Context, tx *sqlx.Tx, reg *bracket.Registration) error {
	_, err := tx.NamedExecContext(ctx, `INSERT INTO tournament_registrations (tournament_id, team_id, seed)
		VALUES (:tournament_id, :team_id, :seed)`, reg)
	return err
}

func (s *TournamentStore) IsRegisteredTx(ctx context.Context, tx *sqlx.Tx, tournamentID string, teamID int64) (bool, error) {
	var exists bool
	err := tx.GetContext(ctx, &exists, "SELECT EXISTS(SELECT 1 FROM tournament_registrations WHERE tournament_id = ? AND team_id = ?)", tournamentID, teamID)
	return exists, err
}

func (s *TournamentStore) CountRegistrationsTx(ctx context.Context, tx *sqlx.Tx, tournamentID string) (int, error) {
	var count int
	err := tx.GetContext(ctx, &count, "SELECT COUNT(*) FROM tournament_registrations WHERE tournament_id = ?", tournamentID)
	return count, err
}

// GetRegisteredTeams returns the teams of a tournament in seed order.
func (s *TournamentStore) GetRegisteredTeams(ctx context.Context, tournamentID string) ([]bracket.Team, error) {
	return getRegisteredTeams(ctx, s.db, tournamentID)
}

func (s *TournamentStore) GetRegisteredTeamsTx(ctx context.Context, tx *sqlx.Tx, tournamentID string) ([]bracket.Team, error) {
	return getRegisteredTeams(ctx, tx, tournamentID)
}

func getRegisteredTeams(ctx context.Context, q sqlx.QueryerContext, tournamentID string) ([]bracket.Team, error) {
	var teams []bracket.Team
	err := sqlx.SelectContext(ctx, q, &teams, `SELECT t.* FROM teams t
		JOIN tournament_registrations r ON r.team_id = t.id
		WHERE r.tournament_id = ?
		ORDER BY r.seed ASC`, tournamentID)
	return teams, err
}

// GetBracketTeams returns every team that is registered for or plays in a tournament.
func (s *TournamentStore) GetBracketTeams(ctx context.Context, tournamentID string) ([]bracket.Team, error) {
	var teams []bracket.Team
	err := s.db.SelectContext(ctx, &teams, `SELECT * FROM teams WHERE id IN (
			SELECT team_id FROM tournament_registrations WHERE tournament_id = ?
			UNION SELECT team1_id FROM matches WHERE tournament_id = ? AND team1_id IS NOT NULL
			UNION SELECT team2_id FROM matches WHERE tournament_id = ? AND team2_id IS NOT NULL
		) ORDER BY name ASC`, tournamentID, tournamentID, tournamentID)
	return teams, err
}

func (s *TournamentStore) CreateMatches(ctx context.Context, tx *sqlx.Tx, matches []bracket.Match) error {
	if len(matches) == 0 {
		return nil
	}
	_, err := tx.NamedExecContext(ctx, insertMatchQuery, matches)
	return err
}

func (s *TournamentStore) GetMatches(ctx context.Context, tournamentID string) ([]bracket.Match, error) {
	var matches []bracket.Match
	err := s.db.SelectContext(ctx, &matches, "SELECT * FROM matches WHERE tournament_id = ? ORDER BY round ASC, match_number ASC", tournamentID)
	return matches, err
}

// GetDecidedMatches returns every match with a winner across all tournaments.
func (s *TournamentStore) GetDecidedMatches(ctx context.Context) ([]bracket.Match, error) {
	var matches []bracket.Match
	err := s.db.SelectContext(ctx, &matches, "SELECT * FROM matches WHERE winner_id IS NOT NULL ORDER BY id ASC")
	return matches, err
}

func (s *TournamentStore) GetMatch(ctx context.Context, id int64) (*bracket.Match, error) {
	return getMatch(ctx, s.db, id)
}

func (s *TournamentStore) GetMatchTx(ctx context.Context, tx *sqlx.Tx, id int64) (*bracket.Match, error) {
	return getMatch(ctx, tx, id)
}

func getMatch(ctx context.Context, q sqlx.QueryerContext, id int64) (*bracket.Match, error) {
	var match bracket.Match
	if err := sqlx.GetContext(ctx, q, &match, "SELECT * FROM matches WHERE id = ?", id); err != nil {
		return nil, err
	}
	return &match, nil
}

func (s *TournamentStore) GetMatchByPositionTx(ctx context.Context, tx *sqlx.Tx, tournamentID uuid.UUID, round, matchNumber int) (*bracket.Match, error) {
	var match bracket.Match
	err := tx.GetContext(ctx, &match, "SELECT * FROM matches WHERE tournament_id = ? AND round = ? AND match_number = ?", tournamentID, round, matchNumber)
	if err != nil {
		return nil, err
	}
	return &match, nil
}

// LastRoundTx returns the highest stored round of a tournament, 0 without matches.
func (s *TournamentStore) LastRoundTx(ctx context.Context, tx *sqlx.Tx, tournamentID uuid.UUID) (int, error) {
	var round int
	err := tx.GetContext(ctx, &round, "SELECT COALESCE(MAX(round), 0) FROM matches WHERE tournament_id = ?", tournamentID)
	return round, err
}

func (s *TournamentStore) UpdateMatch(ctx context.Context, tx *sqlx.Tx, match *bracket.Match) error {
	_, err := tx.NamedExecContext(ctx, updateMatchQuery, match)
	return err
}
