package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/AdamBeresnev/esports-bracket/internal/bracket"
	"github.com/AdamBeresnev/esports-bracket/internal/middleware"
	"github.com/AdamBeresnev/esports-bracket/internal/store"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/singleflight"
)

type TournamentService struct {
	db           *sqlx.DB
	store        *store.TournamentStore
	teams        *store.TeamStore
	roundSpacing time.Duration

	// Bracket pages are polled by every viewer; identical loads share one query set
	views singleflight.Group
}

func NewTournamentService(db *sqlx.DB, store *store.TournamentStore, teams *store.TeamStore, roundSpacing time.Duration) *TournamentService {
	return &TournamentService{db: db, store: store, teams: teams, roundSpacing: roundSpacing}
}

type CreateTournamentInput struct {
	Name       string
	Game       string
	MaxPlayers int
	StartsAt   time.Time
	TeamNames  []string
}

type TournamentData struct {
	Tournament *bracket.Tournament
	Teams      []bracket.Team
	Matches    []bracket.Match
}

// BracketView is the derived, read-only bracket of a tournament.
type BracketView struct {
	Tournament *bracket.Tournament `json:"tournament"`
	Rounds     []bracket.Round     `json:"rounds"`
	Registered []bracket.Team      `json:"registered"`
	Strategy   string              `json:"strategy"`
	Unplaced   int                 `json:"unplaced"`
}

func (s *TournamentService) CreateTournament(ctx context.Context, input CreateTournamentInput) (uuid.UUID, error) {
	if strings.TrimSpace(input.Name) == "" {
		return uuid.Nil, ErrNameRequired
	}
	if input.MaxPlayers > 0 && len(input.TeamNames) > input.MaxPlayers {
		return uuid.Nil, ErrTournamentFull
	}
	if input.StartsAt.IsZero() {
		input.StartsAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return uuid.Nil, err
	}
	defer tx.Rollback()

	ownerID, _ := middleware.GetUserIDFromContext(ctx)
	tournament := bracket.Tournament{
		ID:         uuid.New(),
		OwnerID:    ownerID,
		Name:       strings.TrimSpace(input.Name),
		Game:       strings.TrimSpace(input.Game),
		Status:     bracket.TournamentRegistration,
		MaxPlayers: input.MaxPlayers,
		StartsAt:   input.StartsAt.UTC(),
	}

	if err := s.store.CreateTournament(ctx, tx, &tournament); err != nil {
		return uuid.Nil, fmt.Errorf("failed to create tournament: %w", err)
	}

	seed := 0
	for _, name := range input.TeamNames {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		team, err := s.findOrCreateTeam(ctx, tx, name)
		if err != nil {
			return uuid.Nil, err
		}

		registered, err := s.store.IsRegisteredTx(ctx, tx, tournament.ID.String(), team.ID)
		if err != nil {
			return uuid.Nil, err
		}
		if registered {
			return uuid.Nil, fmt.Errorf("%w: %s", ErrAlreadyRegistered, name)
		}

		seed++
		if err := s.store.CreateRegistration(ctx, tx, &bracket.Registration{
			TournamentID: tournament.ID,
			TeamID:       team.ID,
			Seed:         seed,
		}); err != nil {
			return uuid.Nil, fmt.Errorf("failed to register team %q: %w", name, err)
		}
	}

	return tournament.ID, tx.Commit()
}

func (s *TournamentService) findOrCreateTeam(ctx context.Context, tx *sqlx.Tx, name string) (*bracket.Team, error) {
	team, err := s.teams.GetTeamByNameTx(ctx, tx, name)
	if err == nil {
		return team, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	team = &bracket.Team{Name: name}
	if err := s.teams.CreateTeamTx(ctx, tx, team); err != nil {
		return nil, fmt.Errorf("failed to create team %q: %w", name, err)
	}
	return team, nil
}

// RegisterTeam signs a team up while the tournament is still open. Only the
// team's captain or the organiser may do so.
func (s *TournamentService) RegisterTeam(ctx context.Context, tournamentID string, teamID int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	tournament, err := s.store.GetTournamentTx(ctx, tx, tournamentID)
	if err != nil {
		return notFound(err, ErrTournamentNotFound)
	}
	if tournament.Status != bracket.TournamentRegistration {
		return ErrRegistrationClosed
	}

	team, err := s.teams.GetTeamTx(ctx, tx, teamID)
	if err != nil {
		return notFound(err, ErrTeamNotFound)
	}
	userID, _ := middleware.GetUserIDFromContext(ctx)
	if !tournament.CanEnter(team, userID) {
		return ErrForbidden
	}

	registered, err := s.store.IsRegisteredTx(ctx, tx, tournamentID, teamID)
	if err != nil {
		return err
	}
	if registered {
		return ErrAlreadyRegistered
	}

	count, err := s.store.CountRegistrationsTx(ctx, tx, tournamentID)
	if err != nil {
		return err
	}
	if tournament.IsFull(count) {
		return ErrTournamentFull
	}

	if err := s.store.CreateRegistration(ctx, tx, &bracket.Registration{
		TournamentID: tournament.ID,
		TeamID:       teamID,
		Seed:         count + 1,
	}); err != nil {
		return fmt.Errorf("failed to register team: %w", err)
	}

	return tx.Commit()
}

// StartTournament closes registration and lays out the bracket from the
// registered teams in seed order.
func (s *TournamentService) StartTournament(ctx context.Context, tournamentID string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	tournament, err := s.store.GetTournamentTx(ctx, tx, tournamentID)
	if err != nil {
		return notFound(err, ErrTournamentNotFound)
	}
	if err := requireOwner(ctx, tournament); err != nil {
		return err
	}
	if tournament.Status != bracket.TournamentRegistration {
		return ErrRegistrationClosed
	}

	teams, err := s.store.GetRegisteredTeamsTx(ctx, tx, tournamentID)
	if err != nil {
		return err
	}
	if len(teams) < 2 {
		return ErrNotEnoughTeams
	}

	matches := bracket.GenerateSingleElim(tournament.ID, teams, bracket.Schedule{
		StartsAt:     tournament.StartsAt,
		RoundSpacing: s.roundSpacing,
	})
	if err := s.store.CreateMatches(ctx, tx, matches); err != nil {
		return fmt.Errorf("failed to create matches: %w", err)
	}

	if err := s.store.UpdateTournamentStatusTx(ctx, tx, tournamentID, bracket.TournamentStarted); err != nil {
		return fmt.Errorf("failed to update tournament status: %w", err)
	}

	slog.Info("tournament started", "tournament_id", tournamentID, "teams", len(teams), "matches", len(matches))
	return tx.Commit()
}

func (s *TournamentService) GetTournamentData(ctx context.Context, id string) (*TournamentData, error) {
	tournament, err := s.store.GetTournament(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrTournamentNotFound)
	}

	teams, err := s.store.GetBracketTeams(ctx, id)
	if err != nil {
		return nil, err
	}

	matches, err := s.store.GetMatches(ctx, id)
	if err != nil {
		return nil, err
	}

	return &TournamentData{
		Tournament: tournament,
		Teams:      teams,
		Matches:    matches,
	}, nil
}

// GetBracketView loads a tournament and derives its rounds. Concurrent calls
// for the same tournament and strategy share a single load, which outlives
// any one caller giving up.
func (s *TournamentService) GetBracketView(ctx context.Context, id string, strategy bracket.RoundStrategy) (*BracketView, error) {
	key := id + ":" + strategy.String()
	loadCtx := context.WithoutCancel(ctx)
	ch := s.views.DoChan(key, func() (any, error) {
		return s.loadBracketView(loadCtx, id, strategy)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*BracketView), nil
	}
}

func (s *TournamentService) loadBracketView(ctx context.Context, id string, strategy bracket.RoundStrategy) (*BracketView, error) {
	data, err := s.GetTournamentData(ctx, id)
	if err != nil {
		return nil, err
	}

	registered, err := s.store.GetRegisteredTeams(ctx, id)
	if err != nil {
		return nil, err
	}

	unplaced := bracket.Unplaceable(data.Matches, strategy)
	if len(unplaced) > 0 {
		slog.Warn("matches without a usable round or match number left out of bracket",
			"tournament_id", id, "count", len(unplaced))
	}

	return &BracketView{
		Tournament: data.Tournament,
		Rounds:     bracket.BuildRoundsWith(data.Matches, data.Teams, strategy),
		Registered: registered,
		Strategy:   strategy.String(),
		Unplaced:   len(unplaced),
	}, nil
}

func (s *TournamentService) GetStandings(ctx context.Context, id string) ([]bracket.Standing, error) {
	data, err := s.GetTournamentData(ctx, id)
	if err != nil {
		return nil, err
	}
	return bracket.Standings(data.Matches, data.Teams), nil
}

// GetLeaderboard ranks every team that has a decided match in any tournament.
func (s *TournamentService) GetLeaderboard(ctx context.Context) ([]bracket.Standing, error) {
	matches, err := s.store.GetDecidedMatches(ctx)
	if err != nil {
		return nil, err
	}
	teams, err := s.teams.ListTeams(ctx)
	if err != nil {
		return nil, err
	}

	var out []bracket.Standing
	for _, st := range bracket.Standings(matches, teams) {
		if st.Played() > 0 {
			out = append(out, st)
		}
	}
	return out, nil
}

func (s *TournamentService) ListTournaments(ctx context.Context, game string) ([]bracket.Tournament, error) {
	return s.store.ListTournaments(ctx, strings.TrimSpace(game))
}

func (s *TournamentService) ListGames(ctx context.Context) ([]string, error) {
	return s.store.ListGames(ctx)
}

func (s *TournamentService) GetTournamentsForUser(ctx context.Context) ([]bracket.Tournament, error) {
	userID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return nil, fmt.Errorf("user ID not found in the context")
	}
	return s.store.GetTournamentsByUserID(ctx, userID)
}

func requireOwner(ctx context.Context, tournament *bracket.Tournament) error {
	userID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok || userID != tournament.OwnerID {
		return ErrForbidden
	}
	return nil
}

func notFound(err, sentinel error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel
	}
	return err
}
