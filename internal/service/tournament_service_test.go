package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/AdamBeresnev/esports-bracket/internal/bracket"
	"github.com/AdamBeresnev/esports-bracket/internal/db"
	"github.com/AdamBeresnev/esports-bracket/internal/middleware"
	"github.com/AdamBeresnev/esports-bracket/internal/store"
	users "github.com/AdamBeresnev/esports-bracket/internal/user"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/markbates/goth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	db          *sqlx.DB
	tournaments *store.TournamentStore
	teams       *store.TeamStore

	tournamentService *TournamentService
	matchService      *MatchService
	teamService       *TeamService
	userService       *UserService

	notifier *recordingNotifier
}

type recordingNotifier struct {
	mu      sync.Mutex
	updates []bracket.Match
}

func (n *recordingNotifier) MatchUpdated(_ uuid.UUID, match *bracket.Match) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.updates = append(n.updates, *match)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.updates)
}

// setupTestDB creates an in-memory SQLite database and applies migrations
func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := db.InitMemoryDB()
	require.NoError(t, err, "Failed to set up in-memory DB")
	t.Cleanup(func() { database.Close() })

	return database
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	database := setupTestDB(t)
	tournaments := store.NewTournamentStore(database)
	teams := store.NewTeamStore(database)
	notifier := &recordingNotifier{}

	env := &testEnv{
		db:                database,
		tournaments:       tournaments,
		teams:             teams,
		tournamentService: NewTournamentService(database, tournaments, teams, time.Hour),
		matchService:      NewMatchService(database, tournaments, notifier),
		teamService:       NewTeamService(teams, nil),
		userService:       NewUserService(store.NewUserStore(database)),
		notifier:          notifier,
	}

	// Teams reference their captain, so the acting user has to exist
	_, err := env.userService.EnsureGuestUser(context.Background())
	require.NoError(t, err)

	return env
}

// ownerCtx acts as the guest user, who owns every tournament created with it.
func ownerCtx() context.Context {
	return middleware.WithUserID(context.Background(), users.GuestID)
}

func teamNames(n int) []string {
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("Team %d", i+1)
	}
	return names
}

// startedTournament creates and starts a tournament with n teams.
func startedTournament(t *testing.T, env *testEnv, n int) uuid.UUID {
	t.Helper()
	ctx := ownerCtx()

	id, err := env.tournamentService.CreateTournament(ctx, CreateTournamentInput{
		Name:       "Test Cup",
		Game:       "CS2",
		MaxPlayers: 16,
		StartsAt:   time.Date(2026, 6, 1, 18, 0, 0, 0, time.UTC),
		TeamNames:  teamNames(n),
	})
	require.NoError(t, err)
	require.NoError(t, env.tournamentService.StartTournament(ctx, id.String()))
	return id
}

func TestCreateTournament(t *testing.T) {
	env := newTestEnv(t)
	ctx := ownerCtx()

	id, err := env.tournamentService.CreateTournament(ctx, CreateTournamentInput{
		Name:       "  Spring Cup ",
		Game:       "Valorant",
		MaxPlayers: 8,
		TeamNames:  []string{"Sentinels", "", "Fnatic"},
	})
	require.NoError(t, err)

	tournament, err := env.tournaments.GetTournament(ctx, id.String())
	require.NoError(t, err)
	assert.Equal(t, "Spring Cup", tournament.Name)
	assert.Equal(t, users.GuestID, tournament.OwnerID)
	assert.Equal(t, bracket.TournamentRegistration, tournament.Status)

	registered, err := env.tournaments.GetRegisteredTeams(ctx, id.String())
	require.NoError(t, err)
	require.Len(t, registered, 2)
	assert.Equal(t, "Sentinels", registered[0].Name)
	assert.Equal(t, "Fnatic", registered[1].Name)
}

func TestCreateTournament_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := ownerCtx()

	_, err := env.tournamentService.CreateTournament(ctx, CreateTournamentInput{Name: " "})
	assert.ErrorIs(t, err, ErrNameRequired)

	_, err = env.tournamentService.CreateTournament(ctx, CreateTournamentInput{
		Name:       "Tiny",
		MaxPlayers: 2,
		TeamNames:  teamNames(3),
	})
	assert.ErrorIs(t, err, ErrTournamentFull)

	_, err = env.tournamentService.CreateTournament(ctx, CreateTournamentInput{
		Name:      "Dupes",
		TeamNames: []string{"Alpha", "Alpha"},
	})
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
}

func TestCreateTournament_ReusesExistingTeams(t *testing.T) {
	env := newTestEnv(t)
	ctx := ownerCtx()

	first, err := env.tournamentService.CreateTournament(ctx, CreateTournamentInput{Name: "One", TeamNames: []string{"Alpha", "Bravo"}})
	require.NoError(t, err)
	second, err := env.tournamentService.CreateTournament(ctx, CreateTournamentInput{Name: "Two", TeamNames: []string{"Bravo", "Charlie"}})
	require.NoError(t, err)

	all, err := env.teams.ListTeams(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	a, err := env.tournaments.GetRegisteredTeams(ctx, first.String())
	require.NoError(t, err)
	b, err := env.tournaments.GetRegisteredTeams(ctx, second.String())
	require.NoError(t, err)
	assert.Equal(t, a[1].ID, b[0].ID)
}

func TestRegisterTeam(t *testing.T) {
	env := newTestEnv(t)
	ctx := ownerCtx()

	id, err := env.tournamentService.CreateTournament(ctx, CreateTournamentInput{Name: "Open Cup", MaxPlayers: 2})
	require.NoError(t, err)

	var teams []*bracket.Team
	for _, name := range []string{"Alpha", "Bravo", "Charlie"} {
		team, err := env.teamService.CreateTeam(ctx, CreateTeamInput{Name: name})
		require.NoError(t, err)
		teams = append(teams, team)
	}

	require.NoError(t, env.tournamentService.RegisterTeam(ctx, id.String(), teams[0].ID))
	assert.ErrorIs(t, env.tournamentService.RegisterTeam(ctx, id.String(), teams[0].ID), ErrAlreadyRegistered)
	require.NoError(t, env.tournamentService.RegisterTeam(ctx, id.String(), teams[1].ID))
	assert.ErrorIs(t, env.tournamentService.RegisterTeam(ctx, id.String(), teams[2].ID), ErrTournamentFull)

	assert.ErrorIs(t, env.tournamentService.RegisterTeam(ctx, id.String(), 9999), ErrTeamNotFound)
	assert.ErrorIs(t, env.tournamentService.RegisterTeam(ctx, uuid.NewString(), teams[2].ID), ErrTournamentNotFound)

	require.NoError(t, env.tournamentService.StartTournament(ctx, id.String()))
	assert.ErrorIs(t, env.tournamentService.RegisterTeam(ctx, id.String(), teams[2].ID), ErrRegistrationClosed)
}

func TestRegisterTeam_CaptainOrOrganiser(t *testing.T) {
	env := newTestEnv(t)
	ctx := ownerCtx()

	id, err := env.tournamentService.CreateTournament(ctx, CreateTournamentInput{Name: "Open Cup"})
	require.NoError(t, err)
	guestTeam, err := env.teamService.CreateTeam(ctx, CreateTeamInput{Name: "Guests"})
	require.NoError(t, err)

	player, err := env.userService.FindOrCreateUserByProvider(context.Background(), goth.User{Provider: "discord", UserID: "77", NickName: "captain"})
	require.NoError(t, err)
	playerCtx := middleware.WithUserID(context.Background(), player.ID)
	playerTeam, err := env.teamService.CreateTeam(playerCtx, CreateTeamInput{Name: "Players"})
	require.NoError(t, err)
	otherTeam, err := env.teamService.CreateTeam(playerCtx, CreateTeamInput{Name: "Others"})
	require.NoError(t, err)

	assert.ErrorIs(t, env.tournamentService.RegisterTeam(playerCtx, id.String(), guestTeam.ID), ErrForbidden)
	assert.ErrorIs(t, env.tournamentService.RegisterTeam(context.Background(), id.String(), playerTeam.ID), ErrForbidden)
	require.NoError(t, env.tournamentService.RegisterTeam(playerCtx, id.String(), playerTeam.ID))
	require.NoError(t, env.tournamentService.RegisterTeam(ctx, id.String(), otherTeam.ID))
}

func TestStartTournament(t *testing.T) {
	env := newTestEnv(t)
	id := startedTournament(t, env, 5)
	ctx := ownerCtx()

	tournament, err := env.tournaments.GetTournament(ctx, id.String())
	require.NoError(t, err)
	assert.Equal(t, bracket.TournamentStarted, tournament.Status)

	matches, err := env.tournaments.GetMatches(ctx, id.String())
	require.NoError(t, err)
	// 8 slot bracket: 4 + 2 + 1
	require.Len(t, matches, 7)

	byes := 0
	for _, m := range matches {
		require.NotNil(t, m.Round)
		require.NotNil(t, m.ScheduledTime)
		want := tournament.StartsAt.Add(time.Duration(*m.Round-1) * time.Hour)
		assert.True(t, want.Equal(*m.ScheduledTime), "round %d scheduled at %s", *m.Round, m.ScheduledTime)
		if *m.Round == 1 && m.Status == bracket.MatchCompleted {
			byes++
		}
	}
	assert.Equal(t, 3, byes)

	assert.ErrorIs(t, env.tournamentService.StartTournament(ctx, id.String()), ErrRegistrationClosed)
}

func TestStartTournament_Rules(t *testing.T) {
	env := newTestEnv(t)
	ctx := ownerCtx()

	lonely, err := env.tournamentService.CreateTournament(ctx, CreateTournamentInput{Name: "Lonely", TeamNames: []string{"Solo"}})
	require.NoError(t, err)
	assert.ErrorIs(t, env.tournamentService.StartTournament(ctx, lonely.String()), ErrNotEnoughTeams)

	other, err := env.tournamentService.CreateTournament(ctx, CreateTournamentInput{Name: "Other", TeamNames: teamNames(2)})
	require.NoError(t, err)
	stranger := middleware.WithUserID(context.Background(), uuid.New())
	assert.ErrorIs(t, env.tournamentService.StartTournament(stranger, other.String()), ErrForbidden)
	assert.ErrorIs(t, env.tournamentService.StartTournament(context.Background(), other.String()), ErrForbidden)

	assert.ErrorIs(t, env.tournamentService.StartTournament(ctx, uuid.NewString()), ErrTournamentNotFound)
}

func TestGetBracketView(t *testing.T) {
	env := newTestEnv(t)
	id := startedTournament(t, env, 4)

	view, err := env.tournamentService.GetBracketView(context.Background(), id.String(), bracket.RoundFromField)
	require.NoError(t, err)

	require.Len(t, view.Rounds, 2)
	assert.Equal(t, "Semi-Finals", view.Rounds[0].Name)
	assert.Equal(t, "Finals", view.Rounds[1].Name)
	assert.Len(t, view.Rounds[0].Matches, 2)
	assert.Len(t, view.Registered, 4)
	assert.Zero(t, view.Unplaced)
	assert.Equal(t, "field", view.Strategy)

	final := view.Rounds[1].Matches[0]
	assert.Equal(t, bracket.PlaceholderTBD, final.Team1Name)
	assert.True(t, final.IsPending)

	_, err = env.tournamentService.GetBracketView(context.Background(), uuid.NewString(), bracket.RoundFromField)
	assert.ErrorIs(t, err, ErrTournamentNotFound)
}

func TestGetBracketView_ReportsUnplaceableMatches(t *testing.T) {
	env := newTestEnv(t)
	id := startedTournament(t, env, 2)

	_, err := env.db.Exec("INSERT INTO matches (tournament_id, status) VALUES (?, 'scheduled')", id.String())
	require.NoError(t, err)

	view, err := env.tournamentService.GetBracketView(context.Background(), id.String(), bracket.RoundFromField)
	require.NoError(t, err)
	assert.Equal(t, 1, view.Unplaced)
	require.Len(t, view.Rounds, 1)
	assert.Len(t, view.Rounds[0].Matches, 1)
}

func TestGetBracketView_Concurrent(t *testing.T) {
	env := newTestEnv(t)
	id := startedTournament(t, env, 8)

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			view, err := env.tournamentService.GetBracketView(context.Background(), id.String(), bracket.RoundFromField)
			if err == nil && len(view.Rounds) != 3 {
				err = fmt.Errorf("expected 3 rounds, got %d", len(view.Rounds))
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
}

func TestGetBracketView_CancelledCallerLeavesOthersAlone(t *testing.T) {
	env := newTestEnv(t)
	id := startedTournament(t, env, 4)

	// Holding the only connection keeps the shared load waiting
	tx, err := env.db.Beginx()
	require.NoError(t, err)

	cancelledCtx, cancel := context.WithCancel(context.Background())
	cancelledErr := make(chan error, 1)
	go func() {
		_, err := env.tournamentService.GetBracketView(cancelledCtx, id.String(), bracket.RoundFromField)
		cancelledErr <- err
	}()

	type result struct {
		view *BracketView
		err  error
	}
	healthy := make(chan result, 1)
	go func() {
		view, err := env.tournamentService.GetBracketView(context.Background(), id.String(), bracket.RoundFromField)
		healthy <- result{view, err}
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-cancelledErr, context.Canceled)

	require.NoError(t, tx.Rollback())
	res := <-healthy
	require.NoError(t, res.err)
	assert.Len(t, res.view.Rounds, 2)
}

func TestListTournamentsForUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := ownerCtx()

	_, err := env.tournamentService.CreateTournament(ctx, CreateTournamentInput{Name: "Mine", Game: "Dota 2"})
	require.NoError(t, err)
	stranger := middleware.WithUserID(context.Background(), uuid.New())
	_, err = env.tournamentService.CreateTournament(stranger, CreateTournamentInput{Name: "Theirs", Game: "CS2"})
	require.NoError(t, err)

	mine, err := env.tournamentService.GetTournamentsForUser(ctx)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "Mine", mine[0].Name)

	_, err = env.tournamentService.GetTournamentsForUser(context.Background())
	assert.Error(t, err)

	games, err := env.tournamentService.ListGames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"CS2", "Dota 2"}, games)

	filtered, err := env.tournamentService.ListTournaments(ctx, " CS2 ")
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "Theirs", filtered[0].Name)
}
