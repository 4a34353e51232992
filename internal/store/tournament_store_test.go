package store

import (
	"context"
	"testing"
	"time"

	"github.com/AdamBeresnev/esports-bracket/internal/bracket"
	"github.com/AdamBeresnev/esports-bracket/internal/db"
	"github.com/AdamBeresnev/esports-bracket/internal/utils"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSuperUserID = "00000000-0000-0000-0000-000000000001"

// setupTestDB creates an in-memory SQLite database and applies migrations
func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := db.InitMemoryDB()
	require.NoError(t, err, "Failed to set up in-memory DB")
	t.Cleanup(func() { database.Close() })

	return database
}

func createTestTournament(t *testing.T, database *sqlx.DB, store *TournamentStore, game string) *bracket.Tournament {
	t.Helper()

	tournament := &bracket.Tournament{
		ID:         uuid.New(),
		OwnerID:    uuid.MustParse(testSuperUserID),
		Name:       "Test Tournament",
		Game:       game,
		Status:     bracket.TournamentRegistration,
		MaxPlayers: 8,
		StartsAt:   time.Now().UTC().Truncate(time.Second),
	}

	tx, err := database.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	require.NoError(t, store.CreateTournament(context.Background(), tx, tournament))
	require.NoError(t, tx.Commit())

	return tournament
}

func createTestTeams(t *testing.T, teams *TeamStore, names ...string) []bracket.Team {
	t.Helper()

	var out []bracket.Team
	for _, name := range names {
		team := bracket.Team{Name: name}
		require.NoError(t, teams.CreateTeam(context.Background(), &team))
		require.NotZero(t, team.ID)
		out = append(out, team)
	}
	return out
}

func TestCreateTournament(t *testing.T) {
	database := setupTestDB(t)
	store := NewTournamentStore(database)

	tournament := createTestTournament(t, database, store, "Valorant")

	fetched, err := store.GetTournament(context.Background(), tournament.ID.String())
	require.NoError(t, err)

	assert.Equal(t, tournament.ID, fetched.ID)
	assert.Equal(t, tournament.OwnerID, fetched.OwnerID)
	assert.Equal(t, tournament.Name, fetched.Name)
	assert.Equal(t, "Valorant", fetched.Game)
	assert.Equal(t, tournament.Status, fetched.Status)
	assert.Equal(t, 8, fetched.MaxPlayers)
	assert.WithinDuration(t, tournament.StartsAt, fetched.StartsAt, time.Second)
	assert.WithinDuration(t, time.Now().UTC(), fetched.CreatedAt, time.Minute)
}

func TestListTournamentsAndGames(t *testing.T) {
	database := setupTestDB(t)
	store := NewTournamentStore(database)
	ctx := context.Background()

	createTestTournament(t, database, store, "Valorant")
	createTestTournament(t, database, store, "Dota 2")
	createTestTournament(t, database, store, "Valorant")

	all, err := store.ListTournaments(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	valorant, err := store.ListTournaments(ctx, "Valorant")
	require.NoError(t, err)
	assert.Len(t, valorant, 2)

	games, err := store.ListGames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Dota 2", "Valorant"}, games)
}

func TestRegistrations(t *testing.T) {
	database := setupTestDB(t)
	store := NewTournamentStore(database)
	teamStore := NewTeamStore(database)
	ctx := context.Background()

	tournament := createTestTournament(t, database, store, "CS2")
	teams := createTestTeams(t, teamStore, "Zeta", "Alpha")

	tx, err := database.BeginTxx(ctx, nil)
	require.NoError(t, err)
	for i, team := range teams {
		require.NoError(t, store.CreateRegistration(ctx, tx, &bracket.Registration{
			TournamentID: tournament.ID,
			TeamID:       team.ID,
			Seed:         i + 1,
		}))
	}
	count, err := store.CountRegistrationsTx(ctx, tx, tournament.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	registered, err := store.IsRegisteredTx(ctx, tx, tournament.ID.String(), teams[0].ID)
	require.NoError(t, err)
	assert.True(t, registered)
	require.NoError(t, tx.Commit())

	// Seed order, not name order
	seeded, err := store.GetRegisteredTeams(ctx, tournament.ID.String())
	require.NoError(t, err)
	require.Len(t, seeded, 2)
	assert.Equal(t, "Zeta", seeded[0].Name)
	assert.Equal(t, "Alpha", seeded[1].Name)

	bracketTeams, err := store.GetBracketTeams(ctx, tournament.ID.String())
	require.NoError(t, err)
	require.Len(t, bracketTeams, 2)
	assert.Equal(t, "Alpha", bracketTeams[0].Name)
}

func TestCreateMatches(t *testing.T) {
	database := setupTestDB(t)
	store := NewTournamentStore(database)
	teamStore := NewTeamStore(database)
	ctx := context.Background()

	tournament := createTestTournament(t, database, store, "CS2")
	teams := createTestTeams(t, teamStore, "Alpha", "Bravo")
	when := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	matches := []bracket.Match{
		{
			TournamentID:  tournament.ID,
			Round:         utils.Ptr(1),
			MatchNumber:   utils.Ptr(1),
			Team1ID:       &teams[0].ID,
			Team2ID:       &teams[1].ID,
			Status:        bracket.MatchScheduled,
			ScheduledTime: &when,
		},
		{
			TournamentID:      tournament.ID,
			Round:             utils.Ptr(2),
			MatchNumber:       utils.Ptr(1),
			Status:            bracket.MatchScheduled,
			Team1NameOverride: utils.Ptr("Winner of R1"),
		},
	}

	tx, err := database.BeginTxx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, store.CreateMatches(ctx, tx, matches))
	require.NoError(t, tx.Commit())

	fetched, err := store.GetMatches(ctx, tournament.ID.String())
	require.NoError(t, err)
	require.Len(t, fetched, 2)

	first := fetched[0]
	assert.NotZero(t, first.ID)
	assert.Equal(t, 1, *first.Round)
	assert.Equal(t, teams[0].ID, *first.Team1ID)
	assert.Equal(t, bracket.MatchScheduled, first.Status)
	require.NotNil(t, first.ScheduledTime)
	assert.True(t, when.Equal(*first.ScheduledTime))
	assert.Nil(t, first.Team1Score)
	assert.Nil(t, first.WinnerID)

	second := fetched[1]
	assert.Nil(t, second.Team1ID)
	assert.Equal(t, "Winner of R1", *second.Team1NameOverride)

	byPosition, err := func() (*bracket.Match, error) {
		tx, err := database.BeginTxx(ctx, nil)
		require.NoError(t, err)
		defer tx.Rollback()
		return store.GetMatchByPositionTx(ctx, tx, tournament.ID, 2, 1)
	}()
	require.NoError(t, err)
	assert.Equal(t, second.ID, byPosition.ID)
}

func TestUpdateMatch_CanonicalisesLegacyStatus(t *testing.T) {
	database := setupTestDB(t)
	store := NewTournamentStore(database)
	ctx := context.Background()

	tournament := createTestTournament(t, database, store, "CS2")
	_, err := database.ExecContext(ctx, "INSERT INTO matches (tournament_id, round, match_number, status) VALUES (?, 1, 1, 'live')", tournament.ID)
	require.NoError(t, err)

	matches, err := store.GetMatches(ctx, tournament.ID.String())
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, bracket.MatchInProgress, matches[0].Status)

	m := matches[0]
	m.Team1Score = utils.Ptr(13)
	m.Team2Score = utils.Ptr(7)
	tx, err := database.BeginTxx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, store.UpdateMatch(ctx, tx, &m))
	require.NoError(t, tx.Commit())

	var raw string
	require.NoError(t, database.GetContext(ctx, &raw, "SELECT status FROM matches WHERE id = ?", m.ID))
	assert.Equal(t, "in_progress", raw)

	updated, err := store.GetMatch(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, 13, *updated.Team1Score)
}
