package service

import (
	"context"
	"testing"

	"github.com/AdamBeresnev/esports-bracket/internal/bracket"
	"github.com/AdamBeresnev/esports-bracket/internal/middleware"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// matchAt finds a match by its round and in-round number.
func matchAt(t *testing.T, env *testEnv, tournamentID uuid.UUID, round, number int) bracket.Match {
	t.Helper()

	matches, err := env.tournaments.GetMatches(context.Background(), tournamentID.String())
	require.NoError(t, err)
	for _, m := range matches {
		if m.Round != nil && *m.Round == round && m.MatchNumber != nil && *m.MatchNumber == number {
			return m
		}
	}
	t.Fatalf("no match at round %d number %d", round, number)
	return bracket.Match{}
}

// playMatch starts a match and reports team1 as the winner.
func playMatch(t *testing.T, env *testEnv, m bracket.Match) *bracket.Match {
	t.Helper()
	ctx := ownerCtx()

	_, err := env.matchService.StartMatch(ctx, m.ID)
	require.NoError(t, err)
	done, err := env.matchService.ReportResult(ctx, m.ID, 2, 1, *m.Team1ID)
	require.NoError(t, err)
	return done
}

func TestReportResult_AdvancesWinner(t *testing.T) {
	env := newTestEnv(t)
	id := startedTournament(t, env, 4)
	ctx := ownerCtx()

	match1 := matchAt(t, env, id, 1, 1)
	match2 := matchAt(t, env, id, 1, 2)

	playMatch(t, env, match1)

	final := matchAt(t, env, id, 2, 1)
	require.NotNil(t, final.Team1ID)
	assert.Equal(t, *match1.Team1ID, *final.Team1ID)
	assert.Nil(t, final.Team2ID)

	updated1, err := env.tournaments.GetMatch(ctx, match1.ID)
	require.NoError(t, err)
	assert.Equal(t, bracket.MatchCompleted, updated1.Status)
	assert.Equal(t, 2, *updated1.Team1Score)
	assert.Equal(t, 1, *updated1.Team2Score)
	assert.Equal(t, *match1.Team1ID, *updated1.WinnerID)

	// Second semi-final feeds slot 2 of the final
	_, err = env.matchService.StartMatch(ctx, match2.ID)
	require.NoError(t, err)
	_, err = env.matchService.ReportResult(ctx, match2.ID, 0, 2, *match2.Team2ID)
	require.NoError(t, err)

	final = matchAt(t, env, id, 2, 1)
	require.NotNil(t, final.Team2ID)
	assert.Equal(t, *match2.Team2ID, *final.Team2ID)

	tournament, err := env.tournaments.GetTournament(ctx, id.String())
	require.NoError(t, err)
	assert.Equal(t, bracket.TournamentStarted, tournament.Status)

	playMatch(t, env, final)

	tournament, err = env.tournaments.GetTournament(ctx, id.String())
	require.NoError(t, err)
	assert.Equal(t, bracket.TournamentCompleted, tournament.Status)
}

func TestReportResult_ByeWinnerAlreadyPlaced(t *testing.T) {
	env := newTestEnv(t)
	// 3 teams: the top seed gets a bye straight into the final
	id := startedTournament(t, env, 3)

	final := matchAt(t, env, id, 2, 1)
	require.NotNil(t, final.Team1ID)
	assert.Nil(t, final.Team2ID)

	semi := matchAt(t, env, id, 1, 2)
	require.NotNil(t, semi.Team1ID)
	require.NotNil(t, semi.Team2ID)
	playMatch(t, env, semi)

	final = matchAt(t, env, id, 2, 1)
	require.NotNil(t, final.Team2ID)
	assert.Equal(t, *semi.Team1ID, *final.Team2ID)
}

func TestReportResult_RoundlessMatchDoesNotCompleteTournament(t *testing.T) {
	env := newTestEnv(t)
	id := startedTournament(t, env, 4)
	ctx := ownerCtx()

	semi := matchAt(t, env, id, 1, 1)
	res, err := env.db.Exec("INSERT INTO matches (tournament_id, team1_id, team2_id, status) VALUES (?, ?, ?, 'scheduled')",
		id.String(), *semi.Team1ID, *semi.Team2ID)
	require.NoError(t, err)
	showMatchID, err := res.LastInsertId()
	require.NoError(t, err)

	_, err = env.matchService.StartMatch(ctx, showMatchID)
	require.NoError(t, err)
	done, err := env.matchService.ReportResult(ctx, showMatchID, 1, 0, *semi.Team1ID)
	require.NoError(t, err)
	assert.Equal(t, bracket.MatchCompleted, done.Status)

	tournament, err := env.tournaments.GetTournament(ctx, id.String())
	require.NoError(t, err)
	assert.Equal(t, bracket.TournamentStarted, tournament.Status)

	final := matchAt(t, env, id, 2, 1)
	assert.Nil(t, final.Team1ID)
}

func TestReportResult_Rules(t *testing.T) {
	env := newTestEnv(t)
	id := startedTournament(t, env, 4)
	ctx := ownerCtx()

	match1 := matchAt(t, env, id, 1, 1)
	final := matchAt(t, env, id, 2, 1)

	t.Run("must be started first", func(t *testing.T) {
		_, err := env.matchService.ReportResult(ctx, match1.ID, 1, 0, *match1.Team1ID)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("negative score", func(t *testing.T) {
		_, err := env.matchService.ReportResult(ctx, match1.ID, -1, 0, *match1.Team1ID)
		assert.ErrorIs(t, err, ErrInvalidScore)
	})

	t.Run("winner must play in the match", func(t *testing.T) {
		other := matchAt(t, env, id, 1, 2)
		_, err := env.matchService.ReportResult(ctx, match1.ID, 1, 0, *other.Team1ID)
		assert.ErrorIs(t, err, ErrWinnerNotInMatch)
	})

	t.Run("final waits for both teams", func(t *testing.T) {
		_, err := env.matchService.StartMatch(ctx, final.ID)
		assert.ErrorIs(t, err, ErrMatchNotReady)
	})

	t.Run("only the owner manages matches", func(t *testing.T) {
		stranger := middleware.WithUserID(context.Background(), uuid.New())
		_, err := env.matchService.StartMatch(stranger, match1.ID)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("unknown match", func(t *testing.T) {
		_, err := env.matchService.StartMatch(ctx, 424242)
		assert.ErrorIs(t, err, ErrMatchNotFound)
	})

	t.Run("completed match cannot be reported again", func(t *testing.T) {
		playMatch(t, env, match1)
		_, err := env.matchService.ReportResult(ctx, match1.ID, 5, 0, *match1.Team1ID)
		assert.ErrorIs(t, err, ErrInvalidTransition)
		_, err = env.matchService.CancelMatch(ctx, match1.ID)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})
}

func TestCancelMatch(t *testing.T) {
	env := newTestEnv(t)
	id := startedTournament(t, env, 4)
	ctx := ownerCtx()

	m := matchAt(t, env, id, 1, 2)
	cancelled, err := env.matchService.CancelMatch(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, bracket.MatchCancelled, cancelled.Status)

	_, err = env.matchService.StartMatch(ctx, m.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestMatchUpdatesArePublished(t *testing.T) {
	env := newTestEnv(t)
	id := startedTournament(t, env, 4)

	m := matchAt(t, env, id, 1, 1)
	playMatch(t, env, m)

	// start, then the result and the final it fed
	assert.Equal(t, 3, env.notifier.count())
	last := env.notifier.updates[2]
	assert.Equal(t, 2, *last.Round)
	assert.Equal(t, *m.Team1ID, *last.Team1ID)
}

func TestSetStreamURL(t *testing.T) {
	env := newTestEnv(t)
	id := startedTournament(t, env, 2)
	ctx := ownerCtx()

	m := matchAt(t, env, id, 1, 1)
	updated, err := env.matchService.SetStreamURL(ctx, m.ID, " https://twitch.tv/esl ")
	require.NoError(t, err)
	require.NotNil(t, updated.StreamURL)
	assert.Equal(t, "https://twitch.tv/esl", *updated.StreamURL)

	updated, err = env.matchService.SetStreamURL(ctx, m.ID, "")
	require.NoError(t, err)
	assert.Nil(t, updated.StreamURL)
}

func TestGetMatchViewData(t *testing.T) {
	env := newTestEnv(t)
	id := startedTournament(t, env, 4)

	m := matchAt(t, env, id, 1, 1)

	data, err := env.matchService.GetMatchViewData(ownerCtx(), m.ID)
	require.NoError(t, err)
	assert.Equal(t, "Semi-Finals", data.RoundName)
	assert.True(t, data.CanManage)
	assert.Equal(t, "Team 1", data.Match.Team1Name)
	assert.Equal(t, "Team 4", data.Match.Team2Name)
	require.NotNil(t, data.Match.Next)
	assert.Equal(t, 2, data.Match.Next.Round)

	data, err = env.matchService.GetMatchViewData(context.Background(), m.ID)
	require.NoError(t, err)
	assert.False(t, data.CanManage)

	_, err = env.matchService.GetMatchViewData(context.Background(), 999)
	assert.ErrorIs(t, err, ErrMatchNotFound)
}
