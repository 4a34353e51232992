package views

import (
	"bytes"
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/AdamBeresnev/esports-bracket/internal/bracket"
	"github.com/AdamBeresnev/esports-bracket/internal/service"
	users "github.com/AdamBeresnev/esports-bracket/internal/user"
	"github.com/AdamBeresnev/esports-bracket/internal/utils"
	"github.com/a-h/templ"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, ctx context.Context, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(ctx, &buf))
	return buf.String()
}

func sampleView() *service.BracketView {
	teams := []bracket.Team{
		{ID: 10, Name: "Alpha"},
		{ID: 11, Name: "Bravo"},
		{ID: 12, Name: "Charlie"},
		{ID: 13, Name: "Delta <script>"},
	}
	tid := uuid.New()
	matches := []bracket.Match{
		{ID: 1, TournamentID: tid, Round: utils.Ptr(1), MatchNumber: utils.Ptr(1), Team1ID: utils.Ptr(int64(10)), Team2ID: utils.Ptr(int64(11)), WinnerID: utils.Ptr(int64(10)), Status: bracket.MatchCompleted},
		{ID: 2, TournamentID: tid, Round: utils.Ptr(1), MatchNumber: utils.Ptr(2), Team1ID: utils.Ptr(int64(12)), Team2ID: utils.Ptr(int64(13)), Status: bracket.MatchInProgress},
		{ID: 3, TournamentID: tid, Round: utils.Ptr(2), MatchNumber: utils.Ptr(1), Team1ID: utils.Ptr(int64(10)), Status: bracket.MatchScheduled},
	}
	return &service.BracketView{
		Tournament: &bracket.Tournament{ID: tid, Name: "Spring Cup", Game: "CS2", Status: bracket.TournamentStarted, MaxPlayers: 4, StartsAt: time.Date(2026, 6, 1, 18, 0, 0, 0, time.UTC)},
		Rounds:     bracket.BuildRounds(matches, teams),
		Registered: teams,
		Strategy:   bracket.RoundFromField.String(),
	}
}

func TestPrepareBracketData_DefaultsToActiveRound(t *testing.T) {
	data := PrepareBracketData(sampleView(), url.Values{})

	assert.Equal(t, bracket.Selection{Round: 1, View: bracket.ViewHorizontal}, data.Selection)
	require.Len(t, data.RoundLinks, 2)
	assert.True(t, data.RoundLinks[0].Selected)
	assert.Equal(t, "Semi-Finals", data.RoundLinks[0].Name)
	assert.Equal(t, "?round=2&view=horizontal", data.RoundLinks[1].Href)
	assert.Empty(t, data.PrevHref)
	assert.Equal(t, "?round=2&view=horizontal", data.NextHref)
	assert.Equal(t, "?round=1&view=vertical", data.ToggleHref)
	assert.Len(t, data.Visible, 2)
}

func TestPrepareBracketData_VerticalShowsSelectedRound(t *testing.T) {
	data := PrepareBracketData(sampleView(), url.Values{"round": {"9"}, "view": {"vertical"}})

	assert.Equal(t, 2, data.Selection.Round)
	require.Len(t, data.Visible, 1)
	assert.Equal(t, "Finals", data.Visible[0].Name)
	assert.Equal(t, "?round=1&view=vertical", data.PrevHref)
	assert.Empty(t, data.NextHref)
}

func TestPrepareBracketData_KeepsLegacyStrategy(t *testing.T) {
	view := sampleView()
	view.Strategy = bracket.RoundFromPosition.String()

	data := PrepareBracketData(view, url.Values{})
	assert.Equal(t, "?round=1&strategy=position&view=vertical", data.ToggleHref)
}

func TestPrepareBracketData_Empty(t *testing.T) {
	view := sampleView()
	view.Rounds = nil

	data := PrepareBracketData(view, url.Values{"round": {"3"}})
	assert.Zero(t, data.Selection.Round)
	assert.Empty(t, data.RoundLinks)
	assert.Empty(t, data.Visible)
}

func TestTournamentView(t *testing.T) {
	data := PrepareBracketData(sampleView(), url.Values{})
	out := render(t, context.Background(), TournamentView(data))

	assert.Contains(t, out, "Spring Cup")
	assert.Contains(t, out, "Semi-Finals")
	assert.Contains(t, out, "Finals")
	assert.Contains(t, out, bracket.PlaceholderTBD)
	assert.Contains(t, out, "LIVE")
	assert.Contains(t, out, `data-next-round="2"`)
	assert.Contains(t, out, "Delta &lt;script&gt;")
	assert.NotContains(t, out, "Delta <script>")
	assert.Contains(t, out, `data-ws-url="/ws/tournaments/`+data.View.Tournament.ID.String()+`"`)
}

func TestTournamentView_Unavailable(t *testing.T) {
	view := sampleView()
	view.Rounds = nil
	view.Tournament.Status = bracket.TournamentRegistration

	out := render(t, context.Background(), TournamentView(PrepareBracketData(view, url.Values{})))
	assert.Contains(t, out, "bracket-unavailable")
	assert.Contains(t, out, "drawn once the tournament starts")
	assert.NotContains(t, out, `class="rounds"`)
}

func TestRegisterable(t *testing.T) {
	owner, captain := uuid.New(), uuid.New()
	tournament := &bracket.Tournament{OwnerID: owner}
	all := []bracket.Team{
		{ID: 1, Name: "A", CaptainID: &captain},
		{ID: 2, Name: "B", CaptainID: &captain},
		{ID: 3, Name: "C"},
	}
	registered := []bracket.Team{{ID: 2}}

	got := Registerable(tournament, all, registered, owner)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, int64(3), got[1].ID)

	got = Registerable(tournament, all, registered, captain)
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].ID)

	assert.Empty(t, Registerable(tournament, all, registered, uuid.New()))
}

func TestLayoutShowsUser(t *testing.T) {
	ctx := context.WithValue(context.Background(), users.UserKey, &users.User{Username: "player<1>"})
	out := render(t, ctx, Games([]string{"Dota 2"}))

	assert.Contains(t, out, "player&lt;1&gt;")
	assert.Contains(t, out, "Log out")
	assert.Contains(t, out, `href="/?game=Dota`)

	out = render(t, context.Background(), Games(nil))
	assert.Contains(t, out, "Log in")
}

func TestLayoutWrapsPage(t *testing.T) {
	out := render(t, context.Background(), Leaderboard(nil))

	assert.True(t, strings.HasPrefix(out, "<!doctype html>"))
	assert.Contains(t, out, "<title>Leaderboard | Esports Bracket</title>")
	body, _, found := strings.Cut(out[strings.Index(out, "<main>"):], "</main>")
	require.True(t, found)
	assert.Contains(t, body, "<h1>Leaderboard</h1>")
	assert.Contains(t, body, "No matches have been decided yet.")
}

func TestMatchView(t *testing.T) {
	view := sampleView()
	live := view.Rounds[0].Matches[1]
	live.StreamURL = utils.Ptr("https://twitch.tv/esl")

	data := &service.MatchData{Tournament: view.Tournament, Match: live, RoundName: "Semi-Finals", CanManage: true}
	out := render(t, context.Background(), MatchView(data, "bracket.example.com"))

	assert.Contains(t, out, "Charlie")
	assert.Contains(t, out, "player.twitch.tv/?channel=esl&amp;parent=bracket.example.com")
	assert.Contains(t, out, "Report result")
	assert.Contains(t, out, "Cancel match")
	assert.NotContains(t, out, "Start match")

	data.CanManage = false
	out = render(t, context.Background(), MatchView(data, "bracket.example.com"))
	assert.NotContains(t, out, "Manage match")
}

func TestTeamRow(t *testing.T) {
	out := render(t, context.Background(), TeamRow(3))
	assert.Contains(t, out, `name="team_name_3"`)
	assert.Contains(t, out, "Seed 4")
}
