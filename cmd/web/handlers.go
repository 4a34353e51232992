package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/AdamBeresnev/esports-bracket/internal/bracket"
	"github.com/AdamBeresnev/esports-bracket/internal/httputil"
	"github.com/AdamBeresnev/esports-bracket/internal/middleware"
	"github.com/AdamBeresnev/esports-bracket/internal/service"
	"github.com/AdamBeresnev/esports-bracket/views"
	"github.com/go-chi/chi/v5"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
)

const (
	maxTournamentName = 100
	maxTeamName       = 50
	maxLogoSize       = 2 << 20
	teamNamePrefix    = "team_name_"
)

func (app *application) index(w http.ResponseWriter, r *http.Request) {
	game := r.URL.Query().Get("game")
	tournaments, err := app.tournaments.ListTournaments(r.Context(), game)
	if err != nil {
		httputil.InternalServerError(w, "Failed to list tournaments", err)
		return
	}

	var mine []bracket.Tournament
	if _, ok := middleware.GetUserIDFromContext(r.Context()); ok {
		mine, err = app.tournaments.GetTournamentsForUser(r.Context())
		if err != nil {
			httputil.InternalServerError(w, "Failed to get tournaments", err)
			return
		}
	}

	views.Render(w, r, views.Index(tournaments, mine, game))
}

func (app *application) games(w http.ResponseWriter, r *http.Request) {
	games, err := app.tournaments.ListGames(r.Context())
	if err != nil {
		httputil.InternalServerError(w, "Failed to list games", err)
		return
	}
	views.Render(w, r, views.Games(games))
}

func (app *application) leaderboard(w http.ResponseWriter, r *http.Request) {
	standings, err := app.tournaments.GetLeaderboard(r.Context())
	if err != nil {
		httputil.InternalServerError(w, "Failed to build leaderboard", err)
		return
	}
	views.Render(w, r, views.Leaderboard(standings))
}

func (app *application) listTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := app.teams.ListTeams(r.Context())
	if err != nil {
		httputil.InternalServerError(w, "Failed to list teams", err)
		return
	}
	_, loggedIn := middleware.GetUserIDFromContext(r.Context())
	views.Render(w, r, views.Teams(teams, loggedIn))
}

func (app *application) showTeam(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(w, r, "id", "Invalid team ID")
	if !ok {
		return
	}

	team, err := app.teams.GetTeam(r.Context(), id)
	if err != nil {
		serviceError(w, "Failed to get team", err)
		return
	}

	standings, err := app.tournaments.GetLeaderboard(r.Context())
	if err != nil {
		httputil.InternalServerError(w, "Failed to build leaderboard", err)
		return
	}
	var standing *bracket.Standing
	for i := range standings {
		if standings[i].Team.ID == team.ID {
			standing = &standings[i]
			break
		}
	}

	userID, loggedIn := middleware.GetUserIDFromContext(r.Context())
	canEdit := loggedIn && team.CaptainID != nil && *team.CaptainID == userID
	views.Render(w, r, views.Team(team, standing, canEdit, app.uploadsEnabled))
}

func (app *application) showTournament(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	strategy := bracket.ParseRoundStrategy(r.URL.Query().Get("strategy"))

	view, err := app.tournaments.GetBracketView(r.Context(), id, strategy)
	if err != nil {
		serviceError(w, "Failed to get tournament", err)
		return
	}

	data := views.PrepareBracketData(view, r.URL.Query())
	userID, loggedIn := middleware.GetUserIDFromContext(r.Context())
	if view.Tournament.Status == bracket.TournamentRegistration {
		data.CanManage = loggedIn && userID == view.Tournament.OwnerID
		if loggedIn {
			teams, err := app.teams.ListTeams(r.Context())
			if err != nil {
				httputil.InternalServerError(w, "Failed to list teams", err)
				return
			}
			data.Registerable = views.Registerable(view.Tournament, teams, view.Registered, userID)
		}
	}

	views.Render(w, r, views.TournamentView(data))
}

func (app *application) showStandings(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	data, err := app.tournaments.GetTournamentData(r.Context(), id)
	if err != nil {
		serviceError(w, "Failed to get tournament", err)
		return
	}
	standings, err := app.tournaments.GetStandings(r.Context(), id)
	if err != nil {
		serviceError(w, "Failed to get standings", err)
		return
	}
	views.Render(w, r, views.Standings(data.Tournament, standings))
}

func (app *application) showMatch(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(w, r, "id", "Invalid match ID")
	if !ok {
		return
	}

	data, err := app.matches.GetMatchViewData(r.Context(), id)
	if err != nil {
		serviceError(w, "Failed to get match data", err)
		return
	}
	views.Render(w, r, views.MatchView(data, r.Host))
}

// teamRow appends another team name input to the create tournament form.
func (app *application) teamRow(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httputil.BadRequest(w, "Invalid form data", err)
		return
	}

	newIndex := 0
	if indices := teamIndices(r.Form); len(indices) > 0 {
		newIndex = indices[len(indices)-1] + 1
	}
	views.Render(w, r, views.TeamRow(newIndex))
}

func (app *application) createTournamentPage(w http.ResponseWriter, r *http.Request) {
	views.Render(w, r, views.CreateTournamentPage())
}

func (app *application) createTournament(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httputil.BadRequest(w, "Invalid form data", err)
		return
	}

	input := service.CreateTournamentInput{
		Name: strings.TrimSpace(r.Form.Get("name")),
		Game: strings.TrimSpace(r.Form.Get("game")),
	}
	if len(input.Name) > maxTournamentName {
		httputil.BadRequest(w, fmt.Sprintf("Tournament name exceeds %d characters", maxTournamentName), nil)
		return
	}

	if v := r.Form.Get("max_players"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			httputil.BadRequest(w, "Invalid max teams", err)
			return
		}
		input.MaxPlayers = n
	}
	if v := r.Form.Get("starts_at"); v != "" {
		startsAt, err := time.ParseInLocation("2006-01-02T15:04", v, time.UTC)
		if err != nil {
			httputil.BadRequest(w, "Invalid start time", err)
			return
		}
		input.StartsAt = startsAt
	}

	for _, index := range teamIndices(r.Form) {
		name := strings.TrimSpace(r.Form.Get(teamNamePrefix + strconv.Itoa(index)))
		if len(name) > maxTeamName {
			httputil.BadRequest(w, fmt.Sprintf("Team name '%s' exceeds %d characters", name, maxTeamName), nil)
			return
		}
		if name != "" {
			input.TeamNames = append(input.TeamNames, name)
		}
	}

	id, err := app.tournaments.CreateTournament(r.Context(), input)
	if err != nil {
		serviceError(w, "Failed to create tournament", err)
		return
	}
	redirect(w, r, "/tournaments/"+id.String())
}

// teamIndices returns the sorted indices of the team_name_N form fields.
func teamIndices(form map[string][]string) []int {
	var indices []int
	for key := range form {
		if rest, ok := strings.CutPrefix(key, teamNamePrefix); ok {
			if index, err := strconv.Atoi(rest); err == nil && index >= 0 {
				indices = append(indices, index)
			}
		}
	}
	sort.Ints(indices)
	return indices
}

func (app *application) registerTeam(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := r.ParseForm(); err != nil {
		httputil.BadRequest(w, "Invalid form data", err)
		return
	}
	teamID, err := strconv.ParseInt(r.Form.Get("team_id"), 10, 64)
	if err != nil {
		httputil.BadRequest(w, "Invalid team ID", err)
		return
	}

	if err := app.tournaments.RegisterTeam(r.Context(), id, teamID); err != nil {
		serviceError(w, "Failed to register team", err)
		return
	}
	redirect(w, r, "/tournaments/"+id)
}

func (app *application) startTournament(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := app.tournaments.StartTournament(r.Context(), id); err != nil {
		serviceError(w, "Failed to start tournament", err)
		return
	}
	redirect(w, r, "/tournaments/"+id)
}

func (app *application) createTeam(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httputil.BadRequest(w, "Invalid form data", err)
		return
	}
	name := r.Form.Get("name")
	if len(strings.TrimSpace(name)) > maxTeamName {
		httputil.BadRequest(w, fmt.Sprintf("Team name exceeds %d characters", maxTeamName), nil)
		return
	}

	team, err := app.teams.CreateTeam(r.Context(), service.CreateTeamInput{Name: name, Tag: r.Form.Get("tag")})
	if err != nil {
		serviceError(w, "Failed to create team", err)
		return
	}
	redirect(w, r, fmt.Sprintf("/teams/%d", team.ID))
}

func (app *application) uploadLogo(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(w, r, "id", "Invalid team ID")
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxLogoSize+1024)
	if err := r.ParseMultipartForm(maxLogoSize); err != nil {
		httputil.BadRequest(w, "Logo is too large or the form is invalid", err)
		return
	}
	file, header, err := r.FormFile("logo")
	if err != nil {
		httputil.BadRequest(w, "Missing logo file", err)
		return
	}
	defer file.Close()

	if _, err := app.teams.UploadLogo(r.Context(), id, header.Header.Get("Content-Type"), file); err != nil {
		serviceError(w, "Failed to upload logo", err)
		return
	}
	redirect(w, r, fmt.Sprintf("/teams/%d", id))
}

func (app *application) startMatch(w http.ResponseWriter, r *http.Request) {
	app.matchAction(w, r, "Failed to start match", app.matches.StartMatch)
}

func (app *application) cancelMatch(w http.ResponseWriter, r *http.Request) {
	app.matchAction(w, r, "Failed to cancel match", app.matches.CancelMatch)
}

func (app *application) setStream(w http.ResponseWriter, r *http.Request) {
	app.matchAction(w, r, "Failed to save stream link", func(ctx context.Context, id int64) (*bracket.Match, error) {
		return app.matches.SetStreamURL(ctx, id, r.FormValue("stream_url"))
	})
}

func (app *application) reportResult(w http.ResponseWriter, r *http.Request) {
	app.matchAction(w, r, "Failed to report result", func(ctx context.Context, id int64) (*bracket.Match, error) {
		team1Score, err1 := strconv.Atoi(r.FormValue("team1_score"))
		team2Score, err2 := strconv.Atoi(r.FormValue("team2_score"))
		winnerID, err3 := strconv.ParseInt(r.FormValue("winner_id"), 10, 64)
		if err := errors.Join(err1, err2, err3); err != nil {
			return nil, fmt.Errorf("%w: %v", service.ErrInvalidScore, err)
		}
		return app.matches.ReportResult(ctx, id, team1Score, team2Score, winnerID)
	})
}

func (app *application) matchAction(w http.ResponseWriter, r *http.Request, msg string, action func(context.Context, int64) (*bracket.Match, error)) {
	id, ok := int64Param(w, r, "id", "Invalid match ID")
	if !ok {
		return
	}
	if _, err := action(r.Context(), id); err != nil {
		serviceError(w, msg, err)
		return
	}
	redirect(w, r, fmt.Sprintf("/matches/%d", id))
}

func (app *application) login(w http.ResponseWriter, r *http.Request) {
	var providers []string
	for name := range goth.GetProviders() {
		providers = append(providers, name)
	}
	sort.Strings(providers)
	views.Render(w, r, views.LoginPage(providers))
}

func (app *application) beginAuth(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	r = r.WithContext(context.WithValue(r.Context(), "provider", provider))

	gothic.BeginAuthHandler(w, r)
}

func (app *application) authCallback(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	r = r.WithContext(context.WithValue(r.Context(), "provider", provider))

	gothUser, err := gothic.CompleteUserAuth(w, r)
	if err != nil {
		httputil.BadRequest(w, "Authentication failure", err)
		return
	}

	user, err := app.users.FindOrCreateUserByProvider(r.Context(), gothUser)
	if err != nil {
		httputil.InternalServerError(w, "Failed to find or create user", err)
		return
	}

	if err := app.sessionManager.RenewToken(r.Context()); err != nil {
		httputil.InternalServerError(w, "Failed to renew session", err)
		return
	}
	app.sessionManager.Put(r.Context(), middleware.SessionUserKey, user.ID.String())

	http.Redirect(w, r, "/", http.StatusFound)
}

func (app *application) guestLogin(w http.ResponseWriter, r *http.Request) {
	user, err := app.users.EnsureGuestUser(r.Context())
	if err != nil {
		httputil.InternalServerError(w, "Failed to login as guest", err)
		return
	}

	if err := app.sessionManager.RenewToken(r.Context()); err != nil {
		httputil.InternalServerError(w, "Failed to renew session", err)
		return
	}
	app.sessionManager.Put(r.Context(), middleware.SessionUserKey, user.ID.String())
	http.Redirect(w, r, "/", http.StatusFound)
}

func (app *application) logout(w http.ResponseWriter, r *http.Request) {
	if err := app.sessionManager.Destroy(r.Context()); err != nil {
		httputil.InternalServerError(w, "Failed to log out", err)
		return
	}
	if r.Header.Get("HX-Request") != "" {
		w.Header().Set("HX-Redirect", "/login")
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, "/login", http.StatusFound)
}

func int64Param(w http.ResponseWriter, r *http.Request, name, msg string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil {
		httputil.BadRequest(w, msg, err)
		return 0, false
	}
	return id, true
}
