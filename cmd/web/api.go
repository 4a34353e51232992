package main

import (
	"net/http"

	"github.com/AdamBeresnev/esports-bracket/internal/bracket"
	"github.com/AdamBeresnev/esports-bracket/internal/httputil"
	"github.com/AdamBeresnev/esports-bracket/internal/service"
	"github.com/go-chi/chi/v5"
)

type bracketResponse struct {
	*service.BracketView
	ActiveRound int `json:"activeRound"`
}

func (app *application) apiMatches(w http.ResponseWriter, r *http.Request) {
	data, err := app.tournaments.GetTournamentData(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		apiError(w, "Failed to get matches", err)
		return
	}

	matches := data.Matches
	if matches == nil {
		matches = []bracket.Match{}
	}
	httputil.WriteJSON(w, http.StatusOK, matches)
}

func (app *application) apiBracket(w http.ResponseWriter, r *http.Request) {
	strategy := bracket.ParseRoundStrategy(r.URL.Query().Get("strategy"))
	view, err := app.tournaments.GetBracketView(r.Context(), chi.URLParam(r, "id"), strategy)
	if err != nil {
		apiError(w, "Failed to get bracket", err)
		return
	}

	// ActiveRound is only meaningful with at least one round
	resp := bracketResponse{BracketView: view}
	if len(view.Rounds) > 0 {
		resp.ActiveRound = bracket.FindActiveRound(view.Rounds)
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (app *application) apiStandings(w http.ResponseWriter, r *http.Request) {
	standings, err := app.tournaments.GetStandings(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		apiError(w, "Failed to get standings", err)
		return
	}
	if standings == nil {
		standings = []bracket.Standing{}
	}
	httputil.WriteJSON(w, http.StatusOK, standings)
}

func (app *application) apiTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := app.teams.ListTeams(r.Context())
	if err != nil {
		apiError(w, "Failed to list teams", err)
		return
	}
	if teams == nil {
		teams = []bracket.Team{}
	}
	httputil.WriteJSON(w, http.StatusOK, teams)
}
