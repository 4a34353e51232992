package main

import (
	"net/http"

	"github.com/AdamBeresnev/esports-bracket/internal/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func newRouter(app *application) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	// Serve static files
	fileServer := http.FileServer(http.Dir("./static"))
	r.Handle("/static/*", http.StripPrefix("/static/", fileServer))

	// Read only JSON for other front-ends; no session involved
	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: app.cfg.CORSOrigins,
			AllowedMethods: []string{"GET", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))

		r.Get("/tournaments/{id}/matches", app.apiMatches)
		r.Get("/tournaments/{id}/bracket", app.apiBracket)
		r.Get("/tournaments/{id}/standings", app.apiStandings)
		r.Get("/teams", app.apiTeams)
	})

	r.Get("/ws/tournaments/{id}", app.hub.ServeWs)

	r.Group(func(r chi.Router) {
		r.Use(app.sessionManager.LoadAndSave)
		r.Use(middleware.LoadAuthenticatedUser(app.sessionManager, app.userStore))

		r.Get("/", app.index)
		r.Get("/games", app.games)
		r.Get("/leaderboard", app.leaderboard)
		r.Get("/teams", app.listTeams)
		r.Get("/teams/{id}", app.showTeam)
		r.Get("/tournaments/{id}", app.showTournament)
		r.Get("/tournaments/{id}/standings", app.showStandings)
		r.Get("/matches/{id}", app.showMatch)

		r.Post("/tournaments/teams", app.teamRow)

		r.Get("/login", app.login)
		r.Get("/auth/{provider}", app.beginAuth)
		r.Get("/auth/{provider}/callback", app.authCallback)
		r.Post("/auth/guest", app.guestLogin)
		r.Post("/logout", app.logout)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)

			r.Get("/tournaments/create", app.createTournamentPage)
			r.Post("/tournaments", app.createTournament)
			r.Post("/tournaments/{id}/register", app.registerTeam)
			r.Post("/tournaments/{id}/start", app.startTournament)

			r.Post("/teams", app.createTeam)
			r.Post("/teams/{id}/logo", app.uploadLogo)

			r.Post("/matches/{id}/start", app.startMatch)
			r.Post("/matches/{id}/cancel", app.cancelMatch)
			r.Post("/matches/{id}/result", app.reportResult)
			r.Post("/matches/{id}/stream", app.setStream)
		})
	})

	return r
}
