package main

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/AdamBeresnev/esports-bracket/internal/config"
	"github.com/AdamBeresnev/esports-bracket/internal/httputil"
	"github.com/AdamBeresnev/esports-bracket/internal/live"
	"github.com/AdamBeresnev/esports-bracket/internal/service"
	"github.com/AdamBeresnev/esports-bracket/internal/storage"
	"github.com/AdamBeresnev/esports-bracket/internal/store"
	"github.com/alexedwards/scs/v2"
	"github.com/jmoiron/sqlx"
)

type application struct {
	cfg            *config.Config
	sessionManager *scs.SessionManager
	hub            *live.Hub
	userStore      *store.UserStore

	tournaments *service.TournamentService
	matches     *service.MatchService
	teams       *service.TeamService
	users       *service.UserService

	uploadsEnabled bool
}

func newApplication(cfg *config.Config, database *sqlx.DB, sessionManager *scs.SessionManager, hub *live.Hub, uploader storage.FileUploader) *application {
	tournamentStore := store.NewTournamentStore(database)
	teamStore := store.NewTeamStore(database)
	userStore := store.NewUserStore(database)

	return &application{
		cfg:            cfg,
		sessionManager: sessionManager,
		hub:            hub,
		userStore:      userStore,
		tournaments:    service.NewTournamentService(database, tournamentStore, teamStore, cfg.RoundSpacing),
		matches:        service.NewMatchService(database, tournamentStore, hub),
		teams:          service.NewTeamService(teamStore, uploader),
		users:          service.NewUserService(userStore),
		uploadsEnabled: uploader != nil,
	}
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrTournamentNotFound),
		errors.Is(err, service.ErrMatchNotFound),
		errors.Is(err, service.ErrTeamNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrAlreadyRegistered),
		errors.Is(err, service.ErrTeamNameTaken),
		errors.Is(err, service.ErrTournamentFull),
		errors.Is(err, service.ErrRegistrationClosed),
		errors.Is(err, service.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, service.ErrNotEnoughTeams),
		errors.Is(err, service.ErrWinnerNotInMatch),
		errors.Is(err, service.ErrMatchNotReady),
		errors.Is(err, service.ErrInvalidScore),
		errors.Is(err, service.ErrNameRequired),
		errors.Is(err, service.ErrUploadsDisabled):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// serviceError answers an HTML request with the status matching err.
func serviceError(w http.ResponseWriter, msg string, err error) {
	switch errorStatus(err) {
	case http.StatusNotFound:
		httputil.NotFound(w, err.Error(), err)
	case http.StatusForbidden:
		httputil.Forbidden(w, err.Error(), err)
	case http.StatusConflict:
		httputil.Conflict(w, err.Error(), err)
	case http.StatusBadRequest:
		httputil.BadRequest(w, err.Error(), err)
	default:
		httputil.InternalServerError(w, msg, err)
	}
}

// apiError is serviceError for the JSON API.
func apiError(w http.ResponseWriter, msg string, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		slog.Error(msg, "error", err)
		httputil.JSONError(w, status, "internal server error")
		return
	}
	httputil.JSONError(w, status, err.Error())
}

// redirect sends the browser to url, through HX-Redirect for htmx requests.
func redirect(w http.ResponseWriter, r *http.Request, url string) {
	if r.Header.Get("HX-Request") != "" {
		w.Header().Set("HX-Redirect", url)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}
