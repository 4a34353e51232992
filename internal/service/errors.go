package service

import "errors"

var (
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrMatchNotFound      = errors.New("match not found")
	ErrTeamNotFound       = errors.New("team not found")

	ErrForbidden          = errors.New("operation not allowed for the current user")
	ErrRegistrationClosed = errors.New("tournament registration is closed")
	ErrTournamentFull     = errors.New("tournament is full")
	ErrAlreadyRegistered  = errors.New("team is already registered for this tournament")
	ErrNotEnoughTeams     = errors.New("at least two teams are needed to start a tournament")
	ErrTeamNameTaken      = errors.New("team name is already in use")
	ErrNameRequired       = errors.New("name is required")

	ErrInvalidTransition = errors.New("invalid match status transition")
	ErrWinnerNotInMatch  = errors.New("winner is not part of this match")
	ErrMatchNotReady     = errors.New("match is still waiting for a team")
	ErrInvalidScore      = errors.New("scores must be non-negative")

	ErrUploadsDisabled = errors.New("logo uploads are not configured")
)
