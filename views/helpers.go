package views

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/AdamBeresnev/esports-bracket/internal/bracket"
	"github.com/AdamBeresnev/esports-bracket/internal/middleware"
	users "github.com/AdamBeresnev/esports-bracket/internal/user"
)

func GetUser(ctx context.Context) *users.User {
	return middleware.GetAuthenticatedUser(ctx)
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "TBD"
	}
	return t.UTC().Format("Jan 2, 15:04 MST")
}

func score(s *int) string {
	if s == nil {
		return "-"
	}
	return strconv.Itoa(*s)
}

func statusLabel(s bracket.MatchStatus) string {
	switch s.Normalize() {
	case bracket.MatchInProgress:
		return "Live"
	case bracket.MatchCompleted:
		return "Completed"
	case bracket.MatchCancelled:
		return "Cancelled"
	}
	return "Scheduled"
}

func tournamentStatusLabel(s bracket.TournamentStatus) string {
	switch s {
	case bracket.TournamentStarted:
		return "In progress"
	case bracket.TournamentCompleted:
		return "Finished"
	}
	return "Registration open"
}

func tournamentURL(t bracket.Tournament) string {
	return "/tournaments/" + t.ID.String()
}

func matchURL(id int64) string {
	return fmt.Sprintf("/matches/%d", id)
}

func teamURL(id int64) string {
	return fmt.Sprintf("/teams/%d", id)
}

func slotsLabel(registered, max int) string {
	if max <= 0 {
		return strconv.Itoa(registered)
	}
	return fmt.Sprintf("%d/%d", registered, max)
}

func indexTitle(game string) string {
	if game == "" {
		return "Tournaments"
	}
	return game + " tournaments"
}

func toggleLabel(v bracket.ViewMode) string {
	if v == bracket.ViewVertical {
		return "Full bracket"
	}
	return "Vertical view"
}

func streamValue(u *string) string {
	if u == nil {
		return ""
	}
	return *u
}

func score0(s *int) string {
	if s == nil {
		return "0"
	}
	return strconv.Itoa(*s)
}

func providerLabel(p string) string {
	switch p {
	case "discord":
		return "Discord"
	case "google":
		return "Google"
	}
	return p
}
