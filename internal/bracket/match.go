package bracket

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type MatchStatus string

const (
	MatchScheduled  MatchStatus = "scheduled"
	MatchInProgress MatchStatus = "in_progress"
	MatchCompleted  MatchStatus = "completed"
	MatchCancelled  MatchStatus = "cancelled"

	// Older clients and imports still send "live" for a running match
	matchLiveLegacy MatchStatus = "live"
)

// ParseMatchStatus canonicalises a raw status string, folding the legacy
// "live" value into MatchInProgress.
func ParseMatchStatus(raw string) (MatchStatus, error) {
	s := MatchStatus(strings.ToLower(strings.TrimSpace(raw)))
	switch s {
	case MatchScheduled, MatchInProgress, MatchCompleted, MatchCancelled:
		return s, nil
	case matchLiveLegacy:
		return MatchInProgress, nil
	}
	return "", fmt.Errorf("unknown match status %q", raw)
}

// Normalize returns the canonical form of s, leaving unknown values untouched.
func (s MatchStatus) Normalize() MatchStatus {
	if s == matchLiveLegacy {
		return MatchInProgress
	}
	return s
}

func (s MatchStatus) IsTerminal() bool {
	s = s.Normalize()
	return s == MatchCompleted || s == MatchCancelled
}

// CanTransition reports whether a match may move from one status to another.
// scheduled -> in_progress -> completed, and cancelled from either live state.
func CanTransition(from, to MatchStatus) bool {
	from, to = from.Normalize(), to.Normalize()
	switch from {
	case MatchScheduled:
		return to == MatchInProgress || to == MatchCancelled
	case MatchInProgress:
		return to == MatchCompleted || to == MatchCancelled
	}
	return false
}

// Scan implements sql.Scanner so rows written by older versions come back canonical.
func (s *MatchStatus) Scan(src any) error {
	switch v := src.(type) {
	case string:
		*s = MatchStatus(v).Normalize()
	case []byte:
		*s = MatchStatus(string(v)).Normalize()
	case nil:
		*s = MatchScheduled
	default:
		return fmt.Errorf("cannot scan %T into MatchStatus", src)
	}
	return nil
}

func (s MatchStatus) Value() (driver.Value, error) {
	return string(s.Normalize()), nil
}

type Match struct {
	ID           int64     `db:"id" json:"id"`
	TournamentID uuid.UUID `db:"tournament_id" json:"tournamentId"`

	// Round is the explicit grouping key; MatchNumber orders matches inside it
	Round       *int `db:"round" json:"round"`
	MatchNumber *int `db:"match_number" json:"matchNumber"`

	Team1ID *int64 `db:"team1_id" json:"team1Id"`
	Team2ID *int64 `db:"team2_id" json:"team2Id"`

	Team1Score *int        `db:"team1_score" json:"team1Score"`
	Team2Score *int        `db:"team2_score" json:"team2Score"`
	WinnerID   *int64      `db:"winner_id" json:"winnerId"`
	Status     MatchStatus `db:"status" json:"status"`

	ScheduledTime *time.Time `db:"scheduled_time" json:"scheduledTime"`

	// Display overrides that win over the looked-up team name
	Team1NameOverride *string `db:"team1_name_override" json:"team1NameOverride,omitempty"`
	Team2NameOverride *string `db:"team2_name_override" json:"team2NameOverride,omitempty"`

	StreamURL *string   `db:"stream_url" json:"streamUrl,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// HasTeam reports whether teamID occupies either slot.
func (m *Match) HasTeam(teamID int64) bool {
	return (m.Team1ID != nil && *m.Team1ID == teamID) || (m.Team2ID != nil && *m.Team2ID == teamID)
}

func (m *Match) IsWinner(slot int) bool {
	if m.WinnerID == nil {
		return false
	}
	switch slot {
	case 1:
		return m.Team1ID != nil && *m.Team1ID == *m.WinnerID
	case 2:
		return m.Team2ID != nil && *m.Team2ID == *m.WinnerID
	}
	return false
}

// Loser returns the id of the team that did not win, if both are known.
func (m *Match) Loser() *int64 {
	if m.WinnerID == nil || m.Team1ID == nil || m.Team2ID == nil {
		return nil
	}
	if *m.Team1ID == *m.WinnerID {
		return m.Team2ID
	}
	return m.Team1ID
}
