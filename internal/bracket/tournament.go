package bracket

import (
	"time"

	"github.com/google/uuid"
)

type TournamentStatus string

const (
	TournamentRegistration TournamentStatus = "registration"
	TournamentStarted      TournamentStatus = "started"
	TournamentCompleted    TournamentStatus = "completed"
)

type Tournament struct {
	ID         uuid.UUID        `db:"id" json:"id"`
	OwnerID    uuid.UUID        `db:"owner_id" json:"ownerId"`
	Name       string           `db:"name" json:"name"`
	Game       string           `db:"game" json:"game"`
	Status     TournamentStatus `db:"status" json:"status"`
	MaxPlayers int              `db:"max_players" json:"maxPlayers"`
	StartsAt   time.Time        `db:"starts_at" json:"startsAt"`
	CreatedAt  time.Time        `db:"created_at" json:"createdAt"`
}

func (t *Tournament) IsFull(registered int) bool {
	return t.MaxPlayers > 0 && registered >= t.MaxPlayers
}

// CanEnter reports whether userID may sign team up: the organiser may enter
// any team, everyone else only teams they captain.
func (t *Tournament) CanEnter(team *Team, userID uuid.UUID) bool {
	if userID == uuid.Nil {
		return false
	}
	if userID == t.OwnerID {
		return true
	}
	return team.CaptainID != nil && *team.CaptainID == userID
}

type Team struct {
	ID        int64      `db:"id" json:"id"`
	Name      string     `db:"name" json:"name"`
	Tag       *string    `db:"tag" json:"tag,omitempty"`
	LogoURL   *string    `db:"logo_url" json:"logoUrl,omitempty"`
	CaptainID *uuid.UUID `db:"captain_id" json:"captainId,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
}

// Registration links a team to a tournament with its seed.
type Registration struct {
	TournamentID uuid.UUID `db:"tournament_id"`
	TeamID       int64     `db:"team_id"`
	Seed         int       `db:"seed"`
	CreatedAt    time.Time `db:"created_at"`
}
