package bracket

import (
	"fmt"
	"math/bits"
	"sort"
	"strings"
)

const (
	PlaceholderTBD     = "TBD"
	PlaceholderUnknown = "Unknown Team"
)

// RoundStrategy decides which round a match is grouped into.
type RoundStrategy int

const (
	// RoundFromField uses the stored round, falling back to the match number
	// position only for rows that have no round.
	RoundFromField RoundStrategy = iota
	// RoundFromPosition ignores the stored round and always derives it as
	// floor(log2(matchNumber)) + 1. Kept for brackets imported from the old
	// enhanced bracket view.
	RoundFromPosition
)

func ParseRoundStrategy(s string) RoundStrategy {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "position", "legacy":
		return RoundFromPosition
	}
	return RoundFromField
}

func (s RoundStrategy) String() string {
	if s == RoundFromPosition {
		return "position"
	}
	return "field"
}

// Connector points at the slot a match winner feeds in the following round.
type Connector struct {
	Round    int `json:"round"`
	Position int `json:"position"`
	Slot     int `json:"slot"`
}

type EnrichedMatch struct {
	Match

	Team1  *Team `json:"team1"`
	Team2  *Team `json:"team2"`
	Winner *Team `json:"winner"`

	Team1Name string `json:"team1Name"`
	Team2Name string `json:"team2Name"`
	Team1Logo string `json:"team1Logo,omitempty"`
	Team2Logo string `json:"team2Logo,omitempty"`

	IsLive      bool `json:"isLive"`
	IsCompleted bool `json:"isCompleted"`
	IsPending   bool `json:"isPending"`

	// Position is the 0-based bracket slot of the match inside its round
	Position int        `json:"position"`
	Next     *Connector `json:"next,omitempty"`
}

type Round struct {
	Number  int             `json:"number"`
	Name    string          `json:"name"`
	Matches []EnrichedMatch `json:"matches"`
}

// MaxRounds is the deepest round a stored match may claim. Matches beyond it
// are unplaceable.
const MaxRounds = 64

// BuildRounds groups matches into named rounds using the stored round field.
func BuildRounds(matches []Match, teams []Team) []Round {
	return BuildRoundsWith(matches, teams, RoundFromField)
}

// BuildRoundsWith groups matches into rounds 1..max(round), names them and
// enriches each match with its teams and display flags. It never mutates its
// inputs and never fails: unknown teams degrade to placeholders and matches
// with no round or match number are left out (see Unplaceable).
func BuildRoundsWith(matches []Match, teams []Team, strategy RoundStrategy) []Round {
	teamByID := make(map[int64]*Team, len(teams))
	for i := range teams {
		teamByID[teams[i].ID] = &teams[i]
	}

	grouped := make(map[int][]Match)
	totalRounds := 0
	for _, m := range matches {
		r, ok := roundKey(m, strategy)
		if !ok {
			continue
		}
		grouped[r] = append(grouped[r], m)
		if r > totalRounds {
			totalRounds = r
		}
	}

	rounds := make([]Round, 0, totalRounds)
	for i := 1; i <= totalRounds; i++ {
		group := grouped[i]
		sort.SliceStable(group, func(a, b int) bool {
			return lessByMatchNumber(group[a], group[b])
		})

		enriched := make([]EnrichedMatch, 0, len(group))
		for pos, m := range group {
			em := enrich(m, teamByID)
			em.Position = pos
			if i < totalRounds {
				em.Next = &Connector{Round: i + 1, Position: pos / 2, Slot: pos%2 + 1}
			}
			enriched = append(enriched, em)
		}

		rounds = append(rounds, Round{
			Number:  i,
			Name:    RoundName(i, totalRounds),
			Matches: enriched,
		})
	}
	return rounds
}

// RoundName labels round i of totalRounds. Only the last three rounds get
// named stages, everything earlier is "Round N".
func RoundName(i, totalRounds int) string {
	switch i {
	case totalRounds:
		return "Finals"
	case totalRounds - 1:
		return "Semi-Finals"
	case totalRounds - 2:
		return "Quarter-Finals"
	}
	return fmt.Sprintf("Round %d", i)
}

// FindActiveRound returns the 1-based round to show by default: the first
// round with a live match, else the first with a scheduled one, else the last.
// With no rounds it returns 1, so callers must check len(rounds) before indexing.
func FindActiveRound(rounds []Round) int {
	if len(rounds) == 0 {
		return 1
	}
	if i := firstRoundWith(rounds, MatchInProgress); i > 0 {
		return i
	}
	if i := firstRoundWith(rounds, MatchScheduled); i > 0 {
		return i
	}
	return len(rounds)
}

// Unplaceable returns the matches BuildRoundsWith leaves out for the strategy.
func Unplaceable(matches []Match, strategy RoundStrategy) []Match {
	var out []Match
	for _, m := range matches {
		if _, ok := roundKey(m, strategy); !ok {
			out = append(out, m)
		}
	}
	return out
}

// NextPosition returns where the winner of match n of round r plays next,
// for brackets numbered from 1 inside each round.
func NextPosition(round, matchNumber int) (nextRound, nextMatchNumber, slot int) {
	slot = 2
	if matchNumber%2 != 0 {
		slot = 1
	}
	return round + 1, (matchNumber + 1) / 2, slot
}

func firstRoundWith(rounds []Round, status MatchStatus) int {
	for i, r := range rounds {
		for _, m := range r.Matches {
			if m.Status.Normalize() == status {
				return i + 1
			}
		}
	}
	return 0
}

func roundKey(m Match, strategy RoundStrategy) (int, bool) {
	if strategy == RoundFromField && m.Round != nil && *m.Round > 0 {
		if *m.Round > MaxRounds {
			return 0, false
		}
		return *m.Round, true
	}
	if m.MatchNumber != nil && *m.MatchNumber > 0 {
		// floor(log2(n)) + 1
		return bits.Len(uint(*m.MatchNumber)), true
	}
	return 0, false
}

func lessByMatchNumber(a, b Match) bool {
	switch {
	case a.MatchNumber == nil && b.MatchNumber == nil:
		return a.ID < b.ID
	case a.MatchNumber == nil:
		return false
	case b.MatchNumber == nil:
		return true
	case *a.MatchNumber != *b.MatchNumber:
		return *a.MatchNumber < *b.MatchNumber
	}
	return a.ID < b.ID
}

// EnrichMatch enriches a single match outside of any round.
func EnrichMatch(m Match, teams []Team) EnrichedMatch {
	teamByID := make(map[int64]*Team, len(teams))
	for i := range teams {
		teamByID[teams[i].ID] = &teams[i]
	}
	return enrich(m, teamByID)
}

func enrich(m Match, teamByID map[int64]*Team) EnrichedMatch {
	em := EnrichedMatch{
		Match:       m,
		Team1:       lookupTeam(teamByID, m.Team1ID),
		Team2:       lookupTeam(teamByID, m.Team2ID),
		IsLive:      m.Status.Normalize() == MatchInProgress,
		IsCompleted: m.WinnerID != nil,
		IsPending:   m.Team1ID == nil || m.Team2ID == nil,
	}
	em.Status = m.Status.Normalize()
	em.Team1Name = displayName(m.Team1NameOverride, m.Team1ID, em.Team1)
	em.Team2Name = displayName(m.Team2NameOverride, m.Team2ID, em.Team2)
	if em.Team1 != nil && em.Team1.LogoURL != nil {
		em.Team1Logo = *em.Team1.LogoURL
	}
	if em.Team2 != nil && em.Team2.LogoURL != nil {
		em.Team2Logo = *em.Team2.LogoURL
	}
	if m.WinnerID != nil && m.HasTeam(*m.WinnerID) {
		em.Winner = lookupTeam(teamByID, m.WinnerID)
	}
	return em
}

func lookupTeam(teamByID map[int64]*Team, id *int64) *Team {
	if id == nil {
		return nil
	}
	t, ok := teamByID[*id]
	if !ok {
		return nil
	}
	cp := *t
	return &cp
}

func displayName(override *string, id *int64, team *Team) string {
	if override != nil && strings.TrimSpace(*override) != "" {
		return *override
	}
	if team != nil {
		return team.Name
	}
	if id != nil {
		return PlaceholderUnknown
	}
	return PlaceholderTBD
}
