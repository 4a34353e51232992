package bracket

import (
	"math"
	"time"

	"github.com/AdamBeresnev/esports-bracket/internal/utils"
	"github.com/google/uuid"
)

// Gets the nearest power of 2 while rounding up, so with input 5 it returns 8 and so on
func BracketSize(count int) int {
	if count <= 1 {
		return 0
	}

	// Log2 -> Ceil -> 2^^log2 to round up
	log2 := math.Ceil(math.Log2(float64(count)))
	return int(math.Pow(2, log2))
}

// Round1Pairs returns the 0-based seed pairs for the opening round so the top
// seeds can only meet late: 1v8, 4v5, 2v7, 3v6 for an 8 slot bracket.
func Round1Pairs(bracketSize int) [][2]int {
	if bracketSize == 0 {
		return [][2]int{}
	}

	rounds := []int{0}
	for len(rounds) < bracketSize {
		var nextRound []int
		currentCount := len(rounds) * 2

		for _, seed := range rounds {
			nextRound = append(nextRound, seed)
			nextRound = append(nextRound, (currentCount-1)-seed)
		}
		rounds = nextRound
	}

	pairs := make([][2]int, 0, bracketSize/2)
	for i := 0; i < len(rounds); i += 2 {
		pairs = append(pairs, [2]int{rounds[i], rounds[i+1]})
	}

	return pairs
}

// Schedule controls when generated rounds are played.
type Schedule struct {
	StartsAt     time.Time
	RoundSpacing time.Duration
}

// GenerateSingleElim lays out a full single elimination bracket for teams in
// seed order. Every match carries an explicit round and a 1-based match number
// inside its round. Byes are completed up front and their team is advanced.
func GenerateSingleElim(tournamentID uuid.UUID, seeded []Team, sched Schedule) []Match {
	bracketSize := BracketSize(len(seeded))
	if bracketSize == 0 {
		return nil
	}
	totalRounds := int(math.Log2(float64(bracketSize)))

	var matches []Match
	index := make(map[[2]int]int)

	for r := 1; r <= totalRounds; r++ {
		matchesInRound := bracketSize >> r
		when := sched.StartsAt.Add(time.Duration(r-1) * sched.RoundSpacing)
		for n := 1; n <= matchesInRound; n++ {
			index[[2]int{r, n}] = len(matches)
			matches = append(matches, Match{
				TournamentID:  tournamentID,
				Round:         utils.Ptr(r),
				MatchNumber:   utils.Ptr(n),
				Status:        MatchScheduled,
				ScheduledTime: utils.Ptr(when),
			})
		}
	}

	for i, pair := range Round1Pairs(bracketSize) {
		m := &matches[index[[2]int{1, i + 1}]]
		if pair[0] < len(seeded) {
			m.Team1ID = utils.Ptr(seeded[pair[0]].ID)
		}
		if pair[1] < len(seeded) {
			m.Team2ID = utils.Ptr(seeded[pair[1]].ID)
		}

		var byeWinner *int64
		switch {
		case m.Team1ID != nil && m.Team2ID == nil:
			byeWinner = m.Team1ID
		case m.Team1ID == nil && m.Team2ID != nil:
			byeWinner = m.Team2ID
		}
		if byeWinner == nil {
			continue
		}

		m.WinnerID = byeWinner
		m.Status = MatchCompleted

		nr, nn, slot := NextPosition(1, i+1)
		if j, ok := index[[2]int{nr, nn}]; ok {
			next := &matches[j]
			if slot == 1 {
				next.Team1ID = byeWinner
			} else {
				next.Team2ID = byeWinner
			}
		}
	}

	return matches
}
