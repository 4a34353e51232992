package bracket

import "sort"

type Standing struct {
	Team        Team `json:"team"`
	Wins        int  `json:"wins"`
	Losses      int  `json:"losses"`
	MapsWon     int  `json:"mapsWon"`
	MapsLost    int  `json:"mapsLost"`
	MatchesLive int  `json:"matchesLive"`
}

func (s Standing) Played() int {
	return s.Wins + s.Losses
}

// Standings tallies decided matches per team. Byes count as a win for the
// advancing team but no loss for anybody.
func Standings(matches []Match, teams []Team) []Standing {
	byID := make(map[int64]*Standing, len(teams))
	order := make([]int64, 0, len(teams))
	for _, t := range teams {
		if _, ok := byID[t.ID]; ok {
			continue
		}
		byID[t.ID] = &Standing{Team: t}
		order = append(order, t.ID)
	}

	for _, m := range matches {
		if m.Status.Normalize() == MatchInProgress {
			for _, id := range []*int64{m.Team1ID, m.Team2ID} {
				if id != nil && byID[*id] != nil {
					byID[*id].MatchesLive++
				}
			}
		}
		if m.WinnerID == nil || !m.HasTeam(*m.WinnerID) {
			continue
		}
		if w := byID[*m.WinnerID]; w != nil {
			w.Wins++
		}
		if loser := m.Loser(); loser != nil {
			if l := byID[*loser]; l != nil {
				l.Losses++
			}
		}
		if m.Team1Score != nil && m.Team2Score != nil {
			tally(byID, m.Team1ID, *m.Team1Score, *m.Team2Score)
			tally(byID, m.Team2ID, *m.Team2Score, *m.Team1Score)
		}
	}

	out := make([]Standing, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Wins != out[j].Wins {
			return out[i].Wins > out[j].Wins
		}
		if out[i].Losses != out[j].Losses {
			return out[i].Losses < out[j].Losses
		}
		return out[i].Team.Name < out[j].Team.Name
	})
	return out
}

func tally(byID map[int64]*Standing, id *int64, won, lost int) {
	if id == nil {
		return
	}
	if s := byID[*id]; s != nil {
		s.MapsWon += won
		s.MapsLost += lost
	}
}
