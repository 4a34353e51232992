package views

import (
	"net/url"
	"strconv"

	"github.com/AdamBeresnev/esports-bracket/internal/bracket"
	"github.com/AdamBeresnev/esports-bracket/internal/service"
	"github.com/google/uuid"
)

type RoundLink struct {
	Number   int
	Name     string
	Href     string
	Selected bool
}

type BracketData struct {
	View      *service.BracketView
	Selection bracket.Selection

	RoundLinks []RoundLink
	PrevHref   string
	NextHref   string
	ToggleHref string

	// Rounds to draw: the whole bracket horizontally, the selected round vertically
	Visible []bracket.Round

	CanManage bool
	// Teams that may still be signed up, only filled while registration is open
	Registerable []bracket.Team
}

// PrepareBracketData resolves the viewer's selection from the query string and
// the links that move it.
func PrepareBracketData(view *service.BracketView, q url.Values) BracketData {
	rounds := view.Rounds
	total := len(rounds)
	sel := bracket.ParseSelection(q, rounds)

	data := BracketData{View: view, Selection: sel}
	if total == 0 {
		return data
	}

	link := func(s bracket.Selection) string {
		v := url.Values{}
		v.Set("round", strconv.Itoa(s.Round))
		v.Set("view", string(s.View))
		if view.Strategy != bracket.RoundFromField.String() {
			v.Set("strategy", view.Strategy)
		}
		return "?" + v.Encode()
	}

	for _, r := range rounds {
		data.RoundLinks = append(data.RoundLinks, RoundLink{
			Number:   r.Number,
			Name:     r.Name,
			Href:     link(bracket.Reduce(sel, bracket.SelectRound(r.Number), total)),
			Selected: r.Number == sel.Round,
		})
	}
	if sel.Round > 1 {
		data.PrevHref = link(bracket.Reduce(sel, bracket.PrevRound(), total))
	}
	if sel.Round < total {
		data.NextHref = link(bracket.Reduce(sel, bracket.NextRound(), total))
	}
	data.ToggleHref = link(bracket.Reduce(sel, bracket.ToggleView(), total))

	if sel.View == bracket.ViewVertical {
		data.Visible = rounds[sel.Round-1 : sel.Round]
	} else {
		data.Visible = rounds
	}
	return data
}

// Registerable lists the teams userID may still sign up for t.
func Registerable(t *bracket.Tournament, all, registered []bracket.Team, userID uuid.UUID) []bracket.Team {
	taken := make(map[int64]bool, len(registered))
	for _, team := range registered {
		taken[team.ID] = true
	}

	var out []bracket.Team
	for i := range all {
		if !taken[all[i].ID] && t.CanEnter(&all[i], userID) {
			out = append(out, all[i])
		}
	}
	return out
}
