package bracket

import (
	"net/url"
	"strconv"
)

type ViewMode string

const (
	ViewHorizontal ViewMode = "horizontal"
	ViewVertical   ViewMode = "vertical"
)

// Selection is the viewer-owned state of a bracket page. The builder never
// reads it.
type Selection struct {
	Round int
	View  ViewMode
}

type ActionKind int

const (
	ActionSelectRound ActionKind = iota
	ActionNextRound
	ActionPrevRound
	ActionToggleView
	ActionResetToActive
)

type Action struct {
	Kind   ActionKind
	Round  int
	Rounds []Round
}

func SelectRound(n int) Action { return Action{Kind: ActionSelectRound, Round: n} }
func NextRound() Action        { return Action{Kind: ActionNextRound} }
func PrevRound() Action        { return Action{Kind: ActionPrevRound} }
func ToggleView() Action       { return Action{Kind: ActionToggleView} }

func ResetToActive(rounds []Round) Action {
	return Action{Kind: ActionResetToActive, Rounds: rounds}
}

// Reduce applies a to sel. The selected round is always clamped to
// [1, totalRounds], or 0 when the bracket has no rounds.
func Reduce(sel Selection, a Action, totalRounds int) Selection {
	if sel.View == "" {
		sel.View = ViewHorizontal
	}

	switch a.Kind {
	case ActionSelectRound:
		sel.Round = a.Round
	case ActionNextRound:
		sel.Round++
	case ActionPrevRound:
		sel.Round--
	case ActionToggleView:
		if sel.View == ViewHorizontal {
			sel.View = ViewVertical
		} else {
			sel.View = ViewHorizontal
		}
	case ActionResetToActive:
		totalRounds = len(a.Rounds)
		sel.Round = FindActiveRound(a.Rounds)
	}

	sel.Round = clampRound(sel.Round, totalRounds)
	return sel
}

// ParseSelection reads ?round= and ?view= from a query string. A missing or
// invalid round resets to the active round.
func ParseSelection(q url.Values, rounds []Round) Selection {
	sel := Selection{View: ViewHorizontal}
	if ViewMode(q.Get("view")) == ViewVertical {
		sel.View = ViewVertical
	}

	if n, err := strconv.Atoi(q.Get("round")); err == nil && n >= 1 {
		return Reduce(sel, SelectRound(n), len(rounds))
	}
	return Reduce(sel, ResetToActive(rounds), len(rounds))
}

func clampRound(n, totalRounds int) int {
	if totalRounds <= 0 {
		return 0
	}
	if n < 1 {
		return 1
	}
	if n > totalRounds {
		return totalRounds
	}
	return n
}
