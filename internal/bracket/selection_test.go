package bracket

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func threeRounds() []Round {
	return BuildRounds([]Match{
		match(1, 1, 1, nil, nil, nil, MatchCompleted),
		match(2, 2, 1, nil, nil, nil, MatchScheduled),
		match(3, 3, 1, nil, nil, nil, MatchScheduled),
	}, nil)
}

func TestReduce(t *testing.T) {
	start := Selection{Round: 2, View: ViewHorizontal}

	testCases := []struct {
		name     string
		sel      Selection
		action   Action
		total    int
		expected Selection
	}{
		{name: "select", sel: start, action: SelectRound(3), total: 3, expected: Selection{Round: 3, View: ViewHorizontal}},
		{name: "select clamps high", sel: start, action: SelectRound(9), total: 3, expected: Selection{Round: 3, View: ViewHorizontal}},
		{name: "select clamps low", sel: start, action: SelectRound(-1), total: 3, expected: Selection{Round: 1, View: ViewHorizontal}},
		{name: "next", sel: start, action: NextRound(), total: 3, expected: Selection{Round: 3, View: ViewHorizontal}},
		{name: "next at end stays", sel: Selection{Round: 3, View: ViewVertical}, action: NextRound(), total: 3, expected: Selection{Round: 3, View: ViewVertical}},
		{name: "prev at start stays", sel: Selection{Round: 1}, action: PrevRound(), total: 3, expected: Selection{Round: 1, View: ViewHorizontal}},
		{name: "toggle", sel: start, action: ToggleView(), total: 3, expected: Selection{Round: 2, View: ViewVertical}},
		{name: "toggle back", sel: Selection{Round: 2, View: ViewVertical}, action: ToggleView(), total: 3, expected: Selection{Round: 2, View: ViewHorizontal}},
		{name: "no rounds", sel: start, action: NextRound(), total: 0, expected: Selection{Round: 0, View: ViewHorizontal}},
		{name: "reset to active", sel: Selection{Round: 3}, action: ResetToActive(threeRounds()), total: 3, expected: Selection{Round: 2, View: ViewHorizontal}},
		{name: "reset with empty bracket", sel: Selection{Round: 3}, action: ResetToActive(nil), total: 3, expected: Selection{Round: 0, View: ViewHorizontal}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Reduce(tc.sel, tc.action, tc.total))
		})
	}
}

func TestParseSelection(t *testing.T) {
	rounds := threeRounds()

	sel := ParseSelection(url.Values{}, rounds)
	assert.Equal(t, Selection{Round: 2, View: ViewHorizontal}, sel)

	sel = ParseSelection(url.Values{"round": {"3"}, "view": {"vertical"}}, rounds)
	assert.Equal(t, Selection{Round: 3, View: ViewVertical}, sel)

	sel = ParseSelection(url.Values{"round": {"abc"}, "view": {"diagonal"}}, rounds)
	assert.Equal(t, Selection{Round: 2, View: ViewHorizontal}, sel)

	sel = ParseSelection(url.Values{"round": {"2"}}, nil)
	assert.Equal(t, 0, sel.Round)
}
