package rank

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTopNWithOthersFoldsRemainder(t *testing.T) {
	counts := map[string]int{"A": 10, "B": 7, "C": 5, "D": 1}

	got := TopNWithOthers(counts, 2, "OTHERS")

	assert.Equal(t, []Entry{
		{Label: "A", Count: 10},
		{Label: "B", Count: 7},
		{Label: "OTHERS", Count: 6},
	}, got)
}

func TestTopNWithOthersNoFoldWhenAllFit(t *testing.T) {
	counts := map[string]int{"A": 3, "B": 2}

	got := TopNWithOthers(counts, 5, "OTHERS")

	assert.Equal(t, []Entry{
		{Label: "A", Count: 3},
		{Label: "B", Count: 2},
	}, got)
}

func TestTopNWithOthersTiesBreakOnLabel(t *testing.T) {
	counts := map[string]int{"ZULU": 4, "ALFA": 4, "MIKE": 4}

	got := TopNWithOthers(counts, 2, "OTHERS")

	// Equal counts rank ascending by label, so ALFA and MIKE survive.
	assert.Equal(t, []Entry{
		{Label: "ALFA", Count: 4},
		{Label: "MIKE", Count: 4},
		{Label: "OTHERS", Count: 4},
	}, got)
}

func TestTopNWithOthersZeroN(t *testing.T) {
	counts := map[string]int{"A": 1, "B": 2}

	got := TopNWithOthers(counts, 0, "OTHERS")

	assert.Equal(t, []Entry{{Label: "OTHERS", Count: 3}}, got)
}

func TestTopNWithOthersEmptyInput(t *testing.T) {
	assert.Empty(t, TopNWithOthers(nil, 3, "OTHERS"))
}
