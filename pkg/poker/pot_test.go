package poker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPotsSinglePot(t *testing.T) {
	contribs := map[string]int64{"a": 50, "b": 50, "c": 50}
	pots := BuildPots(contribs, nil, []string{"a", "b", "c"})

	require.Len(t, pots, 1)
	assert.Equal(t, int64(150), pots[0].Amount)
	assert.Equal(t, []string{"a", "b", "c"}, pots[0].Eligible)
}

func TestBuildPotsSidePots(t *testing.T) {
	// a is all-in short, b and c continue betting.
	contribs := map[string]int64{"a": 100, "b": 250, "c": 250}
	pots := BuildPots(contribs, nil, []string{"a", "b", "c"})

	require.Len(t, pots, 2)
	assert.Equal(t, int64(300), pots[0].Amount)
	assert.Equal(t, []string{"a", "b", "c"}, pots[0].Eligible)
	assert.Equal(t, int64(300), pots[1].Amount)
	assert.Equal(t, []string{"b", "c"}, pots[1].Eligible)
	assert.Equal(t, int64(600), PotTotal(pots))
}

func TestBuildPotsThreeLevels(t *testing.T) {
	contribs := map[string]int64{"a": 25, "b": 100, "c": 400, "d": 400}
	pots := BuildPots(contribs, nil, []string{"a", "b", "c", "d"})

	require.Len(t, pots, 3)
	assert.Equal(t, int64(100), pots[0].Amount) // 25 x 4
	assert.Equal(t, []string{"a", "b", "c", "d"}, pots[0].Eligible)
	assert.Equal(t, int64(225), pots[1].Amount) // 75 x 3
	assert.Equal(t, []string{"b", "c", "d"}, pots[1].Eligible)
	assert.Equal(t, int64(600), pots[2].Amount) // 300 x 2
	assert.Equal(t, []string{"c", "d"}, pots[2].Eligible)
}

func TestBuildPotsFoldedChipsStayIn(t *testing.T) {
	// d folded after committing 60: the chips stay in the pots but d is
	// never eligible.
	contribs := map[string]int64{"a": 100, "b": 100, "d": 60}
	folded := map[string]bool{"d": true}
	pots := BuildPots(contribs, folded, []string{"a", "b", "d"})

	assert.Equal(t, int64(260), PotTotal(pots))
	for _, p := range pots {
		assert.NotContains(t, p.Eligible, "d")
	}
}

func TestBuildPotsTopLevelSingleEligible(t *testing.T) {
	// b's final bet was never called in full: the overage forms a pot
	// only b can win, which returns it to b at resolution.
	contribs := map[string]int64{"a": 80, "b": 120}
	pots := BuildPots(contribs, nil, []string{"a", "b"})

	require.Len(t, pots, 2)
	assert.Equal(t, int64(160), pots[0].Amount)
	assert.Equal(t, int64(40), pots[1].Amount)
	assert.Equal(t, []string{"b"}, pots[1].Eligible)
}

func TestBuildPotsFoldedTopLevelMergesDown(t *testing.T) {
	// The only player at the top level folded; its chips merge into the
	// pot below so every pot stays winnable.
	contribs := map[string]int64{"a": 50, "b": 50, "c": 70}
	folded := map[string]bool{"c": true}
	pots := BuildPots(contribs, folded, []string{"a", "b", "c"})

	require.Len(t, pots, 1)
	assert.Equal(t, int64(170), pots[0].Amount)
	assert.Equal(t, []string{"a", "b"}, pots[0].Eligible)
}

func TestBuildPotsEmpty(t *testing.T) {
	assert.Nil(t, BuildPots(nil, nil, nil))
	assert.Nil(t, BuildPots(map[string]int64{"a": 0}, nil, []string{"a"}))
}
