package brackets

import (
	"context"
	"testing"

	"github.com/openrally/matchplay/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextPowerOfTwo(t *testing.T) {
	cases := map[int]int{1: 1, 2: 2, 3: 4, 4: 4, 5: 8, 8: 8, 9: 16, 16: 16, 17: 32}
	for n, want := range cases {
		assert.Equal(t, want, NextPowerOfTwo(n), "n=%d", n)
	}
}

func TestSeedOrderCanonicalPlacement(t *testing.T) {
	assert.Equal(t, []int{1, 2}, SeedOrder(2))
	assert.Equal(t, []int{1, 4, 2, 3}, SeedOrder(4))
	assert.Equal(t, []int{1, 8, 4, 5, 2, 7, 3, 6}, SeedOrder(8))
}

func TestSeedOrderKeepsTopSeedsInOppositeHalves(t *testing.T) {
	for _, size := range []int{4, 8, 16, 32} {
		order := SeedOrder(size)
		half := size / 2
		pos := map[int]int{}
		for i, s := range order {
			pos[s] = i
		}
		// Seeds 1 and 2 can only meet in the final.
		assert.True(t, pos[1] < half != (pos[2] < half), "size %d", size)
	}
}

func TestGenerateFullBracketNoByes(t *testing.T) {
	gen := NewSingleEliminationGenerator("Main Bracket", false)
	res, err := gen.Generate(context.Background(), GenerateParams{Seeded: seededTeams(8)})
	require.NoError(t, err)

	assert.Empty(t, res.Byes)
	require.Len(t, res.Matches, 4)

	first := res.Matches[0]
	assert.Equal(t, "R1M1", first.UID)
	assert.Equal(t, 3, first.BracketRounds)
	assert.Equal(t, 1, *first.Side1.TeamID)
	assert.Equal(t, 8, *first.Side2.TeamID)

	// Seed 2 opens the bottom half of the draw.
	third := res.Matches[2]
	assert.Equal(t, "R1M3", third.UID)
	assert.Equal(t, 2, *third.Side1.TeamID)
	assert.Equal(t, 7, *third.Side2.TeamID)
}

func TestGenerateWithByesSkipsTopSeedMatches(t *testing.T) {
	gen := NewSingleEliminationGenerator("Main Bracket", false)
	res, err := gen.Generate(context.Background(), GenerateParams{Seeded: seededTeams(6)})
	require.NoError(t, err)

	// Size 8 draw: seeds 7 and 8 do not exist, so seeds 1 and 2 advance.
	require.Len(t, res.Byes, 2)
	require.Len(t, res.Matches, 2)

	byeTeams := []int{res.Byes[0].TeamID, res.Byes[1].TeamID}
	assert.ElementsMatch(t, []int{1, 2}, byeTeams)

	for _, bye := range res.Byes {
		assert.Equal(t, 2, bye.Shell.Round)
		assert.Equal(t, "Main Bracket", bye.Shell.Stage)
		assert.Equal(t, 3, bye.Shell.BracketRounds)
	}
}

func TestGenerateTwoTeamsSingleFinal(t *testing.T) {
	gen := NewSingleEliminationGenerator("Main Bracket", false)
	res, err := gen.Generate(context.Background(), GenerateParams{Seeded: seededTeams(2)})
	require.NoError(t, err)

	require.Len(t, res.Matches, 1)
	assert.Empty(t, res.Byes)
	assert.Equal(t, "R1M1", res.Matches[0].UID)
	assert.Equal(t, 1, res.Matches[0].BracketRounds)
}

func TestGenerateRejectsFewerThanTwoTeams(t *testing.T) {
	gen := NewSingleEliminationGenerator("Main Bracket", false)
	_, err := gen.Generate(context.Background(), GenerateParams{Seeded: seededTeams(1)})
	assert.ErrorIs(t, err, ErrNotEnoughTeams)
}

func TestGenerateBronzeMatchReferencesSemifinalLosers(t *testing.T) {
	gen := NewSingleEliminationGenerator("Main Bracket", true)
	res, err := gen.Generate(context.Background(), GenerateParams{Seeded: seededTeams(8)})
	require.NoError(t, err)

	var bronze *GeneratedMatch
	for _, m := range res.Matches {
		if m.UID == BronzeUID {
			bronze = m
		}
	}
	require.NotNil(t, bronze)

	assert.Equal(t, models.FinalStageRound, bronze.Round)
	assert.False(t, bronze.Side1.Resolved())
	assert.False(t, bronze.Side2.Resolved())
	assert.Equal(t, "R2M1", *bronze.Side1.SourceUID)
	assert.Equal(t, "R2M2", *bronze.Side2.SourceUID)
	assert.True(t, bronze.Side1.TakeLoser)
	assert.True(t, bronze.Side2.TakeLoser)
}

func TestGenerateNoBronzeForTwoTeamBracket(t *testing.T) {
	gen := NewSingleEliminationGenerator("Main Bracket", true)
	res, err := gen.Generate(context.Background(), GenerateParams{Seeded: seededTeams(2)})
	require.NoError(t, err)

	// A two-team bracket has no semifinals, so no third place to play for.
	require.Len(t, res.Matches, 1)
	assert.Equal(t, "R1M1", res.Matches[0].UID)
}
