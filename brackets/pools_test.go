package brackets

import (
	"context"
	"testing"

	"github.com/openrally/matchplay/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededTeams(n int) []*models.Team {
	teams := make([]*models.Team, n)
	for i := range teams {
		teams[i] = &models.Team{ID: i + 1, Player1ID: 100 + i}
	}
	return teams
}

func poolDivision(numPools int) *models.Division {
	return &models.Division{
		ID: 1,
		Format: models.DivisionFormat{
			StageMode:     models.StageModeTwoStage,
			NumberOfPools: numPools,
		},
	}
}

func TestSplitPoolsSnakePattern(t *testing.T) {
	pools := SplitPools(seededTeams(16), 4)

	// Seeds 1,2,3,4 deal left to right, seeds 5..8 come back right to left.
	assert.Equal(t, []int{1, 8, 9, 16}, teamIDsOf(pools[0]))
	assert.Equal(t, []int{2, 7, 10, 15}, teamIDsOf(pools[1]))
	assert.Equal(t, []int{3, 6, 11, 14}, teamIDsOf(pools[2]))
	assert.Equal(t, []int{4, 5, 12, 13}, teamIDsOf(pools[3]))
}

func TestSplitPoolsUnevenCountsDifferByAtMostOne(t *testing.T) {
	pools := SplitPools(seededTeams(18), 4)

	total := 0
	min, max := len(pools[0]), len(pools[0])
	seen := map[int]bool{}
	for _, pool := range pools {
		total += len(pool)
		if len(pool) < min {
			min = len(pool)
		}
		if len(pool) > max {
			max = len(pool)
		}
		for _, team := range pool {
			assert.False(t, seen[team.ID], "team %d assigned twice", team.ID)
			seen[team.ID] = true
		}
	}
	assert.Equal(t, 18, total)
	assert.LessOrEqual(t, max-min, 1)
}

func TestPoolLabel(t *testing.T) {
	assert.Equal(t, "A", PoolLabel(0))
	assert.Equal(t, "B", PoolLabel(1))
	assert.Equal(t, "Z", PoolLabel(25))
	assert.Equal(t, "AA", PoolLabel(26))
	assert.Equal(t, "AB", PoolLabel(27))
}

func TestPoolStageGeneratesFullRoundRobinPerPool(t *testing.T) {
	gen := NewPoolStageGenerator()
	res, err := gen.Generate(context.Background(), GenerateParams{
		Division: poolDivision(2),
		Seeded:   seededTeams(9), // pools of 5 and 4
	})
	require.NoError(t, err)
	require.Empty(t, res.Byes)

	// 5*4/2 + 4*3/2 matches.
	assert.Len(t, res.Matches, 16)

	perStage := map[string]int{}
	for _, m := range res.Matches {
		perStage[m.Stage]++
		assert.Equal(t, 1, m.Round)
		assert.Equal(t, 0, m.BracketRounds)
		assert.True(t, m.Side1.Resolved())
		assert.True(t, m.Side2.Resolved())
	}
	assert.Equal(t, map[string]int{"Pool A": 10, "Pool B": 6}, perStage)
}

func TestPoolStageUIDsUniqueWithinDivision(t *testing.T) {
	gen := NewPoolStageGenerator()
	res, err := gen.Generate(context.Background(), GenerateParams{
		Division: poolDivision(2),
		Seeded:   seededTeams(8),
	})
	require.NoError(t, err)

	uids := map[string]bool{}
	for _, m := range res.Matches {
		assert.False(t, uids[m.UID], "duplicate uid %s", m.UID)
		uids[m.UID] = true
	}
}

func TestPoolStageRejectsOddPoolCount(t *testing.T) {
	gen := NewPoolStageGenerator()
	_, err := gen.Generate(context.Background(), GenerateParams{
		Division: poolDivision(3),
		Seeded:   seededTeams(12),
	})
	assert.ErrorIs(t, err, ErrPoolCountInvalid)
}

func TestPoolStageRejectsUndersizedPool(t *testing.T) {
	gen := NewPoolStageGenerator()
	_, err := gen.Generate(context.Background(), GenerateParams{
		Division: poolDivision(2),
		Seeded:   seededTeams(7), // second pool would have 3
	})
	assert.ErrorIs(t, err, ErrPoolTooSmall)
}

func teamIDsOf(teams []*models.Team) []int {
	ids := make([]int, len(teams))
	for i, t := range teams {
		ids[i] = t.ID
	}
	return ids
}
