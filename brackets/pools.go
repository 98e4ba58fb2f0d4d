package brackets

import (
	"context"
	"errors"
	"fmt"

	"github.com/openrally/matchplay/models"
)

// Configuration errors surfaced before any match is created.
var (
	ErrPoolCountInvalid = errors.New("number of pools must be an even number of at least 2")
	ErrPoolTooSmall     = errors.New("every pool needs at least 4 teams")
)

const minPoolSize = 4

// PoolStageGenerator partitions seeded entrants into pools with a snake
// draft and emits a full round robin inside each pool.
type PoolStageGenerator struct{}

func NewPoolStageGenerator() Generator {
	return &PoolStageGenerator{}
}

func (g *PoolStageGenerator) Name() string {
	return "PoolStage"
}

// PoolLabel is the single-letter (base-26) label of a pool index: A, B, …,
// Z, AA, AB, …
func PoolLabel(index int) string {
	label := ""
	for {
		label = string(rune('A'+index%26)) + label
		index = index/26 - 1
		if index < 0 {
			return label
		}
	}
}

// SplitPools deals the seeded entrants into numPools pools in a snake
// (boustrophedon) pattern: every other "row" of N entrants reverses
// direction, so pool strength stays balanced (1,2,3,4 | 8,7,6,5 | 9,10,…).
func SplitPools(seeded []*models.Team, numPools int) [][]*models.Team {
	pools := make([][]*models.Team, numPools)
	for i, team := range seeded {
		row := i / numPools
		var pool int
		if row%2 == 0 {
			pool = i % numPools
		} else {
			pool = numPools - 1 - i%numPools
		}
		pools[pool] = append(pools[pool], team)
	}
	return pools
}

func (g *PoolStageGenerator) Generate(ctx context.Context, params GenerateParams) (*Result, error) {
	numPools := params.Division.Format.NumberOfPools
	if numPools < 2 || numPools%2 != 0 {
		return nil, fmt.Errorf("%w (got %d)", ErrPoolCountInvalid, numPools)
	}

	pools := SplitPools(params.Seeded, numPools)
	for i, pool := range pools {
		if len(pool) < minPoolSize {
			return nil, fmt.Errorf("%w: pool %s has %d", ErrPoolTooSmall, PoolLabel(i), len(pool))
		}
	}

	matches := make([]*GeneratedMatch, 0)
	for p, pool := range pools {
		label := PoolLabel(p)
		stage := "Pool " + label
		order := 0
		// Every unordered pair exactly once: k·(k-1)/2 matches per pool.
		for i := 0; i < len(pool); i++ {
			for j := i + 1; j < len(pool); j++ {
				order++
				matches = append(matches, &GeneratedMatch{
					UID:          fmt.Sprintf("P%sM%d", label, order),
					Stage:        stage,
					Round:        1,
					OrderInRound: order,
					Side1:        models.ResolvedSide(pool[i].ID),
					Side2:        models.ResolvedSide(pool[j].ID),
				})
			}
		}
	}

	return &Result{Matches: matches}, nil
}
