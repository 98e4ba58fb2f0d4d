package brackets

import (
	"context"
	"fmt"

	"github.com/openrally/matchplay/models"
)

// RoundRobinGenerator emits a single full round robin over the whole
// division, used by single-stage league play. Pool play uses
// PoolStageGenerator instead, which snakes entrants into pools first.
type RoundRobinGenerator struct{}

func NewRoundRobinGenerator() Generator {
	return &RoundRobinGenerator{}
}

func (g *RoundRobinGenerator) Name() string {
	return "RoundRobin"
}

func (g *RoundRobinGenerator) Generate(ctx context.Context, params GenerateParams) (*Result, error) {
	teams := params.Seeded
	if len(teams) < 2 {
		return nil, fmt.Errorf("%w (found %d)", ErrNotEnoughTeams, len(teams))
	}

	matches := make([]*GeneratedMatch, 0, len(teams)*(len(teams)-1)/2)
	order := 0
	for i := 0; i < len(teams); i++ {
		for j := i + 1; j < len(teams); j++ {
			order++
			matches = append(matches, &GeneratedMatch{
				UID:          fmt.Sprintf("RRM%d", order),
				Stage:        "Round Robin",
				Round:        1,
				OrderInRound: order,
				Side1:        models.ResolvedSide(teams[i].ID),
				Side2:        models.ResolvedSide(teams[j].ID),
			})
		}
	}
	return &Result{Matches: matches}, nil
}
