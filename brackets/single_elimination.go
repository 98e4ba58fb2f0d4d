package brackets

import (
	"context"
	"errors"
	"fmt"
	"math/bits"

	"github.com/openrally/matchplay/models"
)

var ErrNotEnoughTeams = errors.New("not enough teams to generate a bracket (minimum 2)")

// SingleEliminationGenerator computes a balanced knockout draw. It emits
// first-round matches only; later rounds are created by the advancement step
// as winners resolve. An entrant paired against a bye gets no match record
// and is deemed to advance directly.
type SingleEliminationGenerator struct {
	stage  string
	bronze bool
}

func NewSingleEliminationGenerator(stage string, bronze bool) Generator {
	return &SingleEliminationGenerator{stage: stage, bronze: bronze}
}

func (g *SingleEliminationGenerator) Name() string {
	return "SingleElimination"
}

// NextPowerOfTwo returns the smallest power of two >= n.
func NextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}

// SeedOrder returns the canonical single-elimination placement of seeds
// 1..size: order(2) = [1,2], and order(2k) replaces each seed s of order(k)
// with the pair (s, 2k+1-s). Consecutive entries pair into first-round
// matches, keeping top seeds maximally separated until late rounds.
func SeedOrder(size int) []int {
	order := []int{1}
	for len(order) < size {
		mirror := len(order)*2 + 1
		next := make([]int, 0, len(order)*2)
		for _, s := range order {
			next = append(next, s, mirror-s)
		}
		order = next
	}
	return order
}

func (g *SingleEliminationGenerator) Generate(ctx context.Context, params GenerateParams) (*Result, error) {
	seeded := params.Seeded
	n := len(seeded)
	if n < 2 {
		return nil, fmt.Errorf("%w (found %d)", ErrNotEnoughTeams, n)
	}

	size := NextPowerOfTwo(n)
	rounds := bits.TrailingZeros(uint(size))
	order := SeedOrder(size)

	res := &Result{}
	for p := 0; p < size/2; p++ {
		// In every pair the first entry is a seed <= size/2, which always
		// exists because size is the minimal power of two; only the mirror
		// seed can be the bye.
		s1, s2 := order[2*p], order[2*p+1]
		orderInRound := p + 1

		if s2 > n {
			shell, slot := ShellAfter(1, orderInRound, rounds)
			shell.Stage = g.stage
			res.Byes = append(res.Byes, ByeAdvance{
				TeamID: seeded[s1-1].ID,
				Shell:  shell,
				Slot:   slot,
			})
			continue
		}

		res.Matches = append(res.Matches, &GeneratedMatch{
			UID:           MatchUID(1, orderInRound),
			Stage:         g.stage,
			Round:         1,
			OrderInRound:  orderInRound,
			BracketRounds: rounds,
			Side1:         models.ResolvedSide(seeded[s1-1].ID),
			Side2:         models.ResolvedSide(seeded[s2-1].ID),
		})
	}

	// The bronze match is a placeholder until both semifinal losers are
	// known; it cannot be scored while its sides are pending.
	if g.bronze && rounds >= 2 {
		semiRound := rounds - 1
		res.Matches = append(res.Matches, &GeneratedMatch{
			UID:           BronzeUID,
			Stage:         "Bronze Match",
			Round:         models.FinalStageRound,
			OrderInRound:  1,
			BracketRounds: rounds,
			Side1:         models.PendingSide(MatchUID(semiRound, 1), true),
			Side2:         models.PendingSide(MatchUID(semiRound, 2), true),
		})
	}

	return res, nil
}
