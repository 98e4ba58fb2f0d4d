package lifecycle

import (
	"fmt"

	"github.com/openrally/matchplay/models"
)

// GameValidationError names the offending game of a rejected score set.
// Game indexes are 1-based in error messages.
type GameValidationError struct {
	Game   int
	Reason string
}

func (e *GameValidationError) Error() string {
	return fmt.Sprintf("invalid score in game %d: %s", e.Game, e.Reason)
}

// IncompleteMatchError reports a score set in which neither side has won a
// strict majority of the configured best-of games.
type IncompleteMatchError struct {
	Side1Games int
	Side2Games int
	BestOf     int
}

func (e *IncompleteMatchError) Error() string {
	return fmt.Sprintf("match incomplete: game tally %d-%d, best of %d needs a strict majority",
		e.Side1Games, e.Side2Games, e.BestOf)
}

// ValidateGames checks a full game-score set against the division rules and
// returns the winning side. A game is complete once one side reaches the
// points-per-game target with the win-by margin, or reaches the score cap
// (cap games are won on any lead; a score past the cap is malformed). The
// match is complete once one side has won strictly more than half of the
// best-of games.
func ValidateGames(games []models.GameScore, rules models.MatchRules) (models.SideSlot, error) {
	if len(games) > rules.BestOf {
		return 0, &GameValidationError{
			Game:   rules.BestOf + 1,
			Reason: fmt.Sprintf("%d games exceed best of %d", len(games), rules.BestOf),
		}
	}

	needed := rules.BestOf/2 + 1
	var side1Games, side2Games int

	for i, g := range games {
		num := i + 1
		if g.Side1 < 0 || g.Side2 < 0 {
			return 0, &GameValidationError{Game: num, Reason: fmt.Sprintf("negative score %d-%d", g.Side1, g.Side2)}
		}
		if side1Games >= needed || side2Games >= needed {
			return 0, &GameValidationError{
				Game:   num,
				Reason: fmt.Sprintf("match already decided after %d games", i),
			}
		}

		hi, lo := g.Side1, g.Side2
		if hi < lo {
			hi, lo = lo, hi
		}
		if rules.ScoreCap > 0 && hi > rules.ScoreCap {
			return 0, &GameValidationError{
				Game:   num,
				Reason: fmt.Sprintf("%d-%d exceeds the score cap of %d", g.Side1, g.Side2, rules.ScoreCap),
			}
		}
		capped := rules.ScoreCap > 0 && hi == rules.ScoreCap
		won := hi > lo && (capped || (hi >= rules.PointsPerGame && hi-lo >= rules.WinBy))
		if !won {
			return 0, &GameValidationError{
				Game: num,
				Reason: fmt.Sprintf("%d-%d does not finish a game to %d win by %d",
					g.Side1, g.Side2, rules.PointsPerGame, rules.WinBy),
			}
		}

		if g.Side1 > g.Side2 {
			side1Games++
		} else {
			side2Games++
		}
	}

	switch {
	case side1Games >= needed:
		return models.Side1, nil
	case side2Games >= needed:
		return models.Side2, nil
	default:
		return 0, &IncompleteMatchError{Side1Games: side1Games, Side2Games: side2Games, BestOf: rules.BestOf}
	}
}
