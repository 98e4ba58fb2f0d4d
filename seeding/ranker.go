package seeding

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/openrally/matchplay/models"
)

// RatingsProvider resolves player ratings for seeding. Implementations must
// degrade a missing player or a failed lookup to a zero rating, never to an
// error.
type RatingsProvider interface {
	PlayerRating(ctx context.Context, playerID int) models.PlayerRating
}

// Ranker orders the entrants of a division before pool or bracket generation.
// The random source is injectable so tests can pin the permutation; a nil
// source falls back to a time-seeded one.
type Ranker struct {
	ratings RatingsProvider
	rng     *rand.Rand
}

func NewRanker(ratings RatingsProvider, rng *rand.Rand) *Ranker {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Ranker{ratings: ratings, rng: rng}
}

// Seed returns the entrants in seeding order, rank 1 first. The input slice
// is never modified. An empty entrant list seeds to an empty order.
func (r *Ranker) Seed(ctx context.Context, entrants []*models.Team, method models.SeedingMethod) ([]*models.Team, error) {
	seeded := make([]*models.Team, len(entrants))
	copy(seeded, entrants)

	switch method {
	case models.SeedingManual:
		// Caller-supplied order is the seeding order.
		return seeded, nil
	case models.SeedingRandom:
		r.shuffle(seeded)
		return seeded, nil
	case models.SeedingRating:
		values := make(map[int]float64, len(seeded))
		anyPositive := false
		for _, team := range seeded {
			v := r.teamRating(ctx, team)
			values[team.ID] = v
			if v > 0 {
				anyPositive = true
			}
		}
		if !anyPositive {
			// All-zero ratings would produce a meaningless identical-ties
			// order, so fall back to a random draw.
			r.shuffle(seeded)
			return seeded, nil
		}
		sort.SliceStable(seeded, func(i, j int) bool {
			return values[seeded[i].ID] > values[seeded[j].ID]
		})
		return seeded, nil
	default:
		return nil, fmt.Errorf("unknown seeding method %q", method)
	}
}

// teamRating is the singles rating for a one-player entrant and the mean of
// both doubles ratings for a two-player entrant, missing ratings counting
// as zero.
func (r *Ranker) teamRating(ctx context.Context, team *models.Team) float64 {
	if !team.IsDoubles() {
		return r.ratings.PlayerRating(ctx, team.Player1ID).SinglesOrZero()
	}
	d1 := r.ratings.PlayerRating(ctx, team.Player1ID).DoublesOrZero()
	d2 := r.ratings.PlayerRating(ctx, *team.Player2ID).DoublesOrZero()
	return (d1 + d2) / 2
}

func (r *Ranker) shuffle(teams []*models.Team) {
	r.rng.Shuffle(len(teams), func(i, j int) {
		teams[i], teams[j] = teams[j], teams[i]
	})
}
