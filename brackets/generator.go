package brackets

import (
	"context"

	"github.com/openrally/matchplay/models"
)

// GeneratedMatch is one match emitted by a generator, not yet persisted.
// UID is unique within the division and is how pending side references and
// advancement address matches before (and after) they get database ids.
type GeneratedMatch struct {
	UID          string
	Stage        string
	Round        int
	OrderInRound int

	// Total rounds of the bracket this match belongs to, zero for pool play.
	BracketRounds int

	Side1 models.SideRef
	Side2 models.SideRef
}

// ByeAdvance records an entrant that advances out of the first round without
// a match record: the seed it was paired against does not exist. The shell
// describes the second-round match the entrant lands in.
type ByeAdvance struct {
	TeamID int
	Shell  ShellFor
	Slot   models.SideSlot
}

// Result is the full output of one generation run. Either all of it is
// persisted or none of it.
type Result struct {
	Matches []*GeneratedMatch
	Byes    []ByeAdvance
}

type GenerateParams struct {
	Division *models.Division
	Seeded   []*models.Team
}

type Generator interface {
	Generate(ctx context.Context, params GenerateParams) (*Result, error)

	Name() string
}
