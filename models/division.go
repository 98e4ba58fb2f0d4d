package models

import "time"

// DivisionStatus mirrors the division_status ENUM in the database.
type DivisionStatus string

const (
	DivisionStatusDraft        DivisionStatus = "draft"
	DivisionStatusRegistration DivisionStatus = "registration"
	DivisionStatusScheduled    DivisionStatus = "scheduled"
	DivisionStatusActive       DivisionStatus = "active"
	DivisionStatusCompleted    DivisionStatus = "completed"
	DivisionStatusCanceled     DivisionStatus = "canceled"
)

type StageMode string

const (
	StageModeSingle   StageMode = "single"
	StageModeTwoStage StageMode = "two_stage"
)

type BracketFormat string

const (
	FormatRoundRobin        BracketFormat = "round_robin"
	FormatSingleElimination BracketFormat = "single_elimination"
	FormatLadder            BracketFormat = "ladder"
)

type SeedingMethod string

const (
	SeedingRating SeedingMethod = "rating"
	SeedingRandom SeedingMethod = "random"
	SeedingManual SeedingMethod = "manual"
)

type TieBreak string

const (
	TieBreakRankingPoints TieBreak = "ranking_points"
	TieBreakHeadToHead    TieBreak = "head_to_head"
	TieBreakPointDiff     TieBreak = "point_diff"
	TieBreakPointsFor     TieBreak = "points_for"
)

// MatchRules are the per-game scoring rules of a division. ScoreCap of zero
// means no cap: games run until the win-by margin is reached.
type MatchRules struct {
	BestOf        int  `json:"best_of"`
	PointsPerGame int  `json:"points_per_game"`
	WinBy         int  `json:"win_by"`
	ScoreCap      int  `json:"score_cap"`
	BronzeMatch   bool `json:"bronze_match"`
}

// DivisionFormat is the immutable-per-tournament competition configuration.
// For two-stage pool play, NumberOfPools must be even and at least 2, and
// TeamsPerPool at least 4; schedule generation rejects anything else before
// creating a single match.
type DivisionFormat struct {
	StageMode            StageMode     `json:"stage_mode"`
	MainFormat           BracketFormat `json:"main_format"`
	SecondaryFormat      BracketFormat `json:"secondary_format,omitempty"`
	NumberOfPools        int           `json:"number_of_pools,omitempty"`
	TeamsPerPool         int           `json:"teams_per_pool,omitempty"`
	AdvanceToMain        int           `json:"advance_to_main,omitempty"`
	AdvanceToConsolation int           `json:"advance_to_consolation,omitempty"`
	Seeding              SeedingMethod `json:"seeding"`
	TieBreaks            []TieBreak    `json:"tie_breaks,omitempty"`
	Rules                MatchRules    `json:"rules"`
}

// Division is a bracketed or pooled sub-competition within an event.
type Division struct {
	ID           int            `json:"id" db:"id"`
	EventID      int            `json:"event_id" db:"event_id"`
	Name         string         `json:"name" db:"name"`
	OrganizerID  int            `json:"organizer_id" db:"organizer_id"`
	Format       DivisionFormat `json:"format" db:"-"`
	Status       DivisionStatus `json:"status" db:"status"`
	DuprEligible bool           `json:"dupr_eligible" db:"dupr_eligible"`
	League       bool           `json:"league" db:"league"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`

	// Optional linked data, populated by services when requested.
	Teams     []Team      `json:"teams,omitempty" db:"-"`
	Matches   []Match     `json:"matches,omitempty" db:"-"`
	Standings []*Standing `json:"standings,omitempty" db:"-"`
}
