package models

import "time"

// MatchState mirrors the match_state ENUM in the database.
//
//	none → proposed → signed → official → submitted_to_dupr
//
// with disputed reachable from proposed and signed. submitted_to_dupr is
// terminal: a match that reached it is immutable.
type MatchState string

const (
	MatchStateNone      MatchState = "none"
	MatchStateProposed  MatchState = "proposed"
	MatchStateSigned    MatchState = "signed"
	MatchStateDisputed  MatchState = "disputed"
	MatchStateOfficial  MatchState = "official"
	MatchStateSubmitted MatchState = "submitted_to_dupr"
)

// FinalStageRound is the sentinel round number of placement matches that
// belong to the final stage of a bracket (currently only the bronze match).
const FinalStageRound = 99

// SideSlot identifies one of the two sides of a match.
type SideSlot int

const (
	Side1 SideSlot = 1
	Side2 SideSlot = 2
)

// SideRef is either a resolved team or a pending reference to the outcome of
// another match (identified by its bracket UID within the same division).
// A match with a pending side cannot be scored.
type SideRef struct {
	TeamID    *int    `json:"team_id,omitempty" db:"team_id"`
	SourceUID *string `json:"source_uid,omitempty" db:"source_uid"`
	TakeLoser bool    `json:"take_loser,omitempty" db:"take_loser"`
}

func (s SideRef) Resolved() bool {
	return s.TeamID != nil
}

func ResolvedSide(teamID int) SideRef {
	return SideRef{TeamID: &teamID}
}

func PendingSide(sourceUID string, takeLoser bool) SideRef {
	return SideRef{SourceUID: &sourceUID, TakeLoser: takeLoser}
}

// GameScore is the per-side score of one game, in game order.
type GameScore struct {
	Side1 int `json:"side1"`
	Side2 int `json:"side2"`
}

// ScoreMeta records who drove the score through its lifecycle.
type ScoreMeta struct {
	ProposedByUserID  *int    `json:"proposed_by_user_id,omitempty"`
	ProposedByTeamID  *int    `json:"proposed_by_team_id,omitempty"`
	ConfirmedByUserID *int    `json:"confirmed_by_user_id,omitempty"`
	DisputedByUserID  *int    `json:"disputed_by_user_id,omitempty"`
	DisputeReason     *string `json:"dispute_reason,omitempty"`
}

// Match belongs to exactly one division and is mutated exclusively through
// the lifecycle state machine. Version backs the optimistic concurrency
// control on state transitions.
type Match struct {
	ID           int    `json:"id" db:"id"`
	DivisionID   int    `json:"division_id" db:"division_id"`
	BracketUID   string `json:"bracket_uid" db:"bracket_uid"`
	Stage        string `json:"stage" db:"stage"`
	Round        int    `json:"round" db:"round"`
	OrderInRound int    `json:"order_in_round" db:"order_in_round"`
	// BracketRounds is the total round count of the bracket this match
	// belongs to, zero for pool matches. It lets advancement recognize the
	// final and the semifinals without reconstructing the bracket size.
	BracketRounds int `json:"bracket_rounds,omitempty" db:"bracket_rounds"`

	Side1        SideRef     `json:"side1" db:"-"`
	Side2        SideRef     `json:"side2" db:"-"`
	State        MatchState  `json:"state" db:"state"`
	Games        []GameScore `json:"games,omitempty" db:"-"`
	WinnerTeamID *int        `json:"winner_team_id,omitempty" db:"winner_team_id"`
	Score        ScoreMeta   `json:"score" db:"-"`
	Version      int         `json:"version" db:"version"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
}

// SideOf reports which side a team occupies, or 0 if it plays neither.
func (m *Match) SideOf(teamID int) SideSlot {
	if m.Side1.TeamID != nil && *m.Side1.TeamID == teamID {
		return Side1
	}
	if m.Side2.TeamID != nil && *m.Side2.TeamID == teamID {
		return Side2
	}
	return 0
}

func (m *Match) SidesResolved() bool {
	return m.Side1.Resolved() && m.Side2.Resolved()
}

// Terminal reports whether the match carries an authoritative result.
func (m *Match) Terminal() bool {
	return m.State == MatchStateOfficial || m.State == MatchStateSubmitted
}
