package models

import "time"

// Standing is the derived per-team aggregate for a division. It is never
// authoritative: the standings service recomputes it from terminal matches
// whenever one of them reaches a scored state.
type Standing struct {
	ID            int       `json:"id" db:"id"`
	DivisionID    int       `json:"division_id" db:"division_id"`
	TeamID        int       `json:"team_id" db:"team_id"`
	RankingPoints int       `json:"ranking_points" db:"ranking_points"`
	GamesPlayed   int       `json:"games_played" db:"games_played"`
	Wins          int       `json:"wins" db:"wins"`
	Draws         int       `json:"draws" db:"draws"`
	Losses        int       `json:"losses" db:"losses"`
	PointsFor     int       `json:"points_for" db:"points_for"`
	PointsAgainst int       `json:"points_against" db:"points_against"`
	PointDiff     int       `json:"point_diff" db:"point_diff"`
	Rank          *int      `json:"rank,omitempty" db:"rank"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`

	Team *Team `json:"team,omitempty" db:"-"`
}
