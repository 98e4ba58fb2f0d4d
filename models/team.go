package models

import "time"

// TeamStatus mirrors the team_status ENUM in the database. Teams are never
// deleted, only transitioned between these states.
type TeamStatus string

const (
	TeamStatusActive          TeamStatus = "active"
	TeamStatusAwaitingPartner TeamStatus = "awaiting_partner"
	TeamStatusWithdrawn       TeamStatus = "withdrawn"
)

// Team is one or two players registered together as a scoring unit for a
// division. Player identifiers are unique within a division: the same player
// never appears on two teams of one division.
type Team struct {
	ID             int        `json:"id" db:"id"`
	DivisionID     int        `json:"division_id" db:"division_id"`
	Player1ID      int        `json:"player1_id" db:"player1_id"`
	Player2ID      *int       `json:"player2_id,omitempty" db:"player2_id"`
	CaptainID      int        `json:"captain_id" db:"captain_id"`
	Status         TeamStatus `json:"status" db:"status"`
	SeekingPartner bool       `json:"seeking_partner" db:"seeking_partner"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
}

func (t *Team) IsDoubles() bool {
	return t != nil && t.Player2ID != nil
}

func (t *Team) PlayerIDs() []int {
	if t == nil {
		return nil
	}
	ids := []int{t.Player1ID}
	if t.Player2ID != nil {
		ids = append(ids, *t.Player2ID)
	}
	return ids
}

func (t *Team) HasPlayer(userID int) bool {
	if t == nil {
		return false
	}
	if t.Player1ID == userID {
		return true
	}
	return t.Player2ID != nil && *t.Player2ID == userID
}
