package models

// PlayerRating holds the optional singles and doubles ratings of one player.
// A missing rating is simply nil; consumers default it to zero.
type PlayerRating struct {
	PlayerID int      `json:"player_id" db:"player_id"`
	Singles  *float64 `json:"singles,omitempty" db:"singles"`
	Doubles  *float64 `json:"doubles,omitempty" db:"doubles"`
}

func (r PlayerRating) SinglesOrZero() float64 {
	if r.Singles == nil {
		return 0
	}
	return *r.Singles
}

func (r PlayerRating) DoublesOrZero() float64 {
	if r.Doubles == nil {
		return 0
	}
	return *r.Doubles
}
