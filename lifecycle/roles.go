package lifecycle

import "github.com/openrally/matchplay/models"

// Role is the closed set of permission tags an actor holds on one match,
// computed once per match load. Every guard below is a pure function over
// this tag set plus the current state.
type Role struct {
	// Participant is true when the actor's id appears on either side.
	Participant bool
	// TeamID and Side identify the participant's side, zero otherwise.
	TeamID int
	Side   models.SideSlot
	// Organizer is true when the actor holds organizer rights for the event.
	Organizer bool
	// OrganizerParticipant marks an organizer who is also playing this
	// match in a rating-eligible division: the non-self-reporting policy
	// bars them from proposing.
	OrganizerParticipant bool
}

// EffectiveOrganizer reports whether the actor may exercise organizer
// powers on this match.
func (r Role) EffectiveOrganizer() bool {
	return r.Organizer && !r.OrganizerParticipant
}

// ComputeRole derives the actor's role tags for a match from the resolved
// side teams, the actor's organizer grant, and the division's rating
// eligibility.
func ComputeRole(m *models.Match, side1, side2 *models.Team, userID int, organizer, duprEligible bool) Role {
	role := Role{Organizer: organizer}

	switch {
	case side1.HasPlayer(userID):
		role.Participant = true
		role.TeamID = side1.ID
		role.Side = models.Side1
	case side2.HasPlayer(userID):
		role.Participant = true
		role.TeamID = side2.ID
		role.Side = models.Side2
	}

	if organizer && role.Participant && duprEligible {
		role.OrganizerParticipant = true
	}
	return role
}
