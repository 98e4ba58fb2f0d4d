// Package lifecycle implements the score state machine of a single match:
//
//	none → proposed → signed → official → submitted_to_dupr
//
// with disputed reachable from proposed and signed. The transition
// functions mutate the passed match in memory and report guard violations
// as named errors; persistence and concurrency control are the caller's
// concern.
package lifecycle

import (
	"fmt"
	"strings"

	"github.com/openrally/matchplay/models"
)

// Propose enters the first score for an unscored match. The actor must be a
// participant (and not an organizer-participant) or the effective
// organizer, and the game set must already determine a winner.
func Propose(m *models.Match, role Role, actorUserID int, games []models.GameScore, rules models.MatchRules) error {
	if m.State == models.MatchStateSubmitted {
		return ErrMatchImmutable
	}
	if m.State != models.MatchStateNone {
		return fmt.Errorf("%w: propose requires an unscored match, state is %s", ErrInvalidTransition, m.State)
	}
	if !m.SidesResolved() {
		return ErrSideUnresolved
	}
	if role.OrganizerParticipant {
		return ErrSelfReportForbidden
	}
	if !role.Participant && !role.EffectiveOrganizer() {
		return ErrNotParticipant
	}
	if _, err := ValidateGames(games, rules); err != nil {
		return err
	}

	m.Games = games
	m.State = models.MatchStateProposed
	m.Score.ProposedByUserID = &actorUserID
	if role.Participant {
		teamID := role.TeamID
		m.Score.ProposedByTeamID = &teamID
	}
	return nil
}

// Sign acknowledges a proposed score. Only a participant on the side that
// did not submit the proposal may sign.
func Sign(m *models.Match, role Role, actorUserID int) error {
	switch m.State {
	case models.MatchStateSubmitted:
		return ErrMatchImmutable
	case models.MatchStateSigned:
		return ErrAlreadySigned
	case models.MatchStateNone:
		return ErrNoProposal
	case models.MatchStateProposed:
	default:
		return fmt.Errorf("%w: cannot sign in state %s", ErrInvalidTransition, m.State)
	}
	if !role.Participant {
		return ErrNotParticipant
	}
	if m.Score.ProposedByTeamID != nil && *m.Score.ProposedByTeamID == role.TeamID {
		return ErrOwnProposal
	}
	if m.Score.ConfirmedByUserID != nil {
		return ErrAlreadySigned
	}

	m.State = models.MatchStateSigned
	m.Score.ConfirmedByUserID = &actorUserID
	return nil
}

// Dispute flags a proposed or signed score. Any participant may dispute,
// with a non-empty reason, any time before the match turns official.
func Dispute(m *models.Match, role Role, actorUserID int, reason string) error {
	switch m.State {
	case models.MatchStateSubmitted:
		return ErrMatchImmutable
	case models.MatchStateProposed, models.MatchStateSigned:
	default:
		return fmt.Errorf("%w: cannot dispute in state %s", ErrInvalidTransition, m.State)
	}
	if !role.Participant {
		return ErrNotParticipant
	}
	if strings.TrimSpace(reason) == "" {
		return ErrDisputeReasonRequired
	}

	m.State = models.MatchStateDisputed
	m.Score.DisputedByUserID = &actorUserID
	m.Score.DisputeReason = &reason
	return nil
}

// Finalize turns a score into the official result. The effective organizer
// may finalize a signed (or disputed) score as entered, or finalize
// unilaterally from none/proposed by supplying the games. The winner is
// computed from total games won per side.
func Finalize(m *models.Match, role Role, games []models.GameScore, rules models.MatchRules) error {
	switch m.State {
	case models.MatchStateSubmitted:
		return ErrMatchImmutable
	case models.MatchStateOfficial:
		return fmt.Errorf("%w: match is already official, use an edit", ErrInvalidTransition)
	}
	if !role.EffectiveOrganizer() {
		return ErrOrganizerOnly
	}
	if !m.SidesResolved() {
		return ErrSideUnresolved
	}
	if games == nil {
		games = m.Games
	}
	winner, err := ValidateGames(games, rules)
	if err != nil {
		return err
	}

	m.Games = games
	m.State = models.MatchStateOfficial
	m.WinnerTeamID = sideTeamID(m, winner)
	return nil
}

// EditScores replaces the games of an official result and recomputes the
// winner. Permitted only while the match has not been submitted to the
// rating service.
func EditScores(m *models.Match, role Role, games []models.GameScore, rules models.MatchRules) error {
	if m.State == models.MatchStateSubmitted {
		return ErrMatchImmutable
	}
	if m.State != models.MatchStateOfficial {
		return fmt.Errorf("%w: only official results can be edited, state is %s", ErrInvalidTransition, m.State)
	}
	if !role.EffectiveOrganizer() {
		return ErrOrganizerOnly
	}
	winner, err := ValidateGames(games, rules)
	if err != nil {
		return err
	}

	m.Games = games
	m.WinnerTeamID = sideTeamID(m, winner)
	return nil
}

// SubmitToRatingService marks an official result as submitted. One-way:
// after this no edit, dispute, or state change ever succeeds.
func SubmitToRatingService(m *models.Match, role Role, duprEligible bool) error {
	if m.State == models.MatchStateSubmitted {
		return ErrMatchImmutable
	}
	if m.State != models.MatchStateOfficial {
		return fmt.Errorf("%w: only official results can be submitted, state is %s", ErrInvalidTransition, m.State)
	}
	if !duprEligible {
		return ErrNotDuprEligible
	}
	if !role.EffectiveOrganizer() {
		return ErrOrganizerOnly
	}

	m.State = models.MatchStateSubmitted
	return nil
}

func sideTeamID(m *models.Match, side models.SideSlot) *int {
	var id int
	if side == models.Side1 {
		id = *m.Side1.TeamID
	} else {
		id = *m.Side2.TeamID
	}
	return &id
}
