package lifecycle

import "errors"

// Guard violations. Every rejected action surfaces one of these (or a
// validation error from validate.go) to the caller; nothing is retried
// automatically.
var (
	ErrNotParticipant        = errors.New("actor is not a participant of this match")
	ErrSelfReportForbidden   = errors.New("organizer playing this match cannot propose its score")
	ErrOrganizerOnly         = errors.New("only the event organizer can perform this action")
	ErrOwnProposal           = errors.New("a team cannot confirm its own proposal")
	ErrAlreadySigned         = errors.New("proposal is already confirmed")
	ErrNoProposal            = errors.New("opponent must propose a score first")
	ErrDisputeReasonRequired = errors.New("a dispute requires a non-empty reason")
	ErrMatchImmutable        = errors.New("match already submitted to the rating service and is immutable")
	ErrInvalidTransition     = errors.New("action is not allowed in the current match state")
	ErrSideUnresolved        = errors.New("match sides are not resolved yet")
	ErrNotDuprEligible       = errors.New("division is not eligible for rating service submission")
)
