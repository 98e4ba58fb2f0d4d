package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/openrally/matchplay/brackets"
	"github.com/openrally/matchplay/dupr"
	"github.com/openrally/matchplay/lifecycle"
	"github.com/openrally/matchplay/models"
	"github.com/openrally/matchplay/repositories"
)

// StandingsAggregator recomputes derived per-team aggregates. It is invoked
// fire-and-forget when a match reaches a terminal scored state; its failures
// never roll back the match transition.
type StandingsAggregator interface {
	Recompute(ctx context.Context, divisionID int) error
}

type ScoreService interface {
	Propose(ctx context.Context, matchID, actorUserID int, games []models.GameScore) (*models.Match, error)
	Sign(ctx context.Context, matchID, actorUserID int) (*models.Match, error)
	Dispute(ctx context.Context, matchID, actorUserID int, reason string) (*models.Match, error)
	Finalize(ctx context.Context, matchID, actorUserID int, games []models.GameScore) (*models.Match, error)
	EditScores(ctx context.Context, matchID, actorUserID int, games []models.GameScore) (*models.Match, error)
	SubmitToDupr(ctx context.Context, matchID, actorUserID int) (*models.Match, error)

	// Forfeit settles an unfinished match as an administrative win for the
	// given team, with the same terminal side effects as a finalize.
	Forfeit(ctx context.Context, matchID, winnerTeamID int) (*models.Match, error)
}

type scoreService struct {
	db           *sql.DB
	matchRepo    repositories.MatchRepository
	teamRepo     repositories.TeamRepository
	divisionRepo repositories.DivisionRepository
	standings    StandingsAggregator
	dupr         dupr.Client
	hub          *brackets.Hub
	logger       *slog.Logger
}

func NewScoreService(
	db *sql.DB,
	matchRepo repositories.MatchRepository,
	teamRepo repositories.TeamRepository,
	divisionRepo repositories.DivisionRepository,
	standings StandingsAggregator,
	duprClient dupr.Client,
	hub *brackets.Hub,
	logger *slog.Logger,
) ScoreService {
	return &scoreService{
		db:           db,
		matchRepo:    matchRepo,
		teamRepo:     teamRepo,
		divisionRepo: divisionRepo,
		standings:    standings,
		dupr:         duprClient,
		hub:          hub,
		logger:       logger,
	}
}

// maxTransitionRetries bounds the optimistic retry loop. Past it the
// conflict is surfaced and the caller re-reads and retries.
const maxTransitionRetries = 3

type matchContext struct {
	match        *models.Match
	division     *models.Division
	side1, side2 *models.Team
	role         lifecycle.Role
}

func (s *scoreService) loadMatchContext(ctx context.Context, matchID, actorUserID int) (*matchContext, error) {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	division, err := s.divisionRepo.GetByID(ctx, match.DivisionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load division %d of match %d: %w", match.DivisionID, matchID, err)
	}

	mc := &matchContext{match: match, division: division}
	if match.Side1.TeamID != nil {
		if mc.side1, err = s.teamRepo.GetByID(ctx, *match.Side1.TeamID); err != nil {
			return nil, err
		}
	}
	if match.Side2.TeamID != nil {
		if mc.side2, err = s.teamRepo.GetByID(ctx, *match.Side2.TeamID); err != nil {
			return nil, err
		}
	}

	isOrganizer := actorUserID == division.OrganizerID
	mc.role = lifecycle.ComputeRole(match, mc.side1, mc.side2, actorUserID, isOrganizer, division.DuprEligible)
	return mc, nil
}

// apply runs one lifecycle transition under optimistic concurrency: read
// the match, apply the pure transition in memory, then write back only if
// the version is unchanged. A lost race reloads and retries.
func (s *scoreService) apply(ctx context.Context, matchID, actorUserID int, transition func(*matchContext) error) (*matchContext, error) {
	for attempt := 0; attempt < maxTransitionRetries; attempt++ {
		mc, err := s.loadMatchContext(ctx, matchID, actorUserID)
		if err != nil {
			return nil, err
		}

		expected := mc.match.Version
		if err := transition(mc); err != nil {
			return nil, err
		}
		if err := s.matchRepo.UpdateScoreState(ctx, mc.match, expected); err != nil {
			if errors.Is(err, repositories.ErrMatchVersionConflict) {
				continue
			}
			return nil, err
		}

		s.broadcastMatch(mc)
		return mc, nil
	}
	return nil, ErrTransitionConflict
}

func (s *scoreService) Propose(ctx context.Context, matchID, actorUserID int, games []models.GameScore) (*models.Match, error) {
	mc, err := s.apply(ctx, matchID, actorUserID, func(mc *matchContext) error {
		return lifecycle.Propose(mc.match, mc.role, actorUserID, games, mc.division.Format.Rules)
	})
	if err != nil {
		return nil, err
	}
	return mc.match, nil
}

func (s *scoreService) Sign(ctx context.Context, matchID, actorUserID int) (*models.Match, error) {
	mc, err := s.apply(ctx, matchID, actorUserID, func(mc *matchContext) error {
		return lifecycle.Sign(mc.match, mc.role, actorUserID)
	})
	if err != nil {
		return nil, err
	}
	return mc.match, nil
}

func (s *scoreService) Dispute(ctx context.Context, matchID, actorUserID int, reason string) (*models.Match, error) {
	mc, err := s.apply(ctx, matchID, actorUserID, func(mc *matchContext) error {
		return lifecycle.Dispute(mc.match, mc.role, actorUserID, reason)
	})
	if err != nil {
		return nil, err
	}
	return mc.match, nil
}

func (s *scoreService) Finalize(ctx context.Context, matchID, actorUserID int, games []models.GameScore) (*models.Match, error) {
	mc, err := s.apply(ctx, matchID, actorUserID, func(mc *matchContext) error {
		return lifecycle.Finalize(mc.match, mc.role, games, mc.division.Format.Rules)
	})
	if err != nil {
		return nil, err
	}
	s.afterOfficialResult(ctx, mc)
	return mc.match, nil
}

func (s *scoreService) EditScores(ctx context.Context, matchID, actorUserID int, games []models.GameScore) (*models.Match, error) {
	mc, err := s.apply(ctx, matchID, actorUserID, func(mc *matchContext) error {
		return lifecycle.EditScores(mc.match, mc.role, games, mc.division.Format.Rules)
	})
	if err != nil {
		return nil, err
	}
	// An edit may flip the winner; re-running the advancement placement
	// overwrites the previously advanced team.
	s.afterOfficialResult(ctx, mc)
	return mc.match, nil
}

// Forfeit records an administrative win, bypassing score validation: a
// forfeit has no games. It goes through the regular optimistic write and
// terminal side effects, so a forfeited semifinal still fills the bronze
// slot and a forfeited league match still recomputes standings.
func (s *scoreService) Forfeit(ctx context.Context, matchID, winnerTeamID int) (*models.Match, error) {
	mc, err := s.apply(ctx, matchID, 0, func(mc *matchContext) error {
		if mc.match.Terminal() {
			return lifecycle.ErrInvalidTransition
		}
		if mc.match.SideOf(winnerTeamID) == 0 {
			return lifecycle.ErrSideUnresolved
		}
		mc.match.State = models.MatchStateOfficial
		mc.match.WinnerTeamID = &winnerTeamID
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.afterOfficialResult(ctx, mc)
	return mc.match, nil
}

// SubmitToDupr performs the one-way external submission. The match is first
// claimed by CAS-ing it to submitted_to_dupr, which blocks every competing
// transition while the outbound call is in flight; a failed call reverts
// the claim and leaves the match official.
func (s *scoreService) SubmitToDupr(ctx context.Context, matchID, actorUserID int) (*models.Match, error) {
	for attempt := 0; attempt < maxTransitionRetries; attempt++ {
		mc, err := s.loadMatchContext(ctx, matchID, actorUserID)
		if err != nil {
			return nil, err
		}

		expected := mc.match.Version
		if err := lifecycle.SubmitToRatingService(mc.match, mc.role, mc.division.DuprEligible); err != nil {
			return nil, err
		}
		if err := s.matchRepo.UpdateScoreState(ctx, mc.match, expected); err != nil {
			if errors.Is(err, repositories.ErrMatchVersionConflict) {
				continue
			}
			return nil, err
		}

		if err := s.dupr.SubmitMatch(ctx, s.buildSubmission(mc)); err != nil {
			s.revertClaim(ctx, mc)
			if errors.Is(err, dupr.ErrSubmissionDisabled) {
				return nil, ErrDuprSubmissionDisabled
			}
			return nil, fmt.Errorf("%w: %v", ErrDuprSubmissionFailed, err)
		}

		s.broadcastMatch(mc)
		return mc.match, nil
	}
	return nil, ErrTransitionConflict
}

func (s *scoreService) revertClaim(ctx context.Context, mc *matchContext) {
	mc.match.State = models.MatchStateOfficial
	if err := s.matchRepo.UpdateScoreState(ctx, mc.match, mc.match.Version); err != nil {
		s.logger.Error("failed to revert dupr submission claim",
			slog.Int("match_id", mc.match.ID), slog.Any("error", err))
	}
}

func (s *scoreService) buildSubmission(mc *matchContext) dupr.MatchSubmission {
	return dupr.MatchSubmission{
		MatchID:      mc.match.ID,
		DivisionID:   mc.division.ID,
		Side1Players: mc.side1.PlayerIDs(),
		Side2Players: mc.side2.PlayerIDs(),
		Games:        mc.match.Games,
		WinnerTeamID: *mc.match.WinnerTeamID,
		SubmittedAt:  time.Now().UTC(),
	}
}

// afterOfficialResult runs the side effects of a terminal scored state:
// bracket advancement and the standings recomputation.
func (s *scoreService) afterOfficialResult(ctx context.Context, mc *matchContext) {
	m := mc.match

	if m.WinnerTeamID != nil {
		if shell, slot, ok := brackets.WinnerTarget(m); ok {
			if err := placeTeam(ctx, nil, s.matchRepo, m.DivisionID, shell, slot, *m.WinnerTeamID); err != nil {
				s.logger.Error("failed to advance winner",
					slog.Int("match_id", m.ID), slog.String("target", shell.UID), slog.Any("error", err))
			}
		}
		if brackets.IsSemifinal(m) {
			s.resolveBronzeLoser(ctx, m)
		}
	}

	if s.leagueContext(mc.division) {
		go func() {
			// Detached from the request: the recomputation must not roll
			// back, or be rolled back by, the match transition.
			bg, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := s.standings.Recompute(bg, mc.division.ID); err != nil {
				s.logger.Error("standings recomputation failed",
					slog.Int("division_id", mc.division.ID), slog.Any("error", err))
			}
		}()
	}
}

func (s *scoreService) leagueContext(division *models.Division) bool {
	return division.League ||
		division.Format.StageMode == models.StageModeTwoStage ||
		division.Format.MainFormat == models.FormatRoundRobin
}

// resolveBronzeLoser fills the bronze-match slot that references the given
// semifinal once its loser is known.
func (s *scoreService) resolveBronzeLoser(ctx context.Context, m *models.Match) {
	loser, ok := brackets.LoserTeamID(m)
	if !ok {
		return
	}
	bronze, err := s.matchRepo.GetByUID(ctx, nil, m.DivisionID, brackets.BronzeUID)
	if err != nil {
		if !errors.Is(err, repositories.ErrMatchNotFound) {
			s.logger.Error("failed to load bronze match",
				slog.Int("division_id", m.DivisionID), slog.Any("error", err))
		}
		return
	}

	var slot models.SideSlot
	switch {
	case bronze.Side1.SourceUID != nil && *bronze.Side1.SourceUID == m.BracketUID && bronze.Side1.TakeLoser:
		slot = models.Side1
	case bronze.Side2.SourceUID != nil && *bronze.Side2.SourceUID == m.BracketUID && bronze.Side2.TakeLoser:
		slot = models.Side2
	default:
		return
	}
	if err := s.matchRepo.UpdateSide(ctx, nil, bronze.ID, slot, loser); err != nil {
		s.logger.Error("failed to place semifinal loser into bronze match",
			slog.Int("match_id", m.ID), slog.Any("error", err))
	}
}

func (s *scoreService) broadcastMatch(mc *matchContext) {
	room := DivisionRoom(mc.division.ID)
	s.hub.BroadcastToRoom(room, brackets.WebSocketMessage{
		Type:    brackets.EventMatchUpdated,
		RoomID:  room,
		Payload: mc.match,
	})
}
