package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/openrally/matchplay/brackets"
	"github.com/openrally/matchplay/models"
	"github.com/openrally/matchplay/repositories"
	"github.com/openrally/matchplay/seeding"
	"golang.org/x/sync/errgroup"
)

type ScheduleService interface {
	// GenerateSchedule seeds the division's active teams and creates its
	// full match set atomically: either everything is persisted and the
	// division turns scheduled, or nothing is.
	GenerateSchedule(ctx context.Context, divisionID, actorUserID int) (*models.Division, error)

	// WithdrawTeam soft-withdraws a team; its unfinished matches become
	// official forfeit wins for the opponent.
	WithdrawTeam(ctx context.Context, divisionID, teamID, actorUserID int) error

	GetDivisionData(ctx context.Context, divisionID int) (*models.Division, error)
}

// MatchForfeiter settles a match as a forfeit win, including the terminal
// side effects (bracket advancement, bronze resolution, standings).
type MatchForfeiter interface {
	Forfeit(ctx context.Context, matchID, winnerTeamID int) (*models.Match, error)
}

type scheduleService struct {
	db           *sql.DB
	divisionRepo repositories.DivisionRepository
	teamRepo     repositories.TeamRepository
	matchRepo    repositories.MatchRepository
	standingRepo repositories.StandingRepository
	ranker       *seeding.Ranker
	forfeits     MatchForfeiter
	hub          *brackets.Hub
	logger       *slog.Logger
}

func NewScheduleService(
	db *sql.DB,
	divisionRepo repositories.DivisionRepository,
	teamRepo repositories.TeamRepository,
	matchRepo repositories.MatchRepository,
	standingRepo repositories.StandingRepository,
	ranker *seeding.Ranker,
	forfeits MatchForfeiter,
	hub *brackets.Hub,
	logger *slog.Logger,
) ScheduleService {
	return &scheduleService{
		db:           db,
		divisionRepo: divisionRepo,
		teamRepo:     teamRepo,
		matchRepo:    matchRepo,
		standingRepo: standingRepo,
		ranker:       ranker,
		forfeits:     forfeits,
		hub:          hub,
		logger:       logger,
	}
}

func (s *scheduleService) GenerateSchedule(ctx context.Context, divisionID, actorUserID int) (*models.Division, error) {
	division, err := s.divisionRepo.GetByID(ctx, divisionID)
	if err != nil {
		return nil, err
	}
	if division.OrganizerID != actorUserID {
		return nil, ErrForbiddenOperation
	}
	if division.Status == models.DivisionStatusScheduled || division.Status == models.DivisionStatusActive {
		return nil, ErrDivisionAlreadyScheduled
	}

	active := models.TeamStatusActive
	teams, err := s.teamRepo.ListByDivision(ctx, divisionID, &active)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams of division %d: %w", divisionID, err)
	}
	if len(teams) == 0 {
		return nil, ErrNoActiveTeams
	}

	seeded, err := s.ranker.Seed(ctx, teams, division.Format.Seeding)
	if err != nil {
		return nil, fmt.Errorf("failed to seed division %d: %w", divisionID, err)
	}

	generator, err := s.pickGenerator(division)
	if err != nil {
		return nil, err
	}

	s.logger.Info("generating schedule",
		slog.Int("division_id", divisionID),
		slog.String("generator", generator.Name()),
		slog.Int("teams", len(seeded)))

	result, err := generator.Generate(ctx, brackets.GenerateParams{Division: division, Seeded: seeded})
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	var txErr error
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if txErr != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.logger.Error("rollback failed", slog.Any("error", rbErr))
			}
		}
	}()

	for _, gm := range result.Matches {
		match := &models.Match{
			DivisionID:    divisionID,
			BracketUID:    gm.UID,
			Stage:         gm.Stage,
			Round:         gm.Round,
			OrderInRound:  gm.OrderInRound,
			BracketRounds: gm.BracketRounds,
			Side1:         gm.Side1,
			Side2:         gm.Side2,
			State:         models.MatchStateNone,
		}
		if txErr = s.matchRepo.Create(ctx, tx, match); txErr != nil {
			return nil, fmt.Errorf("failed to create match %s: %w", gm.UID, txErr)
		}
	}

	// Entrants paired against a bye land straight in their round-two slot;
	// the shell row is created on demand, same as runtime advancement.
	for _, bye := range result.Byes {
		if txErr = placeTeam(ctx, tx, s.matchRepo, divisionID, bye.Shell, bye.Slot, bye.TeamID); txErr != nil {
			return nil, fmt.Errorf("failed to place bye advancer: %w", txErr)
		}
	}

	if txErr = s.divisionRepo.UpdateStatus(ctx, tx, divisionID, models.DivisionStatusScheduled); txErr != nil {
		return nil, txErr
	}

	if txErr = tx.Commit(); txErr != nil {
		return nil, fmt.Errorf("failed to commit schedule of division %d: %w", divisionID, txErr)
	}

	s.hub.BroadcastToRoom(DivisionRoom(divisionID), brackets.WebSocketMessage{
		Type:    brackets.EventScheduleGenerated,
		RoomID:  DivisionRoom(divisionID),
		Payload: map[string]int{"division_id": divisionID, "matches": len(result.Matches)},
	})

	return s.GetDivisionData(ctx, divisionID)
}

func (s *scheduleService) pickGenerator(division *models.Division) (brackets.Generator, error) {
	format := division.Format
	if format.StageMode == models.StageModeTwoStage {
		return brackets.NewPoolStageGenerator(), nil
	}
	switch format.MainFormat {
	case models.FormatRoundRobin:
		return brackets.NewRoundRobinGenerator(), nil
	case models.FormatSingleElimination:
		return brackets.NewSingleEliminationGenerator("Main Bracket", format.Rules.BronzeMatch), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format.MainFormat)
	}
}

func (s *scheduleService) WithdrawTeam(ctx context.Context, divisionID, teamID, actorUserID int) error {
	division, err := s.divisionRepo.GetByID(ctx, divisionID)
	if err != nil {
		return err
	}
	if division.OrganizerID != actorUserID {
		return ErrForbiddenOperation
	}
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return err
	}
	if team.DivisionID != divisionID {
		return repositories.ErrTeamNotFound
	}

	if err := s.teamRepo.UpdateStatus(ctx, nil, teamID, models.TeamStatusWithdrawn); err != nil {
		return err
	}

	matches, err := s.matchRepo.ListByDivision(ctx, divisionID, nil, nil)
	if err != nil {
		return err
	}
	for _, m := range matches {
		if m.Terminal() || m.SideOf(teamID) == 0 || !m.SidesResolved() {
			continue
		}
		opponent := *m.Side1.TeamID
		if m.SideOf(teamID) == models.Side1 {
			opponent = *m.Side2.TeamID
		}
		if _, err := s.forfeits.Forfeit(ctx, m.ID, opponent); err != nil {
			// A concurrent transition on one match must not abort the
			// rest of the withdrawal.
			s.logger.Error("failed to forfeit match on withdrawal",
				slog.Int("match_id", m.ID), slog.Any("error", err))
		}
	}

	s.logger.Info("team withdrawn", slog.Int("division_id", divisionID), slog.Int("team_id", teamID))
	return nil
}

// GetDivisionData loads the division with its teams, matches and standings
// fetched in parallel.
func (s *scheduleService) GetDivisionData(ctx context.Context, divisionID int) (*models.Division, error) {
	division, err := s.divisionRepo.GetByID(ctx, divisionID)
	if err != nil {
		return nil, err
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		teams, err := s.teamRepo.ListByDivision(gCtx, divisionID, nil)
		if err != nil {
			return fmt.Errorf("failed to fetch teams: %w", err)
		}
		division.Teams = make([]models.Team, 0, len(teams))
		for _, t := range teams {
			division.Teams = append(division.Teams, *t)
		}
		return nil
	})

	g.Go(func() error {
		matches, err := s.matchRepo.ListByDivision(gCtx, divisionID, nil, nil)
		if err != nil {
			return fmt.Errorf("failed to fetch matches: %w", err)
		}
		division.Matches = make([]models.Match, 0, len(matches))
		for _, m := range matches {
			division.Matches = append(division.Matches, *m)
		}
		return nil
	})

	g.Go(func() error {
		standings, err := s.standingRepo.ListByDivision(gCtx, divisionID)
		if err != nil {
			return fmt.Errorf("failed to fetch standings: %w", err)
		}
		division.Standings = standings
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return division, nil
}

// DivisionRoom is the websocket room name of a division.
func DivisionRoom(divisionID int) string {
	return "division_" + strconv.Itoa(divisionID)
}

// placeTeam resolves one side of a later-round match, creating the match
// shell when it does not exist yet.
func placeTeam(ctx context.Context, exec repositories.SQLExecutor, matchRepo repositories.MatchRepository,
	divisionID int, shell brackets.ShellFor, slot models.SideSlot, teamID int) error {

	existing, err := matchRepo.GetByUID(ctx, exec, divisionID, shell.UID)
	if err != nil {
		if !errors.Is(err, repositories.ErrMatchNotFound) {
			return err
		}
		match := &models.Match{
			DivisionID:    divisionID,
			BracketUID:    shell.UID,
			Stage:         shell.Stage,
			Round:         shell.Round,
			OrderInRound:  shell.OrderInRound,
			BracketRounds: shell.BracketRounds,
			Side1:         shell.Side1,
			Side2:         shell.Side2,
			State:         models.MatchStateNone,
		}
		if slot == models.Side1 {
			match.Side1 = models.ResolvedSide(teamID)
		} else {
			match.Side2 = models.ResolvedSide(teamID)
		}
		return matchRepo.Create(ctx, exec, match)
	}
	return matchRepo.UpdateSide(ctx, exec, existing.ID, slot, teamID)
}
