package services

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/openrally/matchplay/brackets"
	"github.com/openrally/matchplay/models"
	"github.com/openrally/matchplay/repositories"
	"github.com/openrally/matchplay/seeding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStandingRepo struct{}

func (r *fakeStandingRepo) BatchCreate(_ context.Context, _ repositories.SQLExecutor, _ []*models.Standing) error {
	return nil
}

func (r *fakeStandingRepo) DeleteByDivision(_ context.Context, _ repositories.SQLExecutor, _ int) error {
	return nil
}

func (r *fakeStandingRepo) ListByDivision(_ context.Context, _ int) ([]*models.Standing, error) {
	return nil, nil
}

type scheduleFixture struct {
	service   ScheduleService
	matchRepo *fakeMatchRepo
	teamRepo  *fakeTeamRepo
	standings *fakeStandings
}

func newScheduleFixture(t *testing.T, mutate func(*models.Division)) *scheduleFixture {
	t.Helper()

	division := &models.Division{
		ID:          1,
		OrganizerID: testOrganizerID,
		Status:      models.DivisionStatusActive,
		Format: models.DivisionFormat{
			StageMode:  models.StageModeSingle,
			MainFormat: models.FormatSingleElimination,
			Rules:      models.MatchRules{BestOf: 3, PointsPerGame: 11, WinBy: 2},
		},
	}
	if mutate != nil {
		mutate(division)
	}

	fixture := &scheduleFixture{
		matchRepo: newFakeMatchRepo(),
		teamRepo: &fakeTeamRepo{teams: map[int]*models.Team{
			100: {ID: 100, DivisionID: 1, Player1ID: testPlayerA, Status: models.TeamStatusActive},
			200: {ID: 200, DivisionID: 1, Player1ID: testPlayerB, Status: models.TeamStatusActive},
		}},
		standings: &fakeStandings{recomputed: make(chan int, 4)},
	}

	logger := slog.New(slog.NewTextHandler(testWriter{t}, &slog.HandlerOptions{Level: slog.LevelError}))
	hub := brackets.NewHub(logger)
	divisionRepo := &fakeDivisionRepo{division: division}
	scores := NewScoreService(
		nil, fixture.matchRepo, fixture.teamRepo, divisionRepo,
		fixture.standings, &fakeDuprClient{}, hub, logger)
	fixture.service = NewScheduleService(
		nil, divisionRepo, fixture.teamRepo, fixture.matchRepo, &fakeStandingRepo{},
		seeding.NewRanker(nil, nil), scores, hub, logger)
	return fixture
}

func TestWithdrawTeamForfeitAdvancesOpponent(t *testing.T) {
	f := newScheduleFixture(t, nil)
	m := f.matchRepo.add(&models.Match{
		DivisionID:    1,
		BracketUID:    "R1M1",
		Stage:         "Main Bracket",
		Round:         1,
		OrderInRound:  1,
		BracketRounds: 2,
		Side1:         models.ResolvedSide(100),
		Side2:         models.ResolvedSide(200),
		State:         models.MatchStateNone,
	})

	err := f.service.WithdrawTeam(context.Background(), 1, 200, testOrganizerID)
	require.NoError(t, err)

	team, err := f.teamRepo.GetByID(context.Background(), 200)
	require.NoError(t, err)
	assert.Equal(t, models.TeamStatusWithdrawn, team.Status)

	stored, err := f.matchRepo.GetByID(context.Background(), m.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MatchStateOfficial, stored.State)
	require.NotNil(t, stored.WinnerTeamID)
	assert.Equal(t, 100, *stored.WinnerTeamID)

	// A forfeit win advances like any official result: the next-round
	// shell exists with the opponent placed in slot 1.
	shell, err := f.matchRepo.GetByUID(context.Background(), nil, 1, "R2M1")
	require.NoError(t, err)
	require.NotNil(t, shell.Side1.TeamID)
	assert.Equal(t, 100, *shell.Side1.TeamID)
	assert.False(t, shell.Side2.Resolved())
}

func TestWithdrawTeamSemifinalForfeitFillsBronzeSlot(t *testing.T) {
	f := newScheduleFixture(t, nil)
	f.matchRepo.add(&models.Match{
		DivisionID:    1,
		BracketUID:    "R1M1",
		Stage:         "Main Bracket",
		Round:         1,
		OrderInRound:  1,
		BracketRounds: 2,
		Side1:         models.ResolvedSide(100),
		Side2:         models.ResolvedSide(200),
		State:         models.MatchStateNone,
	})
	bronze := f.matchRepo.add(&models.Match{
		DivisionID:    1,
		BracketUID:    brackets.BronzeUID,
		Stage:         "Bronze Match",
		Round:         models.FinalStageRound,
		OrderInRound:  1,
		BracketRounds: 2,
		Side1:         models.PendingSide("R1M1", true),
		Side2:         models.PendingSide("R1M2", true),
		State:         models.MatchStateNone,
	})

	err := f.service.WithdrawTeam(context.Background(), 1, 200, testOrganizerID)
	require.NoError(t, err)

	stored, err := f.matchRepo.GetByID(context.Background(), bronze.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Side1.TeamID)
	assert.Equal(t, 200, *stored.Side1.TeamID, "forfeited semifinal resolves the bronze slot")
}

func TestWithdrawTeamLeagueTriggersStandingsRecompute(t *testing.T) {
	f := newScheduleFixture(t, func(d *models.Division) {
		d.League = true
		d.Format.MainFormat = models.FormatRoundRobin
	})
	f.matchRepo.add(&models.Match{
		DivisionID:   1,
		BracketUID:   "RRM1",
		Stage:        "Round Robin",
		Round:        1,
		OrderInRound: 1,
		Side1:        models.ResolvedSide(100),
		Side2:        models.ResolvedSide(200),
		State:        models.MatchStateNone,
	})

	err := f.service.WithdrawTeam(context.Background(), 1, 200, testOrganizerID)
	require.NoError(t, err)

	select {
	case divisionID := <-f.standings.recomputed:
		assert.Equal(t, 1, divisionID)
	case <-time.After(2 * time.Second):
		t.Fatal("standings recomputation was not triggered")
	}
}

func TestWithdrawTeamSkipsTerminalMatches(t *testing.T) {
	f := newScheduleFixture(t, nil)
	winner := 200
	m := f.matchRepo.add(&models.Match{
		DivisionID:   1,
		BracketUID:   "R1M1",
		Stage:        "Main Bracket",
		Round:        1,
		OrderInRound: 1,
		Side1:        models.ResolvedSide(100),
		Side2:        models.ResolvedSide(200),
		State:        models.MatchStateOfficial,
		WinnerTeamID: &winner,
	})

	err := f.service.WithdrawTeam(context.Background(), 1, 200, testOrganizerID)
	require.NoError(t, err)

	stored, err := f.matchRepo.GetByID(context.Background(), m.ID)
	require.NoError(t, err)
	assert.Equal(t, 200, *stored.WinnerTeamID, "an already official result keeps its winner")
}

func TestWithdrawTeamRequiresOrganizer(t *testing.T) {
	f := newScheduleFixture(t, nil)

	err := f.service.WithdrawTeam(context.Background(), 1, 200, testPlayerA)
	assert.ErrorIs(t, err, ErrForbiddenOperation)

	team, err := f.teamRepo.GetByID(context.Background(), 200)
	require.NoError(t, err)
	assert.Equal(t, models.TeamStatusActive, team.Status)
}
