package services

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/openrally/matchplay/brackets"
	"github.com/openrally/matchplay/models"
	"github.com/openrally/matchplay/repositories"
)

// winPoints and drawPoints are the league table points awarded per match.
const (
	winPoints  = 2
	drawPoints = 1
)

type standingsService struct {
	db           *sql.DB
	divisionRepo repositories.DivisionRepository
	teamRepo     repositories.TeamRepository
	matchRepo    repositories.MatchRepository
	standingRepo repositories.StandingRepository
	hub          *brackets.Hub
	logger       *slog.Logger
}

func NewStandingsService(
	db *sql.DB,
	divisionRepo repositories.DivisionRepository,
	teamRepo repositories.TeamRepository,
	matchRepo repositories.MatchRepository,
	standingRepo repositories.StandingRepository,
	hub *brackets.Hub,
	logger *slog.Logger,
) StandingsAggregator {
	return &standingsService{
		db:           db,
		divisionRepo: divisionRepo,
		teamRepo:     teamRepo,
		matchRepo:    matchRepo,
		standingRepo: standingRepo,
		hub:          hub,
		logger:       logger,
	}
}

// Recompute rebuilds the division's standings from scratch out of its
// terminal matches. The table is derived data; a full rebuild is cheap at
// division scale and immune to drift.
func (s *standingsService) Recompute(ctx context.Context, divisionID int) error {
	division, err := s.divisionRepo.GetByID(ctx, divisionID)
	if err != nil {
		return err
	}
	teams, err := s.teamRepo.ListByDivision(ctx, divisionID, nil)
	if err != nil {
		return fmt.Errorf("failed to list teams of division %d: %w", divisionID, err)
	}
	matches, err := s.matchRepo.ListByDivision(ctx, divisionID, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to list matches of division %d: %w", divisionID, err)
	}

	standings := aggregate(divisionID, teams, matches)
	rank(standings, division.Format.TieBreaks, matches)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
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

	if txErr = s.standingRepo.DeleteByDivision(ctx, tx, divisionID); txErr != nil {
		return txErr
	}
	if txErr = s.standingRepo.BatchCreate(ctx, tx, standings); txErr != nil {
		return txErr
	}
	if txErr = tx.Commit(); txErr != nil {
		return fmt.Errorf("failed to commit standings of division %d: %w", divisionID, txErr)
	}

	room := DivisionRoom(divisionID)
	s.hub.BroadcastToRoom(room, brackets.WebSocketMessage{
		Type:    brackets.EventStandingsUpdated,
		RoomID:  room,
		Payload: standings,
	})
	return nil
}

// aggregate folds every terminal match with both sides resolved into one
// standing row per team.
func aggregate(divisionID int, teams []*models.Team, matches []*models.Match) []*models.Standing {
	byTeam := make(map[int]*models.Standing, len(teams))
	order := make([]int, 0, len(teams))
	for _, t := range teams {
		byTeam[t.ID] = &models.Standing{
			DivisionID: divisionID,
			TeamID:     t.ID,
			UpdatedAt:  time.Now(),
		}
		order = append(order, t.ID)
	}

	for _, m := range matches {
		if !m.Terminal() || !m.SidesResolved() {
			continue
		}
		s1, ok1 := byTeam[*m.Side1.TeamID]
		s2, ok2 := byTeam[*m.Side2.TeamID]
		if !ok1 || !ok2 {
			continue
		}

		s1.GamesPlayed++
		s2.GamesPlayed++
		for _, g := range m.Games {
			s1.PointsFor += g.Side1
			s1.PointsAgainst += g.Side2
			s2.PointsFor += g.Side2
			s2.PointsAgainst += g.Side1
		}

		switch {
		case m.WinnerTeamID == nil:
			s1.Draws++
			s2.Draws++
			s1.RankingPoints += drawPoints
			s2.RankingPoints += drawPoints
		case *m.WinnerTeamID == s1.TeamID:
			s1.Wins++
			s2.Losses++
			s1.RankingPoints += winPoints
		default:
			s2.Wins++
			s1.Losses++
			s2.RankingPoints += winPoints
		}
	}

	standings := make([]*models.Standing, 0, len(order))
	for _, teamID := range order {
		st := byTeam[teamID]
		st.PointDiff = st.PointsFor - st.PointsAgainst
		standings = append(standings, st)
	}
	return standings
}

// rank sorts the table by ranking points, then by the division's configured
// tie-break chain, and assigns dense 1-based ranks.
func rank(standings []*models.Standing, tieBreaks []models.TieBreak, matches []*models.Match) {
	h2h := headToHeadWins(matches)

	sort.SliceStable(standings, func(i, j int) bool {
		a, b := standings[i], standings[j]
		if a.RankingPoints != b.RankingPoints {
			return a.RankingPoints > b.RankingPoints
		}
		for _, tb := range tieBreaks {
			switch tb {
			case models.TieBreakPointDiff:
				if a.PointDiff != b.PointDiff {
					return a.PointDiff > b.PointDiff
				}
			case models.TieBreakPointsFor:
				if a.PointsFor != b.PointsFor {
					return a.PointsFor > b.PointsFor
				}
			case models.TieBreakHeadToHead:
				aw, bw := h2h[pair{a.TeamID, b.TeamID}], h2h[pair{b.TeamID, a.TeamID}]
				if aw != bw {
					return aw > bw
				}
			}
		}
		// Stable fallback keeps the output deterministic.
		return a.TeamID < b.TeamID
	})

	for i := range standings {
		r := i + 1
		standings[i].Rank = &r
	}
}

type pair struct{ winner, loser int }

func headToHeadWins(matches []*models.Match) map[pair]int {
	wins := make(map[pair]int)
	for _, m := range matches {
		if !m.Terminal() || !m.SidesResolved() || m.WinnerTeamID == nil {
			continue
		}
		loser := *m.Side1.TeamID
		if loser == *m.WinnerTeamID {
			loser = *m.Side2.TeamID
		}
		wins[pair{*m.WinnerTeamID, loser}]++
	}
	return wins
}
