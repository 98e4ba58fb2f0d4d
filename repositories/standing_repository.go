package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/openrally/matchplay/models"
)

var ErrStandingNotFound = errors.New("standing not found")

type StandingRepository interface {
	BatchCreate(ctx context.Context, exec SQLExecutor, standings []*models.Standing) error
	DeleteByDivision(ctx context.Context, exec SQLExecutor, divisionID int) error
	ListByDivision(ctx context.Context, divisionID int) ([]*models.Standing, error)
}

type postgresStandingRepository struct {
	db *sql.DB
}

func NewPostgresStandingRepository(db *sql.DB) StandingRepository {
	return &postgresStandingRepository{db: db}
}

func (r *postgresStandingRepository) BatchCreate(ctx context.Context, exec SQLExecutor, standings []*models.Standing) error {
	if exec == nil {
		exec = r.db
	}
	if len(standings) == 0 {
		return nil
	}

	query := `
		INSERT INTO standings
			(division_id, team_id, ranking_points, games_played, wins, draws, losses,
			 points_for, points_against, point_diff, rank, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`

	for _, s := range standings {
		if s.UpdatedAt.IsZero() {
			s.UpdatedAt = time.Now()
		}
		err := exec.QueryRowContext(ctx, query,
			s.DivisionID, s.TeamID, s.RankingPoints, s.GamesPlayed,
			s.Wins, s.Draws, s.Losses, s.PointsFor, s.PointsAgainst,
			s.PointDiff, s.Rank, s.UpdatedAt,
		).Scan(&s.ID)
		if err != nil {
			return fmt.Errorf("failed to insert standing for team %d: %w", s.TeamID, err)
		}
	}
	return nil
}

func (r *postgresStandingRepository) DeleteByDivision(ctx context.Context, exec SQLExecutor, divisionID int) error {
	if exec == nil {
		exec = r.db
	}
	query := `DELETE FROM standings WHERE division_id = $1`
	_, err := exec.ExecContext(ctx, query, divisionID)
	if err != nil {
		return fmt.Errorf("failed to delete standings of division %d: %w", divisionID, err)
	}
	return nil
}

func (r *postgresStandingRepository) ListByDivision(ctx context.Context, divisionID int) ([]*models.Standing, error) {
	query := `
		SELECT id, division_id, team_id, ranking_points, games_played, wins, draws, losses,
		       points_for, points_against, point_diff, rank, updated_at
		FROM standings
		WHERE division_id = $1
		ORDER BY rank ASC NULLS LAST, team_id ASC`

	rows, err := r.db.QueryContext(ctx, query, divisionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query standings of division %d: %w", divisionID, err)
	}
	defer rows.Close()

	standings := make([]*models.Standing, 0)
	for rows.Next() {
		var s models.Standing
		if scanErr := rows.Scan(
			&s.ID, &s.DivisionID, &s.TeamID, &s.RankingPoints, &s.GamesPlayed,
			&s.Wins, &s.Draws, &s.Losses, &s.PointsFor, &s.PointsAgainst,
			&s.PointDiff, &s.Rank, &s.UpdatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan standing row: %w", scanErr)
		}
		standings = append(standings, &s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during standing rows iteration: %w", err)
	}
	return standings, nil
}
