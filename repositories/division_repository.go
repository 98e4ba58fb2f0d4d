package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/openrally/matchplay/models"
)

var ErrDivisionNotFound = errors.New("division not found")

type DivisionRepository interface {
	GetByID(ctx context.Context, id int) (*models.Division, error)
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.DivisionStatus) error
}

type postgresDivisionRepository struct {
	db *sql.DB
}

func NewPostgresDivisionRepository(db *sql.DB) DivisionRepository {
	return &postgresDivisionRepository{db: db}
}

func (r *postgresDivisionRepository) GetByID(ctx context.Context, id int) (*models.Division, error) {
	query := `
		SELECT id, event_id, name, organizer_id, format, status, dupr_eligible, league, created_at
		FROM divisions
		WHERE id = $1`

	division := &models.Division{}
	var formatJSON []byte
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&division.ID,
		&division.EventID,
		&division.Name,
		&division.OrganizerID,
		&formatJSON,
		&division.Status,
		&division.DuprEligible,
		&division.League,
		&division.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDivisionNotFound
		}
		return nil, fmt.Errorf("failed to scan division %d: %w", id, err)
	}

	if err := json.Unmarshal(formatJSON, &division.Format); err != nil {
		return nil, fmt.Errorf("failed to decode format of division %d: %w", id, err)
	}
	return division, nil
}

func (r *postgresDivisionRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.DivisionStatus) error {
	if exec == nil {
		exec = r.db
	}
	query := `UPDATE divisions SET status = $1 WHERE id = $2`
	result, err := exec.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update status of division %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrDivisionNotFound)
}
