package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"github.com/openrally/matchplay/models"
)

var (
	ErrTeamNotFound       = errors.New("team not found")
	ErrTeamPlayerConflict = errors.New("player is already on a team in this division")
)

type TeamRepository interface {
	GetByID(ctx context.Context, id int) (*models.Team, error)
	ListByDivision(ctx context.Context, divisionID int, status *models.TeamStatus) ([]*models.Team, error)
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.TeamStatus) error
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

const teamColumns = `id, division_id, player1_id, player2_id, captain_id, status, seeking_partner, created_at`

func scanTeam(rowScanner interface{ Scan(...interface{}) error }) (*models.Team, error) {
	var t models.Team
	err := rowScanner.Scan(
		&t.ID,
		&t.DivisionID,
		&t.Player1ID,
		&t.Player2ID,
		&t.CaptainID,
		&t.Status,
		&t.SeekingPartner,
		&t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *postgresTeamRepository) GetByID(ctx context.Context, id int) (*models.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams WHERE id = $1`
	team, err := scanTeam(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, ErrTeamNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan team %d: %w", id, err)
	}
	return team, nil
}

func (r *postgresTeamRepository) ListByDivision(ctx context.Context, divisionID int, status *models.TeamStatus) ([]*models.Team, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + teamColumns + ` FROM teams WHERE division_id = $1`)

	args := []interface{}{divisionID}
	if status != nil {
		queryBuilder.WriteString(" AND status = $" + strconv.Itoa(len(args)+1))
		args = append(args, *status)
	}
	queryBuilder.WriteString(" ORDER BY id ASC")

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query teams of division %d: %w", divisionID, err)
	}
	defer rows.Close()

	teams := make([]*models.Team, 0)
	for rows.Next() {
		team, scanErr := scanTeam(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan team row: %w", scanErr)
		}
		teams = append(teams, team)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during team rows iteration: %w", err)
	}
	return teams, nil
}

func (r *postgresTeamRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.TeamStatus) error {
	if exec == nil {
		exec = r.db
	}
	query := `UPDATE teams SET status = $1 WHERE id = $2`
	result, err := exec.ExecContext(ctx, query, status, id)
	if err != nil {
		return r.handleTeamError(err)
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) handleTeamError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// teams_division_player_key enforces the one-team-per-player
		// invariant within a division.
		if pqErr.Constraint == "teams_division_player_key" {
			return ErrTeamPlayerConflict
		}
	}
	return err
}
