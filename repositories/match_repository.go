package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"github.com/openrally/matchplay/models"
)

var (
	ErrMatchNotFound        = errors.New("match not found")
	ErrMatchVersionConflict = errors.New("match was modified concurrently")
	ErrMatchUIDConflict     = errors.New("bracket uid already exists in this division")
	ErrMatchDivisionInvalid = errors.New("match division conflict or invalid")
	ErrMatchTeamInvalid     = errors.New("match team conflict or invalid")
)

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.Match) error
	GetByID(ctx context.Context, id int) (*models.Match, error)
	GetByUID(ctx context.Context, exec SQLExecutor, divisionID int, uid string) (*models.Match, error)
	ListByDivision(ctx context.Context, divisionID int, stage *string, state *models.MatchState) ([]*models.Match, error)

	// UpdateScoreState persists a lifecycle transition with optimistic
	// concurrency: the write only lands if the stored version still equals
	// expectedVersion, and bumps the version by one. A lost race surfaces
	// as ErrMatchVersionConflict.
	UpdateScoreState(ctx context.Context, match *models.Match, expectedVersion int) error

	// UpdateSide places a resolved team into one slot of a match shell.
	UpdateSide(ctx context.Context, exec SQLExecutor, matchID int, slot models.SideSlot, teamID int) error
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

const matchColumns = `id, division_id, bracket_uid, stage, round, order_in_round, bracket_rounds,
		side1_team_id, side1_source_uid, side1_take_loser,
		side2_team_id, side2_source_uid, side2_take_loser,
		state, games, winner_team_id,
		proposed_by_user_id, proposed_by_team_id, confirmed_by_user_id,
		disputed_by_user_id, dispute_reason, version, created_at`

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	if exec == nil {
		exec = r.db
	}
	games, err := marshalGames(match.Games)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO matches
			(division_id, bracket_uid, stage, round, order_in_round, bracket_rounds,
			 side1_team_id, side1_source_uid, side1_take_loser,
			 side2_team_id, side2_source_uid, side2_take_loser,
			 state, games, winner_team_id,
			 proposed_by_user_id, proposed_by_team_id, confirmed_by_user_id,
			 disputed_by_user_id, dispute_reason, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
		RETURNING id, created_at`

	err = exec.QueryRowContext(ctx, query,
		match.DivisionID,
		match.BracketUID,
		match.Stage,
		match.Round,
		match.OrderInRound,
		match.BracketRounds,
		match.Side1.TeamID,
		match.Side1.SourceUID,
		match.Side1.TakeLoser,
		match.Side2.TeamID,
		match.Side2.SourceUID,
		match.Side2.TakeLoser,
		match.State,
		games,
		match.WinnerTeamID,
		match.Score.ProposedByUserID,
		match.Score.ProposedByTeamID,
		match.Score.ConfirmedByUserID,
		match.Score.DisputedByUserID,
		match.Score.DisputeReason,
		match.Version,
	).Scan(&match.ID, &match.CreatedAt)

	return r.handleMatchError(err)
}

func scanMatch(rowScanner interface{ Scan(...interface{}) error }) (*models.Match, error) {
	var m models.Match
	var games []byte
	err := rowScanner.Scan(
		&m.ID,
		&m.DivisionID,
		&m.BracketUID,
		&m.Stage,
		&m.Round,
		&m.OrderInRound,
		&m.BracketRounds,
		&m.Side1.TeamID,
		&m.Side1.SourceUID,
		&m.Side1.TakeLoser,
		&m.Side2.TeamID,
		&m.Side2.SourceUID,
		&m.Side2.TakeLoser,
		&m.State,
		&games,
		&m.WinnerTeamID,
		&m.Score.ProposedByUserID,
		&m.Score.ProposedByTeamID,
		&m.Score.ConfirmedByUserID,
		&m.Score.DisputedByUserID,
		&m.Score.DisputeReason,
		&m.Version,
		&m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	if len(games) > 0 {
		if err := json.Unmarshal(games, &m.Games); err != nil {
			return nil, fmt.Errorf("failed to decode games of match %d: %w", m.ID, err)
		}
	}
	return &m, nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`
	match, err := scanMatch(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, ErrMatchNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan match %d: %w", id, err)
	}
	return match, nil
}

func (r *postgresMatchRepository) GetByUID(ctx context.Context, exec SQLExecutor, divisionID int, uid string) (*models.Match, error) {
	if exec == nil {
		exec = r.db
	}
	query := `SELECT ` + matchColumns + ` FROM matches WHERE division_id = $1 AND bracket_uid = $2`
	match, err := scanMatch(exec.QueryRowContext(ctx, query, divisionID, uid))
	if err != nil {
		if errors.Is(err, ErrMatchNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan match %s of division %d: %w", uid, divisionID, err)
	}
	return match, nil
}

func (r *postgresMatchRepository) ListByDivision(ctx context.Context, divisionID int, stage *string, state *models.MatchState) ([]*models.Match, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + matchColumns + ` FROM matches WHERE division_id = $1`)

	args := []interface{}{divisionID}
	if stage != nil {
		queryBuilder.WriteString(" AND stage = $" + strconv.Itoa(len(args)+1))
		args = append(args, *stage)
	}
	if state != nil {
		queryBuilder.WriteString(" AND state = $" + strconv.Itoa(len(args)+1))
		args = append(args, *state)
	}
	queryBuilder.WriteString(" ORDER BY round ASC, order_in_round ASC, id ASC")

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches of division %d: %w", divisionID, err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		match, scanErr := scanMatch(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", scanErr)
		}
		matches = append(matches, match)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match rows iteration: %w", err)
	}
	return matches, nil
}

func (r *postgresMatchRepository) UpdateScoreState(ctx context.Context, match *models.Match, expectedVersion int) error {
	games, err := marshalGames(match.Games)
	if err != nil {
		return err
	}
	query := `
		UPDATE matches SET
			state = $1, games = $2, winner_team_id = $3,
			proposed_by_user_id = $4, proposed_by_team_id = $5, confirmed_by_user_id = $6,
			disputed_by_user_id = $7, dispute_reason = $8,
			version = version + 1
		WHERE id = $9 AND version = $10`

	result, err := r.db.ExecContext(ctx, query,
		match.State,
		games,
		match.WinnerTeamID,
		match.Score.ProposedByUserID,
		match.Score.ProposedByTeamID,
		match.Score.ConfirmedByUserID,
		match.Score.DisputedByUserID,
		match.Score.DisputeReason,
		match.ID,
		expectedVersion,
	)
	if err != nil {
		return r.handleMatchError(err)
	}
	if err := checkAffectedRows(result, ErrMatchVersionConflict); err != nil {
		return err
	}
	match.Version = expectedVersion + 1
	return nil
}

func (r *postgresMatchRepository) UpdateSide(ctx context.Context, exec SQLExecutor, matchID int, slot models.SideSlot, teamID int) error {
	if exec == nil {
		exec = r.db
	}
	column := "side1_team_id"
	if slot == models.Side2 {
		column = "side2_team_id"
	}
	query := `UPDATE matches SET ` + column + ` = $1 WHERE id = $2`
	result, err := exec.ExecContext(ctx, query, teamID, matchID)
	if err != nil {
		return r.handleMatchError(err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func marshalGames(games []models.GameScore) ([]byte, error) {
	if games == nil {
		return nil, nil
	}
	data, err := json.Marshal(games)
	if err != nil {
		return nil, fmt.Errorf("failed to encode games: %w", err)
	}
	return data, nil
}

func (r *postgresMatchRepository) handleMatchError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Constraint {
		case "matches_division_id_fkey":
			return ErrMatchDivisionInvalid
		case "matches_side1_team_id_fkey", "matches_side2_team_id_fkey", "matches_winner_team_id_fkey":
			return ErrMatchTeamInvalid
		case "matches_division_uid_key":
			return ErrMatchUIDConflict
		}
	}
	return err
}
