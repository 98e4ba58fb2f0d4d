package repositories

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/openrally/matchplay/models"
)

// PostgresRatingRepository is the ratings provider backing the seeding
// ranker. A missing player or a failed lookup degrades to a zero rating,
// since the provider contract forbids surfacing an error to the caller.
type PostgresRatingRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewPostgresRatingRepository(db *sql.DB, logger *slog.Logger) *PostgresRatingRepository {
	return &PostgresRatingRepository{db: db, logger: logger}
}

func (r *PostgresRatingRepository) PlayerRating(ctx context.Context, playerID int) models.PlayerRating {
	rating := models.PlayerRating{PlayerID: playerID}

	query := `SELECT singles, doubles FROM player_ratings WHERE player_id = $1`
	err := r.db.QueryRowContext(ctx, query, playerID).Scan(&rating.Singles, &rating.Doubles)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			r.logger.Warn("rating lookup failed, defaulting to zero",
				slog.Int("player_id", playerID), slog.Any("error", err))
		}
		return models.PlayerRating{PlayerID: playerID}
	}
	return rating
}
