package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mihretdev/cardarena-services/internal/arenasvc/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const playerColumns = `user_id, name, battles_played, battles_won, battles_lost, battles_drawn,
	rounds_played, rounds_won, rounds_lost, rounds_drawn,
	cards_sold, cards_dropped, starter_claimed, title, secret_flags, last_daily_at,
	created_at, updated_at`

type PlayerStore struct {
	db *pgxpool.Pool
}

func NewPlayerStore(db *pgxpool.Pool) *PlayerStore {
	return &PlayerStore{db: db}
}

func scanPlayer(row pgx.Row) (*models.Player, error) {
	p := &models.Player{}
	err := row.Scan(
		&p.UserId,
		&p.Name,
		&p.BattlesPlayed,
		&p.BattlesWon,
		&p.BattlesLost,
		&p.BattlesDrawn,
		&p.RoundsPlayed,
		&p.RoundsWon,
		&p.RoundsLost,
		&p.RoundsDrawn,
		&p.CardsSold,
		&p.CardsDropped,
		&p.StarterClaimed,
		&p.Title,
		&p.SecretFlags,
		&p.LastDailyAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *PlayerStore) GetByID(ctx context.Context, userId int64) (*models.Player, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+playerColumns+`
		FROM players
		WHERE user_id = $1
	`, userId)

	p, err := scanPlayer(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get player %d: %w", userId, err)
	}

	return p, nil
}

func (s *PlayerStore) CreatePlayer(ctx context.Context, userId int64, name string) (*models.Player, error) {
	row := s.db.QueryRow(ctx, `
		INSERT INTO players (user_id, name)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET name = EXCLUDED.name
		RETURNING `+playerColumns+`
	`, userId, name)

	p, err := scanPlayer(row)
	if err != nil {
		return nil, fmt.Errorf("could not create player %d: %w", userId, err)
	}

	return p, nil
}

func (s *PlayerStore) SetTitle(ctx context.Context, userId int64, title string) error {
	_, err := s.db.Exec(ctx, `
		UPDATE players SET title = $2, updated_at = now() WHERE user_id = $1
	`, userId, title)
	if err != nil {
		return fmt.Errorf("failed to set title for player %d: %w", userId, err)
	}
	return nil
}

// ClaimStarter flips the starter flag. Returns ErrNotFound if the flag
// was already set, so the claim is once per player.
func (s *PlayerStore) ClaimStarter(ctx context.Context, userId int64) error {
	res, err := s.db.Exec(ctx, `
		UPDATE players SET starter_claimed = true, updated_at = now()
		WHERE user_id = $1 AND starter_claimed = false
	`, userId)
	if err != nil {
		return fmt.Errorf("failed to claim starter for player %d: %w", userId, err)
	}
	if res.RowsAffected() != 1 {
		return ErrNotFound
	}
	return nil
}

// ClaimDaily records the daily claim time if the cooldown has lapsed.
// Returns the remaining wait when claimed too early.
func (s *PlayerStore) ClaimDaily(ctx context.Context, userId int64, cooldown time.Duration) (time.Duration, error) {
	p, err := s.GetByID(ctx, userId)
	if err != nil {
		return 0, err
	}

	if p.LastDailyAt.Valid {
		elapsed := time.Since(p.LastDailyAt.Time)
		if elapsed < cooldown {
			return cooldown - elapsed, nil
		}
	}

	_, err = s.db.Exec(ctx, `
		UPDATE players SET last_daily_at = now(), updated_at = now() WHERE user_id = $1
	`, userId)
	if err != nil {
		return 0, fmt.Errorf("failed to record daily claim for player %d: %w", userId, err)
	}
	return 0, nil
}

func (s *PlayerStore) IncrementCardsDropped(ctx context.Context, userId int64) error {
	_, err := s.db.Exec(ctx, `
		UPDATE players SET cards_dropped = cards_dropped + 1, updated_at = now() WHERE user_id = $1
	`, userId)
	if err != nil {
		return fmt.Errorf("failed to increment cards_dropped for player %d: %w", userId, err)
	}
	return nil
}

func (s *PlayerStore) IncrementCardsSold(ctx context.Context, tx pgx.Tx, userId int64) error {
	_, err := tx.Exec(ctx, `
		UPDATE players SET cards_sold = cards_sold + 1, updated_at = now() WHERE user_id = $1
	`, userId)
	if err != nil {
		return fmt.Errorf("failed to increment cards_sold for player %d: %w", userId, err)
	}
	return nil
}

// ClaimSecret sets one easter-egg bit, once per player ever. Runs in
// the caller's transaction so the coin credit lands atomically.
func (s *PlayerStore) ClaimSecret(ctx context.Context, tx pgx.Tx, userId int64, bit int) error {
	res, err := tx.Exec(ctx, `
		UPDATE players SET secret_flags = secret_flags | $2, updated_at = now()
		WHERE user_id = $1 AND secret_flags & $2 = 0
	`, userId, bit)
	if err != nil {
		return fmt.Errorf("failed to claim secret %d for player %d: %w", bit, userId, err)
	}
	if res.RowsAffected() != 1 {
		return ErrSecretClaimed
	}
	return nil
}

// Leaderboard returns the top players ordered by one of the stat
// columns. The column is validated against a fixed set; anything else
// is rejected.
func (s *PlayerStore) Leaderboard(ctx context.Context, statColumn string, limit int) ([]*models.Player, error) {
	switch statColumn {
	case "battles_won", "battles_played", "rounds_won", "cards_dropped", "cards_sold":
	default:
		return nil, fmt.Errorf("invalid leaderboard stat: %s", statColumn)
	}

	rows, err := s.db.Query(ctx, `
		SELECT `+playerColumns+`
		FROM players
		ORDER BY `+statColumn+` DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	var players []*models.Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, err
		}
		players = append(players, p)
	}

	return players, nil
}
