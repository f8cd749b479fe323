package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/mihretdev/cardarena-services/internal/arenasvc/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AchievementStore struct {
	db *pgxpool.Pool
}

func NewAchievementStore(db *pgxpool.Pool) *AchievementStore {
	return &AchievementStore{db: db}
}

// GetStatValue reads one of the tracked player stat counters by name.
func (s *AchievementStore) GetStatValue(ctx context.Context, userId int64, statName string) (int, error) {
	switch statName {
	case "battles_won", "rounds_won":
	default:
		return 0, fmt.Errorf("untracked achievement stat: %s", statName)
	}

	var value int
	err := s.db.QueryRow(ctx, `
		SELECT `+statName+` FROM players WHERE user_id = $1
	`, userId).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("failed to read stat %s for player %d: %w", statName, userId, err)
	}
	return value, nil
}

// GrantIfAbsent awards the achievement once; re-grants are silent
// no-ops. Returns true when the row was newly inserted.
func (s *AchievementStore) GrantIfAbsent(ctx context.Context, userId int64, achievementId int) (bool, error) {
	res, err := s.db.Exec(ctx, `
		INSERT INTO user_achievements (user_id, achievement_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, achievement_id) DO NOTHING
	`, userId, achievementId)
	if err != nil {
		return false, fmt.Errorf("failed to grant achievement %d: %w", achievementId, err)
	}
	return res.RowsAffected() == 1, nil
}

func (s *AchievementStore) GetAchievement(ctx context.Context, achievementId int) (*models.Achievement, error) {
	var a models.Achievement
	err := s.db.QueryRow(ctx, `
		SELECT achievement_id, title, description, created_at
		FROM achievements
		WHERE achievement_id = $1
	`, achievementId).Scan(&a.AchievementId, &a.Title, &a.Description, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get achievement %d: %w", achievementId, err)
	}
	return &a, nil
}

// ListEarned returns the achievements a player holds, newest first.
func (s *AchievementStore) ListEarned(ctx context.Context, userId int64) ([]*models.Achievement, error) {
	rows, err := s.db.Query(ctx, `
		SELECT a.achievement_id, a.title, a.description, a.created_at
		FROM achievements a
		JOIN user_achievements ua ON ua.achievement_id = a.achievement_id
		WHERE ua.user_id = $1
		ORDER BY ua.earned_at DESC
	`, userId)
	if err != nil {
		return nil, fmt.Errorf("failed to list achievements for player %d: %w", userId, err)
	}
	defer rows.Close()

	var earned []*models.Achievement
	for rows.Next() {
		var a models.Achievement
		if err := rows.Scan(&a.AchievementId, &a.Title, &a.Description, &a.CreatedAt); err != nil {
			return nil, err
		}
		earned = append(earned, &a)
	}

	return earned, nil
}
