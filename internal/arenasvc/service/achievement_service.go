package service

import (
	"context"

	"github.com/mihretdev/cardarena-services/internal/arenasvc/models"
	"github.com/mihretdev/cardarena-services/internal/arenasvc/store"

	log "github.com/sirupsen/logrus"
)

// Threshold tables per tracked stat. An achievement is granted when
// the stat lands exactly on its threshold; players who jump past one
// (bulk backfills, manual corrections) do not get it retroactively.
var achievementThresholds = map[string]map[int]int{
	"rounds_won": {
		10:  1,
		50:  2,
		100: 8,
	},
	"battles_won": {
		1:   3,
		10:  4,
		25:  5,
		50:  6,
		100: 8,
	},
}

// AchievementService evaluates stat thresholds after battles and
// announces freshly earned achievements.
type AchievementService struct {
	achievements *store.AchievementStore
	onEarned     func(userId int64, a *models.Achievement)
}

func NewAchievementService(achievements *store.AchievementStore) *AchievementService {
	return &AchievementService{achievements: achievements}
}

// OnEarned registers the announcement callback. Set once at wiring
// time, before any battle traffic.
func (s *AchievementService) OnEarned(fn func(userId int64, a *models.Achievement)) {
	s.onEarned = fn
}

// Check re-reads the stat and grants the matching achievement, if any.
// Failures are logged; a lost achievement check never blocks a battle.
func (s *AchievementService) Check(ctx context.Context, userId int64, statName string) {
	thresholds, ok := achievementThresholds[statName]
	if !ok {
		return
	}

	value, err := s.achievements.GetStatValue(ctx, userId, statName)
	if err != nil {
		log.Errorf("achievement check for player %d: %v", userId, err)
		return
	}

	achievementId, ok := thresholds[value]
	if !ok {
		return
	}

	granted, err := s.achievements.GrantIfAbsent(ctx, userId, achievementId)
	if err != nil {
		log.Errorf("failed to grant achievement %d to player %d: %v", achievementId, userId, err)
		return
	}
	if !granted {
		return
	}

	a, err := s.achievements.GetAchievement(ctx, achievementId)
	if err != nil {
		log.Errorf("failed to load achievement %d: %v", achievementId, err)
		return
	}

	log.Infof("player %d earned achievement %q", userId, a.Title)
	if s.onEarned != nil {
		s.onEarned(userId, a)
	}
}

func (s *AchievementService) ListEarned(ctx context.Context, userId int64) ([]*models.Achievement, error) {
	return s.achievements.ListEarned(ctx, userId)
}
