package models

import "time"

type Achievement struct {
	AchievementId int       `json:"achievement_id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	CreatedAt     time.Time `json:"created_at"`
}

type UserAchievement struct {
	UserId        int64     `json:"user_id"`
	AchievementId int       `json:"achievement_id"`
	EarnedAt      time.Time `json:"earned_at"`
}
