package service

import (
	"context"
	"errors"
	"strings"

	"github.com/mihretdev/cardarena-services/internal/arenasvc/battle"
	"github.com/mihretdev/cardarena-services/internal/arenasvc/models"
	"github.com/mihretdev/cardarena-services/internal/arenasvc/store"

	"github.com/shopspring/decimal"
)

const maxTitleLen = 32

// PlayerService covers player lifecycle, profile stats and the
// leaderboards.
type PlayerService struct {
	players  *store.PlayerStore
	balances *store.BalanceStore
	matchlog *store.MatchLogStore
}

func NewPlayerService(players *store.PlayerStore, balances *store.BalanceStore, matchlog *store.MatchLogStore) *PlayerService {
	return &PlayerService{players: players, balances: balances, matchlog: matchlog}
}

// GetOrCreate loads the player, creating the row on first contact. The
// stored name follows the platform profile on every call.
func (s *PlayerService) GetOrCreate(ctx context.Context, userId int64, name string) (*models.Player, error) {
	p, err := s.players.GetByID(ctx, userId)
	if err == nil && p.Name == name {
		return p, nil
	}
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	return s.players.CreatePlayer(ctx, userId, name)
}

func (s *PlayerService) Balance(ctx context.Context, userId int64) (decimal.Decimal, error) {
	return s.balances.GetBalanceByUserID(ctx, userId)
}

// Profile bundles everything the stats screen shows.
type Profile struct {
	Player  *models.Player
	Balance decimal.Decimal
	Recent  []*battle.MatchRecord
}

func (s *PlayerService) GetProfile(ctx context.Context, userId int64, name string) (*Profile, error) {
	p, err := s.GetOrCreate(ctx, userId, name)
	if err != nil {
		return nil, err
	}

	balance, err := s.balances.GetBalanceByUserID(ctx, userId)
	if err != nil {
		return nil, err
	}

	recent, err := s.matchlog.RecentMatches(ctx, userId, 5)
	if err != nil {
		return nil, err
	}

	return &Profile{Player: p, Balance: balance, Recent: recent}, nil
}

func (s *PlayerService) SetTitle(ctx context.Context, userId int64, title string) error {
	title = strings.TrimSpace(title)
	if title == "" || len(title) > maxTitleLen {
		return ErrBadTitle
	}
	return s.players.SetTitle(ctx, userId, title)
}

func (s *PlayerService) Leaderboard(ctx context.Context, statColumn string, limit int) ([]*models.Player, error) {
	if limit <= 0 || limit > 25 {
		limit = 10
	}
	return s.players.Leaderboard(ctx, statColumn, limit)
}
