// services/leaderboard.go
package services

import (
	"context"
	"time"

	"habit-ledger/models"

	"gorm.io/gorm"
)

type Dimension string

const (
	DimensionGlobalXP      Dimension = "global_xp"
	DimensionGameXP        Dimension = "game_xp"
	DimensionStreak        Dimension = "streak"
	DimensionGameHighScore Dimension = "game_high_score"
)

type Timeframe string

const (
	TimeframeDaily   Timeframe = "daily"
	TimeframeWeekly  Timeframe = "weekly"
	TimeframeMonthly Timeframe = "monthly"
	TimeframeAllTime Timeframe = "all_time"
)

const (
	defaultLeaderboardLimit = 50
	maxLeaderboardLimit     = 100
)

type dimensionDef struct {
	table    string
	userCol  string
	scoreCol string
	recency  string
	perGame  bool
}

var dimensions = map[Dimension]dimensionDef{
	DimensionGlobalXP:      {"user_ledgers", "user_ledgers.id", "user_ledgers.total_xp", "user_ledgers.last_active", false},
	DimensionStreak:        {"user_ledgers", "user_ledgers.id", "user_ledgers.current_streak", "user_ledgers.last_active", false},
	DimensionGameXP:        {"user_game_stats", "user_game_stats.user_id", "user_game_stats.xp", "user_game_stats.last_played", true},
	DimensionGameHighScore: {"user_game_stats", "user_game_stats.user_id", "user_game_stats.high_score", "user_game_stats.last_played", true},
}

// LeaderboardEntry is one ranked row.
type LeaderboardEntry struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Score    int64  `json:"score"`
	Rank     int    `json:"rank"`
}

// LeaderboardService ranks users read-only over ledger and game stats.
type LeaderboardService struct {
	DB       *gorm.DB
	Location *time.Location // day boundary for the daily timeframe

	now func() time.Time
}

func NewLeaderboardService(db *gorm.DB, loc *time.Location) *LeaderboardService {
	if loc == nil {
		loc = time.UTC
	}
	return &LeaderboardService{DB: db, Location: loc, now: func() time.Time { return time.Now().UTC() }}
}

// since returns the lower recency bound of tf, or nil for all-time.
func (s *LeaderboardService) since(tf Timeframe) (*time.Time, error) {
	now := s.now()
	var t time.Time
	switch tf {
	case TimeframeAllTime, "":
		return nil, nil
	case TimeframeDaily:
		y, m, d := now.In(s.Location).Date()
		t = time.Date(y, m, d, 0, 0, 0, 0, s.Location).UTC()
	case TimeframeWeekly:
		t = now.AddDate(0, 0, -7)
	case TimeframeMonthly:
		t = now.AddDate(0, 0, -30)
	default:
		return nil, ErrUnknownTimeframe
	}
	return &t, nil
}

// candidates builds the filtered, unordered candidate set of a board.
func (s *LeaderboardService) candidates(ctx context.Context, dim Dimension, scope string, tf Timeframe) (*gorm.DB, dimensionDef, error) {
	def, ok := dimensions[dim]
	if !ok {
		return nil, def, ErrUnknownDimension
	}
	if def.perGame && scope == "" {
		return nil, def, ErrScopeRequired
	}
	since, err := s.since(tf)
	if err != nil {
		return nil, def, err
	}

	q := s.DB.WithContext(ctx).Table(def.table)
	if def.perGame {
		q = q.Joins("JOIN user_ledgers ON user_ledgers.id = user_game_stats.user_id").
			Where("user_game_stats.game_id = ?", scope)
	}
	q = q.Where("user_ledgers.deleted_at IS NULL")
	if since != nil {
		q = q.Where(def.recency+" >= ?", *since)
	}
	return q, def, nil
}

// Rank returns the top limit users of a board. Equal scores keep insertion
// order (created_at, then id).
func (s *LeaderboardService) Rank(ctx context.Context, dim Dimension, scope string, limit int, tf Timeframe) ([]LeaderboardEntry, error) {
	if limit < 1 {
		limit = defaultLeaderboardLimit
	}
	if limit > maxLeaderboardLimit {
		limit = maxLeaderboardLimit
	}
	q, def, err := s.candidates(ctx, dim, scope, tf)
	if err != nil {
		return nil, err
	}

	entries := []LeaderboardEntry{}
	err = q.Select(def.userCol + " AS user_id, user_ledgers.username AS username, " + def.scoreCol + " AS score").
		Order(def.scoreCol + " DESC").
		Order(def.table + ".created_at ASC").
		Order(def.userCol + " ASC").
		Limit(limit).
		Scan(&entries).Error
	if err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}

// UserPosition returns one user's rank as 1 + the number of candidates with
// a strictly greater score.
func (s *LeaderboardService) UserPosition(ctx context.Context, userID string, dim Dimension, scope string, tf Timeframe) (*LeaderboardEntry, error) {
	q, def, err := s.candidates(ctx, dim, scope, tf)
	if err != nil {
		return nil, err
	}

	var mine []LeaderboardEntry
	err = q.Session(&gorm.Session{}).
		Select(def.userCol+" AS user_id, user_ledgers.username AS username, "+def.scoreCol+" AS score").
		Where(def.userCol+" = ?", userID).
		Limit(1).
		Scan(&mine).Error
	if err != nil {
		return nil, err
	}
	if len(mine) == 0 {
		var n int64
		if err := s.DB.WithContext(ctx).Model(&models.UserLedger{}).Where("id = ?", userID).Count(&n).Error; err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, ErrUserNotFound
		}
		return nil, ErrNotRanked
	}

	var above int64
	if err := q.Session(&gorm.Session{}).Where(def.scoreCol+" > ?", mine[0].Score).Count(&above).Error; err != nil {
		return nil, err
	}
	entry := mine[0]
	entry.Rank = int(above) + 1
	return &entry, nil
}

// ParseDimension / ParseTimeframe validate query parameters.
func ParseDimension(s string) (Dimension, error) {
	if _, ok := dimensions[Dimension(s)]; ok {
		return Dimension(s), nil
	}
	return "", ErrUnknownDimension
}

func ParseTimeframe(s string) (Timeframe, error) {
	switch tf := Timeframe(s); tf {
	case "":
		return TimeframeAllTime, nil
	case TimeframeDaily, TimeframeWeekly, TimeframeMonthly, TimeframeAllTime:
		return tf, nil
	}
	return "", ErrUnknownTimeframe
}
