// services/scheduler.go
package services

import (
	"context"
	"time"

	"habit-ledger/models"
	"habit-ledger/utils"

	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

// MaintenanceService runs housekeeping that never touches balances.
type MaintenanceService struct {
	DB *gorm.DB

	sched gocron.Scheduler
}

func NewMaintenanceService(db *gorm.DB) *MaintenanceService {
	return &MaintenanceService{DB: db}
}

// PurgeRevokedTokens drops revocation rows whose token has expired.
func (s *MaintenanceService) PurgeRevokedTokens(ctx context.Context, now time.Time) (int64, error) {
	res := s.DB.WithContext(ctx).Where("expires_at < ?", now.UTC()).Delete(&models.RevokedToken{})
	return res.RowsAffected, res.Error
}

// ClearExpiredBoosts resets boost fields that have run out so reads and
// leaderboards see a clean row.
func (s *MaintenanceService) ClearExpiredBoosts(ctx context.Context, now time.Time) (int64, error) {
	res := s.DB.WithContext(ctx).Model(&models.UserLedger{}).
		Where("boost_expires_at IS NOT NULL AND boost_expires_at < ?", now.UTC()).
		Updates(map[string]interface{}{
			"boost_multiplier": 0,
			"boost_expires_at": nil,
		})
	return res.RowsAffected, res.Error
}

// Start schedules the jobs; Stop shuts the scheduler down.
func (s *MaintenanceService) Start() error {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return err
	}

	// Hourly: purge expired revocations
	_, err = sched.NewJob(
		gocron.DurationJob(1*time.Hour),
		gocron.NewTask(func() {
			n, err := s.PurgeRevokedTokens(context.Background(), time.Now())
			if err != nil {
				utils.LogError("[Scheduler] purge revoked tokens: %v", err)
				return
			}
			if n > 0 {
				utils.LogInfo("[Scheduler] purged %d expired revocations", n)
			}
		}),
	)
	if err != nil {
		return err
	}

	// Every 10 minutes: clear expired XP boosts
	_, err = sched.NewJob(
		gocron.DurationJob(10*time.Minute),
		gocron.NewTask(func() {
			n, err := s.ClearExpiredBoosts(context.Background(), time.Now())
			if err != nil {
				utils.LogError("[Scheduler] clear expired boosts: %v", err)
				return
			}
			if n > 0 {
				utils.LogInfo("[Scheduler] cleared %d expired boosts", n)
			}
		}),
	)
	if err != nil {
		return err
	}

	sched.Start()
	s.sched = sched
	utils.LogSuccess("[Scheduler] maintenance jobs started")
	return nil
}

func (s *MaintenanceService) Stop() error {
	if s.sched == nil {
		return nil
	}
	return s.sched.Shutdown()
}
