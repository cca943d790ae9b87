package services

import (
	"context"
	"time"

	"habit-ledger/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RevocationService is the shared logout list. Rows live until the token
// would have expired; the maintenance scheduler purges them after that.
type RevocationService struct {
	DB *gorm.DB
}

func NewRevocationService(db *gorm.DB) *RevocationService {
	return &RevocationService{DB: db}
}

// Revoke records jti as logged out. Revoking twice is a no-op.
func (s *RevocationService) Revoke(ctx context.Context, jti, userID string, expiresAt time.Time) error {
	rt := models.RevokedToken{JTI: jti, UserID: userID, ExpiresAt: expiresAt.UTC()}
	return s.DB.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rt).Error
}

// IsRevoked reports whether jti has been logged out.
func (s *RevocationService) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var n int64
	err := s.DB.WithContext(ctx).Model(&models.RevokedToken{}).Where("jti = ?", jti).Count(&n).Error
	return n > 0, err
}
