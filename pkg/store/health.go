package store

import (
	"context"

	"github.com/mhadysydney/fridge-controll-app/pkg/store/models"
)

// ============================================
// HEALTH OPERATIONS
// ============================================

// Ping verifies database connectivity.
func (s *GORMStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// KnownIMEI reports whether any table references the IMEI.
func (s *GORMStore) KnownIMEI(ctx context.Context, imei string) (bool, error) {
	for _, model := range []any{&models.GPSRecord{}, &models.DOUT1State{}, &models.Command{}} {
		var count int64
		if err := s.db.WithContext(ctx).Model(model).Where("imei = ?", imei).Count(&count).Error; err != nil {
			return false, err
		}
		if count > 0 {
			return true, nil
		}
	}
	return false, nil
}
