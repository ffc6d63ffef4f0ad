package store

import (
	"context"

	"github.com/mhadysydney/fridge-controll-app/pkg/store/models"
)

// ============================================
// TELEMETRY OPERATIONS
// ============================================

func (s *GORMStore) InsertGPS(ctx context.Context, rec *models.GPSRecord) error {
	return s.db.WithContext(ctx).Create(rec).Error
}

func (s *GORMStore) InsertIO(ctx context.Context, rec *models.IORecord) error {
	return s.db.WithContext(ctx).Create(rec).Error
}
