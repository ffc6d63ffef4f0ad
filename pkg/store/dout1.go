package store

import (
	"context"

	"gorm.io/gorm/clause"

	"github.com/mhadysydney/fridge-controll-app/pkg/store/models"
)

// ============================================
// DOUT1 STATE OPERATIONS
// ============================================

func (s *GORMStore) GetDOUT1State(ctx context.Context, imei string) (*models.DOUT1State, error) {
	var state models.DOUT1State
	if err := s.db.WithContext(ctx).Where("imei = ?", imei).First(&state).Error; err != nil {
		return nil, convertNotFoundError(err, models.ErrStateNotFound)
	}
	return &state, nil
}

func (s *GORMStore) UpsertDOUT1State(ctx context.Context, state *models.DOUT1State) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "imei"}},
		UpdateAll: true,
	}).Create(state).Error
}
