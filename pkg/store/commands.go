package store

import (
	"context"
	"time"

	"github.com/mhadysydney/fridge-controll-app/pkg/store/models"
)

// ============================================
// COMMAND QUEUE OPERATIONS
// ============================================

func (s *GORMStore) EnqueueCommand(ctx context.Context, imei, command string) (uint64, error) {
	cmd := models.Command{
		IMEI:      imei,
		Command:   command,
		Status:    models.CommandPending,
		CreatedAt: models.FormatTime(time.Now()),
	}
	if err := s.db.WithContext(ctx).Create(&cmd).Error; err != nil {
		return 0, err
	}
	return cmd.ID, nil
}

func (s *GORMStore) ListPendingCommands(ctx context.Context, imei string) ([]*models.Command, error) {
	var commands []*models.Command
	err := s.db.WithContext(ctx).
		Where("imei = ? AND status = ?", imei, models.CommandPending).
		Order("id ASC").
		Find(&commands).Error
	if err != nil {
		return nil, err
	}
	return commands, nil
}

func (s *GORMStore) MarkCommand(ctx context.Context, id uint64, status models.CommandStatus) error {
	if !status.IsValid() {
		return models.ErrInvalidStatus
	}
	result := s.db.WithContext(ctx).
		Model(&models.Command{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrCommandNotFound
	}
	return nil
}
