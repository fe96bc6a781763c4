package deploy

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"go_fleet/internal/model"
)

// ErrTaskNotFound means no deploy task exists for the given id.
var ErrTaskNotFound = errors.New("deploy task not found")

// GormTaskSource reads deploy task rows written by the deploy executor.
type GormTaskSource struct {
	db *gorm.DB
}

// NewGormTaskSource creates a TaskSource backed by the given database.
func NewGormTaskSource(db *gorm.DB) *GormTaskSource {
	return &GormTaskSource{db: db}
}

// FetchDeployTask loads one task row by id.
func (s *GormTaskSource) FetchDeployTask(ctx context.Context, taskID string) (*model.DeployTask, error) {
	var task model.DeployTask
	err := s.db.WithContext(ctx).Where("id = ?", taskID).First(&task).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetch deploy task %s: %w", taskID, err)
	}
	return &task, nil
}
