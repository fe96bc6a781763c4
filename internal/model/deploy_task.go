package model

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
)

// DeployTaskStatus 发布任务状态
type DeployTaskStatus string

const (
	DeployTaskStatusPending   DeployTaskStatus = "pending"
	DeployTaskStatusRunning   DeployTaskStatus = "running"
	DeployTaskStatusCompleted DeployTaskStatus = "completed"
	DeployTaskStatusFailed    DeployTaskStatus = "failed"
)

// Terminal reports whether no further status transition can occur
func (s DeployTaskStatus) Terminal() bool {
	return s == DeployTaskStatusCompleted || s == DeployTaskStatusFailed
}

// TargetStatus represents a single player's outcome within a deploy task
type TargetStatus string

const (
	TargetStatusPending TargetStatus = "pending"
	TargetStatusRunning TargetStatus = "running"
	TargetStatusSuccess TargetStatus = "success"
	TargetStatusError   TargetStatus = "error"
	TargetStatusFailed  TargetStatus = "failed"
)

// Terminal reports whether the target reached a final outcome
func (s TargetStatus) Terminal() bool {
	return s == TargetStatusSuccess || s == TargetStatusError || s == TargetStatusFailed
}

// TargetProgress records one player's progress within a deploy task.
// Error is set only for error/failed targets.
type TargetProgress struct {
	Name   string       `json:"name"`
	Status TargetStatus `json:"status"`
	Error  string       `json:"error,omitempty"`
}

// DeployTask 部署任务。The external executor owns the status and progress
// writes; this service only ever reads them.
type DeployTask struct {
	UUIDModel
	Name      string           `gorm:"type:varchar(200);not null" json:"name"`
	AssetData datatypes.JSON   `gorm:"type:json" json:"asset_data"`
	Status    DeployTaskStatus `gorm:"type:enum('pending','running','completed','failed');default:'pending';index" json:"status"`
	Progress  datatypes.JSON   `gorm:"type:json" json:"progress"`
}

// TableName specifies the table name for DeployTask model
func (DeployTask) TableName() string {
	return "deploy_tasks"
}

// TargetProgress decodes the progress column into a player-id keyed map.
// An empty column yields an empty map.
func (t *DeployTask) TargetProgress() (map[string]TargetProgress, error) {
	if len(t.Progress) == 0 {
		return map[string]TargetProgress{}, nil
	}
	progress := make(map[string]TargetProgress)
	if err := json.Unmarshal(t.Progress, &progress); err != nil {
		return nil, fmt.Errorf("failed to decode progress for task %s: %w", t.ID, err)
	}
	return progress, nil
}

// SetTargetProgress encodes the given map into the progress column
func (t *DeployTask) SetTargetProgress(progress map[string]TargetProgress) error {
	data, err := json.Marshal(progress)
	if err != nil {
		return fmt.Errorf("failed to encode progress for task %s: %w", t.ID, err)
	}
	t.Progress = datatypes.JSON(data)
	return nil
}
