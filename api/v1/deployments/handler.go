package deployments

import (
	"errors"
	"sort"

	"go_fleet/internal/classify"
	"go_fleet/internal/deploy"
	"go_fleet/internal/httpx"
	"go_fleet/internal/model"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ListRequest represents list deployments request
type ListRequest struct {
	Page     int    `form:"page"`
	PageSize int    `form:"pageSize"`
	Status   string `form:"status"`
}

// TaskItem is one deployment in the list response.
type TaskItem struct {
	model.DeployTask
	Summary deploy.Summary `json:"summary"`
}

// ListResponse represents list deployments response
type ListResponse struct {
	Items    []TaskItem `json:"items"`
	Total    int64      `json:"total"`
	Page     int        `json:"page"`
	PageSize int        `json:"pageSize"`
}

// TargetRow is one player's outcome in the detail response. Error holds
// the raw backend message, ErrorCategory its classified form.
type TargetRow struct {
	PlayerID      string             `json:"playerId"`
	PlayerName    string             `json:"playerName"`
	Status        model.TargetStatus `json:"status"`
	Error         string             `json:"error,omitempty"`
	ErrorCategory *classify.Category `json:"errorCategory,omitempty"`
	ErrorText     string             `json:"errorText,omitempty"`
}

// DetailResponse represents one deployment with per-target rows.
type DetailResponse struct {
	model.DeployTask
	Summary deploy.Summary `json:"summary"`
	Targets []TargetRow    `json:"targets"`
}

// Handler handles deployments API
type Handler struct {
	db *gorm.DB
}

// NewHandler creates a new deployments handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

// List handles GET /api/v1/deployments
func (h *Handler) List(c *gin.Context) {
	var req ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid(err.Error()))
		return
	}
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 {
		req.PageSize = 15
	}

	query := h.db.Model(&model.DeployTask{})
	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to count deployments", err))
		return
	}

	var tasks []model.DeployTask
	offset := (req.Page - 1) * req.PageSize
	if err := query.
		Offset(offset).
		Limit(req.PageSize).
		Order("created_at DESC").
		Find(&tasks).Error; err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to fetch deployments", err))
		return
	}

	items := make([]TaskItem, len(tasks))
	for i, task := range tasks {
		items[i].DeployTask = task
		progress, err := task.TargetProgress()
		if err != nil {
			httpx.FailErr(c, httpx.ErrInternalError("failed to decode task progress", err))
			return
		}
		items[i].Summary = deploy.Aggregate(progress)
	}

	httpx.OK(c, ListResponse{
		Items:    items,
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
	})
}

// Get handles GET /api/v1/deployments/:id
func (h *Handler) Get(c *gin.Context) {
	var task model.DeployTask
	if err := h.db.Where("id = ?", c.Param("id")).First(&task).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.FailErr(c, httpx.ErrNotFound("deployment not found"))
			return
		}
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to find deployment", err))
		return
	}

	progress, err := task.TargetProgress()
	if err != nil {
		httpx.FailErr(c, httpx.ErrInternalError("failed to decode task progress", err))
		return
	}

	targets := make([]TargetRow, 0, len(progress))
	for playerID, p := range progress {
		row := TargetRow{
			PlayerID:   playerID,
			PlayerName: p.Name,
			Status:     p.Status,
			Error:      p.Error,
		}
		if p.Error != "" {
			cat := classify.Classify(p.Error)
			row.ErrorCategory = &cat
			row.ErrorText = cat.Text()
		}
		targets = append(targets, row)
	}
	sort.Slice(targets, func(i, j int) bool {
		if targets[i].PlayerName != targets[j].PlayerName {
			return targets[i].PlayerName < targets[j].PlayerName
		}
		return targets[i].PlayerID < targets[j].PlayerID
	})

	httpx.OK(c, DetailResponse{
		DeployTask: task,
		Summary:    deploy.Aggregate(progress),
		Targets:    targets,
	})
}
