package groups

import (
	"errors"

	"go_fleet/internal/httpx"
	"go_fleet/internal/model"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CreateRequest represents create group request
type CreateRequest struct {
	Name        string `json:"name" binding:"required"`
	Color       string `json:"color"`
	Description string `json:"description"`
}

// UpdateRequest represents update group request
type UpdateRequest struct {
	ID          string  `json:"id" binding:"required"`
	Name        *string `json:"name"`
	Color       *string `json:"color"`
	Description *string `json:"description"`
}

// DeleteRequest represents delete groups request
type DeleteRequest struct {
	IDs []string `json:"ids" binding:"required,min=1"`
}

// Handler handles groups API
type Handler struct {
	db *gorm.DB
}

// NewHandler creates a new groups handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

// List handles GET /api/v1/groups. Groups are few, so no pagination.
func (h *Handler) List(c *gin.Context) {
	type groupRow struct {
		model.Group
		PlayerCount int64 `json:"player_count" gorm:"-"`
	}

	var groups []model.Group
	if err := h.db.Order("name ASC").Find(&groups).Error; err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to fetch groups", err))
		return
	}

	items := make([]groupRow, len(groups))
	for i, g := range groups {
		items[i].Group = g
		if err := h.db.Model(&model.Player{}).
			Where("group_id = ?", g.ID).
			Count(&items[i].PlayerCount).Error; err != nil {
			httpx.FailErr(c, httpx.ErrDatabaseError("failed to count group players", err))
			return
		}
	}

	httpx.OK(c, gin.H{"items": items, "total": len(items)})
}

// Create handles POST /api/v1/groups/create
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamMissing(err.Error()))
		return
	}

	group := model.Group{
		Name:        req.Name,
		Description: req.Description,
	}
	if req.Color != "" {
		group.Color = req.Color
	}

	if err := h.db.Create(&group).Error; err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to create group", err))
		return
	}
	httpx.OK(c, group)
}

// Update handles POST /api/v1/groups/update
func (h *Handler) Update(c *gin.Context) {
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamMissing(err.Error()))
		return
	}

	var group model.Group
	if err := h.db.Where("id = ?", req.ID).First(&group).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.FailErr(c, httpx.ErrNotFound("group not found"))
			return
		}
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to find group", err))
		return
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Color != nil {
		updates["color"] = *req.Color
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}

	if len(updates) > 0 {
		if err := h.db.Model(&group).Updates(updates).Error; err != nil {
			httpx.FailErr(c, httpx.ErrDatabaseError("failed to update group", err))
			return
		}
	}

	if err := h.db.Where("id = ?", req.ID).First(&group).Error; err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to reload group", err))
		return
	}
	httpx.OK(c, group)
}

// Delete handles POST /api/v1/groups/delete. Players in deleted groups
// are detached, not removed.
func (h *Handler) Delete(c *gin.Context) {
	var req DeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamMissing(err.Error()))
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Player{}).
			Where("group_id IN ?", req.IDs).
			Update("group_id", nil).Error; err != nil {
			return err
		}
		return tx.Where("id IN ?", req.IDs).Delete(&model.Group{}).Error
	})
	if err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to delete groups", err))
		return
	}

	httpx.OK(c, gin.H{"message": "groups deleted"})
}
