package players

import (
	"errors"
	"net/http"

	"go_fleet/internal/auth"
	"go_fleet/internal/httpx"
	"go_fleet/internal/model"
	"go_fleet/internal/status"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ListRequest represents list players request
type ListRequest struct {
	Page     int    `form:"page"`
	PageSize int    `form:"pageSize"`
	Name     string `form:"name"`
	GroupID  string `form:"groupId"`
	Online   *bool  `form:"online"`
}

// ListResponse represents list players response
type ListResponse struct {
	Items    []model.Player `json:"items"`
	Total    int64          `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"pageSize"`
}

// CreateRequest represents create player request
type CreateRequest struct {
	Name     string  `json:"name" binding:"required"`
	URL      string  `json:"url" binding:"required,url"`
	Username string  `json:"username"`
	Password string  `json:"password"`
	GroupID  *string `json:"groupId"`
}

// UpdateRequest represents update player request. Nil fields are left
// unchanged; an empty groupId detaches the player from its group.
type UpdateRequest struct {
	ID       string  `json:"id" binding:"required"`
	Name     *string `json:"name"`
	URL      *string `json:"url"`
	Username *string `json:"username"`
	Password *string `json:"password"`
	GroupID  *string `json:"groupId"`
}

// DeleteRequest represents delete players request
type DeleteRequest struct {
	IDs []string `json:"ids" binding:"required,min=1"`
}

// Handler handles players API
type Handler struct {
	db           *gorm.DB
	statusWorker *status.Worker
}

// NewHandler creates a new players handler
func NewHandler(db *gorm.DB, statusWorker *status.Worker) *Handler {
	return &Handler{db: db, statusWorker: statusWorker}
}

// List handles GET /api/v1/players
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

	query := h.db.Model(&model.Player{})
	if req.Name != "" {
		query = query.Where("name LIKE ?", "%"+req.Name+"%")
	}
	if req.GroupID != "" {
		query = query.Where("group_id = ?", req.GroupID)
	}
	if req.Online != nil {
		query = query.Where("is_online = ?", *req.Online)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to count players", err))
		return
	}

	var players []model.Player
	offset := (req.Page - 1) * req.PageSize
	if err := query.
		Preload("Group").
		Offset(offset).
		Limit(req.PageSize).
		Order("name ASC").
		Find(&players).Error; err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to fetch players", err))
		return
	}

	httpx.OK(c, ListResponse{
		Items:    players,
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
	})
}

// Get handles GET /api/v1/players/:id
func (h *Handler) Get(c *gin.Context) {
	var player model.Player
	if err := h.db.Preload("Group").Where("id = ?", c.Param("id")).First(&player).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.FailErr(c, httpx.ErrNotFound("player not found"))
			return
		}
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to find player", err))
		return
	}
	httpx.OK(c, player)
}

// Create handles POST /api/v1/players/create
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamMissing(err.Error()))
		return
	}

	var count int64
	if err := h.db.Model(&model.Player{}).Where("url = ?", req.URL).Count(&count).Error; err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to check url uniqueness", err))
		return
	}
	if count > 0 {
		httpx.FailErr(c, httpx.ErrAlreadyExists("a player with this URL already exists"))
		return
	}

	player := model.Player{
		Name:       req.Name,
		URL:        req.URL,
		Username:   req.Username,
		DeviceType: model.DeviceTypeUnknown,
		GroupID:    normalizeGroupID(req.GroupID),
	}
	if req.Password != "" {
		encrypted, err := auth.EncryptSecret(req.Password)
		if err != nil {
			httpx.FailErr(c, httpx.ErrInternalError("failed to encrypt credentials", err))
			return
		}
		player.Password = encrypted
	}

	if err := h.db.Create(&player).Error; err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to create player", err))
		return
	}

	httpx.OK(c, player)
}

// Update handles POST /api/v1/players/update
func (h *Handler) Update(c *gin.Context) {
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamMissing(err.Error()))
		return
	}

	var player model.Player
	if err := h.db.Where("id = ?", req.ID).First(&player).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.FailErr(c, httpx.ErrNotFound("player not found"))
			return
		}
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to find player", err))
		return
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.URL != nil {
		var count int64
		if err := h.db.Model(&model.Player{}).
			Where("url = ? AND id != ?", *req.URL, req.ID).
			Count(&count).Error; err != nil {
			httpx.FailErr(c, httpx.ErrDatabaseError("failed to check url uniqueness", err))
			return
		}
		if count > 0 {
			httpx.FailErr(c, httpx.ErrAlreadyExists("a player with this URL already exists"))
			return
		}
		updates["url"] = *req.URL
	}
	if req.Username != nil {
		updates["username"] = *req.Username
	}
	if req.Password != nil {
		if *req.Password == "" {
			updates["password"] = ""
		} else {
			encrypted, err := auth.EncryptSecret(*req.Password)
			if err != nil {
				httpx.FailErr(c, httpx.ErrInternalError("failed to encrypt credentials", err))
				return
			}
			updates["password"] = encrypted
		}
	}
	if req.GroupID != nil {
		updates["group_id"] = normalizeGroupID(req.GroupID)
	}

	if len(updates) > 0 {
		if err := h.db.Model(&player).Updates(updates).Error; err != nil {
			httpx.FailErr(c, httpx.ErrDatabaseError("failed to update player", err))
			return
		}
	}

	if err := h.db.Preload("Group").Where("id = ?", req.ID).First(&player).Error; err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to reload player", err))
		return
	}
	httpx.OK(c, player)
}

// Delete handles POST /api/v1/players/delete
func (h *Handler) Delete(c *gin.Context) {
	var req DeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamMissing(err.Error()))
		return
	}

	result := h.db.Where("id IN ?", req.IDs).Delete(&model.Player{})
	if result.Error != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to delete players", result.Error))
		return
	}

	httpx.OK(c, gin.H{
		"affected": result.RowsAffected,
	})
}

// Check handles POST /api/v1/players/:id/check. It probes the player
// immediately and returns fresh device info.
func (h *Handler) Check(c *gin.Context) {
	player, ok := h.loadPlayer(c)
	if !ok {
		return
	}

	info, err := h.statusWorker.CheckPlayer(c.Request.Context(), player)
	if err != nil {
		httpx.FailErr(c, httpx.ErrDeviceError(err.Error(), err))
		return
	}

	httpx.OK(c, gin.H{
		"online": true,
		"info":   info,
	})
}

// Screenshot handles GET /api/v1/players/:id/screenshot and proxies the
// captured image back to the browser.
func (h *Handler) Screenshot(c *gin.Context) {
	player, ok := h.loadPlayer(c)
	if !ok {
		return
	}

	data, err := clientFor(player).GetScreenshot(c.Request.Context())
	if err != nil {
		httpx.FailErr(c, httpx.ErrDeviceError(err.Error(), err))
		return
	}
	c.Data(http.StatusOK, "image/png", data)
}

func normalizeGroupID(id *string) *string {
	if id == nil || *id == "" {
		return nil
	}
	return id
}
