package players

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go_fleet/internal/auth"
	"go_fleet/internal/httpx"
	"go_fleet/internal/model"
	"go_fleet/internal/playerclient"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AssetCreateRequest represents create asset request
type AssetCreateRequest struct {
	Name      string `json:"name" binding:"required"`
	URI       string `json:"uri" binding:"required"`
	Mimetype  string `json:"mimetype" binding:"required"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Duration  int    `json:"duration"`
	IsEnabled *bool  `json:"is_enabled"`
}

// AssetUpdateRequest represents update asset request. Nil fields are
// left unchanged on the player.
type AssetUpdateRequest struct {
	AssetID   string  `json:"assetId" binding:"required"`
	Name      *string `json:"name"`
	StartDate *string `json:"start_date"`
	EndDate   *string `json:"end_date"`
	Duration  *int    `json:"duration"`
	IsEnabled *bool   `json:"is_enabled"`
	Nocache   *bool   `json:"nocache"`
}

// AssetDeleteRequest represents delete asset request
type AssetDeleteRequest struct {
	AssetID string `json:"assetId" binding:"required"`
}

// PlaylistOrderRequest represents playlist reorder request
type PlaylistOrderRequest struct {
	IDs []string `json:"ids" binding:"required,min=1"`
}

// SlotCreateRequest represents create schedule slot request
type SlotCreateRequest struct {
	Name       string   `json:"name" binding:"required"`
	StartTime  string   `json:"start_time"`
	EndTime    string   `json:"end_time"`
	DaysOfWeek []string `json:"days_of_week"`
	IsDefault  bool     `json:"is_default"`
	Priority   int      `json:"priority"`
}

// SlotUpdateRequest represents update schedule slot request
type SlotUpdateRequest struct {
	SlotID     int       `json:"slotId" binding:"required"`
	Name       *string   `json:"name"`
	StartTime  *string   `json:"start_time"`
	EndTime    *string   `json:"end_time"`
	DaysOfWeek *[]string `json:"days_of_week"`
	Priority   *int      `json:"priority"`
}

// SlotDeleteRequest represents delete schedule slot request
type SlotDeleteRequest struct {
	SlotID int `json:"slotId" binding:"required"`
}

// SlotItemAddRequest represents add slot item request
type SlotItemAddRequest struct {
	SlotID   int    `json:"slotId" binding:"required"`
	AssetID  string `json:"assetId" binding:"required"`
	Position *int   `json:"position"`
}

// SlotItemRemoveRequest represents remove slot item request
type SlotItemRemoveRequest struct {
	SlotID int `json:"slotId" binding:"required"`
	ItemID int `json:"itemId" binding:"required"`
}

// loadPlayer fetches the player addressed by the :id route param. It
// writes the error response itself and reports whether to continue.
func (h *Handler) loadPlayer(c *gin.Context) (*model.Player, bool) {
	var player model.Player
	if err := h.db.Where("id = ?", c.Param("id")).First(&player).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.FailErr(c, httpx.ErrNotFound("player not found"))
			return nil, false
		}
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to find player", err))
		return nil, false
	}
	return &player, true
}

func clientFor(player *model.Player) *playerclient.Client {
	opts := []playerclient.Option{}
	if player.Username != "" {
		opts = append(opts, playerclient.WithBasicAuth(player.Username, auth.DecryptSecret(player.Password)))
	}
	return playerclient.New(player.Name, player.APIURL(), opts...)
}

// Assets handles GET /api/v1/players/:id/assets
func (h *Handler) Assets(c *gin.Context) {
	player, ok := h.loadPlayer(c)
	if !ok {
		return
	}

	assets, err := clientFor(player).GetAssets(c.Request.Context())
	if err != nil {
		httpx.FailErr(c, httpx.ErrDeviceError(err.Error(), err))
		return
	}
	if assets == nil {
		assets = []playerclient.Asset{}
	}
	httpx.OK(c, gin.H{"items": assets, "total": len(assets)})
}

// AssetCreate handles POST /api/v1/players/:id/assets/create
func (h *Handler) AssetCreate(c *gin.Context) {
	player, ok := h.loadPlayer(c)
	if !ok {
		return
	}
	var req AssetCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamMissing(err.Error()))
		return
	}

	data := map[string]any{
		"name":       req.Name,
		"uri":        req.URI,
		"mimetype":   req.Mimetype,
		"start_date": req.StartDate,
		"end_date":   req.EndDate,
		"duration":   req.Duration,
	}
	if req.IsEnabled != nil {
		data["is_enabled"] = *req.IsEnabled
	}

	asset, err := clientFor(player).CreateAsset(c.Request.Context(), data)
	if err != nil {
		httpx.FailErr(c, httpx.ErrDeviceError(err.Error(), err))
		return
	}
	httpx.OK(c, asset)
}

// AssetUpdate handles POST /api/v1/players/:id/assets/update
func (h *Handler) AssetUpdate(c *gin.Context) {
	player, ok := h.loadPlayer(c)
	if !ok {
		return
	}
	var req AssetUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamMissing(err.Error()))
		return
	}

	data := map[string]any{}
	if req.Name != nil {
		data["name"] = *req.Name
	}
	if req.StartDate != nil {
		data["start_date"] = *req.StartDate
	}
	if req.EndDate != nil {
		data["end_date"] = *req.EndDate
	}
	if req.Duration != nil {
		data["duration"] = *req.Duration
	}
	if req.IsEnabled != nil {
		data["is_enabled"] = *req.IsEnabled
	}
	if req.Nocache != nil {
		data["nocache"] = *req.Nocache
	}

	asset, err := clientFor(player).UpdateAsset(c.Request.Context(), req.AssetID, data)
	if err != nil {
		httpx.FailErr(c, httpx.ErrDeviceError(err.Error(), err))
		return
	}
	httpx.OK(c, asset)
}

// AssetDelete handles POST /api/v1/players/:id/assets/delete
func (h *Handler) AssetDelete(c *gin.Context) {
	player, ok := h.loadPlayer(c)
	if !ok {
		return
	}
	var req AssetDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamMissing(err.Error()))
		return
	}

	if err := clientFor(player).DeleteAsset(c.Request.Context(), req.AssetID); err != nil {
		httpx.FailErr(c, httpx.ErrDeviceError(err.Error(), err))
		return
	}
	httpx.OK(c, gin.H{"message": "asset deleted"})
}

// PlaylistOrder handles POST /api/v1/players/:id/assets/order
func (h *Handler) PlaylistOrder(c *gin.Context) {
	player, ok := h.loadPlayer(c)
	if !ok {
		return
	}
	var req PlaylistOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamMissing(err.Error()))
		return
	}

	if err := clientFor(player).SetPlaylistOrder(c.Request.Context(), strings.Join(req.IDs, ",")); err != nil {
		httpx.FailErr(c, httpx.ErrDeviceError(err.Error(), err))
		return
	}
	httpx.OK(c, gin.H{"message": "playlist order updated"})
}

// AssetUpload handles POST /api/v1/players/:id/assets/upload. The file
// part goes to the player first, then an asset is created around the
// returned URI.
func (h *Handler) AssetUpload(c *gin.Context) {
	player, ok := h.loadPlayer(c)
	if !ok {
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		httpx.FailErr(c, httpx.ErrParamMissing("file is required"))
		return
	}

	tmp, err := os.CreateTemp("", "fleet-upload-*"+filepath.Ext(file.Filename))
	if err != nil {
		httpx.FailErr(c, httpx.ErrInternalError("failed to buffer upload", err))
		return
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)
	if err := c.SaveUploadedFile(file, tmpPath); err != nil {
		httpx.FailErr(c, httpx.ErrInternalError("failed to buffer upload", err))
		return
	}

	client := clientFor(player)
	uri, err := client.UploadFile(c.Request.Context(), tmpPath)
	if err != nil {
		httpx.FailErr(c, httpx.ErrDeviceError(err.Error(), err))
		return
	}

	name := c.PostForm("name")
	if name == "" {
		name = file.Filename
	}
	mimetype := c.PostForm("mimetype")
	if mimetype == "" {
		mimetype = "image"
	}
	duration := 10
	if d := c.PostForm("duration"); d != "" {
		fmt.Sscanf(d, "%d", &duration)
	}
	// Video duration must be 0, the device detects it itself.
	if mimetype == "video" {
		duration = 0
	}

	now := time.Now().UTC()
	startDate := c.PostForm("start_date")
	if startDate == "" {
		startDate = now.Format("2006-01-02T15:04:05.000Z")
	}
	endDate := c.PostForm("end_date")
	if endDate == "" {
		endDate = now.AddDate(0, 0, 30).Format("2006-01-02T15:04:05.000Z")
	}

	asset, err := client.CreateAsset(c.Request.Context(), map[string]any{
		"name":             name,
		"uri":              uri,
		"mimetype":         mimetype,
		"is_enabled":       true,
		"nocache":          false,
		"start_date":       startDate,
		"end_date":         endDate,
		"duration":         duration,
		"skip_asset_check": false,
	})
	if err != nil {
		httpx.FailErr(c, httpx.ErrDeviceError(err.Error(), err))
		return
	}
	httpx.OK(c, asset)
}

// Backup handles POST /api/v1/players/:id/backup
func (h *Handler) Backup(c *gin.Context) {
	player, ok := h.loadPlayer(c)
	if !ok {
		return
	}

	name, err := clientFor(player).CreateBackup(c.Request.Context())
	if err != nil {
		httpx.FailErr(c, httpx.ErrDeviceError(err.Error(), err))
		return
	}
	httpx.OK(c, gin.H{
		"message": "backup created for " + player.Name,
		"backup":  name,
	})
}

// Reboot handles POST /api/v1/players/:id/reboot
func (h *Handler) Reboot(c *gin.Context) {
	player, ok := h.loadPlayer(c)
	if !ok {
		return
	}

	if err := clientFor(player).Reboot(c.Request.Context()); err != nil {
		httpx.FailErr(c, httpx.ErrDeviceError(err.Error(), err))
		return
	}
	httpx.OK(c, gin.H{"message": "reboot command sent to " + player.Name})
}

// Shutdown handles POST /api/v1/players/:id/shutdown
func (h *Handler) Shutdown(c *gin.Context) {
	player, ok := h.loadPlayer(c)
	if !ok {
		return
	}

	if err := clientFor(player).Shutdown(c.Request.Context()); err != nil {
		httpx.FailErr(c, httpx.ErrDeviceError(err.Error(), err))
		return
	}
	httpx.OK(c, gin.H{"message": "shutdown command sent to " + player.Name})
}

// ScheduleSlots handles GET /api/v1/players/:id/schedule/slots
func (h *Handler) ScheduleSlots(c *gin.Context) {
	player, ok := h.loadPlayer(c)
	if !ok {
		return
	}

	slots, err := clientFor(player).GetScheduleSlots(c.Request.Context())
	if err != nil {
		httpx.FailErr(c, httpx.ErrDeviceError(err.Error(), err))
		return
	}
	if slots == nil {
		slots = []playerclient.ScheduleSlot{}
	}
	httpx.OK(c, gin.H{"items": slots, "total": len(slots)})
}

// ScheduleSlotCreate handles POST /api/v1/players/:id/schedule/slots/create
func (h *Handler) ScheduleSlotCreate(c *gin.Context) {
	player, ok := h.loadPlayer(c)
	if !ok {
		return
	}
	var req SlotCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamMissing(err.Error()))
		return
	}

	data := map[string]any{
		"name":       req.Name,
		"is_default": req.IsDefault,
		"priority":   req.Priority,
	}
	if req.StartTime != "" {
		data["start_time"] = req.StartTime
	}
	if req.EndTime != "" {
		data["end_time"] = req.EndTime
	}
	if len(req.DaysOfWeek) > 0 {
		data["days_of_week"] = req.DaysOfWeek
	}

	slot, err := clientFor(player).CreateScheduleSlot(c.Request.Context(), data)
	if err != nil {
		httpx.FailErr(c, httpx.ErrDeviceError(err.Error(), err))
		return
	}
	httpx.OK(c, slot)
}

// ScheduleSlotUpdate handles POST /api/v1/players/:id/schedule/slots/update
func (h *Handler) ScheduleSlotUpdate(c *gin.Context) {
	player, ok := h.loadPlayer(c)
	if !ok {
		return
	}
	var req SlotUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamMissing(err.Error()))
		return
	}

	data := map[string]any{}
	if req.Name != nil {
		data["name"] = *req.Name
	}
	if req.StartTime != nil {
		data["start_time"] = *req.StartTime
	}
	if req.EndTime != nil {
		data["end_time"] = *req.EndTime
	}
	if req.DaysOfWeek != nil {
		data["days_of_week"] = *req.DaysOfWeek
	}
	if req.Priority != nil {
		data["priority"] = *req.Priority
	}

	slot, err := clientFor(player).UpdateScheduleSlot(c.Request.Context(), req.SlotID, data)
	if err != nil {
		httpx.FailErr(c, httpx.ErrDeviceError(err.Error(), err))
		return
	}
	httpx.OK(c, slot)
}

// ScheduleSlotDelete handles POST /api/v1/players/:id/schedule/slots/delete
func (h *Handler) ScheduleSlotDelete(c *gin.Context) {
	player, ok := h.loadPlayer(c)
	if !ok {
		return
	}
	var req SlotDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamMissing(err.Error()))
		return
	}

	if err := clientFor(player).DeleteScheduleSlot(c.Request.Context(), req.SlotID); err != nil {
		httpx.FailErr(c, httpx.ErrDeviceError(err.Error(), err))
		return
	}
	httpx.OK(c, gin.H{"message": "schedule slot deleted"})
}

// SlotItems handles GET /api/v1/players/:id/schedule/slots/:slotId/items
func (h *Handler) SlotItems(c *gin.Context) {
	player, ok := h.loadPlayer(c)
	if !ok {
		return
	}
	var slotID int
	if _, err := fmt.Sscanf(c.Param("slotId"), "%d", &slotID); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid slot id"))
		return
	}

	items, err := clientFor(player).GetSlotItems(c.Request.Context(), slotID)
	if err != nil {
		httpx.FailErr(c, httpx.ErrDeviceError(err.Error(), err))
		return
	}
	if items == nil {
		items = []playerclient.SlotItem{}
	}
	httpx.OK(c, gin.H{"items": items, "total": len(items)})
}

// SlotItemAdd handles POST /api/v1/players/:id/schedule/slot-items/add
func (h *Handler) SlotItemAdd(c *gin.Context) {
	player, ok := h.loadPlayer(c)
	if !ok {
		return
	}
	var req SlotItemAddRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamMissing(err.Error()))
		return
	}

	client := clientFor(player)
	// The scheduler only plays enabled assets; an enable failure is
	// non-fatal, the item is still placed.
	_, _ = client.UpdateAsset(c.Request.Context(), req.AssetID, map[string]any{"is_enabled": true})

	data := map[string]any{"asset_id": req.AssetID}
	if req.Position != nil {
		data["position"] = *req.Position
	}

	item, err := client.AddSlotItem(c.Request.Context(), req.SlotID, data)
	if err != nil {
		httpx.FailErr(c, httpx.ErrDeviceError(err.Error(), err))
		return
	}
	httpx.OK(c, item)
}

// SlotItemRemove handles POST /api/v1/players/:id/schedule/slot-items/remove
func (h *Handler) SlotItemRemove(c *gin.Context) {
	player, ok := h.loadPlayer(c)
	if !ok {
		return
	}
	var req SlotItemRemoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamMissing(err.Error()))
		return
	}

	if err := clientFor(player).RemoveSlotItem(c.Request.Context(), req.SlotID, req.ItemID); err != nil {
		httpx.FailErr(c, httpx.ErrDeviceError(err.Error(), err))
		return
	}
	httpx.OK(c, gin.H{"message": "slot item removed"})
}
