// Package status keeps each player's online state and last reported
// device info fresh.
package status

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"go_fleet/internal/auth"
	"go_fleet/internal/model"
	"go_fleet/internal/playerclient"
)

// InfoFetcher retrieves the /info payload from one player.
type InfoFetcher interface {
	FetchInfo(ctx context.Context, player *model.Player) (*playerclient.Info, error)
}

// ClientFetcher fetches info over the player HTTP API.
type ClientFetcher struct {
	Timeout time.Duration
}

// FetchInfo builds a per-player client and retrieves device info.
func (f ClientFetcher) FetchInfo(ctx context.Context, player *model.Player) (*playerclient.Info, error) {
	opts := []playerclient.Option{}
	if player.Username != "" {
		opts = append(opts, playerclient.WithBasicAuth(player.Username, auth.DecryptSecret(player.Password)))
	}
	c := playerclient.New(player.Name, player.APIURL(), opts...)
	if f.Timeout > 0 {
		fctx, cancel := context.WithTimeout(ctx, f.Timeout)
		defer cancel()
		ctx = fctx
	}
	return c.GetInfo(ctx)
}

// Worker polls every player's info endpoint on an interval.
type Worker struct {
	ctx                  context.Context
	cancel               context.CancelFunc
	db                   *gorm.DB
	fetcher              InfoFetcher
	logger               *logrus.Entry
	interval             time.Duration
	offlineFailThreshold int
	concurrency          int
}

// Config holds the configuration for the status worker.
type Config struct {
	DB                   *gorm.DB
	Fetcher              InfoFetcher
	Logger               *logrus.Entry
	IntervalSec          int
	OfflineFailThreshold int
	Concurrency          int
}

// NewWorker creates a player status worker.
func NewWorker(cfg *Config) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		ctx:                  ctx,
		cancel:               cancel,
		db:                   cfg.DB,
		fetcher:              cfg.Fetcher,
		logger:               cfg.Logger.WithField("component", "player-status-worker"),
		interval:             time.Duration(cfg.IntervalSec) * time.Second,
		offlineFailThreshold: cfg.OfflineFailThreshold,
		concurrency:          cfg.Concurrency,
	}
}

// Start begins the periodic status checks.
func (w *Worker) Start() {
	w.logger.Info("Starting player status worker...")
	ticker := time.NewTicker(w.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				w.runChecks()
			case <-w.ctx.Done():
				w.logger.Info("Stopping player status worker...")
				return
			}
		}
	}()
}

// Stop gracefully stops the worker.
func (w *Worker) Stop() {
	w.cancel()
}

func (w *Worker) runChecks() {
	var players []model.Player
	if err := w.db.Find(&players).Error; err != nil {
		w.logger.Errorf("Failed to fetch players for status check: %v", err)
		return
	}
	if len(players) == 0 {
		return
	}

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, w.concurrency)
	for _, player := range players {
		wg.Add(1)
		semaphore <- struct{}{}
		go func(p model.Player) {
			defer wg.Done()
			defer func() { <-semaphore }()
			w.checkPlayer(&p)
		}(player)
	}
	wg.Wait()
}

// CheckPlayer performs an immediate status check on one player and
// returns the fresh info. Handlers use it for the detail screen refresh.
func (w *Worker) CheckPlayer(ctx context.Context, player *model.Player) (*playerclient.Info, error) {
	info, err := w.fetcher.FetchInfo(ctx, player)
	if err != nil {
		w.handleFailure(player, err)
		return nil, err
	}
	w.handleSuccess(player, info)
	return info, nil
}

func (w *Worker) checkPlayer(player *model.Player) {
	info, err := w.fetcher.FetchInfo(w.ctx, player)
	if err != nil {
		w.handleFailure(player, err)
		return
	}
	w.handleSuccess(player, info)
}

func (w *Worker) handleSuccess(player *model.Player, info *playerclient.Info) {
	raw, err := json.Marshal(info)
	if err != nil {
		w.logger.Errorf("Failed to marshal info for player %s: %v", player.ID, err)
		raw = []byte("{}")
	}

	if err := w.db.Model(player).Updates(successUpdate(player, info, raw)).Error; err != nil {
		w.logger.Errorf("Failed to update player %s on success: %v", player.ID, err)
	}
}

// successUpdate computes the column writes for a healthy check. The
// failure counter resets so a later outage needs a fresh streak.
func successUpdate(player *model.Player, info *playerclient.Info, raw []byte) map[string]interface{} {
	updates := map[string]interface{}{
		"is_online":       true,
		"last_seen":       time.Now(),
		"last_status":     raw,
		"status_failures": 0,
	}
	if dt := detectDeviceType(info.DeviceModel); dt != model.DeviceTypeUnknown {
		updates["device_type"] = dt
	}
	if info.MacAddress != "" && info.MacAddress != player.MacAddress {
		updates["mac_address"] = info.MacAddress
	}
	return updates
}

func (w *Worker) handleFailure(player *model.Player, err error) {
	w.logger.WithField("player", player.Name).Warnf("Status check failed: %v", err)

	if err := w.db.Model(player).Updates(failureUpdate(player.StatusFailures+1, w.offlineFailThreshold)).Error; err != nil {
		w.logger.Errorf("Failed to update player %s on failure: %v", player.ID, err)
	}
}

// failureUpdate computes the column writes for a failed check. The
// player goes offline once consecutive failures reach the threshold.
func failureUpdate(failures, threshold int) map[string]interface{} {
	updates := map[string]interface{}{
		"status_failures": failures,
	}
	if failures >= threshold {
		updates["is_online"] = false
	}
	return updates
}

func detectDeviceType(deviceModel string) model.DeviceType {
	m := strings.ToLower(deviceModel)
	switch {
	case strings.Contains(m, "pi 5"), strings.Contains(m, "pi5"):
		return model.DeviceTypePi5
	case strings.Contains(m, "pi 4"), strings.Contains(m, "pi4"):
		return model.DeviceTypePi4
	}
	return model.DeviceTypeUnknown
}
