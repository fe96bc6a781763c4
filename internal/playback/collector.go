package playback

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"go_fleet/internal/cache"
	"go_fleet/internal/model"
	"go_fleet/internal/playerclient"
)

// collectLockKey guards a collection cycle across dashboard instances.
const collectLockKey = "fleet:playback:collect"

// ViewlogFetcher retrieves playback events from one player. since is an
// RFC 3339 instant or empty for the full log.
type ViewlogFetcher interface {
	FetchViewlog(ctx context.Context, player *model.Player, since string) ([]playerclient.ViewlogEntry, error)
}

// Collector periodically pulls viewlogs from every player and stores new
// entries. A failed pull only logs; player online state belongs to the
// status worker and is never touched here.
type Collector struct {
	ctx         context.Context
	cancel      context.CancelFunc
	db          *gorm.DB
	fetcher     ViewlogFetcher
	logger      *logrus.Entry
	interval    time.Duration
	lockTTL     time.Duration
	concurrency int
}

// CollectorConfig holds the configuration for the playback collector.
type CollectorConfig struct {
	DB          *gorm.DB
	Fetcher     ViewlogFetcher
	Logger      *logrus.Entry
	IntervalSec int
	LockTTLSec  int
	Concurrency int
}

// NewCollector creates a playback log collector.
func NewCollector(cfg *CollectorConfig) *Collector {
	ctx, cancel := context.WithCancel(context.Background())
	return &Collector{
		ctx:         ctx,
		cancel:      cancel,
		db:          cfg.DB,
		fetcher:     cfg.Fetcher,
		logger:      cfg.Logger.WithField("component", "playback-collector"),
		interval:    time.Duration(cfg.IntervalSec) * time.Second,
		lockTTL:     time.Duration(cfg.LockTTLSec) * time.Second,
		concurrency: cfg.Concurrency,
	}
}

// Start begins periodic collection.
func (c *Collector) Start() {
	c.logger.Info("Starting playback collector...")
	ticker := time.NewTicker(c.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.runCycle()
			case <-c.ctx.Done():
				c.logger.Info("Stopping playback collector...")
				return
			}
		}
	}()
}

// Stop gracefully stops the collector.
func (c *Collector) Stop() {
	c.cancel()
}

func (c *Collector) runCycle() {
	ok, err := cache.AcquireLock(c.ctx, collectLockKey, c.lockTTL)
	if err != nil {
		c.logger.Warnf("Failed to acquire collection lock: %v", err)
		return
	}
	if !ok {
		return
	}
	defer cache.ReleaseLock(context.Background(), collectLockKey)

	var players []model.Player
	if err := c.db.Where("is_online = ?", true).Find(&players).Error; err != nil {
		c.logger.Errorf("Failed to fetch players for collection: %v", err)
		return
	}
	if len(players) == 0 {
		return
	}

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, c.concurrency)
	for _, player := range players {
		wg.Add(1)
		semaphore <- struct{}{}
		go func(p model.Player) {
			defer wg.Done()
			defer func() { <-semaphore }()
			c.collectPlayer(&p)
		}(player)
	}
	wg.Wait()
}

// collectPlayer pulls one player's viewlog and upserts new entries.
func (c *Collector) collectPlayer(player *model.Player) {
	since := ""
	if player.LastViewlogFetch != nil {
		since = player.LastViewlogFetch.UTC().Format(time.RFC3339)
	}

	entries, err := c.fetcher.FetchViewlog(c.ctx, player, since)
	if err != nil {
		c.logger.WithField("player", player.Name).Warnf("Viewlog fetch failed: %v", err)
		return
	}

	now := time.Now().UTC()
	logs := make([]model.PlaybackLog, 0, len(entries))
	for _, e := range entries {
		ts, perr := time.Parse(time.RFC3339, e.Timestamp)
		if perr != nil {
			c.logger.WithField("player", player.Name).Warnf("Skipping entry with bad timestamp %q", e.Timestamp)
			continue
		}
		logs = append(logs, model.PlaybackLog{
			PlayerID:  player.ID,
			AssetID:   e.AssetID,
			AssetName: e.AssetName,
			Mimetype:  e.Mimetype,
			Event:     model.PlaybackEvent(e.Event),
			Timestamp: ts.UTC(),
		})
	}

	if len(logs) > 0 {
		// Players resend recent events; the unique key dedupes them.
		if err := c.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&logs).Error; err != nil {
			c.logger.WithField("player", player.Name).Errorf("Failed to store viewlog entries: %v", err)
			return
		}
	}

	updates := map[string]interface{}{"last_viewlog_fetch": now}
	if player.HistoryTrackingSince == nil {
		updates["history_tracking_since"] = now
	}
	if err := c.db.Model(player).Updates(updates).Error; err != nil {
		c.logger.WithField("player", player.Name).Errorf("Failed to update player tracking state: %v", err)
	}
}
