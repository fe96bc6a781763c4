package deploy

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"go_fleet/internal/model"
)

// DefaultPollInterval is used when a Poller is created with a
// non-positive interval.
const DefaultPollInterval = 2 * time.Second

// TaskSource fetches the current state of a deploy task. Implementations
// must be safe for concurrent use.
type TaskSource interface {
	FetchDeployTask(ctx context.Context, taskID string) (*model.DeployTask, error)
}

// Observer receives poll results. OnProgress fires after every successful
// fetch, including the terminal one. OnDone fires once when the task
// reaches a terminal status. OnError fires on fetch failures; polling
// continues afterwards. Callbacks run on the poller goroutine.
type Observer interface {
	OnProgress(task *model.DeployTask, summary Summary)
	OnDone(task *model.DeployTask)
	OnError(err error)
}

// PollerState 轮询状态
type PollerState int

const (
	StateIdle PollerState = iota
	StatePolling
	StateStopped
)

func (s PollerState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePolling:
		return "polling"
	case StateStopped:
		return "stopped"
	}
	return "unknown"
}

// Poller repeatedly fetches one deploy task until it reaches a terminal
// status or is cancelled. At most one fetch is in flight at a time; ticks
// that arrive while a fetch is running are skipped. Starting a new task
// cancels the previous one, and results from a superseded run are
// discarded even if their fetch was already in flight.
type Poller struct {
	mu         sync.Mutex
	state      PollerState
	generation int
	cancel     context.CancelFunc

	source   TaskSource
	observer Observer
	interval time.Duration
	logger   *logrus.Entry
}

// NewPoller creates a Poller. A non-positive interval falls back to
// DefaultPollInterval.
func NewPoller(source TaskSource, observer Observer, interval time.Duration, logger *logrus.Entry) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{
		state:    StateIdle,
		source:   source,
		observer: observer,
		interval: interval,
		logger:   logger.WithField("component", "deploy-poller"),
	}
}

// State returns the current poller state.
func (p *Poller) State() PollerState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Start begins polling the given task. It fetches immediately, then once
// per interval. Calling Start while already polling supersedes the
// previous task. A stopped poller stays stopped; callers wanting another
// watch create a new Poller.
func (p *Poller) Start(taskID string) {
	p.mu.Lock()
	if p.state == StateStopped {
		p.mu.Unlock()
		p.logger.WithField("taskId", taskID).Warn("Ignoring Start on a stopped poller")
		return
	}
	if p.cancel != nil {
		p.cancel()
	}
	p.generation++
	gen := p.generation
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.state = StatePolling
	p.mu.Unlock()

	p.logger.WithField("taskId", taskID).Info("Start polling deploy task")
	go p.run(ctx, gen, taskID)
}

// Cancel stops polling from any state. It is safe to call at any time,
// including after the poller has already stopped on its own, and leaves
// the poller stopped for good.
func (p *Poller) Cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.state = StateStopped
}

func (p *Poller) run(ctx context.Context, gen int, taskID string) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	if p.poll(ctx, gen, taskID) {
		return
	}
	for {
		select {
		case <-ticker.C:
			if p.poll(ctx, gen, taskID) {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// poll performs one fetch and reports the result. It returns true when
// polling for this task should stop.
func (p *Poller) poll(ctx context.Context, gen int, taskID string) bool {
	// Each fetch gets at most one interval so a slow source cannot pile
	// up requests behind the ticker.
	fetchCtx, cancel := context.WithTimeout(ctx, p.interval)
	task, err := p.source.FetchDeployTask(fetchCtx, taskID)
	cancel()

	p.mu.Lock()
	stale := gen != p.generation || p.state != StatePolling
	p.mu.Unlock()
	if stale {
		return true
	}

	if err != nil {
		if ctx.Err() != nil {
			return true
		}
		p.logger.WithField("taskId", taskID).Warnf("Fetch failed: %v", err)
		p.observer.OnError(err)
		return false
	}

	progress, perr := task.TargetProgress()
	if perr != nil {
		p.logger.WithField("taskId", taskID).Warnf("Bad progress payload: %v", perr)
		p.observer.OnError(perr)
		return false
	}
	p.observer.OnProgress(task, Aggregate(progress))

	if task.Status.Terminal() {
		p.mu.Lock()
		if gen == p.generation {
			p.state = StateStopped
			if p.cancel != nil {
				p.cancel()
				p.cancel = nil
			}
		}
		p.mu.Unlock()
		p.logger.WithField("taskId", taskID).Infof("Task reached terminal status %s", task.Status)
		p.observer.OnDone(task)
		return true
	}
	return false
}
