package ws

import (
	"sync"
	"time"

	socketio "github.com/googollee/go-socket.io"
	"github.com/sirupsen/logrus"

	"go_fleet/internal/classify"
	"go_fleet/internal/deploy"
	"go_fleet/internal/model"
)

// WatchRequest is the payload of a deploy:watch event.
type WatchRequest struct {
	TaskID string `json:"taskId"`
}

// ProgressEvent is pushed as deploy:progress after every poll.
type ProgressEvent struct {
	TaskID  string         `json:"taskId"`
	Status  string         `json:"status"`
	Summary deploy.Summary `json:"summary"`
}

// DoneEvent is pushed once as deploy:done when the task finishes.
type DoneEvent struct {
	TaskID string `json:"taskId"`
	Status string `json:"status"`
}

// ErrorEvent is pushed as deploy:error when a poll fails. The watch
// stays active; polling continues.
type ErrorEvent struct {
	TaskID   string             `json:"taskId"`
	Error    string             `json:"error"`
	Category *classify.Category `json:"category,omitempty"`
}

// connObserver forwards poll results to one Socket.IO connection.
type connObserver struct {
	conn   socketio.Conn
	taskID string
}

func (o *connObserver) OnProgress(task *model.DeployTask, summary deploy.Summary) {
	o.conn.Emit("deploy:progress", ProgressEvent{
		TaskID:  o.taskID,
		Status:  string(task.Status),
		Summary: summary,
	})
}

func (o *connObserver) OnDone(task *model.DeployTask) {
	o.conn.Emit("deploy:done", DoneEvent{
		TaskID: o.taskID,
		Status: string(task.Status),
	})
}

func (o *connObserver) OnError(err error) {
	cat := classify.Classify(err.Error())
	o.conn.Emit("deploy:error", ErrorEvent{
		TaskID:   o.taskID,
		Error:    err.Error(),
		Category: &cat,
	})
}

// watchRegistry keeps one poller per connection. A new watch replaces
// the previous one and a disconnect tears the poller down.
type watchRegistry struct {
	mu       sync.Mutex
	pollers  map[string]*deploy.Poller
	source   deploy.TaskSource
	interval time.Duration
	logger   *logrus.Entry
}

func newWatchRegistry(source deploy.TaskSource, pollIntervalSec int, logger *logrus.Entry) *watchRegistry {
	return &watchRegistry{
		pollers:  make(map[string]*deploy.Poller),
		source:   source,
		interval: time.Duration(pollIntervalSec) * time.Second,
		logger:   logger.WithField("component", "deploy-watch"),
	}
}

func (r *watchRegistry) handleWatch(s socketio.Conn, req WatchRequest) {
	if req.TaskID == "" {
		s.Emit("deploy:error", ErrorEvent{Error: "taskId is required"})
		return
	}

	poller := deploy.NewPoller(r.source, &connObserver{conn: s, taskID: req.TaskID}, r.interval, r.logger)

	r.mu.Lock()
	if old, ok := r.pollers[s.ID()]; ok {
		old.Cancel()
	}
	r.pollers[s.ID()] = poller
	r.mu.Unlock()

	r.logger.WithField("taskId", req.TaskID).Info("Client watching deploy task")
	poller.Start(req.TaskID)
}

func (r *watchRegistry) handleUnwatch(s socketio.Conn) {
	r.mu.Lock()
	poller, ok := r.pollers[s.ID()]
	delete(r.pollers, s.ID())
	r.mu.Unlock()
	if ok {
		poller.Cancel()
	}
}

func (r *watchRegistry) drop(id string) {
	r.mu.Lock()
	poller, ok := r.pollers[id]
	delete(r.pollers, id)
	r.mu.Unlock()
	if ok {
		poller.Cancel()
	}
}
