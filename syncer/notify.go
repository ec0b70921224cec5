package syncer

import (
	"sync"
	"time"

	"github.com/nmcp-sl/supervise/log"
)

// Notice is one transient user-visible message. Every state transition
// (submitted online, saved offline, synced N items, draft saved/loaded/
// deleted, connectivity change) produces exactly one.
type Notice struct {
	Time    time.Time `json:"time"`
	Level   string    `json:"level"` // success | info | warning | error
	Message string    `json:"message"`
}

type Notifier interface {
	Notify(level, message string)
}

// LogNotifier logs every notice and keeps a small ring of recent ones for
// the status endpoint.
type LogNotifier struct {
	mu      sync.Mutex
	recent  []Notice
	maxKeep int
}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{maxKeep: 20}
}

func (n *LogNotifier) Notify(level, message string) {
	switch level {
	case "warning":
		log.Warn(message)
	case "error":
		log.Error(message)
	default:
		log.Info(message)
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	n.recent = append(n.recent, Notice{Time: time.Now(), Level: level, Message: message})
	if len(n.recent) > n.maxKeep {
		n.recent = n.recent[len(n.recent)-n.maxKeep:]
	}
}

func (n *LogNotifier) Recent() []Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Notice, len(n.recent))
	copy(out, n.recent)
	return out
}
