package notifysvc

import (
	"sync"

	"github.com/trezcool/masomo-console/core"
)

// Recorder keeps every notification in memory, in emission order.
type Recorder struct {
	mu   sync.Mutex
	sent []core.Notification
}

var _ core.Notifier = (*Recorder)(nil)

func NewRecorder() *Recorder {
	return new(Recorder)
}

func (r *Recorder) Notify(n core.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
}

// Sent returns a copy of the recorded notifications.
func (r *Recorder) Sent() []core.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]core.Notification(nil), r.sent...)
}

// Messages returns the recorded messages of the given level.
func (r *Recorder) Messages(level core.Level) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	msgs := make([]string, 0)
	for _, n := range r.sent {
		if n.Level == level {
			msgs = append(msgs, n.Message)
		}
	}
	return msgs
}

// Last returns the most recent notification, if any.
func (r *Recorder) Last() (core.Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.sent) == 0 {
		return core.Notification{}, false
	}
	return r.sent[len(r.sent)-1], true
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = nil
}
