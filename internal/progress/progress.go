package progress

import (
	"sync"

	"github.com/google/uuid"
)

// Phase keys reported while a job moves through the pipeline.
const (
	PhaseLoadModel   = "load-model"
	PhaseInference   = "inference"
	PhaseCompositing = "compositing"
	PhaseDone        = "done"
	PhaseFailed      = "failed"
)

// Update is one progress report for a job. Percent is the overall bar
// position in [0,100]; Message is only set for failures.
type Update struct {
	JobID   uuid.UUID `json:"job_id"`
	Phase   string    `json:"phase"`
	Percent float64   `json:"percent"`
	Message string    `json:"message,omitempty"`
}

// Hub keeps the latest progress per job and fans updates out to subscribers.
// The pipeline writes from the consumer goroutine; HTTP and websocket
// handlers read concurrently.
type Hub struct {
	mu     sync.RWMutex
	latest map[uuid.UUID]Update
	subs   map[uuid.UUID][]chan Update
}

func NewHub() *Hub {
	return &Hub{
		latest: make(map[uuid.UUID]Update),
		subs:   make(map[uuid.UUID][]chan Update),
	}
}

// Publish records the update as the job's latest state and delivers it to
// subscribers. Slow subscribers miss intermediate updates instead of
// blocking the pipeline.
func (h *Hub) Publish(u Update) {
	if u.Percent < 0 {
		u.Percent = 0
	}
	if u.Percent > 100 {
		u.Percent = 100
	}

	// Deliveries happen outside the lock, so copy the subscriber list here;
	// a concurrent cancel edits the shared slice in place.
	h.mu.Lock()
	h.latest[u.JobID] = u
	subs := append([]chan Update(nil), h.subs[u.JobID]...)
	h.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- u:
		default:
		}
	}
}

// Latest returns the most recent update for a job.
func (h *Hub) Latest(jobID uuid.UUID) (Update, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	u, ok := h.latest[jobID]
	return u, ok
}

// Subscribe returns a channel of updates for the job and a cancel function
// that must be called when the subscriber is done.
func (h *Hub) Subscribe(jobID uuid.UUID) (<-chan Update, func()) {
	ch := make(chan Update, 16)

	h.mu.Lock()
	h.subs[jobID] = append(h.subs[jobID], ch)
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()

		subs := h.subs[jobID]
		for i, c := range subs {
			if c == ch {
				h.subs[jobID] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		if len(h.subs[jobID]) == 0 {
			delete(h.subs, jobID)
		}
	}

	return ch, cancel
}
