package form

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"marketplace-gateway/internal/common/logger"
	"marketplace-gateway/internal/models"
)

// Instance is one live form: a session's draft of one form screen.
type Instance struct {
	Key       string
	Form      string
	SessionID string
	Draft     *Draft

	state    atomic.Value // models.SubmissionState
	lastUsed atomic.Int64
}

func newInstance(sessionID, form string, defaults map[string]interface{}, resetDelay time.Duration) *Instance {
	inst := &Instance{
		Key:       InstanceKey(sessionID, form),
		Form:      form,
		SessionID: sessionID,
		Draft:     NewDraft(defaults, resetDelay),
	}
	inst.state.Store(models.StateIdle)
	inst.touch()
	return inst
}

// InstanceKey identifies an instance across replicas.
func InstanceKey(sessionID, form string) string {
	return sessionID + ":" + form
}

func (i *Instance) State() models.SubmissionState {
	return i.state.Load().(models.SubmissionState)
}

// begin moves the instance into submitting unless it already is, returning
// the state it left.
func (i *Instance) begin() (models.SubmissionState, bool) {
	for {
		cur := i.State()
		if cur == models.StateSubmitting {
			return cur, false
		}
		if i.state.CompareAndSwap(cur, models.StateSubmitting) {
			i.touch()
			return cur, true
		}
	}
}

func (i *Instance) finish(s models.SubmissionState) {
	i.state.Store(s)
	i.touch()
}

func (i *Instance) touch() {
	i.lastUsed.Store(time.Now().UnixNano())
}

func (i *Instance) idleSince() time.Time {
	return time.Unix(0, i.lastUsed.Load())
}

// Instances hands out one Instance per session and form.
type Instances struct {
	mu         sync.Mutex
	items      map[string]*Instance
	resetDelay time.Duration
	idle       time.Duration
	logger     logger.Logger
}

func NewInstances(resetDelay, idle time.Duration, log logger.Logger) *Instances {
	return &Instances{
		items:      make(map[string]*Instance),
		resetDelay: resetDelay,
		idle:       idle,
		logger:     log,
	}
}

// Acquire returns the existing instance or creates one seeded with defaults.
// created reports whether this call made it.
func (r *Instances) Acquire(sessionID, form string, defaults map[string]interface{}) (inst *Instance, created bool) {
	key := InstanceKey(sessionID, form)

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.items[key]; ok {
		existing.touch()
		return existing, false
	}
	inst = newInstance(sessionID, form, defaults, r.resetDelay)
	r.items[key] = inst
	return inst, true
}

// Lookup returns the instance without creating one.
func (r *Instances) Lookup(sessionID, form string) (*Instance, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inst, ok := r.items[InstanceKey(sessionID, form)]
	return inst, ok
}

// RemoveSession drops every instance of a session, e.g. on logout.
func (r *Instances) RemoveSession(sessionID string) {
	r.mu.Lock()
	var closing []*Instance
	for key, inst := range r.items {
		if inst.SessionID == sessionID {
			closing = append(closing, inst)
			delete(r.items, key)
		}
	}
	r.mu.Unlock()

	for _, inst := range closing {
		inst.Draft.Close()
	}
}

func (r *Instances) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// Sweep closes instances idle for longer than the idle window. Instances with a
// submission in flight are never swept.
func (r *Instances) Sweep(now time.Time) int {
	r.mu.Lock()
	var closing []*Instance
	for key, inst := range r.items {
		if inst.State() == models.StateSubmitting {
			continue
		}
		if now.Sub(inst.idleSince()) > r.idle {
			closing = append(closing, inst)
			delete(r.items, key)
		}
	}
	r.mu.Unlock()

	for _, inst := range closing {
		inst.Draft.Close()
	}
	return len(closing)
}

// Run sweeps every interval until ctx is done, then closes what is left.
func (r *Instances) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.Close()
			return nil
		case now := <-ticker.C:
			if n := r.Sweep(now); n > 0 {
				r.logger.Debug("swept idle form instances", map[string]interface{}{
					"count":     n,
					"remaining": r.Len(),
				})
			}
		}
	}
}

func (r *Instances) Close() {
	r.mu.Lock()
	items := r.items
	r.items = make(map[string]*Instance)
	r.mu.Unlock()

	for _, inst := range items {
		inst.Draft.Close()
	}
}
