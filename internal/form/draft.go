// Package form holds per-instance form state and the submission protocol.
package form

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"sync"
	"time"

	"marketplace-gateway/internal/models"
)

// DefaultResetDelay lets a closing dialog finish animating before its fields clear.
const DefaultResetDelay = 300 * time.Millisecond

// Draft is the in-memory record of one form instance's field values.
type Draft struct {
	mu       sync.Mutex
	values   map[string]interface{}
	defaults map[string]interface{}
	errors   models.ErrorSet
	previews map[string]string
	gen      map[string]uint64

	resetDelay time.Duration
	resetTimer *time.Timer
	resetSeq   uint64
	closed     bool

	previewWG sync.WaitGroup
}

// NewDraft starts a draft holding a copy of defaults.
func NewDraft(defaults map[string]interface{}, resetDelay time.Duration) *Draft {
	if resetDelay <= 0 {
		resetDelay = DefaultResetDelay
	}
	return &Draft{
		values:     copyValues(defaults),
		defaults:   copyValues(defaults),
		errors:     make(models.ErrorSet),
		previews:   make(map[string]string),
		gen:        make(map[string]uint64),
		resetDelay: resetDelay,
	}
}

// Get returns the current value of field.
func (d *Draft) Get(field string) (interface{}, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, ok := d.values[field]
	return v, ok
}

// GetString returns field formatted as a string, or "" when unset or a file.
func (d *Draft) GetString(field string) string {
	v, ok := d.Get(field)
	if !ok {
		return ""
	}
	return stringValue(v)
}

// Set writes field and clears that field's error. File values start a
// background preview; Set itself never waits for it. A nil value removes the field.
func (d *Draft) Set(field string, value interface{}) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}

	d.stopResetLocked()

	if value == nil {
		delete(d.values, field)
	} else {
		d.values[field] = value
	}
	d.errors.Clear(field)

	d.gen[field]++
	delete(d.previews, field)

	if file, ok := value.(*models.FileRef); ok && file.IsImage() {
		gen := d.gen[field]
		d.previewWG.Add(1)
		go d.generatePreview(field, gen, file)
	}
}

func (d *Draft) generatePreview(field string, gen uint64, file *models.FileRef) {
	defer d.previewWG.Done()

	uri := fmt.Sprintf("data:%s;base64,%s", file.ContentType, base64.StdEncoding.EncodeToString(file.Content))

	d.mu.Lock()
	defer d.mu.Unlock()
	// superseded by a later Set, a reset or Close
	if d.closed || d.gen[field] != gen {
		return
	}
	d.previews[field] = uri
}

// ImagePreview returns the data URI generated for a file field, once ready.
func (d *Draft) ImagePreview(field string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	uri, ok := d.previews[field]
	return uri, ok
}

// Previews returns every ready preview by field.
func (d *Draft) Previews() map[string]string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make(map[string]string, len(d.previews))
	for k, v := range d.previews {
		out[k] = v
	}
	return out
}

// WaitPreviews blocks until every started preview has finished.
func (d *Draft) WaitPreviews() {
	d.previewWG.Wait()
}

// Values returns a shallow copy of all field values.
func (d *Draft) Values() map[string]interface{} {
	d.mu.Lock()
	defer d.mu.Unlock()
	return copyValues(d.values)
}

// Errors returns a copy of the current error set.
func (d *Draft) Errors() models.ErrorSet {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.errors.Clone()
}

// SetErrors replaces the whole error set, as client validation does.
func (d *Draft) SetErrors(errs models.ErrorSet) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.errors = errs.Clone()
}

// MergeServerErrors overwrites the entries for the fields the server named.
// Client errors on other fields persist.
func (d *Draft) MergeServerErrors(errs models.ErrorSet) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.errors.Merge(errs)
}

// Reset schedules a return to defaults after the reset delay, as when the user
// dismisses the form. Calling it again restarts the delay; a Set in between
// cancels it.
func (d *Draft) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.stopResetLocked()
	seq := d.resetSeq
	d.resetTimer = time.AfterFunc(d.resetDelay, func() { d.fireReset(seq) })
}

func (d *Draft) fireReset(seq uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	// cancelled or rescheduled after the timer had already fired
	if d.closed || seq != d.resetSeq {
		return
	}
	d.resetLocked()
}

// ResetPending reports whether a Reset is scheduled.
func (d *Draft) ResetPending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.resetTimer != nil
}

// ResetNow clears the draft back to its defaults immediately.
func (d *Draft) ResetNow() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopResetLocked()
	d.resetLocked()
}

func (d *Draft) resetLocked() {
	d.resetTimer = nil
	d.values = copyValues(d.defaults)
	d.errors = make(models.ErrorSet)
	d.previews = make(map[string]string)
	for field := range d.gen {
		d.gen[field]++
	}
}

// Close stops timers and waits for preview goroutines.
func (d *Draft) Close() {
	d.mu.Lock()
	d.closed = true
	d.stopResetLocked()
	d.mu.Unlock()
	d.previewWG.Wait()
}

func (d *Draft) stopResetLocked() {
	d.resetSeq++
	if d.resetTimer != nil {
		d.resetTimer.Stop()
		d.resetTimer = nil
	}
}

// Snapshot is the persistable part of a draft: plain values and errors.
type Snapshot struct {
	Values map[string]string `json:"values"`
	Errors models.ErrorSet   `json:"errors,omitempty"`
}

// Snapshot captures scalar values; files and structured values are skipped.
func (d *Draft) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	snap := Snapshot{Values: make(map[string]string), Errors: d.errors.Clone()}
	for k, v := range d.values {
		switch v.(type) {
		case string, bool, int, int64, float64:
			snap.Values[k] = stringValue(v)
		}
	}
	return snap
}

// Restore loads a snapshot over the current values.
func (d *Draft) Restore(snap Snapshot) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for k, v := range snap.Values {
		d.values[k] = v
	}
	d.errors.Merge(snap.Errors)
}

func copyValues(in map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func stringValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case *models.FileRef:
		return ""
	default:
		return fmt.Sprint(val)
	}
}
