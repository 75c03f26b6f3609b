package form

import (
	"testing"
	"time"

	"marketplace-gateway/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// verifyNoLeaks must be deferred before the draft's Close so it runs after it.
func verifyNoLeaks(t *testing.T) func() {
	opt := goleak.IgnoreCurrent()
	return func() { goleak.VerifyNone(t, opt) }
}

func pngFile(content string) *models.FileRef {
	return &models.FileRef{Filename: "p.png", ContentType: "image/png", Size: int64(len(content)), Content: []byte(content)}
}

// ==========================
// Get / Set
// ==========================

func TestDraft_SetClearsOnlyThatFieldsError(t *testing.T) {
	d := NewDraft(nil, 0)
	defer d.Close()

	d.SetErrors(models.ErrorSet{"name": "Shop name is required", "street": "Street is required"})
	d.Set("name", "My Shop")

	assert.Equal(t, "My Shop", d.GetString("name"))
	assert.Equal(t, models.ErrorSet{"street": "Street is required"}, d.Errors())
}

func TestDraft_SetNilRemoves(t *testing.T) {
	d := NewDraft(map[string]interface{}{"region": "NCR"}, 0)
	defer d.Close()

	d.Set("region", nil)
	_, ok := d.Get("region")
	assert.False(t, ok)
}

func TestDraft_MergeServerErrors(t *testing.T) {
	d := NewDraft(nil, 0)
	defer d.Close()

	d.SetErrors(models.ErrorSet{"price": "client says no", "name": "Name too short"})
	d.MergeServerErrors(models.ErrorSet{"price": "Please enter a valid price"})

	assert.Equal(t, models.ErrorSet{
		"price": "Please enter a valid price",
		"name":  "Name too short",
	}, d.Errors())
}

// ==========================
// Image previews
// ==========================

func TestDraft_ImagePreview(t *testing.T) {
	defer verifyNoLeaks(t)()
	d := NewDraft(nil, 0)
	defer d.Close()

	d.Set("picture", pngFile("abc"))
	d.WaitPreviews()

	uri, ok := d.ImagePreview("picture")
	require.True(t, ok)
	assert.Equal(t, "data:image/png;base64,YWJj", uri)
}

func TestDraft_StalePreviewDiscarded(t *testing.T) {
	defer verifyNoLeaks(t)()
	d := NewDraft(nil, 0)
	defer d.Close()

	d.Set("picture", pngFile("first"))
	d.Set("picture", pngFile("second"))
	d.WaitPreviews()

	uri, ok := d.ImagePreview("picture")
	require.True(t, ok)
	assert.Equal(t, "data:image/png;base64,c2Vjb25k", uri)

	d.Set("picture", nil)
	d.WaitPreviews()
	_, ok = d.ImagePreview("picture")
	assert.False(t, ok)
}

func TestDraft_NonImageHasNoPreview(t *testing.T) {
	d := NewDraft(nil, 0)
	defer d.Close()

	d.Set("media", &models.FileRef{Filename: "v.mp4", ContentType: "video/mp4", Size: 3})
	d.WaitPreviews()
	_, ok := d.ImagePreview("media")
	assert.False(t, ok)
}

// ==========================
// Reset
// ==========================

func TestDraft_ResetIsDebounced(t *testing.T) {
	defer verifyNoLeaks(t)()
	d := NewDraft(map[string]interface{}{"region": "NCR"}, 20*time.Millisecond)
	defer d.Close()

	d.Set("name", "My Shop")
	d.Reset()
	assert.Equal(t, "My Shop", d.GetString("name"), "values stay until the delay elapses")
	assert.True(t, d.ResetPending())

	assert.Eventually(t, func() bool { return d.GetString("name") == "" }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "NCR", d.GetString("region"))
	assert.False(t, d.ResetPending())
}

func TestDraft_SetCancelsPendingReset(t *testing.T) {
	d := NewDraft(nil, 20*time.Millisecond)
	defer d.Close()

	d.Set("name", "before")
	d.Reset()
	d.Set("name", "after")
	assert.False(t, d.ResetPending())

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, "after", d.GetString("name"))
}

func TestDraft_ResetNowDropsPreviewsAndErrors(t *testing.T) {
	d := NewDraft(nil, 0)
	defer d.Close()

	d.Set("picture", pngFile("abc"))
	d.SetErrors(models.ErrorSet{"name": "required"})
	d.ResetNow()
	d.WaitPreviews()

	_, ok := d.ImagePreview("picture")
	assert.False(t, ok)
	assert.Empty(t, d.Errors())
	assert.Empty(t, d.Values())
}

func TestDraft_CloseStopsTimer(t *testing.T) {
	defer verifyNoLeaks(t)()
	d := NewDraft(nil, time.Hour)
	d.Set("name", "x")
	d.Reset()
	d.Close()

	d.Set("name", "ignored")
	assert.Equal(t, "x", d.GetString("name"))
}

// ==========================
// Snapshot
// ==========================

func TestDraft_SnapshotSkipsFiles(t *testing.T) {
	d := NewDraft(nil, 0)
	defer d.Close()

	d.Set("name", "My Shop")
	d.Set("stock", 3)
	d.Set("picture", pngFile("abc"))
	d.WaitPreviews()
	d.SetErrors(models.ErrorSet{"street": "Street is required"})

	snap := d.Snapshot()
	assert.Equal(t, map[string]string{"name": "My Shop", "stock": "3"}, snap.Values)

	restored := NewDraft(nil, 0)
	defer restored.Close()
	restored.Restore(snap)
	assert.Equal(t, "My Shop", restored.GetString("name"))
	assert.Equal(t, "Street is required", restored.Errors()["street"])
}
