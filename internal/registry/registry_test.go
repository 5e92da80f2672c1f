package registry_test

import (
	"errors"
	"sync"
	"testing"

	"editify-backend/internal/edits"
	"editify-backend/internal/registry"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRegistry() *registry.Registry {
	return registry.New(registry.Config{})
}

func pngUpload(name string) registry.Upload {
	data := []byte("\x89PNG\r\n\x1a\nfake")
	return registry.Upload{Name: name, ContentType: "image/png", Size: int64(len(data)), Data: data}
}

func mustAdd(t *testing.T, r *registry.Registry, name string) uuid.UUID {
	t.Helper()
	id, err := r.AddAsset(pngUpload(name))
	require.NoError(t, err)
	return id
}

func brightness(v float64) edits.PatchFunc {
	p, _ := edits.SetFilter(edits.Brightness, v)
	return p
}

func contrast(v float64) edits.PatchFunc {
	p, _ := edits.SetFilter(edits.Contrast, v)
	return p
}

func TestAddAsset_Defaults(t *testing.T) {
	r := newRegistry()
	id := mustAdd(t, r, "photo.png")

	a, err := r.Get(id)
	require.NoError(t, err)
	assert.Equal(t, registry.KindImage, a.Kind)
	assert.False(t, a.Edited)
	assert.True(t, a.State.IsDefault())
	assert.Equal(t, id, r.Selection().AssetID)

	h, err := r.History(id)
	require.NoError(t, err)
	assert.Len(t, h, 1)
	assert.True(t, h[0].State.IsDefault())
}

func TestAddAsset_UniqueIDs(t *testing.T) {
	r := newRegistry()
	seen := map[uuid.UUID]bool{}
	for i := 0; i < 50; i++ {
		id := mustAdd(t, r, "a.png")
		assert.False(t, seen[id])
		seen[id] = true
	}
}

func TestAddAsset_FileTooLarge(t *testing.T) {
	r := newRegistry()
	_, err := r.AddAsset(registry.Upload{Name: "big.mp4", ContentType: "video/mp4", Size: 150 << 20})

	require.Error(t, err)
	assert.ErrorIs(t, err, registry.ErrFileTooLarge)
	var tooLarge *registry.FileTooLargeError
	require.True(t, errors.As(err, &tooLarge))
	assert.Equal(t, int64(100<<20), tooLarge.Limit)
	assert.Contains(t, err.Error(), "100 MB")
	assert.Equal(t, 0, r.Len())
}

func TestAddAsset_UnsupportedKind(t *testing.T) {
	r := newRegistry()
	_, err := r.AddAsset(registry.Upload{Name: "notes.pdf", ContentType: "application/pdf", Size: 10})

	assert.ErrorIs(t, err, registry.ErrUnsupportedMediaKind)
	assert.Equal(t, 0, r.Len())
	assert.Equal(t, uuid.Nil, r.Selection().AssetID)
}

func TestAddAsset_Video(t *testing.T) {
	r := newRegistry()
	id, err := r.AddAsset(registry.Upload{Name: "clip.mp4", ContentType: "video/mp4", Size: 3, Data: []byte{1, 2, 3}})
	require.NoError(t, err)

	a, err := r.Get(id)
	require.NoError(t, err)
	assert.Equal(t, registry.KindVideo, a.Kind)
}

func TestCommitAndUndo(t *testing.T) {
	r := newRegistry()
	id := mustAdd(t, r, "a.png")

	_, err := r.CommitEdit(id, brightness(20))
	require.NoError(t, err)
	s, err := r.CommitEdit(id, contrast(-10))
	require.NoError(t, err)
	assert.Equal(t, edits.Filters{Brightness: 20, Contrast: -10}, s.Filters)

	h, _ := r.History(id)
	assert.Len(t, h, 3)

	s, err = r.Undo(id)
	require.NoError(t, err)
	assert.Equal(t, edits.Filters{Brightness: 20}, s.Filters)
	h, _ = r.History(id)
	assert.Len(t, h, 2)

	a, _ := r.Get(id)
	assert.True(t, a.Edited)
}

func TestUndo_NoopWithSingleEntry(t *testing.T) {
	r := newRegistry()
	id := mustAdd(t, r, "a.png")

	before, _ := r.Get(id)
	s, err := r.Undo(id)
	require.NoError(t, err)
	assert.Equal(t, before.State, s)

	h, _ := r.History(id)
	assert.Len(t, h, 1)
}

func TestUndo_RoundTrip(t *testing.T) {
	r := newRegistry()
	id := mustAdd(t, r, "a.png")
	_, err := r.CommitEdit(id, brightness(10))
	require.NoError(t, err)

	before, _ := r.Get(id)
	_, err = r.CommitEdit(id, contrast(40))
	require.NoError(t, err)
	after, err := r.Undo(id)
	require.NoError(t, err)
	assert.Equal(t, before.State, after)
}

func TestHistoryCap(t *testing.T) {
	r := newRegistry()
	id := mustAdd(t, r, "a.png")
	for i := 1; i <= 25; i++ {
		_, err := r.CommitEdit(id, brightness(float64(i)))
		require.NoError(t, err)
	}
	h, _ := r.History(id)
	assert.Len(t, h, 20)
	assert.Equal(t, float64(25), h[19].State.Filters.Brightness)
}

func TestHistoryIsPerAsset(t *testing.T) {
	r := newRegistry()
	a := mustAdd(t, r, "a.png")
	b := mustAdd(t, r, "b.png")

	_, err := r.CommitEdit(a, brightness(30))
	require.NoError(t, err)
	_, err = r.Undo(b)
	require.NoError(t, err)

	sa, _ := r.Get(a)
	assert.Equal(t, float64(30), sa.State.Filters.Brightness)
}

func TestCommit_PatchFailureLeavesStateUntouched(t *testing.T) {
	r := newRegistry()
	id := mustAdd(t, r, "a.png")

	_, err := r.CommitEdit(id, brightness(500))
	assert.ErrorIs(t, err, edits.ErrPatchApplication)

	a, _ := r.Get(id)
	assert.True(t, a.State.IsDefault())
	assert.False(t, a.Edited)
	h, _ := r.History(id)
	assert.Len(t, h, 1)
}

func TestCommit_UnknownAsset(t *testing.T) {
	r := newRegistry()
	_, err := r.CommitEdit(uuid.New(), brightness(1))
	assert.ErrorIs(t, err, registry.ErrAssetNotFound)

	_, err = r.Undo(uuid.New())
	assert.ErrorIs(t, err, registry.ErrAssetNotFound)

	assert.ErrorIs(t, r.RemoveAsset(uuid.New()), registry.ErrAssetNotFound)
}

func TestCommitGesture_CoalescesDrag(t *testing.T) {
	r := newRegistry()
	id := mustAdd(t, r, "a.png")

	for _, v := range []float64{5, 10, 15, 20} {
		_, err := r.CommitGesture(id, "drag-1", brightness(v))
		require.NoError(t, err)
	}
	h, _ := r.History(id)
	assert.Len(t, h, 2)

	_, err := r.CommitGesture(id, "drag-2", contrast(10))
	require.NoError(t, err)
	h, _ = r.History(id)
	assert.Len(t, h, 3)

	s, err := r.Undo(id)
	require.NoError(t, err)
	assert.Equal(t, edits.Filters{Brightness: 20}, s.Filters)
	s, err = r.Undo(id)
	require.NoError(t, err)
	assert.True(t, s.IsDefault())
}

func TestRemoveAsset_ActivatesFirstRemaining(t *testing.T) {
	r := newRegistry()
	a := mustAdd(t, r, "a.png")
	b := mustAdd(t, r, "b.png")
	c := mustAdd(t, r, "c.png")
	require.Equal(t, c, r.Selection().AssetID)

	asset, _ := r.Get(c)
	released := make(chan uuid.UUID, 3)
	r.OnRelease(func(id uuid.UUID) { released <- id })

	require.NoError(t, r.RemoveAsset(c))
	assert.Equal(t, a, r.Selection().AssetID)
	assert.Equal(t, c, <-released)
	assert.True(t, asset.Media.Released())
	_, err := asset.Media.Bytes()
	assert.ErrorIs(t, err, registry.ErrMediaReleased)

	require.NoError(t, r.RemoveAsset(b))
	assert.Equal(t, b, <-released)
	assert.Equal(t, a, r.Selection().AssetID)
	require.NoError(t, r.RemoveAsset(a))
	assert.Equal(t, a, <-released)
	assert.Equal(t, uuid.Nil, r.Selection().AssetID)

	_, err = r.History(a)
	assert.ErrorIs(t, err, registry.ErrAssetNotFound)
}

func TestRemoveAsset_KeepsOtherSelection(t *testing.T) {
	r := newRegistry()
	a := mustAdd(t, r, "a.png")
	b := mustAdd(t, r, "b.png")
	r.SetActive(a)

	require.NoError(t, r.RemoveAsset(b))
	assert.Equal(t, a, r.Selection().AssetID)
}

func TestSetActive_UnknownIsNoop(t *testing.T) {
	r := newRegistry()
	a := mustAdd(t, r, "a.png")
	r.SetActive(uuid.New())
	assert.Equal(t, a, r.Selection().AssetID)
}

func TestSetActiveTab(t *testing.T) {
	r := newRegistry()
	require.NoError(t, r.SetActiveTab(registry.TabCrop))
	assert.Equal(t, registry.TabCrop, r.Selection().Tab)
	require.NoError(t, r.SetActiveTab(registry.TabNone))
	assert.Equal(t, registry.TabNone, r.Selection().Tab)
	assert.ErrorIs(t, r.SetActiveTab("layers"), registry.ErrInvalidTab)
}

func TestProcessingFlag(t *testing.T) {
	r := newRegistry()
	id := mustAdd(t, r, "a.png")

	require.NoError(t, r.BeginProcessing(id))
	assert.True(t, r.IsProcessing(id))
	assert.True(t, r.Processing())
	assert.ErrorIs(t, r.BeginProcessing(id), registry.ErrAlreadyProcessing)

	r.EndProcessing(id)
	assert.False(t, r.Processing())
	assert.ErrorIs(t, r.BeginProcessing(uuid.New()), registry.ErrAssetNotFound)
}

func TestProcessing_RefusesUserEdits(t *testing.T) {
	r := newRegistry()
	id := mustAdd(t, r, "a.png")
	_, err := r.CommitEdit(id, brightness(10))
	require.NoError(t, err)

	require.NoError(t, r.BeginProcessing(id))
	_, err = r.CommitEdit(id, brightness(20))
	assert.ErrorIs(t, err, registry.ErrAlreadyProcessing)
	_, err = r.CommitGesture(id, "drag", brightness(30))
	assert.ErrorIs(t, err, registry.ErrAlreadyProcessing)
	_, err = r.Undo(id)
	assert.ErrorIs(t, err, registry.ErrAlreadyProcessing)

	p, _ := edits.AddEffect("vignette")
	s, err := r.CommitProcessed(id, p)
	require.NoError(t, err)
	assert.Equal(t, float64(10), s.Filters.Brightness)
	assert.Len(t, s.Effects, 1)

	r.EndProcessing(id)
	h, err := r.History(id)
	require.NoError(t, err)
	assert.Len(t, h, 3)
	s, err = r.Undo(id)
	require.NoError(t, err)
	assert.Empty(t, s.Effects)
}

func TestRestoreAsset(t *testing.T) {
	r := newRegistry()
	state := edits.Default()
	state.Filters.Saturation = -100

	id, err := r.RestoreAsset(pngUpload("saved.png"), state)
	require.NoError(t, err)
	a, _ := r.Get(id)
	assert.True(t, a.Edited)
	assert.Equal(t, state, a.State)

	state.Filters.Saturation = -300
	_, err = r.RestoreAsset(pngUpload("bad.png"), state)
	assert.ErrorIs(t, err, edits.ErrPatchApplication)
}

func TestSnapshotsAreIsolated(t *testing.T) {
	r := newRegistry()
	id := mustAdd(t, r, "a.png")
	p, _ := edits.AddEffect("vignette")
	_, err := r.CommitEdit(id, p)
	require.NoError(t, err)

	a, _ := r.Get(id)
	a.State.Effects[0].Intensity = 1

	b, _ := r.Get(id)
	assert.Equal(t, float64(50), b.State.Effects[0].Intensity)
}

func TestConcurrentCommits(t *testing.T) {
	r := newRegistry()
	id := mustAdd(t, r, "a.png")
	p, _ := edits.AddEffect("noise")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = r.CommitEdit(id, p)
		}()
	}
	wg.Wait()

	a, _ := r.Get(id)
	assert.Len(t, a.State.Effects, 10)
	h, _ := r.History(id)
	assert.Len(t, h, 11)
}
