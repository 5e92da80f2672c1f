// Package registry owns the uploaded assets, their edit history and the
// editor's active selection. All mutations are serialised; patches run on
// private copies and are published only once validated.
package registry

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"editify-backend/internal/edits"
	"editify-backend/internal/history"

	"github.com/google/uuid"
)

const DefaultMaxUploadBytes int64 = 100 << 20

type Tab string

const (
	TabNone       Tab = ""
	TabAdjust     Tab = "adjust"
	TabFilters    Tab = "filters"
	TabEffects    Tab = "effects"
	TabText       Tab = "text"
	TabBackground Tab = "background"
	TabCrop       Tab = "crop"
)

var Tabs = []Tab{TabAdjust, TabFilters, TabEffects, TabText, TabBackground, TabCrop}

// Upload carries the three facts the registry reads from an uploaded file.
type Upload struct {
	Name        string
	ContentType string
	Size        int64
	Data        []byte
}

type Asset struct {
	ID          uuid.UUID       `json:"id"`
	Kind        Kind            `json:"kind"`
	Name        string          `json:"name"`
	ContentType string          `json:"content_type"`
	Size        int64           `json:"size"`
	CreatedAt   time.Time       `json:"created_at"`
	Edited      bool            `json:"edited"`
	State       edits.EditState `json:"state"`
	Media       *Media          `json:"-"`
}

type Selection struct {
	AssetID uuid.UUID `json:"asset_id"`
	Tab     Tab       `json:"tab"`
}

type Config struct {
	MaxUploadBytes  int64
	HistoryCapacity int
}

type entry struct {
	asset      Asset
	history    *history.Log
	gesture    string
	processing bool
}

type Registry struct {
	mu        sync.Mutex
	cfg       Config
	assets    map[uuid.UUID]*entry
	order     []uuid.UUID
	issued    map[uuid.UUID]struct{}
	selection Selection
	onRelease []func(uuid.UUID)

	now   func() time.Time
	newID func() uuid.UUID
}

func New(cfg Config) *Registry {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if cfg.HistoryCapacity <= 0 {
		cfg.HistoryCapacity = history.DefaultCapacity
	}
	return &Registry{
		cfg:    cfg,
		assets: make(map[uuid.UUID]*entry),
		issued: make(map[uuid.UUID]struct{}),
		now:    time.Now,
		newID:  uuid.New,
	}
}

// OnRelease registers a hook run after an asset is removed.
func (r *Registry) OnRelease(fn func(uuid.UUID)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onRelease = append(r.onRelease, fn)
}

func (r *Registry) MaxUploadBytes() int64 {
	return r.cfg.MaxUploadBytes
}

// AddAsset registers an upload with a default edit state and makes it active.
func (r *Registry) AddAsset(up Upload) (uuid.UUID, error) {
	return r.add(up, edits.Default())
}

// RestoreAsset registers an upload with a previously saved state.
func (r *Registry) RestoreAsset(up Upload, state edits.EditState) (uuid.UUID, error) {
	if err := edits.Validate(state); err != nil {
		return uuid.Nil, err
	}
	return r.add(up, state)
}

func (r *Registry) add(up Upload, state edits.EditState) (uuid.UUID, error) {
	size := up.Size
	if size == 0 {
		size = int64(len(up.Data))
	}
	if size > r.cfg.MaxUploadBytes {
		return uuid.Nil, &FileTooLargeError{Limit: r.cfg.MaxUploadBytes, Size: size}
	}
	kind, ok := KindOf(up.ContentType)
	if !ok {
		return uuid.Nil, fmt.Errorf("%w: %q", ErrUnsupportedMediaKind, up.ContentType)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.newID()
	for r.taken(id) {
		id = r.newID()
	}

	now := r.now()
	hist := history.New(r.cfg.HistoryCapacity)
	hist.Append(state, now)

	r.issued[id] = struct{}{}
	r.assets[id] = &entry{
		asset: Asset{
			ID:          id,
			Kind:        kind,
			Name:        up.Name,
			ContentType: up.ContentType,
			Size:        size,
			CreatedAt:   now,
			Edited:      !state.IsDefault(),
			State:       state.Clone(),
			Media:       newMedia(up.Data),
		},
		history: hist,
	}
	r.order = append(r.order, id)
	r.selection.AssetID = id
	return id, nil
}

func (r *Registry) taken(id uuid.UUID) bool {
	_, used := r.issued[id]
	return used || id == uuid.Nil
}

// RemoveAsset releases the media and history. If the asset was active the
// first remaining asset becomes active.
func (r *Registry) RemoveAsset(id uuid.UUID) error {
	r.mu.Lock()
	e, ok := r.assets[id]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrAssetNotFound, id)
	}
	delete(r.assets, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i:i], r.order[i+1:]...)
			break
		}
	}
	if r.selection.AssetID == id {
		r.selection.AssetID = uuid.Nil
		if len(r.order) > 0 {
			r.selection.AssetID = r.order[0]
		}
	}
	hooks := slices.Clone(r.onRelease)
	r.mu.Unlock()

	e.asset.Media.release()
	for _, fn := range hooks {
		fn(id)
	}
	return nil
}

// SetActive selects an asset. Unknown ids are ignored.
func (r *Registry) SetActive(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.assets[id]; ok {
		r.selection.AssetID = id
	}
}

// SetActiveTab opens a panel; TabNone closes it.
func (r *Registry) SetActiveTab(tab Tab) error {
	if tab != TabNone && !validTab(tab) {
		return fmt.Errorf("%w: %q", ErrInvalidTab, tab)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.selection.Tab = tab
	return nil
}

func validTab(tab Tab) bool {
	for _, t := range Tabs {
		if t == tab {
			return true
		}
	}
	return false
}

func (r *Registry) Selection() Selection {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.selection
}

// CommitEdit applies patch to the asset and records the result in history.
// A patch that yields a malformed state leaves everything untouched. Edits
// are refused while an AI operation holds the asset.
func (r *Registry) CommitEdit(id uuid.UUID, patch edits.PatchFunc) (edits.EditState, error) {
	return r.commit(id, "", patch, false)
}

// CommitGesture coalesces the commits of one continuous interaction, such as
// a slider drag, into a single history entry.
func (r *Registry) CommitGesture(id uuid.UUID, gesture string, patch edits.PatchFunc) (edits.EditState, error) {
	return r.commit(id, gesture, patch, false)
}

// CommitProcessed records the result of the AI operation that currently
// holds the asset. Only the holder of BeginProcessing may call it.
func (r *Registry) CommitProcessed(id uuid.UUID, patch edits.PatchFunc) (edits.EditState, error) {
	return r.commit(id, "", patch, true)
}

func (r *Registry) commit(id uuid.UUID, gesture string, patch edits.PatchFunc, processed bool) (edits.EditState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.assets[id]
	if !ok {
		return edits.EditState{}, fmt.Errorf("%w: %s", ErrAssetNotFound, id)
	}
	if e.processing && !processed {
		return edits.EditState{}, fmt.Errorf("%w: %s", ErrAlreadyProcessing, id)
	}
	next, err := edits.Apply(e.asset.State, patch)
	if err != nil {
		return edits.EditState{}, err
	}

	now := r.now()
	if gesture != "" && gesture == e.gesture {
		e.history.ReplaceLatest(next, now)
	} else {
		e.history.Append(next, now)
	}
	e.gesture = gesture
	e.asset.State = next
	e.asset.Edited = true
	return next.Clone(), nil
}

// Undo restores the previous history entry. With a single entry it returns
// the current state unchanged. Like edits, it is refused while processing.
func (r *Registry) Undo(id uuid.UUID) (edits.EditState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.assets[id]
	if !ok {
		return edits.EditState{}, fmt.Errorf("%w: %s", ErrAssetNotFound, id)
	}
	if e.processing {
		return edits.EditState{}, fmt.Errorf("%w: %s", ErrAlreadyProcessing, id)
	}
	e.gesture = ""
	if prev, ok := e.history.Undo(); ok {
		e.asset.State = prev
	}
	return e.asset.State.Clone(), nil
}

func (r *Registry) Get(id uuid.UUID) (Asset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.assets[id]
	if !ok {
		return Asset{}, fmt.Errorf("%w: %s", ErrAssetNotFound, id)
	}
	return snapshot(e), nil
}

// List returns the assets in upload order.
func (r *Registry) List() []Asset {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Asset, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, snapshot(r.assets[id]))
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order)
}

func (r *Registry) History(id uuid.UUID) ([]history.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.assets[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAssetNotFound, id)
	}
	return e.history.Entries(), nil
}

// BeginProcessing marks an AI operation as running on the asset.
func (r *Registry) BeginProcessing(id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.assets[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrAssetNotFound, id)
	}
	if e.processing {
		return ErrAlreadyProcessing
	}
	e.processing = true
	return nil
}

func (r *Registry) EndProcessing(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.assets[id]; ok {
		e.processing = false
	}
}

func (r *Registry) IsProcessing(id uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.assets[id]
	return ok && e.processing
}

// Processing reports whether any asset has an AI operation running.
func (r *Registry) Processing() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.assets {
		if e.processing {
			return true
		}
	}
	return false
}

func snapshot(e *entry) Asset {
	a := e.asset
	a.State = e.asset.State.Clone()
	return a
}
