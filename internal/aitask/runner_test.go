package aitask_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"editify-backend/internal/aitask"
	"editify-backend/internal/edits"
	"editify-backend/internal/registry"
	"editify-backend/internal/supabase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
	fail   bool
}

func (p *recordingPublisher) PublishAssetEvent(_ uuid.UUID, event string, _ map[string]interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	if p.fail {
		return errors.New("realtime unavailable")
	}
	return nil
}

func (p *recordingPublisher) Events() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}

func setup(t *testing.T, delay time.Duration) (*registry.Registry, *aitask.Runner, *recordingPublisher, uuid.UUID) {
	t.Helper()
	reg := registry.New(registry.Config{})
	data := []byte("\x89PNG\r\n\x1a\nfake")
	id, err := reg.AddAsset(registry.Upload{Name: "photo.png", ContentType: "image/png", Data: data})
	require.NoError(t, err)

	pub := &recordingPublisher{}
	runner := aitask.NewRunner(reg, pub, aitask.Config{StepDelay: delay}, nil)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = runner.Shutdown(ctx)
	})
	return reg, runner, pub, id
}

func wait(t *testing.T, runner *aitask.Runner, id uuid.UUID) aitask.Task {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	task, err := runner.Wait(ctx, id)
	require.NoError(t, err)
	return task
}

func TestStart_BackgroundCommitsPatch(t *testing.T) {
	reg, runner, pub, assetID := setup(t, time.Millisecond)

	task, err := runner.Start(assetID, aitask.Job{Kind: aitask.JobBackground, Mode: edits.BackgroundRemove})
	require.NoError(t, err)
	assert.Equal(t, aitask.StatusRunning, task.Status)
	assert.True(t, reg.IsProcessing(assetID))

	done := wait(t, runner, task.ID)
	assert.Equal(t, aitask.StatusSucceeded, done.Status)
	assert.Equal(t, 100, done.Progress)
	assert.NotNil(t, done.FinishedAt)
	assert.False(t, reg.IsProcessing(assetID))

	asset, err := reg.Get(assetID)
	require.NoError(t, err)
	require.NotNil(t, asset.State.Background)
	assert.Equal(t, edits.BackgroundRemove, asset.State.Background.Mode)

	events := pub.Events()
	assert.Equal(t, supabase.EventProcessingStarted, events[0])
	assert.Equal(t, supabase.EventProcessingCompleted, events[len(events)-1])
	// 0 -> 100 in steps of 5.
	assert.Len(t, events, 22)
}

func TestStart_EffectAppendsEffect(t *testing.T) {
	reg, runner, _, assetID := setup(t, time.Millisecond)

	task, err := runner.Start(assetID, aitask.Job{Kind: aitask.JobEffect, Effect: "neon"})
	require.NoError(t, err)
	assert.Equal(t, aitask.StatusSucceeded, wait(t, runner, task.ID).Status)

	asset, err := reg.Get(assetID)
	require.NoError(t, err)
	require.Len(t, asset.State.Effects, 1)
	assert.Equal(t, "neon", asset.State.Effects[0].Type)

	h, err := reg.History(assetID)
	require.NoError(t, err)
	assert.Len(t, h, 2)
}

func TestStart_RejectsConcurrentJobOnSameAsset(t *testing.T) {
	_, runner, _, assetID := setup(t, time.Hour)

	_, err := runner.Start(assetID, aitask.Job{Kind: aitask.JobEffect, Effect: "glitch"})
	require.NoError(t, err)

	_, err = runner.Start(assetID, aitask.Job{Kind: aitask.JobBackground, Mode: edits.BackgroundBlur})
	assert.ErrorIs(t, err, registry.ErrAlreadyProcessing)
}

func TestStart_InvalidJobs(t *testing.T) {
	reg, runner, _, assetID := setup(t, time.Millisecond)

	tests := []struct {
		name string
		job  aitask.Job
	}{
		{name: "unknown kind", job: aitask.Job{Kind: "upscale"}},
		{name: "unknown mode", job: aitask.Job{Kind: aitask.JobBackground, Mode: "sparkle"}},
		{name: "unknown effect", job: aitask.Job{Kind: aitask.JobEffect, Effect: "lasers"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runner.Start(assetID, tt.job)
			assert.ErrorIs(t, err, aitask.ErrInvalidJob)
			assert.False(t, reg.IsProcessing(assetID))
		})
	}

	_, err := runner.Start(uuid.New(), aitask.Job{Kind: aitask.JobEffect, Effect: "neon"})
	assert.ErrorIs(t, err, registry.ErrAssetNotFound)
}

func TestCancel_CommitsNothing(t *testing.T) {
	reg, runner, pub, assetID := setup(t, time.Hour)

	task, err := runner.Start(assetID, aitask.Job{Kind: aitask.JobBackground, Mode: edits.BackgroundBlur})
	require.NoError(t, err)

	cancelled, err := runner.Cancel(task.ID)
	require.NoError(t, err)
	assert.Equal(t, aitask.StatusCancelled, cancelled.Status)
	assert.False(t, reg.IsProcessing(assetID))

	asset, err := reg.Get(assetID)
	require.NoError(t, err)
	assert.True(t, asset.State.IsDefault())
	assert.False(t, asset.Edited)

	events := pub.Events()
	assert.Equal(t, supabase.EventProcessingCancelled, events[len(events)-1])

	// A cancelled asset accepts a new job.
	_, err = runner.Start(assetID, aitask.Job{Kind: aitask.JobEffect, Effect: "neon"})
	assert.NoError(t, err)
}

func TestCancel_FinishedTaskIsNoop(t *testing.T) {
	_, runner, _, assetID := setup(t, time.Millisecond)

	task, err := runner.Start(assetID, aitask.Job{Kind: aitask.JobEffect, Effect: "vignette"})
	require.NoError(t, err)
	wait(t, runner, task.ID)

	again, err := runner.Cancel(task.ID)
	require.NoError(t, err)
	assert.Equal(t, aitask.StatusSucceeded, again.Status)
}

func TestGet_UnknownTask(t *testing.T) {
	_, runner, _, _ := setup(t, time.Millisecond)

	_, err := runner.Get(uuid.New())
	assert.ErrorIs(t, err, aitask.ErrTaskNotFound)

	_, err = runner.Cancel(uuid.New())
	assert.ErrorIs(t, err, aitask.ErrTaskNotFound)
}

func TestRemovingAssetCancelsItsTask(t *testing.T) {
	reg, runner, _, assetID := setup(t, time.Hour)

	task, err := runner.Start(assetID, aitask.Job{Kind: aitask.JobEffect, Effect: "duotone"})
	require.NoError(t, err)

	require.NoError(t, reg.RemoveAsset(assetID))
	assert.Equal(t, aitask.StatusCancelled, wait(t, runner, task.ID).Status)
}

func TestPublisherErrorsDoNotFailTask(t *testing.T) {
	_, runner, pub, assetID := setup(t, time.Millisecond)
	pub.fail = true

	task, err := runner.Start(assetID, aitask.Job{Kind: aitask.JobEffect, Effect: "neon"})
	require.NoError(t, err)
	assert.Equal(t, aitask.StatusSucceeded, wait(t, runner, task.ID).Status)
}

func TestShutdownCancelsRunningTasks(t *testing.T) {
	reg := registry.New(registry.Config{})
	runner := aitask.NewRunner(reg, nil, aitask.Config{StepDelay: time.Hour}, nil)

	var tasks []aitask.Task
	for i := 0; i < 3; i++ {
		id, err := reg.AddAsset(registry.Upload{Name: "a.png", ContentType: "image/png", Data: []byte("x")})
		require.NoError(t, err)
		task, err := runner.Start(id, aitask.Job{Kind: aitask.JobEffect, Effect: "neon"})
		require.NoError(t, err)
		tasks = append(tasks, task)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, runner.Shutdown(ctx))

	for _, task := range tasks {
		got, err := runner.Get(task.ID)
		require.NoError(t, err)
		assert.Equal(t, aitask.StatusCancelled, got.Status)
	}
	assert.False(t, reg.Processing())
}

func TestFinishedTasksAgeOut(t *testing.T) {
	reg := registry.New(registry.Config{})
	data := []byte("\x89PNG\r\n\x1a\nfake")
	first, err := reg.AddAsset(registry.Upload{Name: "a.png", ContentType: "image/png", Data: data})
	require.NoError(t, err)
	second, err := reg.AddAsset(registry.Upload{Name: "b.png", ContentType: "image/png", Data: data})
	require.NoError(t, err)

	runner := aitask.NewRunner(reg, nil, aitask.Config{StepDelay: time.Millisecond, Retention: 20 * time.Millisecond}, nil)
	t.Cleanup(func() { _ = runner.Shutdown(context.Background()) })

	old, err := runner.Start(first, aitask.Job{Kind: aitask.JobEffect, Effect: "neon"})
	require.NoError(t, err)
	wait(t, runner, old.ID)
	time.Sleep(40 * time.Millisecond)

	fresh, err := runner.Start(second, aitask.Job{Kind: aitask.JobEffect, Effect: "glitch"})
	require.NoError(t, err)

	_, err = runner.Get(old.ID)
	assert.ErrorIs(t, err, aitask.ErrTaskNotFound)
	_, err = runner.Get(fresh.ID)
	assert.NoError(t, err)
	assert.Equal(t, 1, runner.Len())
}

func TestRemovingAssetForgetsFinishedTasks(t *testing.T) {
	reg, runner, _, assetID := setup(t, time.Millisecond)

	task, err := runner.Start(assetID, aitask.Job{Kind: aitask.JobEffect, Effect: "neon"})
	require.NoError(t, err)
	wait(t, runner, task.ID)
	assert.Equal(t, 1, runner.Len())

	require.NoError(t, reg.RemoveAsset(assetID))
	_, err = runner.Get(task.ID)
	assert.ErrorIs(t, err, aitask.ErrTaskNotFound)
	assert.Zero(t, runner.Len())
}
