package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hireflow/internal/domain"
	"hireflow/internal/service"
)

func TestPipelineService_SetStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("EnsureEntryIsIdempotent", func(t *testing.T) {
		w := newWorkflow(service.DefaultPolicy())
		first, err := w.pipeline.EnsureEntry(ctx, employer1.ID, candidate1.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.PipelineStatusPotential, first.Status)

		_, err = w.pipeline.SetStatus(ctx, employer1, employer1.ID, candidate1.ID, domain.PipelineStatusShortlisted, nil)
		require.NoError(t, err)

		again, err := w.pipeline.EnsureEntry(ctx, employer1.ID, candidate1.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.PipelineStatusShortlisted, again.Status)
	})

	t.Run("CompareAndSwap", func(t *testing.T) {
		w := newWorkflow(service.DefaultPolicy())
		potential := domain.PipelineStatusPotential
		_, err := w.pipeline.SetStatus(ctx, staff1, employer1.ID, candidate1.ID, domain.PipelineStatusShortlisted, &potential)
		require.NoError(t, err)

		_, err = w.pipeline.SetStatus(ctx, staff2, employer1.ID, candidate1.ID, domain.PipelineStatusHired, &potential)
		conflict := requireConflict(t, err)
		assert.Equal(t, domain.PipelineStatusShortlisted, conflict.Current.(*domain.PipelineEntry).Status)
	})

	t.Run("StrictModeBlocksEmployerBackward", func(t *testing.T) {
		w := newWorkflow(service.Policy{PipelineMode: domain.PipelineModeStrict})
		_, err := w.pipeline.SetStatus(ctx, employer1, employer1.ID, candidate1.ID, domain.PipelineStatusInterviewed, nil)
		require.NoError(t, err)

		_, err = w.pipeline.SetStatus(ctx, employer1, employer1.ID, candidate1.ID, domain.PipelineStatusShortlisted, nil)
		requireConflict(t, err)

		entry, err := w.pipeline.SetStatus(ctx, staff1, employer1.ID, candidate1.ID, domain.PipelineStatusShortlisted, nil)
		require.NoError(t, err)
		assert.Equal(t, domain.PipelineStatusShortlisted, entry.Status)
	})

	t.Run("Validation", func(t *testing.T) {
		w := newWorkflow(service.DefaultPolicy())
		_, err := w.pipeline.SetStatus(ctx, staff1, employer1.ID, candidate1.ID, domain.PipelineStatus("LOST"), nil)
		assert.True(t, domain.IsValidation(err))
		_, err = w.pipeline.SetStatus(ctx, staff1, employer1.ID, employer1.ID, domain.PipelineStatusHired, nil)
		assert.True(t, domain.IsValidation(err))
	})

	t.Run("Authorization", func(t *testing.T) {
		w := newWorkflow(service.DefaultPolicy())
		_, err := w.pipeline.SetStatus(ctx, candidate1, employer1.ID, candidate1.ID, domain.PipelineStatusHired, nil)
		assert.True(t, domain.IsAuthorization(err))
		_, err = w.pipeline.SetStatus(ctx, employer2, employer1.ID, candidate1.ID, domain.PipelineStatusHired, nil)
		assert.True(t, domain.IsAuthorization(err))
		_, err = w.pipeline.ListByEmployer(ctx, employer2, employer1.ID)
		assert.True(t, domain.IsAuthorization(err))
	})

	t.Run("ListByEmployer", func(t *testing.T) {
		w := newWorkflow(service.DefaultPolicy())
		for _, c := range []string{candidate1.ID, candidate3.ID} {
			_, err := w.pipeline.EnsureEntry(ctx, employer1.ID, c)
			require.NoError(t, err)
		}
		entries, err := w.pipeline.ListByEmployer(ctx, employer1, employer1.ID)
		require.NoError(t, err)
		assert.Len(t, entries, 2)
	})
}

func TestPipelineService_SetStatusNotifies(t *testing.T) {
	ctx := context.Background()

	t.Run("StaffMoveReachesEmployer", func(t *testing.T) {
		w := newWorkflow(service.DefaultPolicy())
		_, err := w.pipeline.SetStatus(ctx, staff1, employer1.ID, candidate1.ID, domain.PipelineStatusShortlisted, nil)
		require.NoError(t, err)

		sent := w.notifier.To(employer1.ID)
		require.Len(t, sent, 1)
		assert.Equal(t, "PIPELINE_UPDATED", sent[0].Attrs["type"])
		assert.Equal(t, string(domain.PipelineStatusShortlisted), sent[0].Attrs["status"])
		assert.Empty(t, w.notifier.To(candidate1.ID))
	})

	t.Run("OwnMoveAndNoOpAreSilent", func(t *testing.T) {
		w := newWorkflow(service.DefaultPolicy())
		_, err := w.pipeline.SetStatus(ctx, employer1, employer1.ID, candidate1.ID, domain.PipelineStatusShortlisted, nil)
		require.NoError(t, err)
		_, err = w.pipeline.SetStatus(ctx, staff1, employer1.ID, candidate1.ID, domain.PipelineStatusShortlisted, nil)
		require.NoError(t, err)
		assert.Empty(t, w.notifier.To(employer1.ID))
	})
}
