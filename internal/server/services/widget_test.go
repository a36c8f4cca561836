package services

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tbenoist/harmonia/internal/common"
	"github.com/tbenoist/harmonia/internal/server/models"
	"github.com/tbenoist/harmonia/internal/server/repositories/widgets"
)

// -------- test fakes --------

type fakeWidgetsRepo struct {
	widgets.Repository
	rows map[string]*models.WidgetState
}

func newFakeWidgetsRepo() *fakeWidgetsRepo {
	return &fakeWidgetsRepo{rows: map[string]*models.WidgetState{}}
}

func widgetKey(userID, slug string) string {
	return fmt.Sprintf("%s/%s", userID, slug)
}

func (f *fakeWidgetsRepo) Get(ctx context.Context, userID, slug string) (*models.WidgetState, error) {
	if w, ok := f.rows[widgetKey(userID, slug)]; ok {
		cp := *w
		return &cp, nil
	}
	return nil, common.ErrNotFound
}

func (f *fakeWidgetsRepo) Upsert(ctx context.Context, userID, slug string, data json.RawMessage) (*models.WidgetState, error) {
	key := widgetKey(userID, slug)
	now := time.Now().UTC()
	if w, ok := f.rows[key]; ok {
		w.Data = data
		w.UpdatedAt = now
	} else {
		f.rows[key] = &models.WidgetState{
			ID: key, UserID: userID, WidgetSlug: slug,
			Data: data, CreatedAt: now, UpdatedAt: now,
		}
	}
	cp := *f.rows[key]
	return &cp, nil
}

func newWidgetService(t *testing.T) (*WidgetService, *fakeWidgetsRepo) {
	t.Helper()
	mgr := &fakeRepoManager{widgets: newFakeWidgetsRepo()}
	db, _ := newMockTxDB(t)
	return NewWidgetService(db, mgr, testLogger()), mgr.widgets
}

// -------- tests --------

func TestWidgetGet_NeverWrittenSlug(t *testing.T) {
	svc, _ := newWidgetService(t)

	_, err := svc.Get(context.Background(), "u1", "mood-tracker")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestWidgetPut_ThenGetRoundTrips(t *testing.T) {
	svc, _ := newWidgetService(t)
	ctx := context.Background()

	stored, err := svc.Put(ctx, "u1", "mood-tracker", json.RawMessage(`{"streak":3}`))
	require.NoError(t, err)
	assert.Equal(t, "mood-tracker", stored.WidgetSlug)

	got, err := svc.Get(ctx, "u1", "mood-tracker")
	require.NoError(t, err)
	assert.JSONEq(t, `{"streak":3}`, string(got.Data))
}

func TestWidgetPut_ReplacesWholeValue(t *testing.T) {
	svc, repo := newWidgetService(t)
	ctx := context.Background()

	_, err := svc.Put(ctx, "u1", "mood-tracker", json.RawMessage(`{"streak":3,"theme":"dark"}`))
	require.NoError(t, err)
	got, err := svc.Put(ctx, "u1", "mood-tracker", json.RawMessage(`{"streak":4}`))
	require.NoError(t, err)

	// Whole-value replacement, no field-level merging.
	assert.JSONEq(t, `{"streak":4}`, string(got.Data))
	assert.Len(t, repo.rows, 1)
}

func TestWidgetPut_KeysAreIndependent(t *testing.T) {
	svc, repo := newWidgetService(t)
	ctx := context.Background()

	_, err := svc.Put(ctx, "u1", "mood-tracker", json.RawMessage(`{"a":1}`))
	require.NoError(t, err)
	_, err = svc.Put(ctx, "u1", "focus-timer", json.RawMessage(`{"b":2}`))
	require.NoError(t, err)
	_, err = svc.Put(ctx, "u2", "mood-tracker", json.RawMessage(`{"c":3}`))
	require.NoError(t, err)

	assert.Len(t, repo.rows, 3)
	got, err := svc.Get(ctx, "u1", "mood-tracker")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(got.Data))
}

func TestWidgetPut_Validation(t *testing.T) {
	svc, _ := newWidgetService(t)
	ctx := context.Background()

	_, err := svc.Put(ctx, "u1", "", json.RawMessage(`{}`))
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = svc.Put(ctx, "u1", "mood-tracker", nil)
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = svc.Put(ctx, "u1", "mood-tracker", json.RawMessage(`{nope`))
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = svc.Get(ctx, "u1", "")
	assert.ErrorIs(t, err, common.ErrValidation)
}
