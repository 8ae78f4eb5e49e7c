package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilupskalvis/regidx/internal/models"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "regidx.db"))
	require.NoError(t, err)
	require.NoError(t, s.Initialize())
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleObject(id string) *models.RegistryObject {
	return &models.RegistryObject{
		ID:         id,
		UUID:       "uuid-" + id,
		RegisterID: 5,
		SchemaID:   7,
		Name:       "object " + id,
		Owner:      "alice",
		Created:    time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC),
		Updated:    time.Date(2026, 1, 16, 12, 0, 0, 0, time.UTC),
		RawData:    map[string]interface{}{"title": "t-" + id},
	}
}

func TestObjects_SaveAndFind(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveObject(ctx, sampleObject("a")))

	got, err := s.Find(ctx, "a")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "uuid-a", got.UUID)
	assert.Equal(t, int64(5), got.RegisterID)
	assert.Equal(t, "t-a", got.RawData["title"])
	assert.Equal(t, 2026, got.Created.Year())
}

func TestObjects_FindAbsentIsNil(t *testing.T) {
	s := testStore(t)
	got, err := s.Find(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestObjects_SaveReplaces(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	obj := sampleObject("a")
	require.NoError(t, s.SaveObject(ctx, obj))
	obj.Name = "renamed"
	require.NoError(t, s.SaveObject(ctx, obj))

	got, err := s.Find(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Name)

	n, err := s.TotalCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestObjects_FindAllInRange(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		require.NoError(t, s.SaveObject(ctx, sampleObject(fmt.Sprintf("obj-%d", i))))
	}

	page, err := s.FindAllInRange(ctx, 2, 3)
	require.NoError(t, err)
	require.Len(t, page, 3)
	assert.Equal(t, "obj-2", page[0].ID)
	assert.Equal(t, "obj-4", page[2].ID)
}

func TestObjects_Delete(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveObject(ctx, sampleObject("a")))
	require.NoError(t, s.DeleteObject(ctx, "a"))

	got, err := s.Find(ctx, "a")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestWebhooks_SaveAssignsUUIDAndDefaults(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	w := &models.Webhook{Name: "hook", URL: "http://example.org", Enabled: true, Events: []string{"*"}}
	require.NoError(t, s.SaveWebhook(ctx, w))

	assert.NotEmpty(t, w.UUID)
	assert.NotZero(t, w.ID)

	got, err := s.FindWebhook(ctx, w.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "POST", got.Method)
	assert.Equal(t, models.RetryExponential, got.RetryPolicy)
}

func TestWebhooks_UpsertByUUID(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	w := &models.Webhook{Name: "hook", URL: "http://example.org", Events: []string{"*"}}
	require.NoError(t, s.SaveWebhook(ctx, w))

	w.URL = "http://example.org/v2"
	require.NoError(t, s.SaveWebhook(ctx, w))

	all, err := s.ListWebhooks(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "http://example.org/v2", all[0].URL)
}

func TestWebhooks_ConfigurationRoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	w := &models.Webhook{
		Name: "hook", URL: "http://example.org", Events: []string{"object.created"},
		Filters:           map[string]interface{}{"schema": float64(7)},
		Headers:           map[string]string{"X-Custom": "v"},
		InterceptRequests: true,
		ProcessResponse:   true,
		ResponseProcessing: &models.ResponseProcessing{
			Strategy:     models.MergeCustom,
			FieldMapping: map[string]string{"a": "b"},
		},
		EnableRetries: true,
		MaxRetries:    5,
	}
	require.NoError(t, s.SaveWebhook(ctx, w))

	got, err := s.FindWebhook(ctx, w.ID)
	require.NoError(t, err)
	assert.True(t, got.InterceptRequests)
	assert.True(t, got.ProcessResponse)
	assert.True(t, got.EnableRetries)
	assert.Equal(t, float64(7), got.Filters["schema"])
	assert.Equal(t, "v", got.Headers["X-Custom"])
	require.NotNil(t, got.ResponseProcessing)
	assert.Equal(t, models.MergeCustom, got.ResponseProcessing.Strategy)
}

func TestWebhooks_EnabledForEvent(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveWebhook(ctx, &models.Webhook{
		Name: "created-only", URL: "http://a", Enabled: true, Events: []string{"object.created"},
	}))
	require.NoError(t, s.SaveWebhook(ctx, &models.Webhook{
		Name: "wildcard", URL: "http://b", Enabled: true, Events: []string{"*"},
	}))
	require.NoError(t, s.SaveWebhook(ctx, &models.Webhook{
		Name: "disabled", URL: "http://c", Enabled: false, Events: []string{"*"},
	}))

	hooks, err := s.EnabledForEvent(ctx, "object.created")
	require.NoError(t, err)
	assert.Len(t, hooks, 2)

	hooks, err = s.EnabledForEvent(ctx, "object.deleted")
	require.NoError(t, err)
	require.Len(t, hooks, 1)
	assert.Equal(t, "wildcard", hooks[0].Name)
}

func TestWebhooks_UpdateStats(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	w := &models.Webhook{Name: "hook", URL: "http://a", Events: []string{"*"}}
	require.NoError(t, s.SaveWebhook(ctx, w))

	now := time.Now()
	require.NoError(t, s.UpdateWebhookStats(ctx, w.ID, true, now))
	require.NoError(t, s.UpdateWebhookStats(ctx, w.ID, true, now))
	require.NoError(t, s.UpdateWebhookStats(ctx, w.ID, false, now))

	got, err := s.FindWebhook(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Stats.Successes)
	assert.Equal(t, int64(1), got.Stats.Failures)
	require.NotNil(t, got.Stats.LastAttempt)
}

func TestLogs_InsertAndList(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	w := &models.Webhook{Name: "hook", URL: "http://a", Events: []string{"*"}}
	require.NoError(t, s.SaveWebhook(ctx, w))

	for attempt := 1; attempt <= 3; attempt++ {
		require.NoError(t, s.InsertDeliveryLog(ctx, &models.DeliveryLog{
			WebhookID:  w.ID,
			EventClass: "object.created",
			URL:        w.URL,
			Method:     "POST",
			Attempt:    attempt,
			Success:    attempt == 3,
			StatusCode: 500,
		}))
	}

	logs, err := s.DeliveryLogs(ctx, w.ID, 10)
	require.NoError(t, err)
	require.Len(t, logs, 3)
	assert.Equal(t, 3, logs[0].Attempt) // newest first
	assert.True(t, logs[0].Success)
}

func TestLogs_Prune(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	old := &models.DeliveryLog{WebhookID: 1, EventClass: "e", URL: "u", Method: "POST",
		Attempt: 1, CreatedAt: time.Now().Add(-48 * time.Hour)}
	fresh := &models.DeliveryLog{WebhookID: 1, EventClass: "e", URL: "u", Method: "POST", Attempt: 1}
	require.NoError(t, s.InsertDeliveryLog(ctx, old))
	require.NoError(t, s.InsertDeliveryLog(ctx, fresh))

	n, err := s.PruneDeliveryLogs(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	logs, err := s.DeliveryLogs(ctx, 1, 10)
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestKV_SetAndGet(t *testing.T) {
	s := testStore(t)

	got, err := s.GetValue("missing")
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, s.SetValue("tenant", "nc_default"))
	require.NoError(t, s.SetValue("tenant", "nc_other"))

	got, err = s.GetValue("tenant")
	require.NoError(t, err)
	assert.Equal(t, "nc_other", got)
}
