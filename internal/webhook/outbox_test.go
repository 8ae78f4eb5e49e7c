package webhook

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOutbox(t *testing.T) *Outbox {
	t.Helper()
	o, err := OpenOutbox(filepath.Join(t.TempDir(), "outbox.db"))
	require.NoError(t, err)
	t.Cleanup(func() { o.Close() })
	return o
}

func TestOutbox_EnqueueAndDue(t *testing.T) {
	o := testOutbox(t)
	now := time.Now()

	require.NoError(t, o.Enqueue(PendingDelivery{
		WebhookID: 1, EventClass: "object.created",
		Payload: []byte("{}"), Attempt: 1,
		NotBefore: now.Add(-time.Minute),
	}))
	require.NoError(t, o.Enqueue(PendingDelivery{
		WebhookID: 2, EventClass: "object.updated",
		Payload: []byte("{}"), Attempt: 1,
		NotBefore: now.Add(time.Hour),
	}))

	due, err := o.Due(now, 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, int64(1), due[0].WebhookID)
	assert.NotEmpty(t, due[0].Key)
}

func TestOutbox_DueOrderedByRetryTime(t *testing.T) {
	o := testOutbox(t)
	now := time.Now()

	require.NoError(t, o.Enqueue(PendingDelivery{WebhookID: 2, NotBefore: now.Add(-time.Minute)}))
	require.NoError(t, o.Enqueue(PendingDelivery{WebhookID: 1, NotBefore: now.Add(-time.Hour)}))

	due, err := o.Due(now, 10)
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, int64(1), due[0].WebhookID) // oldest retry time first
	assert.Equal(t, int64(2), due[1].WebhookID)
}

func TestOutbox_DueRespectsLimit(t *testing.T) {
	o := testOutbox(t)
	now := time.Now()
	for i := 0; i < 5; i++ {
		require.NoError(t, o.Enqueue(PendingDelivery{WebhookID: int64(i), NotBefore: now.Add(-time.Minute)}))
	}

	due, err := o.Due(now, 3)
	require.NoError(t, err)
	assert.Len(t, due, 3)
}

func TestOutbox_Delete(t *testing.T) {
	o := testOutbox(t)
	now := time.Now()
	require.NoError(t, o.Enqueue(PendingDelivery{WebhookID: 1, NotBefore: now.Add(-time.Minute)}))

	due, err := o.Due(now, 10)
	require.NoError(t, err)
	require.Len(t, due, 1)

	require.NoError(t, o.Delete(due[0].Key))

	due, err = o.Due(now, 10)
	require.NoError(t, err)
	assert.Empty(t, due)

	n, err := o.Len()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestOutbox_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "outbox.db")
	o, err := OpenOutbox(path)
	require.NoError(t, err)
	require.NoError(t, o.Enqueue(PendingDelivery{
		WebhookID: 9, EventClass: "object.deleted",
		NotBefore: time.Now().Add(-time.Minute),
	}))
	require.NoError(t, o.Close())

	o, err = OpenOutbox(path)
	require.NoError(t, err)
	defer o.Close()

	due, err := o.Due(time.Now(), 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, int64(9), due[0].WebhookID)
	assert.Equal(t, "object.deleted", due[0].EventClass)
}
