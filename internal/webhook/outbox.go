package webhook

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

var outboxBucket = []byte("retry_outbox")

// PendingDelivery is a failed delivery parked for retry.
type PendingDelivery struct {
	Key        []byte    `json:"-"`
	WebhookID  int64     `json:"webhookId"`
	EventClass string    `json:"eventClass"`
	Payload    []byte    `json:"payload"`
	Attempt    int       `json:"attempt"`
	NotBefore  time.Time `json:"notBefore"`
}

// Outbox persists pending retries across process restarts. Keys sort by
// retry time, so a prefix scan yields due entries first.
type Outbox struct {
	db *bolt.DB
}

// OpenOutbox opens (or creates) the retry outbox database.
func OpenOutbox(path string) (*Outbox, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open outbox %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(outboxBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init outbox: %w", err)
	}
	return &Outbox{db: db}, nil
}

// Close closes the outbox database.
func (o *Outbox) Close() error {
	return o.db.Close()
}

// Enqueue stores a pending delivery keyed by its retry time.
func (o *Outbox) Enqueue(p PendingDelivery) error {
	key := make([]byte, 8, 8+36)
	binary.BigEndian.PutUint64(key, uint64(p.NotBefore.UnixNano()))
	key = append(key, uuid.New().String()...)
	p.Key = key

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal pending delivery: %w", err)
	}
	return o.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(outboxBucket).Put(key, data)
	})
}

// Due returns pending deliveries whose retry time has passed, oldest first,
// up to limit.
func (o *Outbox) Due(now time.Time, limit int) ([]PendingDelivery, error) {
	cutoff := make([]byte, 8)
	binary.BigEndian.PutUint64(cutoff, uint64(now.UnixNano()))

	var out []PendingDelivery
	err := o.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(outboxBucket).Cursor()
		for k, v := c.First(); k != nil && len(out) < limit; k, v = c.Next() {
			if len(k) >= 8 && string(k[:8]) > string(cutoff) {
				break
			}
			var p PendingDelivery
			if err := json.Unmarshal(v, &p); err != nil {
				continue
			}
			p.Key = append([]byte(nil), k...)
			out = append(out, p)
		}
		return nil
	})
	return out, err
}

// Delete removes a claimed entry.
func (o *Outbox) Delete(key []byte) error {
	return o.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(outboxBucket).Delete(key)
	})
}

// Len returns the number of parked deliveries.
func (o *Outbox) Len() (int, error) {
	var n int
	err := o.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(outboxBucket).Stats().KeyN
		return nil
	})
	return n, err
}
