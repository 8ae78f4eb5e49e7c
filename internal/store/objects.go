package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/kilupskalvis/regidx/internal/models"
)

const objectColumns = `id, uuid, register_id, schema_id, organisation_id, name,
	description, summary, version, size, owner, locked, folder,
	created, updated, published, depublished, raw_data`

// SaveObject inserts or replaces a registry object.
func (s *Store) SaveObject(ctx context.Context, obj *models.RegistryObject) error {
	raw, err := json.Marshal(obj.RawData)
	if err != nil {
		return fmt.Errorf("marshal raw data for %s: %w", obj.ID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO objects (`+objectColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		obj.ID, obj.UUID, obj.RegisterID, obj.SchemaID, obj.OrganisationID,
		obj.Name, obj.Description, obj.Summary, obj.Version, obj.Size,
		obj.Owner, obj.Locked, obj.Folder,
		formatTime(obj.Created), formatTime(obj.Updated),
		formatTimePtr(obj.Published), formatTimePtr(obj.Depublished),
		string(raw))
	if err != nil {
		return fmt.Errorf("save object %s: %w", obj.ID, err)
	}
	return nil
}

// Find returns a single object by id, or nil when absent.
func (s *Store) Find(ctx context.Context, id string) (*models.RegistryObject, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+objectColumns+" FROM objects WHERE id = ?", id)
	obj, err := scanObject(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return obj, err
}

// FindMultiple returns the objects matching the given ids, in id order.
func (s *Store) FindMultiple(ctx context.Context, ids []string) ([]*models.RegistryObject, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimRight(strings.Repeat("?,", len(ids)), ",")
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+objectColumns+" FROM objects WHERE id IN ("+placeholders+") ORDER BY id", args...)
	if err != nil {
		return nil, fmt.Errorf("find multiple: %w", err)
	}
	defer rows.Close()
	return collectObjects(rows)
}

// FindAllInRange returns a page of objects ordered by id.
func (s *Store) FindAllInRange(ctx context.Context, offset, count int) ([]*models.RegistryObject, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+objectColumns+" FROM objects ORDER BY id LIMIT ? OFFSET ?", count, offset)
	if err != nil {
		return nil, fmt.Errorf("find objects in range: %w", err)
	}
	defer rows.Close()
	return collectObjects(rows)
}

// TotalCount returns the number of stored objects.
func (s *Store) TotalCount(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM objects").Scan(&n); err != nil {
		return 0, fmt.Errorf("count objects: %w", err)
	}
	return n, nil
}

// DeleteObject removes an object by id.
func (s *Store) DeleteObject(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM objects WHERE id = ?", id)
	return err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanObject(r rowScanner) (*models.RegistryObject, error) {
	var (
		obj                    models.RegistryObject
		created, updated       string
		published, depublished sql.NullString
		raw                    string
	)
	err := r.Scan(&obj.ID, &obj.UUID, &obj.RegisterID, &obj.SchemaID,
		&obj.OrganisationID, &obj.Name, &obj.Description, &obj.Summary,
		&obj.Version, &obj.Size, &obj.Owner, &obj.Locked, &obj.Folder,
		&created, &updated, &published, &depublished, &raw)
	if err != nil {
		return nil, err
	}

	obj.Created = parseTimestamp(created)
	obj.Updated = parseTimestamp(updated)
	if published.Valid {
		t := parseTimestamp(published.String)
		obj.Published = &t
	}
	if depublished.Valid {
		t := parseTimestamp(depublished.String)
		obj.Depublished = &t
	}
	if err := json.Unmarshal([]byte(raw), &obj.RawData); err != nil {
		return nil, fmt.Errorf("decode raw data for %s: %w", obj.ID, err)
	}
	return &obj, nil
}

func collectObjects(rows *sql.Rows) ([]*models.RegistryObject, error) {
	var out []*models.RegistryObject
	for rows.Next() {
		obj, err := scanObject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, obj)
	}
	return out, rows.Err()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}
