package index

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilupskalvis/regidx/internal/models"
	"github.com/kilupskalvis/regidx/internal/solr"
)

func testObject() *models.RegistryObject {
	created := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	return &models.RegistryObject{
		ID:          "obj-1",
		UUID:        "5f3a9c2e-0000-0000-0000-000000000001",
		RegisterID:  5,
		SchemaID:    7,
		Name:        "Publication record",
		Description: "Annual report for the registry",
		Owner:       "alice",
		Created:     created,
		Updated:     created,
		RawData: map[string]interface{}{
			"title":  "Annual report",
			"year":   float64(2026),
			"public": true,
		},
	}
}

func testSchema() *models.Schema {
	return &models.Schema{
		ID:    7,
		Title: "publication",
		Properties: map[string]*models.SchemaProperty{
			"title":  {Name: "title", Type: models.TypeString},
			"year":   {Name: "year", Type: models.TypeInteger},
			"public": {Name: "public", Type: models.TypeBoolean},
		},
	}
}

func TestToDocument_SchemaAware(t *testing.T) {
	m := NewMapper()
	doc, err := m.ToDocument(testObject(), testSchema(), "nc_default")
	require.NoError(t, err)

	assert.Equal(t, "obj-1", doc[FieldID])
	assert.Equal(t, "nc_default", doc[FieldTenant])
	assert.Equal(t, "Annual report", doc["title_s"])
	assert.Equal(t, "Annual report", doc["title_t"])
	assert.Equal(t, int64(2026), doc["year_i"])
	assert.Equal(t, true, doc["public_b"])
}

func TestToDocument_SelfFields(t *testing.T) {
	m := NewMapper()
	doc, err := m.ToDocument(testObject(), nil, "nc_default")
	require.NoError(t, err)

	assert.Equal(t, "Publication record", doc["self_name_s"])
	assert.Equal(t, int64(5), doc["self_register_i"])
	assert.Equal(t, int64(7), doc["self_schema_i"])
	assert.Equal(t, "alice", doc["self_owner_s"])
	assert.Equal(t, "2026-03-14T09:30:00Z", doc["self_created_dt"])
}

func TestToDocument_UndeclaredPropertyDropped(t *testing.T) {
	obj := testObject()
	obj.RawData["secret"] = "not in the schema"

	m := NewMapper()
	doc, err := m.ToDocument(obj, testSchema(), "nc_default")
	require.NoError(t, err)

	_, hasS := doc["secret_s"]
	_, hasT := doc["secret_t"]
	assert.False(t, hasS)
	assert.False(t, hasT)

	// the verbatim payload still carries the full object
	var stored models.RegistryObject
	require.NoError(t, json.Unmarshal([]byte(doc[FieldObjectJSON].(string)), &stored))
	assert.Equal(t, "not in the schema", stored.RawData["secret"])
}

func TestToDocument_RoundTrip(t *testing.T) {
	obj := testObject()
	m := NewMapper()
	doc, err := m.ToDocument(obj, testSchema(), "nc_default")
	require.NoError(t, err)

	got, err := ObjectFromDocument(doc)
	require.NoError(t, err)
	assert.Equal(t, obj.ID, got.ID)
	assert.Equal(t, obj.UUID, got.UUID)
	assert.Equal(t, obj.Name, got.Name)
	assert.Equal(t, obj.RawData["title"], got.RawData["title"])
}

func TestToDocument_FreeTextSkipsShortLeaves(t *testing.T) {
	obj := testObject()
	obj.RawData["code"] = "ab" // below threshold
	obj.RawData["label"] = "visible"

	m := NewMapper()
	doc, err := m.ToDocument(obj, nil, "nc_default")
	require.NoError(t, err)

	text := doc[FieldText].(string)
	assert.Contains(t, text, "visible")
	assert.NotContains(t, text, "ab ")
}

func TestFlattenValue_NestedMap(t *testing.T) {
	doc := solr.Document{}
	flattenValue(doc, "address", map[string]interface{}{
		"city": "Amsterdam",
		"zip":  "1011AB",
	})

	assert.Equal(t, "Amsterdam", doc["address_city_s"])
	assert.Equal(t, "1011AB", doc["address_zip_s"])
}

func TestFlattenValue_HomogeneousSlices(t *testing.T) {
	doc := solr.Document{}
	flattenValue(doc, "tags", []interface{}{"a", "b"})
	flattenValue(doc, "counts", []interface{}{float64(1), float64(2)})
	flattenValue(doc, "scores", []interface{}{1.5, 2.5})
	flattenValue(doc, "flags", []interface{}{true, false})

	assert.Equal(t, []string{"a", "b"}, doc["tags_ss"])
	assert.Equal(t, []int64{1, 2}, doc["counts_is"])
	assert.Equal(t, []float64{1.5, 2.5}, doc["scores_fs"])
	assert.Equal(t, []bool{true, false}, doc["flags_bs"])
}

func TestFlattenValue_MixedSliceToJSON(t *testing.T) {
	doc := solr.Document{}
	flattenValue(doc, "mixed", []interface{}{"a", float64(1), true})

	_, ok := doc["mixed_json"]
	assert.True(t, ok)
}

func TestFlattenValue_DateString(t *testing.T) {
	doc := solr.Document{}
	flattenValue(doc, "published", "2026-01-15")

	assert.Equal(t, "2026-01-15T00:00:00Z", doc["published_dt"])
}

func TestCoerceDate_Layouts(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"2026-01-15T10:30:00Z", "2026-01-15T10:30:00Z"},
		{"2026-01-15 10:30:00", "2026-01-15T10:30:00Z"},
		{"2026-01-15", "2026-01-15T00:00:00Z"},
	}
	for _, c := range cases {
		got, ok := coerceDate(c.in)
		assert.True(t, ok, c.in)
		assert.Equal(t, c.want, got)
	}

	_, ok := coerceDate("not a date")
	assert.False(t, ok)
}

func TestObjectFromDocument_CorruptJSON(t *testing.T) {
	doc := solr.Document{FieldID: "x", FieldObjectJSON: "{not json"}
	_, err := ObjectFromDocument(doc)
	assert.True(t, errors.Is(err, ErrCorruptDocument))
}

func TestObjectFromDocument_WrongPayloadType(t *testing.T) {
	doc := solr.Document{FieldID: "x", FieldObjectJSON: 42}
	_, err := ObjectFromDocument(doc)
	assert.True(t, errors.Is(err, ErrCorruptDocument))
}

func TestObjectFromDocument_LegacyFields(t *testing.T) {
	doc := solr.Document{
		FieldID:           "legacy-1",
		"self_name_s":     "Old record",
		"self_schema_i":   float64(7),
		"self_created_dt": "2025-06-01T00:00:00Z",
	}

	obj, err := ObjectFromDocument(doc)
	require.NoError(t, err)
	assert.Equal(t, "legacy-1", obj.ID)
	assert.Equal(t, "Old record", obj.Name)
	assert.Equal(t, int64(7), obj.SchemaID)
	assert.Equal(t, 2025, obj.Created.Year())
}

func TestMapPropertyByType_Formats(t *testing.T) {
	doc := solr.Document{}
	mapPropertyByType(doc, "when", "2026-01-15", &models.SchemaProperty{Type: models.TypeString, Format: "date"})
	mapPropertyByType(doc, "link", "uuid-123", &models.SchemaProperty{Type: models.TypeString, Format: "uuid"})
	mapPropertyByType(doc, "attachment", "file-9", &models.SchemaProperty{Type: models.TypeFile})

	assert.Equal(t, "2026-01-15T00:00:00Z", doc["when_dt"])
	assert.Equal(t, "uuid-123", doc["link_ref"])
	assert.Equal(t, "file-9", doc["attachment_file"])
}

func TestMapPropertyByType_IntegerFallback(t *testing.T) {
	doc := solr.Document{}
	mapPropertyByType(doc, "year", "not-a-number", &models.SchemaProperty{Type: models.TypeInteger})
	assert.Equal(t, "not-a-number", doc["year_s"])
}
