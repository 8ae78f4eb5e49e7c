// Package index implements the schema-aware document mapper, the query
// translator, and the tenant-scoped index service on top of the Solr client.
package index

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/kilupskalvis/regidx/internal/models"
	"github.com/kilupskalvis/regidx/internal/solr"
)

// Well-known document fields shared by every indexed document.
const (
	FieldID         = "id"
	FieldTenant     = "tenant_id"
	FieldObjectJSON = "object_json"
	FieldText       = "_text_"

	FieldFileID      = "file_id"
	FieldChunkIndex  = "chunk_index_i"
	FieldTotalChunks = "total_chunks_i"
	FieldChunkText   = "chunk_text_t"
)

// ErrCorruptDocument is returned when a stored document cannot be
// reconstructed into a registry object. Returning a partial object would be
// worse than failing the read.
var ErrCorruptDocument = errors.New("corrupt indexed document")

// datePrefix recognizes string values that should be coerced to dates.
var datePrefix = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)

// freeTextMinLen is the minimum rune length for a string leaf to be included
// in the synthesized free-text field.
const freeTextMinLen = 3

// Mapper converts registry objects into flat engine documents using
// type-suffixed dynamic field names.
type Mapper struct{}

// NewMapper returns a document mapper.
func NewMapper() *Mapper {
	return &Mapper{}
}

// ToDocument converts an object (and optionally its schema) into an engine
// document owned by tenantID. When a schema is supplied, only
// schema-declared properties present in the raw data are projected into
// typed fields; undeclared properties are dropped from filterable fields by
// policy. The verbatim object_json field always carries the complete object
// for exact reconstruction.
func (m *Mapper) ToDocument(obj *models.RegistryObject, schema *models.Schema, tenantID string) (solr.Document, error) {
	raw, err := json.Marshal(obj)
	if err != nil {
		return nil, fmt.Errorf("serialize object %s: %w", obj.Identifier(), err)
	}

	doc := solr.Document{
		FieldID:         obj.ID,
		FieldTenant:     tenantID,
		FieldObjectJSON: string(raw),
	}

	m.setSelfFields(doc, obj)

	if schema != nil {
		names := make([]string, 0, len(schema.Properties))
		for name := range schema.Properties {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			value, ok := obj.RawData[name]
			if !ok {
				continue
			}
			mapPropertyByType(doc, name, value, schema.Properties[name])
		}
	} else {
		for name, value := range obj.RawData {
			flattenValue(doc, name, value)
		}
	}

	doc[FieldText] = m.freeText(obj)
	return doc, nil
}

// setSelfFields writes the self_* metadata mirrors.
func (m *Mapper) setSelfFields(doc solr.Document, obj *models.RegistryObject) {
	doc["self_uuid_s"] = obj.UUID
	doc["self_name_s"] = obj.Name
	doc["self_description_t"] = obj.Description
	doc["self_summary_t"] = obj.Summary
	doc["self_register_i"] = obj.RegisterID
	doc["self_schema_i"] = obj.SchemaID
	doc["self_organisation_s"] = obj.OrganisationID
	doc["self_owner_s"] = obj.Owner
	doc["self_version_s"] = obj.Version
	doc["self_size_i"] = obj.Size
	doc["self_locked_b"] = obj.Locked
	doc["self_folder_s"] = obj.Folder
	if !obj.Created.IsZero() {
		doc["self_created_dt"] = toUTCInstant(obj.Created)
	}
	if !obj.Updated.IsZero() {
		doc["self_updated_dt"] = toUTCInstant(obj.Updated)
	}
	if obj.Published != nil {
		doc["self_published_dt"] = toUTCInstant(*obj.Published)
	}
	if obj.Depublished != nil {
		doc["self_depublished_dt"] = toUTCInstant(*obj.Depublished)
	}
}

// freeText synthesizes the catch-all full-text field: name, identifier, and
// every string leaf of the raw data above the trivial length threshold.
func (m *Mapper) freeText(obj *models.RegistryObject) string {
	parts := make([]string, 0, 8)
	if obj.Name != "" {
		parts = append(parts, obj.Name)
	}
	if id := obj.Identifier(); id != "" {
		parts = append(parts, id)
	}
	if obj.Description != "" {
		parts = append(parts, obj.Description)
	}
	parts = collectStringLeaves(parts, obj.RawData)
	return strings.Join(parts, " ")
}

func collectStringLeaves(parts []string, v interface{}) []string {
	switch t := v.(type) {
	case string:
		if len([]rune(t)) >= freeTextMinLen {
			parts = append(parts, t)
		}
	case map[string]interface{}:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			parts = collectStringLeaves(parts, t[k])
		}
	case []interface{}:
		for _, e := range t {
			parts = collectStringLeaves(parts, e)
		}
	}
	return parts
}

// mapPropertyByType projects one schema-declared property into typed fields.
// The mapping is total: every declared type produces at least one field, and
// unknown types fall back to string.
func mapPropertyByType(doc solr.Document, name string, value interface{}, prop *models.SchemaProperty) {
	switch prop.Type {
	case models.TypeString:
		s := stringify(value)
		switch prop.Format {
		case "date", "date-time":
			if inst, ok := coerceDate(s); ok {
				doc[name+"_dt"] = inst
				return
			}
			doc[name+"_s"] = s
		case "uuid", "ref", "reference":
			doc[name+"_ref"] = s
		default:
			doc[name+"_s"] = s
			doc[name+"_t"] = s
		}
	case models.TypeInteger:
		if n, ok := toInt64(value); ok {
			doc[name+"_i"] = n
			return
		}
		doc[name+"_s"] = stringify(value)
	case models.TypeNumber:
		if f, ok := toFloat64(value); ok {
			doc[name+"_f"] = f
			return
		}
		doc[name+"_s"] = stringify(value)
	case models.TypeBoolean:
		if b, ok := value.(bool); ok {
			doc[name+"_b"] = b
			return
		}
		doc[name+"_s"] = stringify(value)
	case models.TypeArray:
		doc[name+"_ss"] = stringifySlice(value)
	case models.TypeObject:
		data, err := json.Marshal(value)
		if err != nil {
			doc[name+"_s"] = stringify(value)
			return
		}
		doc[name+"_json"] = string(data)
	case models.TypeFile:
		doc[name+"_file"] = stringify(value)
	default:
		// Closed set above; anything undeclared degrades to string rather
		// than silently mapping to zero fields.
		doc[name+"_s"] = stringify(value)
	}
}

// flattenValue walks raw data dynamically when no schema is available.
// Associative maps recurse with an underscore-joined prefix, homogeneous
// arrays become multi-valued typed fields, and heterogeneous or complex
// structures serialize to a _json field.
func flattenValue(doc solr.Document, prefix string, value interface{}) {
	switch t := value.(type) {
	case nil:
		// absent
	case bool:
		doc[prefix+"_b"] = t
	case int, int32, int64:
		n, _ := toInt64(t)
		doc[prefix+"_i"] = n
	case float32, float64, json.Number:
		if n, ok := toInt64(t); ok {
			doc[prefix+"_i"] = n
			return
		}
		f, _ := toFloat64(t)
		doc[prefix+"_f"] = f
	case string:
		if datePrefix.MatchString(t) {
			if inst, ok := coerceDate(t); ok {
				doc[prefix+"_dt"] = inst
				return
			}
		}
		doc[prefix+"_s"] = t
		doc[prefix+"_t"] = t
	case map[string]interface{}:
		for k, v := range t {
			flattenValue(doc, prefix+"_"+k, v)
		}
	case []interface{}:
		flattenSlice(doc, prefix, t)
	default:
		data, err := json.Marshal(t)
		if err != nil {
			doc[prefix+"_s"] = stringify(t)
			return
		}
		doc[prefix+"_json"] = string(data)
	}
}

func flattenSlice(doc solr.Document, prefix string, values []interface{}) {
	if len(values) == 0 {
		return
	}

	kind := sliceKind(values)
	switch kind {
	case "string":
		out := make([]string, len(values))
		for i, v := range values {
			out[i] = v.(string)
		}
		doc[prefix+"_ss"] = out
	case "int":
		out := make([]int64, len(values))
		for i, v := range values {
			out[i], _ = toInt64(v)
		}
		doc[prefix+"_is"] = out
	case "float":
		out := make([]float64, len(values))
		for i, v := range values {
			out[i], _ = toFloat64(v)
		}
		doc[prefix+"_fs"] = out
	case "bool":
		out := make([]bool, len(values))
		for i, v := range values {
			out[i] = v.(bool)
		}
		doc[prefix+"_bs"] = out
	default:
		data, err := json.Marshal(values)
		if err != nil {
			return
		}
		doc[prefix+"_json"] = string(data)
	}
}

// sliceKind classifies a slice as homogeneous scalar ("string", "int",
// "float", "bool") or "mixed".
func sliceKind(values []interface{}) string {
	kind := ""
	for _, v := range values {
		var k string
		switch t := v.(type) {
		case string:
			k = "string"
		case bool:
			k = "bool"
		case int, int32, int64:
			k = "int"
		case float64, float32, json.Number:
			if _, ok := toInt64(t); ok {
				k = "int"
			} else {
				k = "float"
			}
		default:
			return "mixed"
		}
		if kind == "" {
			kind = k
		} else if kind != k {
			if (kind == "int" && k == "float") || (kind == "float" && k == "int") {
				kind = "float"
				continue
			}
			return "mixed"
		}
	}
	return kind
}

// ObjectFromDocument rehydrates a search-result document back into a full
// registry object using the verbatim JSON payload field. Malformed payloads
// are a hard error; per-field reconstruction is attempted only when the
// payload field is absent entirely (legacy documents).
func ObjectFromDocument(doc solr.Document) (*models.RegistryObject, error) {
	raw, ok := doc[FieldObjectJSON]
	if !ok {
		return legacyObjectFromFields(doc)
	}

	s, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("%w: object_json has type %T", ErrCorruptDocument, raw)
	}

	var obj models.RegistryObject
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptDocument, err)
	}
	return &obj, nil
}

// legacyObjectFromFields reconstructs what it can from self_* mirrors.
// Raw data flattening is lossy, so only metadata is recovered.
func legacyObjectFromFields(doc solr.Document) (*models.RegistryObject, error) {
	id, _ := doc[FieldID].(string)
	if id == "" {
		return nil, fmt.Errorf("%w: missing id field", ErrCorruptDocument)
	}

	obj := &models.RegistryObject{ID: id, RawData: map[string]interface{}{}}
	obj.UUID, _ = doc["self_uuid_s"].(string)
	obj.Name, _ = doc["self_name_s"].(string)
	obj.Description, _ = doc["self_description_t"].(string)
	obj.Summary, _ = doc["self_summary_t"].(string)
	obj.OrganisationID, _ = doc["self_organisation_s"].(string)
	obj.Owner, _ = doc["self_owner_s"].(string)
	obj.Version, _ = doc["self_version_s"].(string)
	obj.Folder, _ = doc["self_folder_s"].(string)
	obj.Locked, _ = doc["self_locked_b"].(bool)
	obj.RegisterID, _ = toInt64(doc["self_register_i"])
	obj.SchemaID, _ = toInt64(doc["self_schema_i"])
	obj.Size, _ = toInt64(doc["self_size_i"])
	if s, ok := doc["self_created_dt"].(string); ok {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			obj.Created = t
		}
	}
	if s, ok := doc["self_updated_dt"].(string); ok {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			obj.Updated = t
		}
	}
	return obj, nil
}

// coerceDate parses common date layouts and reformats them as an ISO-8601
// UTC instant.
func coerceDate(s string) (string, bool) {
	layouts := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
	for _, l := range layouts {
		if t, err := time.Parse(l, s); err == nil {
			return toUTCInstant(t), true
		}
	}
	return "", false
}

func toUTCInstant(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05Z")
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

func stringifySlice(v interface{}) []string {
	values, ok := v.([]interface{})
	if !ok {
		return []string{stringify(v)}
	}
	out := make([]string, len(values))
	for i, e := range values {
		out[i] = stringify(e)
	}
	return out
}

func toInt64(v interface{}) (int64, bool) {
	switch t := v.(type) {
	case int:
		return int64(t), true
	case int32:
		return int64(t), true
	case int64:
		return t, true
	case float32:
		if t == float32(int64(t)) {
			return int64(t), true
		}
	case float64:
		if t == float64(int64(t)) {
			return int64(t), true
		}
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n, true
		}
	case string:
		if n, err := strconv.ParseInt(t, 10, 64); err == nil {
			return n, true
		}
	}
	return 0, false
}

func toFloat64(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case float32:
		return float64(t), true
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return f, true
		}
	case string:
		if f, err := strconv.ParseFloat(t, 64); err == nil {
			return f, true
		}
	}
	return 0, false
}
