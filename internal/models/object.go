// Package models defines the core data structures used throughout regidx
// including registry objects, schemas, search queries, chunks, and webhooks.
package models

import "time"

// RegistryObject is a single object stored in a register. RawData carries the
// schema-free domain payload; everything else is registry metadata.
type RegistryObject struct {
	ID             string                 `json:"id"`
	UUID           string                 `json:"uuid"`
	RegisterID     int64                  `json:"registerId"`
	SchemaID       int64                  `json:"schemaId"`
	OrganisationID string                 `json:"organisationId"`
	Name           string                 `json:"name"`
	Description    string                 `json:"description"`
	Summary        string                 `json:"summary"`
	Version        string                 `json:"version"`
	Size           int64                  `json:"size"`
	Owner          string                 `json:"owner"`
	Locked         bool                   `json:"locked"`
	Folder         string                 `json:"folder"`
	Created        time.Time              `json:"created"`
	Updated        time.Time              `json:"updated"`
	Published      *time.Time             `json:"published,omitempty"`
	Depublished    *time.Time             `json:"depublished,omitempty"`
	RawData        map[string]interface{} `json:"rawData"`
}

// Identifier returns the best available identifier: UUID when set, else ID.
func (o *RegistryObject) Identifier() string {
	if o.UUID != "" {
		return o.UUID
	}
	return o.ID
}
