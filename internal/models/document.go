// Package models defines core data structures for documents, queries, and search results.
package models

import "time"

// Document represents a stored document. Values of payload-bearing fields keep
// their delimited "term|weight" form.
type Document struct {
	ID        string            `json:"id" db:"id"`
	Fields    map[string]string `json:"fields" db:"fields"`
	Source    string            `json:"source,omitempty" db:"source"`
	CreatedAt time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt time.Time         `json:"updated_at" db:"updated_at"`
}

// DocumentInput is the input for creating or replacing a document.
type DocumentInput struct {
	ID     string            `json:"id,omitempty" yaml:"id,omitempty"`
	Fields map[string]string `json:"fields" yaml:"fields"`
	Source string            `json:"-" yaml:"-"`
}
