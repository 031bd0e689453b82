package models

import "strings"

// SubjectType controls batch requirements and the auxiliary payload shape.
type SubjectType string

const (
	SubjectTypeTheory    SubjectType = "theory"
	SubjectTypePractical SubjectType = "practical"
	SubjectTypeTG        SubjectType = "tg"
)

// SubjectPlaceholder is the picker value meaning "no subject chosen yet".
const SubjectPlaceholder = "Subject"

// Valid returns true when the type is a supported value.
func (t SubjectType) Valid() bool {
	switch t {
	case SubjectTypeTheory, SubjectTypePractical, SubjectTypeTG:
		return true
	default:
		return false
	}
}

// RequiresBatch reports whether rosters for this type are scoped to a batch.
func (t SubjectType) RequiresBatch() bool {
	return t == SubjectTypePractical || t == SubjectTypeTG
}

// ContentStatus is the server-side coverage state of a syllabus item.
type ContentStatus string

const (
	ContentStatusCovered   ContentStatus = "covered"
	ContentStatusUncovered ContentStatus = "uncovered"
)

// ContentItem is a syllabus entry that a theory/practical session may cover.
type ContentItem struct {
	ID          string        `json:"_id"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Status      ContentStatus `json:"status,omitempty"`
}

// Covered reports whether the item was already marked covered upstream.
func (c ContentItem) Covered() bool {
	return c.Status == ContentStatusCovered
}

// Subject describes a subject as reported by the backend.
type Subject struct {
	ID      string        `json:"_id,omitempty"`
	Name    string        `json:"name,omitempty"`
	Type    SubjectType   `json:"subType"`
	Batches []string      `json:"batch"`
	Content []ContentItem `json:"content"`
}

// IsSubjectSelected reports whether id names a concrete subject.
func IsSubjectSelected(id string) bool {
	id = strings.TrimSpace(id)
	return id != "" && id != SubjectPlaceholder
}
