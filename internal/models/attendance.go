package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// AttendanceStatus represents the status for attendance records.
type AttendanceStatus string

const (
	AttendanceStatusPresent AttendanceStatus = "present"
	AttendanceStatusAbsent  AttendanceStatus = "absent"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	return s == AttendanceStatusPresent || s == AttendanceStatusAbsent
}

// AttendanceEntry is one student's status inside a record.
type AttendanceEntry struct {
	Student string           `json:"student"`
	Status  AttendanceStatus `json:"status"`
}

// AttendanceRecord is a previously saved record for a tuple.
type AttendanceRecord struct {
	ID              string            `json:"_id,omitempty"`
	BatchID         string            `json:"batchId,omitempty"`
	Records         []AttendanceEntry `json:"records"`
	Contents        []string          `json:"contents,omitempty"`
	PointsDiscussed []string          `json:"pointsDiscussed,omitempty"`
}

// PresentStudents returns the ids recorded as present.
func (r *AttendanceRecord) PresentStudents() []string {
	if r == nil {
		return nil
	}
	ids := make([]string, 0, len(r.Records))
	for _, entry := range r.Records {
		if entry.Status == AttendanceStatusPresent {
			ids = append(ids, entry.Student)
		}
	}
	return ids
}

// SessionLabel identifies a teaching slot. The backend emits sessions as
// either JSON numbers or strings; both decode to the same label.
type SessionLabel string

// UnmarshalJSON accepts numbers and strings.
func (l *SessionLabel) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*l = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = SessionLabel(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("session label: %w", err)
	}
	*l = SessionLabel(n.String())
	return nil
}

// String implements fmt.Stringer.
func (l SessionLabel) String() string {
	return string(l)
}

// SessionLabels converts raw strings, dropping blanks and duplicates.
func SessionLabels(raw ...string) []SessionLabel {
	seen := make(map[string]struct{}, len(raw))
	out := make([]SessionLabel, 0, len(raw))
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, SessionLabel(r))
	}
	return out
}

// AuxiliaryKind tags the auxiliary payload variant.
type AuxiliaryKind string

const (
	AuxiliaryContentCoverage  AuxiliaryKind = "contentCoverage"
	AuxiliaryDiscussionPoints AuxiliaryKind = "discussionPoints"
)

// Auxiliary is the per-session payload attached to a submission. Exactly one
// of ContentIDs or Points is meaningful, selected by Kind.
type Auxiliary struct {
	Kind       AuxiliaryKind `json:"kind"`
	ContentIDs []string      `json:"contentIds,omitempty"`
	Points     []string      `json:"points,omitempty"`
}

// ContentCoverage builds the theory/practical variant.
func ContentCoverage(ids []string) Auxiliary {
	out := make([]string, 0, len(ids))
	out = append(out, ids...)
	return Auxiliary{Kind: AuxiliaryContentCoverage, ContentIDs: out}
}

// DiscussionPoints builds the tg variant keeping only non-blank trimmed points.
func DiscussionPoints(points []string) Auxiliary {
	out := make([]string, 0, len(points))
	for _, p := range points {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return Auxiliary{Kind: AuxiliaryDiscussionPoints, Points: out}
}

// AuxiliaryKindFor maps a subject type to its payload variant.
func AuxiliaryKindFor(t SubjectType) AuxiliaryKind {
	if t == SubjectTypeTG {
		return AuxiliaryDiscussionPoints
	}
	return AuxiliaryContentCoverage
}
