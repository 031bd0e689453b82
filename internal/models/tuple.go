package models

import (
	"strings"
	"time"
)

// DateLayout is the wire format for attendance dates.
const DateLayout = "2006-01-02"

// Tuple identifies one attendance-taking unit.
type Tuple struct {
	SubjectID   string         `json:"subjectId"`
	SubjectType SubjectType    `json:"subjectType,omitempty"`
	BatchID     string         `json:"batchId,omitempty"`
	Date        time.Time      `json:"-"`
	Sessions    []SessionLabel `json:"sessions"`
}

// DateString renders the date in wire format; zero dates render empty.
func (t Tuple) DateString() string {
	if t.Date.IsZero() {
		return ""
	}
	return t.Date.Format(DateLayout)
}

// NeedsBatch reports whether the tuple is waiting for a batch choice.
func (t Tuple) NeedsBatch() bool {
	return t.SubjectType.RequiresBatch() && strings.TrimSpace(t.BatchID) == ""
}

// EffectiveBatch returns the batch to send upstream; theory subjects never carry one.
func (t Tuple) EffectiveBatch() string {
	if t.SubjectType == SubjectTypeTheory {
		return ""
	}
	return strings.TrimSpace(t.BatchID)
}

// Complete reports whether the tuple may be resolved into a roster. The
// subject type must be known, otherwise the batch rule cannot be applied.
func (t Tuple) Complete() bool {
	return IsSubjectSelected(t.SubjectID) && t.SubjectType.Valid() && !t.Date.IsZero() && len(t.Sessions) > 0 && !t.NeedsBatch()
}

// HasSession reports whether label is part of the selection.
func (t Tuple) HasSession(label SessionLabel) bool {
	for _, s := range t.Sessions {
		if s == label {
			return true
		}
	}
	return false
}

// Clone returns a deep copy.
func (t Tuple) Clone() Tuple {
	out := t
	out.Sessions = append([]SessionLabel(nil), t.Sessions...)
	return out
}

// ParseDate parses a wire-format date.
func ParseDate(raw string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, strings.TrimSpace(raw), time.Local)
}
