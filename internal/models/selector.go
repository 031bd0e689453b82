package models

// SelectorOptions are the choices offered for a subject on a date.
type SelectorOptions struct {
	Subject           *Subject       `json:"subject,omitempty"`
	Batches           []string       `json:"batches"`
	AvailableSessions []SessionLabel `json:"availableSessions"`
	// SessionsKnown is false when the availability lookup failed and
	// AvailableSessions should not restrict the selection.
	SessionsKnown     bool           `json:"-"`
}

// Roster is a resolved tuple: sorted students plus any saved record.
type Roster struct {
	Subject  *Subject          `json:"subject,omitempty"`
	Batches  []string          `json:"batches,omitempty"`
	Students []Student         `json:"students"`
	Record   *AttendanceRecord `json:"attendanceRecord,omitempty"`
}

// Existing reports whether the tuple was already taken.
func (r *Roster) Existing() bool {
	return r != nil && r.Record != nil
}
