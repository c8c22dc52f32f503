package models

// RecordStatus models soft deletion explicitly. Directory queries must filter
// on it; nothing relies on implicit scoping.
type RecordStatus string

const (
	RecordActive  RecordStatus = "ACTIVE"
	RecordRetired RecordStatus = "RETIRED"
)

// Valid returns true when the status is a supported value.
func (s RecordStatus) Valid() bool {
	return s == RecordActive || s == RecordRetired
}
