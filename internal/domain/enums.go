package domain

// ImportStatus is the outcome classification of one file in a batch import.
type ImportStatus string

const (
	ImportStatusImported  ImportStatus = "imported"
	ImportStatusDuplicate ImportStatus = "duplicate"
	ImportStatusFailed    ImportStatus = "failed"
)
