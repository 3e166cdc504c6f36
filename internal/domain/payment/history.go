package payment

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ChangeSnapshot captures the mutable fields of a payment or entry as they
// were immediately before a change was applied
type ChangeSnapshot struct {
	PlannedAmount decimal.Decimal  `json:"planned_amount"`
	ActualAmount  *decimal.Decimal `json:"actual_amount,omitempty"`
	PlannedDate   time.Time        `json:"planned_date"`
	ActualDate    *time.Time       `json:"actual_date,omitempty"`
	Status        string           `json:"status"`
}

// Change is an immutable audit record. Once written it is never mutated
// or deleted.
type Change struct {
	ID        uuid.UUID      `json:"id"`
	ChangedAt time.Time      `json:"changed_at"`
	ChangedBy string         `json:"changed_by"`
	Reason    string         `json:"reason"`
	Snapshot  ChangeSnapshot `json:"snapshot"`
}

// NewChange creates a new audit record with a generated id and timestamp
func NewChange(changedBy, reason string, snapshot ChangeSnapshot) Change {
	return Change{
		ID:        uuid.New(),
		ChangedAt: time.Now(),
		ChangedBy: changedBy,
		Reason:    reason,
		Snapshot:  snapshot,
	}
}

// ChangeLog is an append-only, ordered sequence of Changes. The only
// mutation it exposes is Append; existing records cannot be replaced or
// removed through this type. Stored as JSONB.
type ChangeLog struct {
	changes []Change
}

// Append adds a change to the end of the log
func (l *ChangeLog) Append(c Change) {
	l.changes = append(l.changes, c)
}

// Len returns the number of recorded changes
func (l ChangeLog) Len() int {
	return len(l.changes)
}

// Changes returns a copy of the recorded changes in order
func (l ChangeLog) Changes() []Change {
	out := make([]Change, len(l.changes))
	copy(out, l.changes)
	return out
}

// Last returns the most recent change, or false when the log is empty
func (l ChangeLog) Last() (Change, bool) {
	if len(l.changes) == 0 {
		return Change{}, false
	}
	return l.changes[len(l.changes)-1], true
}

// MarshalJSON implements json.Marshaler
func (l ChangeLog) MarshalJSON() ([]byte, error) {
	if l.changes == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l.changes)
}

// UnmarshalJSON implements json.Unmarshaler
func (l *ChangeLog) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &l.changes)
}

// Value implements driver.Valuer for GORM to store as JSONB
func (l ChangeLog) Value() (driver.Value, error) {
	return l.MarshalJSON()
}

// Scan implements sql.Scanner for GORM to read from JSONB
func (l *ChangeLog) Scan(value interface{}) error {
	if value == nil {
		l.changes = nil
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan ChangeLog: unsupported type")
	}

	if len(bytes) == 0 {
		l.changes = nil
		return nil
	}

	return json.Unmarshal(bytes, &l.changes)
}

// Attachment records metadata about a document attached to an entry.
// Binary storage lives in the external document store; only the descriptor
// is kept here.
type Attachment struct {
	ID         uuid.UUID `json:"id"`
	FileName   string    `json:"file_name"`
	FileSize   int64     `json:"file_size"`
	UploadedAt time.Time `json:"uploaded_at"`
	UploadedBy string    `json:"uploaded_by"`
	URL        string    `json:"url,omitempty"`
}

// NewAttachment creates an attachment descriptor
func NewAttachment(fileName string, fileSize int64, uploadedBy, url string) Attachment {
	return Attachment{
		ID:         uuid.New(),
		FileName:   fileName,
		FileSize:   fileSize,
		UploadedAt: time.Now(),
		UploadedBy: uploadedBy,
		URL:        url,
	}
}

// Attachments is a slice of Attachment that implements GORM Scanner/Valuer
// for JSONB storage
type Attachments []Attachment

// Value implements driver.Valuer for GORM to store as JSONB
func (a Attachments) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	return json.Marshal(a)
}

// Scan implements sql.Scanner for GORM to read from JSONB
func (a *Attachments) Scan(value interface{}) error {
	if value == nil {
		*a = Attachments{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan Attachments: unsupported type")
	}

	if len(bytes) == 0 {
		*a = Attachments{}
		return nil
	}

	return json.Unmarshal(bytes, a)
}
