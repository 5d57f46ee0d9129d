package domain

import (
	"database/sql/driver"
	"fmt"

	"github.com/google/uuid"
)

// RowID is a newtype over a time-ordered 128-bit identifier (UUIDv7). Use it
// in place of a raw uuid.UUID everywhere a database row needs a primary key,
// so the id a caller holds was always minted by NewRowID or parsed from a
// string, never constructed by hand.
type RowID struct {
	value uuid.UUID
}

// NewRowID mints a fresh, time-ordered row identifier.
func NewRowID() RowID {
	id, err := uuid.NewV7()
	if err != nil {
		// uuid.NewV7 only fails if the process entropy source is broken;
		// falling back to v4 keeps the service alive rather than panicking
		// on a boundary condition that cannot occur on any supported OS.
		id = uuid.New()
	}
	return RowID{value: id}
}

// RowIDFromUUID wraps an already-minted uuid.UUID, e.g. one loaded back from
// the database.
func RowIDFromUUID(u uuid.UUID) RowID {
	return RowID{value: u}
}

// ParseRowID parses a hyphenated UUID string into a RowID.
func ParseRowID(s string) (RowID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return RowID{}, ValidationErr("id", "not a valid row id")
	}
	return RowID{value: u}, nil
}

// UUID returns the wrapped uuid.UUID.
func (r RowID) UUID() uuid.UUID { return r.value }

// IsZero reports whether this RowID was never assigned.
func (r RowID) IsZero() bool { return r.value == uuid.Nil }

func (r RowID) String() string { return r.value.String() }

// Value implements driver.Valuer so gorm/database-sql can persist a RowID
// directly as the underlying UUID.
func (r RowID) Value() (driver.Value, error) {
	return r.value.String(), nil
}

// Scan implements sql.Scanner.
func (r *RowID) Scan(src any) error {
	switch v := src.(type) {
	case string:
		u, err := uuid.Parse(v)
		if err != nil {
			return fmt.Errorf("scan row id: %w", err)
		}
		r.value = u
		return nil
	case []byte:
		u, err := uuid.Parse(string(v))
		if err != nil {
			return fmt.Errorf("scan row id: %w", err)
		}
		r.value = u
		return nil
	case [16]byte:
		r.value = uuid.UUID(v)
		return nil
	default:
		return fmt.Errorf("scan row id: unsupported type %T", src)
	}
}
