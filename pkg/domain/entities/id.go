package entities

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/uuid"
)

// ID is a stable scalar identifier, unique within its entity kind. It never
// mutates once assigned. Legacy snapshots carried numeric ids; those survive
// migration as their decimal string form.
type ID string

// NewID mints a fresh identifier.
func NewID() ID {
	return ID(uuid.NewString())
}

// IsZero reports whether the identifier is unset.
func (id ID) IsZero() bool {
	return id == ""
}

// UnmarshalJSON accepts both string ids and legacy numeric ids.
func (id *ID) UnmarshalJSON(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("id cannot be empty")
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	case 'n': // null
		*id = ""
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("id must be a string or number: %w", err)
		}
		// Legacy ids were wall-clock integers; collapse float forms to digits.
		if f, err := n.Float64(); err == nil && f == float64(int64(f)) {
			*id = ID(strconv.FormatInt(int64(f), 10))
			return nil
		}
		*id = ID(n.String())
		return nil
	}
}
