// Package id160 implements the 160-bit opaque names layers are addressed by.
package id160

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// Size is the length of an ID in bytes.
const Size = 20

// ID is a 160-bit layer name (the width of five 32-bit words), stored as
// 20 raw bytes.
type ID [Size]byte

// Zero is the distinguished empty id, never assigned to a real layer.
var Zero ID

// New returns a fresh random ID. Entropy comes from crypto/rand directly for
// the first 16 bytes, folded with a uuid.New() draw for the remaining 4, so
// a broken or predictable uuid source alone can't collapse collision
// resistance to zero.
func New() ID {
	var id ID
	if _, err := rand.Read(id[:16]); err != nil {
		panic(fmt.Sprintf("id160: system randomness unavailable: %v", err))
	}
	u := uuid.New()
	copy(id[16:], u[:4])
	return id
}

// IsZero reports whether id is the distinguished zero value.
func (id ID) IsZero() bool {
	return id == Zero
}

// String renders id as lowercase hex.
func (id ID) String() string {
	return hex.EncodeToString(id[:])
}

// Less gives IDs a total order, used only to make test output and exported
// pack framing deterministic; it carries no semantic weight.
func (id ID) Less(other ID) bool {
	for i := range id {
		if id[i] != other[i] {
			return id[i] < other[i]
		}
	}
	return false
}

// Parse decodes a hex string produced by String back into an ID.
func Parse(s string) (ID, error) {
	var id ID
	b, err := hex.DecodeString(s)
	if err != nil {
		return id, fmt.Errorf("id160: invalid hex: %w", err)
	}
	if len(b) != Size {
		return id, fmt.Errorf("id160: expected %d bytes, got %d", Size, len(b))
	}
	copy(id[:], b)
	return id, nil
}

// MarshalText implements encoding.TextMarshaler.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ID) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
