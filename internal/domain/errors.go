package domain

import (
	"errors"
	"fmt"
)

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure — no infrastructure dependency. Grouped by the
// error-handling taxonomy the rest of the engine dispatches on.

var (
	// Decode errors — malformed bytes on the wire.
	ErrDecode = errors.New("malformed wire bytes")

	// Crypto errors — envelope or config-box failure.
	ErrCrypto = errors.New("envelope or config decryption failed")

	// Application-identifier parse errors on an incoming rumor.
	ErrServiceGroupParse = errors.New("invalid service group")
	ErrPackageIdentParse = errors.New("invalid package identifier")

	// Rumor/member-list invariant violations that should never be reachable
	// from peer input; surfaced so callers can choose to log-and-drop.
	ErrIncomparableRumor = errors.New("rumor merge attempted across different (type, key, id)")
	ErrUnknownRumorType  = errors.New("unrecognized rumor type")
)

// ProtocolMismatch names the specific field that was missing or whose type
// discriminator was inconsistent with its payload. A plain sentinel can't
// carry that detail, so this gets a minimal typed error.
type ProtocolMismatch struct {
	Field string
}

func (e *ProtocolMismatch) Error() string {
	return fmt.Sprintf("protocol mismatch: missing or inconsistent field %q", e.Field)
}

// NewProtocolMismatch constructs a ProtocolMismatch for the named field.
func NewProtocolMismatch(field string) error {
	return &ProtocolMismatch{Field: field}
}
