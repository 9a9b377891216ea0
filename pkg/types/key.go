package types

import (
	"encoding/hex"
	"errors"
	"fmt"
)

// PublicKeySize is the length of a compressed secp256k1 public key.
const PublicKeySize = 33

// ErrInvalidPublicKey is returned when decoding a key of the wrong shape.
var ErrInvalidPublicKey = errors.New("invalid public key")

// PublicKey is a compressed secp256k1 public key. It is a comparable value
// and can be used as a map key, including as a JSON object key.
type PublicKey [PublicKeySize]byte

// PublicKeyFromBytes copies a 33-byte compressed key.
func PublicKeyFromBytes(b []byte) (PublicKey, error) {
	var k PublicKey
	if len(b) != PublicKeySize {
		return k, fmt.Errorf("%w: length %d, want %d", ErrInvalidPublicKey, len(b), PublicKeySize)
	}
	if b[0] != 0x02 && b[0] != 0x03 {
		return k, fmt.Errorf("%w: bad prefix 0x%02x", ErrInvalidPublicKey, b[0])
	}
	copy(k[:], b)
	return k, nil
}

// HexToPublicKey decodes a hex-encoded compressed key.
func HexToPublicKey(s string) (PublicKey, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return PublicKey{}, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	return PublicKeyFromBytes(b)
}

// IsZero returns true for the zero-value key.
func (k PublicKey) IsZero() bool {
	return k == PublicKey{}
}

// Bytes returns a copy of the key bytes.
func (k PublicKey) Bytes() []byte {
	b := make([]byte, PublicKeySize)
	copy(b, k[:])
	return b
}

// String returns the hex-encoded key.
func (k PublicKey) String() string {
	return hex.EncodeToString(k[:])
}

// Short returns the first 8 hex characters, for log lines.
func (k PublicKey) Short() string {
	return hex.EncodeToString(k[:4])
}

// MarshalText encodes the key as hex.
func (k PublicKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a hex key.
func (k *PublicKey) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*k = PublicKey{}
		return nil
	}
	decoded, err := HexToPublicKey(string(data))
	if err != nil {
		return err
	}
	*k = decoded
	return nil
}

// Party is a named legal identity holding a signing key.
type Party struct {
	Name string    `json:"name"`
	Key  PublicKey `json:"key"`
}

// String returns the party name, or the short key when unnamed.
func (p Party) String() string {
	if p.Name != "" {
		return p.Name
	}
	return p.Key.Short()
}

// OpaqueBytes holds an uninterpreted byte string, such as an issuer's
// deposit reference. It is stored as a Go string so that values compare
// with ==.
type OpaqueBytes string

// NewOpaqueBytes copies b into an OpaqueBytes value.
func NewOpaqueBytes(b []byte) OpaqueBytes {
	return OpaqueBytes(b)
}

// Bytes returns the raw bytes.
func (o OpaqueBytes) Bytes() []byte {
	return []byte(o)
}

// String returns the hex form.
func (o OpaqueBytes) String() string {
	return hex.EncodeToString([]byte(o))
}

// MarshalText encodes as hex.
func (o OpaqueBytes) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText decodes hex.
func (o *OpaqueBytes) UnmarshalText(data []byte) error {
	b, err := hex.DecodeString(string(data))
	if err != nil {
		return fmt.Errorf("invalid opaque bytes: %w", err)
	}
	*o = OpaqueBytes(b)
	return nil
}

// PartyAndReference names an issuer together with the reference under
// which a particular deposit was made.
type PartyAndReference struct {
	Party     Party       `json:"party"`
	Reference OpaqueBytes `json:"reference"`
}

// Ref returns a PartyAndReference for p with the given reference bytes.
func (p Party) Ref(reference ...byte) PartyAndReference {
	return PartyAndReference{Party: p, Reference: NewOpaqueBytes(reference)}
}

// String returns "party[ref]".
func (p PartyAndReference) String() string {
	return fmt.Sprintf("%s[%s]", p.Party, p.Reference)
}
