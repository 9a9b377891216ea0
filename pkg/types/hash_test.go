package types

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestHash_IsZero(t *testing.T) {
	var zero Hash
	if !zero.IsZero() {
		t.Error("zero-value Hash should be zero")
	}
	if (Hash{0x01}).IsZero() {
		t.Error("non-zero Hash should not be zero")
	}
}

func TestHash_StringAndParse(t *testing.T) {
	h := Hash{0xab}
	h[31] = 0xcd
	s := h.String()
	if len(s) != 64 || !strings.HasPrefix(s, "ab") || !strings.HasSuffix(s, "cd") {
		t.Fatalf("String() = %s", s)
	}
	back, err := HexToHash(s)
	if err != nil {
		t.Fatalf("HexToHash: %v", err)
	}
	if back != h {
		t.Errorf("HexToHash(String()) = %s, want %s", back, h)
	}
}

func TestHexToHash_Invalid(t *testing.T) {
	for _, in := range []string{"zz", "abcd", strings.Repeat("0", 66)} {
		if _, err := HexToHash(in); err == nil {
			t.Errorf("HexToHash(%q) should fail", in)
		}
	}
}

func TestHash_Bytes_Copy(t *testing.T) {
	h := Hash{0x01}
	b := h.Bytes()
	b[0] = 0xff
	if h[0] != 0x01 {
		t.Error("Bytes() should return a copy")
	}
}

func TestHash_JSON(t *testing.T) {
	h := Hash{0x42}
	data, err := json.Marshal(h)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var got Hash
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got != h {
		t.Errorf("got %s, want %s", got, h)
	}

	if err := json.Unmarshal([]byte(`""`), &got); err != nil || !got.IsZero() {
		t.Errorf("empty string should decode to zero hash, got %s err=%v", got, err)
	}
}
