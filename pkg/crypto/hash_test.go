package crypto

import "testing"

func TestHash_KnownVector(t *testing.T) {
	got := Hash([]byte{}).String()
	want := "af1349b9f5f9a1a6a0404dea36dcc9499bcb25c9adc112b7cc9a93cae41f3262"
	if got != want {
		t.Errorf("Hash(empty) = %s, want %s", got, want)
	}
}

func TestHash_Deterministic(t *testing.T) {
	if Hash([]byte("asset")) != Hash([]byte("asset")) {
		t.Error("same input should produce same hash")
	}
	if Hash([]byte("a")) == Hash([]byte("b")) {
		t.Error("different inputs should produce different hashes")
	}
}

func TestTaggedHash_Separation(t *testing.T) {
	data := []byte("payload")
	a := TaggedHash("klingnet-assets tx", data)
	b := TaggedHash("klingnet-assets other", data)
	if a == b {
		t.Error("different tags should produce different hashes")
	}
	if a == Hash(data) {
		t.Error("tagged hash should differ from plain hash")
	}
	if a != TaggedHash("klingnet-assets tx", data) {
		t.Error("tagged hash should be deterministic")
	}
}
