package types

import (
	"encoding/json"
	"errors"
	"testing"
)

func testKey(b byte) PublicKey {
	var k PublicKey
	k[0] = 0x02
	k[1] = b
	return k
}

func TestPublicKey_HexRoundTrip(t *testing.T) {
	k := testKey(7)
	got, err := HexToPublicKey(k.String())
	if err != nil {
		t.Fatalf("HexToPublicKey: %v", err)
	}
	if got != k {
		t.Errorf("got %s, want %s", got, k)
	}
}

func TestPublicKeyFromBytes_Invalid(t *testing.T) {
	if _, err := PublicKeyFromBytes(make([]byte, 32)); !errors.Is(err, ErrInvalidPublicKey) {
		t.Errorf("short key: err = %v, want ErrInvalidPublicKey", err)
	}
	bad := make([]byte, PublicKeySize)
	bad[0] = 0x04
	if _, err := PublicKeyFromBytes(bad); !errors.Is(err, ErrInvalidPublicKey) {
		t.Errorf("bad prefix: err = %v, want ErrInvalidPublicKey", err)
	}
}

func TestPublicKey_JSONMapKey(t *testing.T) {
	m := map[PublicKey][]byte{testKey(1): {0x01}, testKey(2): {0x02}}
	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var back map[PublicKey][]byte
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(back) != 2 || back[testKey(2)][0] != 0x02 {
		t.Errorf("round trip lost entries: %v", back)
	}
}

func TestIssued_Equality(t *testing.T) {
	bank := Party{Name: "Bank", Key: testKey(1)}
	usd := Product{Code: "USD", Decimals: 2}

	a := usd.IssuedBy(bank.Ref(1))
	b := usd.IssuedBy(bank.Ref(1))
	c := usd.IssuedBy(bank.Ref(2))
	d := Product{Code: "GBP", Decimals: 2}.IssuedBy(bank.Ref(1))

	if a != b {
		t.Error("same issuer, ref and product should be equal")
	}
	if a == c {
		t.Error("different reference should not be equal")
	}
	if a == d {
		t.Error("different product should not be equal")
	}
}

func TestIssued_JSON(t *testing.T) {
	bank := Party{Name: "Bank", Key: testKey(9)}
	in := Product{Code: "USD", Decimals: 2}.IssuedBy(bank.Ref(0xca, 0xfe))
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var out Issued
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if out != in {
		t.Errorf("got %v, want %v", out, in)
	}
}

func TestPartyAndReference_String(t *testing.T) {
	p := Party{Name: "Bank", Key: testKey(1)}.Ref(0x01)
	if got := p.String(); got != "Bank[01]" {
		t.Errorf("String() = %q, want Bank[01]", got)
	}
}
