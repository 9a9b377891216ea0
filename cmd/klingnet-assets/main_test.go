package main

import (
	"flag"
	"io"
	"testing"
)

func TestPaymentFlags(t *testing.T) {
	var to paymentFlags
	fs := flag.NewFlagSet("pay", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Var(&to, "to", "")

	if err := fs.Parse([]string{"--to", "alice=10.50", "--to", "bob=1"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(to) != 2 || to[0] != "alice=10.50" || to[1] != "bob=1" {
		t.Fatalf("payments = %v", to)
	}
	if got := to.String(); got != "alice=10.50,bob=1" {
		t.Errorf("String() = %q", got)
	}
}

func TestPaymentFlags_MissingAmount(t *testing.T) {
	var to paymentFlags
	if err := to.Set("alice"); err == nil {
		t.Fatal("expected error for payment without amount")
	}
}

func TestParseRef(t *testing.T) {
	if got := parseRef(""); got != nil {
		t.Errorf("empty ref = %x, want nil", got)
	}
	if got := parseRef("0a0b"); len(got) != 2 || got[0] != 0x0a || got[1] != 0x0b {
		t.Errorf("parseRef(0a0b) = %x", got)
	}
}
