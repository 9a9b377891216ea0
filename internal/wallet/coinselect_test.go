package wallet

import (
	"errors"
	"testing"

	"github.com/Klingon-tech/klingnet-assets/pkg/types"
)

func mixedPool() []poolEntry {
	return []poolEntry{
		{100, usdMega},
		{400, usdMega},
		{80, usdMini},
		{80, gbpMini},
	}
}

func TestSelectCoins_ExactFirstState(t *testing.T) {
	pool := makePool(mixedPool()...)
	sel, err := SelectCoins(pool, usdAmount(100), nil)
	if err != nil {
		t.Fatalf("SelectCoins: %v", err)
	}
	if len(sel.Inputs) != 1 || sel.Inputs[0].Ref != pool[0].Ref {
		t.Fatalf("inputs = %v, want first state only", sel.Inputs)
	}
	if sel.Total.Quantity != 100 || !sel.Change.IsZero() {
		t.Errorf("total = %d change = %d", sel.Total.Quantity, sel.Change.Quantity)
	}
}

func TestSelectCoins_WalksUntilCovered(t *testing.T) {
	pool := makePool(poolEntry{100, usdMega}, poolEntry{400, usdMega})
	sel, err := SelectCoins(pool, usdAmount(500), nil)
	if err != nil {
		t.Fatalf("SelectCoins: %v", err)
	}
	if len(sel.Inputs) != 2 || sel.Inputs[0].Ref != pool[0].Ref || sel.Inputs[1].Ref != pool[1].Ref {
		t.Fatalf("inputs = %v, want both in order", sel.Inputs)
	}
	if sel.Total.Quantity != 500 || !sel.Change.IsZero() {
		t.Errorf("total = %d change = %d", sel.Total.Quantity, sel.Change.Quantity)
	}
}

func TestSelectCoins_StopsAtFirstSufficientState(t *testing.T) {
	pool := makePool(poolEntry{100, usdMega}, poolEntry{400, usdMega})
	sel, err := SelectCoins(pool, usdAmount(10), nil)
	if err != nil {
		t.Fatalf("SelectCoins: %v", err)
	}
	if len(sel.Inputs) != 1 || sel.Inputs[0].Ref != pool[0].Ref {
		t.Fatalf("inputs = %v, want the 100 state", sel.Inputs)
	}
	if sel.Change.Quantity != 90 {
		t.Errorf("change = %d, want 90", sel.Change.Quantity)
	}
}

func TestSelectCoins_ReportsMissingAmount(t *testing.T) {
	pool := makePool(mixedPool()...)
	_, err := SelectCoins(pool, usdAmount(1000), nil)
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("err = %v, want ErrInsufficientFunds", err)
	}
	var ibe *InsufficientBalanceError
	if !errors.As(err, &ibe) {
		t.Fatalf("err %T is not *InsufficientBalanceError", err)
	}
	// 100 + 400 + 80 USD from any issuer; the GBP state does not count.
	if ibe.Missing.Quantity != 420 || ibe.Missing.Token != usd {
		t.Errorf("missing = %v, want 420 USD", ibe.Missing)
	}
}

func TestSelectCoins_Minimal(t *testing.T) {
	pool := makePool(
		poolEntry{10, usdMega},
		poolEntry{20, usdMega},
		poolEntry{30, usdMega},
		poolEntry{40, usdMega},
	)
	tests := []struct {
		target uint64
		n      int
	}{
		{1, 1}, {10, 1}, {11, 2}, {30, 2}, {31, 3}, {60, 3}, {61, 4}, {100, 4},
	}
	for _, tt := range tests {
		sel, err := SelectCoins(pool, usdAmount(tt.target), nil)
		if err != nil {
			t.Fatalf("target %d: %v", tt.target, err)
		}
		if len(sel.Inputs) != tt.n {
			t.Errorf("target %d: selected %d states, want %d", tt.target, len(sel.Inputs), tt.n)
		}
		if sel.Total.Quantity != sel.Change.Quantity+tt.target {
			t.Errorf("target %d: total %d != change %d + target", tt.target, sel.Total.Quantity, sel.Change.Quantity)
		}
	}
}

func TestSelectCoins_AllowedIssuers(t *testing.T) {
	pool := makePool(mixedPool()...)

	sel, err := SelectCoins(pool, usdAmount(50), []types.Party{miniBank})
	if err != nil {
		t.Fatalf("SelectCoins: %v", err)
	}
	if len(sel.Inputs) != 1 || sel.Inputs[0].State.Token() != usdMini {
		t.Errorf("inputs = %v, want the MiniBank USD state", sel.Inputs)
	}

	_, err = SelectCoins(pool, usdAmount(100), []types.Party{miniBank})
	var ibe *InsufficientBalanceError
	if !errors.As(err, &ibe) || ibe.Missing.Quantity != 20 {
		t.Errorf("err = %v, want 20 missing", err)
	}
}

func TestSelectCoins_ZeroTarget(t *testing.T) {
	_, err := SelectCoins(makePool(poolEntry{100, usdMega}), usdAmount(0), nil)
	if !errors.Is(err, ErrZeroTarget) {
		t.Errorf("err = %v, want ErrZeroTarget", err)
	}
}

func TestSelectCoins_EmptyPool(t *testing.T) {
	_, err := SelectCoins(nil, usdAmount(5), nil)
	var ibe *InsufficientBalanceError
	if !errors.As(err, &ibe) || ibe.Missing.Quantity != 5 {
		t.Errorf("err = %v, want 5 missing", err)
	}
}

func TestSelectCoins_SkipsZeroStates(t *testing.T) {
	pool := makePool(poolEntry{0, usdMega}, poolEntry{5, usdMega})
	sel, err := SelectCoins(pool, usdAmount(5), nil)
	if err != nil {
		t.Fatalf("SelectCoins: %v", err)
	}
	if len(sel.Inputs) != 1 || sel.Inputs[0].Ref != pool[1].Ref {
		t.Errorf("inputs = %v, want only the non-zero state", sel.Inputs)
	}
}
