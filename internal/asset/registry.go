package asset

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/Klingon-tech/klingnet-assets/internal/storage"
	"github.com/Klingon-tech/klingnet-assets/pkg/tx"
	"github.com/Klingon-tech/klingnet-assets/pkg/types"
)

var prefixProduct = []byte("p/") // p/<code> -> ProductInfo JSON

// Registry errors.
var (
	ErrUnknownProduct   = errors.New("unknown product")
	ErrProductConflict  = errors.New("product already registered with different decimals")
	ErrEmptyProductCode = errors.New("product code is empty")
)

// ProductInfo describes a product and the parties seen issuing it.
type ProductInfo struct {
	Product types.Product `json:"product"`
	Issuers []types.Party `json:"issuers,omitempty"`
}

// Registry persists the products known to this node, so that amounts can be
// parsed and displayed with the right number of decimals.
type Registry struct {
	db storage.DB
}

// NewRegistry creates a product registry.
func NewRegistry(db storage.DB) *Registry {
	return &Registry{db: db}
}

// Register stores a product. Registering the same product again is a no-op;
// registering a code with different decimals fails.
func (r *Registry) Register(p types.Product) error {
	if p.Code == "" {
		return ErrEmptyProductCode
	}
	info, err := r.Get(p.Code)
	switch {
	case errors.Is(err, ErrUnknownProduct):
		return r.put(&ProductInfo{Product: p})
	case err != nil:
		return err
	case info.Product != p:
		return fmt.Errorf("%w: %s has %d decimals, not %d", ErrProductConflict, p.Code, info.Product.Decimals, p.Decimals)
	}
	return nil
}

// Get returns the info for a product code.
func (r *Registry) Get(code string) (*ProductInfo, error) {
	data, err := r.db.Get(productKey(code))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProduct, code)
	}
	if err != nil {
		return nil, fmt.Errorf("product get: %w", err)
	}
	var info ProductInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("product unmarshal: %w", err)
	}
	return &info, nil
}

// Product returns the product registered under code.
func (r *Registry) Product(code string) (types.Product, error) {
	info, err := r.Get(code)
	if err != nil {
		return types.Product{}, err
	}
	return info.Product, nil
}

// List returns all registered products ordered by code.
func (r *Registry) List() ([]ProductInfo, error) {
	var out []ProductInfo
	err := r.db.ForEach(prefixProduct, func(_, value []byte) error {
		var info ProductInfo
		if err := json.Unmarshal(value, &info); err != nil {
			return nil // Skip corrupt entries.
		}
		out = append(out, info)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Product.Code < out[j].Product.Code })
	return out, nil
}

// RecordIssuance registers the products created by an issuance and notes
// their issuers. Transactions without an Issue command are ignored.
func (r *Registry) RecordIssuance(ltx *tx.LedgerTransaction) error {
	if len(tx.Select[tx.Issue](ltx.Commands)) == 0 {
		return nil
	}
	for _, out := range ltx.Outputs {
		token := out.Token()
		if err := r.Register(token.Product); err != nil {
			return err
		}
		info, err := r.Get(token.Product.Code)
		if err != nil {
			return err
		}
		if !containsParty(info.Issuers, token.Issuer.Party) {
			info.Issuers = append(info.Issuers, token.Issuer.Party)
			if err := r.put(info); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Registry) put(info *ProductInfo) error {
	data, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("product marshal: %w", err)
	}
	return r.db.Put(productKey(info.Product.Code), data)
}

func containsParty(parties []types.Party, p types.Party) bool {
	for _, x := range parties {
		if x == p {
			return true
		}
	}
	return false
}

func productKey(code string) []byte {
	key := make([]byte, 0, len(prefixProduct)+len(code))
	key = append(key, prefixProduct...)
	return append(key, code...)
}
