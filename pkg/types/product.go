package types

import "fmt"

// Product is the thing an issuer promises, e.g. a currency.
type Product struct {
	Code     string `json:"code"`
	Decimals uint8  `json:"decimals"`
}

// DisplayDecimals implements Tokenizable.
func (p Product) DisplayDecimals() uint8 {
	return p.Decimals
}

// String returns the product code.
func (p Product) String() string {
	return p.Code
}

// IssuedBy returns the fingerprint of p issued under ref.
func (p Product) IssuedBy(ref PartyAndReference) Issued {
	return Issued{Issuer: ref, Product: p}
}

// Issued is the fungibility fingerprint of an asset: who issued it, under
// which reference, and what it is. Two amounts are interchangeable only if
// their Issued values are equal.
type Issued struct {
	Issuer  PartyAndReference `json:"issuer"`
	Product Product           `json:"product"`
}

// DisplayDecimals implements Tokenizable.
func (i Issued) DisplayDecimals() uint8 {
	return i.Product.Decimals
}

// String returns "product issued by party[ref]".
func (i Issued) String() string {
	return fmt.Sprintf("%s issued by %s", i.Product, i.Issuer)
}
