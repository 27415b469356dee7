package models

import "github.com/shopspring/decimal"

// CurrencyRef describes a payment asset found in the embedded page state
type CurrencyRef struct {
	ID           string
	Symbol       string
	USDSpotPrice decimal.Decimal
	ImageURL     string
}

// ContractRef describes an asset contract found in the embedded page state
type ContractRef struct {
	ID      string
	Address string
}

// Lookup holds the reference tables built from one page's embedded state
type Lookup struct {
	Currencies map[string]CurrencyRef
	Contracts  map[string]ContractRef
}

// NewLookup creates empty lookup tables
func NewLookup() *Lookup {
	return &Lookup{
		Currencies: make(map[string]CurrencyRef),
		Contracts:  make(map[string]ContractRef),
	}
}

// CurrencyBySymbol finds a currency by its symbol
func (l *Lookup) CurrencyBySymbol(symbol string) (CurrencyRef, bool) {
	if l == nil || symbol == "" {
		return CurrencyRef{}, false
	}
	for _, c := range l.Currencies {
		if c.Symbol == symbol {
			return c, true
		}
	}
	return CurrencyRef{}, false
}
