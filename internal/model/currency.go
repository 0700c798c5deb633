package model

import (
	"fmt"
	"strings"
)

// Currency is the asset a deposit is paid in.
type Currency string

const (
	CurrencyNative  Currency = "NATIVE"
	CurrencyWrapped Currency = "WRAPPED"
)

// ParseCurrency accepts the canonical names and the chain symbols the
// front-end used (MATIC/WMATIC on Polygon, ETH/WETH elsewhere).
func ParseCurrency(s string) (Currency, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "NATIVE", "MATIC", "ETH":
		return CurrencyNative, nil
	case "WRAPPED", "WMATIC", "WETH":
		return CurrencyWrapped, nil
	default:
		return "", fmt.Errorf("unknown currency %q", s)
	}
}

func (c Currency) Valid() bool {
	return c == CurrencyNative || c == CurrencyWrapped
}
