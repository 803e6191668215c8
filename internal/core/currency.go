package core

import (
	"fmt"

	"github.com/JonMunkholm/productimport/internal/precise"
)

// ConvertPrices converts a USD price (unit 2) into every supported currency.
//
// Each foreign amount is usd × rate truncated to the currency's precision.
// Truncation is intentional: converted prices are never rounded up, and the
// same inputs always give the same minor-unit amounts.
func ConvertPrices(usd precise.Number, rate ExchangeRate) (Prices, error) {
	var p Prices
	for _, code := range Currencies {
		amount, err := convert(usd, rate, code)
		if err != nil {
			return Prices{}, err
		}
		ct := CurrencyType{Code: code, Amount: amount}
		switch code {
		case USD:
			p.USD = ct
		case EUR:
			p.EUR = ct
		case JPY:
			p.JPY = ct
		case BRL:
			p.BRL = ct
		case BTC:
			p.BTC = ct
		}
	}
	return p, nil
}

func convert(usd precise.Number, rate ExchangeRate, code CurrencyCode) (int64, error) {
	var n precise.Number
	if code == USD {
		n = usd.MustNormalize(USD.Precision(), precise.Truncate)
	} else {
		n = usd.Mul(rate.Rate(code)).MustNormalize(code.Precision(), precise.Truncate)
	}

	amount, ok := n.Int64()
	if !ok {
		return 0, fmt.Errorf("convert %s: amount %s overflows int64", code, n)
	}
	return amount, nil
}
