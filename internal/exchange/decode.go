package exchange

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/JonMunkholm/productimport/internal/core"
	"github.com/JonMunkholm/productimport/internal/precise"
)

// rateDigits is the number of fractional digits kept from each upstream rate.
const rateDigits = 15

type ratesResponse struct {
	Date string                     `json:"date"`
	USD  map[string]json.RawMessage `json:"usd"`
}

// decodeRates extracts the supported currencies from the upstream payload.
func decodeRates(body []byte) (string, core.ExchangeRate, error) {
	var resp ratesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", core.ExchangeRate{}, fmt.Errorf("unmarshal response: %w", err)
	}
	if resp.USD == nil {
		return "", core.ExchangeRate{}, errors.New("response has no usd rates")
	}

	rate := core.ExchangeRate{USD: usdRate()}
	for _, code := range []core.CurrencyCode{core.EUR, core.JPY, core.BRL, core.BTC} {
		n, err := currencyRate(resp.USD, code)
		if err != nil {
			return "", core.ExchangeRate{}, err
		}
		switch code {
		case core.EUR:
			rate.EUR = n
		case core.JPY:
			rate.JPY = n
		case core.BRL:
			rate.BRL = n
		case core.BTC:
			rate.BTC = n
		}
	}

	return resp.Date, rate, nil
}

// currencyRate reads one JSON number exactly and keeps rateDigits fractional
// digits of it.
func currencyRate(rates map[string]json.RawMessage, code core.CurrencyCode) (precise.Number, error) {
	key := strings.ToLower(string(code))
	raw, ok := rates[key]
	if !ok {
		return precise.Number{}, fmt.Errorf("exchange rate of currency %s was not found", code)
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] == '"' {
		return precise.Number{}, fmt.Errorf("exchange rate of currency %s is not a number: %s", code, raw)
	}

	d, err := decimal.NewFromString(string(raw))
	if err != nil {
		return precise.Number{}, fmt.Errorf("exchange rate of currency %s is not a number: %s", code, raw)
	}
	if !d.IsPositive() {
		return precise.Number{}, fmt.Errorf("exchange rate of currency %s must be positive: %s", code, d)
	}

	n, ok := precise.Parse(d.StringFixed(rateDigits))
	if !ok {
		return precise.Number{}, fmt.Errorf("exchange rate of currency %s: cannot represent %s", code, d)
	}
	return n, nil
}
