package web

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/JonMunkholm/productimport/internal/core"
)

// productResource is the API view of a product. Amounts are fixed-digit
// strings at the currency precision so clients never round-trip through
// floating point.
type productResource struct {
	ID         uuid.UUID      `json:"id"`
	Created    time.Time      `json:"created"`
	BatchID    *uuid.UUID     `json:"batch_id"`
	Name       string         `json:"name"`
	Prices     pricesResource `json:"prices"`
	Expiration time.Time      `json:"expiration"`
}

type priceResource struct {
	Code   core.CurrencyCode `json:"code"`
	Amount string            `json:"amount"`
}

type pricesResource struct {
	USD priceResource `json:"usd"`
	EUR priceResource `json:"eur"`
	JPY priceResource `json:"jpy"`
	BRL priceResource `json:"brl"`
	BTC priceResource `json:"btc"`
}

func toProductResource(p core.Product) productResource {
	res := productResource{
		ID:         p.ID,
		Created:    p.Created,
		Name:       p.Name,
		Expiration: p.Expiration,
		Prices: pricesResource{
			USD: toPriceResource(p.Prices.USD),
			EUR: toPriceResource(p.Prices.EUR),
			JPY: toPriceResource(p.Prices.JPY),
			BRL: toPriceResource(p.Prices.BRL),
			BTC: toPriceResource(p.Prices.BTC),
		},
	}
	if p.BatchID.Valid {
		id := p.BatchID.UUID
		res.BatchID = &id
	}
	return res
}

func toPriceResource(c core.CurrencyType) priceResource {
	return priceResource{Code: c.Code, Amount: fixedDigits(c.Amount, c.Code.Precision())}
}

// fixedDigits renders minor units with exactly unit fractional digits:
// 1090 at 2 is "10.90", 3405000 at 8 is "0.03405000".
func fixedDigits(amount int64, unit int) string {
	return decimal.New(amount, -int32(unit)).StringFixed(int32(unit))
}

// handleListProducts serves GET /api/products. Unknown or malformed query
// values are ignored.
func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	q := core.ParseProductQuery(r.URL.Query())

	products, err := s.service.Products(r.Context(), q)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	out := make([]productResource, len(products))
	for i, p := range products {
		out[i] = toProductResource(p)
	}
	writeJSON(w, out)
}

// handleGetProduct serves GET /api/products/{id}.
func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		path := "$.id"
		s.respondError(w, r, &core.ValidationError{
			Segment: core.SegmentParams,
			Issues: []core.ValidationIssue{{
				Message: "Expected id to be a UUID",
				Path:    &path,
				Type:    core.IssueInvalidFormat,
			}},
		})
		return
	}

	p, err := s.service.Product(r.Context(), id)
	if err != nil {
		if errors.Is(err, core.ErrProductNotFound) {
			err = &notFoundError{resource: "product", key: raw}
		}
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, toProductResource(p))
}
