package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/productimport/internal/core"
)

var productColumns = []string{
	"id", "created", "batch_id", "name", "expiration",
	"price_usd", "price_eur", "price_jpy", "price_brl", "price_btc",
}

// SaveBatch inserts the batch row and copies its products in one transaction.
func (s *Store) SaveBatch(ctx context.Context, batch core.ProductBatch, products []core.Product) error {
	if len(products) == 0 {
		return nil
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO product_batches (id, created, strategy, filename) VALUES ($1, $2, $3, $4)`,
		pgUUID(batch.ID), pgTimestamptz(batch.Created), string(batch.Strategy), batch.Filename,
	)
	if err != nil {
		return fmt.Errorf("insert batch: %w", err)
	}

	copied, err := tx.CopyFrom(ctx,
		pgx.Identifier{"products"},
		productColumns,
		pgx.CopyFromSlice(len(products), func(i int) ([]any, error) {
			return productValues(products[i]), nil
		}),
	)
	if err != nil {
		return fmt.Errorf("copy products: %w", err)
	}
	if copied != int64(len(products)) {
		return fmt.Errorf("copy products: wrote %d of %d rows", copied, len(products))
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// QueryProducts lists products matching q. Order and column defaults are
// applied for empty fields.
func (s *Store) QueryProducts(ctx context.Context, q core.ProductQuery) ([]core.Product, error) {
	query, args := buildProductQuery(q)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := make([]core.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}

	return products, nil
}

// FindProduct returns core.ErrProductNotFound when no row has id.
func (s *Store) FindProduct(ctx context.Context, id uuid.UUID) (core.Product, error) {
	query := "SELECT " + selectColumns() + " FROM products WHERE id = $1"

	p, err := scanProduct(s.pool.QueryRow(ctx, query, pgUUID(id)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return core.Product{}, core.ErrProductNotFound
		}
		return core.Product{}, fmt.Errorf("find product %s: %w", id, err)
	}
	return p, nil
}

func buildProductQuery(q core.ProductQuery) (string, []any) {
	rangeBy := q.RangeBy
	if rangeBy == "" {
		rangeBy = core.USD
	}

	wb := newWhereBuilder()
	wb.Add("name", q.Name)
	wb.AddRange(priceColumn(rangeBy), q.RangeStart, q.RangeEnd)
	where, args := wb.Build()

	dir := "DESC"
	if q.Order == core.SortAsc {
		dir = "ASC"
	}

	order := quoteIdentifier(sortColumn(q.OrderBy)) + " " + dir
	if q.OrderBy != "" && q.OrderBy != core.SortByID {
		order += ", " + quoteIdentifier("id") + " " + dir
	}

	return "SELECT " + selectColumns() + " FROM products" + where + " ORDER BY " + order, args
}

func selectColumns() string {
	quoted := make([]string, len(productColumns))
	for i, c := range productColumns {
		quoted[i] = quoteIdentifier(c)
	}
	return strings.Join(quoted, ", ")
}

func priceColumn(c core.CurrencyCode) string {
	return "price_" + strings.ToLower(string(c))
}

func sortColumn(s core.ProductSort) string {
	switch s {
	case core.SortByUSD:
		return priceColumn(core.USD)
	case core.SortByEUR:
		return priceColumn(core.EUR)
	case core.SortByJPY:
		return priceColumn(core.JPY)
	case core.SortByBRL:
		return priceColumn(core.BRL)
	case core.SortByBTC:
		return priceColumn(core.BTC)
	case core.SortByExpiration:
		return "expiration"
	default:
		return "id"
	}
}

func productValues(p core.Product) []any {
	batchID := pgtype.UUID{}
	if p.BatchID.Valid {
		batchID = pgUUID(p.BatchID.UUID)
	}
	return []any{
		pgUUID(p.ID),
		pgTimestamptz(p.Created),
		batchID,
		p.Name,
		pgtype.Date{Time: p.Expiration, Valid: true},
		p.Prices.USD.Amount,
		p.Prices.EUR.Amount,
		p.Prices.JPY.Amount,
		p.Prices.BRL.Amount,
		p.Prices.BTC.Amount,
	}
}

func scanProduct(row pgx.Row) (core.Product, error) {
	var (
		id         pgtype.UUID
		created    pgtype.Timestamptz
		batchID    pgtype.UUID
		name       string
		expiration pgtype.Date
		usd        int64
		eur        int64
		jpy        int64
		brl        int64
		btc        int64
	)

	if err := row.Scan(&id, &created, &batchID, &name, &expiration, &usd, &eur, &jpy, &brl, &btc); err != nil {
		return core.Product{}, err
	}

	p := core.Product{
		ID:         uuid.UUID(id.Bytes),
		Created:    created.Time.UTC(),
		Name:       name,
		Expiration: time.Date(expiration.Time.Year(), expiration.Time.Month(), expiration.Time.Day(), 0, 0, 0, 0, time.UTC),
		Prices: core.Prices{
			USD: core.CurrencyType{Code: core.USD, Amount: usd},
			EUR: core.CurrencyType{Code: core.EUR, Amount: eur},
			JPY: core.CurrencyType{Code: core.JPY, Amount: jpy},
			BRL: core.CurrencyType{Code: core.BRL, Amount: brl},
			BTC: core.CurrencyType{Code: core.BTC, Amount: btc},
		},
	}
	if batchID.Valid {
		p.BatchID = uuid.NullUUID{UUID: uuid.UUID(batchID.Bytes), Valid: true}
	}
	return p, nil
}

func pgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

func pgTimestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}
