package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/JonMunkholm/productimport/internal/logging"
	"github.com/google/uuid"
)

// DefaultImportTimeout bounds one import from rate fetch to commit.
const DefaultImportTimeout = 2 * time.Minute

// RateSource supplies the current USD exchange rate.
type RateSource interface {
	Rate(ctx context.Context) (ExchangeRate, error)
}

// ProductStore persists batches and serves product reads.
type ProductStore interface {
	// SaveBatch stores the batch and its products atomically. It does
	// nothing when products is empty.
	SaveBatch(ctx context.Context, batch ProductBatch, products []Product) error
	QueryProducts(ctx context.Context, q ProductQuery) ([]Product, error)
	// FindProduct returns ErrProductNotFound when no product has the id.
	FindProduct(ctx context.Context, id uuid.UUID) (Product, error)
}

// ImportRequest is one uploaded file plus its form fields.
type ImportRequest struct {
	Filename string
	Strategy string
	Body     io.Reader
}

// ImportResult summarizes a stored batch.
type ImportResult struct {
	Batch    ProductBatch      `json:"batch"`
	Issues   []ValidationIssue `json:"issues"`
	Imported int               `json:"imported"`
	Strategy Strategy          `json:"strategy"`
}

// ServiceConfig tunes a Service. Zero fields use defaults.
type ServiceConfig struct {
	MaxConcurrentImports int
	MaxWaitTime          time.Duration
	ImportTimeout        time.Duration
}

// Service runs imports and product reads.
type Service struct {
	rates   RateSource
	store   ProductStore
	limiter *ImportLimiter
	timeout time.Duration
}

// NewService wires a Service to its rate source and store.
func NewService(rates RateSource, store ProductStore, cfg ServiceConfig) *Service {
	timeout := cfg.ImportTimeout
	if timeout <= 0 {
		timeout = DefaultImportTimeout
	}
	return &Service{
		rates:   rates,
		store:   store,
		limiter: NewImportLimiter(cfg.MaxConcurrentImports, cfg.MaxWaitTime),
		timeout: timeout,
	}
}

// Limiter exposes the import limiter for health reporting and shutdown.
func (s *Service) Limiter() *ImportLimiter {
	return s.limiter
}

// Import validates the request, parses the file and stores the result.
//
// Request and file problems come back as *ValidationError. A missing
// exchange rate is a *ServiceError of type UNAVAILABLE. Under the atomic
// strategy any row issue rejects the batch and nothing is stored.
func (s *Service) Import(ctx context.Context, req ImportRequest) (*ImportResult, error) {
	strategy, ok := ParseStrategy(req.Strategy)
	if !ok {
		return nil, newValidationError(SegmentMultipartField, ValidationIssue{
			Message: "No strategy was found in the request multipart field",
			Path:    fieldPath("strategy"),
			Type:    IssueNotFound,
		})
	}

	if req.Body == nil || req.Filename == "" {
		return nil, newValidationError(SegmentMultipartFile, ValidationIssue{
			Message: "No file was found in the request multipart file",
			Path:    fieldPath("file"),
			Type:    IssueNotFound,
		})
	}
	if !strings.HasSuffix(strings.ToLower(req.Filename), ".csv") {
		return nil, newValidationError(SegmentMultipartFile, ValidationIssue{
			Message: "Expected file must be a CSV",
			Path:    fieldPath("file"),
			Type:    IssueInvalidFormat,
		})
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	logger := logging.WithFields(ctx, "filename", req.Filename, "strategy", strategy)
	start := time.Now()

	rate, err := s.rates.Rate(ctx)
	if err != nil {
		logger.Error("get exchange rate service unavailable", "error", err)
		return nil, &ServiceError{Type: ServiceUnavailable, Err: err}
	}

	res, err := RunPipeline(ctx, req.Body, req.Filename, strategy, rate)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			logger.Info("import aborted", "reason", verr.Issues[0].Message)
		}
		return nil, err
	}

	logger = logger.With("batch_id", res.Batch.ID)

	if strategy == StrategyAtomic && len(res.Issues) > 0 {
		logger.Info("import rejected", "issues", len(res.Issues), "bytes", res.BytesRead)
		return nil, newValidationError(SegmentMultipartFile, res.Issues...)
	}

	if err := s.store.SaveBatch(ctx, res.Batch, res.Products); err != nil {
		return nil, fmt.Errorf("save batch %s: %w", res.Batch.ID, err)
	}

	logger.Info("import completed",
		"products", len(res.Products),
		"issues", len(res.Issues),
		"bytes", res.BytesRead,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	issues := res.Issues
	if issues == nil {
		issues = []ValidationIssue{}
	}
	return &ImportResult{
		Batch:    res.Batch,
		Issues:   issues,
		Imported: len(res.Products),
		Strategy: strategy,
	}, nil
}

// Products lists products matching q. Unset fields of q take the listing
// defaults: newest first, ranges measured in USD.
func (s *Service) Products(ctx context.Context, q ProductQuery) ([]Product, error) {
	if q.Order == "" {
		q.Order = SortDesc
	}
	if q.OrderBy == "" {
		q.OrderBy = SortByID
	}
	if q.RangeBy == "" {
		q.RangeBy = USD
	}
	products, err := s.store.QueryProducts(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	return products, nil
}

// Product returns one product or ErrProductNotFound.
func (s *Service) Product(ctx context.Context, id uuid.UUID) (Product, error) {
	p, err := s.store.FindProduct(ctx, id)
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return Product{}, err
		}
		return Product{}, fmt.Errorf("find product %s: %w", id, err)
	}
	return p, nil
}
