package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"inventory-audit/backend/internal/item/domain"
	"inventory-audit/backend/internal/platform/isotime"
	"inventory-audit/backend/internal/telemetry"
)

// ErrInvalidFilter is returned in strict mode when a search parameter cannot be parsed.
var ErrInvalidFilter = errors.New("invalid search filter")

// DefaultLimit is the row cap used when none is configured.
const DefaultLimit = 500

// Filter names reported in SearchResult.Discarded.
const (
	FilterLabID    = "lab_id"
	FilterDateFrom = "date_from"
	FilterDateTo   = "date_to"
)

// ItemRepo is the minimal item repository needed by the search service.
type ItemRepo interface {
	Search(ctx context.Context, f domain.SearchFilter) ([]*domain.SearchRow, error)
}

// Params are the raw query values of a search request. Empty strings mean "not supplied".
type Params struct {
	Q        string
	LabID    string
	Status   string
	DateFrom string
	DateTo   string
}

// SearchResult holds at most the configured cap of rows.
type SearchResult struct {
	Items []*domain.SearchRow
	// Truncated is true when more rows matched than the cap allowed.
	Truncated bool
	// Discarded names the filters that were supplied but dropped because they did not parse.
	Discarded []string
}

// SearchService runs filtered item searches.
type SearchService struct {
	repo    ItemRepo
	limit   int
	strict  bool
	metrics *telemetry.Metrics
	logger  *zap.Logger
	tracer  trace.Tracer
}

// Options configures a SearchService. Zero values select the defaults.
type Options struct {
	// Limit is the hard row cap; <= 0 means DefaultLimit.
	Limit int
	// Strict turns unparseable filters into ErrInvalidFilter instead of discarding them.
	Strict  bool
	Metrics *telemetry.Metrics
	Logger  *zap.Logger
}

// NewSearchService returns a search service reading from repo.
func NewSearchService(repo ItemRepo, opts Options) *SearchService {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SearchService{
		repo:    repo,
		limit:   limit,
		strict:  opts.Strict,
		metrics: opts.Metrics,
		logger:  logger,
		tracer:  otel.Tracer("inventory-audit/item"),
	}
}

// Limit returns the row cap in effect.
func (s *SearchService) Limit() int {
	return s.limit
}

// Search parses p into a filter and returns the matching rows, newest audit first.
// One extra row is requested so truncation can be reported without a COUNT query.
func (s *SearchService) Search(ctx context.Context, p Params) (*SearchResult, error) {
	ctx, span := s.tracer.Start(ctx, "item.Search")
	defer span.End()

	filter, discarded := parseParams(p)
	if len(discarded) > 0 {
		if s.strict {
			return nil, fmt.Errorf("%w: %s", ErrInvalidFilter, strings.Join(discarded, ", "))
		}
		s.logger.Debug("search filters discarded", zap.Strings("filters", discarded))
	}
	filter.Limit = s.limit + 1

	rows, err := s.repo.Search(ctx, filter)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	truncated := len(rows) > s.limit
	if truncated {
		rows = rows[:s.limit]
	}

	span.SetAttributes(
		attribute.Int("search.results", len(rows)),
		attribute.Bool("search.truncated", truncated),
	)
	s.metrics.RecordSearch(ctx, len(rows), truncated, discarded)
	return &SearchResult{Items: rows, Truncated: truncated, Discarded: discarded}, nil
}

// parseParams converts raw values to a filter. Values that do not parse are left out of the
// filter and named in the returned slice, so they never narrow the result.
func parseParams(p Params) (domain.SearchFilter, []string) {
	var (
		f         domain.SearchFilter
		discarded []string
	)
	f.Query = p.Q
	f.Status = p.Status

	if raw := strings.TrimSpace(p.LabID); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id > 0 {
			f.LabID = &id
		} else {
			discarded = append(discarded, FilterLabID)
		}
	}
	if raw := strings.TrimSpace(p.DateFrom); raw != "" {
		if t, err := isotime.Parse(raw); err == nil {
			f.DateFrom = &t
		} else {
			discarded = append(discarded, FilterDateFrom)
		}
	}
	if raw := strings.TrimSpace(p.DateTo); raw != "" {
		if t, err := isotime.Parse(raw); err == nil {
			f.DateTo = &t
		} else {
			discarded = append(discarded, FilterDateTo)
		}
	}
	return f, discarded
}
