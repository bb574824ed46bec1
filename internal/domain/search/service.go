package search

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"cmsearch/internal/core/apperror"
	"cmsearch/internal/core/security"
	"cmsearch/internal/core/tx"
	"cmsearch/pkg/logger"
)

var tracer = otel.Tracer("cmsearch/search")

// Config bounds page sizes.
type Config struct {
	DefaultLimit int
	MaxLimit     int
}

// DefaultConfig returns the limits used when none are configured.
func DefaultConfig() Config {
	return Config{DefaultLimit: 20, MaxLimit: 100}
}

// Service is the single entry point of the search engine. It is stateless
// and safe for concurrent use; per-request state lives in the searchers.
type Service struct {
	registry *Registry
	txm      tx.ReadOnlyManager
	cfg      Config
}

// NewService creates a search service over a populated registry.
func NewService(registry *Registry, txm tx.ReadOnlyManager, cfg Config) *Service {
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = DefaultConfig().DefaultLimit
	}
	if cfg.MaxLimit < cfg.DefaultLimit {
		cfg.MaxLimit = cfg.DefaultLimit
	}
	return &Service{registry: registry, txm: txm, cfg: cfg}
}

// Search runs req on behalf of caller.
//
// Only an unknown entity type or a datastore failure produces an error;
// odd filters, sorts, properties and cursors degrade silently.
func (s *Service) Search(ctx context.Context, caller security.Caller, req Request) (*Result, error) {
	ctx, span := tracer.Start(ctx, "search",
		trace.WithAttributes(attribute.String("search.entity_type", string(req.EntityType))))
	defer span.End()

	target := req.EntityType
	if target == EntityAll {
		// TODO: fan out across every registered type once a merged cursor format exists.
		target = EntityPosts
	}

	searcher, ok := s.registry.Get(target)
	if !ok {
		return nil, apperror.NewUnsupportedEntityType(string(req.EntityType))
	}

	limit := s.normalizeLimit(req.Limit)
	result := &Result{
		Results:    []Record{},
		EntityType: target,
		Pagination: Pagination{Limit: limit},
	}

	groups := req.FilterGroups
	scoped, isScoped := searcher.(PublishedScoped)
	visibility := caller.VisibilityFor(string(target))
	if isScoped {
		switch visibility {
		case security.VisibilityNone:
			logger.Debug(ctx, "search denied by scopes", "entity", target)
			return result, nil
		case security.VisibilityPublished:
			groups = withRequiredFilter(groups, scoped.PublishedFilter())
		}
	}

	q := Query{
		OrganizationID: caller.OrganizationID,
		FilterGroups:   groups,
		Search:         req.Search,
		Sorts:          req.Sorts,
		Properties:     req.Properties,
		Limit:          limit,
		After:          req.After,
	}

	var page Page
	err := s.txm.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		page, err = searcher.Search(ctx, q)
		return err
	})
	if err != nil {
		span.RecordError(err)
		return nil, normalizeSearchErr(err, target)
	}

	rows := page.Data
	if isScoped && visibility == security.VisibilityPublished {
		rows = keepMatching(rows, scoped.PublishedFilter())
	}
	if rows != nil {
		result.Results = rows
	}
	result.Pagination.HasMore = page.HasMore
	if page.HasMore {
		result.Pagination.NextCursor = page.NextCursor
	}

	span.SetAttributes(
		attribute.Int("search.results", len(result.Results)),
		attribute.Bool("search.has_more", page.HasMore),
	)
	return result, nil
}

// normalizeSearchErr keeps structured errors (timeouts, datastore failures
// mapped by the storage layer) and hides anything else behind INTERNAL_ERROR.
func normalizeSearchErr(err error, target EntityType) error {
	if apperror.IsAppError(err) {
		return err
	}
	return apperror.NewInternal(err).WithDetail("entityType", string(target))
}

func (s *Service) normalizeLimit(limit int) int {
	if limit <= 0 {
		return s.cfg.DefaultLimit
	}
	if limit > s.cfg.MaxLimit {
		return s.cfg.MaxLimit
	}
	return limit
}
