package search_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"cmsearch/internal/core/id"
	"cmsearch/internal/infrastructure/storage/postgres"
)

// QuerierSource hands out the querier bound to ctx (the search transaction).
// *postgres.TxManager implements it.
type QuerierSource interface {
	GetQuerier(ctx context.Context) postgres.Querier
}

// customFieldRepo resolves custom field slugs of one organization.
type customFieldRepo struct {
	db    QuerierSource
	orgID id.ID
}

func newCustomFieldRepo(db QuerierSource, orgID id.ID) *customFieldRepo {
	return &customFieldRepo{db: db, orgID: orgID}
}

// Resolve implements fieldResolver.
func (r *customFieldRepo) Resolve(ctx context.Context, slug string) (*customField, error) {
	q := builder().
		Select(postgres.ExtractDBColumns[customField]()...).
		From("custom_fields").
		Where(squirrel.Eq{"organization_id": r.orgID, "slug": slug}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var field customField
	if err := pgxscan.Get(ctx, r.db.GetQuerier(ctx), &field, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get custom field: %w", err)
	}
	return &field, nil
}
