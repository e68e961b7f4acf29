package service

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"campus-portal/internal/apiclient"
	"campus-portal/internal/cache"
	"campus-portal/internal/domain"
	"campus-portal/internal/logger"
	"campus-portal/internal/table"
	"campus-portal/internal/validation"

	"go.uber.org/zap"
)

// CatalogBackend is the router a Catalog reads and writes through.
type CatalogBackend[T any, In any] interface {
	Name() string
	List(ctx context.Context, query url.Values, opts ...apiclient.RequestOption) ([]T, error)
	Get(ctx context.Context, id int64, opts ...apiclient.RequestOption) (*T, error)
	Create(ctx context.Context, in In, opts ...apiclient.RequestOption) (*T, error)
	Update(ctx context.Context, id int64, in In, opts ...apiclient.RequestOption) (*T, error)
	Delete(ctx context.Context, id int64, opts ...apiclient.RequestOption) error
}

// ListQuery selects, sorts and pages a list.
type ListQuery struct {
	Sort    table.SortState
	Page    int
	Limit   int
	Filters url.Values
}

// Catalog is the CRUD service for one entity type. Reads go through the
// query cache; writes are validated, sent to the backend, invalidate the
// cache and are audited.
type Catalog[T any, In any] struct {
	backend     CatalogBackend[T, In]
	queries     *cache.QueryCache
	audit       AuditService
	validator   *validation.Validator
	columns     table.Columns[T]
	idOf        func(T) int64
	invalidates []string
}

func NewCatalog[T any, In any](
	backend CatalogBackend[T, In],
	queries *cache.QueryCache,
	audit AuditService,
	columns table.Columns[T],
	idOf func(T) int64,
	related ...string,
) *Catalog[T, In] {
	return &Catalog[T, In]{
		backend:     backend,
		queries:     queries,
		audit:       audit,
		validator:   validation.Default(),
		columns:     columns,
		idOf:        idOf,
		invalidates: append([]string{backend.Name()}, related...),
	}
}

func (c *Catalog[T, In]) Name() string { return c.backend.Name() }

// SortKeys lists the columns List can sort by.
func (c *Catalog[T, In]) SortKeys() []string { return c.columns.Keys() }

func scopeOf(ctx context.Context) string {
	if s, ok := domain.SessionFromContext(ctx); ok {
		return s.UserID
	}
	return ""
}

// All returns the full, unsorted list for filters.
func (c *Catalog[T, In]) All(ctx context.Context, filters url.Values) ([]T, error) {
	key := cache.QueryKey{Resource: c.Name(), Scope: scopeOf(ctx), Params: "list:" + filters.Encode()}
	return cache.Fetch(ctx, c.queries, key, func(ctx context.Context) ([]T, error) {
		return c.backend.List(ctx, filters)
	})
}

// List returns one sorted page.
func (c *Catalog[T, In]) List(ctx context.Context, q ListQuery) (table.Page[T], error) {
	items, err := c.All(ctx, q.Filters)
	if err != nil {
		return table.Page[T]{}, err
	}
	sorted, err := table.Sort(items, q.Sort, c.columns)
	if err != nil {
		return table.Page[T]{}, err
	}
	page := table.Paginate(sorted, q.Page, q.Limit)
	page.Sort = q.Sort
	return page, nil
}

func (c *Catalog[T, In]) Get(ctx context.Context, id int64) (*T, error) {
	key := cache.QueryKey{Resource: c.Name(), Scope: scopeOf(ctx), Params: "id:" + strconv.FormatInt(id, 10)}
	item, err := cache.Fetch(ctx, c.queries, key, func(ctx context.Context) (T, error) {
		var zero T
		got, err := c.backend.Get(ctx, id)
		if err != nil {
			return zero, err
		}
		return *got, nil
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// Create validates in and creates the entity. opts are passed to the backend
// call, e.g. apiclient.Silent() for bulk imports.
func (c *Catalog[T, In]) Create(ctx context.Context, in In, opts ...apiclient.RequestOption) (*T, error) {
	if err := c.validator.Struct(in); err != nil {
		return nil, err
	}
	created, err := c.backend.Create(ctx, in, opts...)
	if err != nil {
		return nil, err
	}
	c.queries.Invalidate(ctx, c.invalidates...)
	c.audit.Record(ctx, domain.AuditCreate, c.Name(), c.idString(created), "")
	return created, nil
}

func (c *Catalog[T, In]) Update(ctx context.Context, id int64, in In) (*T, error) {
	if err := c.validator.Struct(in); err != nil {
		return nil, err
	}
	updated, err := c.backend.Update(ctx, id, in)
	if err != nil {
		return nil, err
	}
	c.queries.Invalidate(ctx, c.invalidates...)
	c.audit.Record(ctx, domain.AuditUpdate, c.Name(), strconv.FormatInt(id, 10), "")
	return updated, nil
}

func (c *Catalog[T, In]) Delete(ctx context.Context, id int64) error {
	if err := c.backend.Delete(ctx, id); err != nil {
		return err
	}
	c.queries.Invalidate(ctx, c.invalidates...)
	c.audit.Record(ctx, domain.AuditDelete, c.Name(), strconv.FormatInt(id, 10), "")
	logger.Get().Debug("Entity deleted", zap.String("resource", c.Name()), zap.Int64("id", id))
	return nil
}

func (c *Catalog[T, In]) idString(item *T) string {
	if item == nil || c.idOf == nil {
		return ""
	}
	return fmt.Sprint(c.idOf(*item))
}
