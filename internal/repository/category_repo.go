package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"console_rental/internal/models"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/jmoiron/sqlx"
)

type CategorySQLite struct {
	db sqlx.ExtContext
}

func NewCategorySQLite(db sqlx.ExtContext) *CategorySQLite {
	return &CategorySQLite{db: db}
}

const selectCategorySQL = `
	SELECT id, name, cost_per_period, period_minutes
	FROM rate_categories WHERE id = ?
`

func (r *CategorySQLite) Get(ctx context.Context, id string) (models.RateCategory, error) {
	var c models.RateCategory
	if err := sqlx.GetContext(ctx, r.db, &c, selectCategorySQL, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.RateCategory{}, fmt.Errorf("rate category %q: %w", id, ErrNotFound)
		}
		return models.RateCategory{}, fmt.Errorf("select rate category %q: %w", id, err)
	}
	return c, nil
}

// CachedCategories keeps recently used rate cards in an expiring LRU so that
// every command does not hit the database for the same category.
type CachedCategories struct {
	next  CategoryRepo
	cache *expirable.LRU[string, models.RateCategory]
}

func NewCachedCategories(next CategoryRepo, size int, ttl time.Duration) *CachedCategories {
	if size <= 0 {
		size = 64
	}
	return &CachedCategories{
		next:  next,
		cache: expirable.NewLRU[string, models.RateCategory](size, nil, ttl),
	}
}

func (c *CachedCategories) Get(ctx context.Context, id string) (models.RateCategory, error) {
	if cat, ok := c.cache.Get(id); ok {
		return cat, nil
	}
	cat, err := c.next.Get(ctx, id)
	if err != nil {
		return models.RateCategory{}, err
	}
	c.cache.Add(id, cat)
	return cat, nil
}

// Invalidate drops a cached category after it was edited.
func (c *CachedCategories) Invalidate(id string) {
	c.cache.Remove(id)
}
