package catalog

import (
	"context"
	"time"

	"github.com/duynguyendang/gerd/pkg/dstmpl"
	"github.com/duynguyendang/gerd/pkg/erd"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Cache defaults for CachedResolver.
const (
	DefaultResolverCacheSize = 4096
	DefaultResolverTTL       = 10 * time.Minute
)

// CachedResolver puts expiring LRU caches in front of another resolver.
// Errors are never cached. Data items without a title are cached as misses.
type CachedResolver struct {
	inner     erd.SpecResolver
	templates *expirable.LRU[string, *dstmpl.Template]
	indexes   *expirable.LRU[string, []erd.IndexInfo]
	titles    *expirable.LRU[string, string]
	bizFuncs  *expirable.LRU[string, string]
}

var _ erd.SpecResolver = (*CachedResolver)(nil)

// NewCachedResolver wraps inner. size <= 0 and ttl <= 0 select the defaults.
func NewCachedResolver(inner erd.SpecResolver, size int, ttl time.Duration) *CachedResolver {
	if size <= 0 {
		size = DefaultResolverCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultResolverTTL
	}
	return &CachedResolver{
		inner:     inner,
		templates: expirable.NewLRU[string, *dstmpl.Template](size, nil, ttl),
		indexes:   expirable.NewLRU[string, []erd.IndexInfo](size, nil, ttl),
		titles:    expirable.NewLRU[string, string](size, nil, ttl),
		bizFuncs:  expirable.NewLRU[string, string](size, nil, ttl),
	}
}

func (c *CachedResolver) DataStructureTemplate(ctx context.Context, name string) (*dstmpl.Template, error) {
	k := string(key("", name))
	if t, ok := c.templates.Get(k); ok {
		return t, nil
	}
	t, err := c.inner.DataStructureTemplate(ctx, name)
	if err != nil {
		return nil, err
	}
	c.templates.Add(k, t)
	return t, nil
}

func (c *CachedResolver) TableIndexes(ctx context.Context, table string) ([]erd.IndexInfo, error) {
	k := string(key("", table))
	if ix, ok := c.indexes.Get(k); ok {
		return ix, nil
	}
	ix, err := c.inner.TableIndexes(ctx, table)
	if err != nil {
		return nil, err
	}
	c.indexes.Add(k, ix)
	return ix, nil
}

// DataDictionaryTitles serves cached items and asks inner only for the rest.
func (c *CachedResolver) DataDictionaryTitles(ctx context.Context, items []string) (map[string]string, error) {
	titles := make(map[string]string, len(items))
	var missing []string
	for _, it := range items {
		title, ok := c.titles.Get(string(key("", it)))
		switch {
		case !ok:
			missing = append(missing, it)
		case title != "":
			titles[it] = title
		}
	}
	if len(missing) == 0 {
		return titles, nil
	}

	fetched, err := c.inner.DataDictionaryTitles(ctx, missing)
	if err != nil {
		return nil, err
	}
	for _, it := range missing {
		title := fetched[it]
		c.titles.Add(string(key("", it)), title)
		if title != "" {
			titles[it] = title
		}
	}
	return titles, nil
}

func (c *CachedResolver) BusinessFunctionName(ctx context.Context, templateName string) (string, error) {
	k := string(key("", templateName))
	if name, ok := c.bizFuncs.Get(k); ok {
		return name, nil
	}
	name, err := c.inner.BusinessFunctionName(ctx, templateName)
	if err != nil {
		return "", err
	}
	c.bizFuncs.Add(k, name)
	return name, nil
}

// Purge drops every cached answer.
func (c *CachedResolver) Purge() {
	c.templates.Purge()
	c.indexes.Purge()
	c.titles.Purge()
	c.bizFuncs.Purge()
}
