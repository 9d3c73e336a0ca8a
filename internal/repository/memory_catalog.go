package repository

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"

	"furnisher/internal/model"
	"furnisher/internal/utils"
)

// MemoryCatalog is an in-process catalog gateway used for development seeds and tests
type MemoryCatalog struct {
	mu    sync.RWMutex
	items []model.CatalogItem
}

// NewMemoryCatalog creates a catalog holding copies of items
func NewMemoryCatalog(items []model.CatalogItem) *MemoryCatalog {
	c := &MemoryCatalog{}
	c.Add(items...)
	return c
}

// Add appends items to the catalog
func (c *MemoryCatalog) Add(items ...model.CatalogItem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, items...)
}

// Query returns copies of matching items
func (c *MemoryCatalog) Query(ctx context.Context, q model.CatalogQuery) ([]model.CatalogItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	excluded := make(map[int64]bool, len(q.ExcludeIDs))
	for _, id := range q.ExcludeIDs {
		excluded[id] = true
	}

	var matched []model.CatalogItem
	for _, item := range c.items {
		if excluded[item.ID] {
			continue
		}
		if q.Category != "" && !strings.EqualFold(item.Category, q.Category) {
			continue
		}
		if q.PriceCeilingMinor != nil && item.PriceMinor > *q.PriceCeilingMinor {
			continue
		}
		if q.SubcategoryLike != "" {
			text := item.Name
			if item.Subcategory != nil {
				text += " " + *item.Subcategory
			}
			if !utils.FuzzyMatchSubtype(q.SubcategoryLike, text) {
				continue
			}
		}
		matched = append(matched, item)
	}

	switch q.OrderBy {
	case model.OrderPriceDesc:
		sort.SliceStable(matched, func(i, j int) bool {
			if matched[i].PriceMinor != matched[j].PriceMinor {
				return matched[i].PriceMinor > matched[j].PriceMinor
			}
			return matched[i].ID < matched[j].ID
		})
	case model.OrderSimilarity:
		matched = c.orderBySimilarity(matched, q.NearItemID)
	default:
		sort.SliceStable(matched, func(i, j int) bool {
			if matched[i].PriceMinor != matched[j].PriceMinor {
				return matched[i].PriceMinor < matched[j].PriceMinor
			}
			return matched[i].ID < matched[j].ID
		})
	}

	if q.Offset >= len(matched) {
		return []model.CatalogItem{}, nil
	}
	matched = matched[q.Offset:]
	limit := q.Limit
	if limit <= 0 {
		limit = 50
	}
	if len(matched) > limit {
		matched = matched[:limit]
	}

	out := make([]model.CatalogItem, len(matched))
	copy(out, matched)
	return out, nil
}

// orderBySimilarity sorts by cosine distance to the anchor's embedding.
// Caller holds the read lock.
func (c *MemoryCatalog) orderBySimilarity(items []model.CatalogItem, anchorID int64) []model.CatalogItem {
	var anchor []float32
	for _, it := range c.items {
		if it.ID == anchorID && it.Embedding != nil {
			anchor = it.Embedding.Slice()
			break
		}
	}
	if anchor == nil {
		sort.SliceStable(items, func(i, j int) bool { return items[i].PriceMinor < items[j].PriceMinor })
		return items
	}

	withEmbedding := items[:0]
	for _, it := range items {
		if it.Embedding != nil {
			withEmbedding = append(withEmbedding, it)
		}
	}
	sort.SliceStable(withEmbedding, func(i, j int) bool {
		return cosineDistance(anchor, withEmbedding[i].Embedding.Slice()) <
			cosineDistance(anchor, withEmbedding[j].Embedding.Slice())
	})
	return withEmbedding
}

// FetchByID returns a copy of the item, or nil
func (c *MemoryCatalog) FetchByID(ctx context.Context, id int64) (*model.CatalogItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, item := range c.items {
		if item.ID == id {
			cp := item
			return &cp, nil
		}
	}
	return nil, nil
}

func cosineDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.MaxFloat64
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return math.MaxFloat64
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}
