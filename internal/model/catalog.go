package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pgvector/pgvector-go"
)

// CatalogItem represents a priced item in the furniture catalog
type CatalogItem struct {
	ID          int64            `json:"id" db:"id"`
	Name        string           `json:"name" db:"name"`
	Description *string          `json:"description,omitempty" db:"description"`
	Details     *string          `json:"details,omitempty" db:"details"`
	PriceMinor  int64            `json:"price_minor" db:"price_minor"` // paise
	Category    string           `json:"category" db:"category"`
	Subcategory *string          `json:"subcategory,omitempty" db:"subcategory"`
	Material    *string          `json:"material,omitempty" db:"material"`
	Color       *string          `json:"color,omitempty" db:"color"`
	StyleTags   JSONArray        `json:"style_tags,omitempty" db:"style_tags"`
	ImageURL    *string          `json:"image_url,omitempty" db:"image_url"`
	Embedding   *pgvector.Vector `json:"-" db:"embedding"`
}

// Price returns the price in major currency units
func (c CatalogItem) Price() float64 {
	return float64(c.PriceMinor) / 100
}

// SearchText returns the lower-cased free-text fields used for token matching
func (c CatalogItem) SearchText() string {
	parts := []string{c.Name, c.Category}
	for _, p := range []*string{c.Subcategory, c.Material, c.Color, c.Description, c.Details} {
		if p != nil {
			parts = append(parts, *p)
		}
	}
	parts = append(parts, c.StyleTags...)
	return strings.ToLower(strings.Join(parts, " "))
}

// MinorUnits converts a major-unit amount to minor units
func MinorUnits(amount float64) int64 {
	return int64(amount*100 + 0.5)
}

// JSONArray represents a JSON array field
type JSONArray []string

// Value implements driver.Valuer interface
func (j JSONArray) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan implements sql.Scanner interface
func (j *JSONArray) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, j)
	case string:
		return json.Unmarshal([]byte(v), j)
	default:
		return fmt.Errorf("cannot scan %T into JSONArray", value)
	}
}

// OrderBy selects the ordering of a catalog query
type OrderBy string

const (
	OrderPriceAsc   OrderBy = "price_asc"
	OrderPriceDesc  OrderBy = "price_desc"
	OrderSimilarity OrderBy = "similarity" // nearest neighbour of NearItemID
)

// CatalogQuery is the typed filter accepted by the catalog gateway
type CatalogQuery struct {
	Category          string
	SubcategoryLike   string
	PriceCeilingMinor *int64
	OrderBy           OrderBy
	NearItemID        int64
	ExcludeIDs        []int64
	Limit             int
	Offset            int
}
