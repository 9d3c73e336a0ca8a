package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"furnisher/internal/model"
	"furnisher/internal/utils"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const catalogColumns = `
	id, name, description, details, price_minor, category, subcategory,
	material, color, style_tags, image_url`

// PostgresCatalog serves catalog queries and turn logs from PostgreSQL
type PostgresCatalog struct {
	db *sqlx.DB
}

// NewPostgresCatalog creates a new PostgreSQL-backed catalog gateway
func NewPostgresCatalog(dsn string, maxConn, maxIdleConn int) (*PostgresCatalog, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(maxConn)
	db.SetMaxIdleConns(maxIdleConn)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresCatalog{db: db}, nil
}

// Close closes the database connection
func (r *PostgresCatalog) Close() error {
	return r.db.Close()
}

// buildCatalogQuery renders a CatalogQuery into SQL and its arguments
func buildCatalogQuery(q model.CatalogQuery) (string, []interface{}) {
	whereClauses := []string{"active = true"}
	args := []interface{}{}
	argIndex := 1

	if q.Category != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("category = $%d", argIndex))
		args = append(args, q.Category)
		argIndex++
	}
	if q.SubcategoryLike != "" {
		cond, params, next := utils.BuildFuzzySubtypeQuery(q.SubcategoryLike, argIndex)
		whereClauses = append(whereClauses, cond)
		args = append(args, params...)
		argIndex = next
	}
	if q.PriceCeilingMinor != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("price_minor <= $%d", argIndex))
		args = append(args, *q.PriceCeilingMinor)
		argIndex++
	}
	if len(q.ExcludeIDs) > 0 {
		whereClauses = append(whereClauses, fmt.Sprintf("NOT (id = ANY($%d))", argIndex))
		args = append(args, pq.Array(q.ExcludeIDs))
		argIndex++
	}

	var orderClause string
	switch q.OrderBy {
	case model.OrderPriceDesc:
		orderClause = "price_minor DESC, id ASC"
	case model.OrderSimilarity:
		if q.NearItemID != 0 {
			whereClauses = append(whereClauses, "embedding IS NOT NULL")
			orderClause = fmt.Sprintf(
				"embedding <-> (SELECT embedding FROM catalog_items WHERE id = $%d), price_minor ASC, id ASC", argIndex)
			args = append(args, q.NearItemID)
			argIndex++
		} else {
			orderClause = "price_minor ASC, id ASC"
		}
	default:
		orderClause = "price_minor ASC, id ASC"
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(`SELECT %s FROM catalog_items WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d`,
		catalogColumns, strings.Join(whereClauses, " AND "), orderClause, argIndex, argIndex+1)
	args = append(args, limit, q.Offset)

	return query, args
}

// Query returns catalog items matching the filter
func (r *PostgresCatalog) Query(ctx context.Context, q model.CatalogQuery) ([]model.CatalogItem, error) {
	query, args := buildCatalogQuery(q)

	var items []model.CatalogItem
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query catalog: %w", err)
	}
	return items, nil
}

// FetchByID retrieves a single item by primary key; nil when absent
func (r *PostgresCatalog) FetchByID(ctx context.Context, id int64) (*model.CatalogItem, error) {
	var item model.CatalogItem
	query := fmt.Sprintf(`SELECT %s FROM catalog_items WHERE id = $1 AND active = true`, catalogColumns)
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get catalog item: %w", err)
	}
	return &item, nil
}

// LogTurn records the outcome of one chat turn
func (r *PostgresCatalog) LogTurn(ctx context.Context, sessionID, message string, totalMinor int64, lineCount, unmetCount int, tookMs int64) error {
	query := `
		INSERT INTO quotation_logs (session_id, message, total_minor, line_count, unmet_count, response_time_ms)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := r.db.ExecContext(ctx, query, sessionID, message, totalMinor, lineCount, unmetCount, tookMs); err != nil {
		return fmt.Errorf("failed to log turn: %w", err)
	}
	return nil
}

// LogFeedback attaches a user verdict to the session's latest logged turn
func (r *PostgresCatalog) LogFeedback(ctx context.Context, sessionID, action string) error {
	query := `
		UPDATE quotation_logs
		SET action = $2
		WHERE id = (SELECT id FROM quotation_logs WHERE session_id = $1 ORDER BY created_at DESC LIMIT 1)
	`
	res, err := r.db.ExecContext(ctx, query, sessionID, action)
	if err != nil {
		return fmt.Errorf("failed to log feedback: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("no quotation logged for session %s", sessionID)
	}
	return nil
}
