package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/huandu/go-sqlbuilder"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/stockmatch/backend/internal/domain"
)

// Schema creates the catalog tables used by PostgresCatalog
const Schema = `CREATE TABLE IF NOT EXISTS catalog_items (
    item_id      TEXT PRIMARY KEY,
    category     TEXT NOT NULL,
    product_name TEXT NOT NULL DEFAULT '',
    description  TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS catalog_items_category_idx ON catalog_items (LOWER(category));

CREATE TABLE IF NOT EXISTS catalog_item_properties (
    item_id    TEXT NOT NULL REFERENCES catalog_items (item_id) ON DELETE CASCADE,
    position   INTEGER NOT NULL,
    name       TEXT NOT NULL,
    value      TEXT NOT NULL DEFAULT '',
    confidence DOUBLE PRECISION NOT NULL DEFAULT 1.0,
    PRIMARY KEY (item_id, position)
);
`

const insertBatchSize = 500

// itemPropertyRow is one row of the item/property left join
type itemPropertyRow struct {
	ItemID      string          `db:"item_id"`
	Category    string          `db:"category"`
	ProductName string          `db:"product_name"`
	Description string          `db:"description"`
	Name        sql.NullString  `db:"name"`
	Value       sql.NullString  `db:"value"`
	Confidence  sql.NullFloat64 `db:"confidence"`
}

// PostgresCatalog reads catalog snapshots from PostgreSQL
type PostgresCatalog struct {
	db     *sqlx.DB
	logger zerolog.Logger
}

// NewPostgresCatalog connects to dsn and verifies the connection
func NewPostgresCatalog(ctx context.Context, dsn string, logger zerolog.Logger) (*PostgresCatalog, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: connect: %v", domain.ErrCatalogUnavailable, err)
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	return &PostgresCatalog{db: db, logger: logger}, nil
}

// EnsureSchema creates the catalog tables when missing
func (p *PostgresCatalog) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("%w: create schema: %v", domain.ErrCatalogUnavailable, err)
	}
	return nil
}

// itemsInCategoryQuery builds the snapshot query for one category
func itemsInCategoryQuery(category string) (string, []interface{}) {
	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(
		"i.item_id", "i.category", "i.product_name", "i.description",
		"p.name", "p.value", "p.confidence",
	)
	sb.From("catalog_items i")
	sb.JoinWithOption(sqlbuilder.LeftJoin, "catalog_item_properties p", "p.item_id = i.item_id")
	sb.Where(sb.Equal("LOWER(i.category)", domain.NormalizeKey(category)))
	sb.OrderBy("i.item_id", "p.position")
	return sb.Build()
}

// ItemsInCategory returns the items in category ordered by item id, with
// properties in their stored position order.
func (p *PostgresCatalog) ItemsInCategory(ctx context.Context, category string) ([]domain.CatalogItem, error) {
	query, args := itemsInCategoryQuery(category)

	var rows []itemPropertyRow
	if err := p.db.SelectContext(ctx, &rows, query, args...); err != nil {
		p.logger.Error().Err(err).Str("category", category).Msg("catalog query failed")
		return nil, fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
	}

	return groupRows(rows), nil
}

// groupRows folds joined rows into items, preserving row order
func groupRows(rows []itemPropertyRow) []domain.CatalogItem {
	items := make([]domain.CatalogItem, 0)
	index := make(map[string]int)

	for _, row := range rows {
		i, ok := index[row.ItemID]
		if !ok {
			i = len(items)
			index[row.ItemID] = i
			items = append(items, domain.CatalogItem{
				ItemID:      row.ItemID,
				Category:    row.Category,
				ProductName: row.ProductName,
				Description: row.Description,
				Properties:  []domain.Property{},
			})
		}
		if !row.Name.Valid || strings.TrimSpace(row.Name.String) == "" {
			continue
		}
		confidence := defaultAttributeConfidence
		if row.Confidence.Valid {
			confidence = row.Confidence.Float64
		}
		items[i].Properties = append(items[i].Properties, domain.Property{
			Name:       row.Name.String,
			Value:      row.Value.String,
			Confidence: confidence,
		})
	}

	return items
}

// ImportItems replaces the stored rows for the given items in one transaction
func (p *PostgresCatalog) ImportItems(ctx context.Context, items []domain.CatalogItem) error {
	if len(items) == 0 {
		return nil
	}
	if err := checkUniqueIDs(items); err != nil {
		return err
	}

	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", domain.ErrCatalogUnavailable, err)
	}
	defer tx.Rollback()

	for _, stmt := range importStatements(items) {
		if _, err := tx.ExecContext(ctx, stmt.query, stmt.args...); err != nil {
			return fmt.Errorf("%w: import: %v", domain.ErrCatalogUnavailable, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", domain.ErrCatalogUnavailable, err)
	}

	p.logger.Info().Int("items", len(items)).Msg("catalog items imported")
	return nil
}

type statement struct {
	query string
	args  []interface{}
}

// importStatements deletes existing rows for the items and inserts them in batches.
// Property rows go with their parent through ON DELETE CASCADE. Every statement
// binds at most insertBatchSize rows, keeping it under the PostgreSQL limit of
// 65535 parameters.
func importStatements(items []domain.CatalogItem) []statement {
	var stmts []statement

	for start := 0; start < len(items); start += insertBatchSize {
		batch := items[start:min(start+insertBatchSize, len(items))]
		ids := make([]interface{}, 0, len(batch))
		for _, item := range batch {
			ids = append(ids, item.ItemID)
		}

		del := sqlbuilder.PostgreSQL.NewDeleteBuilder()
		del.DeleteFrom("catalog_items")
		del.Where(del.In("item_id", ids...))
		q, args := del.Build()
		stmts = append(stmts, statement{q, args})
	}

	for start := 0; start < len(items); start += insertBatchSize {
		ib := sqlbuilder.PostgreSQL.NewInsertBuilder()
		ib.InsertInto("catalog_items")
		ib.Cols("item_id", "category", "product_name", "description")
		for _, item := range items[start:min(start+insertBatchSize, len(items))] {
			ib.Values(item.ItemID, item.Category, item.ProductName, item.Description)
		}
		q, args := ib.Build()
		stmts = append(stmts, statement{q, args})
	}

	var props *sqlbuilder.InsertBuilder
	rows := 0
	flush := func() {
		if rows == 0 {
			return
		}
		q, args := props.Build()
		stmts = append(stmts, statement{q, args})
		props, rows = nil, 0
	}

	for _, item := range items {
		for pos, prop := range item.Properties {
			if props == nil {
				props = sqlbuilder.PostgreSQL.NewInsertBuilder()
				props.InsertInto("catalog_item_properties")
				props.Cols("item_id", "position", "name", "value", "confidence")
			}
			props.Values(item.ItemID, pos, prop.Name, prop.Value, prop.Confidence)
			rows++
			if rows == insertBatchSize {
				flush()
			}
		}
	}
	flush()

	return stmts
}

// Ping checks database connectivity
func (p *PostgresCatalog) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// Close closes the database pool
func (p *PostgresCatalog) Close() error {
	return p.db.Close()
}
