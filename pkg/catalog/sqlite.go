package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-faster/errors"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
)

const createProductsSQL = `
CREATE TABLE IF NOT EXISTS products (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	price TEXT NOT NULL,
	original_price TEXT,
	category TEXT NOT NULL DEFAULT '',
	subcategory TEXT NOT NULL DEFAULT '',
	brand TEXT NOT NULL DEFAULT '',
	rating REAL NOT NULL DEFAULT 0,
	review_count INTEGER NOT NULL DEFAULT 0,
	in_stock BOOLEAN NOT NULL DEFAULT 1,
	tags TEXT NOT NULL DEFAULT '[]',
	created_at TEXT NOT NULL,
	source_url TEXT NOT NULL DEFAULT '',
	position INTEGER NOT NULL DEFAULT 0
);
`

// SQLiteSource reads products from a local SQLite database.
// Rows come back in insertion position order so "featured" ordering survives a round trip.
type SQLiteSource struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and ensures the schema exists.
func OpenSQLite(ctx context.Context, path string) (*SQLiteSource, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrapf(err, "open sqlite %s", path)
	}

	s := &SQLiteSource{db: db}
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	log.Debugf("SQLite catalog ready at %s", path)
	return s, nil
}

// Migrate creates the products table if it does not exist
func (s *SQLiteSource) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createProductsSQL); err != nil {
		return errors.Wrap(err, "create products table")
	}
	return nil
}

// Close closes the database
func (s *SQLiteSource) Close() error {
	return s.db.Close()
}

// Upsert stores products in one transaction, replacing rows with the same id.
func (s *SQLiteSource) Upsert(ctx context.Context, products []Product) (upsertErr error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer func() {
		if upsertErr == nil {
			if err := tx.Commit(); err != nil {
				upsertErr = errors.Wrap(err, "commit")
			}
			return
		}
		if err := tx.Rollback(); err != nil {
			log.Errorf("Failed to rollback product upsert: %v", err)
		}
	}()

	var base int
	if err := tx.QueryRowContext(ctx, "SELECT COALESCE(MAX(position), 0) FROM products").Scan(&base); err != nil {
		return errors.Wrap(err, "read max position")
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO products (
			id, name, description, price, original_price, category, subcategory,
			brand, rating, review_count, in_stock, tags, created_at, source_url, position
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			price = excluded.price,
			original_price = excluded.original_price,
			category = excluded.category,
			subcategory = excluded.subcategory,
			brand = excluded.brand,
			rating = excluded.rating,
			review_count = excluded.review_count,
			in_stock = excluded.in_stock,
			tags = excluded.tags,
			created_at = excluded.created_at,
			source_url = excluded.source_url;`)
	if err != nil {
		return errors.Wrap(err, "prepare upsert")
	}
	defer stmt.Close()

	for i, p := range products {
		var original sql.NullString
		if p.OriginalPrice != nil {
			original = sql.NullString{String: p.OriginalPrice.String(), Valid: true}
		}
		tags := p.Tags
		if tags == nil {
			tags = []string{}
		}
		tagsJSON, err := json.Marshal(tags)
		if err != nil {
			return errors.Wrapf(err, "encode tags of %s", p.ID)
		}

		_, err = stmt.ExecContext(ctx,
			p.ID, p.Name, p.Description, p.Price.String(), original, p.Category, p.Subcategory,
			p.Brand, p.Rating, p.ReviewCount, p.InStock, string(tagsJSON),
			p.CreatedAt.UTC().Format(time.RFC3339Nano), p.SourceURL, base+i+1,
		)
		if err != nil {
			return errors.Wrapf(err, "upsert %s", p.ID)
		}
	}
	return nil
}

// Products returns every product in position order.
func (s *SQLiteSource) Products(ctx context.Context) ([]Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, price, original_price, category, subcategory,
			brand, rating, review_count, in_stock, tags, created_at, source_url
		FROM products ORDER BY position ASC`)
	if err != nil {
		return nil, errors.Wrap(err, "query products")
	}
	defer rows.Close()

	products := []Product{}
	for rows.Next() {
		var (
			p         Product
			price     string
			original  sql.NullString
			tagsJSON  string
			createdAt string
		)
		err := rows.Scan(&p.ID, &p.Name, &p.Description, &price, &original, &p.Category, &p.Subcategory,
			&p.Brand, &p.Rating, &p.ReviewCount, &p.InStock, &tagsJSON, &createdAt, &p.SourceURL)
		if err != nil {
			return nil, errors.Wrap(err, "scan product")
		}

		if p.Price, err = decimal.NewFromString(price); err != nil {
			return nil, errors.Wrapf(err, "price of %s", p.ID)
		}
		if original.Valid {
			op, err := decimal.NewFromString(original.String)
			if err != nil {
				return nil, errors.Wrapf(err, "original price of %s", p.ID)
			}
			p.OriginalPrice = &op
		}
		if err := json.Unmarshal([]byte(tagsJSON), &p.Tags); err != nil {
			log.Warnf("Ignoring malformed tags of %s: %v", p.ID, err)
			p.Tags = nil
		}
		if p.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			log.Warnf("Ignoring malformed created_at of %s: %v", p.ID, err)
			p.CreatedAt = time.Time{}
		}

		products = append(products, p)
	}
	return products, rows.Err()
}
