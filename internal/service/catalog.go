package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/paulmach/orb/encoding/wkt"

	"github.com/joeblew999/lithium-map/internal/concession"
)

// ErrCatalogUnavailable is returned when no database is attached.
var ErrCatalogUnavailable = errors.New("catalog database not available")

// Catalog mirrors the concession dataset into a DuckDB table so it can be
// summarised and queried with SQL.
type Catalog struct {
	db         *sql.DB
	classifier *concession.Classifier
}

// NewCatalog creates a catalog. db may be nil.
func NewCatalog(db *sql.DB, classifier *concession.Classifier) *Catalog {
	return &Catalog{db: db, classifier: classifier}
}

// Available reports whether a database is attached.
func (c *Catalog) Available() bool {
	return c != nil && c.db != nil
}

// Index (re)creates the concessions table from the dataset.
func (c *Catalog) Index(ctx context.Context, ds *concession.Dataset) error {
	if !c.Available() {
		return ErrCatalogUnavailable
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `CREATE OR REPLACE TABLE concessions (
		id VARCHAR,
		name VARCHAR,
		proponent VARCHAR,
		act VARCHAR,
		data VARCHAR,
		minerals VARCHAR,
		layer VARCHAR,
		status VARCHAR,
		min_lng DOUBLE,
		min_lat DOUBLE,
		max_lng DOUBLE,
		max_lat DOUBLE,
		wkt VARCHAR
	)`); err != nil {
		return fmt.Errorf("create table: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO concessions VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, f := range ds.Features {
		p := f.Properties
		var geom string
		if f.Geometry != nil {
			geom = wkt.MarshalString(f.Geometry)
		}
		if _, err := stmt.ExecContext(ctx,
			p.ID, p.Name, p.Proponent, p.Act, p.Data,
			strings.Join(p.Minerals, ","), p.Layer, c.classifier.Classify(p.Layer),
			f.Bound.Min[0], f.Bound.Min[1], f.Bound.Max[0], f.Bound.Max[1],
			geom,
		); err != nil {
			return fmt.Errorf("insert %q: %w", p.ID, err)
		}
	}

	return tx.Commit()
}

// Summary counts concessions per status tag. Unknown layers count as PT,
// the same way the classifier labels them.
func (c *Catalog) Summary(ctx context.Context) ([]Summary, error) {
	if !c.Available() {
		return nil, ErrCatalogUnavailable
	}

	rows, err := c.db.QueryContext(ctx,
		`SELECT coalesce(layer, ''), count(*) FROM concessions GROUP BY 1`)
	if err != nil {
		return nil, fmt.Errorf("summary query: %w", err)
	}
	defer rows.Close()

	counts := map[concession.Tag]int{}
	for rows.Next() {
		var layer string
		var n int
		if err := rows.Scan(&layer, &n); err != nil {
			return nil, fmt.Errorf("summary scan: %w", err)
		}
		counts[summaryTag(layer)] += n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]Summary, 0, len(concession.Tags))
	for _, tag := range concession.Tags {
		out = append(out, Summary{
			Tag:   tag,
			Label: c.classifier.Label(tag),
			Color: concession.FillColor(string(tag)),
			Count: counts[tag],
		})
	}
	return out, nil
}

func summaryTag(layer string) concession.Tag {
	for _, tag := range concession.Tags[:4] {
		if string(tag) == layer {
			return tag
		}
	}
	return concession.TagOther
}
