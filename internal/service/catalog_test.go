package service

import (
	"context"
	"errors"
	"testing"

	"github.com/joeblew999/lithium-map/internal/concession"
	"github.com/joeblew999/lithium-map/internal/db"
)

func TestCatalogUnavailable(t *testing.T) {
	c := NewCatalog(nil, concession.NewClassifier(concession.Metadata{}, concession.DefaultLang))
	if _, err := c.Summary(context.Background()); !errors.Is(err, ErrCatalogUnavailable) {
		t.Fatalf("err=%v, want ErrCatalogUnavailable", err)
	}
}

func TestCatalogSummary(t *testing.T) {
	conn, err := db.Open(db.Config{})
	if err != nil {
		t.Skipf("duckdb not available: %v", err)
	}
	defer conn.Close()

	svc := newTestMapService(t)
	cat := NewCatalog(conn, svc.Classifier())
	ctx := context.Background()

	if err := cat.Index(ctx, svc.Dataset()); err != nil {
		t.Fatal(err)
	}
	summary, err := cat.Summary(ctx)
	if err != nil {
		t.Fatal(err)
	}

	want := map[concession.Tag]int{
		concession.TagProspectingRequest:  1,
		concession.TagProspectingContract: 0,
		concession.TagMiningRequest:       0,
		concession.TagMiningContract:      1,
		concession.TagOther:               2,
	}
	for _, s := range summary {
		if s.Count != want[s.Tag] {
			t.Errorf("%s count=%d, want %d", s.Tag, s.Count, want[s.Tag])
		}
	}

	var name string
	if err := conn.QueryRowContext(ctx, `SELECT name FROM concessions WHERE id = '42'`).Scan(&name); err != nil {
		t.Fatal(err)
	}
	if name != "Serra Azul" {
		t.Fatalf("name=%q", name)
	}
}
