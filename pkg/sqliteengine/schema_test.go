package sqliteengine

import (
	"context"
	"testing"
)

func TestInferFieldsStarAndExplicitColumns(t *testing.T) {
	eng := openTestEngine(t)
	ctx := context.Background()
	eng.Startup(ctx)

	if _, err := eng.CreatePortal(ctx, "CREATE TABLE widgets(id INTEGER, name TEXT)"); err != nil {
		t.Fatalf("create table: %v", err)
	}

	star := inferFields(ctx, eng.db, "SELECT * FROM widgets")
	if len(star) != 2 || star[0].Name != "id" || star[1].Name != "name" {
		t.Fatalf("star inference = %+v", star)
	}

	explicit := inferFields(ctx, eng.db, "SELECT name FROM widgets")
	if len(explicit) != 1 || explicit[0].Name != "name" {
		t.Fatalf("explicit column inference = %+v", explicit)
	}
}

func TestInferFieldsReturnsNilForJoins(t *testing.T) {
	eng := openTestEngine(t)
	ctx := context.Background()
	eng.Startup(ctx)

	if _, err := eng.CreatePortal(ctx, "CREATE TABLE a(id INTEGER)"); err != nil {
		t.Fatalf("create table a: %v", err)
	}
	if _, err := eng.CreatePortal(ctx, "CREATE TABLE b(id INTEGER)"); err != nil {
		t.Fatalf("create table b: %v", err)
	}

	fields := inferFields(ctx, eng.db, "SELECT a.id FROM a JOIN b ON a.id = b.id")
	if fields != nil {
		t.Fatalf("joins should fall back to lazy schema, got %+v", fields)
	}
}
