package db

import (
	"fmt"
	"io/fs"
	"strings"
	"testing"
)

func TestEmbeddedMigrationsAreGooseFiles(t *testing.T) {
	entries, err := fs.ReadDir(migrationFiles, migrationsDir)
	if err != nil {
		t.Fatalf("read embedded migrations: %v", err)
	}
	if len(entries) < 5 {
		t.Fatalf("expected at least 5 migrations, got %d", len(entries))
	}
	for i, e := range entries {
		if want := fmt.Sprintf("%05d_", i+1); !strings.HasPrefix(e.Name(), want) {
			t.Fatalf("migration %s out of sequence, expected prefix %s", e.Name(), want)
		}
		data, err := fs.ReadFile(migrationFiles, migrationsDir+"/"+e.Name())
		if err != nil {
			t.Fatalf("read %s: %v", e.Name(), err)
		}
		body := string(data)
		if !strings.Contains(body, "-- +goose Up") || !strings.Contains(body, "-- +goose Down") {
			t.Fatalf("%s is missing goose annotations", e.Name())
		}
	}
}

func TestMigrationsCreateDomainTables(t *testing.T) {
	var all strings.Builder
	entries, err := fs.ReadDir(migrationFiles, migrationsDir)
	if err != nil {
		t.Fatalf("read embedded migrations: %v", err)
	}
	for _, e := range entries {
		data, err := fs.ReadFile(migrationFiles, migrationsDir+"/"+e.Name())
		if err != nil {
			t.Fatalf("read %s: %v", e.Name(), err)
		}
		all.Write(data)
	}
	for _, table := range []string{"realms", "users", "attachments", "onboarding_steps", "realm_emoji", "realm_exports"} {
		if !strings.Contains(all.String(), "CREATE TABLE "+table) && !strings.Contains(all.String(), "CREATE TABLE IF NOT EXISTS "+table) {
			t.Fatalf("no migration creates table %s", table)
		}
	}
}

func TestRunMigrationsNilDatabaseIsNoop(t *testing.T) {
	if err := RunMigrations(t.Context(), nil); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}
