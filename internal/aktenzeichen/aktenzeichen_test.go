package aktenzeichen

import (
	"context"
	"math"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/JustJay7/kanzlei/internal/database"
)

var fixedNow = time.Date(2025, time.March, 14, 10, 0, 0, 0, time.UTC)

func TestNext(t *testing.T) {
	tests := []struct {
		name     string
		existing []string
		start    int
		want     string
	}{
		{name: "no cases, start 1", existing: nil, start: 1, want: "1.25.awr"},
		{name: "case 1 exists, start 1", existing: []string{"1.25.awr"}, start: 1, want: "2.25.awr"},
		{name: "highest wins across years", existing: []string{"7.23.awr", "12.24.awr", "3.25.awr"}, start: 1, want: "13.25.awr"},
		{name: "start above highest", existing: []string{"4.25.awr"}, start: 100, want: "100.25.awr"},
		{name: "highest above start", existing: []string{"150.25.awr"}, start: 100, want: "151.25.awr"},
		{name: "non matching numbers ignored", existing: []string{"99.2025.awr", "x.25.awr", "42.25.abc", "5.25.awr"}, start: 1, want: "6.25.awr"},
		{name: "gaps are not refilled", existing: []string{"1.25.awr", "9.25.awr"}, start: 1, want: "10.25.awr"},
		{name: "start zero behaves like one", existing: nil, start: 0, want: "1.25.awr"},
		{name: "max int is skipped", existing: []string{"3.25.awr", strconv.Itoa(math.MaxInt) + ".25.awr"}, start: 1, want: "4.25.awr"},
		{name: "overflowing number is skipped", existing: []string{"99999999999999999999999.25.awr", "8.25.awr"}, start: 1, want: "9.25.awr"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Next(tt.existing, tt.start, fixedNow); got != tt.want {
				t.Errorf("Next() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNextYearIsTwoDigits(t *testing.T) {
	got := Next(nil, 1, time.Date(2007, time.January, 1, 0, 0, 0, 0, time.UTC))
	if got != "1.07.awr" {
		t.Errorf("Expected 1.07.awr, got %s", got)
	}
}

func TestValid(t *testing.T) {
	if !Valid("123.25.awr") {
		t.Error("Expected 123.25.awr to be valid")
	}
	for _, bad := range []string{"123.2025.awr", "abc.25.awr", "123.25.AWR", "123.25.awr ", ""} {
		if Valid(bad) {
			t.Errorf("Expected %q to be invalid", bad)
		}
	}
}

func TestGeneratorNext(t *testing.T) {
	ctx := context.Background()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "aktenzeichen_test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	gen := NewGenerator(db, 1)
	gen.now = func() time.Time { return fixedNow }

	got, err := gen.Next(ctx)
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if got != "1.25.awr" {
		t.Errorf("Expected 1.25.awr on empty table, got %s", got)
	}

	if err := db.Create(&database.Akte{ID: "a-1", Aktenzeichen: "1.25.awr", Status: database.StatusOffen}).Error; err != nil {
		t.Fatalf("create akte: %v", err)
	}
	if err := db.Create(&database.Akte{ID: "a-2", Aktenzeichen: "Altakte 77", Status: database.StatusOffen}).Error; err != nil {
		t.Fatalf("create akte: %v", err)
	}

	got, err = gen.Next(ctx)
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if got != "2.25.awr" {
		t.Errorf("Expected 2.25.awr, got %s", got)
	}

	if err := db.Create(&database.Einstellung{ID: "s-1", Schluessel: StartKey, Wert: "500"}).Error; err != nil {
		t.Fatalf("create setting: %v", err)
	}
	got, err = gen.Next(ctx)
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if got != "500.25.awr" {
		t.Errorf("Expected configured start to win, got %s", got)
	}
}

func TestGeneratorStartFallback(t *testing.T) {
	ctx := context.Background()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "start_test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	gen := NewGenerator(db, 40)
	start, err := gen.Start(ctx)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if start != 40 {
		t.Errorf("Expected default start 40, got %d", start)
	}

	db.Create(&database.Einstellung{ID: "s-1", Schluessel: StartKey, Wert: "kein wert"})
	start, err = gen.Start(ctx)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if start != 40 {
		t.Errorf("Expected unparseable setting to fall back to 40, got %d", start)
	}
}
