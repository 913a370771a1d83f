package sqlite

import (
	"path/filepath"
	"testing"
)

func TestDriverInfo(t *testing.T) {
	info := GetInfo()
	if info.DriverName != DriverName() {
		t.Errorf("Info.DriverName = %q, want %q", info.DriverName, DriverName())
	}
	if info.IsCGO != IsCGO() {
		t.Errorf("Info.IsCGO = %v, want %v", info.IsCGO, IsCGO())
	}
	switch info.DriverType {
	case "purego":
		if info.DriverName != "sqlite" {
			t.Errorf("purego driver name = %q, want sqlite", info.DriverName)
		}
	case "cgo":
		if info.DriverName != "sqlite3" {
			t.Errorf("cgo driver name = %q, want sqlite3", info.DriverName)
		}
	default:
		t.Errorf("unexpected driver type %q", info.DriverType)
	}
}

func TestOpenAndQuery(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(`CREATE TABLE kv (k TEXT PRIMARY KEY, v TEXT)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO kv (k, v) VALUES (?, ?)`, "a", "1"); err != nil {
		t.Fatalf("insert: %v", err)
	}

	var v string
	if err := db.QueryRow(`SELECT v FROM kv WHERE k = ?`, "a").Scan(&v); err != nil {
		t.Fatalf("query: %v", err)
	}
	if v != "1" {
		t.Errorf("v = %q, want 1", v)
	}
}
