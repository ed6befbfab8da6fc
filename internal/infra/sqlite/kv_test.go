package sqlite

import "testing"

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestKV_GetMissing(t *testing.T) {
	db := newTestDB(t)

	_, ok, err := db.Get("debt_data_list")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if ok {
		t.Error("Get() on empty store should report not found")
	}
}

func TestKV_SetGet(t *testing.T) {
	db := newTestDB(t)

	if err := db.Set("debt_user_profile", `{"name":"李雷","idCard":"110101"}`); err != nil {
		t.Fatalf("Set() error: %v", err)
	}

	got, ok, err := db.Get("debt_user_profile")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if !ok {
		t.Fatal("Get() should find the stored key")
	}
	if got != `{"name":"李雷","idCard":"110101"}` {
		t.Errorf("Get() = %q", got)
	}
}

func TestKV_SetOverwrites(t *testing.T) {
	db := newTestDB(t)
	db.Set("k", "first")
	db.Set("k", "second")

	got, _, err := db.Get("k")
	if err != nil {
		t.Fatal(err)
	}
	if got != "second" {
		t.Errorf("Get() = %q, want %q (last write wins)", got, "second")
	}
}

func TestKV_Delete(t *testing.T) {
	db := newTestDB(t)
	db.Set("k", "v")

	if err := db.Delete("k"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if _, ok, _ := db.Get("k"); ok {
		t.Error("key should be gone after Delete()")
	}

	// Deleting a missing key is a no-op.
	if err := db.Delete("nonexistent"); err != nil {
		t.Errorf("Delete(missing) error: %v", err)
	}
}

func TestKV_Reopen(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	db.Set("debt_data_list", "[]")
	db.Close()

	db2, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	defer db2.Close()
	got, ok, err := db2.Get("debt_data_list")
	if err != nil || !ok || got != "[]" {
		t.Errorf("Get() after reopen = %q, %v, %v", got, ok, err)
	}
}
