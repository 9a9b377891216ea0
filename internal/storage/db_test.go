package storage

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
)

// testDB runs the shared test suite against a DB implementation.
func testDB(t *testing.T, db DB) {
	t.Helper()

	t.Run("PutAndGet", func(t *testing.T) {
		if err := db.Put([]byte("key1"), []byte("value1")); err != nil {
			t.Fatalf("Put() error: %v", err)
		}
		val, err := db.Get([]byte("key1"))
		if err != nil {
			t.Fatalf("Get() error: %v", err)
		}
		if !bytes.Equal(val, []byte("value1")) {
			t.Errorf("Get() = %q, want %q", val, "value1")
		}
	})

	t.Run("GetNonexistent", func(t *testing.T) {
		if _, err := db.Get([]byte("nonexistent")); !errors.Is(err, ErrNotFound) {
			t.Errorf("Get() err = %v, want ErrNotFound", err)
		}
	})

	t.Run("HasAndDelete", func(t *testing.T) {
		db.Put([]byte("exists"), []byte("yes"))
		if ok, _ := db.Has([]byte("exists")); !ok {
			t.Error("Has() = false for existing key")
		}
		if err := db.Delete([]byte("exists")); err != nil {
			t.Fatalf("Delete() error: %v", err)
		}
		if ok, _ := db.Has([]byte("exists")); ok {
			t.Error("Has() = true after Delete")
		}
	})

	t.Run("ForEachOrdered", func(t *testing.T) {
		for _, k := range []string{"o/3", "o/1", "o/2", "p/1"} {
			db.Put([]byte(k), []byte(k))
		}
		var got []string
		err := db.ForEach([]byte("o/"), func(key, _ []byte) error {
			got = append(got, string(key))
			return nil
		})
		if err != nil {
			t.Fatalf("ForEach() error: %v", err)
		}
		if fmt.Sprint(got) != "[o/1 o/2 o/3]" {
			t.Errorf("ForEach keys = %v", got)
		}
	})

	t.Run("ForEachStopEarly", func(t *testing.T) {
		stop := errors.New("stop")
		n := 0
		err := db.ForEach([]byte("o/"), func(_, _ []byte) error {
			n++
			return stop
		})
		if !errors.Is(err, stop) || n != 1 {
			t.Errorf("err = %v, calls = %d", err, n)
		}
	})

	t.Run("Batch", func(t *testing.T) {
		db.Put([]byte("b/old"), []byte("x"))
		b := NewBatch(db)
		b.Put([]byte("b/new"), []byte("y"))
		b.Delete([]byte("b/old"))
		if ok, _ := db.Has([]byte("b/new")); ok {
			t.Error("batch write visible before Commit")
		}
		if err := b.Commit(); err != nil {
			t.Fatalf("Commit() error: %v", err)
		}
		if ok, _ := db.Has([]byte("b/old")); ok {
			t.Error("b/old should be deleted")
		}
		if v, _ := db.Get([]byte("b/new")); !bytes.Equal(v, []byte("y")) {
			t.Errorf("b/new = %q", v)
		}
	})
}

func TestMemoryDB(t *testing.T) {
	db := NewMemory()
	defer db.Close()
	testDB(t, db)
}

func TestBadgerDB(t *testing.T) {
	db, err := NewBadger(t.TempDir())
	if err != nil {
		t.Fatalf("NewBadger() error: %v", err)
	}
	defer db.Close()
	testDB(t, db)
}

func TestBadgerDB_InMemory(t *testing.T) {
	db, err := NewBadgerInMemory()
	if err != nil {
		t.Fatalf("NewBadgerInMemory() error: %v", err)
	}
	defer db.Close()
	testDB(t, db)
}

func TestBadgerDB_Persistence(t *testing.T) {
	dir := t.TempDir()

	db1, err := NewBadger(dir)
	if err != nil {
		t.Fatalf("NewBadger() error: %v", err)
	}
	db1.Put([]byte("persist"), []byte("data"))
	db1.Close()

	db2, err := NewBadger(dir)
	if err != nil {
		t.Fatalf("NewBadger() reopen error: %v", err)
	}
	defer db2.Close()

	val, err := db2.Get([]byte("persist"))
	if err != nil {
		t.Fatalf("Get() after reopen error: %v", err)
	}
	if !bytes.Equal(val, []byte("data")) {
		t.Errorf("Get() = %q, want %q", val, "data")
	}
}

func TestMemoryDB_GetReturnsCopy(t *testing.T) {
	db := NewMemory()
	db.Put([]byte("k"), []byte("abc"))
	v, _ := db.Get([]byte("k"))
	v[0] = 'z'
	again, _ := db.Get([]byte("k"))
	if string(again) != "abc" {
		t.Error("Get() should return a copy")
	}
}
