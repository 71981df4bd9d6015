package bft

import (
	"testing"

	"github.com/ThatFatPat/BSFS-sub000/internal/bserr"
	"github.com/ThatFatPat/BSFS-sub000/internal/bsconst"
)

func newTable() []byte {
	return make([]byte, bsconst.BFTSize)
}

func TestFindFreeAndWriteEntry(t *testing.T) {
	table := newTable()

	idx, err := FindFree(table)
	if err != nil {
		t.Fatal(err)
	}
	if idx != 0 {
		t.Fatalf("FindFree on empty table = %d, want 0", idx)
	}

	e := Entry{Name: "hello.txt", InitialCluster: 7, Size: 42, Mode: 0o644, Atim: 100, Mtim: 200}
	if err := WriteEntry(table, idx, e); err != nil {
		t.Fatal(err)
	}

	got, err := ReadEntry(table, idx)
	if err != nil {
		t.Fatal(err)
	}
	if got != e {
		t.Fatalf("ReadEntry = %+v, want %+v", got, e)
	}

	next, err := FindFree(table)
	if err != nil {
		t.Fatal(err)
	}
	if next == idx {
		t.Fatalf("FindFree returned occupied slot %d again", idx)
	}
}

func TestFindByName(t *testing.T) {
	table := newTable()
	if err := WriteEntry(table, 5, Entry{Name: "a"}); err != nil {
		t.Fatal(err)
	}
	if err := WriteEntry(table, 9, Entry{Name: "b"}); err != nil {
		t.Fatal(err)
	}

	idx, err := Find(table, "b")
	if err != nil || idx != 9 {
		t.Fatalf("Find(b) = (%d, %v), want (9, nil)", idx, err)
	}

	if _, err := Find(table, "missing"); !bserr.Is(err, bserr.NotFound) {
		t.Fatalf("Find(missing) = %v, want NotFound", err)
	}
}

func TestRemoveEntry(t *testing.T) {
	table := newTable()
	if err := WriteEntry(table, 2, Entry{Name: "x"}); err != nil {
		t.Fatal(err)
	}
	if err := RemoveEntry(table, 2); err != nil {
		t.Fatal(err)
	}
	got, err := ReadEntry(table, 2)
	if err != nil {
		t.Fatal(err)
	}
	if !got.IsEmpty() {
		t.Fatalf("RemoveEntry left a non-empty entry: %+v", got)
	}
}

func TestIterateStopsEarly(t *testing.T) {
	table := newTable()
	for i, name := range []string{"a", "b", "c"} {
		if err := WriteEntry(table, i*10, Entry{Name: name}); err != nil {
			t.Fatal(err)
		}
	}

	var seen []string
	Iterate(table, func(index int, e Entry) bool {
		seen = append(seen, e.Name)
		return len(seen) < 2
	})
	if len(seen) != 2 {
		t.Fatalf("Iterate visited %d entries, want 2 (early stop)", len(seen))
	}
}

func TestFindFreeReturnsNoSpaceWhenFull(t *testing.T) {
	table := newTable()
	for i := 0; i < bsconst.BFTMaxEntries; i++ {
		e := Entry{Name: "f" + string(rune('a'+i%26)) + string(rune('A'+(i/26)%26)) + string(rune('0'+(i/676)%10))}
		if err := WriteEntry(table, i, e); err != nil {
			t.Fatalf("WriteEntry(%d): %v", i, err)
		}
	}

	if _, err := FindFree(table); !bserr.Is(err, bserr.NoSpace) {
		t.Fatalf("FindFree on full table = %v, want NoSpace", err)
	}
}

func TestValidateNameRejectsSlashAndOverlong(t *testing.T) {
	if err := ValidateName("a/b"); !bserr.Is(err, bserr.Invalid) {
		t.Fatalf("ValidateName with slash = %v, want Invalid", err)
	}
	long := make([]byte, bsconst.MaxFilenameLen+1)
	for i := range long {
		long[i] = 'x'
	}
	if err := ValidateName(string(long)); !bserr.Is(err, bserr.Invalid) {
		t.Fatalf("ValidateName(overlong) = %v, want Invalid", err)
	}
	if err := ValidateName(""); !bserr.Is(err, bserr.Invalid) {
		t.Fatalf("ValidateName(empty) = %v, want Invalid", err)
	}
}
