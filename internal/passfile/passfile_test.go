package passfile

import (
	"strings"
	"testing"

	"github.com/ThatFatPat/BSFS-sub000/internal/bserr"
	"github.com/ThatFatPat/BSFS-sub000/internal/bsconst"
)

func TestReadTrimsAndDropsBlankLines(t *testing.T) {
	input := "  first pass  \n\nsecond\n   \nthird\n"
	got, err := Read(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"first pass", "second", "third"}
	if len(got) != len(want) {
		t.Fatalf("Read returned %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Read[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestReadRejectsTooManyPassphrases(t *testing.T) {
	var b strings.Builder
	for i := 0; i < bsconst.MaxLevels+1; i++ {
		b.WriteString("pass\n")
	}
	if _, err := Read(strings.NewReader(b.String())); !bserr.Is(err, bserr.TooManyLevels) {
		t.Fatalf("Read(too many) = %v, want TooManyLevels", err)
	}
}

func TestReadEmptyInput(t *testing.T) {
	got, err := Read(strings.NewReader(""))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("Read(empty) = %v, want empty", got)
	}
}
