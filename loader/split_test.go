package loader

import (
	"strings"
	"testing"
)

func TestSplitShortTextSinglePiece(t *testing.T) {
	pieces := Split("hello world", 100, 10)
	if len(pieces) != 1 {
		t.Fatalf("got %d pieces, want 1", len(pieces))
	}
	if pieces[0].Text != "hello world" || pieces[0].Start != 0 || pieces[0].End != 11 {
		t.Errorf("unexpected piece: %+v", pieces[0])
	}
}

func TestSplitEmptyText(t *testing.T) {
	if pieces := Split("", 100, 10); pieces != nil {
		t.Errorf("got %v, want nil", pieces)
	}
}

func TestSplitRespectsSizeAndOverlap(t *testing.T) {
	words := make([]string, 200)
	for i := range words {
		words[i] = "word"
	}
	text := strings.Join(words, " ")

	pieces := Split(text, 100, 20)
	if len(pieces) < 2 {
		t.Fatalf("expected multiple pieces, got %d", len(pieces))
	}
	for i, p := range pieces {
		if got := len([]rune(p.Text)); got > 100 {
			t.Errorf("piece %d has %d runes, want <= 100", i, got)
		}
		if i > 0 {
			prev := pieces[i-1]
			if p.Start != prev.End-20 {
				t.Errorf("piece %d starts at %d, want %d", i, p.Start, prev.End-20)
			}
		}
	}
	last := pieces[len(pieces)-1]
	if last.End != len([]rune(text)) {
		t.Errorf("last piece ends at %d, want %d", last.End, len([]rune(text)))
	}
}

func TestSplitPrefersWordBoundaries(t *testing.T) {
	text := strings.Repeat("alpha beta gamma ", 50)
	for _, p := range Split(text, 64, 8) {
		if p.End == len([]rune(text)) {
			continue
		}
		r := []rune(p.Text)
		if last := r[len(r)-1]; last != ' ' {
			t.Errorf("piece ending %q does not end at a word boundary", string(r[len(r)-10:]))
		}
	}
}

func TestSplitNoWhitespaceCutsHard(t *testing.T) {
	text := strings.Repeat("x", 250)
	pieces := Split(text, 100, 10)
	if len(pieces) < 3 {
		t.Fatalf("got %d pieces, want >= 3", len(pieces))
	}
	if len(pieces[0].Text) != 100 {
		t.Errorf("first piece has %d runes, want 100", len(pieces[0].Text))
	}
}

func TestSplitDeterministic(t *testing.T) {
	text := strings.Repeat("the quick brown fox jumps over the lazy dog ", 100)
	a := Split(text, 300, 40)
	b := Split(text, 300, 40)
	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("piece %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}
