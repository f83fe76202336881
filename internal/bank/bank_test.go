package bank_test

import (
	"os"
	"path/filepath"
	"testing"

	"ordprov-service/internal/bank"
	"ordprov-service/internal/domain"
)

func validItem(word string) domain.QuizItem {
	return domain.QuizItem{
		Word: word,
		Options: map[string]string{
			"A": "ett", "B": "två", "C": "tre", "D": "fyra", "E": "fem",
		},
		Answer: "A",
		Year:   "2019",
		Term:   "vår",
		Source: "test",
	}
}

func TestSelectReturnsSingleValidItem(t *testing.T) {
	pool := []domain.QuizItem{
		{
			Word:    "foo",
			Options: map[string]string{"A": "x", "B": "y"},
			Answer:  "A",
		},
	}

	got := bank.Select(pool, 10)
	if len(got) != 1 {
		t.Fatalf("expected 1 item, got %d", len(got))
	}
	if got[0].Word != "foo" {
		t.Fatalf("expected foo, got %q", got[0].Word)
	}
}

func TestSelectDropsPlaceholderOptions(t *testing.T) {
	bad := validItem("trasig")
	bad.Options["C"] = "N/A"

	got := bank.Select([]domain.QuizItem{validItem("hel"), bad}, 0)
	if len(got) != 1 {
		t.Fatalf("expected placeholder item dropped, got %d items", len(got))
	}
	if got[0].Word != "hel" {
		t.Fatalf("expected hel to survive, got %q", got[0].Word)
	}
}

func TestSelectDropsMalformedItems(t *testing.T) {
	pool := []domain.QuizItem{
		validItem("bra"),
		{Word: "", Options: map[string]string{"A": "x"}, Answer: "A"},
		{Word: "N/A", Options: map[string]string{"A": "x"}, Answer: "A"},
		{Word: "utan-svar", Options: map[string]string{"A": "x"}, Answer: "B"},
		{Word: "utan-alternativ", Answer: "A"},
	}

	got := bank.Select(pool, 0)
	if len(got) != 1 || got[0].Word != "bra" {
		t.Fatalf("expected only the intact item, got %+v", got)
	}
}

func TestSelectIsPermutationThenTruncate(t *testing.T) {
	words := []string{"a", "b", "c", "d", "e", "f"}
	pool := make([]domain.QuizItem, 0, len(words))
	for _, w := range words {
		pool = append(pool, validItem(w))
	}

	got := bank.Select(pool, 4)
	if len(got) != 4 {
		t.Fatalf("expected truncation to 4, got %d", len(got))
	}

	seen := map[string]bool{}
	valid := map[string]bool{}
	for _, w := range words {
		valid[w] = true
	}
	for _, item := range got {
		if !valid[item.Word] {
			t.Fatalf("invented item %q", item.Word)
		}
		if seen[item.Word] {
			t.Fatalf("duplicate item %q", item.Word)
		}
		seen[item.Word] = true
	}

	// Pool smaller than limit returns everything.
	if got := bank.Select(pool, 100); len(got) != len(words) {
		t.Fatalf("expected all %d items, got %d", len(words), len(got))
	}
	// Unbounded limit returns everything too.
	if got := bank.Select(pool, 0); len(got) != len(words) {
		t.Fatalf("expected all %d items for unbounded, got %d", len(words), len(got))
	}
	// Input order must be untouched.
	for i, w := range words {
		if pool[i].Word != w {
			t.Fatalf("input pool mutated at %d: %q", i, pool[i].Word)
		}
	}
}

func TestSelectShuffleIsRoughlyUniform(t *testing.T) {
	const trials = 20000
	words := []string{"a", "b", "c", "d", "e"}
	pool := make([]domain.QuizItem, 0, len(words))
	for _, w := range words {
		pool = append(pool, validItem(w))
	}

	// counts[word] = how often the word landed in position 0.
	counts := map[string]int{}
	for i := 0; i < trials; i++ {
		got := bank.Select(pool, 0)
		counts[got[0].Word]++
	}

	// Each word should open ~1/5 of the rounds. A biased comparator-sort
	// shuffle fails this comfortably.
	expected := trials / len(words)
	for _, w := range words {
		n := counts[w]
		if n < expected*3/4 || n > expected*5/4 {
			t.Fatalf("word %q at position 0 %d times, expected near %d", w, n, expected)
		}
	}
}

func TestLoadMissingFileYieldsEmptyBank(t *testing.T) {
	b, err := bank.Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if b.Len() != 0 {
		t.Fatalf("expected empty bank, got %d items", b.Len())
	}
	if got := b.Pick(40); len(got) != 0 {
		t.Fatalf("expected no questions, got %d", len(got))
	}
}

func TestLoadParsesNumericAndSymbolicYears(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bank.json")
	raw := `[
		{"word":"gägna","options":{"A":"gagna","B":"gnaga","C":"gunga","D":"gapa","E":"ge"},"answer":"A","year":2019,"term":"höst","source":"hp19.pdf"},
		{"word":"syntetisk","options":{"A":"äkta","B":"konstgjord","C":"enkel","D":"dyr","E":"blank"},"answer":"B","year":"AI","term":"genererad","source":"modell"}
	]`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}

	b, err := bank.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if b.Len() != 2 {
		t.Fatalf("expected 2 items, got %d", b.Len())
	}
	got := b.Pick(0)
	years := map[domain.Year]bool{}
	for _, item := range got {
		years[item.Year] = true
	}
	if !years["2019"] || !years["AI"] {
		t.Fatalf("expected years 2019 and AI, got %v", years)
	}
}

func TestLoadRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bank.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := bank.Load(path); err == nil {
		t.Fatal("expected parse error for corrupt bank file")
	}
}
