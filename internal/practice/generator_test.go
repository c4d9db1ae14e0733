package practice_test

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MrWong99/pronuncia/internal/practice"
)

func newGenerator(seed uint64) *practice.Generator {
	return practice.NewGenerator(practice.DefaultCatalog(),
		practice.WithRand(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))))
}

func TestGenerate_UnknownCategory(t *testing.T) {
	t.Parallel()
	g := newGenerator(1)
	for _, key := range []string{"", "ditado", "Leitura_Rapida"} {
		_, err := g.Generate(context.Background(), key, 3, practice.Options{})
		if !errors.Is(err, practice.ErrUnknownCategory) {
			t.Errorf("Generate(%q) err = %v, want ErrUnknownCategory", key, err)
		}
	}
}

func TestGenerate_AllCategoriesUniqueAndBounded(t *testing.T) {
	t.Parallel()
	g := newGenerator(42)
	cat := practice.DefaultCatalog()

	want := []string{"leitura_rapida", "repeticao_fonemas", "leitura_palavras", "frases_curtas",
		"repeticao_silabas", "trava_linguas", "trava_linguas_progressiva"}
	if got := cat.Keys(); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("Keys() = %v, want %v", got, want)
	}

	for _, key := range want {
		for _, n := range []int{0, 1, 5, 25} {
			items, err := g.Generate(context.Background(), key, n, practice.Options{AgeGroup: practice.AgeJuvenil})
			if err != nil {
				t.Fatalf("Generate(%q, %d): %v", key, n, err)
			}
			if len(items) > n {
				t.Errorf("Generate(%q, %d) returned %d items", key, n, len(items))
			}
			if n > 0 && len(items) == 0 {
				t.Errorf("Generate(%q, %d) returned nothing", key, n)
			}
			seen := map[string]bool{}
			for _, it := range items {
				if it.Text == "" {
					t.Errorf("Generate(%q) produced empty text", key)
				}
				if seen[it.Text] {
					t.Errorf("Generate(%q) duplicated %q", key, it.Text)
				}
				seen[it.Text] = true
				if it.TargetWords != nil || it.EstimatedDurationS != nil {
					t.Errorf("Generate(%q) without meta returned %+v", key, it)
				}
			}
		}
	}
}

func TestGenerate_NegativeCount(t *testing.T) {
	t.Parallel()
	items, err := newGenerator(3).Generate(context.Background(), "frases_curtas", -2, practice.Options{})
	if err != nil || len(items) != 0 {
		t.Errorf("Generate(-2) = %v, %v; want empty, nil", items, err)
	}
}

func TestGenerate_HugeCountIsClamped(t *testing.T) {
	t.Parallel()
	g := newGenerator(5)
	for _, n := range []int{practice.MaxCount + 1, 1e9, 1 << 50} {
		items, err := g.Generate(context.Background(), "trava_linguas", n, practice.Options{})
		if err != nil {
			t.Fatalf("Generate(%d): %v", n, err)
		}
		if len(items) > practice.MaxCount {
			t.Errorf("Generate(%d) = %d items, want at most %d", n, len(items), practice.MaxCount)
		}
	}
}

func TestGenerate_IncludeMeta(t *testing.T) {
	t.Parallel()
	g := newGenerator(7)
	items, err := g.Generate(context.Background(), "repeticao_fonemas", 10, practice.Options{IncludeMeta: true})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	cat, _ := practice.DefaultCatalog().Get("repeticao_fonemas")
	for _, it := range items {
		if it.Instructions != cat.Instructions {
			t.Errorf("instructions = %q, want %q", it.Instructions, cat.Instructions)
		}
		if it.EstimatedDurationS == nil || *it.EstimatedDurationS != cat.ExpectedDurationS {
			t.Errorf("estimated_duration_s = %v, want %d", it.EstimatedDurationS, cat.ExpectedDurationS)
		}
		if len(it.TargetWords) != 2 {
			t.Errorf("target words of %q = %q, want a pair", it.Text, it.TargetWords)
		}
	}
}

func TestItem_MetaFieldsAlwaysEncoded(t *testing.T) {
	t.Parallel()
	cat, err := practice.NewCatalog([]practice.Category{{Key: "livre", Samples: []string{"sol"}}})
	if err != nil {
		t.Fatal(err)
	}
	items, err := practice.NewGenerator(cat).Generate(context.Background(), "livre", 1, practice.Options{IncludeMeta: true})
	if err != nil || len(items) != 1 {
		t.Fatalf("Generate = %v, %v", items, err)
	}
	raw, err := json.Marshal(items[0])
	if err != nil {
		t.Fatal(err)
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"text", "target_words", "instructions", "estimated_duration_s"} {
		if _, ok := fields[k]; !ok {
			t.Errorf("encoded item %s lacks %q", raw, k)
		}
	}
}

func TestGenerate_LengthScalesWithMultiplier(t *testing.T) {
	t.Parallel()
	g := newGenerator(11)
	ctx := context.Background()

	count := func(opts practice.Options) int {
		items, err := g.Generate(ctx, "leitura_palavras", 1, opts)
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		return len(strings.Split(items[0].Text, ", "))
	}

	if got := count(practice.Options{AgeGroup: practice.AgeInfantil, Difficulty: practice.DifficultyFacil}); got != 4 {
		t.Errorf("infantil/facil words = %d, want 4", got)
	}
	if got := count(practice.Options{}); got != 6 {
		t.Errorf("adulto/medio words = %d, want 6", got)
	}
	if got := count(practice.Options{AgeGroup: practice.AgeAdulto, Difficulty: practice.DifficultyDificil}); got != 7 {
		t.Errorf("adulto/dificil words = %d, want 7", got)
	}
}

func TestGenerate_Progressive(t *testing.T) {
	t.Parallel()
	g := newGenerator(5)
	items, err := g.Generate(context.Background(), "trava_linguas_progressiva", 5, practice.Options{IncludeMeta: true})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	cat, _ := practice.DefaultCatalog().Get("trava_linguas_progressiva")
	for _, it := range items {
		stages := strings.Split(it.Text, " / ")
		if len(stages) != 4 {
			t.Errorf("%q has %d stages, want 4", it.Text, len(stages))
		}
		last := stages[len(stages)-1]
		found := false
		for _, s := range cat.Samples {
			found = found || s == last
		}
		if !found {
			t.Errorf("last stage %q is not a catalog sample", last)
		}
		if len(it.TargetWords) != len(stages) {
			t.Errorf("target words = %d, want %d", len(it.TargetWords), len(stages))
		}
	}
}

func TestWordMultiplier(t *testing.T) {
	t.Parallel()
	tests := []struct {
		age, diff string
		want      float64
	}{
		{"infantil", "medio", 1.0},
		{"juvenil", "medio", 1.3},
		{"adulto", "medio", 1.6},
		{"", "", 1.6},
		{"infantil", "facil", 0.9},
		{"adulto", "dificil", 1.6 * 1.2},
	}
	for _, tc := range tests {
		if got := practice.WordMultiplier(tc.age, tc.diff); got != tc.want {
			t.Errorf("WordMultiplier(%q, %q) = %v, want %v", tc.age, tc.diff, got, tc.want)
		}
	}
}

func TestCatalog_List(t *testing.T) {
	t.Parallel()
	list := practice.DefaultCatalog().List()
	if len(list) != 7 {
		t.Fatalf("List() has %d entries, want 7", len(list))
	}
	s := list["repeticao_fonemas"]
	if s.Title != "Repetição de Fonemas e Pares Mínimos" || s.SampleCount != 4 {
		t.Errorf("repeticao_fonemas = %+v", s)
	}
}

func TestLoadCatalog(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	good := filepath.Join(dir, "good.yaml")
	if err := os.WriteFile(good, []byte(`categories:
  - key: ditado
    title: Ditado
    description: Palavras ditadas.
    expected_duration_s: 4
    instructions: Repita a palavra.
    samples: ["bola", "bala"]
    suggested_threshold: 80
`), 0o600); err != nil {
		t.Fatal(err)
	}
	c, err := practice.LoadCatalog(good)
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	cat, ok := c.Get("ditado")
	if !ok || cat.SuggestedThreshold == nil || *cat.SuggestedThreshold != 80 {
		t.Fatalf("ditado = %+v, ok=%v", cat, ok)
	}
	items, err := practice.NewGenerator(c).Generate(context.Background(), "ditado", 10, practice.Options{})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	for _, it := range items {
		if it.Text != "bola" && it.Text != "bala" {
			t.Errorf("unexpected item %q", it.Text)
		}
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte(`categories:
  - key: ditado
    samples: []
    colour: blue
`), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := practice.LoadCatalog(bad); err == nil {
		t.Error("LoadCatalog accepted unknown field")
	}
}

func TestNewCatalog_Validation(t *testing.T) {
	t.Parallel()
	_, err := practice.NewCatalog([]practice.Category{
		{Key: "a", Samples: []string{"x"}},
		{Key: "a", Samples: []string{"y"}},
		{Key: "", Samples: []string{"z"}},
		{Key: "b"},
	})
	if err == nil {
		t.Fatal("NewCatalog accepted invalid categories")
	}
	for _, want := range []string{"duplicate", "key is required", "at least one sample"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}
}
