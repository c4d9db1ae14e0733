// Package practice generates drill text for pronunciation exercises.
//
// A [Catalog] holds the exercise categories and their sample sentences or
// word lists. A [Generator] turns a category into a batch of randomized,
// de-duplicated practice items, optionally annotated with the words the
// learner should focus on.
package practice

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Category is one exercise type in the catalog.
type Category struct {
	Key                string   `yaml:"key"                           json:"key"`
	Title              string   `yaml:"title"                         json:"title"`
	Description        string   `yaml:"description"                   json:"description"`
	ExpectedDurationS  int      `yaml:"expected_duration_s"           json:"expected_duration_s"`
	Instructions       string   `yaml:"instructions"                  json:"instructions"`
	Samples            []string `yaml:"samples"                       json:"samples"`
	SuggestedThreshold *float64 `yaml:"suggested_threshold,omitempty" json:"suggested_threshold,omitempty"`
}

// Summary is the public listing entry of a category.
type Summary struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	SampleCount int    `json:"sample_count"`
}

// Catalog is an immutable, ordered set of categories. It is safe for
// concurrent use.
type Catalog struct {
	keys  []string
	byKey map[string]Category
}

// NewCatalog validates cats and builds a catalog preserving their order.
func NewCatalog(cats []Category) (*Catalog, error) {
	c := &Catalog{byKey: make(map[string]Category, len(cats))}
	var errs []error
	for i, cat := range cats {
		switch {
		case cat.Key == "":
			errs = append(errs, fmt.Errorf("category %d: key is required", i))
			continue
		case len(cat.Samples) == 0:
			errs = append(errs, fmt.Errorf("category %q: at least one sample is required", cat.Key))
		}
		if _, dup := c.byKey[cat.Key]; dup {
			errs = append(errs, fmt.Errorf("category %q: duplicate key", cat.Key))
			continue
		}
		cat.Samples = append([]string(nil), cat.Samples...)
		c.keys = append(c.keys, cat.Key)
		c.byKey[cat.Key] = cat
	}
	if len(cats) == 0 {
		errs = append(errs, errors.New("catalog is empty"))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("practice: %w", err)
	}
	return c, nil
}

// catalogFile is the YAML layout of a catalog file.
type catalogFile struct {
	Categories []Category `yaml:"categories"`
}

// LoadCatalog reads a catalog from the YAML file at path. Unknown fields are
// rejected.
func LoadCatalog(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("practice: open catalog: %w", err)
	}
	defer f.Close()

	var cf catalogFile
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cf); err != nil {
		return nil, fmt.Errorf("practice: decode catalog %s: %w", path, err)
	}
	return NewCatalog(cf.Categories)
}

// Keys returns the category keys in catalog order.
func (c *Catalog) Keys() []string {
	return append([]string(nil), c.keys...)
}

// Get returns the category stored under key.
func (c *Catalog) Get(key string) (Category, bool) {
	cat, ok := c.byKey[key]
	return cat, ok
}

// List returns the public summary of every category.
func (c *Catalog) List() map[string]Summary {
	out := make(map[string]Summary, len(c.keys))
	for _, k := range c.keys {
		cat := c.byKey[k]
		out[k] = Summary{
			Title:       cat.Title,
			Description: cat.Description,
			SampleCount: len(cat.Samples),
		}
	}
	return out
}

func threshold(v float64) *float64 { return &v }

// DefaultCatalog returns the built-in Brazilian Portuguese catalog.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog([]Category{
		{
			Key:               "leitura_rapida",
			Title:             "Leitura Rápida / Fluência Verbal",
			Description:       "Textos curtos (10–15 segundos) para avaliar velocidade, prosódia e clareza.",
			ExpectedDurationS: 12,
			Instructions:      "Leia o texto em voz alta de forma natural, sem pausas longas.",
			Samples: []string{
				"O rato roeu a roupa do rei de Roma.",
				"O sol nasceu e a cidade acordou.",
				"Hoje a escola terá aula de música e pintura.",
			},
		},
		{
			Key:               "repeticao_fonemas",
			Title:             "Repetição de Fonemas e Pares Mínimos",
			Description:       "Contraste de fonemas e pares mínimos para discriminação e articulação.",
			ExpectedDurationS: 6,
			Instructions:      "Repita cada par claramente, com espaço entre as palavras.",
			Samples:           []string{"papa / baba", "pato / batô", "sapo / xapo", "casa / caça"},
		},
		{
			Key:               "leitura_palavras",
			Title:             "Leitura de Palavras e Pseudopalavras",
			Description:       "Listas misturando palavras reais e pseudopalavras.",
			ExpectedDurationS: 8,
			Instructions:      "Leia a lista de palavras em voz alta, tentando manter ritmo constante.",
			Samples:           []string{"gato, casa, pindó, maral, tromba", "festa, bico, lapor, suven"},
		},
		{
			Key:               "frases_curtas",
			Title:             "Frases Curtas de Repetição / Leitura",
			Description:       "Frases simples para avaliar memória verbal, articulação e prosódia.",
			ExpectedDurationS: 5,
			Instructions:      "Repita cada frase exatamente como ouvido ou leia em voz alta.",
			Samples:           []string{"Ela abriu a janela.", "O menino comprou pão.", "Passa o sal, por favor."},
		},
		{
			Key:               "repeticao_silabas",
			Title:             "Repetição de Sílabas e Trava-línguas",
			Description:       "Sequências silábicas e trava-línguas para velocidade e coordenação.",
			ExpectedDurationS: 6,
			Instructions:      "Repita a sequência rapidamente e de forma contínua.",
			Samples:           []string{"pa pe pi po pu", "três tigres tristes", "pinga a pipoca na panela"},
		},
		{
			Key:               "trava_linguas",
			Title:             "Trava-línguas",
			Description:       "Trava-línguas clássicos para articulação e velocidade de fala.",
			ExpectedDurationS: 8,
			Instructions:      "Leia o trava-línguas devagar uma vez e depois repita mais rápido, sem tropeçar.",
			Samples: []string{
				"Três pratos de trigo para três tigres tristes.",
				"O peito do pé de Pedro é preto.",
				"A aranha arranha a rã, a rã arranha a aranha.",
				"Num ninho de mafagafos há sete mafagafinhos.",
			},
			SuggestedThreshold: threshold(70),
		},
		{
			Key:               "trava_linguas_progressiva",
			Title:             "Trava-línguas Progressivo",
			Description:       "Trava-línguas apresentados em etapas que crescem a cada repetição.",
			ExpectedDurationS: 15,
			Instructions:      "Repita cada etapa separada por barra, acrescentando um trecho a cada vez.",
			Samples: []string{
				"Três pratos de trigo para três tigres tristes.",
				"O sabiá não sabia que o sábio sabia que o sabiá não sabia assobiar.",
				"Pedro pregou um prego na porta preta.",
				"A vaca malhada foi molhada por outra vaca molhada e malhada.",
			},
			SuggestedThreshold: threshold(65),
		},
	})
	if err != nil {
		panic(err)
	}
	return c
}
