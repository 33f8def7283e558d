package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"kanji-quiz/internal/domain"
)

//go:embed default_catalog.yaml
var defaultCatalog []byte

const (
	ClassifierArgmax    = "argmax"
	ClassifierThreshold = "threshold"

	// Wildcard coincide con cualquier etiqueta en la tabla de subtipos.
	Wildcard = "*"
)

// CalculatorSpec declara un calculador y las dimensiones que le pertenecen.
type CalculatorSpec struct {
	Name       string   `yaml:"name"`
	Dimensions []string `yaml:"dimensions"`
}

// Band es un tramo de umbral; Min nil marca el tramo que captura el resto.
type Band struct {
	Label string   `yaml:"label"`
	Min   *float64 `yaml:"min,omitempty"`
}

type ClassifierSpec struct {
	Name       string            `yaml:"name"`
	Kind       string            `yaml:"kind"`
	Dimensions []string          `yaml:"dimensions,omitempty"`
	Dimension  string            `yaml:"dimension,omitempty"`
	Bands      []Band            `yaml:"bands,omitempty"`
	SelectBy   string            `yaml:"select_by,omitempty"`
	BandsBy    map[string][]Band `yaml:"bands_by,omitempty"`
}

type SubtypeRule struct {
	When    map[string]string `yaml:"when"`
	Subtype string            `yaml:"subtype"`
}

type SubtypeSpec struct {
	Key   []string      `yaml:"key"`
	Table []SubtypeRule `yaml:"table"`
}

// Document es la forma YAML del catalogo.
type Document struct {
	Version         string                  `yaml:"version"`
	DefaultLanguage string                  `yaml:"default_language"`
	Languages       []string                `yaml:"languages"`
	Calculators     []CalculatorSpec        `yaml:"calculators"`
	Questions       []domain.Question       `yaml:"questions"`
	Classifiers     []ClassifierSpec        `yaml:"classifiers"`
	Subtypes        SubtypeSpec             `yaml:"subtypes"`
	Candidates      []domain.KanjiCandidate `yaml:"candidates"`
}

// Catalog es la fuente de datos de referencia, solo lectura tras Load.
type Catalog struct {
	doc          Document
	questions    []domain.Question
	questionByID map[string]int
	dimensions   []string
	owner        map[string]string
	classifiers  map[string]int
	languages    map[string]bool
}

// ValidationError agrupa todos los problemas encontrados en un catalogo.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 1 {
		return "catalog inconsistent: " + e.Issues[0]
	}
	return fmt.Sprintf("catalog inconsistent: %d issues (first: %s)", len(e.Issues), e.Issues[0])
}

// Unwrap expone el Kind CATALOG_INCONSISTENT a errors.Is y domain.KindOf.
func (e *ValidationError) Unwrap() error {
	return domain.ErrCatalogInconsistent
}

// Issues extrae la lista de problemas de un error devuelto por Load.
func Issues(err error) []string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Issues
	}
	if err != nil {
		return []string{err.Error()}
	}
	return nil
}

// Default carga el catalogo embebido.
func Default() (*Catalog, error) {
	return Load(defaultCatalog)
}

// LoadFile carga un catalogo desde disco; path vacio usa el embebido.
func LoadFile(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return Load(data)
}

// Load parsea, indexa y valida un catalogo YAML.
func Load(data []byte) (*Catalog, error) {
	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, domain.Wrap(domain.KindCatalogInconsistent, "parse catalog", err)
	}
	c := build(doc)
	if issues := c.Validate(); len(issues) > 0 {
		return nil, &ValidationError{Issues: issues}
	}
	return c, nil
}

func build(doc Document) *Catalog {
	c := &Catalog{
		doc:          doc,
		questionByID: make(map[string]int, len(doc.Questions)),
		owner:        make(map[string]string),
		classifiers:  make(map[string]int, len(doc.Classifiers)),
		languages:    make(map[string]bool),
	}
	c.doc.DefaultLanguage = canonical(doc.DefaultLanguage)
	c.languages[c.doc.DefaultLanguage] = true
	for _, lang := range doc.Languages {
		c.languages[canonical(lang)] = true
	}

	c.questions = append([]domain.Question(nil), doc.Questions...)
	sort.SliceStable(c.questions, func(i, j int) bool {
		return c.questions[i].Order < c.questions[j].Order
	})
	for i, q := range c.questions {
		if _, dup := c.questionByID[q.ID]; !dup {
			c.questionByID[q.ID] = i
		}
	}

	for _, calc := range doc.Calculators {
		for _, dim := range calc.Dimensions {
			if _, owned := c.owner[dim]; owned {
				continue
			}
			c.owner[dim] = calc.Name
			c.dimensions = append(c.dimensions, dim)
		}
	}
	for i, cl := range doc.Classifiers {
		if _, dup := c.classifiers[cl.Name]; !dup {
			c.classifiers[cl.Name] = i
		}
	}
	return c
}

func (c *Catalog) Version() string { return c.doc.Version }

func (c *Catalog) DefaultLanguage() string { return c.doc.DefaultLanguage }

// Questions devuelve la secuencia ordenada; no debe modificarse.
func (c *Catalog) Questions() []domain.Question { return c.questions }

// Question busca una pregunta por id.
func (c *Catalog) Question(id string) (domain.Question, bool) {
	i, ok := c.questionByID[id]
	if !ok {
		return domain.Question{}, false
	}
	return c.questions[i], true
}

func (c *Catalog) Calculators() []CalculatorSpec { return c.doc.Calculators }

// Dimensions devuelve todas las dimensiones en orden de declaracion.
func (c *Catalog) Dimensions() []string { return c.dimensions }

func (c *Catalog) Classifiers() []ClassifierSpec { return c.doc.Classifiers }

// Classifier busca un clasificador por nombre.
func (c *Catalog) Classifier(name string) (ClassifierSpec, bool) {
	i, ok := c.classifiers[name]
	if !ok {
		return ClassifierSpec{}, false
	}
	return c.doc.Classifiers[i], true
}

func (c *Catalog) SubtypeKey() []string { return c.doc.Subtypes.Key }

func (c *Catalog) Candidates() []domain.KanjiCandidate { return c.doc.Candidates }
