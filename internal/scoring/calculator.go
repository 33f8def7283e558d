package scoring

import (
	"kanji-quiz/internal/catalog"
	"kanji-quiz/internal/domain"
)

// Calculator suma, por cada respuesta, el peso de la opcion elegida en las
// dimensiones que le pertenecen. No guarda estado.
type Calculator struct {
	name       string
	dimensions []string
	owned      map[string]bool
	catalog    *catalog.Catalog
}

// NewCalculator construye un calculador a partir de su declaracion en el catalogo.
func NewCalculator(cat *catalog.Catalog, spec catalog.CalculatorSpec) Calculator {
	owned := make(map[string]bool, len(spec.Dimensions))
	for _, dim := range spec.Dimensions {
		owned[dim] = true
	}
	return Calculator{
		name:       spec.Name,
		dimensions: spec.Dimensions,
		owned:      owned,
		catalog:    cat,
	}
}

// NewCalculators construye un calculador por cada entrada del catalogo
// (gender, motivation, behavioral en el catalogo por defecto).
func NewCalculators(cat *catalog.Catalog) []Calculator {
	specs := cat.Calculators()
	out := make([]Calculator, 0, len(specs))
	for _, spec := range specs {
		out = append(out, NewCalculator(cat, spec))
	}
	return out
}

func (c Calculator) Name() string { return c.name }

func (c Calculator) Dimensions() []string { return c.dimensions }

// Calculate devuelve el vector parcial; todas las dimensiones propias estan presentes.
func (c Calculator) Calculate(answers []domain.Answer) domain.TraitVector {
	out := make(domain.TraitVector, len(c.dimensions))
	for _, dim := range c.dimensions {
		out[dim] = 0
	}
	for _, a := range answers {
		q, ok := c.catalog.Question(a.QuestionID)
		if !ok {
			continue
		}
		opt, ok := q.OptionByID(a.OptionID)
		if !ok {
			continue
		}
		for dim, weight := range opt.Weights {
			if c.owned[dim] {
				out[dim] += weight
			}
		}
	}
	return out
}
