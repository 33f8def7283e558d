package scoring

import (
	"kanji-quiz/internal/catalog"
	"kanji-quiz/internal/domain"
)

// SubtypeCalculator etiqueta cada clasificador y resuelve el subtipo por tabla.
type SubtypeCalculator struct {
	catalog *catalog.Catalog
}

func NewSubtypeCalculator(cat *catalog.Catalog) *SubtypeCalculator {
	return &SubtypeCalculator{catalog: cat}
}

// Labels evalua los clasificadores en orden de catalogo.
func (s *SubtypeCalculator) Labels(traits domain.TraitVector) (domain.Labels, error) {
	labels := make(domain.Labels)
	for _, cl := range s.catalog.Classifiers() {
		var (
			label string
			err   error
		)
		switch cl.Kind {
		case catalog.ClassifierArgmax:
			label, err = argmax(cl, traits)
		case catalog.ClassifierThreshold:
			label, err = threshold(cl, traits, labels)
		default:
			err = domain.Errorf(domain.KindCatalogInconsistent, "classifier %q has unknown kind %q", cl.Name, cl.Kind)
		}
		if err != nil {
			return nil, err
		}
		labels[cl.Name] = label
	}
	return labels, nil
}

// Resolve devuelve el subtipo y las etiquetas que lo produjeron.
func (s *SubtypeCalculator) Resolve(traits domain.TraitVector) (string, domain.Labels, error) {
	labels, err := s.Labels(traits)
	if err != nil {
		return "", nil, err
	}
	subtype, ok := s.catalog.ResolveSubtype(labels)
	if !ok {
		return "", labels, domain.Errorf(domain.KindCatalogInconsistent, "no subtype for labels %v", labels)
	}
	return subtype, labels, nil
}

// argmax: a igualdad gana la dimension declarada primero.
func argmax(cl catalog.ClassifierSpec, traits domain.TraitVector) (string, error) {
	if len(cl.Dimensions) == 0 {
		return "", domain.Errorf(domain.KindCatalogInconsistent, "classifier %q has no dimensions", cl.Name)
	}
	best := cl.Dimensions[0]
	for _, dim := range cl.Dimensions[1:] {
		if traits[dim] > traits[best] {
			best = dim
		}
	}
	return best, nil
}

// threshold: primer tramo con score >= min; el ultimo tramo no tiene min.
func threshold(cl catalog.ClassifierSpec, traits domain.TraitVector, labels domain.Labels) (string, error) {
	bands := cl.Bands
	if cl.SelectBy != "" {
		selector, ok := labels[cl.SelectBy]
		if !ok {
			return "", domain.Errorf(domain.KindCatalogInconsistent, "classifier %q evaluated before %q", cl.Name, cl.SelectBy)
		}
		bands = cl.BandsBy[selector]
	}
	score := traits[cl.Dimension]
	for _, band := range bands {
		if band.Min == nil || score >= *band.Min {
			return band.Label, nil
		}
	}
	return "", domain.Errorf(domain.KindCatalogInconsistent, "classifier %q has no band for %v", cl.Name, score)
}
