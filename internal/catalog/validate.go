package catalog

import (
	"fmt"
	"sort"
)

// Validate revisa la consistencia del catalogo y devuelve todos los problemas.
func (c *Catalog) Validate() []string {
	v := &validator{c: c}
	v.header()
	v.calculators()
	v.questions()
	v.classifiers()
	v.subtypes()
	v.candidates()
	return v.issues
}

type validator struct {
	c      *Catalog
	issues []string
}

func (v *validator) addf(format string, args ...any) {
	v.issues = append(v.issues, fmt.Sprintf(format, args...))
}

func (v *validator) header() {
	if v.c.doc.Version == "" {
		v.addf("version is required")
	}
	if v.c.doc.DefaultLanguage == "" {
		v.addf("default_language is required")
	}
}

func (v *validator) calculators() {
	if len(v.c.doc.Calculators) == 0 {
		v.addf("no calculators declared")
	}
	names := make(map[string]bool)
	owners := make(map[string]string)
	for _, calc := range v.c.doc.Calculators {
		if calc.Name == "" {
			v.addf("calculator without name")
		} else if names[calc.Name] {
			v.addf("calculator %q declared twice", calc.Name)
		}
		names[calc.Name] = true
		if len(calc.Dimensions) == 0 {
			v.addf("calculator %q has no dimensions", calc.Name)
		}
		for _, dim := range calc.Dimensions {
			if prev, ok := owners[dim]; ok {
				v.addf("dimension %q belongs to calculators %q and %q", dim, prev, calc.Name)
				continue
			}
			owners[dim] = calc.Name
		}
	}
}

func (v *validator) questions() {
	if len(v.c.doc.Questions) == 0 {
		v.addf("no questions declared")
	}
	def := v.c.doc.DefaultLanguage
	ids := make(map[string]bool)
	orders := make(map[int]string)
	for _, q := range v.c.doc.Questions {
		if q.ID == "" {
			v.addf("question with order %d has no id", q.Order)
		} else if ids[q.ID] {
			v.addf("question %q declared twice", q.ID)
		}
		ids[q.ID] = true
		if prev, ok := orders[q.Order]; ok {
			v.addf("questions %q and %q share order %d", prev, q.ID, q.Order)
		} else {
			orders[q.Order] = q.ID
		}
		if _, ok := lookup(q.Text, def); !ok {
			v.addf("question %q has no %s text", q.ID, def)
		}
		if len(q.Options) == 0 {
			v.addf("question %q has no options", q.ID)
		}
		optionIDs := make(map[string]bool)
		for _, opt := range q.Options {
			if opt.ID == "" {
				v.addf("question %q has an option without id", q.ID)
			} else if optionIDs[opt.ID] {
				v.addf("question %q option %q declared twice", q.ID, opt.ID)
			}
			optionIDs[opt.ID] = true
			if _, ok := lookup(opt.Text, def); !ok {
				v.addf("question %q option %q has no %s text", q.ID, opt.ID, def)
			}
			v.weights(q.ID, opt.ID, opt.Weights)
		}
	}
}

func (v *validator) weights(questionID, optionID string, weights map[string]float64) {
	dims := make([]string, 0, len(weights))
	for dim := range weights {
		dims = append(dims, dim)
	}
	sort.Strings(dims)
	nonZero := false
	for _, dim := range dims {
		if _, owned := v.c.owner[dim]; !owned {
			v.addf("question %q option %q weights unknown dimension %q", questionID, optionID, dim)
			continue
		}
		if weights[dim] != 0 {
			nonZero = true
		}
	}
	if !nonZero {
		v.addf("question %q option %q has no non-zero weight", questionID, optionID)
	}
}

func (v *validator) classifiers() {
	if len(v.c.doc.Classifiers) == 0 {
		v.addf("no classifiers declared")
	}
	seen := make(map[string]bool)
	for _, cl := range v.c.doc.Classifiers {
		if cl.Name == "" {
			v.addf("classifier without name")
		} else if seen[cl.Name] {
			v.addf("classifier %q declared twice", cl.Name)
		}
		switch cl.Kind {
		case ClassifierArgmax:
			if len(cl.Dimensions) == 0 {
				v.addf("classifier %q has no dimensions", cl.Name)
			}
			for _, dim := range cl.Dimensions {
				if _, ok := v.c.owner[dim]; !ok {
					v.addf("classifier %q references unknown dimension %q", cl.Name, dim)
				}
			}
		case ClassifierThreshold:
			if _, ok := v.c.owner[cl.Dimension]; !ok {
				v.addf("classifier %q references unknown dimension %q", cl.Name, cl.Dimension)
			}
			if cl.SelectBy == "" {
				v.bands(cl.Name, cl.Bands)
				break
			}
			if !seen[cl.SelectBy] {
				v.addf("classifier %q selects by %q, which is not declared before it", cl.Name, cl.SelectBy)
				break
			}
			for _, label := range v.c.Labels(cl.SelectBy) {
				bands, ok := cl.BandsBy[label]
				if !ok {
					v.addf("classifier %q has no bands for %s=%s", cl.Name, cl.SelectBy, label)
					continue
				}
				v.bands(fmt.Sprintf("%s[%s]", cl.Name, label), bands)
			}
		default:
			v.addf("classifier %q has unknown kind %q", cl.Name, cl.Kind)
		}
		seen[cl.Name] = true
	}
}

func (v *validator) bands(name string, bands []Band) {
	if len(bands) == 0 {
		v.addf("classifier %s has no bands", name)
		return
	}
	for i, b := range bands {
		if b.Label == "" {
			v.addf("classifier %s has a band without label", name)
		}
		last := i == len(bands)-1
		if b.Min == nil && !last {
			v.addf("classifier %s catch-all band %q must be last", name, b.Label)
		}
		if b.Min != nil && last {
			v.addf("classifier %s must end with a catch-all band", name)
		}
		if i > 0 && b.Min != nil && bands[i-1].Min != nil && *b.Min >= *bands[i-1].Min {
			v.addf("classifier %s bands must be sorted by descending min", name)
		}
	}
}

func (v *validator) subtypes() {
	key := v.c.doc.Subtypes.Key
	if len(key) == 0 {
		v.addf("subtypes.key is empty")
		return
	}
	for _, name := range key {
		if _, ok := v.c.Classifier(name); !ok {
			v.addf("subtypes.key references unknown classifier %q", name)
			return
		}
	}
	for i, rule := range v.c.doc.Subtypes.Table {
		if rule.Subtype == "" {
			v.addf("subtypes.table row %d has no subtype", i)
		}
		for classifier, label := range rule.When {
			if !contains(key, classifier) {
				v.addf("subtypes.table row %d matches on %q, which is not in the key", i, classifier)
				continue
			}
			if label != Wildcard && !contains(v.c.Labels(classifier), label) {
				v.addf("subtypes.table row %d uses unknown label %s=%s", i, classifier, label)
			}
		}
	}
	for _, combo := range v.c.combinations(key) {
		if _, ok := v.c.ResolveSubtype(combo); !ok {
			v.addf("no subtype for %s", describe(key, combo))
		}
	}
}

func (v *validator) candidates() {
	def := v.c.doc.DefaultLanguage
	subtypes := v.c.Subtypes()
	ids := make(map[string]bool)
	auxSet := make(map[string]bool)
	for _, cand := range v.c.doc.Candidates {
		if cand.ID == "" {
			v.addf("candidate without id for subtype %q", cand.Subtype)
		} else if ids[cand.ID] {
			v.addf("candidate %q declared twice", cand.ID)
		}
		ids[cand.ID] = true
		if !contains(subtypes, cand.Subtype) {
			v.addf("candidate %q references unknown subtype %q", cand.ID, cand.Subtype)
		}
		if cand.Kanji == "" || cand.Reading == "" {
			v.addf("candidate %q needs kanji and reading", cand.ID)
		}
		if _, ok := lookup(cand.Meaning, def); !ok {
			v.addf("candidate %q has no %s meaning", cand.ID, def)
		}
		if _, ok := lookup(cand.Explanation, def); !ok {
			v.addf("candidate %q has no %s explanation", cand.ID, def)
		}
		for classifier, label := range cand.Match {
			if _, ok := v.c.Classifier(classifier); !ok {
				v.addf("candidate %q matches unknown classifier %q", cand.ID, classifier)
				continue
			}
			if !contains(v.c.Labels(classifier), label) {
				v.addf("candidate %q matches unknown label %s=%s", cand.ID, classifier, label)
			}
			auxSet[classifier] = true
		}
	}

	aux := make([]string, 0, len(auxSet))
	for classifier := range auxSet {
		aux = append(aux, classifier)
	}
	sort.Strings(aux)
	combos := v.c.combinations(aux)
	for _, subtype := range subtypes {
		for _, combo := range combos {
			if _, ok := v.c.MatchCandidate(subtype, combo); !ok {
				if len(aux) == 0 {
					v.addf("no candidate for subtype %q", subtype)
				} else {
					v.addf("no candidate for subtype %q with %s", subtype, describe(aux, combo))
				}
			}
		}
	}
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
