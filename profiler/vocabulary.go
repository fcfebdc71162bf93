package profiler

// Category is a named group of canonical skill terms.
type Category struct {
	Name  string   `json:"name" yaml:"name" mapstructure:"name"`
	Terms []string `json:"terms" yaml:"terms" mapstructure:"terms"`
}

// Vocabulary is the read-only skill knowledge base: categories in definition
// order plus the flat, deduplicated list of all terms.
type Vocabulary struct {
	categories []Category
	index      map[string]int
	terms      []string
	owners     map[string][]string
}

// NewVocabulary normalizes and freezes the given categories. Categories with
// an empty name are skipped; a repeated name keeps its first position and
// takes the later term list.
func NewVocabulary(categories []Category) *Vocabulary {
	v := &Vocabulary{
		index:  make(map[string]int, len(categories)),
		owners: make(map[string][]string),
	}
	for _, c := range categories {
		name := NormalizeText(c.Name)
		if name == "" {
			continue
		}
		terms := uniqueTerms(c.Terms)
		if i, ok := v.index[name]; ok {
			v.categories[i].Terms = terms
			continue
		}
		v.index[name] = len(v.categories)
		v.categories = append(v.categories, Category{Name: name, Terms: terms})
	}
	seen := make(map[string]struct{})
	for _, c := range v.categories {
		for _, t := range c.Terms {
			v.owners[t] = append(v.owners[t], c.Name)
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			v.terms = append(v.terms, t)
		}
	}
	return v
}

// Categories returns a copy of the categories in definition order.
func (v *Vocabulary) Categories() []Category {
	out := make([]Category, len(v.categories))
	for i, c := range v.categories {
		out[i] = Category{Name: c.Name, Terms: cloneStrings(c.Terms)}
	}
	return out
}

// Names returns the category names in definition order.
func (v *Vocabulary) Names() []string {
	out := make([]string, len(v.categories))
	for i, c := range v.categories {
		out[i] = c.Name
	}
	return out
}

// Terms returns the flat deduplicated term list across all categories.
func (v *Vocabulary) Terms() []string {
	return cloneStrings(v.terms)
}

// CategoryTerms returns the terms of one category and whether it exists.
func (v *Vocabulary) CategoryTerms(name string) ([]string, bool) {
	i, ok := v.index[NormalizeText(name)]
	if !ok {
		return nil, false
	}
	return cloneStrings(v.categories[i].Terms), true
}

// CategoriesOf returns the categories a term belongs to.
func (v *Vocabulary) CategoriesOf(term string) []string {
	return cloneStrings(v.owners[NormalizeTerm(term)])
}

// Len returns the number of categories.
func (v *Vocabulary) Len() int {
	return len(v.categories)
}

// DefaultCategories returns the built-in skill table.
func DefaultCategories() []Category {
	return []Category{
		{Name: "Backend", Terms: []string{
			"linguagem de programação",
			"desenvolvimento backend",
			"api",
			"banco de dados",
			"servidor",
			"backend",
			"python",
			"java",
			"sql",
			"node.js",
			"php",
			"c#",
			"golang",
			"microsserviços",
			"rest",
			"spring",
		}},
		{Name: "Frontend", Terms: []string{
			"desenvolvimento frontend",
			"interface do usuário",
			"web",
			"html",
			"css",
			"javascript",
			"frontend",
			"react",
			"angular",
			"vue",
			"typescript",
			"desenvolvimento web",
		}},
		{Name: "Data", Terms: []string{
			"análise de dados",
			"estatística",
			"machine learning",
			"inteligência artificial",
			"ciência de dados",
			"deep learning",
			"big data",
			"pandas",
			"numpy",
			"power bi",
		}},
		{Name: "DevOps", Terms: []string{
			"computação em nuvem",
			"containerização",
			"infraestrutura",
			"automação",
			"docker",
			"kubernetes",
			"aws",
			"azure",
			"ci/cd",
			"terraform",
			"linux",
		}},
		{Name: "Design/Engenharia", Terms: []string{
			"engenharia",
			"design",
			"modelagem",
			"software de engenharia",
			"autocad",
			"solidworks",
			"figma",
			"ux",
		}},
	}
}

// DefaultVocabulary builds the vocabulary from DefaultCategories.
func DefaultVocabulary() *Vocabulary {
	return NewVocabulary(DefaultCategories())
}

func cloneStrings(values []string) []string {
	if values == nil {
		return nil
	}
	out := make([]string, len(values))
	copy(out, values)
	return out
}
