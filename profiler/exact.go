package profiler

type trieNode struct {
	children map[string]*trieNode
	term     string
}

// ExactMatcher finds vocabulary terms occurring verbatim in a token sequence.
// Terms are tokenized with Tokenize and stored in a trie keyed by lower-cased
// token text, so multi-word terms only match contiguous spans.
type ExactMatcher struct {
	root  *trieNode
	terms int
}

// NewExactMatcher compiles the given terms.
func NewExactMatcher(terms []string) *ExactMatcher {
	m := &ExactMatcher{root: &trieNode{}}
	for _, term := range uniqueTerms(terms) {
		tokens := Tokenize(term)
		if len(tokens) == 0 {
			continue
		}
		node := m.root
		for _, tok := range tokens {
			if node.children == nil {
				node.children = make(map[string]*trieNode)
			}
			next, ok := node.children[tok.Lower]
			if !ok {
				next = &trieNode{}
				node.children[tok.Lower] = next
			}
			node = next
		}
		if node.term == "" {
			m.terms++
		}
		node.term = term
	}
	return m
}

// Len returns the number of compiled terms.
func (m *ExactMatcher) Len() int {
	return m.terms
}

// Match reports every term whose token sequence appears in tokens, one
// MatchedSkill per occurrence.
func (m *ExactMatcher) Match(tokens []TextUnit) []MatchedSkill {
	var out []MatchedSkill
	for i := range tokens {
		node := m.root
		for j := i; j < len(tokens); j++ {
			next, ok := node.children[tokens[j].Lower]
			if !ok {
				break
			}
			node = next
			if node.term != "" {
				out = append(out, MatchedSkill{
					Term:   node.term,
					Method: MethodExact,
					Score:  1,
					Start:  tokens[i].Start,
					End:    tokens[j].End,
				})
			}
		}
	}
	return out
}
