package profiler

// SimilarityMatcher maps text units onto vocabulary terms by cosine similarity.
type SimilarityMatcher struct {
	index     *TermIndex
	threshold float64
}

// NewSimilarityMatcher binds an index and the acceptance threshold θ. A higher
// threshold trades recall for precision.
func NewSimilarityMatcher(index *TermIndex, threshold float64) *SimilarityMatcher {
	return &SimilarityMatcher{index: index, threshold: threshold}
}

// Threshold returns θ.
func (m *SimilarityMatcher) Threshold() float64 {
	return m.threshold
}

// Match records, for each eligible unit, the first term in vocabulary order
// whose similarity reaches θ. Stopwords, punctuation and units without a
// vector are skipped.
func (m *SimilarityMatcher) Match(units []TextUnit) []MatchedSkill {
	if m.index.Size() == 0 {
		return nil
	}
	var out []MatchedSkill
	for _, u := range units {
		if !eligible(u) {
			continue
		}
		hit, ok := m.index.FirstAbove(u.Vector, m.threshold)
		if !ok {
			continue
		}
		out = append(out, semanticMatch(u, hit))
	}
	return out
}

// Evidence returns every unit×term comparison reaching threshold. It feeds
// the weighted scoring policy.
func (m *SimilarityMatcher) Evidence(units []TextUnit, threshold float64) []MatchedSkill {
	var out []MatchedSkill
	for _, u := range units {
		if !eligible(u) {
			continue
		}
		for _, hit := range m.index.Above(u.Vector, threshold) {
			out = append(out, semanticMatch(u, hit))
		}
	}
	return out
}

func eligible(u TextUnit) bool {
	return !u.IsStop && !u.IsPunct && u.HasVector()
}

func semanticMatch(u TextUnit, hit Hit) MatchedSkill {
	return MatchedSkill{
		Term:   hit.Term,
		Method: MethodSemantic,
		Score:  hit.Score,
		Start:  u.Start,
		End:    u.End,
	}
}
