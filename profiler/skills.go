package profiler

import "sort"

// SkillSet is the deduplicated set of matched canonical terms.
type SkillSet map[string]struct{}

// AggregateSkills unions matches from any number of matchers.
func AggregateSkills(groups ...[]MatchedSkill) SkillSet {
	set := make(SkillSet)
	for _, group := range groups {
		for _, m := range group {
			if m.Term == "" {
				continue
			}
			set[m.Term] = struct{}{}
		}
	}
	return set
}

// Has reports whether term is in the set.
func (s SkillSet) Has(term string) bool {
	_, ok := s[term]
	return ok
}

// Len returns the number of distinct terms.
func (s SkillSet) Len() int {
	return len(s)
}

// Sorted returns the terms in lexical order.
func (s SkillSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for term := range s {
		out = append(out, term)
	}
	sort.Strings(out)
	return out
}
