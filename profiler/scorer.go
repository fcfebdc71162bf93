package profiler

// Scorer turns a skill set into per-category confidences and picks the best profile.
type Scorer struct {
	vocab *Vocabulary
	cfg   ScoringConfig
}

// NewScorer binds a vocabulary and scoring settings. Zero thresholds are
// taken literally; call Config.ApplyDefaults first for the usual values.
func NewScorer(vocab *Vocabulary, cfg ScoringConfig) *Scorer {
	if vocab == nil {
		vocab = NewVocabulary(nil)
	}
	if cfg.Policy == "" {
		cfg.Policy = PolicyCoverage
	}
	return &Scorer{vocab: vocab, cfg: cfg}
}

// Policy returns the active scoring policy.
func (s *Scorer) Policy() ScoringPolicy {
	return s.cfg.Policy
}

// Score computes the profile. The coverage policy reads skills only; the
// weighted policy reads evidence, which must list exact matches first, then
// chunk comparisons, then token comparisons.
func (s *Scorer) Score(skills SkillSet, evidence []MatchedSkill) ProfileResult {
	var scores []CategoryScore
	switch s.cfg.Policy {
	case PolicyWeighted:
		scores = s.weighted(evidence)
	default:
		scores = s.coverage(skills)
	}
	for i := range scores {
		scores[i].Active = scores[i].Confidence >= s.cfg.ActivationThreshold
	}
	scores = s.applyComposites(scores)
	return buildProfile(scores)
}

func (s *Scorer) coverage(skills SkillSet) []CategoryScore {
	out := make([]CategoryScore, 0, s.vocab.Len())
	for _, c := range s.vocab.categories {
		score := CategoryScore{Name: c.Name}
		if len(c.Terms) > 0 {
			hits := 0
			for _, term := range c.Terms {
				if skills.Has(term) {
					hits++
				}
			}
			score.Raw = float64(hits)
			score.Confidence = score.Raw / float64(len(c.Terms))
		}
		out = append(out, score)
	}
	return out
}

func (s *Scorer) weighted(evidence []MatchedSkill) []CategoryScore {
	kept := dedupEvidence(evidence)
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, e := range kept {
		for _, cat := range s.vocab.owners[e.Term] {
			sums[cat] += e.Score
			counts[cat]++
		}
	}
	out := make([]CategoryScore, 0, s.vocab.Len())
	for _, c := range s.vocab.categories {
		score := CategoryScore{Name: c.Name, Raw: sums[c.Name]}
		if n := counts[c.Name]; n > 0 {
			score.Confidence = clamp01(score.Raw / float64(n))
		}
		out = append(out, score)
	}
	return out
}

type claim struct {
	start, end int
}

// dedupEvidence keeps the first piece of evidence for each term and token
// span; later evidence for the same term overlapping a claimed span is dropped.
func dedupEvidence(evidence []MatchedSkill) []MatchedSkill {
	claims := make(map[string][]claim)
	out := make([]MatchedSkill, 0, len(evidence))
	for _, e := range evidence {
		overlap := false
		for _, c := range claims[e.Term] {
			if e.Start < c.end && c.start < e.End {
				overlap = true
				break
			}
		}
		if overlap {
			continue
		}
		claims[e.Term] = append(claims[e.Term], claim{e.Start, e.End})
		out = append(out, e)
	}
	return out
}

// applyComposites appends a composite category for every rule whose required
// categories are all active. A composite replaces a base category of the same name.
func (s *Scorer) applyComposites(scores []CategoryScore) []CategoryScore {
	if len(s.cfg.Composites) == 0 {
		return scores
	}
	byName := make(map[string]CategoryScore, len(scores))
	for _, sc := range scores {
		byName[sc.Name] = sc
	}
	var composites []CategoryScore
	for _, rule := range s.cfg.Composites {
		if rule.Name == "" || len(rule.Requires) == 0 {
			continue
		}
		sum := 0.0
		ok := true
		for _, req := range rule.Requires {
			sc, found := byName[req]
			if !found || !sc.Active {
				ok = false
				break
			}
			sum += sc.Confidence
		}
		if !ok {
			continue
		}
		mean := sum / float64(len(rule.Requires))
		composites = append(composites, CategoryScore{
			Name:       rule.Name,
			Raw:        mean,
			Confidence: mean,
			Active:     true,
			Composite:  true,
		})
	}
	if len(composites) == 0 {
		return scores
	}
	replaced := make(map[string]struct{}, len(composites))
	for _, c := range composites {
		replaced[c.Name] = struct{}{}
	}
	out := make([]CategoryScore, 0, len(scores)+len(composites))
	for _, sc := range scores {
		if _, ok := replaced[sc.Name]; ok {
			continue
		}
		out = append(out, sc)
	}
	return append(out, composites...)
}

func buildProfile(scores []CategoryScore) ProfileResult {
	res := ProfileResult{
		Best:        UndefinedProfile,
		Active:      []string{},
		Scores:      scores,
		Confidences: make(map[string]float64, len(scores)),
	}
	best := -1
	for i, sc := range scores {
		res.Confidences[sc.Name] = sc.Confidence
		if sc.Active {
			res.Active = append(res.Active, sc.Name)
		}
		if best < 0 || sc.Confidence > scores[best].Confidence {
			best = i
		}
	}
	if best >= 0 && scores[best].Confidence > 0 {
		res.Best = scores[best].Name
		res.Confidence = scores[best].Confidence
	}
	return res
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
