package services

import (
	"sort"
	"strings"

	"github.com/custodia-labs/pitwall/internal/core/domain"
	"github.com/custodia-labs/pitwall/internal/logger"
)

// confidenceCap bounds cue-derived confidence so lexical matching never
// claims certainty. Only the GENERAL fallback carries 1.0.
const confidenceCap = 0.95

// stackBonus is added per extra distinct cue beyond the strongest match.
const stackBonus = 0.1

// extraCueWeight is the weight given to operator-supplied cue terms.
const extraCueWeight = 0.7

// cue is a weighted lexical signal for one intent label.
// Terms containing a space are matched as phrases, others as whole words.
type cue struct {
	term   string
	weight float64
}

// rulesCues signal questions answerable from the ruleset corpus.
var rulesCues = []cue{
	{term: "rulebook", weight: 0.9},
	{term: "regulation", weight: 0.85},
	{term: "rule", weight: 0.8},
	{term: "legal", weight: 0.8},
	{term: "illegal", weight: 0.8},
	{term: "allowed", weight: 0.75},
	{term: "permitted", weight: 0.75},
	{term: "banned", weight: 0.75},
	{term: "compliant", weight: 0.75},
	{term: "compliance", weight: 0.75},
	{term: "requirement", weight: 0.7},
	{term: "required", weight: 0.7},
	{term: "tread", weight: 0.7},
	{term: "penalty", weight: 0.7},
	{term: "tech inspection", weight: 0.8},
	{term: "homologated", weight: 0.75},
	{term: "minimum", weight: 0.6},
	{term: "maximum", weight: 0.6},
	{term: "spec", weight: 0.6},
	{term: "depth", weight: 0.6},
	{term: "weight limit", weight: 0.75},
}

// dynamicCues signal questions about operational data that changes over
// time: pricing, schedules, availability.
var dynamicCues = []cue{
	{term: "price", weight: 0.85},
	{term: "cost", weight: 0.75},
	{term: "how much", weight: 0.75},
	{term: "schedule", weight: 0.85},
	{term: "race", weight: 0.65},
	{term: "event", weight: 0.65},
	{term: "upcoming", weight: 0.75},
	{term: "next", weight: 0.6},
	{term: "when is", weight: 0.7},
	{term: "date", weight: 0.65},
	{term: "part", weight: 0.65},
	{term: "in stock", weight: 0.75},
	{term: "availability", weight: 0.8},
	{term: "available", weight: 0.65},
	{term: "right now", weight: 0.7},
	{term: "currently", weight: 0.65},
	{term: "today", weight: 0.65},
}

// sharedCues lean toward build/setup questions that usually need rules
// and pricing together. They feed both specific labels.
var sharedCues = []cue{
	{term: "build", weight: 0.55},
	{term: "setup", weight: 0.55},
	{term: "recommend", weight: 0.55},
	{term: "kit", weight: 0.55},
	{term: "upgrade", weight: 0.55},
	{term: "car", weight: 0.5},
}

// ClassifierConfig configures intent classification.
type ClassifierConfig struct {
	// InclusionThreshold is the minimum confidence for a label to be
	// included. Defaults to domain.DefaultInclusionThreshold.
	InclusionThreshold float64

	// ContinuityBoost is added when the prior turn carried the same
	// label. Defaults to domain.DefaultContinuityBoost.
	ContinuityBoost float64

	// ExtraRulesCues extends the rules vocabulary from configuration.
	ExtraRulesCues []string

	// ExtraDynamicCues extends the dynamic-data vocabulary from
	// configuration.
	ExtraDynamicCues []string
}

// ClassifierService assigns intent labels to incoming queries.
// Classification is a pure function of the query text plus the prior
// turn's labels; it performs no I/O.
type ClassifierService struct {
	threshold float64
	boost     float64
	rules     []cue
	dynamic   []cue
}

// NewClassifierService creates a new classifier.
func NewClassifierService(cfg ClassifierConfig) *ClassifierService {
	threshold := cfg.InclusionThreshold
	if threshold <= 0 || threshold > 1 {
		threshold = domain.DefaultInclusionThreshold
	}
	boost := cfg.ContinuityBoost
	if boost < 0 || boost > 1 {
		boost = domain.DefaultContinuityBoost
	}

	rules := make([]cue, 0, len(rulesCues)+len(sharedCues)+len(cfg.ExtraRulesCues))
	rules = append(rules, rulesCues...)
	rules = append(rules, sharedCues...)
	for _, term := range cfg.ExtraRulesCues {
		if term = normalise(term); term != "" {
			rules = append(rules, cue{term: term, weight: extraCueWeight})
		}
	}

	dynamic := make([]cue, 0, len(dynamicCues)+len(sharedCues)+len(cfg.ExtraDynamicCues))
	dynamic = append(dynamic, dynamicCues...)
	dynamic = append(dynamic, sharedCues...)
	for _, term := range cfg.ExtraDynamicCues {
		if term = normalise(term); term != "" {
			dynamic = append(dynamic, cue{term: term, weight: extraCueWeight})
		}
	}

	return &ClassifierService{
		threshold: threshold,
		boost:     boost,
		rules:     rules,
		dynamic:   dynamic,
	}
}

// Threshold returns the inclusion threshold in effect.
func (c *ClassifierService) Threshold() float64 {
	return c.threshold
}

// Classify assigns intent labels to a query. The prior labels come from
// the session's most recent user turn and bias follow-up questions toward
// the same topic.
//
// The result is never empty: when no label clears the inclusion threshold
// the verdict is IntentGeneral with confidence 1.0. IntentHybrid is
// present exactly when both specific labels qualify.
func (c *ClassifierService) Classify(query string, prior []domain.IntentLabel) domain.Classification {
	logger.Section("Intent Classification")

	text, tokens := tokenise(query)
	logger.Debug("Query: %q (%d tokens)", query, len(tokens))

	rulesConf := c.score(text, tokens, c.rules)
	dynamicConf := c.score(text, tokens, c.dynamic)

	// Topic continuity: lean toward the prior turn's labels, but only
	// when the query carries some signal of its own.
	for _, label := range prior {
		switch label {
		case domain.IntentRules, domain.IntentHybrid:
			if rulesConf > 0 {
				rulesConf = clamp(rulesConf + c.boost)
			}
		}
		switch label {
		case domain.IntentDynamicData, domain.IntentHybrid:
			if dynamicConf > 0 {
				dynamicConf = clamp(dynamicConf + c.boost)
			}
		}
	}

	logger.Debug("Scores: rules=%.2f dynamic=%.2f threshold=%.2f",
		rulesConf, dynamicConf, c.threshold)

	var intents []domain.ScoredIntent
	if rulesConf >= c.threshold {
		intents = append(intents, domain.ScoredIntent{
			Label:      domain.IntentRules,
			Confidence: rulesConf,
		})
	}
	if dynamicConf >= c.threshold {
		intents = append(intents, domain.ScoredIntent{
			Label:      domain.IntentDynamicData,
			Confidence: dynamicConf,
		})
	}

	// HYBRID is derived, never scored directly: present exactly when
	// both specific labels qualified.
	if len(intents) == 2 {
		hybridConf := rulesConf
		if dynamicConf < hybridConf {
			hybridConf = dynamicConf
		}
		intents = append(intents, domain.ScoredIntent{
			Label:      domain.IntentHybrid,
			Confidence: hybridConf,
		})
	}

	if len(intents) == 0 {
		logger.Info("No label cleared the threshold, falling back to GENERAL")
		return domain.Classification{
			Intents: []domain.ScoredIntent{
				{Label: domain.IntentGeneral, Confidence: 1.0},
			},
		}
	}

	// Highest confidence first. Equal confidences keep rules ahead of
	// dynamic data and derived HYBRID last.
	sort.SliceStable(intents, func(i, j int) bool {
		return intents[i].Confidence > intents[j].Confidence
	})

	classification := domain.Classification{Intents: intents}
	logger.Info("Classified as %v", classification.Labels())
	return classification
}

// score computes the confidence for one label's cue list: the strongest
// matching cue plus a small bonus per extra distinct match, capped.
func (c *ClassifierService) score(text string, tokens map[string]bool, cues []cue) float64 {
	var best float64
	matches := 0

	for _, cu := range cues {
		if !matchCue(text, tokens, cu.term) {
			continue
		}
		matches++
		if cu.weight > best {
			best = cu.weight
		}
	}

	if matches == 0 {
		return 0
	}
	return clamp(best + stackBonus*float64(matches-1))
}

// matchCue matches phrase cues against the normalised text and word cues
// against the token set. Word cues tolerate a trailing plural s.
func matchCue(text string, tokens map[string]bool, term string) bool {
	if strings.Contains(term, " ") {
		return strings.Contains(" "+text+" ", " "+term+" ")
	}
	return tokens[term] || tokens[term+"s"]
}

// tokenise lowercases the query, strips punctuation, and returns the
// normalised text plus its token set.
func tokenise(query string) (string, map[string]bool) {
	text := normalise(query)
	tokens := make(map[string]bool)
	for _, tok := range strings.Fields(text) {
		tokens[tok] = true
	}
	return text, tokens
}

// normalise lowercases and replaces punctuation with spaces.
func normalise(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// clamp bounds a confidence to the cue-derived ceiling.
func clamp(v float64) float64 {
	if v > confidenceCap {
		return confidenceCap
	}
	if v < 0 {
		return 0
	}
	return v
}
