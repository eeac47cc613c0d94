// Package question turns free-form question text into an intent plus
// structured entity slots.
//
// Classification is rule-ordered pattern matching over the normalized
// question, not a statistical model. Rules live in an ordered table so each
// one is independently testable; the table order encodes the ambiguity
// policy: compare > top-n > trend > lookup-extreme > list-entities.
package question

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/jinzhu/inflection"
	"go.uber.org/zap"

	"github.com/samarth-labs/samarth-engine/pkg/dataset"
	"github.com/samarth-labs/samarth-engine/pkg/models"
)

var (
	compareRe   = regexp.MustCompile(`\b(compare|contrast|versus|vs|difference between)\b`)
	topNRe      = regexp.MustCompile(`\b(?:top|highest)\s+(\d+)\b`)
	topWordRe   = regexp.MustCompile(`\btop\b`)
	trendRe     = regexp.MustCompile(`\b(trend|over time|over the last|last decade|past decade|growth|change)\b`)
	extremeRe   = regexp.MustCompile(`\b(highest|most|largest|maximum|max|lowest|least|smallest|minimum|min)\b`)
	minimumRe   = regexp.MustCompile(`\b(lowest|least|smallest|minimum|min)\b`)
	listRe      = regexp.MustCompile(`\b(?:list|which|what)\b`)
	yearRe      = regexp.MustCompile(`\b(?:19|20)\d{2}\b`)
	yearRangeRe = regexp.MustCompile(`\b((?:19|20)\d{2})\s*(?:-|–|to|and|through)\s*((?:19|20)\d{2})\b`)
	lastNRe     = regexp.MustCompile(`\blast\s+(\d+)\s+years?\b`)
	recentRe    = regexp.MustCompile(`\b(?:recent|last few)\s+years\b`)
	decadeRe    = regexp.MustCompile(`\b((?:19|20)\d)0s\b`)
	punctRe     = regexp.MustCompile(`[?!.,;:"']+`)
)

// topicalSubjects are non-crop subject words the planner can map to a
// dataset. Crop names come from the registry's observed vocabulary instead.
var topicalSubjects = []string{
	"temperature", "temp", "climate", "rainfall", "rain",
	"production", "yield", "crop",
}

// intentRule pairs an intent with its keyword predicate. Rules are evaluated
// in table order; the first hit wins.
type intentRule struct {
	intent models.Intent
	match  func(q string) bool
}

var intentRules = []intentRule{
	{models.IntentCompare, func(q string) bool { return compareRe.MatchString(q) }},
	{models.IntentTopN, func(q string) bool { return topNRe.MatchString(q) || topWordRe.MatchString(q) }},
	{models.IntentTrend, func(q string) bool { return trendRe.MatchString(q) }},
	{models.IntentLookupExtreme, func(q string) bool { return extremeRe.MatchString(q) }},
	{models.IntentListEntities, func(q string) bool { return listRe.MatchString(q) }},
}

// Classifier extracts intent and entity slots from question text. Entity
// extraction matches the registry's observed distinct values, so vocabulary
// grows with the loaded data rather than being hardcoded.
type Classifier struct {
	registry *dataset.Registry
	logger   *zap.Logger
}

// NewClassifier creates a Classifier. Pass nil logger to disable logging.
func NewClassifier(registry *dataset.Registry, logger *zap.Logger) *Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{registry: registry, logger: logger}
}

// Classify parses a question into an intent and its entity slots.
// An unclassifiable question yields IntentUnrecognized with empty slots;
// callers respond with a clarification prompt and never execute a plan.
func (c *Classifier) Classify(text string) (models.Intent, models.EntitySlots) {
	q := normalizeQuestion(text)
	if q == "" {
		return models.IntentUnrecognized, models.EntitySlots{}
	}

	intent := models.IntentUnrecognized
	for _, rule := range intentRules {
		if rule.match(q) {
			intent = rule.intent
			break
		}
	}

	// "list X" needs a listable role; without one the list rule is noise
	// ("which is better?") and the question stays unrecognized.
	var slots models.EntitySlots
	if intent == models.IntentListEntities {
		role, ok := c.listRole(q)
		if !ok {
			return models.IntentUnrecognized, models.EntitySlots{}
		}
		slots.ListRole = role
	}
	if intent == models.IntentUnrecognized {
		c.logger.Debug("Question did not match any intent rule", zap.String("question", q))
		return intent, models.EntitySlots{}
	}

	slots.Locations = c.matchVocabulary(q, models.RoleState, models.RoleDistrict)
	slots.Subjects = c.extractSubjects(q)
	slots.Years, slots.LastN = extractYears(q)
	slots.TopN = extractTopN(q)
	if intent == models.IntentLookupExtreme {
		slots.Extreme = models.ExtremeMax
		if minimumRe.MatchString(q) {
			slots.Extreme = models.ExtremeMin
		}
	}

	c.logger.Debug("Classified question",
		zap.String("intent", intent.String()),
		zap.Strings("locations", slots.Locations),
		zap.Strings("subjects", slots.Subjects))
	return intent, slots
}

func normalizeQuestion(text string) string {
	q := strings.ToLower(strings.TrimSpace(text))
	q = punctRe.ReplaceAllString(q, " ")
	return strings.TrimSpace(spaceCollapseRe.ReplaceAllString(q, " "))
}

var spaceCollapseRe = regexp.MustCompile(`\s+`)

// listRole resolves the role a list-entities question asks about by
// singularizing each token and checking for a role word.
func (c *Classifier) listRole(q string) (models.SemanticRole, bool) {
	for _, tok := range strings.Fields(q) {
		switch inflection.Singular(tok) {
		case "state", "region":
			return models.RoleState, true
		case "district":
			return models.RoleDistrict, true
		case "crop", "commodity":
			return models.RoleCrop, true
		}
	}
	return "", false
}

// vocabMatch is a question-order entity hit.
type vocabMatch struct {
	value string
	pos   int
}

// matchVocabulary scans the question for any observed distinct value of the
// given roles across all datasets, case-insensitively, and returns the hits
// in question order.
func (c *Classifier) matchVocabulary(q string, roles ...models.SemanticRole) []string {
	var matches []vocabMatch
	seen := make(map[string]bool)
	for _, name := range c.registry.Names() {
		for _, role := range roles {
			vals, err := c.registry.DistinctValues(name, role)
			if err != nil {
				continue
			}
			for _, val := range vals {
				needle := strings.ToLower(val)
				// Single-letter or numeric values would match almost anything.
				if len(needle) < 2 || seen[needle] {
					continue
				}
				if pos := indexWord(q, needle); pos >= 0 {
					seen[needle] = true
					matches = append(matches, vocabMatch{value: val, pos: pos})
				}
			}
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].pos < matches[j].pos })
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.value
	}
	return out
}

// extractSubjects collects crop names from the observed vocabulary plus
// topical keywords, in question order.
func (c *Classifier) extractSubjects(q string) []string {
	var matches []vocabMatch
	seen := make(map[string]bool)

	crops := c.matchVocabulary(q, models.RoleCrop)
	for _, crop := range crops {
		needle := strings.ToLower(crop)
		seen[needle] = true
		matches = append(matches, vocabMatch{value: crop, pos: indexWord(q, needle)})
	}
	for _, word := range topicalSubjects {
		if seen[word] {
			continue
		}
		if pos := indexWord(q, word); pos >= 0 {
			seen[word] = true
			matches = append(matches, vocabMatch{value: word, pos: pos})
		}
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].pos < matches[j].pos })
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.value
	}
	return out
}

// indexWord finds needle in q at a word boundary, returning -1 on no match.
func indexWord(q, needle string) int {
	for start := 0; ; {
		i := strings.Index(q[start:], needle)
		if i < 0 {
			return -1
		}
		pos := start + i
		end := pos + len(needle)
		beforeOK := pos == 0 || q[pos-1] == ' '
		afterOK := end == len(q) || q[end] == ' '
		if beforeOK && afterOK {
			return pos
		}
		start = pos + 1
	}
}

// extractYears parses explicit year expressions and relative "last N"
// phrases. Explicit forms win over relative ones when both appear.
func extractYears(q string) (models.YearRange, int) {
	if m := yearRangeRe.FindStringSubmatch(q); m != nil {
		start, _ := strconv.Atoi(m[1])
		end, _ := strconv.Atoi(m[2])
		if start > end {
			start, end = end, start
		}
		return models.YearRange{Start: start, End: end}, 0
	}
	if m := decadeRe.FindStringSubmatch(q); m != nil {
		d, _ := strconv.Atoi(m[1] + "0")
		return models.YearRange{Start: d, End: d + 9}, 0
	}
	if years := yearRe.FindAllString(q, -1); len(years) > 0 {
		lo, hi := 9999, 0
		for _, ys := range years {
			y, _ := strconv.Atoi(ys)
			if y < lo {
				lo = y
			}
			if y > hi {
				hi = y
			}
		}
		return models.YearRange{Start: lo, End: hi}, 0
	}
	if m := lastNRe.FindStringSubmatch(q); m != nil {
		n, _ := strconv.Atoi(m[1])
		return models.YearRange{}, n
	}
	if strings.Contains(q, "last decade") || strings.Contains(q, "past decade") {
		return models.YearRange{}, 10
	}
	if recentRe.MatchString(q) {
		return models.YearRange{}, models.LastNDefault
	}
	return models.YearRange{}, 0
}

// extractTopN parses "top N" / "highest N", returning 0 when unspecified so
// the planner can apply the configured default.
func extractTopN(q string) int {
	if m := topNRe.FindStringSubmatch(q); m != nil {
		n, _ := strconv.Atoi(m[1])
		return n
	}
	return 0
}
