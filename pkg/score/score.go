// Package score holds the pure scoring functions used to rank commands,
// aliases and pipelines against a query. Nothing in here keeps state.
package score

import (
	"strings"

	"github.com/bastiangx/palette/internal/utils"
)

// Fuzzy score ladder.
const (
	Exact     = 100
	Substring = 80

	subsequenceBase = 10
)

// Weighted field ladder, multiplied by the field weight.
const (
	fieldExact        = 100
	fieldPrefix       = 70
	fieldSubstring    = 50
	fieldAllTerms     = 40
	fieldPerTermMatch = 15
)

// Command ladder.
const (
	CommandExactID   = 100
	CommandExactName = 90

	idPrefix         = 70
	idSubstring      = 50
	namePrefix       = 60
	nameSubstring    = 40
	firstWordBonus   = 20
	perWordField     = 10
	keywordExact     = 50
	keywordSubstring = 25

	// MaxPartial caps additive command scores so that 100 stays reserved
	// for exact ids and direct references.
	MaxPartial = 99
)

// Alias ladder.
const (
	AliasExact       = 95
	AliasPrefix      = 85
	AliasSubstring   = 75
	AliasDescription = 65
)

// FuzzyScore rates how well query matches text.
//
// Exact (case-insensitive) equality scores 100, a substring hit 80. Anything
// else is a greedy left-to-right subsequence scan where every matched rune
// earns 10 plus the current consecutive run length; the run resets on each
// skipped rune. A subsequence that does not consume the whole query scores 0.
func FuzzyScore(text, query string) int {
	lt := strings.ToLower(text)
	lq := strings.ToLower(query)

	if lt == lq {
		return Exact
	}
	if strings.Contains(lt, lq) {
		return Substring
	}

	q := []rune(lq)
	qi := 0
	run := 0
	total := 0
	for _, r := range lt {
		if qi >= len(q) {
			break
		}
		if utils.EqualFold(r, q[qi]) {
			total += subsequenceBase + run
			run++
			qi++
			continue
		}
		run = 0
	}
	if qi < len(q) {
		return 0
	}
	return total
}

// Field pairs an accessor with its weight for WeightedFieldScore.
type Field[T any] struct {
	Name   string
	Get    func(T) string
	Weight float64
}

// WeightedFieldScore sums the per-field match quality of query across fields.
// Every field is scored on its own ladder (exact, prefix, substring, term
// coverage, fuzzy) and the contributions add up, so a candidate hitting two
// fields weakly can beat one that hits a single field well.
func WeightedFieldScore[T any](item T, query string, fields []Field[T]) float64 {
	lq := strings.ToLower(strings.TrimSpace(query))
	if lq == "" {
		return 0
	}
	terms := utils.Words(lq)

	var total float64
	for _, f := range fields {
		text := f.Get(item)
		if text == "" {
			continue
		}
		total += fieldScore(strings.ToLower(text), lq, terms) * f.Weight
	}
	return total
}

func fieldScore(text, query string, terms []string) float64 {
	switch {
	case text == query:
		return fieldExact
	case strings.HasPrefix(text, query):
		return fieldPrefix
	case strings.Contains(text, query):
		return fieldSubstring
	}

	if len(terms) > 1 {
		matched := 0
		for _, t := range terms {
			if strings.Contains(text, t) {
				matched++
			}
		}
		if matched == len(terms) {
			return fieldAllTerms
		}
		if matched > 0 {
			return float64(fieldPerTermMatch * matched)
		}
	}

	return float64(FuzzyScore(text, query))
}

// Candidate is the searchable view of a command.
type Candidate struct {
	ID          string
	Name        string
	Description string
	Keywords    []string
}

// CommandMatchScore rates a command against query.
//
// An exact id scores 100 and an exact name 90; both return immediately.
// Otherwise bonuses for id/name prefix or substring hits, a first-word
// bonus, per-word field coverage and keyword hits are added up and capped
// at MaxPartial. When none of those fire, a quarter of the name's fuzzy
// score is used so subsequence typing still surfaces the command.
func CommandMatchScore(c Candidate, query string) int {
	lq := strings.ToLower(strings.TrimSpace(query))
	if lq == "" {
		return 0
	}
	id := strings.ToLower(c.ID)
	name := strings.ToLower(c.Name)

	if id == lq {
		return CommandExactID
	}
	if name == lq {
		return CommandExactName
	}

	total := 0
	switch {
	case strings.HasPrefix(id, lq):
		total += idPrefix
	case strings.Contains(id, lq):
		total += idSubstring
	}
	switch {
	case strings.HasPrefix(name, lq):
		total += namePrefix
	case strings.Contains(name, lq):
		total += nameSubstring
	}

	if fw := utils.FirstWord(name); fw != "" && strings.HasPrefix(fw, lq) {
		total += firstWordBonus
	}

	desc := strings.ToLower(c.Description)
	keywords := make([]string, len(c.Keywords))
	for i, k := range c.Keywords {
		keywords[i] = strings.ToLower(k)
	}

	for _, w := range utils.Words(lq) {
		if strings.Contains(id, w) {
			total += perWordField
		}
		if strings.Contains(name, w) {
			total += perWordField
		}
		if desc != "" && strings.Contains(desc, w) {
			total += perWordField
		}
		for _, k := range keywords {
			if strings.Contains(k, w) {
				total += perWordField
				break
			}
		}
	}

	best := 0
	for _, k := range keywords {
		if k == lq {
			best = keywordExact
			break
		}
		if strings.Contains(k, lq) {
			best = keywordSubstring
		}
	}
	total += best

	if total == 0 {
		total = FuzzyScore(name, lq) / 4
	}
	if total > MaxPartial {
		total = MaxPartial
	}
	return total
}

// AliasScore rates an alias name (and optional description) against query.
func AliasScore(name, description, query string) int {
	lq := strings.ToLower(strings.TrimSpace(query))
	if lq == "" {
		return 0
	}
	ln := strings.ToLower(name)

	switch {
	case ln == lq:
		return AliasExact
	case strings.HasPrefix(ln, lq):
		return AliasPrefix
	case strings.Contains(ln, lq):
		return AliasSubstring
	case description != "" && utils.StringContainsIgnoreCase(description, lq):
		return AliasDescription
	}
	return 0
}
