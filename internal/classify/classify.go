// Package classify decides whether a complaint's inspection outcome
// confirms noise and extracts the noise sources it mentions.
package classify

import (
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/gradient-spp/noisemap/internal/model"
)

// Rule maps a phrase found in an inspection result to a verdict.
type Rule struct {
	Phrase string
	Noisy  bool
}

// DefaultRules is evaluated in order and the first matching phrase wins.
// "превышения не выявлены" sits after "не выявлены" and is therefore
// shadowed; the order is kept as the published precedence.
var DefaultRules = []Rule{
	{Phrase: "превышения нормативов", Noisy: true},
	{Phrase: "выявлены превышения", Noisy: true},
	{Phrase: "не выявлены", Noisy: false},
	{Phrase: "превышения не выявлены", Noisy: false},
	{Phrase: "не производились", Noisy: false},
}

// DefaultSourceTerms is the closed vocabulary of noise sources looked for
// in inspection results.
var DefaultSourceTerms = []string{
	"автотранспорт",
	"строительные работы",
	"вентиляционные системы",
	"генераторная установка",
	"промышленное предприятие",
	"железнодорожный транспорт",
	"дорожно-ремонтные работы",
	"погрузочно-разгрузочные работы",
	"летнее кафе",
	"автомойка",
	"музыка",
	"кафе",
	"ресторан",
	"клуб",
}

// emptyCategories are placeholder values exports use for "no category".
var emptyCategories = []string{"none", "null"}

// Verdict is the classification of one complaint. Err is set when the
// record could not be classified; Noisy is then false and Sources empty.
type Verdict struct {
	Noisy   bool
	Sources []string
	Err     error
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithRules replaces the verdict rules. Order is precedence.
func WithRules(rules []Rule) Option {
	return func(c *Classifier) {
		c.rules = rules
	}
}

// WithSourceTerms replaces the source vocabulary.
func WithSourceTerms(terms []string) Option {
	return func(c *Classifier) {
		c.terms = terms
	}
}

// Classifier applies ordered phrase rules and a source vocabulary.
type Classifier struct {
	rules []Rule
	terms []string
}

// New creates a Classifier using DefaultRules and DefaultSourceTerms unless
// overridden.
func New(opts ...Option) *Classifier {
	c := &Classifier{
		rules: DefaultRules,
		terms: DefaultSourceTerms,
	}
	for _, opt := range opts {
		opt(c)
	}

	rules := make([]Rule, len(c.rules))
	for i, r := range c.rules {
		rules[i] = Rule{Phrase: fold(r.Phrase), Noisy: r.Noisy}
	}
	c.rules = rules

	terms := make([]string, len(c.terms))
	for i, term := range c.terms {
		terms[i] = fold(term)
	}
	c.terms = terms

	return c
}

// Match returns the first rule whose phrase occurs in text.
func (c *Classifier) Match(text string) (Rule, bool) {
	if strings.TrimSpace(text) == "" {
		return Rule{}, false
	}
	lower := fold(text)
	for _, r := range c.rules {
		if strings.Contains(lower, r.Phrase) {
			return r, true
		}
	}
	return Rule{}, false
}

// IsNoisy returns the verdict of the first matching rule. Text that is
// empty or matches nothing counts as confirmed noise.
func (c *Classifier) IsNoisy(text string) bool {
	r, ok := c.Match(text)
	if !ok {
		return true
	}
	return r.Noisy
}

// Sources returns the cleaned category plus every vocabulary term found in
// results, deduplicated and sorted.
func (c *Classifier) Sources(category, results string) []string {
	seen := make(map[string]struct{})

	if cat := cleanCategory(category); cat != "" {
		seen[cat] = struct{}{}
	}

	if strings.TrimSpace(results) != "" {
		lower := fold(results)
		for _, term := range c.terms {
			if strings.Contains(lower, term) {
				seen[term] = struct{}{}
			}
		}
	}

	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Classify produces the verdict for one record. It never panics: a failure
// while classifying degrades to an empty verdict carrying Err.
func (c *Classifier) Classify(rec model.ComplaintRecord) (v Verdict) {
	defer func() {
		if r := recover(); r != nil {
			v = Verdict{Err: eris.Errorf("classify: record %q: %v", rec.ID, r)}
		}
	}()

	return Verdict{
		Noisy:   c.IsNoisy(rec.Results),
		Sources: c.Sources(rec.NoiseCategory, rec.Results),
	}
}

func cleanCategory(category string) string {
	clean := strings.NewReplacer("[", "", "]", "").Replace(category)
	clean = strings.TrimSpace(clean)
	if clean == "" {
		return ""
	}
	for _, placeholder := range emptyCategories {
		if strings.EqualFold(clean, placeholder) {
			return ""
		}
	}
	return clean
}

// fold lower-cases with Russian casing rules.
func fold(s string) string {
	return cases.Lower(language.Russian).String(s)
}
