package sections

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/custodia-labs/sercha-retrieval/internal/core/domain"
)

// Rule maps a header pattern to a canonical section name. Pattern is a
// regular expression matched against the whole normalized header: lower
// case, numbering and surrounding punctuation removed, single spaces.
type Rule struct {
	Pattern   string
	Canonical string
}

// DefaultRules is the vocabulary of academic section names.
var DefaultRules = []Rule{
	{`abstract`, "abstract"},
	{`introduction|background`, "introduction"},
	{`related work|literature review|prior work`, "related work"},
	{`materials? and methods|research methodology|research methods|methodology|methods?|experimental setup|approach`, "methodology"},
	{`results and discussion|results?|findings|analysis|outcomes|experiments|evaluation`, "results"},
	{`discussion`, "discussion"},
	{`discussion and conclusions?|conclusions? and future work|conclusions?|concluding remarks|summary|future work`, "conclusions"},
	{`references|bibliography|acknowledge?ments?`, "references"},
}

type compiledRule struct {
	re        *regexp.Regexp
	pattern   string
	canonical string
}

// Vocabulary is an immutable, ordered header table. Earlier rules win.
type Vocabulary struct {
	rules []compiledRule
	fused *regexp.Regexp
}

var (
	numberingPattern = regexp.MustCompile(`(?i)^(?:\d+(?:\.\d+)*[.)]?|[ivxlcdm]+[.)]|[a-h][.)])\s*`)
	spacePattern     = regexp.MustCompile(`\s+`)
)

const headerPunctuation = " \t.:;,-–—*#_()[]"

// NewVocabulary compiles a rule table.
func NewVocabulary(rules []Rule) (*Vocabulary, error) {
	if len(rules) == 0 {
		return nil, fmt.Errorf("%w: empty section vocabulary", domain.ErrInvalidConfig)
	}

	v := &Vocabulary{rules: make([]compiledRule, 0, len(rules))}
	alternatives := make([]string, 0, len(rules))
	for _, r := range rules {
		if r.Canonical == "" {
			return nil, fmt.Errorf("%w: rule %q has no canonical name", domain.ErrInvalidConfig, r.Pattern)
		}
		re, err := regexp.Compile(`^(?:` + r.Pattern + `)$`)
		if err != nil {
			return nil, fmt.Errorf("%w: rule %q: %v", domain.ErrInvalidConfig, r.Pattern, err)
		}
		v.rules = append(v.rules, compiledRule{re: re, pattern: r.Pattern, canonical: r.Canonical})
		alternatives = append(alternatives, `(?:`+spacePattern.ReplaceAllString(r.Pattern, `\s+`)+`)`)
	}

	fused, err := regexp.Compile(`(?i)^\s*(?:(?:\d+(?:\.\d+)*[.)]?|[ivxlcdm]+[.)]|[a-h][.)])\s*)?(` +
		strings.Join(alternatives, "|") + `)(?:\s*:|\s*[–—]|\s+-)\s*\S`)
	if err != nil {
		return nil, fmt.Errorf("%w: fused header pattern: %v", domain.ErrInvalidConfig, err)
	}
	v.fused = fused
	return v, nil
}

// DefaultVocabulary returns the vocabulary built from DefaultRules.
func DefaultVocabulary() *Vocabulary {
	v, err := NewVocabulary(DefaultRules)
	if err != nil {
		panic(err)
	}
	return v
}

// With returns a new vocabulary whose extra rules take precedence over the existing ones.
func (v *Vocabulary) With(rules ...Rule) (*Vocabulary, error) {
	all := make([]Rule, 0, len(rules)+len(v.rules))
	all = append(all, rules...)
	for _, r := range v.rules {
		all = append(all, Rule{Pattern: r.pattern, Canonical: r.canonical})
	}
	return NewVocabulary(all)
}

// Canonicals lists the distinct canonical names in rule order.
func (v *Vocabulary) Canonicals() []string {
	seen := make(map[string]bool)
	var names []string
	for _, r := range v.rules {
		if !seen[r.canonical] {
			seen[r.canonical] = true
			names = append(names, r.canonical)
		}
	}
	return names
}

// Match reports the canonical name of a standalone header line.
func (v *Vocabulary) Match(line string) (string, bool) {
	h := Normalize(line)
	if h == "" {
		return "", false
	}
	for _, r := range v.rules {
		if r.re.MatchString(h) {
			return r.canonical, true
		}
	}
	return "", false
}

// MatchFused reports the canonical name of a header fused with its first
// sentence, such as "Abstract: Blockchain is ...".
func (v *Vocabulary) MatchFused(line string) (string, bool) {
	m := v.fused.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	return v.Match(m[1])
}

// Normalize lower-cases a candidate header and strips numbering and punctuation.
func Normalize(line string) string {
	h := strings.TrimSpace(line)
	h = numberingPattern.ReplaceAllString(h, "")
	h = strings.Trim(h, headerPunctuation)
	h = strings.ReplaceAll(h, "&", " and ")
	h = spacePattern.ReplaceAllString(h, " ")
	return strings.ToLower(strings.TrimSpace(h))
}
