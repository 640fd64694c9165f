// Package sanitize cleans raw user input and gates what is allowed to reach
// the LLM providers: an injection deny-list rejects hostile input outright,
// and a keyword heuristic rejects queries that are clearly outside the
// software-tooling domain so they never cost a provider call.
package sanitize

import (
	"regexp"
	"strings"

	"github.com/opentoolhub/search-agent/internal/config"
)

// MaxInputLength caps the prompt contribution of user input. The bound
// exists to limit token spend, not for correctness.
const MaxInputLength = 120

var (
	scriptBlockRe = regexp.MustCompile(`(?is)<script\b.*?</script>`)
	scriptOpenRe  = regexp.MustCompile(`(?i)<script\b[^>]*>?`)
	jsSchemeRe    = regexp.MustCompile(`(?i)javascript:`)
	eventAttrRe   = regexp.MustCompile(`(?i)on\w+\s*=`)
	htmlCharRe    = regexp.MustCompile(`[<>"']`)
)

// dangerousPatterns is the deny-list of injection-shaped input. A match
// fails the whole request; no stripping, no generation.
var dangerousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)<script`),
	regexp.MustCompile(`(?i)javascript:`),
	regexp.MustCompile(`(?i)on\w+\s*=`),
	regexp.MustCompile(`(?i)eval\s*\(`),
	regexp.MustCompile(`(?i)exec\s*\(`),
	regexp.MustCompile(`(?i)system\s*\(`),
	regexp.MustCompile(`\$\(.+\)`),
	regexp.MustCompile("`.*\\$.*`"),
	regexp.MustCompile(`\$\{.*}`),
}

// Sanitize strips script-tag-like substrings, javascript: scheme markers,
// inline event handlers and HTML special characters, then trims and caps the
// input at MaxInputLength runes.
func Sanitize(raw string) string {
	cleaned := scriptBlockRe.ReplaceAllString(raw, "")
	cleaned = scriptOpenRe.ReplaceAllString(cleaned, "")
	cleaned = jsSchemeRe.ReplaceAllString(cleaned, "")
	cleaned = eventAttrRe.ReplaceAllString(cleaned, "")
	cleaned = htmlCharRe.ReplaceAllString(cleaned, "")

	cleaned = strings.TrimSpace(cleaned)

	runes := []rune(cleaned)
	if len(runes) > MaxInputLength {
		cleaned = string(runes[:MaxInputLength])
	}

	return cleaned
}

// IsSafe reports whether the input matches none of the injection deny-list
// patterns. It is checked against the raw input, before any stripping.
func IsSafe(input string) bool {
	for _, p := range dangerousPatterns {
		if p.MatchString(input) {
			return false
		}
	}
	return true
}

// Gate is the domain-relevance classifier. It is a cost control, not a
// security boundary: queries with a positive keyword pass, queries with only
// negative keywords are rejected, and ambiguous input is forwarded to the
// LLM to decide.
type Gate struct {
	tech    []string
	nonTech []string
}

func NewGate(taxonomy *config.Taxonomy) *Gate {
	return &Gate{
		tech:    lowered(taxonomy.TechKeywords),
		nonTech: lowered(taxonomy.NonTechKeywords),
	}
}

func (g *Gate) IsDomainRelevant(input string) bool {
	lower := strings.ToLower(input)

	for _, kw := range g.tech {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	for _, kw := range g.nonTech {
		if strings.Contains(lower, kw) {
			return false
		}
	}
	return true
}

func lowered(keywords []string) []string {
	out := make([]string, len(keywords))
	for i, kw := range keywords {
		out[i] = strings.ToLower(kw)
	}
	return out
}
