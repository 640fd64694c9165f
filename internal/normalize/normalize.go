// Package normalize derives canonical cache keys from free-text queries.
// Differently-phrased requests for the same intent ("我想写日记", "帮我记笔记")
// must collapse to one key, or the cache would only ever hit on literal
// repeats.
package normalize

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/opentoolhub/search-agent/internal/config"
)

type Normalizer struct {
	fillers []*regexp.Regexp
	groups  []topicGroup
}

type topicGroup struct {
	key     string
	pattern *regexp.Regexp
}

func New(taxonomy *config.Taxonomy) (*Normalizer, error) {
	n := &Normalizer{}

	for _, p := range taxonomy.FillerPatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid filler pattern %q: %w", p, err)
		}
		n.fillers = append(n.fillers, re)
	}

	for _, g := range taxonomy.TopicGroups {
		re, err := regexp.Compile(g.Patterns)
		if err != nil {
			return nil, fmt.Errorf("invalid patterns for topic group %q: %w", g.Key, err)
		}
		n.groups = append(n.groups, topicGroup{key: g.Key, pattern: re})
	}

	return n, nil
}

// Normalize maps sanitized input to its cache key: lowercase, strip filler
// words, then match the topic groups in priority order. The first matching
// group's canonical key wins. With no group match, the filler-stripped text
// is the key; if stripping emptied it, the original input is returned.
func (n *Normalizer) Normalize(input string) string {
	if input == "" {
		return ""
	}

	stripped := strings.ToLower(input)
	for _, re := range n.fillers {
		stripped = re.ReplaceAllString(stripped, "")
	}

	for _, g := range n.groups {
		if g.pattern.MatchString(stripped) {
			return g.key
		}
	}

	if stripped == "" {
		return input
	}
	return stripped
}
