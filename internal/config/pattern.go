package config

import (
	"fmt"
	"regexp"

	"github.com/patrickmn/go-cache"
)

// maxPatternLength bounds the size of a source pattern.
const maxPatternLength = 500

// patterns holds compiled regular expressions keyed by their source. The
// same pattern typically appears once per variable in a retriever config.
var patterns = cache.New(cache.NoExpiration, 0)

// CompilePattern returns the compiled form of a source pattern, reusing a
// previous compilation when possible.
func CompilePattern(pattern string) (*regexp.Regexp, error) {
	if re, found := patterns.Get(pattern); found {
		return re.(*regexp.Regexp), nil
	}
	if len(pattern) > maxPatternLength {
		return nil, fmt.Errorf("regex pattern too long (max %d chars): %d chars", maxPatternLength, len(pattern))
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid regex pattern '%s': %w", pattern, err)
	}
	patterns.Set(pattern, re, cache.NoExpiration)
	return re, nil
}

// CompilePatterns compiles every pattern in order.
func CompilePatterns(sources []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(sources))
	for _, s := range sources {
		re, err := CompilePattern(s)
		if err != nil {
			return nil, err
		}
		out = append(out, re)
	}
	return out, nil
}
