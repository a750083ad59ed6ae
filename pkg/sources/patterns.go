package sources

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/repotools/artlist/pkg/errors"
)

// CompilePatterns converts coordinate pattern strings into anchored regular
// expressions. A pattern of the form "r/expr/" uses expr verbatim; anything
// else is a glob where "*" matches any character sequence and "." is
// literal.
func CompilePatterns(specs []string) ([]*regexp.Regexp, error) {
	patterns := make([]*regexp.Regexp, 0, len(specs))
	for _, spec := range specs {
		var expr string
		if strings.HasPrefix(spec, "r/") && strings.HasSuffix(spec, "/") {
			expr = spec[2 : len(spec)-1]
		} else {
			expr = strings.ReplaceAll(regexp.QuoteMeta(spec), `\*`, ".*")
		}
		re, err := regexp.Compile("^(?:" + expr + ")$")
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidPattern, err,
				fmt.Sprintf("compiling pattern %q", spec))
		}
		patterns = append(patterns, re)
	}
	return patterns, nil
}

// MatchAny reports whether any pattern matches s.
func MatchAny(patterns []*regexp.Regexp, s string) bool {
	for _, re := range patterns {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

// splitGAVPatterns partitions compiled exclusion patterns into GAV-shaped
// (at most two colons) and GATCV-shaped (more than two colons) groups. The
// colon count of the pattern source decides, so "g:a:*" excludes whole
// versions while "g:a:jar:sources:*" excludes individual classifiers.
func splitGAVPatterns(patterns []*regexp.Regexp) (gav, gatcv []*regexp.Regexp) {
	for _, re := range patterns {
		if strings.Count(re.String(), ":") > 2 {
			gatcv = append(gatcv, re)
		} else {
			gav = append(gav, re)
		}
	}
	return gav, gatcv
}
