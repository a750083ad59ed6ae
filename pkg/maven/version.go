package maven

import (
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// Well-known qualifiers in ascending order, as defined by Maven's version
// ordering. The empty qualifier (a plain release) sorts between "snapshot"
// and "sp"; any unknown qualifier sorts after "sp" alphabetically.
var qualifierRank = map[string]int{
	"alpha":     1,
	"a":         1,
	"beta":      2,
	"b":         2,
	"milestone": 3,
	"m":         3,
	"rc":        4,
	"cr":        4,
	"snapshot":  5,
	"":          6,
	"ga":        6,
	"final":     6,
	"release":   6,
	"sp":        7,
}

// CompareVersions orders two Maven version strings following the rules of
// Maven's ComparableVersion: versions split into numeric and qualifier
// tokens on '.' and '-' and on letter/digit transitions, numeric tokens
// compared numerically, qualifier tokens by the well-known ranking, missing
// tokens treated as the release marker.
//
// Returns a negative value if a < b, zero if equal, positive if a > b.
func CompareVersions(a, b string) int {
	at := tokenizeVersion(a)
	bt := tokenizeVersion(b)

	for i := 0; i < len(at) || i < len(bt); i++ {
		var av, bv versionToken
		switch {
		case i >= len(at):
			bv = bt[i]
			av = padFor(bv)
		case i >= len(bt):
			av = at[i]
			bv = padFor(av)
		default:
			av, bv = at[i], bt[i]
		}
		if r := av.compare(bv); r != 0 {
			return r
		}
	}
	return 0
}

// padFor returns the token an exhausted version compares with at a position:
// the zero number against a numeric token, the release marker against a
// qualifier. "1.0-alpha" must sort below "1.0" even though it is longer.
func padFor(t versionToken) versionToken {
	if t.numeric {
		return versionToken{numeric: true}
	}
	return versionToken{}
}

// SortVersionsDescending sorts versions from highest to lowest, so the first
// element is the version the single-version filter keeps. Ties are broken by
// the plain string to keep the order deterministic.
func SortVersionsDescending(versions []string) {
	sort.SliceStable(versions, func(i, j int) bool {
		if r := CompareVersions(versions[i], versions[j]); r != 0 {
			return r > 0
		}
		return versions[i] > versions[j]
	})
}

type versionToken struct {
	numeric bool
	num     int
	str     string
}

func (t versionToken) compare(o versionToken) int {
	if t.numeric && o.numeric {
		switch {
		case t.num < o.num:
			return -1
		case t.num > o.num:
			return 1
		}
		return 0
	}
	// A numeric token outranks any qualifier, including the release marker.
	// Trailing zeros and release markers are trimmed during tokenization, so
	// the zero-vs-release edge cases never reach this comparison.
	if t.numeric != o.numeric {
		if t.numeric {
			return 1
		}
		return -1
	}
	return compareQualifiers(t.str, o.str)
}

func (t versionToken) rank() int {
	if r, ok := qualifierRank[t.str]; ok {
		return r
	}
	return qualifierRank["sp"] + 1
}

func compareQualifiers(a, b string) int {
	ar, aok := qualifierRank[a]
	br, bok := qualifierRank[b]
	if !aok {
		ar = qualifierRank["sp"] + 1
	}
	if !bok {
		br = qualifierRank["sp"] + 1
	}
	switch {
	case ar < br:
		return -1
	case ar > br:
		return 1
	case !aok && !bok:
		return strings.Compare(a, b)
	}
	return 0
}

// tokenizeVersion splits a version string into numeric and qualifier tokens.
// Trailing zero/release tokens are trimmed so "1.0" equals "1" and
// "1.0.ga" equals "1.0".
func tokenizeVersion(v string) []versionToken {
	v = strings.ToLower(v)
	var tokens []versionToken
	var cur strings.Builder
	curNumeric := false

	flush := func() {
		if cur.Len() == 0 {
			return
		}
		s := cur.String()
		cur.Reset()
		if curNumeric {
			n, _ := strconv.Atoi(s)
			tokens = append(tokens, versionToken{numeric: true, num: n})
		} else {
			tokens = append(tokens, versionToken{str: s})
		}
	}

	for _, r := range v {
		switch {
		case r == '.' || r == '-':
			flush()
		case unicode.IsDigit(r):
			if cur.Len() > 0 && !curNumeric {
				flush()
			}
			curNumeric = true
			cur.WriteRune(r)
		default:
			if cur.Len() > 0 && curNumeric {
				flush()
			}
			curNumeric = false
			cur.WriteRune(r)
		}
	}
	flush()

	for len(tokens) > 0 {
		last := tokens[len(tokens)-1]
		if (last.numeric && last.num == 0) || (!last.numeric && last.rank() == qualifierRank[""]) {
			tokens = tokens[:len(tokens)-1]
			continue
		}
		break
	}
	return tokens
}
