package stdlib

import (
	"fmt"
	"regexp"
)

func compile(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid regular expression %q: %w", pattern, err)
	}
	return re, nil
}

func escapeStringRegex(str string) string {
	return regexp.QuoteMeta(str)
}

func regexMatch(pattern, str string) (bool, error) {
	re, err := compile(pattern)
	if err != nil {
		return false, err
	}
	return re.MatchString(str), nil
}

// regexFind returns the first match and its groups, or null when nothing matches.
func regexFind(pattern, str string) (any, error) {
	re, err := compile(pattern)
	if err != nil {
		return nil, err
	}
	groups := re.FindStringSubmatch(str)
	if groups == nil {
		return nil, nil
	}
	names := re.SubexpNames()
	named := make(map[string]string)
	for i, name := range names {
		if name != "" {
			named[name] = groups[i]
		}
	}
	return map[string]any{
		"string":   groups[0],
		"captures": groups[1:],
		"named":    named,
	}, nil
}

func regexSubst(pattern, str, replacement string) (string, error) {
	re, err := compile(pattern)
	if err != nil {
		return "", err
	}
	return re.ReplaceAllString(str, replacement), nil
}
