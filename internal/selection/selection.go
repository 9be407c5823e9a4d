// Package selection resolves a run request's selector into the ordered set of
// suites to execute.
package selection

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/stolostron/capitest/internal/suite"
)

// Kind identifies how suites are selected.
type Kind string

const (
	KindID  Kind = "id"
	KindTag Kind = "tag"
	KindAll Kind = "all"
)

// ErrSelector is returned for unusable selector combinations.
var ErrSelector = errors.New("invalid selector")

// Selector names the suites a run covers.
type Selector struct {
	Kind  Kind
	Value string
}

func (s Selector) String() string {
	if s.Kind == KindAll {
		return string(KindAll)
	}
	return fmt.Sprintf("%s:%s", s.Kind, s.Value)
}

// Parse builds a selector from CLI inputs. Exactly one of id, tag or all must
// be supplied.
func Parse(id, tag string, all bool) (Selector, error) {
	id = strings.TrimSpace(id)
	tag = strings.TrimSpace(tag)

	var set []Selector
	if id != "" {
		set = append(set, Selector{Kind: KindID, Value: id})
	}
	if tag != "" {
		set = append(set, Selector{Kind: KindTag, Value: tag})
	}
	if all {
		set = append(set, Selector{Kind: KindAll})
	}
	switch len(set) {
	case 0:
		return Selector{}, fmt.Errorf("%w: specify a suite id, --tag or --all", ErrSelector)
	case 1:
		return set[0], nil
	default:
		return Selector{}, fmt.Errorf("%w: suite id, --tag and --all are mutually exclusive", ErrSelector)
	}
}

// Resolve returns the selected suites ordered by id. An unknown explicit id
// fails with suite.ErrNotFound; a tag with no matches yields an empty slice.
func Resolve(reg *suite.Registry, sel Selector) ([]suite.Definition, error) {
	switch sel.Kind {
	case KindID:
		def, err := reg.Get(sel.Value)
		if err != nil {
			return nil, err
		}
		return []suite.Definition{def}, nil
	case KindTag:
		pattern, err := Compile(sel.Value)
		if err != nil {
			return nil, err
		}
		return reg.Filter(pattern.MatchSuite), nil
	case KindAll:
		return reg.All(), nil
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrSelector, sel.Kind)
	}
}

// Pattern is a compiled tag condition: exact (case-insensitive) match, or a
// regular expression when wrapped in slashes.
type Pattern struct {
	raw   string
	regex *regexp.Regexp
}

// Compile transforms a raw tag filter into a Pattern.
func Compile(raw string) (Pattern, error) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "/") && strings.HasSuffix(raw, "/") && len(raw) >= 2 {
		expr := raw[1 : len(raw)-1]
		re, err := regexp.Compile(expr)
		if err != nil {
			return Pattern{}, fmt.Errorf("compile tag regexp %q: %w", raw, err)
		}
		return Pattern{raw: raw, regex: re}, nil
	}
	return Pattern{raw: raw}, nil
}

// Match reports whether the pattern accepts a single tag.
func (p Pattern) Match(tag string) bool {
	if tag == "" {
		return false
	}
	if p.regex != nil {
		return p.regex.MatchString(tag)
	}
	return strings.EqualFold(tag, p.raw)
}

// MatchSuite reports whether any of the suite's tags match.
func (p Pattern) MatchSuite(def suite.Definition) bool {
	for _, tag := range def.Tags {
		if p.Match(tag) {
			return true
		}
	}
	return false
}
