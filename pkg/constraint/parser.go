package constraint

import (
	"regexp"
	"strings"

	"github.com/glorpus-work/enpkg/pkg/errors"
	"github.com/glorpus-work/enpkg/pkg/version"
)

type tokenKind int

const (
	tokName tokenKind = iota
	tokVersion
	tokOperator
	tokComma
	tokEOF
)

type token struct {
	kind tokenKind
	text string
}

var (
	nameRe     = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(?:\.[A-Za-z0-9_]+)*`)
	versionRe  = regexp.MustCompile(`^[0-9][A-Za-z0-9_.+]*(?:-[A-Za-z0-9_.]+)*`)
	operatorRe = regexp.MustCompile(`^(?:==|!=|>=|<=|~=|>|<)`)
)

// lex splits s into tokens. what is used in error messages ("requirement"
// or "constraint").
func lex(s, what string) ([]token, error) {
	var tokens []token
	rest := s
	for {
		rest = strings.TrimLeft(rest, " \t")
		if rest == "" {
			return append(tokens, token{kind: tokEOF}), nil
		}
		var m string
		var kind tokenKind
		switch {
		case rest[0] == ',':
			m, kind = ",", tokComma
		case operatorRe.MatchString(rest):
			m, kind = operatorRe.FindString(rest), tokOperator
		case versionRe.MatchString(rest):
			m, kind = versionRe.FindString(rest), tokVersion
		case nameRe.MatchString(rest):
			m, kind = nameRe.FindString(rest), tokName
		default:
			return nil, errors.NewSolverError(errors.ErrInvalidFormat,
				"Invalid %s string: unexpected character at '%s'", what, rest)
		}
		// A name must not run into a version or another word ("numpy-no").
		if kind == tokName && len(rest) > len(m) && isWordChar(rest[len(m)]) {
			return nil, errors.NewSolverError(errors.ErrInvalidFormat,
				"Invalid %s string: unexpected character at '%s'", what, rest[len(m):])
		}
		tokens = append(tokens, token{kind: kind, text: m})
		rest = rest[len(m):]
	}
}

func isWordChar(b byte) bool {
	return b == '-' || b == '.' || b == '+'
}

type parser struct {
	what   string
	tokens []token
	pos    int
}

func (p *parser) peek() token { return p.tokens[p.pos] }

func (p *parser) next() token {
	t := p.tokens[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) prevText() string {
	if p.pos == 0 {
		return ""
	}
	return p.tokens[p.pos-1].text
}

func (p *parser) fail(format string, args ...interface{}) error {
	return errors.NewSolverError(errors.ErrInvalidFormat, "Invalid "+p.what+" string: "+format, args...)
}

// constraintItem parses "<op> <version>" or a bare version.
func (p *parser) constraintItem() (Constraint, error) {
	t := p.next()
	switch t.kind {
	case tokOperator:
		v := p.next()
		if v.kind != tokVersion {
			if v.kind == tokEOF || v.kind == tokComma {
				return Constraint{}, p.fail("missing version after '%s'", t.text)
			}
			return Constraint{}, p.fail("expected a version after '%s', got '%s'", t.text, v.text)
		}
		ver, err := p.version(v.text)
		if err != nil {
			return Constraint{}, err
		}
		return Constraint{Kind: operatorKinds[t.text], Version: ver}, nil
	case tokVersion:
		ver, err := p.version(t.text)
		if err != nil {
			return Constraint{}, err
		}
		return UpstreamMatch(ver), nil
	case tokEOF:
		return Constraint{}, p.fail("missing constraint after '%s'", p.prevText())
	default:
		return Constraint{}, p.fail("unexpected '%s'", t.text)
	}
}

func (p *parser) version(s string) (version.EnpkgVersion, error) {
	v, err := version.ParseLoose(s)
	if err != nil {
		return version.EnpkgVersion{}, errors.NewSolverError(errors.ErrInvalidFormat,
			"Invalid %s string: invalid version '%s'", p.what, s)
	}
	return v, nil
}

// expectSeparator consumes a comma, or reports true at the end of input.
func (p *parser) expectSeparator() (done bool, err error) {
	t := p.next()
	switch t.kind {
	case tokEOF:
		return true, nil
	case tokComma:
		if p.peek().kind == tokEOF {
			return false, p.fail("trailing ','")
		}
		return false, nil
	default:
		return false, p.fail("unexpected '%s' after '%s'", t.text, p.tokens[p.pos-2].text)
	}
}

// ParseConstraints parses a comma separated list of "<op> <version>" items.
// A bare version means UpstreamMatch; an empty string yields {Any}.
func ParseConstraints(s string) (Set, error) {
	tokens, err := lex(s, "constraint")
	if err != nil {
		return Set{}, err
	}
	p := &parser{what: "constraint", tokens: tokens}
	if p.peek().kind == tokEOF {
		return NewSet(Any()), nil
	}

	var set Set
	for {
		c, err := p.constraintItem()
		if err != nil {
			return Set{}, err
		}
		set.Add(c)
		done, err := p.expectSeparator()
		if err != nil {
			return Set{}, err
		}
		if done {
			return set, nil
		}
	}
}

// ParseRequirements parses "name [constraint], name [constraint], ..." into
// a mapping from name (as written) to its merged constraint set. A
// constraint after a comma without a name applies to the preceding name.
func ParseRequirements(s string) (map[string]Set, error) {
	tokens, err := lex(s, "requirement")
	if err != nil {
		return nil, err
	}
	p := &parser{what: "requirement", tokens: tokens}
	if p.peek().kind == tokEOF {
		return nil, p.fail("empty requirement")
	}

	out := make(map[string]Set)
	current := ""
	for {
		t := p.peek()
		switch {
		case t.kind == tokName:
			p.next()
			current = t.text
			set := out[current]
			switch p.peek().kind {
			case tokOperator, tokVersion:
				c, err := p.constraintItem()
				if err != nil {
					return nil, err
				}
				set.Add(c)
			default:
				set.Add(Any())
			}
			out[current] = set
		case t.kind == tokOperator && current != "":
			c, err := p.constraintItem()
			if err != nil {
				return nil, err
			}
			set := out[current]
			set.Add(c)
			out[current] = set
		default:
			return nil, p.fail("expected a package name, got '%s'", t.text)
		}

		done, err := p.expectSeparator()
		if err != nil {
			return nil, err
		}
		if done {
			return out, nil
		}
	}
}
