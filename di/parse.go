package di

import (
	"fmt"
	"strings"

	"github.com/kbukum/managed/errors"
)

// ParseKey parses the canonical text form produced by TypeKey.String.
// Spaces after commas are tolerated: "Map[K, V]" parses like "Map[K,V]".
func ParseKey(s string) (TypeKey, error) {
	p := &keyParser{src: s}
	k, err := p.key()
	if err != nil {
		return TypeKey{}, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return TypeKey{}, p.fail("unexpected %q", p.src[p.pos:])
	}
	return k, nil
}

// MustParseKey is ParseKey that panics on malformed input.
func MustParseKey(s string) TypeKey {
	k, err := ParseKey(s)
	if err != nil {
		panic(err)
	}
	return k
}

type keyParser struct {
	src string
	pos int
}

func (p *keyParser) fail(format string, args ...any) error {
	reason := fmt.Sprintf(format, args...)
	return errors.InvalidInput("key", fmt.Sprintf("cannot parse type key %q at offset %d: %s", p.src, p.pos, reason))
}

func (p *keyParser) skipSpace() {
	for p.pos < len(p.src) && p.src[p.pos] == ' ' {
		p.pos++
	}
}

func (p *keyParser) key() (TypeKey, error) {
	p.skipSpace()
	rest := p.src[p.pos:]
	switch {
	case strings.HasPrefix(rest, SliceBase):
		p.pos += len(SliceBase)
		elem, err := p.key()
		if err != nil {
			return TypeKey{}, err
		}
		return SliceOf(elem), nil
	case strings.HasPrefix(rest, OptionalBase):
		p.pos += len(OptionalBase)
		elem, err := p.key()
		if err != nil {
			return TypeKey{}, err
		}
		return OptionalOf(elem), nil
	case strings.HasPrefix(rest, "'"):
		p.pos++
		name := p.ident()
		if name == "" {
			return TypeKey{}, p.fail("missing variable name")
		}
		return Var(name), nil
	}

	base := p.ident()
	if base == "" {
		return TypeKey{}, p.fail("missing base identifier")
	}
	if p.pos >= len(p.src) || p.src[p.pos] != '[' {
		return Key(base), nil
	}
	p.pos++

	var args []TypeKey
	for {
		arg, err := p.key()
		if err != nil {
			return TypeKey{}, err
		}
		args = append(args, arg)
		p.skipSpace()
		if p.pos >= len(p.src) {
			return TypeKey{}, p.fail("unterminated argument list")
		}
		switch p.src[p.pos] {
		case ',':
			p.pos++
		case ']':
			p.pos++
			return Key(base, args...), nil
		default:
			return TypeKey{}, p.fail("expected ',' or ']'")
		}
	}
}

func (p *keyParser) ident() string {
	start := p.pos
	for p.pos < len(p.src) && !strings.ContainsRune("[],'? \t\n", rune(p.src[p.pos])) {
		p.pos++
	}
	return p.src[start:p.pos]
}
