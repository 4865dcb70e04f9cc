package semver

import (
	"fmt"
	"strconv"
	"strings"
)

// Tag grammar:
//
//	tag     = "v" number "." number "." number [ "-" channel [ "." number ] ] [ "+" meta ]
//	number  = "0" | nonzero { digit }
//	channel = ident
//	meta    = ident { "." ident }
//	ident   = 1*( ALPHA | DIGIT | "-" )
//
// Build metadata is accepted and discarded.

// ToTag formats v as "v<major>.<minor>.<patch>[-<channel>[.<build>]]".
func ToTag(v SemVer) (string, error) {
	if v.Build != nil && v.Channel == "" {
		return "", fmt.Errorf("%w: build number %d set without a channel", ErrInvalidSemVer, *v.Build)
	}

	if v.Channel != "" && !isIdent(v.Channel) {
		return "", fmt.Errorf("%w: channel %q must match [0-9A-Za-z-]+", ErrInvalidSemVer, v.Channel)
	}

	var b strings.Builder

	fmt.Fprintf(&b, "v%d.%d.%d", v.Major, v.Minor, v.Patch)

	if v.Channel != "" {
		b.WriteString("-")
		b.WriteString(v.Channel)

		if v.Build != nil {
			fmt.Fprintf(&b, ".%d", *v.Build)
		}
	}

	return b.String(), nil
}

// MustToTag is like ToTag but panics on invalid input.
func MustToTag(v SemVer) string {
	tag, err := ToTag(v)
	if err != nil {
		panic(err)
	}

	return tag
}

// FromTag parses a tag. The returned version keeps Build nil when the tag has
// no build number, so callers can tell "v1.0.0-rc" from "v1.0.0-rc.1".
func FromTag(tag string) (SemVer, error) {
	p := &tagParser{src: tag}

	v, err := p.parse()
	if err != nil {
		return SemVer{}, err
	}

	return v, nil
}

// MustFromTag is like FromTag but panics on malformed input.
func MustFromTag(tag string) SemVer {
	v, err := FromTag(tag)
	if err != nil {
		panic(err)
	}

	return v
}

// IsValidTag reports whether tag parses.
func IsValidTag(tag string) bool {
	_, err := FromTag(tag)

	return err == nil
}

type tagParser struct {
	src string
	pos int
}

func (p *tagParser) fail(reason string) error {
	return &ParseError{Tag: p.src, Pos: p.pos, Reason: reason}
}

func (p *tagParser) eof() bool {
	return p.pos >= len(p.src)
}

func (p *tagParser) peek() byte {
	if p.eof() {
		return 0
	}

	return p.src[p.pos]
}

func (p *tagParser) expect(c byte) error {
	if p.peek() != c {
		return p.fail(fmt.Sprintf("expected %q", c))
	}

	p.pos++

	return nil
}

func (p *tagParser) parse() (SemVer, error) {
	var v SemVer

	if err := p.expect('v'); err != nil {
		return v, err
	}

	nums := []*uint64{&v.Major, &v.Minor, &v.Patch}
	for i, dst := range nums {
		if i > 0 {
			if err := p.expect('.'); err != nil {
				return v, err
			}
		}

		n, err := p.number()
		if err != nil {
			return v, err
		}

		*dst = n
	}

	if p.peek() == '-' {
		p.pos++

		channel := p.ident()
		if channel == "" {
			return v, p.fail("empty channel")
		}

		v.Channel = channel

		if p.peek() == '.' {
			p.pos++

			build, err := p.number()
			if err != nil {
				return v, err
			}

			v.Build = &build
		}
	}

	if p.peek() == '+' {
		p.pos++

		if err := p.metadata(); err != nil {
			return v, err
		}
	}

	if !p.eof() {
		return v, p.fail("unexpected trailing input")
	}

	return v, nil
}

func (p *tagParser) number() (uint64, error) {
	start := p.pos

	for !p.eof() && isDigit(p.peek()) {
		p.pos++
	}

	digits := p.src[start:p.pos]

	switch {
	case digits == "":
		return 0, p.fail("expected a number")
	case len(digits) > 1 && digits[0] == '0':
		p.pos = start

		return 0, p.fail("leading zero in number")
	}

	n, err := strconv.ParseUint(digits, 10, 64)
	if err != nil {
		p.pos = start

		return 0, p.fail("number out of range")
	}

	return n, nil
}

func (p *tagParser) ident() string {
	start := p.pos

	for !p.eof() && isIdentChar(p.peek()) {
		p.pos++
	}

	return p.src[start:p.pos]
}

func (p *tagParser) metadata() error {
	for {
		if p.ident() == "" {
			return p.fail("empty build metadata identifier")
		}

		if p.peek() != '.' {
			return nil
		}

		p.pos++
	}
}

// IsValidChannel reports whether channel can be used as a prerelease
// channel in a tag.
func IsValidChannel(channel string) bool {
	return isIdent(channel)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentChar(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '-'
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}

	for i := 0; i < len(s); i++ {
		if !isIdentChar(s[i]) {
			return false
		}
	}

	return true
}
