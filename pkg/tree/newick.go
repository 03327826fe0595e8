package tree

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/matzehuels/phylogram/pkg/errors"
)

// delimiters end an unquoted label or length.
const delimiters = "(),:;["

// Parse reads a Newick tree from r.
func Parse(r io.Reader) (*Tree, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeMalformedTree, err, "read newick")
	}
	return ParseString(string(data))
}

// ParseString parses a Newick tree.
//
// The reader accepts nested parenthesised node lists, unquoted or
// single-quoted labels (a doubled quote escapes a quote), internal node labels
// such as support values, ":length" suffixes, and [bracketed] comments. The
// terminating semicolon is optional. Unquoted labels are trimmed but
// otherwise kept verbatim, underscores included.
func ParseString(s string) (*Tree, error) {
	p := &parser{src: s}
	p.skip()
	if p.eof() {
		return nil, errors.MalformedTree("empty newick input")
	}
	root, err := p.subtree()
	if err != nil {
		return nil, err
	}
	p.skip()
	if !p.eof() && p.peek() == ';' {
		p.pos++
		p.skip()
	}
	if !p.eof() {
		return nil, p.errorf("unexpected %q after end of tree", p.peek())
	}
	return New(root)
}

type parser struct {
	src string
	pos int
}

func (p *parser) eof() bool  { return p.pos >= len(p.src) }
func (p *parser) peek() byte { return p.src[p.pos] }

func (p *parser) errorf(format string, args ...any) error {
	return errors.MalformedTree("newick offset %d: %s", p.pos, fmt.Sprintf(format, args...))
}

// skip advances past whitespace and comments.
func (p *parser) skip() {
	for !p.eof() {
		switch c := p.peek(); {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			p.pos++
		case c == '[':
			end := strings.IndexByte(p.src[p.pos:], ']')
			if end < 0 {
				p.pos = len(p.src)
				return
			}
			p.pos += end + 1
		default:
			return
		}
	}
}

func (p *parser) subtree() (*Node, error) {
	n := &Node{}
	p.skip()
	if !p.eof() && p.peek() == '(' {
		p.pos++
		for {
			child, err := p.subtree()
			if err != nil {
				return nil, err
			}
			n.Children = append(n.Children, child)
			p.skip()
			if p.eof() {
				return nil, p.errorf("unterminated node list")
			}
			c := p.peek()
			p.pos++
			if c == ')' {
				break
			}
			if c != ',' {
				p.pos--
				return nil, p.errorf("unexpected %q in node list", c)
			}
		}
	}

	name, err := p.label()
	if err != nil {
		return nil, err
	}
	n.Name = name

	p.skip()
	if !p.eof() && p.peek() == ':' {
		p.pos++
		p.skip()
		length, err := p.length()
		if err != nil {
			return nil, err
		}
		n.Length = length
		n.HasLength = true
	}
	return n, nil
}

func (p *parser) label() (string, error) {
	p.skip()
	if p.eof() {
		return "", nil
	}
	if p.peek() == '\'' {
		return p.quoted()
	}
	start := p.pos
	for !p.eof() && !strings.ContainsRune(delimiters, rune(p.peek())) {
		if p.peek() == '\'' {
			return "", p.errorf("quote inside unquoted label")
		}
		p.pos++
	}
	return strings.TrimSpace(p.src[start:p.pos]), nil
}

func (p *parser) quoted() (string, error) {
	var b strings.Builder
	p.pos++ // opening quote
	for !p.eof() {
		c := p.peek()
		p.pos++
		if c != '\'' {
			b.WriteByte(c)
			continue
		}
		if !p.eof() && p.peek() == '\'' {
			b.WriteByte('\'')
			p.pos++
			continue
		}
		return b.String(), nil
	}
	return "", p.errorf("unterminated quoted label")
}

func (p *parser) length() (float64, error) {
	start := p.pos
	for !p.eof() && !strings.ContainsRune(delimiters, rune(p.peek())) {
		p.pos++
	}
	raw := strings.TrimSpace(p.src[start:p.pos])
	if raw == "" {
		return 0, p.errorf("missing branch length")
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		p.pos = start
		return 0, p.errorf("invalid branch length %q", raw)
	}
	if v < 0 {
		p.pos = start
		return 0, p.errorf("negative branch length %q", raw)
	}
	return v, nil
}

// Newick formats the tree in Newick notation, children in their original
// order, terminated by a semicolon.
func (t *Tree) Newick() string {
	var b strings.Builder
	writeNewick(&b, t.Root)
	b.WriteByte(';')
	return b.String()
}

func writeNewick(b *strings.Builder, n *Node) {
	if !n.IsLeaf() {
		b.WriteByte('(')
		for i, c := range n.Children {
			if i > 0 {
				b.WriteByte(',')
			}
			writeNewick(b, c)
		}
		b.WriteByte(')')
	}
	b.WriteString(quoteLabel(n.Name))
	if n.HasLength {
		b.WriteByte(':')
		b.WriteString(strconv.FormatFloat(n.Length, 'g', -1, 64))
	}
}

func quoteLabel(s string) string {
	if s == "" || !strings.ContainsAny(s, delimiters+"]' \t\n") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
