package tree

import (
	"strings"
	"testing"

	"github.com/matzehuels/phylogram/pkg/errors"
)

func TestParseString(t *testing.T) {
	tr, err := ParseString("((A:1,B:2):1,(C:1,D:3):2);")
	if err != nil {
		t.Fatalf("ParseString() error: %v", err)
	}
	if tr.Len() != 7 {
		t.Errorf("Len() = %d, want 7", tr.Len())
	}
	if got := len(tr.Root.Children); got != 2 {
		t.Fatalf("root children = %d, want 2", got)
	}
	cd := tr.Root.Children[1]
	if cd.Length != 2 || !cd.HasLength {
		t.Errorf("CD length = %v (has=%v), want 2", cd.Length, cd.HasLength)
	}
	d := cd.Children[1]
	if d.Name != "D" || d.Length != 3 {
		t.Errorf("D = %q:%v, want D:3", d.Name, d.Length)
	}
	if tr.Root.HasLength {
		t.Error("root should have no length")
	}
}

func TestParseLabels(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string // leaf names in original order
	}{
		{"unquoted", "(A,B);", []string{"A", "B"}},
		{"underscores kept", "(Homo_sapiens,Pan);", []string{"Homo_sapiens", "Pan"}},
		{"quoted with comma", "('a,b':1,c);", []string{"a,b", "c"}},
		{"escaped quote", "('it''s',x);", []string{"it's", "x"}},
		{"trimmed spaces", "( A , B );", []string{"A", "B"}},
		{"comment skipped", "(A[&comment],B);", []string{"A", "B"}},
		{"no semicolon", "(A,B)", []string{"A", "B"}},
		{"empty names", "(,);", []string{"", ""}},
		{"multiline", "(A:1,\n B:2\n);\n", []string{"A", "B"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := ParseString(tt.input)
			if err != nil {
				t.Fatalf("ParseString(%q) error: %v", tt.input, err)
			}
			var got []string
			for _, c := range tr.Root.Children {
				got = append(got, c.Name)
			}
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("names = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseSupportLabel(t *testing.T) {
	tr, err := ParseString("((A:1,B:1)95:0.5,C:2)root;")
	if err != nil {
		t.Fatal(err)
	}
	if got := tr.Root.Children[0].Name; got != "95" {
		t.Errorf("inner label = %q, want 95", got)
	}
	if tr.Root.Name != "root" {
		t.Errorf("root label = %q, want root", tr.Root.Name)
	}
}

func TestParseMalformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"whitespace only", "  \n"},
		{"unterminated list", "((A,B);"},
		{"unterminated quote", "('A,B);"},
		{"bad length", "(A:x,B);"},
		{"missing length", "(A:,B);"},
		{"trailing garbage", "(A,B);C"},
		{"extra close", "(A,B));"},
		{"quote in label", "(A'b,C);"},
		{"infinite length", "(A:Inf,B);"},
		{"negative length", "(A:-3,B:1);"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseString(tt.input)
			if !errors.Is(err, errors.ErrCodeMalformedTree) {
				t.Errorf("ParseString(%q) error = %v, want %s", tt.input, err, errors.ErrCodeMalformedTree)
			}
		})
	}
}

func TestParseNegativeLengthOffset(t *testing.T) {
	_, err := ParseString("(A:1,B:-0.5);")
	if err == nil {
		t.Fatal("ParseString() should reject a negative length")
	}
	if msg := err.Error(); !strings.Contains(msg, "offset 7") || !strings.Contains(msg, "-0.5") {
		t.Errorf("error = %q, want the offset and value of the length", msg)
	}
}

func TestNewickWrite(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"((A:1,B:2):1,(C:1,D:3):2);", "((A:1,B:2):1,(C:1,D:3):2);"},
		{"('a b':0.25,c)95;", "('a b':0.25,c)95;"},
		{"('it''s',x);", "('it''s',x);"},
		{"A;", "A;"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tr, err := ParseString(tt.input)
			if err != nil {
				t.Fatal(err)
			}
			if got := tr.Newick(); got != tt.want {
				t.Errorf("Newick() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseReader(t *testing.T) {
	tr, err := Parse(strings.NewReader("(A:1,B:1);"))
	if err != nil {
		t.Fatal(err)
	}
	if got := len(tr.Leaves()); got != 2 {
		t.Errorf("leaves = %d, want 2", got)
	}
}
