package version

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/babelone/pkg/errors"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input string
		want  Version
	}{
		{"2.0", Version{Raw: "2.0", Release: []Segment{{Num: 2}, {Num: 0}}, Post: -1, Dev: -1}},
		{"1.0a1", Version{Raw: "1.0a1", Release: []Segment{{Num: 1}, {Num: 0}}, Pre: PreAlpha, PreNum: 1, Post: -1, Dev: -1}},
		{"1.0-beta.2", Version{Raw: "1.0-beta.2", Release: []Segment{{Num: 1}, {Num: 0}}, Pre: PreBeta, PreNum: 2, Post: -1, Dev: -1}},
		{"2.1rc3", Version{Raw: "2.1rc3", Release: []Segment{{Num: 2}, {Num: 1}}, Pre: PreRC, PreNum: 3, Post: -1, Dev: -1}},
		{"1.0.post2", Version{Raw: "1.0.post2", Release: []Segment{{Num: 1}, {Num: 0}}, Post: 2, Dev: -1}},
		{"1.0-1", Version{Raw: "1.0-1", Release: []Segment{{Num: 1}, {Num: 0}}, Post: 1, Dev: -1}},
		{"3.dev4", Version{Raw: "3.dev4", Release: []Segment{{Num: 3}}, Post: -1, Dev: 4}},
		{"1.2+ubuntu.1", Version{Raw: "1.2+ubuntu.1", Release: []Segment{{Num: 1}, {Num: 2}}, Post: -1, Dev: -1, Local: "ubuntu.1"}},
		{"2.*", Version{Raw: "2.*", Release: []Segment{{Num: 2}}, Post: -1, Dev: -1, Wildcard: true}},
		{"2.x", Version{Raw: "2.x", Release: []Segment{{Num: 2}, {Alpha: "x"}}, Post: -1, Dev: -1}},
		{"6.95.x", Version{Raw: "6.95.x", Release: []Segment{{Num: 6}, {Num: 95}, {Alpha: "x"}}, Post: -1, Dev: -1}},
		{" 1.5 ", Version{Raw: "1.5", Release: []Segment{{Num: 1}, {Num: 5}}, Post: -1, Dev: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tt.input, err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Parse(%q) mismatch (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	for _, input := range []string{"", "1.0 2.0", "1.0$", "1..0", "1.0+", "1.0/2", "1!2.0", "2.*+local"} {
		t.Run(input, func(t *testing.T) {
			_, err := Parse(input)
			if !errors.Is(err, errors.ErrCodeMalformedConstraint) {
				t.Errorf("Parse(%q) error = %v, want MALFORMED_CONSTRAINT", input, err)
			}
		})
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.9", "1.10", -1},
		{"2.10", "2.9", 1},
		{"1.0", "1.0.0", 0},
		{"1.0a1", "1.0", -1},
		{"1.0.dev1", "1.0a1", -1},
		{"1.0a1", "1.0b1", -1},
		{"1.0b2", "1.0rc1", -1},
		{"1.0a1.dev1", "1.0a1", -1},
		{"1.0", "1.0.post1", -1},
		{"1.0.post1.dev1", "1.0.post1", -1},
		{"1.0+local", "1.0", 1},
		{"2.x", "2.9", 1},
		{"2.x", "3.0", -1},
		{"10.0", "9.99", 1},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_vs_"+tt.b, func(t *testing.T) {
			if got := Compare(MustParse(tt.a), MustParse(tt.b)); got != tt.want {
				t.Errorf("Compare(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
			if got := Compare(MustParse(tt.b), MustParse(tt.a)); got != -tt.want {
				t.Errorf("Compare(%q, %q) = %d, want %d", tt.b, tt.a, got, -tt.want)
			}
		})
	}
}

func TestVersionOrderingIsNumeric(t *testing.T) {
	a, err := ParseConstraint(">=1.9")
	if err != nil {
		t.Fatal(err)
	}
	b, err := ParseConstraint(">=1.10")
	if err != nil {
		t.Fatal(err)
	}
	if !a.Version.Less(b.Version) {
		t.Errorf("%s should sort before %s", a.Version, b.Version)
	}
}
