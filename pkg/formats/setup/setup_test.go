package setup

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sebdah/goldie/v2"

	"github.com/matzehuels/babelone/pkg/errors"
	"github.com/matzehuels/babelone/pkg/project"
)

func readFixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	return string(data)
}

// passthroughValue returns the passthrough text stored under key.
func passthroughValue(p *project.Project, key string) string {
	for _, f := range p.Passthrough.Entries {
		if f.Key == key {
			return f.Value
		}
	}
	return ""
}

func TestSupports(t *testing.T) {
	if !Supports("setup.py") {
		t.Error("Supports(setup.py) = false")
	}
	for _, name := range []string{"setup.cfg", "pyproject.toml", "requirements.txt"} {
		if Supports(name) {
			t.Errorf("Supports(%q) = true", name)
		}
	}
}

func TestParse_UnrecognizedKeyword(t *testing.T) {
	src := `from setuptools import setup
from mypkg.commands import Build

setup(
    install_requires=["a>=1", "b"],
    cmdclass={"build": Build},
)
`
	p, warnings, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if len(p.Dependencies) != 2 {
		t.Fatalf("got %d dependencies, want 2", len(p.Dependencies))
	}
	a, b := p.Dependencies[0], p.Dependencies[1]
	if a.Name != "a" || a.Constraints.String() != ">=1" {
		t.Errorf("first dependency = %s, want a>=1", a)
	}
	if b.Name != "b" || len(b.Constraints) != 0 {
		t.Errorf("second dependency = %s, want unconstrained b", b)
	}

	if len(warnings) != 1 {
		t.Fatalf("got %d warnings, want 1: %v", len(warnings), warnings)
	}
	if w := warnings[0]; w.Kind != project.UnparsedField || w.Field != "cmdclass" || w.Line != 6 {
		t.Errorf("warning = %+v, want UnparsedField for cmdclass on line 6", w)
	}
	if v := passthroughValue(p, "cmdclass"); v != `{"build": Build}` {
		t.Errorf("passthrough cmdclass = %q", v)
	}
	if p.Passthrough.Source != Kind {
		t.Errorf("passthrough source = %q, want %q", p.Passthrough.Source, Kind)
	}
}

func TestParse_ConstantsAndGuard(t *testing.T) {
	p, warnings, err := Parse(readFixture(t, "constants.py"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if p.Name != "" {
		t.Errorf("Name = %q, want unset for f-string", p.Name)
	}
	if p.Version != "2.0" {
		t.Errorf("Version = %q, want 2.0 from annotated constant", p.Version)
	}
	if got := strings.Join(project.FormatRequirements(p.Dependencies), " "); got != "pydantic==2.6.2 fastapi" {
		t.Errorf("dependencies = %q", got)
	}

	if diff := cmp.Diff([]string{"name", "author", "extra_requires", "entry_points"}, p.Passthrough.Keys()); diff != "" {
		t.Errorf("passthrough keys mismatch (-want +got):\n%s", diff)
	}
	if v := passthroughValue(p, "name"); v != `f"{PACKAGE!s}-app"` {
		t.Errorf("passthrough name = %q", v)
	}
	want := `{"dev": ["pytest", "hypothesis>=6.95.x"], "PDF": ["ReportLab>=1.2", "RXP"]}`
	if v := passthroughValue(p, "extra_requires"); v != want {
		t.Errorf("passthrough extra_requires = %q, want %q", v, want)
	}

	var fields []string
	for _, w := range warnings {
		fields = append(fields, w.Field)
	}
	if diff := cmp.Diff([]string{"name", "entry_points"}, fields); diff != "" {
		t.Errorf("warning fields mismatch (-want +got):\n%s", diff)
	}
	if warnings[0].Line != 13 || warnings[1].Line != 21 {
		t.Errorf("warning lines = %d, %d; want 13, 21", warnings[0].Line, warnings[1].Line)
	}
}

func TestParse_AllFields(t *testing.T) {
	p, warnings, err := Parse(readFixture(t, "spam_eggs.py"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if p.Name != "spam-eggs" || p.Version != "2020.0.0" || p.Description != "Spam and eggs" || p.RequiresPython != ">=3.9" {
		t.Errorf("metadata = %q %q %q %q", p.Name, p.Version, p.Description, p.RequiresPython)
	}
	if len(p.Dependencies) != 4 {
		t.Errorf("got %d dependencies, want 4", len(p.Dependencies))
	}
	if diff := cmp.Diff([]string{"setuptools>=61", "wheel"}, project.FormatRequirements(p.BuildRequires)); diff != "" {
		t.Errorf("build requirements mismatch (-want +got):\n%s", diff)
	}

	var groups []string
	for _, g := range p.Groups {
		groups = append(groups, g.Name+":"+strings.Join(project.FormatRequirements(g.Dependencies), ","))
	}
	if diff := cmp.Diff([]string{"cli:rich,click", "gui:pyqt5"}, groups); diff != "" {
		t.Errorf("groups mismatch (-want +got):\n%s", diff)
	}

	wantEntryPoints := []project.EntryPointGroup{
		{Name: project.ConsoleScripts, Entries: []project.EntryPoint{{Name: "spam-cli", Object: "spam:main_cli"}}},
		{Name: project.GUIScripts, Entries: []project.EntryPoint{{Name: "spam-gui", Object: "spam:main_gui"}}},
	}
	if diff := cmp.Diff(wantEntryPoints, p.EntryPoints); diff != "" {
		t.Errorf("entry points mismatch (-want +got):\n%s", diff)
	}

	wantPass := []project.Field{
		{Key: "entry_points.pytest11", Value: `["spam = spam.plugin"]`},
		{Key: "zip_safe", Value: "False"},
		{Key: "cmdclass", Value: `{"build": Build}`},
	}
	if diff := cmp.Diff(wantPass, p.Passthrough.Entries); diff != "" {
		t.Errorf("passthrough mismatch (-want +got):\n%s", diff)
	}

	if len(warnings) != 1 || warnings[0].Field != "cmdclass" || warnings[0].Line != 21 {
		t.Errorf("warnings = %v, want one for cmdclass on line 21", warnings)
	}
}

func TestParse_Arguments(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		fields   []string
		passKeys []string
	}{
		{
			name:     "kwargs unpacking kept verbatim",
			src:      "from setuptools import setup\nsetup(name='x', **extra)\n",
			fields:   []string{"**extra"},
			passKeys: []string{"**extra"},
		},
		{
			name:   "positional argument skipped",
			src:    "import setuptools\nsetuptools.setup('x', version='1')\n",
			fields: []string{`'x'`},
		},
		{
			name:   "second call ignored",
			src:    "from setuptools import setup\nsetup(name='a')\nsetup(name='b')\n",
			fields: []string{"setup"},
		},
		{
			name:     "reassigned constant is no longer literal",
			src:      "V = '1'\nV = compute()\nfrom setuptools import setup\nsetup(version=V)\n",
			fields:   []string{"version"},
			passKeys: []string{"version"},
		},
		{
			name:     "augmented constant is no longer literal",
			src:      "R = ['a']\nR += ['b']\nfrom setuptools import setup\nsetup(install_requires=R)\n",
			fields:   []string{"install_requires"},
			passKeys: []string{"install_requires"},
		},
		{
			name:     "literal atoms pass through silently",
			src:      "from setuptools import setup\nsetup(zip_safe=False, classifiers=('A',), package_data={'': ['*.txt']})\n",
			passKeys: []string{"zip_safe", "classifiers", "package_data"},
		},
		{
			name: "inline if body and semicolons",
			src:  "from setuptools import setup\nX = 'n'; Y = 1\nif True: setup(name=X)\n",
		},
		{
			name:     "unknown entry point group",
			src:      "from setuptools import setup\nsetup(entry_points={'pytest11': ['p = pkg.plugin']})\n",
			passKeys: []string{"entry_points.pytest11"},
		},
		{
			name:     "malformed console script",
			src:      "from setuptools import setup\nsetup(entry_points={'console_scripts': ['nope']})\n",
			fields:   []string{"entry_points.console_scripts"},
			passKeys: []string{"entry_points.console_scripts"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, warnings, err := Parse(tt.src)
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			var fields []string
			for _, w := range warnings {
				fields = append(fields, w.Field)
			}
			if diff := cmp.Diff(tt.fields, fields); diff != "" {
				t.Errorf("warning fields mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.passKeys, p.Passthrough.Keys(), cmp.Comparer(func(a, b []string) bool {
				return strings.Join(a, ",") == strings.Join(b, ",")
			})); diff != "" {
				t.Errorf("passthrough keys mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParse_StringForms(t *testing.T) {
	src := `from setuptools import setup
setup(
    name=r"raw\name",
    version=u'1.0',
    description="""Tab\there
and "quotes" \x41é""",
    install_requires="""
        requests>=2  # http
        click
    """,
)
`
	p, warnings, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
	if p.Name != `raw\name` {
		t.Errorf("Name = %q", p.Name)
	}
	if p.Version != "1.0" {
		t.Errorf("Version = %q", p.Version)
	}
	if p.Description != "Tab\there\nand \"quotes\" Aé" {
		t.Errorf("Description = %q", p.Description)
	}
	if got := strings.Join(project.FormatRequirements(p.Dependencies), " "); got != "requests>=2 click" {
		t.Errorf("dependencies = %q", got)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code errors.Code
		line int
	}{
		{"no setup call", "import setuptools\nprint('hi')\n", errors.ErrCodeUnsupportedSyntax, 0},
		{"setup in function body", "def main():\n    setup(name='x')\n", errors.ErrCodeUnsupportedSyntax, 0},
		{"unterminated string", "setup(name=\"x)\n", errors.ErrCodeUnsupportedSyntax, 1},
		{"unclosed bracket", "setup(\n    name='x',\n", errors.ErrCodeUnsupportedSyntax, 1},
		{"mismatched bracket", "setup(name=['x')\n", errors.ErrCodeUnsupportedSyntax, 1},
		{"bad dedent", "if True:\n        x = 1\n    y = 2\n", errors.ErrCodeUnsupportedSyntax, 3},
		{"unexpected indent", "x = 1\n    y = 2\n", errors.ErrCodeUnsupportedSyntax, 2},
		{"invalid character", "setup(name=$)\n", errors.ErrCodeUnsupportedSyntax, 1},
		{"repeated keyword", "setup(name='a',\n      name='b')\n", errors.ErrCodeUnsupportedSyntax, 2},
		{"malformed constraint", "setup(\n    install_requires=['ok', 'bad=>1'],\n)\n", errors.ErrCodeMalformedConstraint, 2},
		{"duplicate dependency", "setup(install_requires=['a', 'A>=1'])\n", errors.ErrCodeDuplicateDependency, 1},
		{"duplicate in extras", "setup(extras_require={'t': ['x', 'x']})\n", errors.ErrCodeDuplicateDependency, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Parse(tt.src)
			if !errors.Is(err, tt.code) {
				t.Fatalf("Parse error = %v, want %s", err, tt.code)
			}
			if pos := errors.GetPosition(err); pos.Line != tt.line {
				t.Errorf("error line = %d, want %d (%v)", pos.Line, tt.line, err)
			}
		})
	}
}

func TestTokenizePositions(t *testing.T) {
	_, err := tokenize("setup(name=\"x)\n")
	if pos := errors.GetPosition(err); pos.Line != 1 || pos.Column != 12 {
		t.Errorf("unterminated string at %s, want 1:12", pos)
	}

	_, err = tokenize("setup(\n    name='x',\n")
	if pos := errors.GetPosition(err); pos.Line != 1 || pos.Column != 6 {
		t.Errorf("unclosed bracket at %s, want 1:6", pos)
	}

	toks, err := tokenize("x = (1 +\n     2)  # note\ny = 'a' \\\n    'b'\n")
	if err != nil {
		t.Fatal(err)
	}
	var kinds []tokenKind
	for _, tok := range toks {
		kinds = append(kinds, tok.kind)
	}
	want := []tokenKind{
		tokName, tokOp, tokOp, tokNumber, tokOp, tokNumber, tokOp, tokNewline,
		tokName, tokOp, tokString, tokString, tokNewline,
		tokEOF,
	}
	if diff := cmp.Diff(want, kinds); diff != "" {
		t.Errorf("token kinds mismatch (-want +got):\n%s", diff)
	}
}

func TestSerialize(t *testing.T) {
	p, _, err := Parse(readFixture(t, "spam_eggs.py"))
	if err != nil {
		t.Fatal(err)
	}
	out, warnings := Serialize(p)
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}

	g := goldie.New(t)
	g.Assert(t, "serialize", []byte(out))
}

func TestSerialize_Empty(t *testing.T) {
	out, warnings := Serialize(&project.Project{})
	if out != "from setuptools import setup\n\nsetup()\n" {
		t.Errorf("Serialize(empty) = %q", out)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}

	p, _, err := Parse(out)
	if err != nil {
		t.Fatalf("re-parse failed: %v", err)
	}
	if diff := cmp.Diff(&project.Project{}, p); diff != "" {
		t.Errorf("empty scaffold did not round-trip (-want +got):\n%s", diff)
	}
}

func TestSerialize_ForeignPassthrough(t *testing.T) {
	p := &project.Project{
		Name: "spam",
		Passthrough: project.Passthrough{
			Source:  "manifest",
			Entries: []project.Field{{Key: "tool.ruff", Value: "[tool.ruff]\nline-length = 100\n"}},
		},
	}
	out, warnings := Serialize(p)
	if strings.Contains(out, "ruff") {
		t.Errorf("foreign passthrough leaked into output:\n%s", out)
	}
	if len(warnings) != 1 || warnings[0].Kind != project.LossyTranslation {
		t.Errorf("warnings = %v, want one LossyTranslation", warnings)
	}
}

func TestRoundTrip(t *testing.T) {
	sources := map[string]string{
		"fixture":   readFixture(t, "spam_eggs.py"),
		"constants": readFixture(t, "constants.py"),
		"multiline raw value": `from setuptools import setup, find_packages
setup(
    name="x",
    packages=find_packages(
        exclude=["tests"],  # keep tests out
    ),
    extras_require={"empty": []},
    entry_points={"gui_scripts": []},
    **common,
)
`,
	}

	for name, src := range sources {
		t.Run(name, func(t *testing.T) {
			first, _, err := Parse(src)
			if err != nil {
				t.Fatal(err)
			}
			out, _ := Serialize(first)

			second, _, err := Parse(out)
			if err != nil {
				t.Fatalf("re-parse failed: %v\n%s", err, out)
			}
			if diff := cmp.Diff(first, second); diff != "" {
				t.Errorf("parse(serialize(m)) != m (-first +second):\n%s", diff)
			}

			again, _ := Serialize(second)
			if again != out {
				t.Errorf("serialization not idempotent:\nfirst:\n%s\nsecond:\n%s", out, again)
			}
		})
	}
}
