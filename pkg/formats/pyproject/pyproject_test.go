package pyproject

import (
	"fmt"
	"os"
	"path/filepath"
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

func mustParse(t *testing.T, text string) *project.Project {
	t.Helper()
	p, _, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return p
}

func mustSerialize(t *testing.T, p *project.Project, existing string) string {
	t.Helper()
	out, _, err := Serialize(p, existing)
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}
	return out
}

func TestSupports(t *testing.T) {
	if !Supports("pyproject.toml") {
		t.Error("Supports(pyproject.toml) = false")
	}
	for _, name := range []string{"setup.py", "requirements.txt", "Cargo.toml"} {
		if Supports(name) {
			t.Errorf("Supports(%q) = true", name)
		}
	}
}

func TestParse(t *testing.T) {
	p, warnings, err := Parse(readFixture(t, "full.toml"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	type fieldLine struct {
		Field string
		Line  int
	}
	var got []fieldLine
	for _, w := range warnings {
		if w.Kind != project.UnparsedField {
			t.Errorf("warning kind = %s, want UnparsedField", w.Kind)
		}
		got = append(got, fieldLine{w.Field, w.Line})
	}
	wantWarnings := []fieldLine{
		{"build-system.build-backend", 4},
		{"project.readme", 12},
		{"project.keywords", 19},
		{"project.urls", 34},
		{"tool.ruff", 37},
		{"tool.ruff.lint", 41},
	}
	if diff := cmp.Diff(wantWarnings, got); diff != "" {
		t.Errorf("warnings mismatch (-want +got):\n%s", diff)
	}

	if p.Name != "spam-eggs" || p.Version != "2020.0.0" || p.Description != "Spam and eggs" || p.RequiresPython != ">=3.9" {
		t.Errorf("metadata = %q %q %q %q", p.Name, p.Version, p.Description, p.RequiresPython)
	}

	deps := project.FormatRequirements(p.Dependencies)
	want := []string{"httpx", "gidgethub[httpx]>4.0.0", "django>2.1; os_name != 'nt'", "pywin32>=300; os_name == 'nt'"}
	if diff := cmp.Diff(want, deps); diff != "" {
		t.Errorf("dependencies mismatch (-want +got):\n%s", diff)
	}

	var groups []string
	for _, g := range p.Groups {
		groups = append(groups, g.Name)
	}
	if diff := cmp.Diff([]string{"cli", "gui"}, groups); diff != "" {
		t.Errorf("groups not sorted (-want +got):\n%s", diff)
	}

	wantEntryPoints := []project.EntryPointGroup{
		{Name: project.ConsoleScripts, Entries: []project.EntryPoint{{Name: "spam-cli", Object: "spam:main_cli"}}},
		{Name: project.GUIScripts, Entries: []project.EntryPoint{{Name: "spam-gui", Object: "spam:main_gui"}}},
	}
	if diff := cmp.Diff(wantEntryPoints, p.EntryPoints); diff != "" {
		t.Errorf("entry points mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"hatchling"}, project.FormatRequirements(p.BuildRequires)); diff != "" {
		t.Errorf("build requirements mismatch (-want +got):\n%s", diff)
	}

	wantPass := project.Passthrough{
		Source: Kind,
		Entries: []project.Field{
			{Key: "build-system.build-backend", Value: "# Build backend\nbuild-backend = \"hatchling.build\"\n"},
			{Key: "project.readme", Value: "# Long description\nreadme = \"README.md\"\n"},
			{Key: "project.keywords", Value: "keywords = [\"spam\", \"eggs\"]\n"},
			{Key: "project.urls", Value: "[project.urls]\nHomepage = \"https://example.com\"\n"},
			{Key: "tool.ruff", Value: "[tool.ruff]\nline-length = 100\n"},
			{Key: "tool.ruff.lint", Value: "# Lint settings\n[tool.ruff.lint]\nselect = [\n    \"E\",\n    \"F\",  # [not a header]\n]\n"},
		},
	}
	if diff := cmp.Diff(wantPass, p.Passthrough); diff != "" {
		t.Errorf("passthrough mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_ScriptOrder(t *testing.T) {
	p := mustParse(t, "[project.scripts]\nzeta = \"z:main\"\nalpha = \"a:main\"\n")
	g, ok := p.EntryPointGroup(project.ConsoleScripts)
	if !ok {
		t.Fatal("console_scripts group missing")
	}
	var names []string
	for _, e := range g.Entries {
		names = append(names, e.Name)
	}
	if diff := cmp.Diff([]string{"zeta", "alpha"}, names); diff != "" {
		t.Errorf("script order mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_WrongTypes(t *testing.T) {
	src := "[project]\nname = 1\ndependencies = \"requests\"\n"
	p, warnings, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if p.Name != "" || len(p.Dependencies) != 0 {
		t.Errorf("wrong-typed keys filled the model: %+v", p)
	}

	if len(warnings) != 2 {
		t.Fatalf("got %d warnings, want 2: %v", len(warnings), warnings)
	}
	for i, want := range []struct {
		field string
		line  int
	}{{"project.name", 2}, {"project.dependencies", 3}} {
		w := warnings[i]
		if w.Kind != project.UnparsedField || w.Field != want.field || w.Line != want.line {
			t.Errorf("warning %d = %+v, want UnparsedField for %s on line %d", i, w, want.field, want.line)
		}
	}

	if got := mustSerialize(t, p, ""); got != src {
		t.Errorf("Serialize = %q, want %q", got, src)
	}
}

func TestParse_RootProjectKeys(t *testing.T) {
	src := `title = "x"
project.name = "a"
project.urls.home = "https://example.com"
# Docs
project.urls.docs = "https://docs.example.com"
`
	p, warnings, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if p.Name != "a" {
		t.Errorf("Name = %q, want a", p.Name)
	}
	var fields []string
	for _, w := range warnings {
		fields = append(fields, fmt.Sprintf("%s@%d", w.Field, w.Line))
	}
	if diff := cmp.Diff([]string{"title@1", "project.urls@3"}, fields); diff != "" {
		t.Errorf("warnings mismatch (-want +got):\n%s", diff)
	}

	want := `title = "x"

[project]
name = "a"
urls.home = "https://example.com"
# Docs
urls.docs = "https://docs.example.com"
`
	out := mustSerialize(t, p, "")
	if out != want {
		t.Fatalf("Serialize =\n%s\nwant\n%s", out, want)
	}
	if diff := cmp.Diff(p, mustParse(t, out)); diff != "" {
		t.Errorf("round trip mismatch (-first +second):\n%s", diff)
	}
}

func TestParse_InlineProjectTable(t *testing.T) {
	p, warnings, err := Parse("project = {name = \"a\", readme = \"README.md\"}\n")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if p.Name != "a" || p.Passthrough.Len() != 0 {
		t.Errorf("model = %+v, want name only", p)
	}
	if len(warnings) != 1 || warnings[0].Field != "project.readme" || warnings[0].Line != 1 {
		t.Errorf("warnings = %v, want one for project.readme on line 1", warnings)
	}
}

func TestParse_BuildSystem(t *testing.T) {
	t.Run("dotted root keys", func(t *testing.T) {
		src := "build-system.requires = [\"setuptools>=61\"]\nbuild-system.build-backend = \"setuptools.build_meta\"\n\n[project]\nname = \"a\"\n"
		p := mustParse(t, src)
		if diff := cmp.Diff([]string{"setuptools>=61"}, project.FormatRequirements(p.BuildRequires)); diff != "" {
			t.Errorf("build requirements mismatch (-want +got):\n%s", diff)
		}
		want := `[build-system]
requires = [
    "setuptools>=61",
]
build-backend = "setuptools.build_meta"

[project]
name = "a"
`
		if got := mustSerialize(t, p, ""); got != want {
			t.Errorf("Serialize =\n%s\nwant\n%s", got, want)
		}
	})

	t.Run("wrong type", func(t *testing.T) {
		src := "[build-system]\nrequires = \"setuptools\"\n"
		p, warnings, err := Parse(src)
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		if len(p.BuildRequires) != 0 {
			t.Errorf("BuildRequires = %v, want none", p.BuildRequires)
		}
		if len(warnings) != 1 || warnings[0].Field != "build-system.requires" || warnings[0].Line != 2 {
			t.Errorf("warnings = %v, want one for build-system.requires on line 2", warnings)
		}
		if got := mustSerialize(t, p, ""); got != src+"\n[project]\n" {
			t.Errorf("Serialize = %q", got)
		}
	})

	t.Run("bad requirement", func(t *testing.T) {
		_, _, err := Parse("[build-system]\nrequires = [\"setuptools>>61\"]\n")
		if !errors.Is(err, errors.ErrCodeMalformedConstraint) {
			t.Errorf("Parse error = %v, want %s", err, errors.ErrCodeMalformedConstraint)
		}
	})
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code errors.Code
		line int // 0 when only the code is checked
	}{
		{"duplicate key", "[project]\nname = \"a\"\nname = \"b\"\n", errors.ErrCodeMalformedDocument, 0},
		{"redefined table", "[project]\nname = \"a\"\n[project]\nversion = \"1\"\n", errors.ErrCodeMalformedDocument, 0},
		{"unterminated header", "[project\nname = \"a\"\n", errors.ErrCodeMalformedDocument, 0},
		{"bad constraint", "[project]\ndependencies = [\n    \"ok\",\n    \"bad=>1\",\n]\n", errors.ErrCodeMalformedConstraint, 4},
		{"duplicate dependency", "[project]\ndependencies = [\"Foo\", \"foo>=1\"]\n", errors.ErrCodeDuplicateDependency, 2},
		{"bad group entry", "[project.optional-dependencies]\ntest = [\n    \"pytest>>7\",\n]\n", errors.ErrCodeMalformedConstraint, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Parse(tt.src)
			if !errors.Is(err, tt.code) {
				t.Fatalf("Parse error = %v, want %s", err, tt.code)
			}
			if tt.line > 0 {
				if pos := errors.GetPosition(err); pos.Line != tt.line {
					t.Errorf("error line = %d, want %d", pos.Line, tt.line)
				}
			}
		})
	}
}

func TestParse_ArrayTables(t *testing.T) {
	src := `[[tool.mypy.overrides]]
module = "a"

[[tool.mypy.overrides]]
module = "b"

[project]
name = "x"
`
	p := mustParse(t, src)
	if diff := cmp.Diff([]string{"tool.mypy.overrides[0]", "tool.mypy.overrides[1]"}, p.Passthrough.Keys()); diff != "" {
		t.Errorf("passthrough keys mismatch (-want +got):\n%s", diff)
	}
	if p.Passthrough.Lead != 2 {
		t.Errorf("lead = %d, want 2", p.Passthrough.Lead)
	}
	if got := mustSerialize(t, p, ""); got != src {
		t.Errorf("Serialize =\n%s\nwant\n%s", got, src)
	}
}

func TestSerialize(t *testing.T) {
	p := mustParse(t, readFixture(t, "full.toml"))
	out, warnings, err := Serialize(p, "")
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
	g := goldie.New(t)
	g.Assert(t, "serialize", []byte(out))
}

func TestSerialize_Empty(t *testing.T) {
	out := mustSerialize(t, &project.Project{}, "")
	if out != "[project]\n" {
		t.Errorf("Serialize(empty) = %q, want %q", out, "[project]\n")
	}
	p, warnings, err := Parse(out)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
	if diff := cmp.Diff(&project.Project{}, p); diff != "" {
		t.Errorf("empty manifest mismatch (-want +got):\n%s", diff)
	}
}

func TestSerialize_Quoting(t *testing.T) {
	p := &project.Project{
		Description: `say "hi"` + "\n",
		Groups:      []project.Group{{Name: "with space"}},
		EntryPoints: []project.EntryPointGroup{{
			Name:    project.ConsoleScripts,
			Entries: []project.EntryPoint{{Name: "my.tool", Object: "pkg:main"}},
		}},
	}
	out := mustSerialize(t, p, "")
	want := `[project]
description = "say \"hi\"\n"

[project.scripts]
"my.tool" = "pkg:main"

[project.optional-dependencies]
"with space" = []
`
	if out != want {
		t.Errorf("Serialize =\n%s\nwant\n%s", out, want)
	}

	back := mustParse(t, out)
	if diff := cmp.Diff(p, back); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestSerialize_Warnings(t *testing.T) {
	p := &project.Project{
		Name: "spam",
		EntryPoints: []project.EntryPointGroup{{
			Name:    "pytest11",
			Entries: []project.EntryPoint{{Name: "spam", Object: "spam.plugin"}},
		}},
		Passthrough: project.Passthrough{
			Source:  "script",
			Entries: []project.Field{{Key: "zip_safe", Value: "False"}},
		},
	}
	out, warnings, err := Serialize(p, "")
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}
	if out != "[project]\nname = \"spam\"\n" {
		t.Errorf("Serialize = %q", out)
	}
	if len(warnings) != 2 {
		t.Fatalf("got %d warnings, want 2: %v", len(warnings), warnings)
	}
	if w := warnings[0]; w.Kind != project.LossyTranslation || w.Field != "passthrough" {
		t.Errorf("first warning = %+v, want foreign passthrough", w)
	}
	if w := warnings[1]; w.Kind != project.LossyTranslation || w.Field != "pytest11" {
		t.Errorf("second warning = %+v, want lossy pytest11", w)
	}
}

func TestSerialize_MergeBase(t *testing.T) {
	existing := `[build-system]
requires = ["setuptools"]

[project]
name = "old"
readme = "README.md"
dependencies = ["old-dep"]

[tool.black]
line-length = 88
`
	deps, err := project.ParseRequirements(project.DefaultGroup, []string{"requests"})
	if err != nil {
		t.Fatal(err)
	}
	p := &project.Project{Name: "new", Dependencies: deps}

	want := `[build-system]
requires = [
    "setuptools",
]

[project]
name = "new"
dependencies = [
    "requests",
]
readme = "README.md"

[tool.black]
line-length = 88
`
	if got := mustSerialize(t, p, existing); got != want {
		t.Errorf("Serialize with merge base =\n%s\nwant\n%s", got, want)
	}
}

func TestSerialize_MalformedMergeBase(t *testing.T) {
	_, _, err := Serialize(&project.Project{}, "[project]\nname = \"a\"\nname = \"b\"\n")
	if !errors.Is(err, errors.ErrCodeMalformedDocument) {
		t.Errorf("Serialize error = %v, want %s", err, errors.ErrCodeMalformedDocument)
	}
}

func TestMerge(t *testing.T) {
	base := project.Passthrough{
		Source: Kind,
		Lead:   1,
		Entries: []project.Field{
			{Key: "build-system", Value: "[build-system]\n"},
			{Key: "project.readme", Value: "readme = \"A\"\n"},
			{Key: "tool.x", Value: "[tool.x]\na = 1\n"},
		},
	}
	model := project.Passthrough{
		Source: Kind,
		Entries: []project.Field{
			{Key: "project.readme", Value: "readme = \"B\"\n"},
			{Key: "project.keywords", Value: "keywords = []\n"},
			{Key: "tool.x", Value: "[tool.x]\na = 2\n"},
			{Key: "tool.y", Value: "[tool.y]\n"},
		},
	}
	want := project.Passthrough{
		Source: Kind,
		Lead:   1,
		Entries: []project.Field{
			{Key: "build-system", Value: "[build-system]\n"},
			{Key: "project.readme", Value: "readme = \"B\"\n"},
			{Key: "project.keywords", Value: "keywords = []\n"},
			{Key: "tool.x", Value: "[tool.x]\na = 1\n"},
			{Key: "tool.y", Value: "[tool.y]\n"},
		},
	}
	if diff := cmp.Diff(want, merge(base, model)); diff != "" {
		t.Errorf("merge mismatch (-want +got):\n%s", diff)
	}
}

func TestRoundTrip(t *testing.T) {
	docs := map[string]string{
		"full":    readFixture(t, "full.toml"),
		"root":    "title = \"x\"\n\n[project]\nname = \"a\"\nauthors = [{name = \"A\"}]\n\n[tool.pytest.ini_options]\naddopts = \"-q\"\n",
		"strings": "[project]\ndescription = '''\nmulti\n[line]\n'''\nlicense = {text = \"MIT\"}\n",
		"empty":   "",
	}
	for name, doc := range docs {
		t.Run(name, func(t *testing.T) {
			first := mustParse(t, doc)
			out := mustSerialize(t, first, "")
			second := mustParse(t, out)
			if diff := cmp.Diff(first, second); diff != "" {
				t.Errorf("round trip mismatch (-first +second):\n%s", diff)
			}
			if again := mustSerialize(t, second, ""); again != out {
				t.Errorf("Serialize is not idempotent:\n%s\nthen\n%s", out, again)
			}
		})
	}
}
