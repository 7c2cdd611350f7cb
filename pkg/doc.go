// Package pkg provides the core libraries for babelone, a translator between
// Python build specification formats.
//
// # Overview
//
// babelone reads a requirements.txt, setup.py or pyproject.toml into one
// canonical project model and writes that model back out in any of the
// three formats. Whatever a target format cannot express is reported as a
// warning instead of being dropped silently. Sections a format does not
// understand travel along as passthrough, so a same-format round trip keeps
// them intact.
//
// # Architecture
//
// The data flow of a translation:
//
//	requirements.txt | setup.py | pyproject.toml
//	         ↓
//	    [formats] package (parse into the model)
//	         ↓
//	    [project] package (canonical model + warnings)
//	         ↓
//	    [formats] package (serialize, optionally over a merge base)
//	         ↓
//	requirements.txt | setup.py | pyproject.toml
//
// # Quick Start
//
//	import "github.com/matzehuels/babelone/pkg/translate"
//
//	res, err := translate.Translate(translate.Script, setupPy,
//	    translate.Manifest, "", translate.Options{})
//	if err != nil {
//	    return err
//	}
//	for _, w := range res.Warnings {
//	    fmt.Println(w)
//	}
//	fmt.Print(res.Text)
//
// # Main Packages
//
// [project] - The canonical model: metadata, dependencies, optional groups,
// entry points and passthrough, plus requirement string parsing.
//
// [version] - PEP 440 style versions and version specifiers.
//
// [formats/requirements], [formats/setup], [formats/pyproject] - One parser
// and serializer per file format.
//
// [translate] - Format kinds, detection from file names and the translate
// and create operations.
//
// [io] - File reading and atomic writing, plus JSON and TOML export of the
// model.
//
// [errors] - Error codes shared by every package.
//
// [buildinfo] - Version information set at build time.
//
// [project]: https://pkg.go.dev/github.com/matzehuels/babelone/pkg/project
// [version]: https://pkg.go.dev/github.com/matzehuels/babelone/pkg/version
// [formats/requirements]: https://pkg.go.dev/github.com/matzehuels/babelone/pkg/formats/requirements
// [formats/setup]: https://pkg.go.dev/github.com/matzehuels/babelone/pkg/formats/setup
// [formats/pyproject]: https://pkg.go.dev/github.com/matzehuels/babelone/pkg/formats/pyproject
// [translate]: https://pkg.go.dev/github.com/matzehuels/babelone/pkg/translate
// [io]: https://pkg.go.dev/github.com/matzehuels/babelone/pkg/io
// [errors]: https://pkg.go.dev/github.com/matzehuels/babelone/pkg/errors
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/babelone/pkg/buildinfo
package pkg
