// Package io reads and writes build specification files and exports the
// canonical project model for inspection.
//
// # Files
//
// [ReadText] loads a specification file, normalizing a UTF-8 byte order
// mark away. [WriteText] replaces a file atomically: content is written to
// a temporary file in the same directory and renamed over the target, so a
// failed translation never leaves a half-written pyproject.toml behind.
//
// # Export
//
// [WriteJSON], [WriteTOML] and [WriteYAML] render a [project.Project] as a document with
// one entry per dependency:
//
//	{
//	  "name": "spam",
//	  "dependencies": [
//	    {"name": "requests", "constraints": [">=2.0"], "requirement": "requests>=2.0"}
//	  ],
//	  "groups": [
//	    {"name": "test", "dependencies": [{"name": "pytest", "requirement": "pytest"}]}
//	  ]
//	}
//
// Passthrough entries are exported with their raw text. The export is for
// people and tools reading the model; it is not read back.
package io
