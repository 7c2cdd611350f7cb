// Package project defines the canonical project model shared by every
// format parser and serializer.
//
// # Overview
//
// A [Project] captures what a Python project declares about its packaging
// metadata and dependencies, independent of the file format it came from:
//
//   - Name, Version, Description, RequiresPython: optional scalar metadata
//   - Dependencies: the default dependency group, in declaration order
//   - Groups: named optional dependency groups ("extras")
//   - EntryPoints: console and GUI script declarations
//   - Passthrough: format-specific data with no canonical slot
//
// A Project is built by exactly one parser, read by exactly one serializer
// and then discarded. It is never shared between goroutines.
//
// # Requirements
//
// [ParseRequirement] splits a PEP 508 requirement string into a
// [Dependency]; [Dependency.String] is its inverse:
//
//	dep, _ := project.ParseRequirement("Flask[async]==2.1; python_version >= '3.8'")
//	dep.Name        // "flask"
//	dep.Extras      // ["async"]
//	dep.Constraints // [==2.1]
//	dep.Marker      // "python_version >= '3.8'"
//
// # Passthrough
//
// [Passthrough] is an ordered string-to-raw-text mapping. Its Source records
// which format produced it; serializers only re-emit passthrough from their
// own format and report anything else as a [LossyTranslation] warning.
package project
