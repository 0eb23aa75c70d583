// SPDX-License-Identifier: MPL-2.0

// Package bundle assembles the static web bundle and its ZIP archive.
//
// A Manifest maps destination file names to their content: the rendered
// catalog (held in memory), static assets, and the compiled front-end
// artifacts (both copied verbatim). Two inputs claiming the same destination
// name is a CollisionError. The Assembler validates every input before it
// touches the output directory, replaces the directory wholesale, and then
// archives exactly the files it wrote.
package bundle
