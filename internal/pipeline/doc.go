// SPDX-License-Identifier: MPL-2.0

// Package pipeline drives one packaging run: the optional prebuild script,
// ROM discovery, catalog rendering, bundle assembly and archiving.
//
// Every stage failure is fatal and reported as a single StageError naming the
// stage and the offending path. When assembly or archiving fails, the output
// directory and archive are removed so a partial bundle is never left behind.
package pipeline
