// SPDX-License-Identifier: MPL-2.0

// Package romsource discovers ROM images under the classification roots.
//
// Each dialect group (CHIP-8, SUPER-CHIP, community examples) is bound to one
// root directory. A file qualifies as a ROM only when its base name has no "."
// in it; everything else sharing the directory is treated as metadata. Files
// from the community group are additionally skipped when their path contains
// one of the configured exclusion substrings (case-insensitive).
//
// Discovery always returns entries in lexicographic order of their path
// relative to the group root, so two runs over the same tree yield the same
// sequence regardless of the order the filesystem hands entries back.
package romsource
