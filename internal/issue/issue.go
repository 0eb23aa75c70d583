// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"cmp"
	"slices"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
)

type Id int

const (
	DiscoveryFailedId Id = iota + 1
	RomReadFailedId
	EncodingFailedId
	AssemblyFailedId
	NameCollisionId
	ConfigLoadFailedId
	PrebuildFailedId
	ArchiveInvalidId
)

type MarkdownMsg string

type HttpLink string

type Renderer interface {
	Render(in string, stylePath string) (string, error)
}

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink
	extLinks []HttpLink // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd += "\n\n## See also:\n"
		for _, link := range i.docLinks {
			extraMd += "- [" + string(link) + "](" + string(link) + ")\n"
		}
		for _, link := range i.extLinks {
			extraMd += "- [" + string(link) + "](" + string(link) + ")\n"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	discoveryFailedIssue = &Issue{
		id: DiscoveryFailedId,
		mdMsg: `
# ROM discovery failed!

One of the classification roots could not be scanned.

## Things you can try:
- Check that every root exists and is a directory:
~~~
$ oxi8pack config show
~~~
- Point the root at the right place in your config file:
~~~cue
base_set_root:     "roms/chip8"
extended_set_root: "roms/schip"
community_root:    "roms/octo"
~~~`,
	}

	romReadFailedIssue = &Issue{
		id: RomReadFailedId,
		mdMsg: `
# A ROM file could not be read!

A file that qualified as a ROM was found but reading it failed.

## Things you can try:
- Check the file permissions
- Remove broken symlinks from the ROM directories`,
	}

	encodingFailedIssue = &Issue{
		id: EncodingFailedId,
		mdMsg: `
# A ROM could not be encoded!

The ROM is larger than the configured ` + "`max_rom_size`" + `.

## Things you can try:
- Raise ` + "`max_rom_size`" + ` or set it to ` + "`0`" + ` to disable the limit
- Move the oversized file out of the ROM directories`,
	}

	assemblyFailedIssue = &Issue{
		id: AssemblyFailedId,
		mdMsg: `
# The bundle could not be assembled!

A static asset or compiled artifact is missing, or the output location is not writable.

## Things you can try:
- Build the front-end first so its compiled artifacts exist
- Set a ` + "`prebuild`" + ` script that produces them:
~~~cue
prebuild: {
	script: "cargo web deploy --release"
}
~~~
- Check that ` + "`output_dir`" + ` and ` + "`archive_path`" + ` are writable`,
	}

	nameCollisionIssue = &Issue{
		id: NameCollisionId,
		mdMsg: `
# Two inputs want the same file name!

The bundle directory is flat, so every static asset, compiled artifact and the
catalog must have a distinct file name.

## Things you can try:
- Give one of the inputs an explicit destination name:
~~~cue
static_assets: [
	{path: "static/app.js", name: "static-app.js"},
]
~~~`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

The configuration file could not be read or does not match the schema.

## Things you can try:
- Print the effective configuration and where it was loaded from:
~~~
$ oxi8pack config show
$ oxi8pack config path
~~~
- Write a fresh file with every default filled in:
~~~
$ oxi8pack config init
~~~`,
	}

	prebuildFailedIssue = &Issue{
		id: PrebuildFailedId,
		mdMsg: `
# The prebuild script failed!

The script configured under ` + "`prebuild.script`" + ` exited with an error, so no
bundle was produced.

## Things you can try:
- Run the script by hand in ` + "`prebuild.dir`" + ` to see its output
- Re-run with ` + "`--verbose`" + ` for more detail`,
	}

	archiveInvalidIssue = &Issue{
		id: ArchiveInvalidId,
		mdMsg: `
# The archive does not match a valid bundle!

The archive could not be opened, or its catalog links do not decode.

## Things you can try:
- Rebuild the bundle:
~~~
$ oxi8pack build
~~~`,
	}

	issues = map[Id]*Issue{
		discoveryFailedIssue.Id():  discoveryFailedIssue,
		romReadFailedIssue.Id():    romReadFailedIssue,
		encodingFailedIssue.Id():   encodingFailedIssue,
		assemblyFailedIssue.Id():   assemblyFailedIssue,
		nameCollisionIssue.Id():    nameCollisionIssue,
		configLoadFailedIssue.Id(): configLoadFailedIssue,
		prebuildFailedIssue.Id():   prebuildFailedIssue,
		archiveInvalidIssue.Id():   archiveInvalidIssue,
	}
)

// Values returns every catalog entry ordered by id.
func Values() []*Issue {
	out := maps.Values(issues)
	slices.SortFunc(out, func(a, b *Issue) int { return cmp.Compare(a.id, b.id) })
	return out
}

func Get(id Id) *Issue {
	return issues[id]
}
