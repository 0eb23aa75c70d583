// SPDX-License-Identifier: MPL-2.0

package catalog

import (
	"html"
	"regexp"
)

// linkPattern matches the ROM items Render writes. It is not a general HTML
// parser and only needs to understand catalogs produced by this package.
var linkPattern = regexp.MustCompile(`<li><a href="\./#([A-Za-z0-9+/=]*)">([^<]*)</a></li>`)

// Link is a ROM entry read back from a rendered catalog.
type Link struct {
	Name  string
	Token string
}

// ParseLinks extracts the ROM links from a rendered catalog in document order.
func ParseLinks(doc []byte) []Link {
	matches := linkPattern.FindAllSubmatch(doc, -1)
	links := make([]Link, 0, len(matches))
	for _, m := range matches {
		links = append(links, Link{
			Token: string(m[1]),
			Name:  html.UnescapeString(string(m[2])),
		})
	}
	return links
}
