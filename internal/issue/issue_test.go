// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"
	"testing"
)

var allIds = []Id{
	DiscoveryFailedId,
	RomReadFailedId,
	EncodingFailedId,
	AssemblyFailedId,
	NameCollisionId,
	ConfigLoadFailedId,
	PrebuildFailedId,
	ArchiveInvalidId,
}

func TestId_Constants(t *testing.T) {
	seen := make(map[Id]bool)
	for _, id := range allIds {
		if seen[id] {
			t.Errorf("duplicate ID: %d", id)
		}
		seen[id] = true
	}

	if DiscoveryFailedId != 1 {
		t.Errorf("DiscoveryFailedId = %d, want 1", DiscoveryFailedId)
	}
}

func TestIssue_Id(t *testing.T) {
	issue := Get(NameCollisionId)
	if issue == nil {
		t.Fatal("Get(NameCollisionId) returned nil")
	}
	if issue.Id() != NameCollisionId {
		t.Errorf("issue.Id() = %d, want %d", issue.Id(), NameCollisionId)
	}
}

func TestIssue_MarkdownMsg(t *testing.T) {
	issue := Get(ConfigLoadFailedId)
	if issue == nil {
		t.Fatal("Get(ConfigLoadFailedId) returned nil")
	}
	if !strings.Contains(string(issue.MarkdownMsg()), "oxi8pack config init") {
		t.Errorf("config issue should suggest 'config init', got:\n%s", issue.MarkdownMsg())
	}
}

func TestGet_Unknown(t *testing.T) {
	if Get(Id(0)) != nil {
		t.Error("Get(0) should return nil")
	}
	if Get(Id(999)) != nil {
		t.Error("Get(999) should return nil")
	}
}

func TestValues_Ordered(t *testing.T) {
	values := Values()
	if len(values) != len(allIds) {
		t.Fatalf("Values() returned %d issues, want %d", len(values), len(allIds))
	}
	for i, issue := range values {
		if issue.Id() != allIds[i] {
			t.Errorf("Values()[%d].Id() = %d, want %d", i, issue.Id(), allIds[i])
		}
	}
}

func TestIssue_Render_WithLinks(t *testing.T) {
	originalRender := render
	defer func() { render = originalRender }()

	var captured string
	render = func(in string, stylePath string) (string, error) {
		captured = in
		return in, nil
	}

	issue := &Issue{
		id:       RomReadFailedId,
		mdMsg:    "# Test",
		docLinks: []HttpLink{"https://docs.example.com"},
		extLinks: []HttpLink{"https://ext.example.com"},
	}

	if _, err := issue.Render("dark"); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(captured, "See also") {
		t.Error("rendered markdown should contain 'See also'")
	}
	if !strings.Contains(captured, "https://docs.example.com") || !strings.Contains(captured, "https://ext.example.com") {
		t.Errorf("rendered markdown should contain both links, got:\n%s", captured)
	}
}

func TestIssue_Render_NoLinks(t *testing.T) {
	originalRender := render
	defer func() { render = originalRender }()

	render = func(in string, stylePath string) (string, error) {
		return in, nil
	}

	issue := &Issue{id: RomReadFailedId, mdMsg: "# Test"}
	rendered, err := issue.Render("")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if strings.Contains(rendered, "See also") {
		t.Error("rendered markdown should not contain 'See also' without links")
	}
}

func TestIssue_LinksAreCopies(t *testing.T) {
	issue := &Issue{docLinks: []HttpLink{"a"}, extLinks: []HttpLink{"b"}}
	issue.DocLinks()[0] = "changed"
	issue.ExtLinks()[0] = "changed"
	if issue.docLinks[0] != "a" || issue.extLinks[0] != "b" {
		t.Error("link accessors must return copies")
	}
}

func TestAllIssuesAreRenderable(t *testing.T) {
	originalRender := render
	defer func() { render = originalRender }()

	render = func(in string, stylePath string) (string, error) {
		return in, nil
	}

	for _, issue := range Values() {
		if issue.MarkdownMsg() == "" {
			t.Errorf("Issue %d has empty MarkdownMsg", issue.Id())
		}
		rendered, err := issue.Render("")
		if err != nil {
			t.Errorf("Issue %d failed to render: %v", issue.Id(), err)
		}
		if rendered == "" {
			t.Errorf("Issue %d rendered to empty string", issue.Id())
		}
	}
}

func TestIssuesMapCompleteness(t *testing.T) {
	for _, id := range allIds {
		if Get(id) == nil {
			t.Errorf("Issue with ID %d is not in the issues map", id)
		}
	}
}
