package tui

import "testing"

func TestPageLayoutUpdate(t *testing.T) {
	cases := []struct {
		name         string
		width        int
		height       int
		sidebar      bool
		sidebarWidth int
		editorWidth  int
		editorHeight int
	}{
		{name: "narrow", width: 80, height: 24, sidebar: true, sidebarWidth: 28, editorWidth: 50, editorHeight: 19},
		{name: "collapsed", width: 80, height: 24, sidebar: false, sidebarWidth: 0, editorWidth: 78, editorHeight: 19},
		{name: "tiny", width: 30, height: 5, sidebar: true, sidebarWidth: 28, editorWidth: minEditorWidth, editorHeight: minEditorHeight},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			layout := newPageLayout()
			layout.Update(tc.width, tc.height, tc.sidebar)
			if layout.sidebarWidth != tc.sidebarWidth {
				t.Fatalf("sidebar width mismatch: got %d want %d", layout.sidebarWidth, tc.sidebarWidth)
			}
			if layout.editorWidth != tc.editorWidth {
				t.Fatalf("editor width mismatch: got %d want %d", layout.editorWidth, tc.editorWidth)
			}
			if layout.editorHeight != tc.editorHeight {
				t.Fatalf("editor height mismatch: got %d want %d", layout.editorHeight, tc.editorHeight)
			}
		})
	}
}
