package tree

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Overlay reads through to a base tree and keeps every write in memory.
// It backs dry runs: nothing ever reaches the base.
type Overlay struct {
	base    Tree
	changes *Memory
}

func NewOverlay(base Tree) *Overlay {
	return &Overlay{base: base, changes: NewMemory()}
}

func (o *Overlay) Exists(p string) bool {
	return o.changes.Exists(p) || o.base.Exists(p)
}

func (o *Overlay) Read(p string) ([]byte, error) {
	if o.changes.Exists(p) {
		return o.changes.Read(p)
	}
	return o.base.Read(p)
}

func (o *Overlay) Write(p string, data []byte) error {
	return o.changes.Write(p, data)
}

// Change is one file touched through the overlay.
type Change struct {
	Path    string
	Created bool
	Before  string
	After   string
}

// Changes lists pending writes against the base, sorted by path.
func (o *Overlay) Changes() []Change {
	var out []Change
	for _, p := range o.changes.Paths() {
		after, _ := o.changes.Read(p)
		c := Change{Path: p, After: string(after), Created: !o.base.Exists(p)}
		if !c.Created {
			before, _ := o.base.Read(p)
			c.Before = string(before)
		}
		out = append(out, c)
	}
	return out
}

// Preview renders a line diff of c with "+"/"-" prefixes.
func Preview(c Change) string {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(c.Before, c.After)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lines)

	var sb strings.Builder
	for _, d := range diffs {
		prefix := "  "
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			prefix = "+ "
		case diffmatchpatch.DiffDelete:
			prefix = "- "
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			sb.WriteString(prefix)
			sb.WriteString(strings.TrimSuffix(line, "\n"))
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
