// Package response splits raw model output into artifacts.
//
// The expected wire format is one block per file:
//
//	### filename: widget/widget.component.ts ###
//	```typescript
//	...
//	```
//
// Parsing is a forward, line-oriented pass with two states (outside a fence,
// inside a fence). A marker line always starts a new block, even when the
// previous fence was never closed.
package response

import (
	"path"
	"strings"

	"prototyper/internal/naming"

	"golang.org/x/text/unicode/norm"
)

const (
	fence        = "```"
	markerPrefix = "###"
	markerKey    = "filename:"
)

type state int

const (
	outsideFence state = iota
	insideFence
)

type block struct {
	path     string
	valid    bool
	contents map[Kind]string
}

type scanner struct {
	state state
	cur   *block

	fenceTag  string
	fenceBody []string

	artifacts []Artifact
	seen      map[string]int
}

// Parse returns the artifacts of raw in order of first appearance.
// It returns ErrParseEmpty when no block contributes a recognized fence.
func Parse(raw string) ([]Artifact, error) {
	s := &scanner{seen: make(map[string]int)}
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	for _, line := range strings.Split(raw, "\n") {
		s.scan(line)
	}
	s.finish()

	if len(s.artifacts) == 0 {
		return nil, ErrParseEmpty
	}
	return s.artifacts, nil
}

func (s *scanner) scan(line string) {
	if p, ok := parseMarker(line); ok {
		if s.state == insideFence {
			s.closeFence()
		}
		s.endBlock()
		s.startBlock(p)
		return
	}

	if s.state == insideFence {
		// A tagged opener means the model never closed the previous fence.
		if opener := strings.TrimSpace(line); strings.HasPrefix(opener, fence) {
			if _, ok := KindFromTag(leadingTag(strings.TrimPrefix(opener, fence))); ok {
				s.closeFence()
				s.openFence(opener)
				return
			}
		}
		trimmed := strings.TrimRight(line, " \t\r")
		if strings.HasSuffix(trimmed, fence) {
			if rest := strings.TrimSuffix(trimmed, fence); strings.TrimSpace(rest) != "" {
				s.fenceBody = append(s.fenceBody, rest)
			}
			s.closeFence()
			return
		}
		s.fenceBody = append(s.fenceBody, line)
		return
	}

	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, fence) {
		return
	}
	s.openFence(trimmed)
}

// openFence starts a fence from a trimmed line beginning with ```.
func (s *scanner) openFence(trimmed string) {
	rest := strings.TrimPrefix(trimmed, fence)
	tag := leadingTag(rest)
	rest = strings.TrimLeft(rest[len(tag):], " \t")

	s.state = insideFence
	s.fenceTag = tag
	s.fenceBody = s.fenceBody[:0]

	// ```css```  or  ```ts const x = 1;```
	if strings.HasSuffix(rest, fence) {
		if body := strings.TrimSuffix(rest, fence); strings.TrimSpace(body) != "" {
			s.fenceBody = append(s.fenceBody, body)
		}
		s.closeFence()
		return
	}
	if rest != "" {
		s.fenceBody = append(s.fenceBody, rest)
	}
}

func (s *scanner) finish() {
	if s.state == insideFence {
		s.closeFence()
	}
	s.endBlock()
}

func (s *scanner) startBlock(raw string) {
	p, ok := normalizePath(raw)
	s.cur = &block{path: p, valid: ok, contents: make(map[Kind]string)}
}

func (s *scanner) closeFence() {
	s.state = outsideFence
	if s.cur == nil || !s.cur.valid {
		return
	}

	kind, ok := KindFromTag(s.fenceTag)
	if !ok && s.fenceTag == "" {
		kind, ok = KindFromPath(s.cur.path)
	}
	if !ok {
		return
	}
	if _, dup := s.cur.contents[kind]; dup {
		return
	}
	s.cur.contents[kind] = cleanBody(s.fenceBody)
}

func (s *scanner) endBlock() {
	b := s.cur
	s.cur = nil
	if b == nil || !b.valid || len(b.contents) == 0 {
		return
	}

	if i, ok := s.seen[b.path]; ok {
		existing := s.artifacts[i]
		for k, v := range b.contents {
			if _, has := existing.Contents[k]; !has {
				existing.Contents[k] = v
			}
		}
		return
	}

	s.seen[b.path] = len(s.artifacts)
	s.artifacts = append(s.artifacts, Artifact{
		ID:         naming.Identifier(b.path),
		SourcePath: b.path,
		Contents:   b.contents,
	})
}

// parseMarker recognizes "### filename: <path> ###" and returns the raw path.
func parseMarker(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, markerPrefix) {
		return "", false
	}
	rest := strings.TrimSpace(strings.TrimLeft(trimmed, "#"))
	if len(rest) < len(markerKey) || !strings.EqualFold(rest[:len(markerKey)], markerKey) {
		return "", false
	}
	p := strings.TrimSpace(rest[len(markerKey):])
	p = strings.TrimRight(p, "# \t")
	p = strings.Trim(p, "`'\"*")
	return strings.TrimSpace(p), true
}

// normalizePath cleans p into a slash-separated path relative to the tree root.
// Paths that would escape the root are rejected.
func normalizePath(p string) (string, bool) {
	p = norm.NFC.String(strings.ReplaceAll(p, "\\", "/"))
	if strings.TrimSpace(p) == "" {
		return "", false
	}
	p = path.Clean(p)
	if p == ".." || strings.HasPrefix(p, "../") {
		return "", false
	}
	p = strings.TrimLeft(p, "/")
	if p == "" || p == "." {
		return "", false
	}
	return p, true
}

func leadingTag(s string) string {
	for i, r := range s {
		isTag := r == '+' || r == '#' || r == '-' || r == '_' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		if !isTag {
			return s[:i]
		}
	}
	return s
}

func cleanBody(lines []string) string {
	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	return strings.TrimRight(strings.Join(lines, "\n"), " \t\r\n")
}
