package response

import (
	"errors"
	"path"
	"sort"
	"strings"
)

// ErrParseEmpty is returned when a response yields no usable artifact.
var ErrParseEmpty = errors.New("response: no artifacts found in model output")

// Kind is the semantic type of a fenced segment.
type Kind int

const (
	Script Kind = iota
	Markup
	Style
)

func (k Kind) String() string {
	switch k {
	case Script:
		return "script"
	case Markup:
		return "markup"
	case Style:
		return "style"
	}
	return "unknown"
}

// Extension is the file extension a staged file of this kind receives.
func (k Kind) Extension() string {
	switch k {
	case Script:
		return ".ts"
	case Markup:
		return ".html"
	case Style:
		return ".scss"
	}
	return ""
}

var tagKinds = map[string]Kind{
	"typescript": Script,
	"ts":         Script,
	"html":       Markup,
	"scss":       Style,
	"css":        Style,
}

var extKinds = map[string]Kind{
	".ts":   Script,
	".html": Markup,
	".scss": Style,
	".css":  Style,
}

// KindFromTag maps a fence language tag to its kind.
func KindFromTag(tag string) (Kind, bool) {
	k, ok := tagKinds[strings.ToLower(strings.TrimSpace(tag))]
	return k, ok
}

// KindFromPath maps a file extension to its kind.
func KindFromPath(p string) (Kind, bool) {
	k, ok := extKinds[strings.ToLower(path.Ext(p))]
	return k, ok
}

// Artifact is one generated source unit: a path and its contents by kind.
type Artifact struct {
	ID         string
	SourcePath string
	Contents   map[Kind]string
}

// Content returns the body for kind k.
func (a Artifact) Content(k Kind) (string, bool) {
	c, ok := a.Contents[k]
	return c, ok
}

// Kinds lists the populated kinds in Script, Markup, Style order.
func (a Artifact) Kinds() []Kind {
	kinds := make([]Kind, 0, len(a.Contents))
	for k := range a.Contents {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
