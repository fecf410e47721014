// Package staging writes parsed artifacts into a project tree.
package staging

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"prototyper/internal/response"
	"prototyper/internal/tree"
)

// ErrArtifactWriteFailed marks a per-file write failure. It never aborts staging.
var ErrArtifactWriteFailed = errors.New("staging: artifact write failed")

// WriteError records one failed file write.
type WriteError struct {
	ArtifactID string
	Path       string
	Err        error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() []error {
	return []error{ErrArtifactWriteFailed, e.Err}
}

// Staged is an artifact whose files were all written.
type Staged struct {
	Artifact response.Artifact
	Files    map[response.Kind]string
}

// Report is the outcome of staging one response.
type Report struct {
	Written  []string
	Failures []*WriteError
	Staged   []Staged
}

// Primary is the first fully staged artifact.
func (r *Report) Primary() (Staged, bool) {
	if len(r.Staged) == 0 {
		return Staged{}, false
	}
	return r.Staged[0], true
}

// FilePath is where kind k of artifact a lands under dir. A source path that
// already ends in an extension of k is used as is; an extension of another kind
// is swapped for k's.
func FilePath(dir string, a response.Artifact, k response.Kind) string {
	p := path.Join(dir, a.SourcePath)
	if existing, ok := response.KindFromPath(p); ok {
		if existing == k {
			return p
		}
		p = strings.TrimSuffix(p, path.Ext(p))
	}
	return p + k.Extension()
}

// WriteFile creates p or replaces its whole content.
func WriteFile(t tree.Tree, p string, content string) error {
	return t.Write(p, []byte(content))
}

// Stage writes every populated kind of every artifact under dir. Files are
// written one by one; a failure is recorded and the next file is still tried.
// Nothing already written is rolled back.
func Stage(t tree.Tree, dir string, artifacts []response.Artifact) *Report {
	report := &Report{}
	for _, a := range artifacts {
		files := make(map[response.Kind]string, len(a.Contents))
		ok := true
		for _, k := range a.Kinds() {
			p := FilePath(dir, a, k)
			content, _ := a.Content(k)
			if err := WriteFile(t, p, content); err != nil {
				report.Failures = append(report.Failures, &WriteError{ArtifactID: a.ID, Path: p, Err: err})
				ok = false
				continue
			}
			report.Written = append(report.Written, p)
			files[k] = p
		}
		if ok {
			report.Staged = append(report.Staged, Staged{Artifact: a, Files: files})
		}
	}
	return report
}
