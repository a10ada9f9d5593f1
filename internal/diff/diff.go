// Package diff turns unified git diffs into the per-file changed ranges the
// detection engine consumes.
package diff

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"

	"github.com/sprite-ai/sigscan/internal/signal"
)

// File is one file's worth of parsed diff.
type File struct {
	OldName      string
	NewName      string
	IsNew        bool
	IsDeleted    bool
	IsRenamed    bool
	IsBinary     bool
	Fragments    []*gitdiff.TextFragment
	AddedLines   int
	DeletedLines int
}

// Name returns the display name for the file.
func (f *File) Name() string {
	switch {
	case f.IsRenamed:
		return fmt.Sprintf("%s -> %s", f.OldName, f.NewName)
	case f.IsNew:
		return f.NewName
	case f.IsDeleted:
		return f.OldName
	case f.NewName != "":
		return f.NewName
	}
	return f.OldName
}

// Path returns the new-file path used to key analysis results. Deleted
// files keep their old path.
func (f *File) Path() string {
	if f.NewName != "" {
		return f.NewName
	}
	return f.OldName
}

// Ranges converts the file's fragments into changed spans in new-file line
// numbers. A run of added lines with no deletions above it is an added
// range; an added run replacing deleted lines is a modified range; a pure
// deletion anchors a one-line deleted range at the join point.
func (f *File) Ranges() []signal.ChangedRange {
	var out []signal.ChangedRange
	for _, frag := range f.Fragments {
		newLine := int(frag.NewPosition)
		runStart := 0
		runLen := 0
		pendingDeletes := 0

		flush := func() {
			if runLen > 0 {
				typ := signal.RangeAdded
				if pendingDeletes > 0 {
					typ = signal.RangeModified
				}
				out = append(out, signal.ChangedRange{
					StartLine: runStart,
					EndLine:   runStart + runLen - 1,
					Type:      typ,
					LineCount: runLen,
				})
			} else if pendingDeletes > 0 {
				// Nothing replaced the removed lines; anchor on the line
				// now sitting at the join, clamped into the file.
				anchor := newLine
				if anchor < 1 {
					anchor = 1
				}
				out = append(out, signal.ChangedRange{
					StartLine: anchor,
					EndLine:   anchor,
					Type:      signal.RangeDeleted,
					LineCount: pendingDeletes,
				})
			}
			runStart, runLen, pendingDeletes = 0, 0, 0
		}

		for _, line := range frag.Lines {
			switch line.Op {
			case gitdiff.OpContext:
				flush()
				newLine++
			case gitdiff.OpDelete:
				pendingDeletes++
			case gitdiff.OpAdd:
				if runLen == 0 {
					runStart = newLine
				}
				runLen++
				newLine++
			}
		}
		flush()
	}
	return out
}

// Set holds the parsed diff for all files.
type Set struct {
	Files []*File
	Raw   string
}

// Stats returns aggregate statistics.
func (s *Set) Stats() (files, added, deleted int) {
	files = len(s.Files)
	for _, f := range s.Files {
		added += f.AddedLines
		deleted += f.DeletedLines
	}
	return
}

// ChangedRanges maps each analyzable path to its changed spans. Deleted and
// binary files carry no analyzable content and are skipped.
func (s *Set) ChangedRanges() map[string][]signal.ChangedRange {
	out := make(map[string][]signal.ChangedRange, len(s.Files))
	for _, f := range s.Files {
		if f.IsDeleted || f.IsBinary {
			continue
		}
		out[f.Path()] = f.Ranges()
	}
	return out
}

// Parse reads a unified diff string.
func Parse(raw string) (*Set, error) {
	parsed, _, err := gitdiff.Parse(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parsing diff: %w", err)
	}

	s := &Set{Raw: raw}
	for _, f := range parsed {
		df := &File{
			OldName:   f.OldName,
			NewName:   f.NewName,
			IsNew:     f.IsNew,
			IsDeleted: f.IsDelete,
			IsRenamed: f.IsRename,
			IsBinary:  f.IsBinary,
		}
		for _, frag := range f.TextFragments {
			df.Fragments = append(df.Fragments, frag)
			for _, line := range frag.Lines {
				switch line.Op {
				case gitdiff.OpAdd:
					df.AddedLines++
				case gitdiff.OpDelete:
					df.DeletedLines++
				}
			}
		}
		s.Files = append(s.Files, df)
	}
	return s, nil
}

// GitDiff runs `git diff` with the given arguments and returns the raw output.
func GitDiff(repoDir string, args ...string) (string, error) {
	cmdArgs := append([]string{"diff"}, args...)
	cmd := exec.Command("git", cmdArgs...)
	cmd.Dir = repoDir
	cmd.Stderr = os.Stderr

	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git diff: %w", err)
	}
	return string(out), nil
}

// GitDiffHead returns the diff of the working tree against HEAD. Line
// numbers in the result match the files on disk.
func GitDiffHead(repoDir string, contextLines int) (string, error) {
	return GitDiff(repoDir, fmt.Sprintf("-U%d", contextLines), "HEAD")
}

// GitDiffRange returns the diff for a commit range like "main...HEAD".
func GitDiffRange(repoDir string, commitRange string, contextLines int) (string, error) {
	return GitDiff(repoDir, fmt.Sprintf("-U%d", contextLines), commitRange)
}
