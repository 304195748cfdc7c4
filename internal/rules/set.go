package rules

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/go-gitfilter/gitfilter/internal/filter"
	"github.com/go-gitfilter/gitfilter/internal/model"
)

// ErrInvalidDocument is returned when a rules document fails schema
// validation, so a malformed rules file fails fast with a readable error
// instead of silently matching nothing.
var ErrInvalidDocument = errors.New("rules: document failed schema validation")

// Set is a compiled Document, ready to produce a filter.Callback.
type Set struct {
	doc *Document
}

// Compile validates and compiles raw into a Set.
func Compile(raw []byte) (*Set, error) {
	doc, err := Parse(raw)
	if err != nil {
		return nil, err
	}

	return &Set{doc: doc}, nil
}

// Callback returns the filter.Callback implementing this rule set: commits
// from a dropped email are dropped outright, refs are renamed, and file ops
// are pruned to the include/exclude globs (a commit left with zero file
// ops after pruning is still kept — whole-commit dropping is driven only by
// DropEmails).
func (s *Set) Callback() filter.Callback {
	return func(obj *model.StructuredObject) (bool, error) {
		if obj.IsCommit() {
			for _, frag := range s.doc.DropEmails {
				if strings.Contains(obj.Committer.Email, frag) {
					return false, nil
				}
			}

			if renamed, ok := s.doc.RenameRefs[obj.RefName]; ok {
				obj.RefName = renamed
			}

			if obj.HasReset {
				if renamed, ok := s.doc.RenameRefs[obj.ResetRef]; ok {
					obj.ResetRef = renamed
				}
			}

			obj.FileOps = s.pruneFileOps(obj.FileOps)
		}

		return true, nil
	}
}

func (s *Set) pruneFileOps(ops []model.FileOp) []model.FileOp {
	if len(s.doc.Include) == 0 && len(s.doc.Exclude) == 0 {
		return ops
	}

	kept := make([]model.FileOp, 0, len(ops))

	for _, op := range ops {
		if s.keepsPath(op) {
			kept = append(kept, op)
		}
	}

	return kept
}

// keepsPath reports whether op's primary path (Path for Modify/Delete/
// NoteModify, Dst for Copy/Rename, always true for DeleteAll) survives the
// include/exclude globs.
func (s *Set) keepsPath(op model.FileOp) bool {
	path := op.Path
	if op.Kind == model.FileOpCopy || op.Kind == model.FileOpRename {
		path = op.Dst
	}

	if op.Kind == model.FileOpDeleteAll {
		return true
	}

	if len(s.doc.Include) > 0 && !matchesAny(s.doc.Include, path) {
		return false
	}

	if matchesAny(s.doc.Exclude, path) {
		return false
	}

	return true
}

func matchesAny(globs []string, path string) bool {
	for _, g := range globs {
		if matchesOne(g, path) {
			return true
		}
	}

	return false
}

// matchesOne matches path against glob g. filepath.Match treats "*" (and
// "**") as matching only within one path segment, so a trailing "/**" is
// special-cased here to mean "this directory and everything below it",
// matching the recursive-glob convention rules documents are written in.
func matchesOne(g, path string) bool {
	if prefix, ok := strings.CutSuffix(g, "/**"); ok {
		return path == prefix || strings.HasPrefix(path, prefix+"/")
	}

	ok, err := filepath.Match(g, path)

	return err == nil && ok
}
