// Package langstats classifies the paths touched by a commit's file
// operations by programming language, for the audit report's per-language
// breakdown.
package langstats

import (
	"path"
	"sort"

	"github.com/src-d/enry/v2"

	"github.com/go-gitfilter/gitfilter/internal/model"
)

// Counter accumulates per-language touch counts across many commits. The
// zero value is ready to use.
type Counter struct {
	counts map[string]int
}

// Observe classifies every file op in obj by the language of its primary
// path and increments that language's count. Content is not available at
// this layer (file ops carry a dataref, not blob bytes), so classification
// is extension/filename driven via enry's content-free heuristics.
func (c *Counter) Observe(obj *model.StructuredObject) {
	if !obj.IsCommit() {
		return
	}

	if c.counts == nil {
		c.counts = make(map[string]int)
	}

	for _, op := range obj.FileOps {
		p := primaryPath(op)
		if p == "" {
			continue
		}

		c.counts[classify(p)]++
	}
}

func primaryPath(op model.FileOp) string {
	switch op.Kind {
	case model.FileOpModify, model.FileOpDelete:
		return op.Path
	case model.FileOpCopy, model.FileOpRename:
		return op.Dst
	case model.FileOpDeleteAll, model.FileOpNoteModify:
		return ""
	default:
		return ""
	}
}

func classify(filePath string) string {
	if lang, safe := enry.GetLanguageByExtension(filePath); safe {
		return lang
	}

	if lang, safe := enry.GetLanguageByFilename(path.Base(filePath)); safe {
		return lang
	}

	// Without blob content, enry's content-based classifiers cannot run;
	// anything not resolved by extension/filename is reported as unknown
	// rather than guessed.
	return "Unknown"
}

// Counts returns a snapshot of language -> touch count.
func (c *Counter) Counts() map[string]int {
	out := make(map[string]int, len(c.counts))
	for k, v := range c.counts {
		out[k] = v
	}

	return out
}

// Ranked returns languages sorted by descending touch count, ties broken
// alphabetically for deterministic report output.
func (c *Counter) Ranked() []Entry {
	entries := make([]Entry, 0, len(c.counts))
	for lang, n := range c.counts {
		entries = append(entries, Entry{Language: lang, Count: n})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}

		return entries[i].Language < entries[j].Language
	})

	return entries
}

// Entry is one row of the ranked per-language breakdown.
type Entry struct {
	Language string
	Count    int
}
