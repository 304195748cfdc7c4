// Package parse turns an unparsed fastexport.Frame into a model.StructuredObject.
// It is a pure function: no I/O, no shared mutable state beyond lazily
// compiled, read-only regexes.
package parse

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/go-gitfilter/gitfilter/internal/fastexport"
	"github.com/go-gitfilter/gitfilter/internal/model"
)

// Sentinel parse errors. Every one of these is fatal to the pipeline: per
// the documented failure philosophy there is no per-frame skip.
var (
	ErrUnknownKeyword     = errors.New("parse: unknown keyword")
	ErrRegexNoMatch       = errors.New("parse: line did not match expected grammar")
	ErrDuplicateReset     = errors.New("parse: multiple reset lines before one object")
	ErrInvalidHeaderUTF8  = errors.New("parse: header line is not valid UTF-8")
	ErrEmptyLine          = errors.New("parse: empty line where a keyword was expected")
	ErrUnterminatedQuoted = errors.New("parse: unterminated quoted path")
)

var (
	authorLineRe = sync.OnceValue(func() *regexp.Regexp {
		return regexp.MustCompile(`^(?:author|committer) (.*?) ?<(.*?)> (.*?)$`)
	})
	fileModifyRe = sync.OnceValue(func() *regexp.Regexp {
		return regexp.MustCompile(`^M (\d+) (\S+) (.+)$`)
	})
	fileDeleteRe = sync.OnceValue(func() *regexp.Regexp {
		return regexp.MustCompile(`^D (.+)$`)
	})
	fileCopyRe = sync.OnceValue(func() *regexp.Regexp {
		return regexp.MustCompile(`^C (\S+) (.+)$`)
	})
	fileRenameRe = sync.OnceValue(func() *regexp.Regexp {
		return regexp.MustCompile(`^R (\S+) (.+)$`)
	})
	noteModifyRe = sync.OnceValue(func() *regexp.Regexp {
		return regexp.MustCompile(`^N (\S+) (.+)$`)
	})
)

type headerState int

const (
	headerInitial headerState = iota
	headerReset
	headerCommit
)

type bodyState int

const (
	bodyInitial bodyState = iota
	bodyAfterFrom
	bodyAfterMerge
)

// Parse converts one fastexport.Frame into a model.StructuredObject.
func Parse(frame fastexport.Frame) (*model.StructuredObject, error) {
	obj := &model.StructuredObject{Index: frame.Index}

	if err := parseHeader(frame.Pre, obj); err != nil {
		return nil, fmt.Errorf("frame %d: %w", frame.Index, err)
	}

	switch obj.Kind {
	case model.KindCommit:
		obj.MessageBytes = frame.Payload
	case model.KindBlob:
		obj.ContentBytes = frame.Payload
	}

	if err := parseBody(frame.Post, obj); err != nil {
		return nil, fmt.Errorf("frame %d: %w", frame.Index, err)
	}

	return obj, nil
}

func parseHeader(pre string, obj *model.StructuredObject) error {
	state := headerInitial

	for line := range nonEmptyLines(pre) {
		if !utf8.ValidString(line) {
			return fmt.Errorf("%w: %q", ErrInvalidHeaderUTF8, line)
		}

		word, rest, _ := strings.Cut(line, " ")

		switch state {
		case headerInitial:
			switch word {
			case "feature":
				obj.HasFeatureDone = true
			case "reset":
				if obj.HasReset {
					return ErrDuplicateReset
				}

				obj.HasReset = true
				obj.ResetRef = rest
				state = headerReset
			case "commit":
				obj.Kind = model.KindCommit
				obj.RefName = rest
				state = headerCommit
			case "blob":
				obj.Kind = model.KindBlob
				state = headerCommit
			default:
				return fmt.Errorf("%w: %q (header initial)", ErrUnknownKeyword, word)
			}

		case headerReset:
			switch word {
			case "reset":
				return ErrDuplicateReset
			case "from":
				obj.HasResetFrom = true
				obj.ResetFrom = rest
				state = headerInitial
			case "commit":
				obj.Kind = model.KindCommit
				obj.RefName = rest
				state = headerCommit
			default:
				return fmt.Errorf("%w: %q (header reset)", ErrUnknownKeyword, word)
			}

		case headerCommit:
			switch word {
			case "mark":
				obj.HasMark = true
				obj.Mark = rest
			case "original-oid":
				obj.HasOID = true
				obj.OriginalOID = rest
			case "author":
				person, err := parseAuthorLine(line)
				if err != nil {
					return err
				}

				obj.Author = person
			case "committer":
				person, err := parseAuthorLine(line)
				if err != nil {
					return err
				}

				obj.Committer = person
			case "encoding":
				// ignored: the export is requested with --reencode=yes.
			case "data":
				// length already consumed by the frame reader.
			default:
				return fmt.Errorf("%w: %q (header commit)", ErrUnknownKeyword, word)
			}
		}
	}

	return nil
}

func parseAuthorLine(line string) (model.CommitPerson, error) {
	m := authorLineRe().FindStringSubmatch(line)
	if m == nil {
		return model.CommitPerson{}, fmt.Errorf("%w: %q", ErrRegexNoMatch, line)
	}

	name := m[1]

	return model.CommitPerson{
		Name:       name,
		HasName:    name != "",
		Email:      m[2],
		TimeString: m[3],
	}, nil
}

func parseBody(post string, obj *model.StructuredObject) error {
	state := bodyInitial

	for line := range nonEmptyLines(post) {
		word, rest, _ := strings.Cut(line, " ")

		switch word {
		case "from":
			if state != bodyInitial {
				return fmt.Errorf("%w: \"from\" after merge/file-ops", ErrUnknownKeyword)
			}

			obj.HasFrom = true
			obj.From = rest
			state = bodyAfterFrom

		case "merge":
			if state == bodyAfterMerge {
				return fmt.Errorf("%w: \"merge\" after file-ops", ErrUnknownKeyword)
			}

			obj.Merges = append(obj.Merges, rest)
			state = bodyAfterFrom

		case "M":
			op, err := parseModify(line)
			if err != nil {
				return err
			}

			obj.FileOps = append(obj.FileOps, op)
			state = bodyAfterMerge

		case "D":
			op, err := parseDelete(line)
			if err != nil {
				return err
			}

			obj.FileOps = append(obj.FileOps, op)
			state = bodyAfterMerge

		case "C":
			op, err := parseCopy(line)
			if err != nil {
				return err
			}

			obj.FileOps = append(obj.FileOps, op)
			state = bodyAfterMerge

		case "R":
			op, err := parseRename(line)
			if err != nil {
				return err
			}

			obj.FileOps = append(obj.FileOps, op)
			state = bodyAfterMerge

		case "N":
			op, err := parseNoteModify(line)
			if err != nil {
				return err
			}

			obj.FileOps = append(obj.FileOps, op)
			state = bodyAfterMerge

		case "deleteall":
			obj.FileOps = append(obj.FileOps, model.FileOp{Kind: model.FileOpDeleteAll})
			state = bodyAfterMerge

		default:
			return fmt.Errorf("%w: %q (body)", ErrUnknownKeyword, word)
		}
	}

	return nil
}

func parseModify(line string) (model.FileOp, error) {
	m := fileModifyRe().FindStringSubmatch(line)
	if m == nil {
		return model.FileOp{}, fmt.Errorf("%w: %q", ErrRegexNoMatch, line)
	}

	path, err := unquotePath(m[3])
	if err != nil {
		return model.FileOp{}, err
	}

	return model.FileOp{Kind: model.FileOpModify, Mode: m[1], DataRef: m[2], Path: path}, nil
}

func parseDelete(line string) (model.FileOp, error) {
	m := fileDeleteRe().FindStringSubmatch(line)
	if m == nil {
		return model.FileOp{}, fmt.Errorf("%w: %q", ErrRegexNoMatch, line)
	}

	path, err := unquotePath(m[1])
	if err != nil {
		return model.FileOp{}, err
	}

	return model.FileOp{Kind: model.FileOpDelete, Path: path}, nil
}

func parseCopy(line string) (model.FileOp, error) {
	m := fileCopyRe().FindStringSubmatch(line)
	if m == nil {
		return model.FileOp{}, fmt.Errorf("%w: %q", ErrRegexNoMatch, line)
	}

	src, err := unquotePath(m[1])
	if err != nil {
		return model.FileOp{}, err
	}

	dst, err := unquotePath(m[2])
	if err != nil {
		return model.FileOp{}, err
	}

	return model.FileOp{Kind: model.FileOpCopy, Src: src, Dst: dst}, nil
}

func parseRename(line string) (model.FileOp, error) {
	m := fileRenameRe().FindStringSubmatch(line)
	if m == nil {
		return model.FileOp{}, fmt.Errorf("%w: %q", ErrRegexNoMatch, line)
	}

	src, err := unquotePath(m[1])
	if err != nil {
		return model.FileOp{}, err
	}

	dst, err := unquotePath(m[2])
	if err != nil {
		return model.FileOp{}, err
	}

	return model.FileOp{Kind: model.FileOpRename, Src: src, Dst: dst}, nil
}

func parseNoteModify(line string) (model.FileOp, error) {
	m := noteModifyRe().FindStringSubmatch(line)
	if m == nil {
		return model.FileOp{}, fmt.Errorf("%w: %q", ErrRegexNoMatch, line)
	}

	return model.FileOp{Kind: model.FileOpNoteModify, DataRef: m[1], Commitish: m[2]}, nil
}

// nonEmptyLines yields each line of text split on '\n', skipping every
// empty line (including the trailing element produced by a final newline).
func nonEmptyLines(text string) func(func(string) bool) {
	return func(yield func(string) bool) {
		for _, line := range strings.Split(text, "\n") {
			if line == "" {
				continue
			}

			if !yield(line) {
				return
			}
		}
	}
}
