// Package serialize renders a model.StructuredObject back into
// git fast-import byte form.
package serialize

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-gitfilter/gitfilter/internal/model"
)

// Write appends the fast-import representation of obj to w.
func Write(w io.Writer, obj *model.StructuredObject) error {
	if obj.HasFeatureDone {
		if _, err := io.WriteString(w, "feature done\n"); err != nil {
			return fmt.Errorf("serialize: write feature done: %w", err)
		}
	}

	if obj.HasReset {
		if _, err := fmt.Fprintf(w, "reset %s\n", obj.ResetRef); err != nil {
			return fmt.Errorf("serialize: write reset: %w", err)
		}

		if obj.HasResetFrom {
			if _, err := fmt.Fprintf(w, "from %s\n", obj.ResetFrom); err != nil {
				return fmt.Errorf("serialize: write reset from: %w", err)
			}
		}
	}

	switch obj.Kind {
	case model.KindCommit:
		return writeCommit(w, obj)
	case model.KindBlob:
		return writeBlob(w, obj)
	default:
		return fmt.Errorf("serialize: unknown object kind %v", obj.Kind)
	}
}

func writeCommit(w io.Writer, obj *model.StructuredObject) error {
	if _, err := fmt.Fprintf(w, "commit %s\n", obj.RefName); err != nil {
		return fmt.Errorf("serialize: write commit ref: %w", err)
	}

	if err := writeOptionalHeader(w, obj); err != nil {
		return err
	}

	if err := writePerson(w, "author", obj.Author); err != nil {
		return err
	}

	if err := writePerson(w, "committer", obj.Committer); err != nil {
		return err
	}

	if err := writeData(w, obj.MessageBytes); err != nil {
		return err
	}

	if obj.HasFrom {
		if _, err := fmt.Fprintf(w, "from %s\n", obj.From); err != nil {
			return fmt.Errorf("serialize: write from: %w", err)
		}
	}

	for _, m := range obj.Merges {
		if _, err := fmt.Fprintf(w, "merge %s\n", m); err != nil {
			return fmt.Errorf("serialize: write merge: %w", err)
		}
	}

	for _, op := range obj.FileOps {
		if err := writeFileOp(w, op); err != nil {
			return err
		}
	}

	return nil
}

func writeBlob(w io.Writer, obj *model.StructuredObject) error {
	if _, err := io.WriteString(w, "blob\n"); err != nil {
		return fmt.Errorf("serialize: write blob: %w", err)
	}

	if err := writeOptionalHeader(w, obj); err != nil {
		return err
	}

	return writeData(w, obj.ContentBytes)
}

func writeOptionalHeader(w io.Writer, obj *model.StructuredObject) error {
	if obj.HasMark {
		if _, err := fmt.Fprintf(w, "mark %s\n", obj.Mark); err != nil {
			return fmt.Errorf("serialize: write mark: %w", err)
		}
	}

	if obj.HasOID {
		if _, err := fmt.Fprintf(w, "original-oid %s\n", obj.OriginalOID); err != nil {
			return fmt.Errorf("serialize: write original-oid: %w", err)
		}
	}

	return nil
}

func writePerson(w io.Writer, keyword string, p model.CommitPerson) error {
	name := ""
	if p.HasName {
		name = p.Name + " "
	}

	if _, err := fmt.Fprintf(w, "%s %s<%s> %s\n", keyword, name, p.Email, p.TimeString); err != nil {
		return fmt.Errorf("serialize: write %s: %w", keyword, err)
	}

	return nil
}

func writeData(w io.Writer, payload []byte) error {
	if _, err := fmt.Fprintf(w, "data %s\n", strconv.Itoa(len(payload))); err != nil {
		return fmt.Errorf("serialize: write data length: %w", err)
	}

	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("serialize: write data payload: %w", err)
	}

	if _, err := io.WriteString(w, "\n"); err != nil {
		return fmt.Errorf("serialize: write data trailer newline: %w", err)
	}

	return nil
}

func writeFileOp(w io.Writer, op model.FileOp) error {
	var err error

	switch op.Kind {
	case model.FileOpModify:
		_, err = fmt.Fprintf(w, "M %s %s %s\n", op.Mode, op.DataRef, op.Path)
	case model.FileOpDelete:
		_, err = fmt.Fprintf(w, "D %s\n", op.Path)
	case model.FileOpCopy:
		_, err = fmt.Fprintf(w, "C %s %s\n", op.Src, op.Dst)
	case model.FileOpRename:
		_, err = fmt.Fprintf(w, "R %s %s\n", op.Src, op.Dst)
	case model.FileOpDeleteAll:
		_, err = io.WriteString(w, "deleteall\n")
	case model.FileOpNoteModify:
		_, err = fmt.Fprintf(w, "N %s %s\n", op.DataRef, op.Commitish)
	}

	if err != nil {
		return fmt.Errorf("serialize: write file op: %w", err)
	}

	return nil
}

// WriteDone writes the trailing "done\n" line that terminates a
// --use-done-feature fast-import stream.
func WriteDone(w io.Writer) error {
	if _, err := io.WriteString(w, "done\n"); err != nil {
		return fmt.Errorf("serialize: write done trailer: %w", err)
	}

	return nil
}
