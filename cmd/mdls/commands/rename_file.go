package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"git.home.luguber.info/inful/mdls/internal/filerename"
	mdlserrors "git.home.luguber.info/inful/mdls/internal/foundation/errors"
	"git.home.luguber.info/inful/mdls/internal/wsedit"
)

// RenameFileCmd implements the 'rename-file' command. It prints the link
// updates a move would need; nothing is written.
type RenameFileCmd struct {
	WorkspaceFlags
	OutputFlags
	Old string `arg:"" help:"Current path of the file or folder" type:"path"`
	New string `arg:"" help:"New path" type:"path"`
}

func (r *RenameFileCmd) Run(g *Global, root *CLI) error {
	ctx := context.Background()
	s, err := openSession(r.Root, root.LoadedConfig())
	if err != nil {
		return err
	}
	oldURI, err := fileURI(r.Old)
	if err != nil {
		return err
	}
	newURI, err := fileURI(r.New)
	if err != nil {
		return err
	}

	result, err := s.svc.FileRename.GetRenameFilesInWorkspaceEdit(ctx, []filerename.FileRename{{OldURI: oldURI, NewURI: newURI}})
	if err != nil {
		return err
	}
	edit := &wsedit.WorkspaceEdit{}
	if result != nil && result.Edit != nil {
		edit = result.Edit
	}

	if r.Format == "yaml" {
		// The yaml view goes through the JSON shape to keep field names aligned.
		raw, err := json.Marshal(edit)
		if err != nil {
			return mdlserrors.WrapError(err, mdlserrors.CategoryInternal, "encode edit").Build()
		}
		var generic any
		if err := json.Unmarshal(raw, &generic); err != nil {
			return mdlserrors.WrapError(err, mdlserrors.CategoryInternal, "encode edit").Build()
		}
		return r.render(g.out(), generic, nil)
	}
	return r.render(g.out(), edit, func(w io.Writer) error {
		for _, doc := range edit.Documents {
			for _, e := range doc.Edits {
				if _, err := fmt.Fprintf(w, "%s:%s\t%q\n", doc.URI, formatRange(e.Range), e.NewText); err != nil {
					return err
				}
			}
		}
		for _, mv := range edit.Renames {
			if _, err := fmt.Fprintf(w, "rename %s -> %s\n", mv.OldURI, mv.NewURI); err != nil {
				return err
			}
		}
		return nil
	})
}
