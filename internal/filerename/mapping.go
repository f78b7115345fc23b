package filerename

import (
	"sort"

	"git.home.luguber.info/inful/mdls/internal/docuri"
	mdlserrors "git.home.luguber.info/inful/mdls/internal/foundation/errors"
	"git.home.luguber.info/inful/mdls/internal/links"
	"git.home.luguber.info/inful/mdls/internal/workspace"
)

// FileRename is one file or directory move.
type FileRename struct {
	OldURI docuri.URI
	NewURI docuri.URI
}

// normalizeRenames validates a batch, drops moves onto themselves and exact
// duplicates, and keeps the input order otherwise.
func normalizeRenames(renames []FileRename) ([]FileRename, error) {
	out := make([]FileRename, 0, len(renames))
	seen := make(map[string]struct{}, len(renames))
	for _, r := range renames {
		if r.OldURI.IsZero() || r.NewURI.IsZero() {
			return nil, mdlserrors.ValidationError("rename requires both an old and a new URI").
				WithContext("old_uri", r.OldURI.String()).
				WithContext("new_uri", r.NewURI.String()).
				Build()
		}
		if r.OldURI.Scheme() != r.NewURI.Scheme() {
			return nil, mdlserrors.ValidationError("rename cannot change the URI scheme").
				WithContext("old_uri", r.OldURI.String()).
				WithContext("new_uri", r.NewURI.String()).
				Build()
		}
		if r.OldURI.Equal(r.NewURI) {
			continue
		}
		key := r.OldURI.Key() + "\x00" + r.NewURI.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	return out, nil
}

// renameSet maps URIs through a batch of renames. The most specific old
// location wins when renames nest.
type renameSet struct {
	renames []FileRename
	byDepth []int
}

func newRenameSet(renames []FileRename) (*renameSet, error) {
	normalized, err := normalizeRenames(renames)
	if err != nil {
		return nil, err
	}
	byDepth := make([]int, len(normalized))
	for i := range byDepth {
		byDepth[i] = i
	}
	sort.SliceStable(byDepth, func(i, j int) bool {
		return len(normalized[byDepth[i]].OldURI.Path()) > len(normalized[byDepth[j]].OldURI.Path())
	})
	return &renameSet{renames: normalized, byDepth: byDepth}, nil
}

// move returns where uri ends up after the batch and which rename moved it.
func (s *renameSet) move(uri docuri.URI) (docuri.URI, int, bool) {
	fragment := uri.Fragment()
	bare := uri.WithFragment("")
	for _, i := range s.byDepth {
		r := s.renames[i]
		if r.OldURI.Equal(bare) {
			return r.NewURI.WithFragment(fragment), i, true
		}
		if r.OldURI.IsParentOf(bare) {
			return r.NewURI.Join(docuri.RelativePath(r.OldURI, bare)).WithFragment(fragment), i, true
		}
	}
	return uri, -1, false
}

// moveLinkTarget is move for a link destination, which may leave off the
// Markdown extension of the file it names.
func (s *renameSet) moveLinkTarget(href links.InternalHref, exts workspace.Extensions) (docuri.URI, int, bool) {
	for _, i := range s.byDepth {
		r := s.renames[i]
		if links.LooksLikeLinkToResource(href, r.OldURI, exts) {
			return r.NewURI, i, true
		}
		if r.OldURI.IsParentOf(href.Path) {
			return r.NewURI.Join(docuri.RelativePath(r.OldURI, href.Path)), i, true
		}
	}
	return href.Path, -1, false
}
