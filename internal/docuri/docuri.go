// Package docuri wraps net/url with the path arithmetic document resolution needs.
//
// All path operations are POSIX style on the URI path regardless of the host OS.
package docuri

import (
	"net/url"
	"path"
	"path/filepath"
	"strings"
)

// URI is an immutable document or folder location.
type URI struct {
	u url.URL
}

// Parse parses an absolute URI.
func Parse(raw string) (URI, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return URI{}, err
	}
	return URI{u: *parsed}, nil
}

// MustParse is Parse for literals known to be valid.
func MustParse(raw string) URI {
	u, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return u
}

// File builds a file URI from an absolute OS path.
func File(fsPath string) URI {
	p := filepath.ToSlash(fsPath)
	if !strings.HasPrefix(p, "/") {
		// Windows drive paths.
		p = "/" + p
	}
	return URI{u: url.URL{Scheme: "file", Path: p}}
}

func (u URI) IsZero() bool { return u.u.Scheme == "" && u.u.Path == "" && u.u.Host == "" }
func (u URI) Scheme() string { return u.u.Scheme }
func (u URI) Authority() string { return u.u.Host }
func (u URI) Path() string { return u.u.Path }
func (u URI) Query() string { return u.u.RawQuery }
func (u URI) Fragment() string { return u.u.Fragment }

// String renders the URI in its encoded form.
func (u URI) String() string {
	return u.u.String()
}

// Key identifies the resource in maps. Fragments are part of the identity since
// embedded documents such as notebook cells are addressed by fragment.
func (u URI) Key() string {
	return u.String()
}

// FSPath returns the OS path of a file URI.
func (u URI) FSPath() string {
	return filepath.FromSlash(u.u.Path)
}

// WithPath returns a copy with a replaced path.
func (u URI) WithPath(p string) URI {
	next := u.u
	next.Path = p
	next.RawPath = ""
	return URI{u: next}
}

// WithFragment returns a copy with a replaced fragment.
func (u URI) WithFragment(fragment string) URI {
	next := u.u
	next.Fragment = fragment
	next.RawFragment = ""
	return URI{u: next}
}

// Dir returns the parent folder.
func (u URI) Dir() URI {
	return u.WithPath(path.Dir(u.u.Path)).WithFragment("")
}

// Join appends segments to the path, cleaning dot segments.
func (u URI) Join(segments ...string) URI {
	parts := append([]string{u.u.Path}, segments...)
	joined := path.Join(parts...)
	if joined == "." {
		joined = "/"
	}
	return u.WithPath(joined)
}

// Base returns the last path element.
func (u URI) Base() string {
	return path.Base(u.u.Path)
}

// Ext returns the extension of the last path element, including the dot.
func (u URI) Ext() string {
	return path.Ext(u.u.Path)
}

// Equal compares scheme, authority, path, query and fragment.
func (u URI) Equal(other URI) bool {
	return u.u.Scheme == other.u.Scheme &&
		u.u.Host == other.u.Host &&
		u.u.Path == other.u.Path &&
		u.u.RawQuery == other.u.RawQuery &&
		u.u.Fragment == other.u.Fragment
}

// IsParentOf reports whether child lives strictly below u.
func (u URI) IsParentOf(child URI) bool {
	if u.u.Scheme != child.u.Scheme || u.u.Host != child.u.Host {
		return false
	}
	parent := strings.TrimSuffix(u.u.Path, "/") + "/"
	return strings.HasPrefix(child.u.Path, parent)
}

// IsEqualOrParentOf reports whether child is u or lives below it.
func (u URI) IsEqualOrParentOf(child URI) bool {
	return u.Equal(child) || u.IsParentOf(child)
}

// RelativePath expresses target's path relative to the folder base.
func RelativePath(base, target URI) string {
	return RelativePosix(base.Path(), target.Path())
}

// RelativePosix computes a relative path between two absolute POSIX paths.
func RelativePosix(from, to string) string {
	fromParts := splitPath(from)
	toParts := splitPath(to)

	common := 0
	for common < len(fromParts) && common < len(toParts) && fromParts[common] == toParts[common] {
		common++
	}

	var out []string
	for i := common; i < len(fromParts); i++ {
		out = append(out, "..")
	}
	out = append(out, toParts[common:]...)
	return strings.Join(out, "/")
}

func splitPath(p string) []string {
	cleaned := path.Clean("/" + p)
	if cleaned == "/" {
		return nil
	}
	return strings.Split(strings.TrimPrefix(cleaned, "/"), "/")
}
