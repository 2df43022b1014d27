// Package pathinfo normalizes raw user-supplied folder and file paths into
// canonical (path, name) pairs.
//
// A folder is addressed by the prefix of its ancestors ("/A/B/") and its own
// name ("C"). The root folder has an empty path and the name "/".
package pathinfo

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"filestorage/internal/domain"
)

// Separator joins path segments in canonical form.
const Separator = "/"

// FolderPath is the canonical location of a folder. The zero value is not
// valid; use Root or NewFolderPath.
type FolderPath struct {
	path string
	name string
}

// Root returns the root folder location.
func Root() FolderPath {
	return FolderPath{path: "", name: Separator}
}

// NewFolderPath normalizes raw into a folder location. Both '/' and '\' are
// treated as separators, segments are trimmed and empty segments dropped.
// The first invalid segment determines the returned error.
func NewFolderPath(raw string, maxSegmentLength int) (FolderPath, error) {
	segments := make([]string, 0, 8)
	for _, seg := range strings.FieldsFunc(raw, isSeparator) {
		seg = trimSpace(seg)
		if seg == "" {
			continue
		}
		if hasControlChars(seg) {
			return FolderPath{}, domain.NewViolation(domain.KeyInvalidPath, "path",
				"folder name contains control characters", 0)
		}
		if utf8.RuneCountInString(seg) > maxSegmentLength {
			return FolderPath{}, domain.NewViolation(domain.KeyFolderNameTooLong, "path",
				fmt.Sprintf("folder name exceeds the limit of %d characters", maxSegmentLength), maxSegmentLength)
		}
		segments = append(segments, seg)
	}

	switch len(segments) {
	case 0:
		return Root(), nil
	case 1:
		return FolderPath{path: Separator, name: segments[0]}, nil
	default:
		last := len(segments) - 1
		return FolderPath{
			path: Separator + strings.Join(segments[:last], Separator) + Separator,
			name: segments[last],
		}, nil
	}
}

// Path is the ancestor prefix, ending in "/", or empty for the root.
func (f FolderPath) Path() string { return f.path }

// Name is the last segment, or "/" for the root.
func (f FolderPath) Name() string { return f.name }

// FullName is Path followed by Name.
func (f FolderPath) FullName() string { return f.path + f.name }

// IsRoot reports whether f is the root folder.
func (f FolderPath) IsRoot() bool { return f.path == "" && f.name == Separator }

func (f FolderPath) String() string { return f.FullName() }

// Equal reports whether both locations denote the same folder.
func (f FolderPath) Equal(other FolderPath) bool {
	if f.IsRoot() || other.IsRoot() {
		return f.IsRoot() && other.IsRoot()
	}
	return f.FullName() == other.FullName()
}

// Parent returns the enclosing folder. It returns false for the root.
func (f FolderPath) Parent() (FolderPath, bool) {
	switch f.path {
	case "":
		return FolderPath{}, false
	case Separator:
		return Root(), true
	}

	trimmed := f.path[:len(f.path)-1]
	idx := strings.LastIndex(trimmed, Separator)
	return FolderPath{path: trimmed[:idx+1], name: trimmed[idx+1:]}, true
}

// LCA is the lowest common ancestor of two folder locations. IsSelf and
// IsOther report that the ancestor is the receiver or the argument, so
// callers can reuse an id they already resolved for that operand.
type LCA struct {
	Folder  FolderPath
	IsSelf  bool
	IsOther bool
}

// LowestCommonAncestor returns the deepest folder containing (or equal to)
// both f and other.
func (f FolderPath) LowestCommonAncestor(other FolderPath) LCA {
	if f.IsRoot() || other.IsRoot() {
		return LCA{Folder: Root(), IsSelf: f.IsRoot(), IsOther: other.IsRoot()}
	}

	a, b := f.FullName(), other.FullName()
	n := min(len(a), len(b))
	lastSep := 0
	i := 0
	for ; i < n && a[i] == b[i]; i++ {
		if a[i] == '/' {
			lastSep = i
		}
	}

	if i == n {
		switch {
		case len(a) == len(b):
			return LCA{Folder: f, IsSelf: true, IsOther: true}
		case len(a) < len(b) && b[n] == '/':
			return LCA{Folder: f, IsSelf: true}
		case len(b) < len(a) && a[n] == '/':
			return LCA{Folder: other, IsOther: true}
		}
	}

	prefix := a[:lastSep]
	if prefix == "" {
		return LCA{Folder: Root()}
	}
	idx := strings.LastIndex(prefix, Separator)
	return LCA{Folder: FolderPath{path: prefix[:idx+1], name: prefix[idx+1:]}}
}

func isSeparator(r rune) bool {
	return r == '/' || r == '\\'
}

// trimSpace trims whitespace but leaves control characters in place so that
// validation always sees them.
func trimSpace(s string) string {
	return strings.TrimFunc(s, isPrintableSpace)
}

func isPrintableSpace(r rune) bool {
	return r > 0x1F && unicode.IsSpace(r)
}

func hasControlChars(s string) bool {
	return strings.ContainsFunc(s, func(r rune) bool { return r <= 0x1F })
}
