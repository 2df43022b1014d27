package pathinfo

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"filestorage/internal/domain"
)

// FilePath is the canonical location of a file: the owning folder plus a base
// name and an optional extension.
type FilePath struct {
	name      string
	extension string
	folder    FolderPath
}

// NewFilePath splits raw into folder, base name and extension. A trailing
// dot is not an extension separator, so "image." has no extension.
func NewFilePath(raw string, maxSegmentLength, maxFileNameLength int) (FilePath, error) {
	if raw == "" {
		return FilePath{}, emptyFileName()
	}

	s := trimSpace(raw)
	sep := strings.LastIndexFunc(s, isSeparator)
	candidate := strings.TrimLeftFunc(s[sep+1:], isPrintableSpace)

	switch {
	case candidate == "":
		return FilePath{}, emptyFileName()
	case utf8.RuneCountInString(candidate) > maxFileNameLength:
		return FilePath{}, domain.NewViolation(domain.KeyFileNameTooLong, "file_name",
			fmt.Sprintf("file name exceeds the limit of %d characters", maxFileNameLength), maxFileNameLength)
	case hasControlChars(candidate):
		return FilePath{}, domain.NewViolation(domain.KeyInvalidFileName, "file_name",
			"file name contains control characters", 0)
	}

	fp := FilePath{name: candidate}
	if dot := strings.LastIndexByte(candidate, '.'); dot >= 0 && dot < len(candidate)-1 {
		fp.name = strings.TrimRightFunc(candidate[:dot], isPrintableSpace)
		fp.extension = candidate[dot:]
	}

	if sep < 0 {
		fp.folder = Root()
		return fp, nil
	}
	folder, err := NewFolderPath(s[:sep], maxSegmentLength)
	if err != nil {
		return FilePath{}, err
	}
	fp.folder = folder
	return fp, nil
}

func emptyFileName() error {
	return domain.NewViolation(domain.KeyEmptyFileName, "file_name", "file name is empty", 0)
}

// Name is the base name without extension. It may be empty.
func (f FilePath) Name() string { return f.name }

// Extension includes the leading dot, or is empty.
func (f FilePath) Extension() string { return f.extension }

func (f FilePath) NameWithExtension() string { return f.name + f.extension }

// Folder is the location of the owning folder.
func (f FilePath) Folder() FolderPath { return f.folder }

func (f FilePath) FullName() string {
	if f.folder.IsRoot() {
		return Separator + f.NameWithExtension()
	}
	return f.folder.FullName() + Separator + f.NameWithExtension()
}

func (f FilePath) String() string { return f.FullName() }
