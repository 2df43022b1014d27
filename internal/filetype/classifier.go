// Package filetype maps file extensions and declared MIME types to the coarse
// file types stored with each file.
package filetype

import (
	"bytes"
	"embed"
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"gopkg.in/yaml.v3"

	"filestorage/internal/domain"
	"filestorage/internal/domain/models"
	"filestorage/internal/domain/services"
)

//go:embed config/*.yaml
var configFS embed.FS

// OctetStream is reported for unknown extensions.
const OctetStream = "application/octet-stream"

// sniffLen matches the default read limit of mimetype.
const sniffLen = 3072

type signature struct {
	Ext     string   `yaml:"ext"`
	Mime    string   `yaml:"mime"`
	Aliases []string `yaml:"aliases"`
}

type signatureFile struct {
	Types map[models.FileType][]signature `yaml:"types"`
}

type entry struct {
	fileType models.FileType
	mime     string
	accepted map[string]bool
}

// Classifier implements services.FileClassifier from an embedded table.
type Classifier struct {
	byExt map[string]entry
}

var _ services.FileClassifier = (*Classifier)(nil)

// NewClassifier loads the embedded signature table.
func NewClassifier() (*Classifier, error) {
	data, err := configFS.ReadFile("config/types.yaml")
	if err != nil {
		return nil, fmt.Errorf("read signature table: %w", err)
	}
	return parse(data)
}

func parse(data []byte) (*Classifier, error) {
	var file signatureFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse signature table: %w", err)
	}

	c := &Classifier{byExt: make(map[string]entry)}
	for fileType, sigs := range file.Types {
		for _, sig := range sigs {
			ext := strings.ToLower(sig.Ext)
			if _, dup := c.byExt[ext]; dup {
				return nil, fmt.Errorf("extension %s listed twice", ext)
			}
			accepted := map[string]bool{sig.Mime: true}
			for _, alias := range sig.Aliases {
				accepted[alias] = true
			}
			c.byExt[ext] = entry{fileType: fileType, mime: sig.Mime, accepted: accepted}
		}
	}

	return c, nil
}

// Classify returns the file type for ext. Unknown extensions classify as
// Unknown. A declared MIME type that does not belong to a known extension is
// an InvalidFileExtension error; an empty declaration is accepted.
func (c *Classifier) Classify(ext, declaredMime string) (services.Classification, error) {
	e, ok := c.byExt[strings.ToLower(ext)]
	if !ok {
		return services.Classification{Type: models.FileTypeUnknown, MimeType: OctetStream}, nil
	}

	declared := normalize(declaredMime)
	if declared != "" && !e.accepted[declared] {
		return services.Classification{}, &domain.InvalidContentError{
			Key:     domain.KeyInvalidFileExtension,
			Message: "file extension and MIME type do not correspond to each other",
		}
	}

	return services.Classification{Type: e.fileType, MimeType: e.mime}, nil
}

// MimeType returns the canonical MIME type for ext.
func (c *Classifier) MimeType(ext string) string {
	if e, ok := c.byExt[strings.ToLower(ext)]; ok {
		return e.mime
	}
	return OctetStream
}

// Detect sniffs the MIME type from the head of r. The returned reader replays
// the consumed bytes.
func Detect(r io.Reader) (string, io.Reader, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", nil, fmt.Errorf("sniff content: %w", err)
	}
	head = head[:n]

	mime := normalize(mimetype.Detect(head).String())
	return mime, io.MultiReader(bytes.NewReader(head), r), nil
}

// normalize drops parameters such as charset and lowercases the type.
func normalize(mime string) string {
	mime, _, _ = strings.Cut(mime, ";")
	return strings.ToLower(strings.TrimSpace(mime))
}
