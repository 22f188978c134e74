package importer

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

// MimeCSV is the only MIME type importers accept.
const MimeCSV = "text/csv"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// File is a statement file handed to an importer.
type File interface {
	Name() string
	MimeType() string
	Contents() (string, error)
}

// DiskFile is a File on disk. Contents are read and decoded once.
type DiskFile struct {
	path string

	once     sync.Once
	contents string
	mime     string
	err      error
}

// OpenFile returns a File for path. The file is read lazily.
func OpenFile(path string) *DiskFile {
	return &DiskFile{path: path}
}

// Name returns the file path.
func (f *DiskFile) Name() string {
	return f.path
}

// MimeType returns the detected MIME type, or an empty string when the file
// cannot be read.
func (f *DiskFile) MimeType() string {
	f.load()
	return f.mime
}

// Contents returns the file content as UTF-8 text.
func (f *DiskFile) Contents() (string, error) {
	f.load()
	return f.contents, f.err
}

func (f *DiskFile) load() {
	f.once.Do(func() {
		data, err := os.ReadFile(f.path)
		if err != nil {
			f.err = fmt.Errorf("failed to read %s: %w", f.path, err)
			return
		}
		f.mime = detectMime(f.path, data)
		f.contents, f.err = decodeContents(data)
		if f.err != nil {
			f.err = fmt.Errorf("failed to decode %s: %w", f.path, f.err)
		}
	})
}

// detectMime sniffs the content. Statement exports are often detected as
// plain text, so a .csv extension settles it.
func detectMime(path string, data []byte) string {
	mime := mimetype.Detect(data)
	if mime.Is(MimeCSV) {
		return MimeCSV
	}
	if strings.EqualFold(filepath.Ext(path), ".csv") &&
		(mime.Is("text/plain") || mime.Is("application/octet-stream")) {
		return MimeCSV
	}
	return mime.String()
}

// decodeContents strips a UTF-8 byte order mark and decodes GB18030 text,
// which some platforms export, to UTF-8.
func decodeContents(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data), nil
	}
	decoded, _, err := transform.Bytes(simplifiedchinese.GB18030.NewDecoder(), data)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}

// MemoryFile is a File held in memory.
type MemoryFile struct {
	name     string
	mime     string
	contents string
}

// NewMemoryFile creates a File from already decoded content.
func NewMemoryFile(name, mime, contents string) *MemoryFile {
	return &MemoryFile{name: name, mime: mime, contents: contents}
}

func (f *MemoryFile) Name() string              { return f.name }
func (f *MemoryFile) MimeType() string          { return f.mime }
func (f *MemoryFile) Contents() (string, error) { return f.contents, nil }
