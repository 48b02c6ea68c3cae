package security

import (
	"bytes"
	"fmt"
	"net/http"
	"path/filepath"
	"sort"
	"strings"
)

// FileValidationResult contains the result of file validation
type FileValidationResult struct {
	Valid        bool
	Extension    string
	DetectedMIME string
	Error        string
}

// FilePolicy is a whitelist of extensions, each with its accepted magic
// prefixes and MIME types, plus a size ceiling.
type FilePolicy struct {
	Name       string
	MaxBytes   int64
	Extensions map[string]FileKind
}

type FileKind struct {
	Magic [][]byte
	MIME  []string
}

var (
	pdfKind  = FileKind{Magic: [][]byte{{0x25, 0x50, 0x44, 0x46}}, MIME: []string{"application/pdf"}}
	docKind  = FileKind{Magic: [][]byte{{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}}, MIME: []string{"application/msword", "application/octet-stream"}}
	docxKind = FileKind{Magic: [][]byte{{0x50, 0x4B, 0x03, 0x04}}, MIME: []string{"application/vnd.openxmlformats-officedocument.wordprocessingml.document", "application/zip", "application/octet-stream"}}
	jpegKind = FileKind{Magic: [][]byte{{0xFF, 0xD8, 0xFF}}, MIME: []string{"image/jpeg"}}
	pngKind  = FileKind{Magic: [][]byte{{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}}, MIME: []string{"image/png"}}
)

// ResumePolicy accepts PDF and Word documents.
func ResumePolicy(maxBytes int64) FilePolicy {
	return FilePolicy{
		Name:     "resume",
		MaxBytes: maxBytes,
		Extensions: map[string]FileKind{
			".pdf":  pdfKind,
			".doc":  docKind,
			".docx": docxKind,
		},
	}
}

// ImagePolicy accepts PNG and JPEG images.
func ImagePolicy(maxBytes int64) FilePolicy {
	return FilePolicy{
		Name:     "image",
		MaxBytes: maxBytes,
		Extensions: map[string]FileKind{
			".jpg":  jpegKind,
			".jpeg": jpegKind,
			".png":  pngKind,
		},
	}
}

// AllowedExtensions lists the policy's extensions in a stable order.
func (p FilePolicy) AllowedExtensions() []string {
	exts := make([]string, 0, len(p.Extensions))
	for ext := range p.Extensions {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Validate runs the three checks in order: extension whitelist, magic bytes,
// then sniffed MIME type. Size is checked first.
func (p FilePolicy) Validate(filename string, data []byte) FileValidationResult {
	result := FileValidationResult{}

	if len(data) == 0 {
		result.Error = "file is empty"
		return result
	}
	if p.MaxBytes > 0 && int64(len(data)) > p.MaxBytes {
		result.Error = fmt.Sprintf("file exceeds the %d MB limit", p.MaxBytes>>20)
		return result
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		result.Error = "file has no extension"
		return result
	}
	result.Extension = ext

	kind, ok := p.Extensions[ext]
	if !ok {
		result.Error = fmt.Sprintf("only %s files are allowed", strings.Join(p.AllowedExtensions(), ", "))
		return result
	}

	if !hasMagic(kind, data) {
		result.Error = "file content does not match its extension"
		return result
	}

	result.DetectedMIME = http.DetectContentType(data)
	if !mimeAllowed(kind, result.DetectedMIME) {
		result.Error = "file type not allowed: " + result.DetectedMIME
		return result
	}

	result.Valid = true
	return result
}

// ContentType is the MIME type to store the file under.
func (r FileValidationResult) ContentType() string {
	switch r.Extension {
	case ".pdf":
		return "application/pdf"
	case ".doc":
		return "application/msword"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	}
	return r.DetectedMIME
}

func hasMagic(kind FileKind, data []byte) bool {
	for _, sig := range kind.Magic {
		if bytes.HasPrefix(data, sig) {
			return true
		}
	}
	return false
}

func mimeAllowed(kind FileKind, detected string) bool {
	base := strings.TrimSpace(strings.SplitN(detected, ";", 2)[0])
	for _, m := range kind.MIME {
		if base == m {
			return true
		}
	}
	return false
}
