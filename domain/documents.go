package domain

import (
	"fmt"
	"mime"
	"path"
	"strings"
)

// DocumentType says what a document is about.
type DocumentType string

const (
	DocumentMedicalRecord DocumentType = "MEDICAL_RECORD"
	DocumentStudy         DocumentType = "STUDY"
	DocumentPrescription  DocumentType = "PRESCRIPTION"
	DocumentOther         DocumentType = "OTHER"
)

// ParseDocumentType parses a type name, case-insensitively. An empty string
// means OTHER.
func ParseDocumentType(s string) (DocumentType, error) {
	t := DocumentType(strings.ToUpper(strings.TrimSpace(s)))
	switch t {
	case "":
		return DocumentOther, nil
	case DocumentMedicalRecord, DocumentStudy, DocumentPrescription, DocumentOther:
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDocumentType, s)
}

// FileCategory is the broad kind of file, derived from its extension.
type FileCategory string

const (
	FileDocument FileCategory = "DOCUMENT"
	FileImage    FileCategory = "IMAGE"
	FileVideo    FileCategory = "VIDEO"
)

// ParseFileCategory parses a category name, case-insensitively.
func ParseFileCategory(s string) (FileCategory, error) {
	c := FileCategory(strings.ToUpper(strings.TrimSpace(s)))
	switch c {
	case FileDocument, FileImage, FileVideo:
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidFileCategory, s)
}

type fileKind struct {
	contentType string
	category    FileCategory
}

// allowedFiles maps the accepted extensions to their canonical content type.
var allowedFiles = map[string]fileKind{
	"pdf":  {"application/pdf", FileDocument},
	"doc":  {"application/msword", FileDocument},
	"docx": {"application/vnd.openxmlformats-officedocument.wordprocessingml.document", FileDocument},
	"png":  {"image/png", FileImage},
	"jpg":  {"image/jpeg", FileImage},
	"jpeg": {"image/jpeg", FileImage},
	"mp4":  {"video/mp4", FileVideo},
	"avi":  {"video/x-msvideo", FileVideo},
}

// ClassifyUpload checks an uploaded file name against the accepted file
// types and returns the content type to store it with. declared is the
// client's Content-Type; when present its top-level type must agree with the
// extension.
func ClassifyUpload(name, declared string) (string, FileCategory, error) {
	if strings.Contains(name, "..") || strings.ContainsAny(name, `/\`) {
		return "", "", ErrInvalidFileName
	}
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(name)), ".")
	if ext == "" {
		return "", "", ErrInvalidFileName
	}
	kind, ok := allowedFiles[ext]
	if !ok {
		return "", "", fmt.Errorf("%w: .%s", ErrUnsupportedFileType, ext)
	}

	if declared != "" {
		mt, _, err := mime.ParseMediaType(declared)
		if err != nil {
			return "", "", ErrFileTypeMismatch
		}
		// generic binary uploads carry no claim about the content
		if mt != "application/octet-stream" && majorType(mt) != majorType(kind.contentType) {
			return "", "", ErrFileTypeMismatch
		}
	}
	return kind.contentType, kind.category, nil
}

func majorType(contentType string) string {
	major, _, _ := strings.Cut(contentType, "/")
	return major
}
