package form

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

// Kind enumerates the shapes a field value can take.
type Kind int

const (
	KindText Kind = iota
	KindBool
	KindFile
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindBool:
		return "bool"
	case KindFile:
		return "file"
	case KindList:
		return "list"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// FileRef points at a document the user attached to a field.
type FileRef struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	Size     int64  `json:"size"`
	MIMEType string `json:"mime_type"`
}

// OpenFile stats a local file and describes it as a FileRef. The MIME type is
// inferred from the extension.
func OpenFile(path string) (FileRef, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return FileRef{}, fmt.Errorf("form: file path is required")
	}
	info, err := os.Stat(path)
	if err != nil {
		return FileRef{}, fmt.Errorf("form: stat %s: %w", path, err)
	}
	if info.IsDir() {
		return FileRef{}, fmt.Errorf("form: %s is a directory", path)
	}
	ext := strings.ToLower(filepath.Ext(path))
	mimeType := mime.TypeByExtension(ext)
	if idx := strings.Index(mimeType, ";"); idx >= 0 {
		mimeType = strings.TrimSpace(mimeType[:idx])
	}
	if mimeType == "" {
		mimeType = fallbackMIMETypes[ext]
	}
	return FileRef{
		Name:     filepath.Base(path),
		Path:     path,
		Size:     info.Size(),
		MIMEType: mimeType,
	}, nil
}

// The system MIME table is not guaranteed to know office formats.
var fallbackMIMETypes = map[string]string{
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// Value is a single field value. The zero Value is an empty text value.
type Value struct {
	kind Kind
	text string
	flag bool
	file *FileRef
	list []string
}

// Text wraps a string value.
func Text(s string) Value { return Value{kind: KindText, text: s} }

// Bool wraps a checkbox value.
func Bool(b bool) Value { return Value{kind: KindBool, flag: b} }

// File wraps an attached document.
func File(ref FileRef) Value {
	r := ref
	return Value{kind: KindFile, file: &r}
}

// List wraps an ordered sequence of strings.
func List(items ...string) Value {
	return Value{kind: KindList, list: cloneStrings(items)}
}

// Kind reports the value's shape.
func (v Value) Kind() Kind { return v.kind }

// String returns the text of a text value. Other kinds render a readable form.
func (v Value) String() string {
	switch v.kind {
	case KindBool:
		if v.flag {
			return "true"
		}
		return "false"
	case KindFile:
		if v.file == nil {
			return ""
		}
		return v.file.Name
	case KindList:
		return strings.Join(v.list, ", ")
	default:
		return v.text
	}
}

// Bool returns the flag of a boolean value and false for any other kind.
func (v Value) Bool() bool {
	return v.kind == KindBool && v.flag
}

// File returns the attached document, if any.
func (v Value) File() (FileRef, bool) {
	if v.kind != KindFile || v.file == nil {
		return FileRef{}, false
	}
	return *v.file, true
}

// List returns a copy of the items of a list value.
func (v Value) List() []string {
	if v.kind != KindList {
		return nil
	}
	return cloneStrings(v.list)
}

// IsZero reports whether the value carries no user input.
func (v Value) IsZero() bool {
	switch v.kind {
	case KindBool:
		return !v.flag
	case KindFile:
		return v.file == nil
	case KindList:
		return len(v.list) == 0
	default:
		return strings.TrimSpace(v.text) == ""
	}
}

// Equal compares two values by kind and content.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindBool:
		return v.flag == other.flag
	case KindFile:
		if v.file == nil || other.file == nil {
			return v.file == nil && other.file == nil
		}
		return *v.file == *other.file
	case KindList:
		if len(v.list) != len(other.list) {
			return false
		}
		for i := range v.list {
			if v.list[i] != other.list[i] {
				return false
			}
		}
		return true
	default:
		return v.text == other.text
	}
}

func (v Value) clone() Value {
	out := Value{kind: v.kind, text: v.text, flag: v.flag}
	if v.file != nil {
		ref := *v.file
		out.file = &ref
	}
	out.list = cloneStrings(v.list)
	return out
}

// SplitList turns comma separated input into trimmed, non-empty items.
func SplitList(input string) []string {
	parts := strings.Split(input, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

func cloneStrings(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, len(values))
	copy(out, values)
	return out
}
