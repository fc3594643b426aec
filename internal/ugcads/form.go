package ugcads

import (
	"mime/multipart"
	"net/url"
	"strings"
)

// ParsedForm is the raw multipart body. Values that are empty, "null" or
// "undefined" are reported as absent.
type ParsedForm struct {
	values url.Values
	files  map[string][]*multipart.FileHeader
}

func ParseForm(form *multipart.Form) *ParsedForm {
	if form == nil {
		return NewParsedForm(nil, nil)
	}
	return NewParsedForm(url.Values(form.Value), form.File)
}

func NewParsedForm(values url.Values, files map[string][]*multipart.FileHeader) *ParsedForm {
	if values == nil {
		values = url.Values{}
	}
	if files == nil {
		files = map[string][]*multipart.FileHeader{}
	}
	return &ParsedForm{values: values, files: files}
}

// Get returns the first present value among names, in order.
func (f *ParsedForm) Get(names ...string) (string, bool) {
	for _, name := range names {
		for _, v := range f.values[name] {
			if !isAbsent(v) {
				return strings.TrimSpace(v), true
			}
		}
	}
	return "", false
}

// Value is Get without the presence flag.
func (f *ParsedForm) Value(names ...string) string {
	v, _ := f.Get(names...)
	return v
}

// File returns the first non-empty file part among names.
func (f *ParsedForm) File(names ...string) (*multipart.FileHeader, string) {
	for _, name := range names {
		for _, fh := range f.files[name] {
			if fh != nil && fh.Size > 0 {
				return fh, name
			}
		}
	}
	return nil, ""
}

func (f *ParsedForm) HasFile(names ...string) bool {
	fh, _ := f.File(names...)
	return fh != nil
}

func isAbsent(v string) bool {
	switch strings.TrimSpace(v) {
	case "", "null", "undefined":
		return true
	}
	return false
}
