package http

import (
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/textproto"
	neturl "net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// BodyMode is the strategy used to serialize a request body.
type BodyMode int

const (
	// BodyAuto defers the choice to ResolveBodyMode.
	BodyAuto BodyMode = iota
	BodyNone
	BodyRaw
	BodyURLEncoded
	BodyMultipart
)

func (m BodyMode) String() string {
	switch m {
	case BodyAuto:
		return "AUTO"
	case BodyNone:
		return "NONE"
	case BodyRaw:
		return "RAW"
	case BodyURLEncoded:
		return "URL_ENCODED"
	case BodyMultipart:
		return "MULTIPART"
	default:
		return fmt.Sprintf("BodyMode(%d)", int(m))
	}
}

// ResolveBodyMode turns the requested mode into a concrete one. Raw data wins,
// then any file field selects multipart, then any field selects URL encoding.
func ResolveBodyMode(requested BodyMode, hasRaw bool, fields []Field) BodyMode {
	if hasRaw {
		return BodyRaw
	}
	if requested != BodyAuto {
		return requested
	}
	if len(fields) == 0 {
		return BodyNone
	}
	for _, f := range fields {
		if f.IsFile() {
			return BodyMultipart
		}
	}
	return BodyURLEncoded
}

// BodyWriter serializes a request body.
type BodyWriter interface {
	// ContentType is the value for the Content-Type header, empty to leave
	// the caller's header untouched.
	ContentType() string
	Write(w io.Writer) error
}

// RawWriter writes Data, or the contents of File, verbatim.
type RawWriter struct {
	Data      []byte
	File      string
	MediaType string
}

func (w *RawWriter) ContentType() string {
	return w.MediaType
}

func (w *RawWriter) Write(out io.Writer) error {
	if w.File == "" {
		_, err := out.Write(w.Data)
		return err
	}

	f, err := os.Open(w.File)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(out, f)
	return err
}

// URLEncodedWriter writes name=value pairs joined by "&", after Query when the
// target URL already carries one.
type URLEncodedWriter struct {
	Query  string
	Fields []Field
}

func (w *URLEncodedWriter) ContentType() string {
	return "application/x-www-form-urlencoded"
}

func (w *URLEncodedWriter) Encode() string {
	pairs := make([]string, 0, len(w.Fields)+1)
	if w.Query != "" {
		pairs = append(pairs, w.Query)
	}
	for _, f := range w.Fields {
		pairs = append(pairs, neturl.QueryEscape(f.Name)+"="+neturl.QueryEscape(f.Value))
	}
	return strings.Join(pairs, "&")
}

func (w *URLEncodedWriter) Write(out io.Writer) error {
	_, err := io.WriteString(out, w.Encode())
	return err
}

// MultipartWriter writes every field as one form-data part.
type MultipartWriter struct {
	Boundary string
	Fields   []Field
}

// NewMultipartWriter returns a writer with a freshly generated boundary.
func NewMultipartWriter(fields []Field) *MultipartWriter {
	return &MultipartWriter{
		Boundary: "EasyHttpBoundary" + strings.ReplaceAll(uuid.NewString(), "-", ""),
		Fields:   fields,
	}
}

func (w *MultipartWriter) ContentType() string {
	return "multipart/form-data; boundary=" + w.Boundary
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func (w *MultipartWriter) Write(out io.Writer) error {
	mw := multipart.NewWriter(out)
	if err := mw.SetBoundary(w.Boundary); err != nil {
		return err
	}

	for _, f := range w.Fields {
		var err error
		if f.IsFile() {
			err = writeFilePart(mw, f)
		} else {
			err = writeTextPart(mw, f)
		}
		if err != nil {
			return fmt.Errorf("field %q: %w", f.Name, err)
		}
	}

	return mw.Close()
}

func writeTextPart(mw *multipart.Writer, f Field) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"`, quoteEscaper.Replace(f.Name)))
	if f.MediaType != "" {
		h.Set("Content-Type", f.MediaType)
	}

	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = io.WriteString(part, f.Value)
	return err
}

func writeFilePart(mw *multipart.Writer, f Field) error {
	file, err := os.Open(f.File)
	if err != nil {
		return err
	}
	defer file.Close()

	mediaType := f.MediaType
	if mediaType == "" {
		mediaType = mime.TypeByExtension(filepath.Ext(f.File))
	}
	if mediaType == "" {
		mediaType = "application/octet-stream"
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(f.Name), quoteEscaper.Replace(filepath.Base(f.File))))
	h.Set("Content-Type", mediaType)

	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = io.Copy(part, file)
	return err
}
