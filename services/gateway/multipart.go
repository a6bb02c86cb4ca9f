package gatewaysvc

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// FilePart is one file field of a multipart body.
type FilePart struct {
	Field       string
	Filename    string
	ContentType string
	Content     io.Reader
}

// Upload posts parts as a multipart/form-data body and returns the raw response.
func (g *Gateway) Upload(ctx context.Context, path, accept string, parts ...FilePart) (*Response, error) {
	body := new(bytes.Buffer)
	w := multipart.NewWriter(body)

	for _, part := range parts {
		if err := writeFilePart(w, part); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, errors.Wrap(err, "closing multipart body")
	}

	return g.Do(ctx, Request{
		Method:      http.MethodPost,
		Path:        path,
		Body:        body,
		ContentType: w.FormDataContentType(),
		Accept:      accept,
	})
}

func writeFilePart(w *multipart.Writer, part FilePart) error {
	ct := part.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="`+escapeQuotes(part.Field)+`"; filename="`+escapeQuotes(filepath.Base(part.Filename))+`"`)
	h.Set(HeaderContentType, ct)

	pw, err := w.CreatePart(h)
	if err != nil {
		return errors.Wrapf(err, "creating %s part", part.Field)
	}
	if _, err := io.Copy(pw, part.Content); err != nil {
		return errors.Wrapf(err, "writing %s part", part.Field)
	}
	return nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
