package remotesvc

import (
	"bytes"
	"context"
	"net/http"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"

	"github.com/trezcool/masomo-console/core/document"
	gatewaysvc "github.com/trezcool/masomo-console/services/gateway"
)

const (
	pathOCR      = "/utils/ocr"
	pathRemoveBG = "/utils/remove-bg"
	fileField    = "file"
)

func filePart(f document.File) gatewaysvc.FilePart {
	return gatewaysvc.FilePart{
		Field:       fileField,
		Filename:    f.Name,
		ContentType: f.ContentType,
		Content:     bytes.NewReader(f.Data),
	}
}

type OCRClient struct {
	gw *gatewaysvc.Gateway
}

var _ document.Extractor = (*OCRClient)(nil)

func NewOCRClient(gw *gatewaysvc.Gateway) *OCRClient {
	return &OCRClient{gw: gw}
}

// Extract uploads f and reads whichever fields the remote side found.
// Non-string values (e.g. a numeric age) are kept in their textual form.
func (c *OCRClient) Extract(ctx context.Context, f document.File) (document.ExtractedFields, error) {
	resp, err := c.gw.Upload(ctx, pathOCR, gatewaysvc.MIMEApplicationJSON, filePart(f))
	if err != nil {
		return document.ExtractedFields{}, err
	}
	if !gjson.ValidBytes(resp.Body) {
		return document.ExtractedFields{}, errors.New("ocr response is not valid JSON")
	}
	res := gjson.ParseBytes(resp.Body)
	field := func(key string) string {
		v := res.Get(key)
		if !v.Exists() || v.Type == gjson.Null {
			return ""
		}
		return v.String()
	}
	return document.ExtractedFields{
		Name:          field("name"),
		DOB:           field("dob"),
		Age:           field("age"),
		AadhaarNumber: field("aadhaar_number"),
	}, nil
}

type BackgroundClient struct {
	gw *gatewaysvc.Gateway
}

var _ document.BackgroundRemover = (*BackgroundClient)(nil)

func NewBackgroundClient(gw *gatewaysvc.Gateway) *BackgroundClient {
	return &BackgroundClient{gw: gw}
}

// RemoveBackground uploads f and returns the binary image answered.
func (c *BackgroundClient) RemoveBackground(ctx context.Context, f document.File) (document.Image, error) {
	resp, err := c.gw.Upload(ctx, pathRemoveBG, "image/*", filePart(f))
	if err != nil {
		return document.Image{}, err
	}
	ct := resp.Header.Get(gatewaysvc.HeaderContentType)
	if ct == "" {
		ct = http.DetectContentType(resp.Body)
	}
	return document.Image{ContentType: ct, Data: resp.Body}, nil
}
