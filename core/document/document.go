// Package document holds the two file-processing screens: identity card field
// extraction and image background removal. Both share one upload Workflow.
package document

import (
	"context"
	"net/http"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Notification texts
const (
	MsgNoFile              = "Please select a file first"
	MsgExtractionSucceeded = "Extraction successful"
	MsgExtractionFailed    = "Failed to extract data"
	MsgRemovalSucceeded    = "Background removed successfully"
	MsgRemovalFailed       = "Failed to process image"

	NotFound          = "Not found"
	IncompleteTitle   = "Extraction Incomplete"
	IncompleteMessage = "Some fields could not be extracted confidently. Please verify the image clarity."

	// DownloadName is the file name a background removal result is saved under.
	DownloadName = "removed-bg.png"
)

// File is a local file chosen by the operator.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// ReadFile loads the file at path and sniffs its content type.
func ReadFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, errors.Wrapf(err, "reading %s", path)
	}
	return File{
		Name:        filepath.Base(path),
		ContentType: http.DetectContentType(data),
		Data:        data,
	}, nil
}

// ExtractedFields is the partial record read from an identity card.
// A missing field means "not found", never an error.
type ExtractedFields struct {
	Name          string `json:"name,omitempty"`
	DOB           string `json:"dob,omitempty"`
	Age           string `json:"age,omitempty"`
	AadhaarNumber string `json:"aadhaar_number,omitempty"`
}

// Incomplete reports whether the name or the card number is missing.
func (f ExtractedFields) Incomplete() bool {
	return f.Name == "" || f.AadhaarNumber == ""
}

func (f ExtractedFields) DisplayName() string { return orNotFound(f.Name) }

// DisplayDate falls back from the date of birth to the age.
func (f ExtractedFields) DisplayDate() string {
	if f.DOB != "" {
		return f.DOB
	}
	return orNotFound(f.Age)
}

func (f ExtractedFields) DisplayNumber() string { return orNotFound(f.AadhaarNumber) }

func orNotFound(s string) string {
	if s == "" {
		return NotFound
	}
	return s
}

// Image is a processed image returned by the remote side.
type Image struct {
	ContentType string
	Data        []byte
}

// Save writes img to dir under DownloadName and returns the written path.
func (img Image) Save(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrapf(err, "creating %s", dir)
	}
	path := filepath.Join(dir, DownloadName)
	if err := os.WriteFile(path, img.Data, 0o644); err != nil {
		return "", errors.Wrapf(err, "writing %s", path)
	}
	return path, nil
}

// Extractor is the remote identity card extraction capability.
type Extractor interface {
	Extract(ctx context.Context, f File) (ExtractedFields, error)
}

// BackgroundRemover is the remote background removal capability.
type BackgroundRemover interface {
	RemoveBackground(ctx context.Context, f File) (Image, error)
}
