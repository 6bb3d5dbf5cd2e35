// Package uploads stores the seller company images, either on local disk
// (served under /uploads/) or in an S3 bucket.
package uploads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Company image form fields and how many files each accepts.
const (
	FieldCompanyLogo     = "companyLogo"
	FieldCompanyCover    = "companyCover"
	FieldCompanyPictures = "companyPictures"
)

var fieldLimits = map[string]int{
	FieldCompanyLogo:     1,
	FieldCompanyCover:    1,
	FieldCompanyPictures: 10,
}

// MaxMemory is the multipart memory budget; larger parts spill to temp files.
const MaxMemory = 10 << 20

var ErrTooManyFiles = errors.New("too many files")

// Store persists one uploaded file and returns the key it is reachable by.
type Store interface {
	Save(ctx context.Context, name string, r io.Reader, contentType string) (string, error)
}

// CompanyImages holds the keys of the files stored from one form. Empty
// fields mean nothing was uploaded for them.
type CompanyImages struct {
	Logo     string
	Cover    string
	Pictures []string
}

// FileName builds a unique object name that keeps the form field and the
// original extension.
func FileName(field, original string) string {
	return fmt.Sprintf("%s-%s%s", uuid.New().String(), field, strings.ToLower(filepath.Ext(original)))
}

// SaveCompanyImages stores the company image fields of form. It rejects the
// whole form before storing anything when a field exceeds its limit.
func SaveCompanyImages(ctx context.Context, store Store, form *multipart.Form) (CompanyImages, error) {
	var out CompanyImages
	if form == nil {
		return out, nil
	}
	for field, limit := range fieldLimits {
		if n := len(form.File[field]); n > limit {
			return out, fmt.Errorf("%w: %s accepts %d, got %d", ErrTooManyFiles, field, limit, n)
		}
	}

	for _, field := range []string{FieldCompanyLogo, FieldCompanyCover, FieldCompanyPictures} {
		for _, fh := range form.File[field] {
			key, err := saveFile(ctx, store, field, fh)
			if err != nil {
				return out, err
			}
			switch field {
			case FieldCompanyLogo:
				out.Logo = key
			case FieldCompanyCover:
				out.Cover = key
			default:
				out.Pictures = append(out.Pictures, key)
			}
		}
	}
	return out, nil
}

func saveFile(ctx context.Context, store Store, field string, fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer f.Close()

	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	key, err := store.Save(ctx, FileName(field, fh.Filename), f, contentType)
	if err != nil {
		return "", fmt.Errorf("store %s: %w", fh.Filename, err)
	}
	return key, nil
}
