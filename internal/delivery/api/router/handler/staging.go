package handler

import (
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"slices"
	"strings"

	domainerrors "philbox/internal/domain/errors"

	"github.com/pkg/errors"
)

var allowedUploadExts = []string{".pdf", ".jpg", ".jpeg", ".png", ".webp"}

// fileStager copies multipart parts to local files the uploader can read.
// Every staged path is removed by cleanup unless the uploader already consumed it.
type fileStager struct {
	dir   string
	paths []string
}

func newFileStager(dir string) *fileStager {
	if dir == "" {
		dir = os.TempDir()
	}

	return &fileStager{dir: dir}
}

func (s *fileStager) stage(fh *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !slices.Contains(allowedUploadExts, ext) {
		return "", domainerrors.ErrValidationFailed.WithDetails("unsupported file type " + ext + " for " + fh.Filename)
	}

	src, err := fh.Open()
	if err != nil {
		return "", errors.Wrap(err, "failed to open multipart file")
	}
	defer src.Close()

	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return "", errors.Wrap(err, "failed to create staging dir")
	}
	dst, err := os.CreateTemp(s.dir, "upload-*"+ext)
	if err != nil {
		return "", errors.Wrap(err, "failed to create staging file")
	}
	s.paths = append(s.paths, dst.Name())

	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()

		return "", errors.Wrap(err, "failed to stage upload")
	}
	if err := dst.Close(); err != nil {
		return "", errors.Wrap(err, "failed to stage upload")
	}

	return dst.Name(), nil
}

// stageAll stages every file under one form field.
func (s *fileStager) stageAll(form *multipart.Form, field string) ([]string, error) {
	if form == nil {
		return nil, nil
	}
	headers := form.File[field]
	paths := make([]string, 0, len(headers))
	for _, fh := range headers {
		path, err := s.stage(fh)
		if err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}

	return paths, nil
}

// stageOne stages the first file under field, or returns "" when there is none.
func (s *fileStager) stageOne(form *multipart.Form, field string) (string, error) {
	if form == nil || len(form.File[field]) == 0 {
		return "", nil
	}

	return s.stage(form.File[field][0])
}

func (s *fileStager) cleanup() {
	for _, p := range s.paths {
		// The uploader deletes what it consumed, so a missing file is expected.
		_ = os.Remove(p)
	}
}
