package server

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/BrandonIrizarry/docpicker/internal/server/httpx"
)

// maxNameAttempts bounds the " (n)" suffixes tried for a clashing name.
const maxNameAttempts = 1000

type uploadResponse struct {
	Name      string `json:"name"`
	Subfolder string `json:"subfolder,omitempty"`
}

// uploadDocumentHandler stores the multipart "document" field in the
// input directory, or in its "subfolder" when one is given.
func (s *Server) uploadDocumentHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			httpx.WriteText(w, http.StatusRequestEntityTooLarge, err.Error())
			return
		}
		httpx.WriteText(w, http.StatusBadRequest, err.Error())
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("document")
	if err != nil {
		httpx.WriteText(w, http.StatusBadRequest, "Missing 'document' field")
		return
	}
	defer file.Close()

	name := uploadName(header.Filename)
	if name == "" {
		httpx.WriteText(w, http.StatusBadRequest, "Invalid file name")
		return
	}

	subfolder := strings.Trim(filepath.ToSlash(filepath.Clean("/"+r.FormValue("subfolder"))), "/")
	dir := filepath.Join(s.inputDir, filepath.FromSlash(subfolder))

	if !within(s.inputDir, dir) || !s.lister.IsSafe(filepath.Join(dir, name)) {
		httpx.WriteText(w, http.StatusForbidden, "Invalid file path")
		return
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		s.log.Error().Err(err).Str("dir", dir).Msg("create upload dir")
		httpx.WriteText(w, http.StatusInternalServerError, err.Error())
		return
	}

	stored, err := storeUpload(dir, name, file)
	if err != nil {
		s.log.Error().Err(err).Str("name", name).Msg("store upload")
		httpx.WriteText(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.log.Info().Str("name", stored).Str("subfolder", subfolder).Int64("size", header.Size).Msg("document uploaded")
	httpx.WriteJSON(w, http.StatusOK, uploadResponse{Name: stored, Subfolder: subfolder})
}

// uploadName keeps only the base name of a client-supplied file name.
// Browsers on Windows send backslashes.
func uploadName(filename string) string {
	name := filepath.Base(strings.ReplaceAll(filename, `\`, "/"))
	switch name {
	case ".", "..", "/", "":
		return ""
	}
	return name
}

// within reports whether path is dir or lies below it.
func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// storeUpload writes src next to its final place, then links it under
// the first free variant of name. It returns the name used.
func storeUpload(dir, name string, src io.Reader) (string, error) {
	tmp := filepath.Join(dir, "."+uuid.NewString()+".part")
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp)

	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}

	for n := 0; n < maxNameAttempts; n++ {
		candidate := numberedName(name, n)
		err := os.Link(tmp, filepath.Join(dir, candidate))
		if err == nil {
			return candidate, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("store %s: %w", candidate, err)
		}
	}
	return "", fmt.Errorf("store %s: too many files with that name", name)
}

// numberedName turns "a.pdf" into "a (n).pdf"; n == 0 keeps the name.
func numberedName(name string, n int) string {
	if n == 0 {
		return name
	}
	ext := filepath.Ext(name)
	return fmt.Sprintf("%s (%d)%s", strings.TrimSuffix(name, ext), n, ext)
}
