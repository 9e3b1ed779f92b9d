package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"lumen/internal/core"
)

// maxReceiptBytes caps uploads at 10 MiB.
const maxReceiptBytes = 10 << 20

// saveReceipt stores the uploaded "receipt" file and returns the stored
// filename. An empty name with nil error means no file was attached.
func (s *Server) saveReceipt(r *http.Request) (string, error) {
	file, header, err := r.FormFile("receipt")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return "", nil
		}
		return "", fmt.Errorf("%w: read upload: %v", core.ErrIOFailure, err)
	}
	defer file.Close()

	if header.Size > maxReceiptBytes {
		return "", fmt.Errorf("%w: file too large", core.ErrIOFailure)
	}

	if err := os.MkdirAll(s.receiptsDir, 0o755); err != nil {
		return "", fmt.Errorf("%w: create receipts dir: %v", core.ErrIOFailure, err)
	}

	name := core.ReceiptFilename(time.Now(), header.Filename)
	dst, err := os.Create(filepath.Join(s.receiptsDir, name))
	if err != nil {
		return "", fmt.Errorf("%w: create file: %v", core.ErrIOFailure, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, io.LimitReader(file, maxReceiptBytes)); err != nil {
		return "", fmt.Errorf("%w: write file: %v", core.ErrIOFailure, err)
	}

	s.logger.InfoContext(r.Context(), "receipt stored", "file", name)
	return name, nil
}

// handleReceiptFile serves a stored receipt back to the authenticated user.
func (s *Server) handleReceiptFile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	name := path.Base(strings.TrimPrefix(r.URL.Path, "/receipts/"))
	if name == "" || name == "." || name == "/" {
		http.NotFound(w, r)
		return
	}

	full := filepath.Join(s.receiptsDir, name)
	if _, err := os.Stat(full); err != nil {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, full)
}
