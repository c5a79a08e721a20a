package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/MrSnakeDoc/bookmarkhub/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookmarkhub/internal/logger"
	"github.com/MrSnakeDoc/bookmarkhub/internal/service"
	"github.com/MrSnakeDoc/bookmarkhub/internal/sources/netscape"
	"github.com/MrSnakeDoc/bookmarkhub/internal/utils"
)

const defaultImportMaxBytes = 10 << 20

// ImportBookmarks accepts a Netscape bookmark file either as the "file"
// field of a multipart form or as the raw request body.
func ImportBookmarks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := session(r)
		if err != nil {
			writeError(w, d.Logger, r, err)
			return
		}
		limit := d.ImportMaxBytes
		if limit <= 0 {
			limit = defaultImportMaxBytes
		}
		r.Body = http.MaxBytesReader(w, r.Body, limit)

		var src io.Reader = r.Body
		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			file, _, err := r.FormFile("file")
			if err != nil {
				writeError(w, d.Logger, r, uploadError(err))
				return
			}
			defer utils.CloseLogged(file, d.Logger, "upload")
			src = file
		}

		data, err := io.ReadAll(src)
		if err != nil {
			writeError(w, d.Logger, r, uploadError(err))
			return
		}
		report, err := d.Service.ImportNetscape(r.Context(), sess, bytes.NewReader(data))
		if err != nil {
			writeError(w, d.Logger, r, err)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}

// ExportBookmarks downloads every bookmark as a Netscape bookmark file.
func ExportBookmarks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := session(r)
		if err != nil {
			writeError(w, d.Logger, r, err)
			return
		}
		var buf bytes.Buffer
		if err := d.Service.Export(r.Context(), sess, &buf); err != nil {
			writeError(w, d.Logger, r, err)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", netscape.Filename(d.Now())))
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(http.StatusOK)
		if _, err := buf.WriteTo(w); err != nil {
			d.Logger.Debug("failed to write export", logger.Error(err))
		}
	}
}

func uploadError(err error) error {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return fmt.Errorf("%w: file larger than %d bytes", service.ErrInvalid, tooLarge.Limit)
	case errors.Is(err, http.ErrMissingFile):
		return fmt.Errorf("%w: missing file field", service.ErrInvalid)
	case errors.Is(err, http.ErrNotMultipart):
		return fmt.Errorf("%w: %v", service.ErrInvalid, err)
	default:
		return err
	}
}
