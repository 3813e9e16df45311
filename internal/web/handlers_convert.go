package web

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/JonMunkholm/CandleConvert/internal/core"
	"github.com/JonMunkholm/CandleConvert/internal/logging"
	"github.com/JonMunkholm/CandleConvert/internal/web/templates"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.renderForm(w, r, http.StatusOK, nil)
}

func (s *Server) renderForm(w http.ResponseWriter, r *http.Request, status int, alert *templates.Alert) {
	data := templates.UploadFormData{
		DefaultSource: s.service.DefaultSource(),
		Timeframe:     r.FormValue("timeframe"),
		Error:         alert,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := templates.UploadForm(data).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render upload form", "error", err)
	}
}

// handleConvert runs one batch. The CSV comes from the "file" part when
// present, otherwise from "source_url" or the configured source.
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)

	if err := r.ParseMultipartForm(maxFormMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		// multipart does not always wrap the reader error.
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large") {
			s.respondError(w, r, fmt.Errorf("%w: upload exceeds %d bytes", core.ErrSourceTooLarge, s.maxBody))
			return
		}
		s.respondError(w, r, fmt.Errorf("%w: %w", core.ErrInvalidRequest, err))
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll() //nolint:errcheck
	}

	tf, err := core.ParseTimeframe(r.FormValue("timeframe"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var conv *core.Conversion
	file, header, err := r.FormFile("file")
	switch {
	case err == nil:
		defer file.Close()
		conv, err = s.service.ConvertUpload(r.Context(), header.Filename, file, tf)
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		conv, err = s.service.ConvertRemote(r.Context(), core.ConvertRequest{
			SourceURL: strings.TrimSpace(r.FormValue("source_url")),
			Timeframe: tf,
		})
	default:
		err = fmt.Errorf("%w: %w", core.ErrInvalidRequest, err)
	}
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeConversion(w, conv)
}

// writeConversion sends the converted JSON as a file download.
func writeConversion(w http.ResponseWriter, conv *core.Conversion) {
	h := w.Header()
	h.Set("Content-Type", "application/json")
	h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": conv.FileName}))
	h.Set("Content-Length", strconv.Itoa(len(conv.JSON)))
	h.Set("X-Batch-ID", conv.BatchID)
	h.Set("X-Rows-Total", strconv.Itoa(conv.Result.TotalRows))
	h.Set("X-Rows-Skipped", strconv.Itoa(conv.Result.Skipped()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(conv.JSON)
}
