package handlers

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"mediadetect/internal/i18n"
	"mediadetect/internal/middleware"
)

const multipartMemory = 32 << 20

// Predict accepts a multipart upload in the "file" field and returns the
// pipeline result. Pipeline failures are reported in the body with status
// 200; only malformed requests and staging faults get error statuses.
func (a *App) Predict(w http.ResponseWriter, r *http.Request) {
	log := zerolog.Ctx(r.Context())
	if log.GetLevel() == zerolog.Disabled {
		log = &a.Logger
	}

	if a.MaxUploadBytes > 0 {
		if r.ContentLength > a.MaxUploadBytes {
			a.error(w, http.StatusRequestEntityTooLarge, "payload_too_large", "upload exceeds size limit")
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, a.MaxUploadBytes)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			a.error(w, http.StatusRequestEntityTooLarge, "payload_too_large", "upload exceeds size limit")
			return
		}
		a.error(w, http.StatusBadRequest, "bad_request", "multipart form required")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "file is required")
		return
	}
	defer file.Close()
	if header.Size == 0 {
		a.error(w, http.StatusBadRequest, "empty_upload", "uploaded file is empty")
		return
	}

	res, err := a.Pipeline.Ingest(r.Context(), header.Filename, file)
	if err != nil {
		log.Error().Err(err).Str("filename", header.Filename).Msg("predict: staging upload failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to store upload")
		return
	}
	a.json(w, http.StatusOK, i18n.Localize(res, middleware.LocaleFromContext(r.Context())))
}
