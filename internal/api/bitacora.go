package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/snarg/bitacora/internal/analysis"
	"github.com/snarg/bitacora/internal/bitacora"
	"github.com/snarg/bitacora/internal/database"
	"github.com/snarg/bitacora/internal/transcribe"
)

// Processor runs one submission through the bitacora pipeline.
type Processor interface {
	Process(ctx context.Context, sub bitacora.Submission) (*database.Bitacora, error)
}

// EntryLister reads stored entries.
type EntryLister interface {
	ListBitacoras(ctx context.Context, userID string) ([]database.Bitacora, error)
}

// BitacoraHandler accepts voice recordings and lists stored entries.
type BitacoraHandler struct {
	processor Processor
	entries   EntryLister
	maxBytes  int64
	log       zerolog.Logger
}

// NewBitacoraHandler creates the handler. maxBytes caps the multipart body.
func NewBitacoraHandler(processor Processor, entries EntryLister, maxBytes int64, log zerolog.Logger) *BitacoraHandler {
	return &BitacoraHandler{
		processor: processor,
		entries:   entries,
		maxBytes:  maxBytes,
		log:       log.With().Str("handler", "bitacora").Logger(),
	}
}

// Create handles POST /api/bitacora.
// Multipart fields: audio (file, .wav or .mp3), user_id, transcription_service
// ("aws" or "whisper", optional).
func (h *BitacoraHandler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteErrorWithCode(w, http.StatusRequestEntityTooLarge, ErrTooLarge, "audio file too large")
			return
		}
		WriteErrorWithCode(w, http.StatusBadRequest, ErrInvalidBody, "invalid multipart form: "+err.Error())
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	sub := bitacora.Submission{
		UserID:  r.FormValue("user_id"),
		Variant: bitacora.Variant(r.FormValue("transcription_service")),
	}
	if file, header, err := r.FormFile("audio"); err == nil {
		defer file.Close()
		sub.Audio = file
		sub.Filename = header.Filename
	}

	entry, err := h.processor.Process(r.Context(), sub)
	if err != nil {
		h.writeProcessError(w, err)
		return
	}

	WriteData(w, http.StatusOK, "Bitácora procesada exitosamente", entry)
}

// writeProcessError maps pipeline errors to HTTP responses.
func (h *BitacoraHandler) writeProcessError(w http.ResponseWriter, err error) {
	var (
		ve *bitacora.ValidationError
		te *transcribe.Error
		ae *analysis.Error
		pe *bitacora.PersistenceError
	)
	switch {
	case errors.As(err, &ve):
		WriteErrorWithCode(w, http.StatusBadRequest, ErrValidation, ve.Message)
	case errors.As(err, &te):
		WriteErrorDetail(w, http.StatusInternalServerError, ErrTranscription,
			"Error en la transcripción", te.Reason)
	case errors.As(err, &ae):
		WriteJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "Error en el análisis",
			Code:    ErrAnalysis,
			Detail:  ae.Reason,
			Missing: ae.Missing,
		})
	case errors.As(err, &pe):
		WriteJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:  "Error al guardar en base de datos",
			Code:   ErrPersistence,
			Detail: pe.Err.Error(),
			Data:   pe.Entry,
		})
	default:
		h.log.Error().Err(err).Msg("bitacora processing failed")
		WriteErrorWithCode(w, http.StatusInternalServerError, ErrInternal, "internal server error")
	}
}

// List handles GET /api/bitacora?user_id=. Entries are newest first.
func (h *BitacoraHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := QueryString(r, "user_id")
	if !ok {
		WriteErrorWithCode(w, http.StatusBadRequest, ErrValidation, "user_id is required")
		return
	}

	entries, err := h.entries.ListBitacoras(r.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("list bitacoras failed")
		WriteErrorDetail(w, http.StatusInternalServerError, ErrInternal, "Error al obtener bitácoras", err.Error())
		return
	}

	WriteData(w, http.StatusOK, "Bitácoras obtenidas exitosamente", entries)
}
