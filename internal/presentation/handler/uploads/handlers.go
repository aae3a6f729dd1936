package uploads

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/meetflow/chat-relay/internal/infrastructure/configs"
	"github.com/meetflow/chat-relay/internal/infrastructure/json"
	"github.com/meetflow/chat-relay/internal/infrastructure/storage"
	"github.com/meetflow/chat-relay/internal/presentation/utils"
	"go.uber.org/zap"
)

// Handler implements the upload service consumed by the chat's file
// messages: authenticated multipart upload in, {url,name,size,type} out.
type Handler struct {
	storage *storage.LocalStorage
	cfg     configs.UploadsConfig
	logger  *zap.SugaredLogger
}

func NewHandler(store *storage.LocalStorage, cfg configs.UploadsConfig, logger *zap.SugaredLogger) *Handler {
	return &Handler{
		storage: store,
		cfg:     cfg,
		logger:  logger,
	}
}

func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	identity, err := utils.GetIdentity(r)
	if err != nil {
		json.WriteUnauthorizedError(w, "Missing or invalid authentication")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		json.WriteBadRequestError(w, "A 'file' form field is required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	name, size, err := h.storage.Save(header.Filename, file, h.maxBytesFor(contentType))
	if err != nil {
		if errors.Is(err, storage.ErrFileTooLarge) {
			json.WriteError(w, http.StatusRequestEntityTooLarge, err, "File exceeds the allowed size for its type")
			return
		}
		json.WriteInternalError(w, err)
		return
	}

	h.logger.Infow("upload complete",
		"user", identity.UserID,
		"file", name,
		"size", size,
		"type", contentType,
	)

	json.Write(w, http.StatusCreated, uploadResponse{
		URL:  "/api/uploads/" + name,
		Name: header.Filename,
		Size: size,
		Type: contentType,
	})
}

func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "file")

	path, err := h.storage.Path(name)
	if err != nil {
		json.WriteBadRequestError(w, "Invalid file name")
		return
	}
	if !h.storage.Exists(name) {
		json.WriteNotFoundError(w, "File not found")
		return
	}

	http.ServeFile(w, r, path)
}

// maxBytesFor mirrors the meeting file router's caps: 16MiB for video,
// 4MiB for everything else.
func (h *Handler) maxBytesFor(contentType string) int64 {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return h.cfg.MaxImageBytes
	case strings.HasPrefix(contentType, "video/"):
		return h.cfg.MaxVideoBytes
	default:
		return h.cfg.MaxOtherBytes
	}
}
