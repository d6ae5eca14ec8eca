package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/picstash/picstash"
)

// Service is the operation surface the handlers need. *picstash.Service
// satisfies it; tests substitute a mock.
type Service interface {
	Upload(ctx context.Context, name string, content io.Reader, contentType string) error
	ListURLs(ctx context.Context) ([]string, error)
	ListImages(ctx context.Context) ([]picstash.Image, error)
	Delete(ctx context.Context, name string) error
}

// uploadFieldName is the multipart form field holding the image.
const uploadFieldName = "image"

// maxUploadMemory bounds how much of a multipart body is held in memory
// before spilling to a temp file.
const maxUploadMemory = 32 << 20

type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type HandlerConfig struct {
	// StaticDir is the frontend asset directory the root route serves from.
	StaticDir string
	// MediaVerifier enables the /media/* route when both it and a
	// content-serving store are present.
	MediaVerifier *picstash.Verifier
	CORS          CORSConfig
}

// Handler provides the HTTP handlers of the gateway.
type Handler struct {
	config  HandlerConfig
	service Service
	opener  picstash.BlobOpener
}

// NewHandler creates a Handler. opener may be nil for stores with native
// presign support; the /media route is then not registered.
func NewHandler(config *HandlerConfig, service Service, opener picstash.BlobOpener) *Handler {
	return &Handler{
		config:  *config,
		service: service,
		opener:  opener,
	}
}

// Router returns the gateway's route table.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(RequestLogger)

	if h.config.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.config.CORS.AllowedOrigins,
			AllowedMethods:   h.config.CORS.AllowedMethods,
			AllowedHeaders:   h.config.CORS.AllowedHeaders,
			ExposedHeaders:   h.config.CORS.ExposedHeaders,
			AllowCredentials: h.config.CORS.AllowCredentials,
			MaxAge:           h.config.CORS.MaxAge,
		}))
	}

	r.Get("/", h.handleIndex)

	r.Route("/api", func(r chi.Router) {
		r.Post("/upload", h.handleUpload)
		r.Get("/images", h.handleImages)
		r.Get("/list-images", h.handleListImages)
		r.Delete("/delete-image/*", h.handleDelete)
	})

	if h.opener != nil && h.config.MediaVerifier != nil {
		r.Group(func(r chi.Router) {
			r.Use(VerifySignature(h.config.MediaVerifier))
			r.Get("/media/*", h.handleMedia)
		})
	}

	return r
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	indexPath := filepath.Join(h.config.StaticDir, "index.html")

	f, err := os.Open(indexPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			http.Error(w, fmt.Sprintf("index.html not found in %s", h.config.StaticDir), http.StatusNotFound)
			return
		}
		http.Error(w, "Error loading page. Check logs.", http.StatusInternalServerError)
		return
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		http.Error(w, "Error loading page. Check logs.", http.StatusInternalServerError)
		return
	}

	http.ServeContent(w, r, "index.html", info.ModTime(), f)
}

// UploadResponse is the body of a successful upload. URL is always null:
// objects are private, and viewing requires a separately requested signed URL.
type UploadResponse struct {
	Message  string  `json:"message"`
	Filename string  `json:"filename"`
	URL      *string `json:"url"`
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "No image file part in the request")
		return
	}

	file, header, err := r.FormFile(uploadFieldName)
	if err != nil {
		// A file part with an empty filename parses as a plain form value.
		if r.MultipartForm != nil {
			if _, ok := r.MultipartForm.Value[uploadFieldName]; ok {
				WriteError(w, http.StatusBadRequest, "invalid_request", "No selected file")
				return
			}
		}
		WriteError(w, http.StatusBadRequest, "invalid_request", "No image file part in the request")
		return
	}
	defer func() { _ = file.Close() }()

	if header.Filename == "" {
		WriteError(w, http.StatusBadRequest, "invalid_request", "No selected file")
		return
	}

	contentType := header.Header.Get("Content-Type")

	if err := h.service.Upload(r.Context(), header.Filename, file, contentType); err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusCreated, UploadResponse{
		Message:  fmt.Sprintf("File '%s' uploaded successfully (privately).", header.Filename),
		Filename: header.Filename,
		URL:      nil,
	})
}

func (h *Handler) handleImages(w http.ResponseWriter, r *http.Request) {
	urls, err := h.service.ListURLs(r.Context())
	if err != nil {
		HandleError(w, err)
		return
	}

	if urls == nil {
		urls = []string{}
	}
	_ = WriteJSON(w, http.StatusOK, urls)
}

func (h *Handler) handleListImages(w http.ResponseWriter, r *http.Request) {
	images, err := h.service.ListImages(r.Context())
	if err != nil {
		HandleError(w, err)
		return
	}

	if images == nil {
		images = []picstash.Image{}
	}
	_ = WriteJSON(w, http.StatusOK, images)
}

// DeleteResponse is the body of a successful deletion.
type DeleteResponse struct {
	Message string `json:"message"`
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	// The wildcard keeps multi-segment blob names intact.
	name := chi.URLParam(r, "*")

	if name == "" {
		WriteError(w, http.StatusBadRequest, "invalid_request", "filename cannot be empty")
		return
	}

	if err := h.service.Delete(r.Context(), name); err != nil {
		if errors.Is(err, picstash.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "not_found", fmt.Sprintf("File '%s' not found", name))
			return
		}
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, DeleteResponse{
		Message: fmt.Sprintf("File '%s' deleted successfully.", name),
	})
}

func (h *Handler) handleMedia(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "*")

	content, info, err := h.opener.Open(r.Context(), name)
	if err != nil {
		HandleError(w, err)
		return
	}
	defer func() { _ = content.Close() }()

	if info.ContentType != "" {
		w.Header().Set("Content-Type", info.ContentType)
	}
	if info.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
	}

	if _, err := io.Copy(w, content); err != nil {
		// Headers are already out; nothing to do but note it.
		requestLog(r).Error("failed to stream blob", "name", name, "err", err)
	}
}
