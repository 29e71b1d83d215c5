package transfer

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jaywantadh/gwbench/internal/chunker"
	"github.com/jaywantadh/gwbench/internal/storage"
	"github.com/jaywantadh/gwbench/pkg/logging"
)

// HTTPHandler serves uploads and downloads over plain HTTP bodies.
type HTTPHandler struct {
	store  storage.Storage
	pool   *Pool
	logger *logrus.Logger
}

// NewHTTPHandler creates the HTTP side of the file server. pool may be nil,
// in which case calls are not limited.
func NewHTTPHandler(store storage.Storage, pool *Pool, logger *logrus.Logger) *HTTPHandler {
	return &HTTPHandler{
		store:  store,
		pool:   pool,
		logger: logging.Or(logger),
	}
}

// Routes returns the handler with every route registered.
func (h *HTTPHandler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(UploadPath, h.handleUpload)
	mux.HandleFunc(FilesPath, h.handleFiles)
	mux.HandleFunc(HealthPath, h.handleHealth)

	if h.pool == nil {
		return mux
	}
	return h.pool.Limit(mux)
}

// handleUpload handles PUT /upload/{filename}
func (h *HTTPHandler) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		WriteErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	filename := strings.TrimPrefix(r.URL.Path, UploadPath)
	log := h.logger.WithFields(logrus.Fields{
		"transfer_id": uuid.New().String(),
		"protocol":    ProtocolHTTP,
		"filename":    filename,
	})

	body := chunker.NewSource(r.Body, filename, r.ContentLength, HTTPReadChunkSize)
	summary, err := h.store.Store(filename, body)
	if err != nil {
		log.WithError(err).Warn("HTTP upload failed")
		WriteErrorResponse(w, storageStatus(err), err.Error())
		return
	}

	log.WithField("bytes", summary.BytesReceived).Info("HTTP upload complete")
	WriteJSONResponse(w, http.StatusCreated, UploadResponse{
		Message:       summary.Message,
		BytesReceived: summary.BytesReceived,
		SHA256:        summary.SHA256,
	})
}

// handleFiles handles GET /files/ and GET /files/{filename}
func (h *HTTPHandler) handleFiles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		WriteErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	filename := strings.TrimPrefix(r.URL.Path, FilesPath)
	if filename == "" {
		h.handleList(w)
		return
	}

	src, err := h.store.Retrieve(filename, HTTPReadChunkSize)
	if err != nil {
		WriteErrorResponse(w, storageStatus(err), err.Error())
		return
	}
	defer src.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.FormatInt(src.TotalSize(), 10))
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}

	log := h.logger.WithFields(logrus.Fields{
		"protocol": ProtocolHTTP,
		"filename": filename,
	})
	for {
		chunk, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.WithError(err).Warn("HTTP download interrupted")
			return
		}
		if _, err := w.Write(chunk.Data); err != nil {
			log.WithError(err).Warn("Client went away during download")
			return
		}
	}
	log.WithField("bytes", src.Sent()).Info("HTTP download complete")
}

func (h *HTTPHandler) handleList(w http.ResponseWriter) {
	records, err := h.store.List()
	if err != nil {
		WriteErrorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	WriteJSONResponse(w, http.StatusOK, records)
}

func (h *HTTPHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	WriteJSONResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// storageStatus maps a storage error to the HTTP status reported for it.
func storageStatus(err error) int {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrInvalidName), errors.Is(err, storage.ErrSizeMismatch):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
