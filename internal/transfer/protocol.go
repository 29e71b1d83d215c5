package transfer

import (
	"encoding/json"
	"net/http"
	"time"
)

// Chunk sizes; each side of each protocol has its own.
const (
	// GRPCClientChunkSize is the payload size of upload messages.
	GRPCClientChunkSize = 1024 * 1024
	// GRPCServerChunkSize is the payload size of download messages.
	GRPCServerChunkSize = 64 * 1024
	// HTTPReadChunkSize is the read size for streamed HTTP bodies.
	HTTPReadChunkSize = 1024 * 1024
)

// MaxMessageSize is the gRPC send and receive ceiling on both ends.
const MaxMessageSize = 500 * 1024 * 1024

const (
	DefaultHTTPTimeout = 60 * time.Second
	DefaultGRPCTimeout = 300 * time.Second
)

// HTTP routes
const (
	UploadPath = "/upload/"
	FilesPath  = "/files/"
	HealthPath = "/healthz"
)

// UploadResponse is the JSON body of a successful HTTP upload.
type UploadResponse struct {
	Message       string `json:"message"`
	BytesReceived int64  `json:"bytes_received"`
	SHA256        string `json:"sha256,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code"`
}

// Response helpers
func WriteJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		}
	}
}

func WriteErrorResponse(w http.ResponseWriter, statusCode int, errorMsg string) {
	response := ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: errorMsg,
		Code:    statusCode,
	}
	WriteJSONResponse(w, statusCode, response)
}
