package transfer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/jaywantadh/gwbench/internal/storage"
)

// Kind classifies why a transfer failed.
type Kind string

const (
	KindNone             Kind = ""
	KindNotFound         Kind = "not_found"
	KindTimeout          Kind = "timeout"
	KindTransportFailure Kind = "transport_failure"
	KindServerFailure    Kind = "server_failure"
	KindInvalidInput     Kind = "invalid_input"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrTimeout   = errors.New("deadline exceeded")
	ErrTransport = errors.New("transport failure")
	ErrServer    = errors.New("server failure")
)

// StatusError is a non-success HTTP status returned by the server.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d", e.Code)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

// Classify maps any error produced along a transfer path to a Kind.
func Classify(err error) Kind {
	if err == nil {
		return KindNone
	}

	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, fs.ErrNotExist), errors.Is(err, storage.ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, storage.ErrInvalidName):
		return KindInvalidInput
	case errors.Is(err, ErrServer), errors.Is(err, storage.ErrSizeMismatch):
		return KindServerFailure
	case errors.Is(err, ErrTransport):
		return KindTransportFailure
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.Code == http.StatusNotFound:
			return KindNotFound
		case statusErr.Code == http.StatusBadRequest:
			return KindInvalidInput
		case statusErr.Code >= 500:
			return KindServerFailure
		}
		return KindTransportFailure
	}

	if st, ok := status.FromError(err); ok {
		switch st.Code() {
		case codes.NotFound:
			return KindNotFound
		case codes.DeadlineExceeded:
			return KindTimeout
		case codes.InvalidArgument:
			return KindInvalidInput
		case codes.Internal, codes.DataLoss, codes.Unimplemented:
			return KindServerFailure
		}
		return KindTransportFailure
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}

	return KindTransportFailure
}
