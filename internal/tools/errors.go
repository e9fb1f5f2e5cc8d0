package tools

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"

	"github.com/fluxgate/fluxgate/internal/model"
	"github.com/fluxgate/fluxgate/internal/registry"
)

// Kind classifies a failed tool call. Transports map it to their own status
// codes; inside the core it is just a tag on the result.
type Kind int

const (
	KindNone Kind = iota
	KindBadRequest
	KindNotFound
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindBadRequest:
		return "bad_request"
	case KindNotFound:
		return "not_found"
	case KindInternal:
		return "internal"
	default:
		return "none"
	}
}

// HTTPStatus is the transport mapping used by the HTTP API.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusOK
	}
}

// Error is a pre-classified failure raised inside the dispatcher.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func errf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// classify folds every failure mode the engine and registry can produce
// into the three-way taxonomy. Nothing propagates past the dispatcher
// unclassified.
func classify(err error) Kind {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}
	var nl registry.ErrNotLoaded
	if errors.As(err, &nl) {
		return KindBadRequest
	}
	if errors.Is(err, model.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
		return KindNotFound
	}
	return KindInternal
}
