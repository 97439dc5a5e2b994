package error

import (
	"errors"
	"sync"
)

type DomainError interface {
	error
	Info() string
}

// DetailedError is a DomainError whose client message depends on runtime values
// (failing field, limit, current status). The registered Status/Code are kept.
type DetailedError interface {
	DomainError
	Detail() string
}

type domainSentinel struct {
	errInfo string
}

func (e *domainSentinel) Error() string { return e.errInfo }

func (e *domainSentinel) Info() string { return e.errInfo }

// NewDomainError creates a sentinel error that can participate in error chains.
func NewDomainError(errInfo string) DomainError {
	return &domainSentinel{errInfo: errInfo}
}

var registry = struct {
	sync.RWMutex
	responses map[string]ErrorResponse
}{responses: map[string]ErrorResponse{}}

// RegisterDomainErrorResponse maps a domain error errInfo to the response sent to clients.
// Packages call it from init.
func RegisterDomainErrorResponse(errInfo string, resp ErrorResponse) {
	registry.Lock()
	defer registry.Unlock()
	registry.responses[errInfo] = resp
}

// ResolveDomainError finds the registered response for err. A DetailedError
// anywhere in the chain replaces the registered message.
func ResolveDomainError(err error) (ErrorResponse, bool) {
	if err == nil {
		return ErrorResponse{}, false
	}

	var domainErr DomainError
	if !errors.As(err, &domainErr) {
		return ErrorResponse{}, false
	}

	registry.RLock()
	resp, ok := registry.responses[domainErr.Info()]
	registry.RUnlock()
	if !ok {
		return ErrorResponse{}, false
	}

	var detailed DetailedError
	if errors.As(err, &detailed) && detailed.Detail() != "" {
		resp.Message = detailed.Detail()
	}
	return resp, true
}

// Lookup is ResolveDomainError with InternalServerError for unregistered errors
func Lookup(err error) ErrorResponse {
	if resp, ok := ResolveDomainError(err); ok {
		return resp
	}
	return InternalServerError
}
