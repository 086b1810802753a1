package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidRequest is the single client-facing failure kind.
var ErrInvalidRequest = errors.New("invalid request")

// FieldError represents a single field's validation error.
type FieldError struct {
	Field string `json:"field"`
	Msg   string `json:"message"`
}

func (e FieldError) Error() string { return fmt.Sprintf("%s: %s", e.Field, e.Msg) }

// InvalidRequestError carries a human-readable detail and, optionally, the
// field errors that produced it. It matches ErrInvalidRequest with errors.Is.
type InvalidRequestError struct {
	Detail string
	Fields []FieldError
}

func (e *InvalidRequestError) Error() string { return e.Detail }

func (e *InvalidRequestError) Is(target error) bool { return target == ErrInvalidRequest }

// FieldMap groups field errors by field name for problem responses.
func (e *InvalidRequestError) FieldMap() map[string][]string {
	if len(e.Fields) == 0 {
		return nil
	}
	m := make(map[string][]string, len(e.Fields))
	for _, fe := range e.Fields {
		m[fe.Field] = append(m[fe.Field], fe.Msg)
	}
	return m
}

// Detail strings returned to callers.
const (
	DetailNoDataSources  = "No data sources selected"
	DetailNoChannels     = "No channels selected"
	DetailInvalidSource  = "Invalid data source type"
	DetailInvalidChannel = "Invalid channel type"
)

// ValidateChatRequest checks the stream precondition: at least one data
// source and at least one channel. Identifiers inside the lists are not
// checked against the catalogs.
func ValidateChatRequest(req *ChatRequest) error {
	var errs []FieldError
	if len(req.DataSources) == 0 {
		errs = append(errs, FieldError{"data_sources", "must contain at least one item"})
	}
	if len(req.Channels) == 0 {
		errs = append(errs, FieldError{"channels", "must contain at least one item"})
	}
	if len(errs) == 0 {
		return nil
	}
	detail := DetailNoChannels
	if len(req.DataSources) == 0 {
		detail = DetailNoDataSources
	}
	return &InvalidRequestError{Detail: detail, Fields: errs}
}

// ValidateSourceType rejects identifiers outside SourceCatalog.
func ValidateSourceType(t string) error {
	if KnownSource(t) {
		return nil
	}
	return &InvalidRequestError{Detail: DetailInvalidSource}
}

// ValidateChannelType rejects identifiers outside ChannelCatalog.
func ValidateChannelType(t string) error {
	if KnownChannel(t) {
		return nil
	}
	return &InvalidRequestError{Detail: DetailInvalidChannel}
}
