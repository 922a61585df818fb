package repos

import (
	"database/sql"
	"errors"
	"fmt"
	"net"
	"strings"
)

// ErrKind discriminates data-access failures so callers can react to the
// class of failure instead of parsing message strings.
type ErrKind string

const (
	KindNetwork    ErrKind = "network"
	KindValidation ErrKind = "validation"
	KindNotFound   ErrKind = "not-found"
	KindPermission ErrKind = "permission"
	KindUnknown    ErrKind = "unknown"
)

// DataError wraps any failure from the data service with the operation that
// hit it and a classified kind.
type DataError struct {
	Kind ErrKind
	Op   string
	Err  error
}

func (e *DataError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *DataError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is a not-found data error.
func IsNotFound(err error) bool {
	var de *DataError
	return errors.As(err, &de) && de.Kind == KindNotFound
}

func validationErr(op, msg string) error {
	return &DataError{Kind: KindValidation, Op: op, Err: errors.New(msg)}
}

// wrap classifies err and attaches op. Returns nil for nil.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var de *DataError
	if errors.As(err, &de) {
		return err
	}
	return &DataError{Kind: classify(err), Op: op, Err: err}
}

func classify(err error) ErrKind {
	if errors.Is(err, sql.ErrNoRows) {
		return KindNotFound
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return KindNetwork
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "constraint") || strings.Contains(msg, "mismatch") || strings.Contains(msg, "datatype"):
		return KindValidation
	case strings.Contains(msg, "permission") || strings.Contains(msg, "readonly") || strings.Contains(msg, "access"):
		return KindPermission
	case strings.Contains(msg, "connection") || strings.Contains(msg, "timeout") || strings.Contains(msg, "network"):
		return KindNetwork
	default:
		return KindUnknown
	}
}
