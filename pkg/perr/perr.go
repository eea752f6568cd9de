// Package perr declares the error kinds shared by every pipeline stage.
//
// Stages wrap one of these sentinels together with the identifying context
// (stage, file) using fmt.Errorf and the %w verb, so callers can classify a
// failure with errors.Is no matter how many layers were added on the way up.
package perr

import "errors"

var (
	// ErrUnsupportedInput is returned when the source is neither a recognized archive nor a directory.
	ErrUnsupportedInput = errors.New("unsupported input")
	// ErrInvalidPath is returned for entry names that are not UTF-8 or that escape the scratch root.
	ErrInvalidPath = errors.New("invalid entry path")
	// ErrArchiveFormat is returned when an input container cannot be decoded.
	ErrArchiveFormat = errors.New("corrupt archive")
	// ErrIo is returned for filesystem failures while building the scratch tree.
	ErrIo = errors.New("io failure")
	// ErrMalformedJSON is returned when a JSON file fails to parse even under relaxed rules.
	ErrMalformedJSON = errors.New("malformed json")
	// ErrUnsupportedEncoding is returned for non UTF-8 text without a known legacy encoding.
	ErrUnsupportedEncoding = errors.New("unsupported encoding")
	// ErrImageCodec is returned when a PNG cannot be decoded or re-encoded.
	ErrImageCodec = errors.New("image codec failure")
	// ErrXMLSyntax is returned when a tmx/tsx file is not well formed.
	ErrXMLSyntax = errors.New("xml syntax error")
	// ErrArchiveWrite is returned when the output archive cannot be written.
	ErrArchiveWrite = errors.New("archive write failure")
	// ErrCleanup is returned when the scratch directory cannot be removed.
	ErrCleanup = errors.New("cleanup failure")
)
