// Package edferrors defines the closed set of error kinds returned by the
// EDF/EDF+ mutation engine. Each kind is a distinct sentinel value; callers
// use errors.Is to check for a specific kind. I/O-wrapping call sites return
// fmt.Errorf("%w: %v", sentinel, err): the sentinel is wrapped, and the
// underlying error appears only in the message text.
package edferrors

import "errors"

// Header parse errors.
var (
	ErrInvalidUserIDSegmentCount      = errors.New("edf: invalid patient id segment count")
	ErrInvalidUserIDDate              = errors.New("edf: invalid patient id date")
	ErrInvalidUType                   = errors.New("edf: invalid patient sex/u-type token")
	ErrUserIDTooLong                  = errors.New("edf: patient id field exceeds 80 bytes")
	ErrInvalidRecordingIDSegmentCount = errors.New("edf: invalid recording id segment count")
	ErrInvalidRecordingIDDate         = errors.New("edf: invalid recording id date")
	ErrRecordingIDTooLong             = errors.New("edf: recording id field exceeds 80 bytes")
	ErrInvalidStartDate               = errors.New("edf: invalid start date")
	ErrInvalidStartTime               = errors.New("edf: invalid start time")
	ErrInvalidHeaderSize              = errors.New("edf: invalid header size field")
	ErrInvalidRecordCount             = errors.New("edf: invalid record count field")
	ErrInvalidRecordDuration          = errors.New("edf: invalid record duration field")
	ErrInvalidSignalCount             = errors.New("edf: invalid signal count field")
	ErrInvalidPhysicalRange           = errors.New("edf: invalid physical min/max field")
	ErrInvalidDigitalRange            = errors.New("edf: invalid digital min/max field")
	ErrInvalidSamplesCount            = errors.New("edf: invalid samples-per-record field")
	ErrFieldSizeExceeded              = errors.New("edf: field exceeds its fixed width")
	ErrInvalidASCII                   = errors.New("edf: header contains non-printable-ASCII bytes")
	ErrIllegalCharacters              = errors.New("edf: annotation contains illegal control characters")
	ErrMissingAnnotations             = errors.New("edf: EDF+ file requires at least one annotation signal")
)

// TAL parse errors.
var (
	ErrInvalidHeaderTAL    = errors.New("edf: malformed timestamped annotation list")
	ErrSignalNotAnnotation = errors.New("edf: signal is not an annotation channel")
)

// I/O errors.
var (
	ErrFileReadError     = errors.New("edf: file read error")
	ErrFileWriteError    = errors.New("edf: file write error")
	ErrFileAlreadyExists = errors.New("edf: file already exists")
)

// Logical/API-misuse errors.
var (
	ErrInvalidReadRange    = errors.New("edf: read position is not a valid data-record boundary")
	ErrReadWhileRecording  = errors.New("edf: cannot read records while in recording mode")
	ErrItemNotFound        = errors.New("edf: item not found")
	ErrIndexOutOfBounds    = errors.New("edf: index out of bounds")
	ErrInvalidRecordSignals = errors.New("edf: record layout does not match current signals")
)
