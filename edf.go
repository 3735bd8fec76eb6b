// Package edf implements an in-place mutation engine for EDF/EDF+ biosignal
// files: an edit-log normalizer, a streaming single-pass save engine and a
// time-aware spanning reader, built on top of the sub-packages under pkg/.
package edf

import (
	"fmt"
	"os"

	"github.com/go-logr/logr"

	"github.com/BitFlaker/edf-go/pkg/edferrors"
	"github.com/BitFlaker/edf-go/pkg/edit"
	"github.com/BitFlaker/edf-go/pkg/header"
	"github.com/BitFlaker/edf-go/pkg/logging"
	"github.com/BitFlaker/edf-go/pkg/options"
)

// Re-exported so callers never need to import pkg/options directly.
type (
	Option               = options.Option
	SaveMode             = options.SaveMode
	RecordDeleteStrategy = options.RecordDeleteStrategy
)

const (
	SaveModeDefault   = options.SaveModeDefault
	SaveModeRecording = options.SaveModeRecording

	RecordDeleteDiscontinuous = options.RecordDeleteDiscontinuous
	RecordDeleteContinuous    = options.RecordDeleteContinuous
)

var (
	WithLogger               = options.WithLogger
	WithSaveMode             = options.WithSaveMode
	WithRecordDeleteStrategy = options.WithRecordDeleteStrategy
)

// File is an open EDF/EDF+ file: its parsed header, a positioned handle onto
// the backing file, and the pending edit log that Save commits in a single
// streaming pass. A File has no internal locking and must not be used from
// more than one goroutine at a time.
type File struct {
	Header *header.Header

	path   string
	handle *os.File

	recordReadOffsetNS int64

	instructions       []edit.Instruction
	signalInstructions []edit.Instruction

	recordCounter int
	signalCounter int

	recordDeleteStrategy options.RecordDeleteStrategy
	saveMode             options.SaveMode

	logger *logging.Logger
}

func resolveOptions(opts []options.Option) options.Options {
	o := options.Options{Logger: logr.Discard()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Open opens an existing EDF/EDF+ file and parses its header.
func Open(path string, opts ...Option) (*File, error) {
	o := resolveOptions(opts)

	handle, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", edferrors.ErrFileReadError, err)
	}

	h, err := header.Deserialize(handle)
	if err != nil {
		handle.Close()
		return nil, err
	}

	f := &File{
		Header:               h,
		path:                 path,
		handle:               handle,
		recordCounter:        0,
		signalCounter:        len(h.Signals),
		recordDeleteStrategy: o.RecordDeleteStrategy,
		saveMode:             o.SaveMode,
		logger:               logging.NewLogger(o.Logger),
	}
	if h.RecordCount != nil {
		f.recordCounter = *h.RecordCount
	}

	f.logger.Debug("opened EDF file", "path", path, "signals", f.signalCounter, "records", f.recordCounter)
	return f, nil
}

// Create creates a new, empty EDF/EDF+ file. The caller must configure the
// returned File's header and signals and call Save to write them to disk.
func Create(path string, opts ...Option) (*File, error) {
	o := resolveOptions(opts)

	if _, err := os.Stat(path); err == nil {
		return nil, edferrors.ErrFileAlreadyExists
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %v", edferrors.ErrFileWriteError, err)
	}

	handle, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", edferrors.ErrFileWriteError, err)
	}

	f := &File{
		Header:               header.New(),
		path:                 path,
		handle:               handle,
		recordDeleteStrategy: o.RecordDeleteStrategy,
		saveMode:             o.SaveMode,
		instructions:         []edit.Instruction{{Kind: edit.KindWriteHeader}},
		logger:               logging.NewLogger(o.Logger),
	}

	f.logger.Debug("created new EDF file", "path", path)
	return f, nil
}

// Close releases the underlying file handle. Pending edits that have not
// been committed with Save are discarded.
func (f *File) Close() error {
	return f.handle.Close()
}

// Path returns the filesystem path the file was opened or created from.
func (f *File) Path() string {
	return f.path
}

// SetSaveMode updates the save-mode used by the next Save call. See
// options.SaveMode for the effect this has on the persisted record count.
func (f *File) SetSaveMode(mode options.SaveMode) {
	f.saveMode = mode
	f.instructions = append([]edit.Instruction{{Kind: edit.KindWriteHeader}}, f.instructions...)
}
