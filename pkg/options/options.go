package options

import (
	"github.com/go-logr/logr"
)

// SaveMode controls how (*File).Save treats the record count while a file
// is open for writing.
type SaveMode int

const (
	// SaveModeDefault writes the true, final record count to the header.
	SaveModeDefault SaveMode = iota
	// SaveModeRecording leaves the record count marked as "unknown" (-1)
	// on disk, for files that are actively being appended to.
	SaveModeRecording
)

// RecordDeleteStrategy selects how RemoveRecord affects the timestamps of
// records that follow the removed one.
type RecordDeleteStrategy int

const (
	// RecordDeleteDiscontinuous removes the record and leaves a timestamp
	// gap behind it; Save marks an EDF+C file EDF+D when a record other
	// than the first or last is removed. This is the default.
	RecordDeleteDiscontinuous RecordDeleteStrategy = iota
	// RecordDeleteContinuous removes the record without changing the
	// file's continuity flag. The onsets of the following records are not
	// shifted, so the timestamp gap stays in place. See (*File).RemoveRecord.
	RecordDeleteContinuous
)

// Options represents the options for opening or creating an EDF file.
type Options struct {
	Logger               logr.Logger
	SaveMode             SaveMode
	RecordDeleteStrategy RecordDeleteStrategy
}

// Option represents a function that modifies the Options.
type Option func(*Options)

// WithLogger sets the Logger used by the opened/created file.
func WithLogger(logger logr.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithSaveMode sets the save mode used by Save.
func WithSaveMode(mode SaveMode) Option {
	return func(o *Options) {
		o.SaveMode = mode
	}
}

// WithRecordDeleteStrategy sets the strategy RemoveRecord uses for records
// following the removed one.
func WithRecordDeleteStrategy(strategy RecordDeleteStrategy) Option {
	return func(o *Options) {
		o.RecordDeleteStrategy = strategy
	}
}
