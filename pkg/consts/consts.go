// Package consts holds the fixed field widths, offsets and control bytes
// defined by the EDF and EDF+ specifications.
package consts

const (
	// Fixed global header field widths, in the order they appear on disk.
	VersionFieldSize     = 8
	PatientIDFieldSize   = 80
	RecordingIDFieldSize = 80
	StartDateFieldSize   = 8
	StartTimeFieldSize   = 8
	HeaderBytesFieldSize = 8
	ReservedFieldSize    = 44
	RecordCountFieldSize = 8
	RecordDurationSize   = 8
	SignalCountFieldSize = 4

	// HeaderBytesOffset is the offset of the header_bytes field within the serialized global header.
	HeaderBytesOffset = 184

	// ReservedFieldOffset is the offset of the reserved/specification field within the serialized global header.
	ReservedFieldOffset = 192

	// Fixed per-signal header field widths, in the order they appear on disk.
	SignalLabelSize             = 16
	SignalTransducerSize        = 80
	SignalPhysicalDimensionSize = 8
	SignalPhysicalMinSize       = 8
	SignalPhysicalMaxSize       = 8
	SignalDigitalMinSize        = 8
	SignalDigitalMaxSize        = 8
	SignalPrefilterSize         = 80
	SignalSamplesCountSize      = 8
	SignalReservedSize          = 32

	// GlobalHeaderFixedBytes is the byte length of the global (non-signal) header section.
	GlobalHeaderFixedBytes = VersionFieldSize + PatientIDFieldSize + RecordingIDFieldSize +
		StartDateFieldSize + StartTimeFieldSize + HeaderBytesFieldSize + ReservedFieldSize +
		RecordCountFieldSize + RecordDurationSize + SignalCountFieldSize

	// SignalHeaderFixedBytes is the byte length contributed by each signal to the header.
	SignalHeaderFixedBytes = SignalLabelSize + SignalTransducerSize + SignalPhysicalDimensionSize +
		SignalPhysicalMinSize + SignalPhysicalMaxSize + SignalDigitalMinSize + SignalDigitalMaxSize +
		SignalPrefilterSize + SignalSamplesCountSize + SignalReservedSize

	// AnnotationSignalLabel identifies a signal as an EDF+ annotation channel.
	AnnotationSignalLabel = "EDF Annotations"

	// Reserved-field prefixes that flag the specification/continuity of an EDF+ file.
	ReservedContinuousEDFPlus    = "EDF+C"
	ReservedDiscontinuousEDFPlus = "EDF+D"

	// RecordingIDPrefix is the literal leading token of an EDF+ recording identification field.
	RecordingIDPrefix = "Startdate"

	// TAL control bytes, per the EDF+ Timestamped-Annotation-List wire format.
	TALOnsetDurationSeparator byte = 0x15
	TALFieldSeparator         byte = 0x14
	TALTerminator             byte = 0x00

	// PrintableASCIIMin and PrintableASCIIMax bound the legal byte range for every
	// serialized header field.
	PrintableASCIIMin = 0x20
	PrintableASCIIMax = 0x7E

	// AbsentFieldMarker is the literal EDF+ placeholder for an absent optional field.
	AbsentFieldMarker = "X"

	// Default digital/physical range used for newly constructed annotation signals.
	AnnotationDigitalMin  = -32768
	AnnotationDigitalMax  = 32767
	AnnotationPhysicalMin = -1.0
	AnnotationPhysicalMax = 1.0

	// RecordingModeCount is the on-disk sentinel written to the record-count field
	// while a file is in "currently recording" mode.
	RecordingModeCount = -1

	// Old-style start-date clipping bounds (dd.mm.yy, year 1985..2084, else the "yy" sentinel).
	OldStyleDateMinYear      = 1985
	OldStyleDateMaxYear      = 2084
	OldStyleDateSentinel     = "yy"
	OldStyleDateSentinelYear = 2100
)
