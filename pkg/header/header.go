// Package header implements the EDF/EDF+ global header: the fixed-width
// ASCII preamble plus the per-signal metadata blocks that follow it.
package header

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/BitFlaker/edf-go/pkg/consts"
	"github.com/BitFlaker/edf-go/pkg/edferrors"
	"github.com/BitFlaker/edf-go/pkg/field"
	"github.com/BitFlaker/edf-go/pkg/signal"
)

// Specification distinguishes the plain EDF format from its EDF+
// extension.
type Specification int

const (
	EDF Specification = iota
	EDFPlus
)

// Header is the full parsed EDF/EDF+ global header, including the
// per-signal metadata blocks.
type Header struct {
	Version        string
	PatientID      PatientID
	RecordingID    RecordingID
	startDate      time.Time
	StartTime      time.Time
	HeaderBytes    int
	Specification  Specification
	IsContinuous   bool
	RecordCount    *int
	RecordDuration float64
	Signals        []signal.Header
	updatedSignals []signal.Header
	hasUpdated     bool

	initialRecordBytes int
	initialHeaderSHA256 string
}

// New returns a zero-value Header ready to be configured via the With*
// setters.
func New() *Header {
	return &Header{Version: "0"}
}

func (h *Header) WithVersion(version string) *Header {
	h.Version = version
	return h
}

func (h *Header) WithPatientID(id PatientID) *Header {
	h.PatientID = id
	return h
}

func (h *Header) WithRecordingID(id RecordingID) *Header {
	h.RecordingID = id
	return h
}

func (h *Header) WithStartDate(date time.Time) *Header {
	h.startDate = date
	return h
}

func (h *Header) WithStartTime(t time.Time) *Header {
	h.StartTime = t
	return h
}

func (h *Header) WithSpecification(spec Specification) *Header {
	h.Specification = spec
	if spec == EDF {
		h.IsContinuous = true
	}
	return h
}

func (h *Header) WithIsContinuous(continuous bool) *Header {
	h.IsContinuous = continuous
	return h
}

func (h *Header) WithRecordCount(count int) *Header {
	h.RecordCount = &count
	return h
}

func (h *Header) WithRecordDuration(duration float64) *Header {
	h.RecordDuration = duration
	return h
}

// GetStartDate returns the top-level (old-style) start date field, ignoring
// any start date carried in RecordingID. See StartDate for the canonical
// accessor most callers want.
func (h *Header) GetStartDate() time.Time {
	return h.startDate
}

// CurrentSignals returns the staged signal list if ModifySignals has been
// called since the header was loaded/saved, else the live signal list.
func (h *Header) CurrentSignals() []signal.Header {
	if h.hasUpdated {
		return h.updatedSignals
	}
	return h.Signals
}

// ModifySignals returns a mutable staged copy of the signal list, creating
// it from the live list on first call. Edits to the returned slice are only
// committed to Signals by the save engine.
func (h *Header) ModifySignals() *[]signal.Header {
	if !h.hasUpdated {
		h.updatedSignals = append([]signal.Header(nil), h.Signals...)
		h.hasUpdated = true
	}
	return &h.updatedSignals
}

// CommitUpdatedSignals, if ModifySignals staged a signal list, replaces the
// live Signals with it and clears the staged copy. A no-op if nothing was
// staged. Called by the save engine once it has decided to commit.
func (h *Header) CommitUpdatedSignals() {
	if h.hasUpdated {
		h.Signals = h.updatedSignals
		h.updatedSignals = nil
		h.hasUpdated = false
	}
}

// CalculateHeaderBytes returns the serialized byte length of the header
// given its current (live) signal count.
func (h *Header) CalculateHeaderBytes() int {
	return consts.GlobalHeaderFixedBytes + len(h.Signals)*consts.SignalHeaderFixedBytes
}

// DataRecordBytes returns the byte length of one data-record given the
// current (live) signal list.
func (h *Header) DataRecordBytes() int {
	total := 0
	for _, s := range h.Signals {
		total += s.SamplesCount * 2
	}
	return total
}

// SignalSampleFrequency returns the per-second sample frequency of the
// signal at signalIndex, or false if the index is out of range.
func (h *Header) SignalSampleFrequency(signalIndex int) (float64, bool) {
	if signalIndex < 0 || signalIndex >= len(h.Signals) {
		return 0, false
	}
	return float64(h.Signals[signalIndex].SamplesCount) / h.RecordDuration, true
}

// InitialRecordBytes returns the data-record length, in bytes, that was in
// effect when the file was opened. Only needed by the save engine to
// compute accurate on-disk offsets.
func (h *Header) InitialRecordBytes() int {
	if h.initialRecordBytes == 0 {
		return h.DataRecordBytes()
	}
	return h.initialRecordBytes
}

// UpdateInitialRecordBytes snapshots the current data-record length as the
// new initial value. Called by the save engine after a successful commit.
func (h *Header) UpdateInitialRecordBytes() {
	h.initialRecordBytes = h.DataRecordBytes()
}

// InitialHeaderSHA256 returns the SHA-256 hash of the serialized header
// taken when the file was opened. Only needed by the save engine to detect
// whether the header has changed since.
func (h *Header) InitialHeaderSHA256() string {
	return h.initialHeaderSHA256
}

// UpdateInitialHeaderSHA256 recomputes and stores the snapshot hash. Called
// by the save engine after a successful commit.
func (h *Header) UpdateInitialHeaderSHA256() error {
	sum, err := h.SHA256()
	if err != nil {
		return err
	}
	h.initialHeaderSHA256 = sum
	return nil
}

// SHA256 serializes the header and returns the hex-encoded SHA-256 digest
// of the result.
func (h *Header) SHA256() (string, error) {
	serialized, err := h.Serialize()
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256([]byte(serialized))
	return hex.EncodeToString(sum[:]), nil
}

// IsRecording reports whether the header has no concrete record count
// (the file is being actively appended to).
func (h *Header) IsRecording() bool {
	return h.RecordCount == nil
}

// StartDate returns the start date of the recording: the RecordingID's
// start date if present, else the old-style top-level field. Only the
// old-style field round-trips through serialization; if the start date is
// carried solely in RecordingID, the old-style field may not reflect it.
func (h *Header) StartDate() time.Time {
	if h.RecordingID.StartDate != nil {
		return *h.RecordingID.StartDate
	}
	return h.startDate
}

// ParseOldStartDate parses the legacy top-level dd.mm.yy start-date field.
func ParseOldStartDate(date string) (time.Time, error) {
	return field.ParseOldStartDate(date)
}

// SerializeOldStartDate renders the legacy top-level dd.mm.yy start-date
// field.
func SerializeOldStartDate(date time.Time) string {
	return field.SerializeOldStartDate(date)
}

// Serialize renders the full header (fixed fields plus every signal block)
// to its on-disk ASCII representation.
func (h *Header) Serialize() (string, error) {
	version, err := field.PadRight(h.Version, consts.VersionFieldSize)
	if err != nil {
		return "", err
	}
	patientField, err := h.PatientID.Serialize(h.Specification)
	if err != nil {
		return "", err
	}
	patientID, err := field.PadRight(patientField, consts.PatientIDFieldSize)
	if err != nil {
		return "", err
	}
	recordingField, err := h.RecordingID.Serialize(h.Specification)
	if err != nil {
		return "", err
	}
	recordingID, err := field.PadRight(recordingField, consts.RecordingIDFieldSize)
	if err != nil {
		return "", err
	}
	startDate, err := field.PadRight(SerializeOldStartDate(h.startDate), consts.StartDateFieldSize)
	if err != nil {
		return "", err
	}
	startTime, err := field.PadRight(h.StartTime.Format("15.04.05"), consts.StartTimeFieldSize)
	if err != nil {
		return "", err
	}

	var reservedValue string
	switch {
	case h.Specification == EDF:
		reservedValue = ""
	case h.IsContinuous:
		reservedValue = consts.ReservedContinuousEDFPlus
	default:
		reservedValue = consts.ReservedDiscontinuousEDFPlus
	}
	reserved, err := field.PadRight(reservedValue, consts.ReservedFieldSize)
	if err != nil {
		return "", err
	}

	recordCountValue := -1
	if h.RecordCount != nil {
		recordCountValue = *h.RecordCount
	}
	recordCount, err := field.PadRight(strconv.Itoa(recordCountValue), consts.RecordCountFieldSize)
	if err != nil {
		return "", err
	}
	recordDuration, err := field.PadRight(formatDuration(h.RecordDuration), consts.RecordDurationSize)
	if err != nil {
		return "", err
	}
	signalCount, err := field.PadRight(strconv.Itoa(len(h.Signals)), consts.SignalCountFieldSize)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(version)
	sb.WriteString(patientID)
	sb.WriteString(recordingID)
	sb.WriteString(startDate)
	sb.WriteString(startTime)
	// header_bytes is spliced in at offset 184 once the full length is known.
	sb.WriteString(reserved)
	sb.WriteString(recordCount)
	sb.WriteString(recordDuration)
	sb.WriteString(signalCount)

	if h.Specification == EDFPlus {
		hasAnnotation := false
		for _, s := range h.Signals {
			if s.IsAnnotation() {
				hasAnnotation = true
				break
			}
		}
		if !hasAnnotation {
			return "", edferrors.ErrMissingAnnotations
		}
	}

	if err := writeSignalFields(&sb, h.Signals); err != nil {
		return "", err
	}

	header := sb.String()
	headerBytes := len(header) + consts.HeaderBytesFieldSize
	headerBytesField, err := field.PadRight(strconv.Itoa(headerBytes), consts.HeaderBytesFieldSize)
	if err != nil {
		return "", err
	}
	header = header[:consts.HeaderBytesOffset] + headerBytesField + header[consts.HeaderBytesOffset:]

	if !field.IsPrintableASCII(header) {
		return "", edferrors.ErrInvalidASCII
	}

	return header, nil
}

func writeSignalFields(sb *strings.Builder, signals []signal.Header) error {
	write := func(value string, size int) error {
		padded, err := field.PadRight(value, size)
		if err != nil {
			return err
		}
		sb.WriteString(padded)
		return nil
	}

	for _, s := range signals {
		if err := write(s.Label, consts.SignalLabelSize); err != nil {
			return err
		}
	}
	for _, s := range signals {
		if err := write(s.Transducer, consts.SignalTransducerSize); err != nil {
			return err
		}
	}
	for _, s := range signals {
		if err := write(s.PhysicalDimension, consts.SignalPhysicalDimensionSize); err != nil {
			return err
		}
	}
	for _, s := range signals {
		if err := write(formatFloat(s.PhysicalMinimum), consts.SignalPhysicalMinSize); err != nil {
			return err
		}
	}
	for _, s := range signals {
		if err := write(formatFloat(s.PhysicalMaximum), consts.SignalPhysicalMaxSize); err != nil {
			return err
		}
	}
	for _, s := range signals {
		if err := write(strconv.Itoa(int(s.DigitalMinimum)), consts.SignalDigitalMinSize); err != nil {
			return err
		}
	}
	for _, s := range signals {
		if err := write(strconv.Itoa(int(s.DigitalMaximum)), consts.SignalDigitalMaxSize); err != nil {
			return err
		}
	}
	for _, s := range signals {
		if err := write(s.Prefilter, consts.SignalPrefilterSize); err != nil {
			return err
		}
	}
	for _, s := range signals {
		if err := write(strconv.Itoa(s.SamplesCount), consts.SignalSamplesCountSize); err != nil {
			return err
		}
	}
	for _, s := range signals {
		if err := write(s.Reserved, consts.SignalReservedSize); err != nil {
			return err
		}
	}
	return nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatDuration(seconds float64) string {
	return strconv.FormatFloat(seconds, 'f', -1, 64)
}

// readAt reads exactly count bytes from r.
func readAt(r io.Reader, count int) (string, error) {
	buf := make([]byte, count)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("%w: %v", edferrors.ErrFileReadError, err)
	}
	return string(buf), nil
}

// Deserialize parses a full header (fixed fields plus every signal block)
// from r, which must support both reading and seeking.
func Deserialize(r io.ReadSeeker) (*Header, error) {
	if _, err := r.Seek(int64(consts.ReservedFieldOffset), io.SeekStart); err != nil {
		return nil, fmt.Errorf("%w: %v", edferrors.ErrFileReadError, err)
	}
	reserved, err := readAt(r, consts.ReservedFieldSize)
	if err != nil {
		return nil, err
	}

	isContinuousPlus := strings.HasPrefix(reserved, consts.ReservedContinuousEDFPlus)
	isDiscontinuousPlus := strings.HasPrefix(reserved, consts.ReservedDiscontinuousEDFPlus)
	isPlus := isContinuousPlus || isDiscontinuousPlus
	spec := EDF
	if isPlus {
		spec = EDFPlus
	}
	isContinuous := isContinuousPlus || !isPlus

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("%w: %v", edferrors.ErrFileReadError, err)
	}

	versionRaw, err := readAt(r, consts.VersionFieldSize)
	if err != nil {
		return nil, err
	}
	version := strings.TrimRight(versionRaw, " ")

	patientRaw, err := readAt(r, consts.PatientIDFieldSize)
	if err != nil {
		return nil, err
	}
	patientID, err := DeserializePatientID(strings.TrimRight(patientRaw, " "), spec)
	if err != nil {
		return nil, err
	}

	recordingRaw, err := readAt(r, consts.RecordingIDFieldSize)
	if err != nil {
		return nil, err
	}
	recordingID, err := DeserializeRecordingID(strings.TrimRight(recordingRaw, " "), spec)
	if err != nil {
		return nil, err
	}

	startDateRaw, err := readAt(r, consts.StartDateFieldSize)
	if err != nil {
		return nil, err
	}
	startDate, err := field.ParseOldStartDate(startDateRaw)
	if err != nil {
		return nil, err
	}

	startTimeRaw, err := readAt(r, consts.StartTimeFieldSize)
	if err != nil {
		return nil, err
	}
	startTime, err := time.Parse("15.04.05", startTimeRaw)
	if err != nil {
		return nil, edferrors.ErrInvalidStartTime
	}

	headerBytesRaw, err := readAt(r, consts.HeaderBytesFieldSize)
	if err != nil {
		return nil, err
	}
	headerBytes, err := strconv.Atoi(strings.TrimRight(headerBytesRaw, " "))
	if err != nil {
		return nil, edferrors.ErrInvalidHeaderSize
	}

	// Skip past the already-parsed reserved field.
	if _, err := r.Seek(int64(consts.ReservedFieldOffset+consts.ReservedFieldSize), io.SeekStart); err != nil {
		return nil, fmt.Errorf("%w: %v", edferrors.ErrFileReadError, err)
	}

	recordCountRaw, err := readAt(r, consts.RecordCountFieldSize)
	if err != nil {
		return nil, err
	}
	var recordCount *int
	if n, err := strconv.Atoi(strings.TrimRight(recordCountRaw, " ")); err == nil && n >= 0 {
		recordCount = &n
	}

	recordDurationRaw, err := readAt(r, consts.RecordDurationSize)
	if err != nil {
		return nil, err
	}
	recordDuration, err := strconv.ParseFloat(strings.TrimRight(recordDurationRaw, " "), 64)
	if err != nil {
		return nil, edferrors.ErrInvalidRecordDuration
	}

	signalCountRaw, err := readAt(r, consts.SignalCountFieldSize)
	if err != nil {
		return nil, err
	}
	signalCount, err := strconv.Atoi(strings.TrimRight(signalCountRaw, " "))
	if err != nil {
		return nil, edferrors.ErrInvalidSignalCount
	}

	signals := make([]signal.Header, signalCount)

	readSignalField := func(dst func(i int, v string), size int) error {
		for i := 0; i < signalCount; i++ {
			v, err := readAt(r, size)
			if err != nil {
				return err
			}
			dst(i, strings.TrimRight(v, " "))
		}
		return nil
	}

	if err := readSignalField(func(i int, v string) { signals[i].Label = v }, consts.SignalLabelSize); err != nil {
		return nil, err
	}
	if err := readSignalField(func(i int, v string) { signals[i].Transducer = v }, consts.SignalTransducerSize); err != nil {
		return nil, err
	}
	if err := readSignalField(func(i int, v string) { signals[i].PhysicalDimension = v }, consts.SignalPhysicalDimensionSize); err != nil {
		return nil, err
	}
	for i := 0; i < signalCount; i++ {
		v, err := readAt(r, consts.SignalPhysicalMinSize)
		if err != nil {
			return nil, err
		}
		f, err := strconv.ParseFloat(strings.TrimRight(v, " "), 64)
		if err != nil {
			return nil, edferrors.ErrInvalidPhysicalRange
		}
		signals[i].PhysicalMinimum = f
	}
	for i := 0; i < signalCount; i++ {
		v, err := readAt(r, consts.SignalPhysicalMaxSize)
		if err != nil {
			return nil, err
		}
		f, err := strconv.ParseFloat(strings.TrimRight(v, " "), 64)
		if err != nil {
			return nil, edferrors.ErrInvalidPhysicalRange
		}
		signals[i].PhysicalMaximum = f
	}
	for i := 0; i < signalCount; i++ {
		v, err := readAt(r, consts.SignalDigitalMinSize)
		if err != nil {
			return nil, err
		}
		n, err := strconv.Atoi(strings.TrimRight(v, " "))
		if err != nil {
			return nil, edferrors.ErrInvalidDigitalRange
		}
		signals[i].DigitalMinimum = int32(n)
	}
	for i := 0; i < signalCount; i++ {
		v, err := readAt(r, consts.SignalDigitalMaxSize)
		if err != nil {
			return nil, err
		}
		n, err := strconv.Atoi(strings.TrimRight(v, " "))
		if err != nil {
			return nil, edferrors.ErrInvalidDigitalRange
		}
		signals[i].DigitalMaximum = int32(n)
	}
	if err := readSignalField(func(i int, v string) { signals[i].Prefilter = v }, consts.SignalPrefilterSize); err != nil {
		return nil, err
	}
	for i := 0; i < signalCount; i++ {
		v, err := readAt(r, consts.SignalSamplesCountSize)
		if err != nil {
			return nil, err
		}
		n, err := strconv.Atoi(strings.TrimRight(v, " "))
		if err != nil {
			return nil, edferrors.ErrInvalidSamplesCount
		}
		signals[i].SamplesCount = n
	}
	if err := readSignalField(func(i int, v string) { signals[i].Reserved = v }, consts.SignalReservedSize); err != nil {
		return nil, err
	}

	h := &Header{
		Version:        version,
		PatientID:      patientID,
		RecordingID:    recordingID,
		startDate:      startDate,
		StartTime:      startTime,
		HeaderBytes:    headerBytes,
		Specification:  spec,
		IsContinuous:   isContinuous,
		RecordCount:    recordCount,
		RecordDuration: recordDuration,
		Signals:        signals,
	}

	sum, err := h.SHA256()
	if err != nil {
		return nil, err
	}
	h.initialHeaderSHA256 = sum
	h.UpdateInitialRecordBytes()

	return h, nil
}
