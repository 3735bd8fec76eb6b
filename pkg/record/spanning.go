package record

import (
	"github.com/BitFlaker/edf-go/pkg/annotation"
	"github.com/BitFlaker/edf-go/pkg/signal"
)

// RelativeRecordData is one contiguous span of a sample channel's data
// within a SpanningRecord: samples plus the onset (relative to recording
// start) at which the span begins.
type RelativeRecordData struct {
	Offset           float64
	RawSignalSamples []int16
}

// NewRelativeRecordData starts an empty span at offset.
func NewRelativeRecordData(offset float64) RelativeRecordData {
	return RelativeRecordData{Offset: offset}
}

// GetDigitalSamples returns this span's samples clamped to sig's digital
// range.
func (d RelativeRecordData) GetDigitalSamples(sig signal.Header) []int32 {
	out := make([]int32, len(d.RawSignalSamples))
	for i, s := range d.RawSignalSamples {
		out[i] = clampInt32(int32(s), sig.DigitalMinimum, sig.DigitalMaximum)
	}
	return out
}

// GetPhysicalSamples returns this span's samples converted to physical
// units and clamped to sig's physical range.
func (d RelativeRecordData) GetPhysicalSamples(sig signal.Header) []float64 {
	scaleRange, offset := physicalScale(sig)
	out := make([]float64, len(d.RawSignalSamples))
	for i, s := range d.RawSignalSamples {
		physical := scaleRange * (offset + float64(s))
		out[i] = clampFloat64(physical, sig.PhysicalMinimum, sig.PhysicalMaximum)
	}
	return out
}

// SpanningRecord reassembles a time window that may cross one or more
// data-record boundaries, and on EDF+D files, one or more discontinuity
// gaps — each gap starts a new span (RelativeRecordData) per sample
// channel.
type SpanningRecord struct {
	RawSignalSamples [][]RelativeRecordData
	Annotations      [][]annotation.List
}

// NewSpanningRecord allocates one span slice per non-annotation signal in
// signalHeaders.
func NewSpanningRecord(signalHeaders []signal.Header) *SpanningRecord {
	count := 0
	for _, sh := range signalHeaders {
		if !sh.IsAnnotation() {
			count++
		}
	}
	return &SpanningRecord{RawSignalSamples: make([][]RelativeRecordData, count)}
}

// IsSpanningWait reports whether every channel's most recent span is an
// empty placeholder awaiting the next record's samples.
func (s *SpanningRecord) IsSpanningWait() bool {
	for _, spans := range s.RawSignalSamples {
		if len(spans) == 0 || len(spans[len(spans)-1].RawSignalSamples) != 0 {
			return false
		}
	}
	return true
}

// RemoveLastSpanningWait drops the trailing empty placeholder span from
// every channel, if IsSpanningWait holds. Returns whether it removed one.
func (s *SpanningRecord) RemoveLastSpanningWait() bool {
	if !s.IsSpanningWait() {
		return false
	}
	for i, spans := range s.RawSignalSamples {
		s.RawSignalSamples[i] = spans[:len(spans)-1]
	}
	return true
}

// InsertSpanningWait starts a new span at offset on every channel, unless
// the most recent span already starts at that offset.
func (s *SpanningRecord) InsertSpanningWait(offset float64) {
	s.RemoveLastSpanningWait()

	if len(s.RawSignalSamples) > 0 {
		spans := s.RawSignalSamples[0]
		if len(spans) > 0 && spans[len(spans)-1].Offset == offset {
			return
		}
	}

	for i := range s.RawSignalSamples {
		s.RawSignalSamples[i] = append(s.RawSignalSamples[i], NewRelativeRecordData(offset))
	}
}

// Finish closes out the spanning window, dropping any trailing placeholder
// span.
func (s *SpanningRecord) Finish() {
	s.RemoveLastSpanningWait()
}

// ExtendSamples appends samples to the most recent span of the
// signalIndex-th sample channel.
func (s *SpanningRecord) ExtendSamples(signalIndex int, samples []int16) {
	if signalIndex < 0 || signalIndex >= len(s.RawSignalSamples) {
		return
	}
	spans := s.RawSignalSamples[signalIndex]
	if len(spans) == 0 {
		return
	}
	last := &spans[len(spans)-1]
	last.RawSignalSamples = append(last.RawSignalSamples, samples...)
}
