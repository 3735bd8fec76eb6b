// Package record implements one EDF/EDF+ data-record: the fixed-size block
// of raw sample and annotation bytes that repeats once per record
// duration.
package record

import (
	"encoding/binary"

	"github.com/BitFlaker/edf-go/pkg/annotation"
	"github.com/BitFlaker/edf-go/pkg/edferrors"
	"github.com/BitFlaker/edf-go/pkg/edit"
	"github.com/BitFlaker/edf-go/pkg/signal"
)

// SignalKind tags a global-order layout slot as holding raw samples or
// annotation TALs.
type SignalKind int

const (
	KindSamples SignalKind = iota
	KindAnnotation
)

// Record is one data-record: a sequence of per-signal sample/annotation
// blocks, in the same order as the signal headers they belong to.
//
// Samples and annotations are stored in two separate slices (RawSignalSamples,
// Annotations); layout records, for each global signal position, which of
// the two slices holds its data and preserves global emission order on
// Serialize.
type Record struct {
	layout           []SignalKind
	DefaultOffset    float64
	RawSignalSamples [][]int16
	Annotations      [][]annotation.List
}

// New builds an empty record shaped to match signalHeaders: one zero-filled
// sample slice per non-annotation signal, one empty annotation slice per
// annotation signal.
func New(signalHeaders []signal.Header) *Record {
	r := &Record{}
	for _, sh := range signalHeaders {
		if sh.IsAnnotation() {
			r.layout = append(r.layout, KindAnnotation)
			r.Annotations = append(r.Annotations, nil)
		} else {
			r.layout = append(r.layout, KindSamples)
			r.RawSignalSamples = append(r.RawSignalSamples, make([]int16, sh.SamplesCount))
		}
	}
	return r
}

// localIndex returns the position within the samples/annotations slice that
// the globalIndex-th layout slot maps to.
func (r *Record) localIndex(globalIndex int) int {
	count := 0
	kind := r.layout[globalIndex]
	for i := 0; i < globalIndex; i++ {
		if r.layout[i] == kind {
			count++
		}
	}
	return count
}

// PatchRecord applies a normalized instruction slice (already filtered down
// to signal-header instructions) to bring this record's layout in sync with
// a header signal-block edit.
func (r *Record) PatchRecord(instructions []edit.Instruction) error {
	if len(instructions) == 0 {
		return nil
	}

	signalIdx := instructions[0].Index
	instructionIdx := 0
	for instructionIdx < len(instructions) {
		tr := instructions[instructionIdx]

		switch {
		case tr.Kind == edit.KindRemove && tr.Index == signalIdx:
			instructionIdx++
			if err := r.RemoveSignal(tr.Index); err != nil {
				return err
			}
		case tr.Kind == edit.KindInsert && tr.Index == signalIdx:
			instructionIdx++
			sig, ok := tr.Value.(signal.Header)
			if !ok {
				return edferrors.ErrInvalidRecordSignals
			}
			if sig.IsAnnotation() {
				r.InsertAnnotation(tr.Index, sig.SamplesCount)
			} else {
				r.InsertSignalSamples(tr.Index, sig.SamplesCount)
			}
		case tr.Kind == edit.KindUpdate && tr.Index == signalIdx:
			signalIdx++
			instructionIdx++
			sig, ok := tr.Value.(signal.Header)
			if !ok {
				return edferrors.ErrInvalidRecordSignals
			}
			if err := r.UpdateSamplesCount(tr.Index, sig.SamplesCount); err != nil {
				return err
			}
		default:
			signalIdx++
		}
	}

	return nil
}

// InsertSignalSamples inserts a new zero-filled sample signal at
// signalIndex with samplesCount samples.
func (r *Record) InsertSignalSamples(signalIndex, samplesCount int) {
	insertIdx := 0
	for i := 0; i < signalIndex && i < len(r.layout); i++ {
		if r.layout[i] == KindSamples {
			insertIdx++
		}
	}

	layout := append(r.layout, 0)
	copy(layout[signalIndex+1:], layout[signalIndex:])
	layout[signalIndex] = KindSamples
	r.layout = layout

	samples := append(r.RawSignalSamples, nil)
	copy(samples[insertIdx+1:], samples[insertIdx:])
	samples[insertIdx] = make([]int16, samplesCount)
	r.RawSignalSamples = samples
}

// InsertAnnotation inserts a new empty annotation signal at signalIndex.
// samplesCount is accepted for symmetry with InsertSignalSamples and the
// header's own samples-count bookkeeping; the annotation byte budget is not
// tracked here but taken from the signal headers passed to Serialize.
func (r *Record) InsertAnnotation(signalIndex, samplesCount int) {
	_ = samplesCount
	insertIdx := 0
	for i := 0; i < signalIndex && i < len(r.layout); i++ {
		if r.layout[i] == KindAnnotation {
			insertIdx++
		}
	}

	layout := append(r.layout, 0)
	copy(layout[signalIndex+1:], layout[signalIndex:])
	layout[signalIndex] = KindAnnotation
	r.layout = layout

	annotations := append(r.Annotations, nil)
	copy(annotations[insertIdx+1:], annotations[insertIdx:])
	annotations[insertIdx] = nil
	r.Annotations = annotations
}

// RemoveSignal removes the signal at signalIndex (samples or annotation).
func (r *Record) RemoveSignal(signalIndex int) error {
	if signalIndex < 0 || signalIndex >= len(r.layout) {
		return edferrors.ErrItemNotFound
	}
	kind := r.layout[signalIndex]
	idx := r.localIndex(signalIndex)

	r.layout = append(r.layout[:signalIndex], r.layout[signalIndex+1:]...)

	switch kind {
	case KindSamples:
		r.RawSignalSamples = append(r.RawSignalSamples[:idx], r.RawSignalSamples[idx+1:]...)
	case KindAnnotation:
		r.Annotations = append(r.Annotations[:idx], r.Annotations[idx+1:]...)
	}
	return nil
}

// UpdateSamplesCount resizes the sample slot at signalIndex to
// samplesCount, zero-padding or truncating as needed. For an annotation
// slot it only checks the index; the TAL list is left as it is.
func (r *Record) UpdateSamplesCount(signalIndex, samplesCount int) error {
	if signalIndex < 0 || signalIndex >= len(r.layout) {
		return edferrors.ErrItemNotFound
	}
	idx := r.localIndex(signalIndex)

	switch r.layout[signalIndex] {
	case KindSamples:
		if idx >= len(r.RawSignalSamples) {
			return edferrors.ErrItemNotFound
		}
		r.RawSignalSamples[idx] = resizeInt16(r.RawSignalSamples[idx], samplesCount)
	case KindAnnotation:
		if idx >= len(r.Annotations) {
			return edferrors.ErrItemNotFound
		}
		// Annotation samples count only bounds the serialized byte budget;
		// the TAL list itself is untouched here.
	}
	return nil
}

func resizeInt16(s []int16, n int) []int16 {
	if len(s) == n {
		return s
	}
	if len(s) > n {
		return s[:n]
	}
	out := make([]int16, n)
	copy(out, s)
	return out
}

// SetAnnotation replaces the TAL list at the annotation signal signalIndex.
func (r *Record) SetAnnotation(signalIndex int, tals []annotation.List) error {
	if signalIndex < 0 || signalIndex >= len(r.layout) || r.layout[signalIndex] != KindAnnotation {
		return edferrors.ErrItemNotFound
	}
	r.Annotations[r.localIndex(signalIndex)] = tals
	return nil
}

// SetSamples replaces the raw sample slice at the sample signal
// signalIndex. The replacement must have the same length as the existing
// slice.
func (r *Record) SetSamples(signalIndex int, samples []int16) error {
	if signalIndex < 0 || signalIndex >= len(r.layout) || r.layout[signalIndex] != KindSamples {
		return edferrors.ErrItemNotFound
	}
	idx := r.localIndex(signalIndex)
	if len(r.RawSignalSamples[idx]) != len(samples) {
		return edferrors.ErrInvalidSamplesCount
	}
	r.RawSignalSamples[idx] = samples
	return nil
}

// GetDigitalSamples returns every sample signal's samples clamped to sig's
// digital range.
func (r *Record) GetDigitalSamples(sig signal.Header) [][]int32 {
	out := make([][]int32, len(r.RawSignalSamples))
	for i, samples := range r.RawSignalSamples {
		converted := make([]int32, len(samples))
		for j, s := range samples {
			converted[j] = clampInt32(int32(s), sig.DigitalMinimum, sig.DigitalMaximum)
		}
		out[i] = converted
	}
	return out
}

// GetPhysicalSamples returns every sample signal's samples converted to
// physical units and clamped to sig's physical range.
func (r *Record) GetPhysicalSamples(sig signal.Header) [][]float64 {
	scaleRange, offset := physicalScale(sig)
	out := make([][]float64, len(r.RawSignalSamples))
	for i, samples := range r.RawSignalSamples {
		converted := make([]float64, len(samples))
		for j, s := range samples {
			physical := scaleRange * (offset + float64(s))
			converted[j] = clampFloat64(physical, sig.PhysicalMinimum, sig.PhysicalMaximum)
		}
		out[i] = converted
	}
	return out
}

func physicalScale(sig signal.Header) (scaleRange, offset float64) {
	scaleRange = (sig.PhysicalMaximum - sig.PhysicalMinimum) / float64(sig.DigitalMaximum-sig.DigitalMinimum)
	offset = sig.PhysicalMaximum/scaleRange - float64(sig.DigitalMaximum)
	return
}

func clampInt32(v, min, max int32) int32 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func clampFloat64(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// GetStartOffset returns this record's onset relative to recording start:
// the time-keeping TAL's onset from the first annotation signal, if one
// exists, else DefaultOffset.
func (r *Record) GetStartOffset() float64 {
	if len(r.Annotations) == 0 {
		return r.DefaultOffset
	}
	for _, tal := range r.Annotations[0] {
		if tal.IsTimeKeeping() {
			return tal.Onset
		}
	}
	return r.DefaultOffset
}

// Serialize renders the record to its on-disk byte representation, in
// global signal order. signalHeaders supplies each annotation signal's
// samples_count so its TAL bytes can be zero-padded to the declared budget.
func (r *Record) Serialize(signalHeaders []signal.Header) ([]byte, error) {
	var buf []byte

	for globalIdx, kind := range r.layout {
		idx := r.localIndex(globalIdx)
		switch kind {
		case KindAnnotation:
			if idx >= len(r.Annotations) {
				return nil, edferrors.ErrInvalidRecordSignals
			}
			var tals string
			for _, tal := range r.Annotations[idx] {
				tals += tal.Serialize()
			}
			talBytes := []byte(tals)
			budget := 0
			if globalIdx < len(signalHeaders) {
				budget = signalHeaders[globalIdx].SamplesCount * 2
			}
			if budget > len(talBytes) {
				talBytes = append(talBytes, make([]byte, budget-len(talBytes))...)
			}
			buf = append(buf, talBytes...)
		case KindSamples:
			if idx >= len(r.RawSignalSamples) {
				return nil, edferrors.ErrInvalidRecordSignals
			}
			for _, s := range r.RawSignalSamples[idx] {
				var b [2]byte
				binary.LittleEndian.PutUint16(b[:], uint16(s))
				buf = append(buf, b[:]...)
			}
		}
	}

	return buf, nil
}

// MatchesSignals reports whether this record's layout (signal count, kind
// per position, and sample count per sample position) matches
// signalHeaders. Annotation positions are matched by kind only; their byte
// budget is not compared.
func (r *Record) MatchesSignals(signalHeaders []signal.Header) bool {
	if len(r.layout) != len(signalHeaders) {
		return false
	}
	for i, sh := range signalHeaders {
		idx := r.localIndex(i)
		switch r.layout[i] {
		case KindSamples:
			if sh.IsAnnotation() || idx >= len(r.RawSignalSamples) || len(r.RawSignalSamples[idx]) != sh.SamplesCount {
				return false
			}
		case KindAnnotation:
			if !sh.IsAnnotation() || idx >= len(r.Annotations) {
				return false
			}
		}
	}
	return true
}
