package edf

import (
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/BitFlaker/edf-go/pkg/annotation"
	"github.com/BitFlaker/edf-go/pkg/edferrors"
	"github.com/BitFlaker/edf-go/pkg/header"
	"github.com/BitFlaker/edf-go/pkg/record"
	"github.com/BitFlaker/edf-go/pkg/signal"
)

// ReadRecord reads and parses the record at the current reader position,
// advancing the reader past it. It returns nil, nil once every record has
// been read.
func (f *File) ReadRecord() (*record.Record, error) {
	position, err := f.handle.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", edferrors.ErrFileReadError, err)
	}

	if position < int64(f.Header.HeaderBytes) {
		return nil, edferrors.ErrInvalidReadRange
	}

	recordSize := int64(f.Header.DataRecordBytes())
	recordOffset := position - int64(f.Header.HeaderBytes)
	if recordSize == 0 || recordOffset%recordSize != 0 {
		return nil, edferrors.ErrInvalidReadRange
	}

	recordIdx := recordOffset / recordSize
	if f.Header.RecordCount == nil {
		return nil, edferrors.ErrReadWhileRecording
	}
	if recordIdx+1 > int64(*f.Header.RecordCount) {
		return nil, nil
	}

	rec, err := readRecordData(f.handle, recordIdx, f.Header.Signals, f.Header.RecordDuration)
	if err != nil {
		return nil, err
	}

	if err := rec.PatchRecord(f.signalInstructions); err != nil {
		return nil, err
	}

	return rec, nil
}

// readRecordData reads one data-record's worth of raw sample/annotation
// bytes from r (positioned at the start of the record) according to
// signals, and parses it into a Record whose DefaultOffset is
// recordIdx*recordDuration.
func readRecordData(r io.Reader, recordIdx int64, signals []signal.Header, recordDuration float64) (*record.Record, error) {
	rec := record.New(signals)
	rec.DefaultOffset = float64(recordIdx) * recordDuration

	var sampleBuf [2]byte
	for i, sig := range signals {
		if sig.IsAnnotation() {
			var tals []annotation.List
			totalRead := 0
			budget := sig.SamplesCount * 2
			for totalRead < budget {
				talBytes, err := readUntilNUL(r)
				if err != nil && err != io.EOF {
					return nil, err
				}
				totalRead += len(talBytes)
				if len(talBytes) == 0 {
					if err == io.EOF {
						break
					}
					continue
				}
				if len(talBytes) == 1 && talBytes[0] == 0x00 {
					if err == io.EOF {
						break
					}
					continue
				}
				tal, derr := annotation.Deserialize(talBytes)
				if derr != nil {
					return nil, derr
				}
				tals = append(tals, tal)
				if err == io.EOF {
					break
				}
			}
			if err := rec.SetAnnotation(i, tals); err != nil {
				return nil, err
			}
		} else {
			samples := make([]int16, sig.SamplesCount)
			for j := 0; j < sig.SamplesCount; j++ {
				if _, err := io.ReadFull(r, sampleBuf[:]); err != nil {
					return nil, fmt.Errorf("%w: %v", edferrors.ErrFileReadError, err)
				}
				samples[j] = int16(binary.LittleEndian.Uint16(sampleBuf[:]))
			}
			if err := rec.SetSamples(i, samples); err != nil {
				return nil, err
			}
		}
	}

	return rec, nil
}

// readUntilNUL reads single bytes from r, accumulating them (the terminating
// NUL included) until a 0x00 byte is seen or r is exhausted. It never reads
// past the bytes it returns, so it is safe to call back-to-back on a
// positioned file handle without losing track of the read cursor — unlike a
// bufio.Reader, which would buffer ahead and desync the handle's position
// from the logical record boundary.
func readUntilNUL(r io.Reader) ([]byte, error) {
	var out []byte
	var b [1]byte
	for {
		n, err := r.Read(b[:])
		if n > 0 {
			out = append(out, b[0])
			if b[0] == 0x00 {
				return out, nil
			}
		}
		if err != nil {
			if err == io.EOF {
				return out, io.EOF
			}
			return out, fmt.Errorf("%w: %v", edferrors.ErrFileReadError, err)
		}
	}
}

// ReadRecordAt seeks to the index-th record and reads it.
func (f *File) ReadRecordAt(index int) (*record.Record, error) {
	if err := f.SeekToRecord(index); err != nil {
		return nil, err
	}
	return f.ReadRecord()
}

// SeekToRecord positions the reader at the start of the index-th record.
func (f *File) SeekToRecord(index int) error {
	pos := int64(f.Header.HeaderBytes) + int64(index)*int64(f.Header.DataRecordBytes())
	if _, err := f.handle.Seek(pos, io.SeekStart); err != nil {
		return fmt.Errorf("%w: %v", edferrors.ErrFileReadError, err)
	}
	return nil
}

// SeekPreviousRecord moves the reader back by one record, reporting whether
// it did (it does nothing and returns false if already at or before the
// first record).
func (f *File) SeekPreviousRecord() (bool, error) {
	position, err := f.handle.Seek(0, io.SeekCurrent)
	if err != nil {
		return false, fmt.Errorf("%w: %v", edferrors.ErrFileReadError, err)
	}
	if position <= int64(f.Header.HeaderBytes) {
		return false, nil
	}
	if _, err := f.handle.Seek(-int64(f.Header.DataRecordBytes()), io.SeekCurrent); err != nil {
		return false, fmt.Errorf("%w: %v", edferrors.ErrFileReadError, err)
	}
	return true, nil
}

const nanosPerSecond = 1_000_000_000

// ReadNanos reads samples and annotations for the given duration starting
// at the current reader position, reassembling the window across however
// many data-records it spans.
//
// Regular EDF files and continuous EDF+ files return a SpanningRecord with
// exactly one span per channel whenever any data was read. Discontinuous
// EDF+ files can return any number of spans: a new span starts whenever the
// window crosses a discontinuity gap between two records, and the window
// can contain zero spans if it falls entirely inside a gap.
//
// Every Time-keeping annotation read along the way is preserved in the
// returned SpanningRecord's Annotations.
func (f *File) ReadNanos(nanoseconds time.Duration) (*record.SpanningRecord, error) {
	n := int64(nanoseconds)
	offsetEnd := f.recordReadOffsetNS + n
	recordDurationNS := int64(f.Header.RecordDuration * nanosPerSecond)

	records := record.NewSpanningRecord(f.Header.Signals)
	offsetCurrent := f.recordReadOffsetNS

	var readStartNS *int64
	wentBack, err := f.SeekPreviousRecord()
	if err != nil {
		return nil, err
	}
	if wentBack {
		rec, err := f.ReadRecord()
		if err != nil {
			return nil, err
		}
		if rec != nil {
			onset := int64(rec.GetStartOffset() * nanosPerSecond)
			readStartNS = &onset
		}
	}

	var remainingRecordNS int64

	for offsetCurrent < offsetEnd {
		rec, err := f.ReadRecord()
		if err != nil {
			return nil, err
		}
		if rec == nil {
			remainingRecordNS = 0
			break
		}

		onset := int64(rec.GetStartOffset() * nanosPerSecond)
		var skipDurationNS int64
		switch {
		case f.Header.Specification == header.EDF:
			skipDurationNS = 0
		case readStartNS != nil:
			skipDurationNS = onset - *readStartNS - recordDurationNS
		default:
			alreadySkipped := onset - offsetCurrent
			skipDurationNS = onset - alreadySkipped
		}

		if readStartNS == nil {
			readStartNS = &onset
		}

		sampleFrequencies := make([]float64, len(rec.RawSignalSamples))
		for i, samples := range rec.RawSignalSamples {
			sampleFrequencies[i] = float64(len(samples)) / f.Header.RecordDuration
		}

		var recordOffsetNS int64
		if offsetCurrent == f.recordReadOffsetNS {
			records.InsertSpanningWait(rec.GetStartOffset() + float64(f.recordReadOffsetNS)/nanosPerSecond)

			if f.recordReadOffsetNS > 0 {
				for i := range rec.RawSignalSamples {
					sampleFreq := sampleFrequencies[i]
					sampleCount := int(float64(f.recordReadOffsetNS) / nanosPerSecond * sampleFreq)
					if sampleCount > len(rec.RawSignalSamples[i]) {
						sampleCount = len(rec.RawSignalSamples[i])
					}
					rec.RawSignalSamples[i] = rec.RawSignalSamples[i][sampleCount:]
				}

				for i, tals := range rec.Annotations {
					var kept []annotation.List
					for _, tal := range tals {
						if tal.Duration == 0.0 {
							kept = append(kept, tal)
							continue
						}
						onsetNS := int64(tal.Onset * nanosPerSecond)
						durationNS := int64(tal.Duration * nanosPerSecond)
						if onsetNS+durationNS >= *readStartNS+f.recordReadOffsetNS {
							kept = append(kept, tal)
						}
					}
					rec.Annotations[i] = kept
				}
			}

			recordOffsetNS = f.recordReadOffsetNS
		}

		if skipDurationNS != 0 && !records.IsSpanningWait() {
			records.InsertSpanningWait(rec.GetStartOffset() + float64(recordOffsetNS)/nanosPerSecond)
		}

		offsetCurrent += skipDurationNS
		if offsetCurrent >= offsetEnd {
			if _, err := f.SeekPreviousRecord(); err != nil {
				return nil, err
			}
			break
		}

		remainingRecordNS = offsetEnd - offsetCurrent
		recordRemainingNS := recordDurationNS - f.recordReadOffsetNS
		if remainingRecordNS >= recordRemainingNS {
			for i, samples := range rec.RawSignalSamples {
				records.ExtendSamples(i, samples)
			}
			records.Annotations = append(records.Annotations, rec.Annotations...)
			offsetCurrent += recordRemainingNS
			remainingRecordNS -= recordRemainingNS
			f.recordReadOffsetNS = 0
		} else {
			for i, samples := range rec.RawSignalSamples {
				sampleFreq := sampleFrequencies[i]
				prevSampleCount := float64(f.recordReadOffsetNS) / nanosPerSecond * sampleFreq
				currentSampleCount := float64(remainingRecordNS) / nanosPerSecond * sampleFreq
				totalSampleCount := prevSampleCount + currentSampleCount
				sampleCount := int(totalSampleCount - floorF(prevSampleCount))
				if sampleCount > len(samples) {
					sampleCount = len(samples)
				}
				if sampleCount < 0 {
					sampleCount = 0
				}
				records.ExtendSamples(i, samples[:sampleCount])
			}

			for _, talList := range rec.Annotations {
				var tals []annotation.List
				for _, tal := range talList {
					onsetNS := int64(tal.Onset * nanosPerSecond)
					isEntireRecord := tal.Duration == 0.0
					isStartingUntilReadEnd := onsetNS <= *readStartNS+offsetEnd
					if isEntireRecord || isStartingUntilReadEnd {
						tals = append(tals, tal)
					}
				}
				records.Annotations = append(records.Annotations, tals)
			}

			if _, err := f.SeekPreviousRecord(); err != nil {
				return nil, err
			}
			break
		}

		readStartNS = &onset
	}

	records.Finish()
	f.recordReadOffsetNS += remainingRecordNS

	return records, nil
}

func floorF(v float64) float64 {
	i := int64(v)
	if v < 0 && float64(i) != v {
		i--
	}
	return float64(i)
}

// ReadMicros reads samples and annotations for the given duration in
// microseconds. See ReadNanos.
func (f *File) ReadMicros(microseconds time.Duration) (*record.SpanningRecord, error) {
	return f.ReadNanos(microseconds * 1_000)
}

// ReadMillis reads samples and annotations for the given duration in
// milliseconds. See ReadNanos.
func (f *File) ReadMillis(milliseconds time.Duration) (*record.SpanningRecord, error) {
	return f.ReadNanos(milliseconds * 1_000_000)
}

// ReadSeconds reads samples and annotations for the given duration in
// seconds. See ReadNanos.
func (f *File) ReadSeconds(seconds time.Duration) (*record.SpanningRecord, error) {
	return f.ReadNanos(seconds * nanosPerSecond)
}

// ReadSecondsApprox reads samples and annotations for the given duration in
// (possibly fractional) seconds. Converting a float64 second count to
// nanoseconds loses precision; prefer ReadNanos or ReadMillis for exact
// durations.
func (f *File) ReadSecondsApprox(seconds float32) (*record.SpanningRecord, error) {
	if seconds <= 0.0 {
		return nil, edferrors.ErrInvalidReadRange
	}
	return f.ReadNanos(time.Duration(float64(seconds) * nanosPerSecond))
}
