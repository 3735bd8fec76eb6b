package record

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/BitFlaker/edf-go/pkg/signal"
)

func spanningSignals() []signal.Header {
	return []signal.Header{
		{Label: "EEG Fpz-Cz", SamplesCount: 4, DigitalMinimum: -2048, DigitalMaximum: 2047, PhysicalMinimum: -100, PhysicalMaximum: 100},
		{Label: "EDF Annotations", SamplesCount: 8},
	}
}

func TestNewSpanningRecord_SkipsAnnotationChannels(t *testing.T) {
	s := NewSpanningRecord(spanningSignals())
	require.Len(t, s.RawSignalSamples, 1, "the annotation channel carries no sample spans")
}

func TestInsertSpanningWait_StartsAndCollapsesAdjacentWaits(t *testing.T) {
	s := NewSpanningRecord(spanningSignals())

	s.InsertSpanningWait(0)
	require.True(t, s.IsSpanningWait())

	// A second InsertSpanningWait at the same offset is a no-op: it must
	// not leave two empty placeholder spans behind.
	s.InsertSpanningWait(0)
	require.Len(t, s.RawSignalSamples[0], 1)
}

func TestExtendSamples_FillsMostRecentSpan(t *testing.T) {
	s := NewSpanningRecord(spanningSignals())
	s.InsertSpanningWait(0)

	s.ExtendSamples(0, []int16{1, 2, 3})
	require.Equal(t, []int16{1, 2, 3}, s.RawSignalSamples[0][0].RawSignalSamples)
	require.Equal(t, 0.0, s.RawSignalSamples[0][0].Offset)

	s.ExtendSamples(0, []int16{4})
	require.Equal(t, []int16{1, 2, 3, 4}, s.RawSignalSamples[0][0].RawSignalSamples)
}

func TestInsertSpanningWait_StartsNewSpanOnDiscontinuity(t *testing.T) {
	s := NewSpanningRecord(spanningSignals())
	s.InsertSpanningWait(0)
	s.ExtendSamples(0, []int16{1, 2})

	s.InsertSpanningWait(5.0)
	require.Len(t, s.RawSignalSamples[0], 2, "a gap starts a fresh span rather than extending the old one")
	require.Equal(t, 5.0, s.RawSignalSamples[0][1].Offset)
}

func TestRemoveLastSpanningWait_OnlyDropsEmptyTrailingPlaceholder(t *testing.T) {
	s := NewSpanningRecord(spanningSignals())
	s.InsertSpanningWait(0)
	s.ExtendSamples(0, []int16{1})

	require.False(t, s.RemoveLastSpanningWait(), "a span with samples is not a placeholder")
	require.Len(t, s.RawSignalSamples[0], 1)

	s.InsertSpanningWait(1.0)
	require.True(t, s.RemoveLastSpanningWait())
	require.Len(t, s.RawSignalSamples[0], 1, "the empty placeholder span is removed, leaving the filled one")
}

func TestFinish_DropsTrailingPlaceholder(t *testing.T) {
	s := NewSpanningRecord(spanningSignals())
	s.InsertSpanningWait(0)
	s.ExtendSamples(0, []int16{1, 2})
	s.InsertSpanningWait(1.0)

	s.Finish()
	require.Len(t, s.RawSignalSamples[0], 1)
	require.Equal(t, []int16{1, 2}, s.RawSignalSamples[0][0].RawSignalSamples)
}

func TestRelativeRecordData_DigitalAndPhysicalSamples(t *testing.T) {
	sig := spanningSignals()[0]
	d := RelativeRecordData{Offset: 0, RawSignalSamples: []int16{-4096, 0, 4096}}

	require.Equal(t, []int32{-2048, 0, 2047}, d.GetDigitalSamples(sig))

	physical := d.GetPhysicalSamples(sig)
	require.Len(t, physical, 3)
	require.InDelta(t, -100.0, physical[0], 0.001)
	require.InDelta(t, 100.0, physical[2], 0.001)
}
