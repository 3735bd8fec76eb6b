package record

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/BitFlaker/edf-go/pkg/annotation"
	"github.com/BitFlaker/edf-go/pkg/edit"
	"github.com/BitFlaker/edf-go/pkg/signal"
)

func twoChannelSignals() []signal.Header {
	return []signal.Header{
		{Label: "EEG Fpz-Cz", SamplesCount: 4, DigitalMinimum: -2048, DigitalMaximum: 2047, PhysicalMinimum: -440, PhysicalMaximum: 510},
		{Label: "EDF Annotations", SamplesCount: 8},
	}
}

func TestNew_BuildsZeroedLayout(t *testing.T) {
	r := New(twoChannelSignals())
	require.Len(t, r.RawSignalSamples, 1)
	require.Equal(t, []int16{0, 0, 0, 0}, r.RawSignalSamples[0])
	require.Len(t, r.Annotations, 1)
	require.Nil(t, r.Annotations[0])
}

func TestSerialize_PadsAnnotationsToBudget(t *testing.T) {
	signals := twoChannelSignals()
	r := New(signals)

	require.NoError(t, r.SetSamples(0, []int16{1, -1, 1000, -1000}))
	// "+0\x14Arousal\x14\x00" is 12 bytes, inside the 16-byte budget.
	tal := NewTestTAL(t, 0, 0, "Arousal")
	require.NoError(t, r.SetAnnotation(1, []annotation.List{tal}))

	data, err := r.Serialize(signals)
	require.NoError(t, err)
	require.Len(t, data, 4*2+8*2, "4 samples at 2 bytes plus an 8-sample annotation budget")
}

func TestMatchesSignals(t *testing.T) {
	signals := twoChannelSignals()
	r := New(signals)
	require.True(t, r.MatchesSignals(signals))

	mismatched := twoChannelSignals()
	mismatched[0].SamplesCount = 5
	require.False(t, r.MatchesSignals(mismatched))
}

func TestInsertAndRemoveSignal(t *testing.T) {
	r := New(twoChannelSignals())

	r.InsertSignalSamples(1, 2)
	require.Len(t, r.RawSignalSamples, 2)
	require.Len(t, r.Annotations, 1)

	require.NoError(t, r.RemoveSignal(1))
	require.Len(t, r.RawSignalSamples, 1)
	require.Len(t, r.Annotations, 1)
}

func TestUpdateSamplesCount_ResizesSamples(t *testing.T) {
	r := New(twoChannelSignals())
	require.NoError(t, r.SetSamples(0, []int16{1, 2, 3, 4}))

	require.NoError(t, r.UpdateSamplesCount(0, 2))
	require.Equal(t, []int16{1, 2}, r.RawSignalSamples[0])

	require.NoError(t, r.UpdateSamplesCount(0, 4))
	require.Equal(t, []int16{1, 2, 0, 0}, r.RawSignalSamples[0])
}

func TestPatchRecord_InsertMatchesHeaderLayout(t *testing.T) {
	r := New(twoChannelSignals())

	instructions := []edit.Instruction{
		{Kind: edit.KindInsert, Index: 1, Value: signal.Header{Label: "EMG", SamplesCount: 3}},
	}
	require.NoError(t, r.PatchRecord(instructions))

	require.Len(t, r.RawSignalSamples, 2)
	require.Equal(t, []int16{0, 0, 0}, r.RawSignalSamples[1])
	require.True(t, r.MatchesSignals([]signal.Header{
		{Label: "EEG Fpz-Cz", SamplesCount: 4},
		{Label: "EMG", SamplesCount: 3},
		{Label: "EDF Annotations", SamplesCount: 8},
	}))
}

func TestPatchRecord_RemoveDropsSignal(t *testing.T) {
	r := New(twoChannelSignals())

	instructions := []edit.Instruction{
		{Kind: edit.KindRemove, Index: 0},
	}
	require.NoError(t, r.PatchRecord(instructions))

	require.Empty(t, r.RawSignalSamples)
	require.Len(t, r.Annotations, 1)
}

func TestGetStartOffset_PrefersTimeKeepingTAL(t *testing.T) {
	r := New([]signal.Header{{Label: "EDF Annotations", SamplesCount: 8}})
	r.DefaultOffset = 30.0

	require.Equal(t, 30.0, r.GetStartOffset(), "falls back to DefaultOffset with no time-keeping TAL")

	require.NoError(t, r.SetAnnotation(0, []annotation.List{annotation.NewTimeKeeping(31.5)}))
	require.Equal(t, 31.5, r.GetStartOffset())
}

func TestGetDigitalSamples_ClampsToRange(t *testing.T) {
	signals := twoChannelSignals()
	r := New(signals)
	require.NoError(t, r.SetSamples(0, []int16{-32000, 32000, 0, 100}))

	clamped := r.GetDigitalSamples(signals[0])
	require.Equal(t, []int32{-2048, 2047, 0, 100}, clamped[0])
}

// NewTestTAL is a tiny helper building a valid TAL for record tests without
// pulling in annotation package's own test helpers.
func NewTestTAL(t *testing.T, onset, duration float64, text string) annotation.List {
	t.Helper()
	tal, err := annotation.New(onset, duration, []string{text})
	require.NoError(t, err)
	return tal
}
