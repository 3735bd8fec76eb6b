package edf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/BitFlaker/edf-go/pkg/edferrors"
	"github.com/BitFlaker/edf-go/pkg/header"
	"github.com/BitFlaker/edf-go/pkg/record"
	"github.com/BitFlaker/edf-go/pkg/signal"
)

func testSignal() signal.Header {
	return signal.Header{
		Label:           "Test Signal",
		SamplesCount:    4,
		PhysicalMinimum: -100,
		PhysicalMaximum: 100,
		DigitalMinimum:  -2048,
		DigitalMaximum:  2047,
	}
}

func newScratchFile(t *testing.T) (*File, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scratch.edf")
	f, err := Create(path)
	require.NoError(t, err)
	f.Header.WithSpecification(header.EDF).WithRecordDuration(1.0).
		WithStartDate(time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)).
		WithStartTime(time.Date(0, 1, 1, 12, 0, 0, 0, time.UTC))
	f.Header.Signals = []signal.Header{testSignal()}
	return f, path
}

func recordWithValue(t *testing.T, signals []signal.Header, value int16) *record.Record {
	t.Helper()
	rec := record.New(signals)
	samples := make([]int16, signals[0].SamplesCount)
	for i := range samples {
		samples[i] = value
	}
	require.NoError(t, rec.SetSamples(0, samples))
	return rec
}

func TestAppendAndReadBack(t *testing.T) {
	f, path := newScratchFile(t)
	for i := int16(0); i < 5; i++ {
		require.NoError(t, f.AppendRecord(recordWithValue(t, f.Header.Signals, i)))
	}
	require.NoError(t, f.Save())
	require.NoError(t, f.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	require.NotNil(t, reopened.Header.RecordCount)
	require.Equal(t, 5, *reopened.Header.RecordCount)

	for i := int16(0); i < 5; i++ {
		rec, err := reopened.ReadRecord()
		require.NoError(t, err)
		require.NotNil(t, rec)
		require.Equal(t, []int16{i, i, i, i}, rec.RawSignalSamples[0])
	}

	rec, err := reopened.ReadRecord()
	require.NoError(t, err)
	require.Nil(t, rec, "reading past the last record returns nil, nil")
}

func TestRemoveRecords_Shrink(t *testing.T) {
	f, path := newScratchFile(t)
	for i := int16(0); i < 5; i++ {
		require.NoError(t, f.AppendRecord(recordWithValue(t, f.Header.Signals, i)))
	}
	require.NoError(t, f.Save())
	require.NoError(t, f.Close())

	f2, err := Open(path)
	require.NoError(t, err)

	require.NoError(t, f2.RemoveRecord(0))
	require.NoError(t, f2.RemoveRecord(3))
	require.NoError(t, f2.Save())
	require.NoError(t, f2.Close())

	f3, err := Open(path)
	require.NoError(t, err)
	defer f3.Close()

	require.NotNil(t, f3.Header.RecordCount)
	require.Equal(t, 3, *f3.Header.RecordCount)

	// The second removal's index refers to the sequence left after the
	// first removal, so original records 0 and 4 are gone and records
	// 1, 2, 3 survive, in order.
	for _, want := range []int16{1, 2, 3} {
		rec, err := f3.ReadRecord()
		require.NoError(t, err)
		require.NotNil(t, rec)
		require.Equal(t, []int16{want, want, want, want}, rec.RawSignalSamples[0])
	}
}

func TestInsertAndUpdateRecords(t *testing.T) {
	f, path := newScratchFile(t)
	for i := int16(0); i < 3; i++ {
		require.NoError(t, f.AppendRecord(recordWithValue(t, f.Header.Signals, i)))
	}
	require.NoError(t, f.Save())
	require.NoError(t, f.Close())

	f2, err := Open(path)
	require.NoError(t, err)

	require.NoError(t, f2.UpdateRecord(1, recordWithValue(t, f2.Header.Signals, 99)))
	require.NoError(t, f2.Save())
	require.NoError(t, f2.Close())

	f3, err := Open(path)
	require.NoError(t, err)
	defer f3.Close()

	require.Equal(t, 3, *f3.Header.RecordCount)
	for _, want := range []int16{0, 99, 2} {
		rec, err := f3.ReadRecord()
		require.NoError(t, err)
		require.Equal(t, []int16{want, want, want, want}, rec.RawSignalSamples[0])
	}
}

func TestInsertThenDeleteAtSameIndexCancels(t *testing.T) {
	f, path := newScratchFile(t)
	for i := int16(0); i < 3; i++ {
		require.NoError(t, f.AppendRecord(recordWithValue(t, f.Header.Signals, i)))
	}
	require.NoError(t, f.Save())
	require.NoError(t, f.Close())

	before, err := os.ReadFile(path)
	require.NoError(t, err)

	f2, err := Open(path)
	require.NoError(t, err)

	require.NoError(t, f2.InsertRecord(1, recordWithValue(t, f2.Header.Signals, 42)))
	require.NoError(t, f2.RemoveRecord(1))
	require.NoError(t, f2.Save())
	require.NoError(t, f2.Close())

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, before, after, "an insert immediately cancelled by a remove at the same index must leave the file unchanged")
}

func TestRemoveRecord_OutOfBoundsIndex(t *testing.T) {
	f, _ := newScratchFile(t)
	require.NoError(t, f.AppendRecord(recordWithValue(t, f.Header.Signals, 0)))

	err := f.RemoveRecord(5)
	require.ErrorIs(t, err, edferrors.ErrIndexOutOfBounds)
}

func TestUpsampleSignal_ZeroPadsExistingRecords(t *testing.T) {
	f, path := newScratchFile(t)
	for i := int16(0); i < 2; i++ {
		require.NoError(t, f.AppendRecord(recordWithValue(t, f.Header.Signals, i)))
	}
	require.NoError(t, f.Save())
	require.NoError(t, f.Close())

	f2, err := Open(path)
	require.NoError(t, err)

	updated := testSignal()
	updated.SamplesCount = 6
	require.NoError(t, f2.UpdateSignal(0, updated))
	require.NoError(t, f2.Save())
	require.NoError(t, f2.Close())

	f3, err := Open(path)
	require.NoError(t, err)
	defer f3.Close()

	require.Equal(t, 6, f3.Header.Signals[0].SamplesCount)
	rec, err := f3.ReadRecord()
	require.NoError(t, err)
	require.Equal(t, []int16{0, 0, 0, 0, 0, 0}, rec.RawSignalSamples[0])
}
