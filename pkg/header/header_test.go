package header

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/BitFlaker/edf-go/pkg/signal"
)

// sampleEDFPlusHeader is the well-known example header from the EDF+
// specification's annotated sample file: a 2-channel EEG/temperature
// recording plus its EDF Annotations signal.
const sampleEDFPlusHeader = "0       MCH-0234567 F 16-SEP-1987 Haagse_Harry                                          " +
	"Startdate 16-SEP-1987 PSG-1234/1987 NN Telemetry03                              " +
	"16.09.8720.35.001024    EDF+C                                       2880    30      3   " +
	"EEG Fpz-Cz      Temp rectal     EDF Annotations " +
	"AgAgCl cup electrodes                                                           Rectal thermistor                                                                                                                                               " +
	"uV      degC            " +
	"-440    34.4    " +
	"-1      510     40.2    1       " +
	"-2048   -2048   -32768  " +
	"2047    2047    32767   " +
	"HP:0.1Hz LP:75Hz N:50Hz                                                         LP:0.1Hz (first order)                                                                                                                                          " +
	"15000   3       320     " +
	"Reserved for EEG signal         Reserved for Body temperature                                   "

func TestDeserialize_SampleEDFPlusHeader(t *testing.T) {
	r := bytes.NewReader([]byte(sampleEDFPlusHeader))
	h, err := Deserialize(r)
	require.NoError(t, err)

	require.Equal(t, "0", h.Version)
	require.Equal(t, EDFPlus, h.Specification)
	require.True(t, h.IsContinuous)
	require.Equal(t, 1024, h.HeaderBytes)
	require.NotNil(t, h.RecordCount)
	require.Equal(t, 2880, *h.RecordCount)
	require.Equal(t, 30.0, h.RecordDuration)
	require.Len(t, h.Signals, 3)

	require.NotNil(t, h.PatientID.Code)
	require.Equal(t, "MCH-0234567", *h.PatientID.Code)
	require.NotNil(t, h.PatientID.Sex)
	require.Equal(t, SexFemale, *h.PatientID.Sex)
	require.NotNil(t, h.PatientID.Name)
	require.Equal(t, "Haagse Harry", *h.PatientID.Name)
	require.NotNil(t, h.PatientID.Date)
	require.Equal(t, time.Date(1987, time.September, 16, 0, 0, 0, 0, time.UTC), *h.PatientID.Date)

	require.NotNil(t, h.RecordingID.StartDate)
	require.Equal(t, time.Date(1987, time.September, 16, 0, 0, 0, 0, time.UTC), *h.RecordingID.StartDate)
	require.NotNil(t, h.RecordingID.AdminCode)
	require.Equal(t, "PSG-1234/1987", *h.RecordingID.AdminCode)
	require.NotNil(t, h.RecordingID.Technician)
	require.Equal(t, "NN", *h.RecordingID.Technician)
	require.NotNil(t, h.RecordingID.Equipment)
	require.Equal(t, "Telemetry03", *h.RecordingID.Equipment)

	require.Equal(t, signal.Header{
		Label:             "EEG Fpz-Cz",
		Transducer:        "AgAgCl cup electrodes",
		PhysicalDimension: "uV",
		PhysicalMinimum:   -440,
		PhysicalMaximum:   510,
		DigitalMinimum:    -2048,
		DigitalMaximum:    2047,
		Prefilter:         "HP:0.1Hz LP:75Hz N:50Hz",
		SamplesCount:      15000,
		Reserved:          "Reserved for EEG signal",
	}, h.Signals[0])

	require.Equal(t, signal.Header{
		Label:             "Temp rectal",
		Transducer:        "Rectal thermistor",
		PhysicalDimension: "degC",
		PhysicalMinimum:   34.4,
		PhysicalMaximum:   40.2,
		DigitalMinimum:    -2048,
		DigitalMaximum:    2047,
		Prefilter:         "LP:0.1Hz (first order)",
		SamplesCount:      3,
		Reserved:          "Reserved for Body temperature",
	}, h.Signals[1])

	require.True(t, h.Signals[2].IsAnnotation())
	require.Equal(t, 320, h.Signals[2].SamplesCount)
}

func TestSerialize_SampleEDFPlusHeaderRoundTrips(t *testing.T) {
	r := bytes.NewReader([]byte(sampleEDFPlusHeader))
	h, err := Deserialize(r)
	require.NoError(t, err)

	serialized, err := h.Serialize()
	require.NoError(t, err)
	require.Equal(t, sampleEDFPlusHeader, serialized)
}

func TestStartDate_PrefersRecordingIDOverOldStyleField(t *testing.T) {
	r := bytes.NewReader([]byte(sampleEDFPlusHeader))
	h, err := Deserialize(r)
	require.NoError(t, err)

	require.Equal(t, time.Date(1987, time.September, 16, 0, 0, 0, 0, time.UTC), h.StartDate())
}

func TestModifySignalsAndCommit(t *testing.T) {
	h := New().WithSpecification(EDFPlus)
	h.Signals = []signal.Header{{Label: "EEG"}}

	staged := h.ModifySignals()
	*staged = append(*staged, signal.Header{Label: "EMG"})

	require.Len(t, h.Signals, 1, "live Signals must not change until committed")
	require.Len(t, h.CurrentSignals(), 2, "CurrentSignals should reflect the staged copy")

	h.CommitUpdatedSignals()
	require.Len(t, h.Signals, 2)
	require.Equal(t, "EMG", h.Signals[1].Label)

	h.CommitUpdatedSignals()
	require.Len(t, h.Signals, 2, "a second commit with nothing staged must be a no-op")
}

func TestParseOldStartDate_ClipsTwoDigitYears(t *testing.T) {
	t.Run("19xx", func(t *testing.T) {
		got, err := ParseOldStartDate("16.09.87")
		require.NoError(t, err)
		require.Equal(t, 1987, got.Year())
	})
	t.Run("20xx", func(t *testing.T) {
		got, err := ParseOldStartDate("01.01.20")
		require.NoError(t, err)
		require.Equal(t, 2020, got.Year())
	})
	t.Run("yy sentinel", func(t *testing.T) {
		got, err := ParseOldStartDate("01.01.yy")
		require.NoError(t, err)
		require.Equal(t, 2100, got.Year())
	})
}
