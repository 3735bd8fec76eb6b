package signal

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuilderChain(t *testing.T) {
	h := (&Header{}).
		WithLabel("EEG Fpz-Cz").
		WithTransducer("AgAgCl cup electrodes").
		WithPhysicalDimension("uV").
		WithPhysicalRange(-440, 510).
		WithDigitalRange(-2048, 2047).
		WithPrefilter("HP:0.1Hz LP:75Hz").
		WithSamplesCount(150)

	require.Equal(t, "EEG Fpz-Cz", h.Label)
	require.Equal(t, "AgAgCl cup electrodes", h.Transducer)
	require.Equal(t, "uV", h.PhysicalDimension)
	require.Equal(t, -440.0, h.PhysicalMinimum)
	require.Equal(t, 510.0, h.PhysicalMaximum)
	require.Equal(t, int32(-2048), h.DigitalMinimum)
	require.Equal(t, int32(2047), h.DigitalMaximum)
	require.Equal(t, "HP:0.1Hz LP:75Hz", h.Prefilter)
	require.Equal(t, 150, h.SamplesCount)
}

func TestNewAnnotationSignalHeader(t *testing.T) {
	h := NewAnnotationSignalHeader(60)
	require.True(t, h.IsAnnotation())
	require.Equal(t, 120, h.SamplesCount, "annotation signals budget two bytes per TAL sample")

	plain := Header{Label: "EEG Fpz-Cz"}
	require.False(t, plain.IsAnnotation())
}
