// Package signal models a single EDF/EDF+ signal header entry — the
// per-channel metadata block that repeats once per signal after the fixed
// global header.
package signal

import "github.com/BitFlaker/edf-go/pkg/consts"

// Header is one signal's metadata, as stored in the per-signal header
// blocks of an EDF/EDF+ file.
type Header struct {
	Label              string
	Transducer         string
	PhysicalDimension  string
	PhysicalMinimum    float64
	PhysicalMaximum    float64
	DigitalMinimum     int32
	DigitalMaximum     int32
	Prefilter          string
	SamplesCount       int
	Reserved           string
}

// NewAnnotationSignalHeader builds the signal header for an EDF+ annotation
// channel sized to hold size TALs worth of samples (two bytes per sample).
func NewAnnotationSignalHeader(size int) Header {
	return Header{
		Label:           consts.AnnotationSignalLabel,
		DigitalMinimum:  consts.AnnotationDigitalMin,
		DigitalMaximum:  consts.AnnotationDigitalMax,
		PhysicalMinimum: consts.AnnotationPhysicalMin,
		PhysicalMaximum: consts.AnnotationPhysicalMax,
		SamplesCount:    size * 2,
	}
}

// IsAnnotation reports whether this signal is the EDF+ annotation channel.
func (h Header) IsAnnotation() bool {
	return h.Label == consts.AnnotationSignalLabel
}

func (h *Header) WithLabel(label string) *Header {
	h.Label = label
	return h
}

func (h *Header) WithTransducer(transducer string) *Header {
	h.Transducer = transducer
	return h
}

func (h *Header) WithPhysicalDimension(dimension string) *Header {
	h.PhysicalDimension = dimension
	return h
}

func (h *Header) WithPhysicalRange(min, max float64) *Header {
	h.PhysicalMinimum = min
	h.PhysicalMaximum = max
	return h
}

func (h *Header) WithDigitalRange(min, max int32) *Header {
	h.DigitalMinimum = min
	h.DigitalMaximum = max
	return h
}

func (h *Header) WithPrefilter(prefilter string) *Header {
	h.Prefilter = prefilter
	return h
}

func (h *Header) WithSamplesCount(count int) *Header {
	h.SamplesCount = count
	return h
}
