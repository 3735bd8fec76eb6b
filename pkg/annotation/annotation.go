// Package annotation implements the EDF+ Timestamped Annotations List
// (TAL) wire format used by annotation-channel samples.
package annotation

import (
	"strconv"
	"strings"

	"github.com/BitFlaker/edf-go/pkg/consts"
	"github.com/BitFlaker/edf-go/pkg/edferrors"
)

// List is one TAL: an onset time, an optional duration, and one or more
// annotation strings. Only the first annotation signal in a record is
// expected to carry a time-keeping TAL; others are treated as plain text.
type List struct {
	Onset       float64
	Duration    float64
	Annotations []string
}

// New builds a List, rejecting any annotation containing illegal control
// characters.
func New(onset, duration float64, annotations []string) (List, error) {
	for _, a := range annotations {
		if !isValidString(a) {
			return List{}, edferrors.ErrIllegalCharacters
		}
	}
	return List{Onset: onset, Duration: duration, Annotations: annotations}, nil
}

// NewTimeKeeping builds the mandatory time-keeping TAL written once per
// record by the first annotation signal.
func NewTimeKeeping(onset float64) List {
	return List{Onset: onset, Annotations: []string{""}}
}

// NewTimeKeepingWithReason builds a time-keeping TAL carrying a free-text
// reason-for-recording-start annotation.
func NewTimeKeepingWithReason(onset float64, reason string) List {
	return List{Onset: onset, Annotations: []string{"", reason}}
}

// AddAnnotation appends annotation to the list, validating its characters.
func (l *List) AddAnnotation(annotationText string) error {
	return l.InsertAnnotation(len(l.Annotations), annotationText)
}

// InsertAnnotation inserts annotation at index, validating its characters.
func (l *List) InsertAnnotation(index int, annotationText string) error {
	if !isValidString(annotationText) {
		return edferrors.ErrIllegalCharacters
	}
	l.Annotations = append(l.Annotations, "")
	copy(l.Annotations[index+1:], l.Annotations[index:])
	l.Annotations[index] = annotationText
	return nil
}

// RemoveAnnotation removes the annotation at index.
func (l *List) RemoveAnnotation(index int) {
	l.Annotations = append(l.Annotations[:index], l.Annotations[index+1:]...)
}

// IsTimeKeeping reports whether this TAL is a time-keeping TAL (its first
// annotation string is empty).
func (l List) IsTimeKeeping() bool {
	return len(l.Annotations) > 0 && l.Annotations[0] == ""
}

// TimeKeepingReason returns the optional reason-for-recording-start
// annotation of a time-keeping TAL, if present.
func (l List) TimeKeepingReason() *string {
	if !l.IsTimeKeeping() || len(l.Annotations) < 2 {
		return nil
	}
	return &l.Annotations[1]
}

// Deserialize parses the wire-format bytes of a single TAL:
// "±onset[\x15duration]\x14ann0\x14ann1…\x14\x00".
func Deserialize(data []byte) (List, error) {
	if len(data) < 2 || data[len(data)-2] != consts.TALFieldSeparator || data[len(data)-1] != consts.TALTerminator {
		return List{}, edferrors.ErrInvalidHeaderTAL
	}
	data = data[:len(data)-2]

	sepIdx := -1
	for i, b := range data {
		if b == consts.TALFieldSeparator {
			sepIdx = i
			break
		}
	}
	header := data
	if sepIdx >= 0 {
		header = data[:sepIdx]
	}

	headerParts := strings.Split(string(header), string(rune(consts.TALOnsetDurationSeparator)))
	if len(headerParts) == 0 {
		return List{}, edferrors.ErrInvalidHeaderTAL
	}

	onset, err := strconv.ParseFloat(headerParts[0], 64)
	if err != nil {
		return List{}, edferrors.ErrInvalidHeaderTAL
	}

	var duration float64
	if len(headerParts) > 1 {
		duration, err = strconv.ParseFloat(headerParts[1], 64)
		if err != nil {
			return List{}, edferrors.ErrInvalidHeaderTAL
		}
	}

	rest := data[len(header)+1:]
	annotations := strings.Split(string(rest), string(rune(consts.TALFieldSeparator)))

	return List{Onset: onset, Duration: duration, Annotations: annotations}, nil
}

// Serialize renders the TAL to its wire-format bytes. An empty list
// (typically a sample slot not used in this record) serializes to nothing.
func (l List) Serialize() string {
	if len(l.Annotations) == 0 {
		return ""
	}

	sign := "+"
	if l.Onset < 0 {
		sign = "-"
	}
	onset := sign + formatFloat(l.Onset)

	var header string
	if l.Duration <= 0 {
		header = onset + string(rune(consts.TALFieldSeparator))
	} else {
		header = onset + string(rune(consts.TALOnsetDurationSeparator)) + formatFloat(l.Duration) + string(rune(consts.TALFieldSeparator))
	}

	annotations := strings.Join(l.Annotations, string(rune(consts.TALFieldSeparator)))

	return header + annotations + string(rune(consts.TALFieldSeparator)) + string(rune(consts.TALTerminator))
}

func formatFloat(f float64) string {
	if f < 0 {
		f = -f
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func isValidString(s string) bool {
	for _, r := range s {
		if r >= 0x00 && r <= 0x1f && r != '\t' && r != '\n' && r != '\r' {
			return false
		}
	}
	return true
}
