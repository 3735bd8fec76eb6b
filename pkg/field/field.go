// Package field implements the fixed-width ASCII field codecs shared by the
// EDF/EDF+ global header, per-signal header, patient and recording
// identification fields.
package field

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/BitFlaker/edf-go/pkg/consts"
	"github.com/BitFlaker/edf-go/pkg/edferrors"
)

// PadRight right-pads value with spaces to size bytes. Returns
// edferrors.ErrFieldSizeExceeded if value is already longer than size.
func PadRight(value string, size int) (string, error) {
	if len(value) > size {
		return "", edferrors.ErrFieldSizeExceeded
	}
	return value + strings.Repeat(" ", size-len(value)), nil
}

// IsPrintableASCII reports whether every byte of s is in the printable ASCII
// range 0x20..0x7E.
func IsPrintableASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < consts.PrintableASCIIMin || s[i] > consts.PrintableASCIIMax {
			return false
		}
	}
	return true
}

// EncodeOptional serializes an optional string field: spaces become
// underscores, and an absent value becomes the literal "X" marker.
func EncodeOptional(value *string) string {
	if value == nil {
		return consts.AbsentFieldMarker
	}
	return strings.ReplaceAll(*value, " ", "_")
}

// DecodeOptional parses an optional string field: the literal "X" marker
// decodes to nil, and underscores become spaces.
func DecodeOptional(value string) *string {
	if value == consts.AbsentFieldMarker {
		return nil
	}
	decoded := strings.ReplaceAll(value, "_", " ")
	return &decoded
}

const oldStartDateLayout = "02.01.2006"
const oldStartDateTokenLayout = "02.01."

// ParseOldStartDate parses the legacy dd.mm.yy start-date field. Years are
// clipped to 1985..2084 (two-digit years 85..99 map to 19yy, 00..84 map to
// 20yy); the literal sentinel "yy" decodes to year 2100.
func ParseOldStartDate(date string) (time.Time, error) {
	parts := strings.Split(date, ".")
	if len(parts) != 3 {
		return time.Time{}, edferrors.ErrInvalidStartDate
	}

	var year string
	if parts[2] == consts.OldStyleDateSentinel {
		year = strconv.Itoa(consts.OldStyleDateSentinelYear)
	} else {
		yearNum, err := strconv.Atoi(parts[2])
		if err != nil || len(parts[2]) == 0 {
			return time.Time{}, edferrors.ErrInvalidStartDate
		}
		switch {
		case yearNum < 85:
			year = fmt.Sprintf("20%02d", yearNum)
		case yearNum < 100:
			year = fmt.Sprintf("19%02d", yearNum)
		default:
			return time.Time{}, edferrors.ErrInvalidStartDate
		}
	}

	parsed := fmt.Sprintf("%s.%s.%s", parts[0], parts[1], year)
	t, err := time.Parse(oldStartDateLayout, parsed)
	if err != nil {
		return time.Time{}, edferrors.ErrInvalidStartDate
	}
	return t, nil
}

// SerializeOldStartDate renders date in the legacy dd.mm.yy format. Years
// outside 1985..2084 serialize as the literal sentinel "yy".
func SerializeOldStartDate(date time.Time) string {
	year := "yy"
	if date.Year() >= consts.OldStyleDateMinYear && date.Year() <= consts.OldStyleDateMaxYear {
		year = fmt.Sprintf("%02d", date.Year()%100)
	}
	return fmt.Sprintf("%02d.%02d.%s", date.Day(), int(date.Month()), year)
}
