package header

import (
	"strings"
	"time"

	"github.com/BitFlaker/edf-go/pkg/consts"
	"github.com/BitFlaker/edf-go/pkg/edferrors"
	"github.com/BitFlaker/edf-go/pkg/field"
)

// RecordingID is the parsed recording identification field. In EDF+, it is
// the literal "Startdate" token followed by four fields (start date, admin
// code, technician, equipment) plus any trailing free-form tokens; in plain
// EDF, the whole field is stored verbatim in AdminCode.
type RecordingID struct {
	StartDate  *time.Time
	AdminCode  *string
	Technician *string
	Equipment  *string
	Additional []*string
}

// DeserializeRecordingID parses the 80-byte recording identification field.
func DeserializeRecordingID(value string, spec Specification) (RecordingID, error) {
	parts := strings.Fields(value)

	if spec == EDFPlus && len(parts) >= 5 && parts[0] == consts.RecordingIDPrefix {
		id := RecordingID{
			AdminCode:  field.DecodeOptional(parts[2]),
			Technician: field.DecodeOptional(parts[3]),
			Equipment:  field.DecodeOptional(parts[4]),
		}

		if dateField := field.DecodeOptional(parts[1]); dateField != nil {
			t, err := time.Parse(patientDateLayout, strings.ToUpper(*dateField))
			if err != nil {
				return RecordingID{}, edferrors.ErrInvalidRecordingIDDate
			}
			id.StartDate = &t
		}

		for _, p := range parts[5:] {
			id.Additional = append(id.Additional, field.DecodeOptional(p))
		}
		return id, nil
	}

	if spec == EDF {
		id := RecordingID{}
		if value != "" {
			id.AdminCode = &value
		}
		return id, nil
	}

	return RecordingID{}, edferrors.ErrInvalidRecordingIDSegmentCount
}

// Serialize renders the recording identification field for the given
// specification.
func (r RecordingID) Serialize(spec Specification) (string, error) {
	var value string
	switch spec {
	case EDF:
		if r.AdminCode != nil {
			value = *r.AdminCode
		}
	case EDFPlus:
		var dateStr *string
		if r.StartDate != nil {
			s := strings.ToUpper(r.StartDate.Format(patientDateLayout))
			dateStr = &s
		}
		startDate := field.EncodeOptional(dateStr)
		adminCode := field.EncodeOptional(r.AdminCode)
		technician := field.EncodeOptional(r.Technician)
		equipment := field.EncodeOptional(r.Equipment)

		additional := make([]string, len(r.Additional))
		for i, a := range r.Additional {
			additional[i] = field.EncodeOptional(a)
		}
		additionalStr := strings.Join(additional, " ")
		if additionalStr != "" {
			additionalStr = " " + additionalStr
		}

		value = consts.RecordingIDPrefix + " " + startDate + " " + adminCode + " " + technician + " " + equipment + additionalStr
	}

	if len(value) > 80 {
		return "", edferrors.ErrRecordingIDTooLong
	}
	if !field.IsPrintableASCII(value) {
		return "", edferrors.ErrInvalidASCII
	}
	return value, nil
}
