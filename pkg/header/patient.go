package header

import (
	"strings"
	"time"

	"github.com/BitFlaker/edf-go/pkg/edferrors"
	"github.com/BitFlaker/edf-go/pkg/field"
)

// Sex is the patient sex token used in an EDF+ patient identification
// field.
type Sex string

const (
	SexFemale Sex = "F"
	SexMale   Sex = "M"
)

func sexFromString(s string) (Sex, error) {
	switch s {
	case string(SexFemale):
		return SexFemale, nil
	case string(SexMale):
		return SexMale, nil
	default:
		return "", edferrors.ErrInvalidUType
	}
}

const patientDateLayout = "02-Jan-2006"

// PatientID is the parsed patient identification field. In EDF+, it is the
// four leading fields (code, sex, birthdate, name) plus any trailing
// free-form tokens; in plain EDF, the whole field is stored verbatim in
// Name.
type PatientID struct {
	Code       *string
	Sex        *Sex
	Date       *time.Time
	Name       *string
	Additional []*string
}

// DeserializePatientID parses the 80-byte patient identification field.
func DeserializePatientID(value string, spec Specification) (PatientID, error) {
	parts := strings.Fields(value)

	if spec == EDFPlus && len(parts) >= 4 {
		id := PatientID{
			Code: field.DecodeOptional(parts[0]),
			Name: field.DecodeOptional(parts[3]),
		}

		if sexField := field.DecodeOptional(parts[1]); sexField != nil {
			sx, err := sexFromString(*sexField)
			if err != nil {
				return PatientID{}, err
			}
			id.Sex = &sx
		}

		if dateField := field.DecodeOptional(parts[2]); dateField != nil {
			t, err := time.Parse(patientDateLayout, strings.ToUpper(*dateField))
			if err != nil {
				return PatientID{}, edferrors.ErrInvalidUserIDDate
			}
			id.Date = &t
		}

		for _, p := range parts[4:] {
			id.Additional = append(id.Additional, field.DecodeOptional(p))
		}
		return id, nil
	}

	if spec == EDF {
		id := PatientID{}
		if value != "" {
			id.Name = &value
		}
		return id, nil
	}

	return PatientID{}, edferrors.ErrInvalidUserIDSegmentCount
}

// Serialize renders the patient identification field for the given
// specification.
func (p PatientID) Serialize(spec Specification) (string, error) {
	var value string
	switch spec {
	case EDF:
		if p.Name != nil {
			value = *p.Name
		}
	case EDFPlus:
		code := field.EncodeOptional(p.Code)
		var sexPtr *string
		if p.Sex != nil {
			s := string(*p.Sex)
			sexPtr = &s
		}
		uType := field.EncodeOptional(sexPtr)

		var dateStr *string
		if p.Date != nil {
			s := strings.ToUpper(p.Date.Format(patientDateLayout))
			dateStr = &s
		}
		date := field.EncodeOptional(dateStr)
		name := field.EncodeOptional(p.Name)

		additional := make([]string, len(p.Additional))
		for i, a := range p.Additional {
			additional[i] = field.EncodeOptional(a)
		}
		additionalStr := strings.Join(additional, " ")
		if additionalStr != "" {
			additionalStr = " " + additionalStr
		}

		value = code + " " + uType + " " + date + " " + name + additionalStr
	}

	if len(value) > 80 {
		return "", edferrors.ErrUserIDTooLong
	}
	if !field.IsPrintableASCII(value) {
		return "", edferrors.ErrInvalidASCII
	}
	return value, nil
}
