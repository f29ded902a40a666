package domain

import (
	"fmt"
	"strings"
	"time"
)

// Profile field limits.
const (
	maxMeasurement     = 999.99
	maxInsuranceLen    = 255
	maxMemberNumberLen = 100
)

var bloodTypes = [...]string{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"}

// ParseBloodType normalizes an ABO/Rh blood type such as "ab+". An empty
// string is allowed and means unknown.
func ParseBloodType(s string) (string, error) {
	bt := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
	if bt == "" {
		return "", nil
	}
	for _, known := range bloodTypes {
		if bt == known {
			return bt, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidBloodType, s)
}

// PatientProfile is the medical summary a patient shares with their
// caregivers. Weight is in kilograms and height in centimetres.
type PatientProfile struct {
	PatientID         uint
	BloodType         string
	WeightKg          *float64
	HeightCm          *float64
	Allergies         string
	MedicalConditions string
	Notes             string
	HealthInsurance   string
	MemberNumber      string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// PatientProfileInput is a partial profile update. Nil fields are left as
// they are; a zero weight or height clears the value.
type PatientProfileInput struct {
	BloodType         *string
	WeightKg          *float64
	HeightCm          *float64
	Allergies         *string
	MedicalConditions *string
	Notes             *string
	HealthInsurance   *string
	MemberNumber      *string
}

// Apply validates in and copies its set fields onto p. p is unchanged when
// an error is returned.
func (p *PatientProfile) Apply(in PatientProfileInput) error {
	next := *p

	if in.BloodType != nil {
		bt, err := ParseBloodType(*in.BloodType)
		if err != nil {
			return err
		}
		next.BloodType = bt
	}
	var err error
	if in.WeightKg != nil {
		if next.WeightKg, err = measurement("weight", *in.WeightKg); err != nil {
			return err
		}
	}
	if in.HeightCm != nil {
		if next.HeightCm, err = measurement("height", *in.HeightCm); err != nil {
			return err
		}
	}
	if in.HealthInsurance != nil {
		if len(*in.HealthInsurance) > maxInsuranceLen {
			return NewValidationError("health insurance name is too long")
		}
		next.HealthInsurance = strings.TrimSpace(*in.HealthInsurance)
	}
	if in.MemberNumber != nil {
		if len(*in.MemberNumber) > maxMemberNumberLen {
			return NewValidationError("member number is too long")
		}
		next.MemberNumber = strings.TrimSpace(*in.MemberNumber)
	}
	if in.Allergies != nil {
		next.Allergies = strings.TrimSpace(*in.Allergies)
	}
	if in.MedicalConditions != nil {
		next.MedicalConditions = strings.TrimSpace(*in.MedicalConditions)
	}
	if in.Notes != nil {
		next.Notes = strings.TrimSpace(*in.Notes)
	}

	*p = next
	return nil
}

func measurement(name string, v float64) (*float64, error) {
	if v == 0 {
		return nil, nil
	}
	if v < 0 || v > maxMeasurement {
		return nil, NewValidationError(fmt.Sprintf("%s must be between 0 and %.2f", name, maxMeasurement))
	}
	return &v, nil
}

// AccountInput is a partial update of a user's own account details.
type AccountInput struct {
	FullName *string
	Phone    *string
	Address  *string
}

// maxPhoneLen bounds a user phone number.
const maxPhoneLen = 20

// ApplyAccount validates in and copies its set fields onto u.
func (u *User) ApplyAccount(in AccountInput) error {
	next := *u
	if in.FullName != nil {
		name := strings.TrimSpace(*in.FullName)
		if name == "" {
			return NewValidationError("full name is required")
		}
		next.FullName = name
	}
	if in.Phone != nil {
		phone := strings.TrimSpace(*in.Phone)
		if len(phone) > maxPhoneLen {
			return NewValidationError("phone must be at most 20 characters")
		}
		next.Phone = phone
	}
	if in.Address != nil {
		next.Address = strings.TrimSpace(*in.Address)
	}
	*u = next
	return nil
}
