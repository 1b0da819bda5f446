package person

import (
	"time"

	"github.com/google/uuid"
)

// Person is the demographic shape shared by members and preregistrations.
// Both entities embed it; it carries no identity of its own and is never
// persisted on its own.
type Person struct {
	Name                    string     `db:"name" json:"name"`
	CURP                    string     `db:"curp" json:"curp"`
	BirthDate               time.Time  `db:"birth_date" json:"birth_date"`
	Gender                  string     `db:"gender" json:"gender"`
	PhoneNumber             string     `db:"phone_number" json:"phone_number"`
	Email                   string     `db:"email" json:"email"`
	PhotoPath               *string    `db:"photo_path" json:"photo_path,omitempty"`
	DiscoverySourceID       *uuid.UUID `db:"discovery_source_id" json:"discovery_source_id,omitempty"`
	DiscoveryDetails        *string    `db:"discovery_details" json:"discovery_details,omitempty"`
	HasIllness              bool       `db:"has_illness" json:"has_illness"`
	HasAllergy              bool       `db:"has_allergy" json:"has_allergy"`
	HasFlatFeet             bool       `db:"has_flat_feet" json:"has_flat_feet"`
	HasHeartConditions      bool       `db:"has_heart_conditions" json:"has_heart_conditions"`
	MedicalConditionDetails *string    `db:"medical_condition_details" json:"medical_condition_details,omitempty"`
}

// AgeOn returns the age in whole years on the given date, accounting for
// whether the birthday has passed that year.
func (p Person) AgeOn(today time.Time) int {
	age := today.Year() - p.BirthDate.Year()
	if today.Month() < p.BirthDate.Month() ||
		(today.Month() == p.BirthDate.Month() && today.Day() < p.BirthDate.Day()) {
		age--
	}
	return age
}

// Age returns the current age in whole years.
func (p Person) Age() int {
	return p.AgeOn(time.Now())
}
