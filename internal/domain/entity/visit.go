package entity

import "time"

// Visit is a booked appointment between a patient and a doctor.
// StartDateTime and EndDateTime are instants expressed in the canonical timezone.
// Visits are never updated once created.
type Visit struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	StartDateTime time.Time `gorm:"type:timestamptz;not null" json:"start_date_time"`
	EndDateTime   time.Time `gorm:"type:timestamptz;not null" json:"end_date_time"`
	PatientID     int64     `gorm:"not null;index" json:"patient_id"`
	DoctorID      int64     `gorm:"not null;index" json:"doctor_id"`

	// Relationships
	Patient Patient `gorm:"foreignKey:PatientID" json:"patient,omitempty"`
	Doctor  Doctor  `gorm:"foreignKey:DoctorID" json:"doctor,omitempty"`
}

func (Visit) TableName() string {
	return "visits"
}

// Interval returns the visit's [start, end) range
func (v *Visit) Interval() Interval {
	return Interval{Start: v.StartDateTime, End: v.EndDateTime}
}
