package entity

// Patient represents a person that can be booked into visits
type Patient struct {
	ID        int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	FirstName string `gorm:"type:varchar(100);not null" json:"first_name"`
	LastName  string `gorm:"type:varchar(100);not null" json:"last_name"`

	// Relationships
	Visits []Visit `gorm:"foreignKey:PatientID" json:"visits,omitempty"`
}

func (Patient) TableName() string {
	return "patients"
}

// FullName returns "first last", the string name searches match against
func (p *Patient) FullName() string {
	return p.FirstName + " " + p.LastName
}
