package entity

// Doctor is a provider pinned to a single IANA timezone.
// All civil times entered for or shown to a doctor are interpreted in Timezone.
type Doctor struct {
	ID        int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	FirstName string `gorm:"type:varchar(100);not null" json:"first_name"`
	LastName  string `gorm:"type:varchar(100);not null" json:"last_name"`
	Timezone  string `gorm:"type:varchar(64);not null" json:"timezone"`

	// Relationships
	Visits []Visit `gorm:"foreignKey:DoctorID" json:"visits,omitempty"`
}

func (Doctor) TableName() string {
	return "doctors"
}
