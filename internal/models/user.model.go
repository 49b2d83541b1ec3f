package models

// User is owned by the auth service; this system only reads it.
type User struct {
	BaseUUIDModel
	Email         string     `gorm:"type:text;uniqueIndex"                 json:"email"`
	DisplayName   string     `gorm:"type:text"                             json:"display_name"`
	PreferredTime TimeOfDay  `gorm:"type:time;not null"                    json:"preferred_time"`
	IsActive      bool       `gorm:"type:bool;default:true;index"          json:"is_active"`
	Interests     []Interest `gorm:"many2many:user_interests"              json:"interests,omitempty"`
}

func (u *User) InterestSlugs() []string {
	slugs := make([]string, 0, len(u.Interests))
	for _, interest := range u.Interests {
		slugs = append(slugs, interest.Slug)
	}
	return slugs
}
