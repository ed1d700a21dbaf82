package model

import (
	"time"
)

// swagger:model User
type User struct {
	BaseModel
	Username    string    `gorm:"size:100;unique;not null" json:"username"`
	FirstName   string    `gorm:"size:100" json:"firstName"`
	LastName    string    `gorm:"size:100" json:"lastName"`
	Email       string    `gorm:"size:100" json:"email"`
	Password    string    `gorm:"size:100" json:"-"`
	IsStaff     bool      `gorm:"default:false" json:"isStaff"`
	IsAnonymous bool      `gorm:"default:false" json:"isAnonymous"`
	LastSeen    time.Time `json:"lastSeen"`
}

func (User) TableName() string {
	return "users"
}

// DisplayName falls back to the username for anonymous observers.
func (u *User) DisplayName() string {
	if u.FirstName == "" && u.LastName == "" {
		return u.Username
	}
	return u.FirstName + " " + u.LastName
}
