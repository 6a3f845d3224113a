// Package models contains data structures for the application's domain models.
package models

import (
	"strings"
	"time"
)

// User is the account principal. Authentication and account management
// live outside the blogging core; posts, comments and follows only reference it.
type User struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Username   string    `gorm:"size:150;uniqueIndex;not null" json:"username"`
	Email      string    `gorm:"size:254" json:"email"`
	Password   string    `gorm:"not null" json:"-"`
	FirstName  string    `gorm:"size:150" json:"first_name"`
	LastName   string    `gorm:"size:150" json:"last_name"`
	DateJoined time.Time `gorm:"autoCreateTime" json:"date_joined"`
}

// TableName specifies the table name for GORM
func (User) TableName() string {
	return "users"
}

// FullName returns "First Last", falling back to the username.
func (u User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}
