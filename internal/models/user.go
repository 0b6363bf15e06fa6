package models

import "time"

// CustomAvatar records an uploaded avatar blob.
type CustomAvatar struct {
	Blob        string    `bson:"blob" json:"blob"`
	ContentType string    `bson:"contentType" json:"contentType"`
	UpdatedAt   time.Time `bson:"updatedAt" json:"updatedAt"`
}

// User represents the application user account. The username is the
// document id so lookups are point reads.
type User struct {
	ID              string        `bson:"_id" json:"id"`
	Username        string        `bson:"username" json:"username"`
	Email           string        `bson:"email" json:"email"`
	PasswordHash    string        `bson:"passwordHash" json:"-"`
	Gender          string        `bson:"gender,omitempty" json:"gender,omitempty"`
	DOB             string        `bson:"dob,omitempty" json:"dob,omitempty"`
	Country         string        `bson:"country,omitempty" json:"country,omitempty"`
	ProfilePicID    int           `bson:"profilePicId" json:"profilePicId"`
	ProfilePicType  string        `bson:"profilePicType" json:"profilePicType"`
	CustomAvatar    *CustomAvatar `bson:"customAvatar,omitempty" json:"-"`
	IsAdmin         bool          `bson:"isAdmin" json:"isAdmin"`
	IsPremiumMember bool          `bson:"isPremiumMember" json:"isPremiumMember"`
	CreatedAt       time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time     `bson:"updatedAt" json:"updatedAt"`
}
