package users

import "time"

type User struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	FullName   string `json:"fullName"`
	GivenName  string `json:"givenName"`
	FamilyName string `json:"familyName"`
	PictureURL string `json:"pictureUrl"`
	// PreferredVoice is the narration voice used when a generation request
	// does not name one. Empty means the service default.
	PreferredVoice string    `json:"preferredVoice"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}
