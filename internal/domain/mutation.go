package domain

import "time"

// CapsuleCreationData is the pre-validated input to create. The caller
// becomes the first sender; Collaborators are appended after it.
type CapsuleCreationData struct {
	Title         string
	Content       string
	Visibility    Visibility
	ShowCountdown bool
	OpenDate      *time.Time
	Collaborators []UserId
	Receivers     []UserId
	Images        []Image
}

// CapsulePatch is a partial update: nil fields are left untouched.
// Supplying Collaborators rewrites senders to caller + collaborators;
// the caller is always kept, so senders can never end up empty.
type CapsulePatch struct {
	Title         *string
	Content       *string
	Visibility    *Visibility
	ShowCountdown *bool
	OpenDate      *time.Time
	Collaborators *[]UserId
	Receivers     *[]UserId
	Images        *[]Image
}
