package models

import (
	"github.com/google/uuid"
)

// User is the authenticated caller identity carried in the access token.
// Accounts themselves live in the identity service, not here.
type User struct {
	ID    uuid.UUID
	Email string
	Staff bool
}
