package domain

import "time"

// Principal is the verified caller for the duration of one request.
type Principal struct {
	SubjectID int64
	Role      Role
	TokenID   string
	ExpiresAt time.Time
}
