package counterparty

import "time"

// Profile captures the subset of counterparty data exposed via the public API
// layer. Agreements never embed this struct; they reference it by id only.
type Profile struct {
	ID             string
	LegalName      string
	RegistrationNo string
	Verified       bool
	CreatedAt      time.Time
}
