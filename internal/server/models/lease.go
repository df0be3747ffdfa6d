package models

import "time"

// Lease is a short-lived RSA key pair handed to one username from one IP
// before registration.
type Lease struct {
	UserName   string
	PublicKey  string
	PrivateKey string
	IP         string
	ExpiresAt  time.Time
	CreatedAt  time.Time
}

// Expired reports whether the lease is no longer valid at now.
func (l *Lease) Expired(now time.Time) bool {
	return !now.Before(l.ExpiresAt)
}
