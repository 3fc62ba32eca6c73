package models

import "time"

// TokenRecord holds an athlete's OAuth credentials for the activity
// provider. Tokens are refreshed out of band; ExpiresAt is the access
// token's expiry.
type TokenRecord struct {
	AthleteID    int64     `json:"athlete_id"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Expired reports whether the access token needs refreshing, with a small
// margin so a token never expires mid-request.
func (t *TokenRecord) Expired(now time.Time) bool {
	return !now.Add(time.Minute).Before(t.ExpiresAt)
}
