package common

const (
	// AuthorizationHeaderName is the HTTP header carrying the access token.
	AuthorizationHeaderName = "Authorization"

	// BearerPrefix precedes the token inside the Authorization header.
	BearerPrefix = "Bearer "

	// PasswordHashCost is the bcrypt cost factor for stored passwords.
	PasswordHashCost = 10
)
