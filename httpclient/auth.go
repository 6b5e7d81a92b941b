package httpclient

import "net/http"

// AuthConfig authenticates outgoing requests with a token. With an empty
// Header the token is sent as "Authorization: Bearer <token>"; otherwise it
// is sent verbatim in Header.
type AuthConfig struct {
	Token  string
	Header string
}

// BearerAuth returns bearer token authentication, as used by OpenAI
// compatible chat and transcription endpoints.
func BearerAuth(token string) *AuthConfig {
	return &AuthConfig{Token: token}
}

// HeaderAuth sends token in the named header, e.g. "x-api-key".
func HeaderAuth(header, token string) *AuthConfig {
	return &AuthConfig{Token: token, Header: header}
}

func (a *AuthConfig) apply(h http.Header) {
	if a == nil || a.Token == "" {
		return
	}
	if a.Header == "" {
		h.Set("Authorization", "Bearer "+a.Token)
		return
	}
	h.Set(a.Header, a.Token)
}
