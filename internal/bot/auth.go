// internal/bot/auth.go
package bot

import "strings"

// Auth handles user authorization with O(1) lookup
type Auth struct {
	allowedUsers map[string]bool // lowercase usernames
}

// NewAuth creates a new Auth with case-insensitive username matching.
// Usernames are normalized to lowercase. An empty list makes the bot public.
func NewAuth(allowedUsers []string) *Auth {
	allowed := make(map[string]bool)
	for _, u := range allowedUsers {
		u = strings.TrimPrefix(strings.TrimSpace(u), "@")
		if u != "" {
			allowed[strings.ToLower(u)] = true
		}
	}
	return &Auth{allowedUsers: allowed}
}

// Public reports whether every user is allowed
func (a *Auth) Public() bool {
	return len(a.allowedUsers) == 0
}

// IsAuthorized checks if a username is authorized (case-insensitive).
// On a restricted bot an empty username is never authorized.
func (a *Auth) IsAuthorized(username string) bool {
	if a.Public() {
		return true
	}
	if username == "" {
		return false
	}
	return a.allowedUsers[strings.ToLower(username)]
}
