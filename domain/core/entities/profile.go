package entities

// Profile is the public identity of a user, read-only from this service.
type Profile struct {
	UserID    string  `json:"user_id"`
	FullName  *string `json:"full_name,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
	Email     string  `json:"email,omitempty"`
}

// DisplayName prefers the full name and falls back to the email.
func (p *Profile) DisplayName() string {
	if p == nil {
		return "Anonymous"
	}
	if p.FullName != nil && *p.FullName != "" {
		return *p.FullName
	}
	if p.Email != "" {
		return p.Email
	}
	return "Anonymous"
}
