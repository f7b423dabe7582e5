package entity

// ExternalIdentity is the provider's view of the signed-in account.
type ExternalIdentity struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`
	PhotoURL    string `json:"photo_url,omitempty"`
	Provider    string `json:"provider"`
}

// ProfileDefaults is the document written on first sign-in.
func (i ExternalIdentity) ProfileDefaults() UserProfile {
	return UserProfile{
		UID:      i.UID,
		Name:     i.DisplayName,
		Email:    i.Email,
		Phone:    i.PhoneNumber,
		Image:    i.PhotoURL,
		Messages: Messages{},
	}
}

func (i *ExternalIdentity) Clone() *ExternalIdentity {
	if i == nil {
		return nil
	}
	cp := *i
	return &cp
}
