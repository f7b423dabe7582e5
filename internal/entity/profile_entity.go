package entity

import (
	"bytes"
	"encoding/json"
	"time"
)

// Prompt is an opaque, caller-supplied interaction record.
type Prompt map[string]interface{}

// Messages is the ordered, append-only prompt history of a profile.
type Messages []Prompt

type UserProfile struct {
	UID       string    `json:"uid" validate:"required,max=128"`
	Name      string    `json:"name"`
	Email     string    `json:"email" validate:"omitempty,max=320"`
	Phone     string    `json:"phone"`
	Image     string    `json:"image" validate:"omitempty,url"`
	Messages  Messages  `json:"messages"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// ProfileFields is a partial profile update. Nil fields are left untouched.
type ProfileFields struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty" validate:"omitempty,max=320"`
	Phone *string `json:"phone,omitempty"`
	Image *string `json:"image,omitempty" validate:"omitempty,url"`
}

func (f ProfileFields) IsEmpty() bool {
	return f.Name == nil && f.Email == nil && f.Phone == nil && f.Image == nil
}

// Apply merges the mentioned fields into p.
func (f ProfileFields) Apply(p *UserProfile) {
	if f.Name != nil {
		p.Name = *f.Name
	}
	if f.Email != nil {
		p.Email = *f.Email
	}
	if f.Phone != nil {
		p.Phone = *f.Phone
	}
	if f.Image != nil {
		p.Image = *f.Image
	}
}

// Clone returns a deep copy; prompts are copied through their JSON form.
func (p *UserProfile) Clone() *UserProfile {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Messages = p.Messages.Clone()
	return &cp
}

func (m Messages) Clone() Messages {
	out := make(Messages, 0, len(m))
	for _, prompt := range m {
		out = append(out, prompt.Clone())
	}
	return out
}

// Contains reports whether an equal prompt is already present.
func (m Messages) Contains(prompt Prompt) bool {
	for _, existing := range m {
		if existing.Equal(prompt) {
			return true
		}
	}
	return false
}

// AppendUnique appends prompt unless an equal prompt exists. The second
// return value is false for the no-op case.
func (m Messages) AppendUnique(prompt Prompt) (Messages, bool) {
	if m.Contains(prompt) {
		return m, false
	}
	return append(m, prompt.Clone()), true
}

// Canonical returns the JSON encoding with object keys sorted, which is
// what prompt equality is defined on.
func (p Prompt) Canonical() ([]byte, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	var generic interface{}
	if err := decodeNumbers(raw, &generic); err != nil {
		return nil, err
	}
	return json.Marshal(generic)
}

// decodeNumbers keeps numbers as json.Number so integers past 2^53 stay
// distinct.
func decodeNumbers(raw []byte, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	return dec.Decode(v)
}

func (p Prompt) Equal(other Prompt) bool {
	a, err := p.Canonical()
	if err != nil {
		return false
	}
	b, err := other.Canonical()
	if err != nil {
		return false
	}
	return bytes.Equal(a, b)
}

func (p Prompt) Clone() Prompt {
	if p == nil {
		return nil
	}
	raw, err := json.Marshal(p)
	if err != nil {
		out := make(Prompt, len(p))
		for k, v := range p {
			out[k] = v
		}
		return out
	}
	var out Prompt
	_ = decodeNumbers(raw, &out)
	return out
}
