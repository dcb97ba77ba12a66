package profile

import (
	"errors"
	"strings"
)

// Profile is the operator's display identity.
type Profile struct {
	Name   string  `json:"name"`
	Role   string  `json:"role"`
	Avatar *string `json:"avatar"`
}

// ErrInvalidProfile is returned when a profile has no name.
var ErrInvalidProfile = errors.New("profile name is required")

// Default is used when nothing is stored yet.
func Default() Profile {
	return Profile{Name: "Cyber Hacker Ahmed Raj", Role: "Elite Security Expert"}
}

func (p Profile) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrInvalidProfile
	}
	return nil
}
