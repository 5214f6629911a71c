// Package domain contains entities without logic, just meta-data.
package domain

import "errors"

const MaxDisplayNameLen = 64

var (
	ErrDisplayNameTooLong = errors.New("display name too long")
	ErrDisplayNameEmpty   = errors.New("display name empty")
	ErrUnknownRole        = errors.New("unknown role")
)

type UserID string

// Role mirrors the account types of the consultation platform.
type Role string

const (
	RolePatient Role = "Patient"
	RoleMedecin Role = "Medecin"
)

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RolePatient, RoleMedecin:
		return Role(s), nil
	}
	return "", ErrUnknownRole
}

// User is the verified identity tuple supplied by the auth collaborator.
// The signaling core trusts it and never re-verifies.
type User struct {
	ID          UserID `json:"id"`
	Role        Role   `json:"role"`
	DisplayName string `json:"displayName"`
}

func NewUser(id UserID, role Role, displayName string) (*User, error) {
	if len(displayName) == 0 {
		return nil, ErrDisplayNameEmpty
	}
	if len(displayName) > MaxDisplayNameLen {
		return nil, ErrDisplayNameTooLong
	}
	if _, err := ParseRole(string(role)); err != nil {
		return nil, err
	}
	return &User{ID: id, Role: role, DisplayName: displayName}, nil
}
