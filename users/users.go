package users

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// RoleType is the role the catalog API reports for a user
type RoleType string

const (
	RoleSuperAdmin RoleType = "superadmin" // Full catalog management
	RoleAdmin      RoleType = "admin"      // Treated as super admin by the client
	RoleModerator  RoleType = "moderator"
	RoleUser       RoleType = "user" // Read-only catalog access
)

// User is the profile returned by /auth/login and /auth/me and cached
// alongside the session.
type User struct {
	ID        int      `json:"id"`
	Username  string   `json:"username"`
	Email     string   `json:"email"`
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	Gender    string   `json:"gender,omitempty"`
	Image     string   `json:"image,omitempty"`
	Role      RoleType `json:"role,omitempty"`
}

// IsSuperAdmin reports whether the user may perform destructive catalog
// actions such as deleting products.
func (u *User) IsSuperAdmin() bool {
	if u == nil {
		return false
	}
	return IsSuperAdminRole(u.Role)
}

// IsSuperAdminRole is true for the admin and superadmin roles.
func IsSuperAdminRole(role RoleType) bool {
	switch RoleType(strings.ToLower(string(role))) {
	case RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

func (u *User) FullName() string {
	if u == nil {
		return ""
	}
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
