package models

import "github.com/golang-jwt/jwt/v5"

// UserRole enumerates the roles recognised by the attendance API.
type UserRole string

const (
	RoleAdmin   UserRole = "ADMIN"
	RoleTeacher UserRole = "TEACHER"
	RoleStudent UserRole = "STUDENT"
	RoleParent  UserRole = "PARENT"
)

// JWTClaims represents the JWT payload for access tokens.
// EnrollmentIDs lists the enrollments a student or parent may read.
type JWTClaims struct {
	UserID        string   `json:"user_id"`
	Role          UserRole `json:"role"`
	FullName      string   `json:"full_name"`
	EnrollmentIDs []string `json:"enrollment_ids,omitempty"`
	jwt.RegisteredClaims
}

// CanReadEnrollment reports whether the claims grant access to an enrollment's records.
func (c *JWTClaims) CanReadEnrollment(enrollmentID string) bool {
	if c == nil {
		return false
	}
	switch c.Role {
	case RoleAdmin, RoleTeacher:
		return true
	}
	for _, id := range c.EnrollmentIDs {
		if id == enrollmentID {
			return true
		}
	}
	return false
}
