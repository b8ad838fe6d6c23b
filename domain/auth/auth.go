// Package auth provides account value types, the session sum type and pure
// validation functions. This package has NO dependencies on I/O.
package auth

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// Field length limits shared by the signup form and the backend.
const (
	MinNameLength     = 2
	MaxNameLength     = 100
	MinPasswordLength = 8
)

// User is the public view of an account. Email is the identity.
type User struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Session is the client-side authentication state derived from GET /auth/me.
// It is exactly one of Authenticated or Anonymous.
type Session interface {
	isSession()
}

// Authenticated is a session that resolved to a user.
type Authenticated struct {
	User User
}

// Anonymous is a session with no current user.
type Anonymous struct{}

func (Authenticated) isSession() {}
func (Anonymous) isSession()     {}

// SessionOf maps a nullable user to the session sum type.
func SessionOf(u *User) Session {
	if u == nil {
		return Anonymous{}
	}
	return Authenticated{User: *u}
}

// CurrentUser returns the user of an authenticated session.
func CurrentUser(s Session) (User, bool) {
	if a, ok := s.(Authenticated); ok {
		return a.User, true
	}
	return User{}, false
}

// IsAuthenticated reports whether the session carries a user.
func IsAuthenticated(s Session) bool {
	_, ok := CurrentUser(s)
	return ok
}

// SignupRequest represents a user signup request (value type).
type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// LoginRequest represents a login request (value type).
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Result is the outcome of request validation. Errors holds at most one
// message per field.
type Result struct {
	Valid  bool
	Errors map[string]string
}

// fieldErrors keeps the first failed check of each field.
type fieldErrors map[string]string

func (e fieldErrors) check(field string, failed bool, msg string) {
	if _, done := e[field]; !done && failed {
		e[field] = msg
	}
}

func (e fieldErrors) result() Result {
	return Result{Valid: len(e) == 0, Errors: e}
}

// ValidateSignup checks email format, password length and the trimmed name length.
func ValidateSignup(req SignupRequest) Result {
	errs := fieldErrors{}

	errs.check("email", req.Email == "", "Email is required")
	errs.check("email", !isValidEmail(req.Email), "Invalid email format")

	errs.check("password", req.Password == "", "Password is required")
	errs.check("password", utf8.RuneCountInString(req.Password) < MinPasswordLength, "Password must be at least 8 characters")

	name := utf8.RuneCountInString(strings.TrimSpace(req.Name))
	errs.check("name", name == 0, "Name is required")
	errs.check("name", name < MinNameLength, "Name must be at least 2 characters")
	errs.check("name", name > MaxNameLength, "Name must be less than 100 characters")

	return errs.result()
}

// ValidateLogin only checks presence; the server checks the credentials.
func ValidateLogin(req LoginRequest) Result {
	errs := fieldErrors{}
	errs.check("email", req.Email == "", "Email is required")
	errs.check("password", req.Password == "", "Password is required")
	return errs.result()
}

// Record is a server-side login session (immutable value type).
type Record struct {
	ID        string
	UserID    string
	Email     string
	IPAddress string
	UserAgent string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// NewRecord creates a session record that expires after expiresIn. The
// caller supplies an unguessable id.
func NewRecord(id, userID, email, ipAddress, userAgent string, expiresIn time.Duration) Record {
	now := time.Now().UTC()
	return Record{
		ID:        id,
		UserID:    userID,
		Email:     email,
		IPAddress: ipAddress,
		UserAgent: userAgent,
		ExpiresAt: now.Add(expiresIn),
		CreatedAt: now,
	}
}

// IsExpired reports whether ExpiresAt has passed.
func (r Record) IsExpired() bool {
	return time.Now().UTC().After(r.ExpiresAt)
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func isValidEmail(email string) bool {
	return emailRegex.MatchString(strings.TrimSpace(email))
}
