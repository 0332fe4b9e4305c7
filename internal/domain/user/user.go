package user

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Zhima-Mochi/storefront/internal/domain/address"
	"github.com/Zhima-Mochi/storefront/internal/domain/errs"
)

var (
	ErrNotFound       = fmt.Errorf("user: not found: %w", errs.ErrNotFound)
	ErrEmailTaken     = fmt.Errorf("user: email already registered: %w", errs.ErrConflict)
	ErrBadCredentials = fmt.Errorf("user: invalid email or password: %w", errs.ErrUnauthorized)
	ErrInactive       = fmt.Errorf("user: account disabled: %w", errs.ErrUnauthorized)
	ErrNotAdmin       = fmt.Errorf("user: admin privileges required: %w", errs.ErrForbidden)
)

const (
	MinPasswordLength = 6
	maxNameLength     = 50
)

var emailPattern = regexp.MustCompile(`^\w+([.-]?\w+)*@\w+([.-]?\w+)*(\.\w{2,3})+$`)

type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Phone        string
	Address      address.Address
	Avatar       string
	IsAdmin      bool
	IsActive     bool
	LastLogin    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func New(id, name, email, passwordHash string, admin bool) (*User, error) {
	now := time.Now().UTC()
	u := &User{
		ID:           id,
		Name:         strings.TrimSpace(name),
		Email:        NormalizeEmail(email),
		PasswordHash: passwordHash,
		IsAdmin:      admin,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}
	return u, nil
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func ValidateEmail(email string) error {
	if email == "" {
		return errs.Validation("email is required")
	}
	if !emailPattern.MatchString(email) {
		return errs.Validation("email is not valid")
	}
	return nil
}

func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return errs.Validationf("password must be at least %d characters", MinPasswordLength)
	}
	return nil
}

func (u *User) Validate() error {
	if u.Name == "" {
		return errs.Validation("name is required")
	}
	if utf8.RuneCountInString(u.Name) > maxNameLength {
		return errs.Validationf("name must be at most %d characters", maxNameLength)
	}
	return ValidateEmail(u.Email)
}

// Profile carries optional profile changes; empty fields are ignored.
type Profile struct {
	Name    string
	Email   string
	Phone   string
	Avatar  string
	Address address.Address
}

func (u *User) ApplyProfile(p Profile) error {
	if n := strings.TrimSpace(p.Name); n != "" {
		u.Name = n
	}
	if p.Email != "" {
		u.Email = NormalizeEmail(p.Email)
	}
	if p.Phone != "" {
		u.Phone = p.Phone
	}
	if p.Avatar != "" {
		u.Avatar = p.Avatar
	}
	u.Address = u.Address.Merge(p.Address)
	if err := u.Validate(); err != nil {
		return err
	}
	u.touch()
	return nil
}

func (u *User) SetPasswordHash(hash string) {
	u.PasswordHash = hash
	u.touch()
}

func (u *User) RecordLogin(at time.Time) {
	t := at.UTC()
	u.LastLogin = &t
	u.touch()
}

func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	cp := *u
	if u.LastLogin != nil {
		t := *u.LastLogin
		cp.LastLogin = &t
	}
	return &cp
}

func (u *User) touch() {
	u.UpdatedAt = time.Now().UTC()
}
