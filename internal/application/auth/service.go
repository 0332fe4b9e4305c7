package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Zhima-Mochi/storefront/internal/application"
	"github.com/Zhima-Mochi/storefront/internal/domain/errs"
	domain "github.com/Zhima-Mochi/storefront/internal/domain/user"
	"github.com/Zhima-Mochi/storefront/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const (
	authService = "auth-service"

	useCaseRegister       = "auth.register"
	useCaseLogin          = "auth.login"
	useCaseProfile        = "auth.profile"
	useCaseUpdateProfile  = "auth.update_profile"
	useCaseChangePassword = "auth.change_password"
)

var (
	ErrMissingToken  = fmt.Errorf("auth: token not provided: %w", errs.ErrUnauthorized)
	ErrInvalidToken  = fmt.Errorf("auth: invalid token: %w", errs.ErrUnauthorized)
	ErrWrongPassword = fmt.Errorf("auth: current password is incorrect: %w", errs.ErrUnauthorized)
)

type Service struct {
	users    domain.Repository
	hasher   PasswordHasher
	issuer   TokenIssuer
	verifier TokenVerifier
	ids      application.IDGenerator
	admins   map[string]struct{}
	now      func() time.Time

	inst *application.Instrument
}

type Option func(*Service)

// WithAdminEmails makes accounts registered with these emails admins.
func WithAdminEmails(emails ...string) Option {
	return func(s *Service) {
		for _, e := range emails {
			if e = domain.NormalizeEmail(e); e != "" {
				s.admins[e] = struct{}{}
			}
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(
	users domain.Repository,
	hasher PasswordHasher,
	issuer TokenIssuer,
	verifier TokenVerifier,
	ids application.IDGenerator,
	tel observability.Observability,
	opts ...Option,
) *Service {
	s := &Service{
		users:    users,
		hasher:   hasher,
		issuer:   issuer,
		verifier: verifier,
		ids:      ids,
		admins:   make(map[string]struct{}),
		now:      time.Now,
		inst:     application.NewInstrument(tel, authService),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// Session is what a successful register or login hands back.
type Session struct {
	Token Token
	User  *domain.User
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (_ *Session, err error) {
	run := s.inst.Begin(ctx, useCaseRegister, "Register")
	ctx = run.Context()
	defer func() { run.End(err) }()

	email := domain.NormalizeEmail(in.Email)
	if strings.TrimSpace(in.Name) == "" {
		return nil, run.Fail("VALIDATION_FAILED", errs.Validation("name is required"))
	}
	if verr := domain.ValidateEmail(email); verr != nil {
		return nil, run.Fail("VALIDATION_FAILED", verr)
	}
	if verr := domain.ValidatePassword(in.Password); verr != nil {
		return nil, run.Fail("VALIDATION_FAILED", verr)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, run.Fail("HASH_FAILED", fmt.Errorf("auth: hash password: %w", err))
	}
	_, admin := s.admins[email]
	u, err := domain.New(s.ids.NewID(), in.Name, email, hash, admin)
	if err != nil {
		return nil, run.Fail("VALIDATION_FAILED", err)
	}
	if err := s.users.Insert(ctx, u); err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			return nil, run.Fail("EMAIL_TAKEN", err)
		}
		return nil, run.Fail("REPO_INSERT_FAILED", fmt.Errorf("auth: insert user: %w", err))
	}

	tok, err := s.issuer.Issue(u.ID)
	if err != nil {
		return nil, run.Fail("TOKEN_ISSUE_FAILED", fmt.Errorf("auth: issue token: %w", err))
	}
	run.Field("user_id", u.ID)
	run.Span().SetAttributes(attribute.Bool("user.admin", u.IsAdmin))
	return &Session{Token: tok, User: u}, nil
}

// Login checks credentials and records the login time. Unknown emails and
// wrong passwords fail the same way.
func (s *Service) Login(ctx context.Context, email, password string) (_ *Session, err error) {
	run := s.inst.Begin(ctx, useCaseLogin, "Login")
	ctx = run.Context()
	defer func() { run.End(err) }()

	email = domain.NormalizeEmail(email)
	if verr := domain.ValidateEmail(email); verr != nil {
		return nil, run.Fail("VALIDATION_FAILED", verr)
	}
	if password == "" {
		return nil, run.Fail("VALIDATION_FAILED", errs.Validation("password is required"))
	}

	u, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, run.Fail("BAD_CREDENTIALS", domain.ErrBadCredentials)
	}
	if err != nil {
		return nil, run.Fail("REPO_GET_FAILED", fmt.Errorf("auth: find user: %w", err))
	}
	if cerr := s.hasher.Compare(u.PasswordHash, password); cerr != nil {
		return nil, run.Fail("BAD_CREDENTIALS", domain.ErrBadCredentials)
	}
	if !u.IsActive {
		return nil, run.Fail("INACTIVE", domain.ErrInactive)
	}

	u.RecordLogin(s.now())
	if err := s.users.Update(ctx, u); err != nil {
		return nil, run.Fail("REPO_UPDATE_FAILED", fmt.Errorf("auth: record login: %w", err))
	}
	tok, err := s.issuer.Issue(u.ID)
	if err != nil {
		return nil, run.Fail("TOKEN_ISSUE_FAILED", fmt.Errorf("auth: issue token: %w", err))
	}
	run.Field("user_id", u.ID)
	return &Session{Token: tok, User: u}, nil
}

func (s *Service) Profile(ctx context.Context, userID string) (_ *domain.User, err error) {
	run := s.inst.Begin(ctx, useCaseProfile, "Profile", attribute.String("user.id", userID))
	ctx = run.Context()
	defer func() { run.End(err) }()

	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, run.Fail(lookupStatus(err), err)
	}
	return u, nil
}

func (s *Service) UpdateProfile(ctx context.Context, userID string, p domain.Profile) (_ *domain.User, err error) {
	run := s.inst.Begin(ctx, useCaseUpdateProfile, "UpdateProfile", attribute.String("user.id", userID))
	ctx = run.Context()
	defer func() { run.End(err) }()

	if p.Email != "" {
		if verr := domain.ValidateEmail(domain.NormalizeEmail(p.Email)); verr != nil {
			return nil, run.Fail("VALIDATION_FAILED", verr)
		}
	}
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, run.Fail(lookupStatus(err), err)
	}
	if err := u.ApplyProfile(p); err != nil {
		return nil, run.Fail("VALIDATION_FAILED", err)
	}
	if err := s.users.Update(ctx, u); err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			return nil, run.Fail("EMAIL_TAKEN", err)
		}
		return nil, run.Fail(lookupStatus(err), fmt.Errorf("auth: update user: %w", err))
	}
	return u, nil
}

func (s *Service) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) (err error) {
	run := s.inst.Begin(ctx, useCaseChangePassword, "ChangePassword", attribute.String("user.id", userID))
	ctx = run.Context()
	defer func() { run.End(err) }()

	if oldPassword == "" {
		return run.Fail("VALIDATION_FAILED", errs.Validation("current password is required"))
	}
	if verr := domain.ValidatePassword(newPassword); verr != nil {
		return run.Fail("VALIDATION_FAILED", verr)
	}
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return run.Fail(lookupStatus(err), err)
	}
	if cerr := s.hasher.Compare(u.PasswordHash, oldPassword); cerr != nil {
		return run.Fail("WRONG_PASSWORD", ErrWrongPassword)
	}
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return run.Fail("HASH_FAILED", fmt.Errorf("auth: hash password: %w", err))
	}
	u.SetPasswordHash(hash)
	if err := s.users.Update(ctx, u); err != nil {
		return run.Fail(lookupStatus(err), fmt.Errorf("auth: update user: %w", err))
	}
	return nil
}

// Authenticate resolves a bearer token to a user id.
func (s *Service) Authenticate(token string) (string, error) {
	if token == "" {
		return "", ErrMissingToken
	}
	userID, err := s.verifier.Verify(token)
	if err != nil || userID == "" {
		return "", ErrInvalidToken
	}
	return userID, nil
}

// RequireAdmin loads the user and fails with domain.ErrNotAdmin unless they are an active admin.
func (s *Service) RequireAdmin(ctx context.Context, userID string) (*domain.User, error) {
	u, err := s.users.Get(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrNotAdmin
	}
	if err != nil {
		return nil, fmt.Errorf("auth: load user: %w", err)
	}
	if !u.IsAdmin || !u.IsActive {
		return nil, domain.ErrNotAdmin
	}
	return u, nil
}

func lookupStatus(err error) string {
	if errors.Is(err, domain.ErrNotFound) {
		return "NOT_FOUND"
	}
	return "REPO_FAILED"
}
