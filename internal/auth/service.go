package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/quizboard/quizboard/internal/session"
)

// ErrInvalidCredentials is returned when an email/password pair does not
// match. Unknown emails and wrong passwords are indistinguishable.
var ErrInvalidCredentials = errors.New("invalid email or password")

// ErrInvalidRole is returned when a role outside RolePlayer/RoleAdmin is requested.
var ErrInvalidRole = errors.New("invalid role")

// Service provides registration, login and session resolution.
type Service struct {
	userRepo   UserRepository
	denylist   session.Denylist
	secret     []byte
	ttl        time.Duration
	bcryptCost int
	now        func() time.Time
}

// NewService creates a new auth Service.
func NewService(userRepo UserRepository, denylist session.Denylist, secret string, ttl time.Duration, bcryptCost int) *Service {
	return &Service{
		userRepo:   userRepo,
		denylist:   denylist,
		secret:     []byte(secret),
		ttl:        ttl,
		bcryptCost: bcryptCost,
		now:        time.Now,
	}
}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a player account and signs it in. The very first account
// on an empty installation is made an admin.
func (s *Service) Register(ctx context.Context, email, username, password string) (*Session, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	u := &User{
		Email:        NormalizeEmail(email),
		Username:     strings.TrimSpace(username),
		PasswordHash: string(hash),
	}
	if err := s.userRepo.CreateBootstrapping(ctx, u); err != nil {
		return nil, err
	}

	if u.Role == RoleAdmin {
		slog.Info("first user registered as admin", "userId", u.ID, "email", u.Email)
	}

	return s.newSession(u)
}

// Login verifies credentials and issues a session token.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	u, err := s.userRepo.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	return s.newSession(u)
}

// Authenticate resolves a session token to an Identity. The user row is
// re-read on every call so that role changes apply to live sessions.
func (s *Service) Authenticate(ctx context.Context, token string) (*Identity, error) {
	claims, err := s.parseToken(token)
	if err != nil {
		return nil, err
	}

	revoked, err := s.denylist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("checking revocation: %w", err)
	}
	if revoked {
		return nil, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrInvalidToken
	}

	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("fetching user for identity: %w", err)
	}

	identity := &Identity{
		UserID:   u.ID,
		Email:    u.Email,
		Username: u.Username,
		Role:     u.Role,
		TokenID:  claims.ID,
	}
	if claims.ExpiresAt != nil {
		identity.ExpiresAt = claims.ExpiresAt.Time
	}

	return identity, nil
}

// Logout revokes the token behind identity until it would have expired.
func (s *Service) Logout(ctx context.Context, identity *Identity) error {
	if err := s.denylist.Revoke(ctx, identity.TokenID, identity.ExpiresAt); err != nil {
		return fmt.Errorf("revoking session: %w", err)
	}
	return nil
}

// SetRole changes the role of a single user.
func (s *Service) SetRole(ctx context.Context, userID uuid.UUID, role string) (*User, error) {
	if !ValidRole(role) {
		return nil, ErrInvalidRole
	}
	return s.userRepo.UpdateRole(ctx, userID, role)
}

// Promote grants the admin role to the account registered under email.
func (s *Service) Promote(ctx context.Context, email string) (*User, error) {
	u, err := s.userRepo.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if u.IsAdmin() {
		return u, nil
	}
	return s.userRepo.UpdateRole(ctx, u.ID, RoleAdmin)
}

func (s *Service) newSession(u *User) (*Session, error) {
	token, expiresAt, err := s.signToken(u)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, ExpiresAt: expiresAt, User: u}, nil
}
