package user

import (
	"context"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/siriwan88/dress-shop-backend/internal/audit"
)

// TokenTTL is how long an issued bearer token stays valid.
const TokenTTL = 7 * 24 * time.Hour

type Service struct {
	repo   Repository
	secret []byte
	audit  *audit.Recorder
}

func NewService(repo Repository, secret string, recorder *audit.Recorder) *Service {
	return &Service{repo: repo, secret: []byte(secret), audit: recorder}
}

func (s *Service) GetByID(ctx context.Context, id int) (User, error) {
	return s.repo.GetByID(ctx, id)
}

// Register stores a new identity with a bcrypt-hashed password. The role is
// decided by the caller (handler): self-registration is always RoleUser,
// admin role requires an authenticated admin creating the account.
func (s *Service) Register(ctx context.Context, username, email, password, role string) (User, error) {
	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return User{}, ErrEmailExists
	} else if err != ErrNotFound {
		return User{}, err
	}
	if _, err := s.repo.GetByUsername(ctx, username); err == nil {
		return User{}, ErrUsernameExists
	} else if err != ErrNotFound {
		return User{}, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}

	if role != RoleAdmin {
		role = RoleUser
	}
	created, err := s.repo.Create(ctx, User{
		Username: username,
		Email:    email,
		Password: string(hashed),
		Role:     role,
	})
	if err != nil {
		return User{}, err
	}
	s.audit.Record("user_registered", strconv.Itoa(created.ID), "", map[string]any{"role": created.Role})
	return created, nil
}

// Authenticate verifies the email/password pair. Unknown email and wrong
// password are indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, email, password string) (User, error) {
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return User{}, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}

// IssueToken signs a bearer token carrying the identity and role claims.
func (s *Service) IssueToken(u User) (string, error) {
	claims := jwt.MapClaims{
		"user_id": u.ID,
		"role":    u.Role,
		"exp":     time.Now().Add(TokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// VerifyToken parses and validates a signed token, returning its claims.
func (s *Service) VerifyToken(signed string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(signed, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}
