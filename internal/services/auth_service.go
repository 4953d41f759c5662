package services

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"tradeup/internal/apperr"
	"tradeup/internal/domain"
	"tradeup/internal/repos"
)

var ErrBadCreds = errors.New("invalid email or password")

// initialBalance is granted at registration (demo economy; real
// payment integration is out of scope).
var initialBalance = decimal.NewFromInt(10000)

type AuthService struct {
	Users *repos.UserRepo
}

func (s *AuthService) Register(email, name, password string) (*domain.User, error) {
	email = strings.TrimSpace(email)
	h, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return nil, err
	}
	u := &domain.User{
		ID:          uuid.NewString(),
		Email:       email,
		Name:        strings.TrimSpace(name),
		Hash:        string(h),
		Role:        "USER",
		CreditScore: domain.InitialCreditScore,
		Balance:     initialBalance,
	}
	if err := s.Users.Create(u); err != nil {
		if errors.Is(err, repos.ErrEmailTaken) {
			return nil, apperr.InvalidArgumentf("email already registered")
		}
		return nil, err
	}
	return u, nil
}

func (s *AuthService) Login(sid, email, password string) (*domain.User, error) {
	u, err := s.Users.ByEmail(email)
	if err != nil {
		return nil, ErrBadCreds
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		return nil, ErrBadCreds
	}
	if err := s.Users.BindSession(sid, u.ID); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *AuthService) Logout(sid string) error {
	return s.Users.UnbindSession(sid)
}

func (s *AuthService) CurrentUser(sid string) (*domain.User, error) {
	return s.Users.SessionUser(sid)
}
