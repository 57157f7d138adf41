package service

import (
	"context"
	"errors"
	"time"

	"feedra/config"
	"feedra/internal/auth"
	"feedra/internal/domain"
	"feedra/internal/models"
	"feedra/internal/repository"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrEmailExists  = errors.New("email already registered")
	ErrInvalidCreds = errors.New("invalid email or password")
	ErrInvalidRole  = errors.New("role must be donor, ngo or volunteer")
)

type AuthService struct {
	cfg      *config.Config
	userRepo *repository.UserRepository
	mail     *MailService
}

func NewAuthService(cfg *config.Config, userRepo *repository.UserRepository, mail *MailService) *AuthService {
	return &AuthService{cfg: cfg, userRepo: userRepo, mail: mail}
}

func (s *AuthService) Register(email, password, displayName, role string) (*models.User, string, string, error) {
	if !domain.ValidRole(role) {
		return nil, "", "", ErrInvalidRole
	}
	_, err := s.userRepo.GetByEmail(email)
	if err == nil {
		return nil, "", "", ErrEmailExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", "", err
	}
	u := &models.User{
		Email:        email,
		PasswordHash: string(hash),
		DisplayName:  displayName,
		Role:         role,
	}
	if err := s.userRepo.Create(u); err != nil {
		return nil, "", "", err
	}
	s.WelcomeIfNew(u)
	access, err := auth.GenerateAccessToken(&s.cfg.JWT, u.ID, u.Email, u.DisplayName, u.Role)
	if err != nil {
		return u, "", "", err
	}
	refresh, err := auth.GenerateRefreshToken(&s.cfg.JWT, u.ID)
	if err != nil {
		return u, access, "", err
	}
	return u, access, refresh, nil
}

func (s *AuthService) Login(email, password string) (*models.User, string, string, error) {
	u, err := s.userRepo.GetByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", "", ErrInvalidCreds
		}
		return nil, "", "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, "", "", ErrInvalidCreds
	}
	s.WelcomeIfNew(u)
	access, _ := auth.GenerateAccessToken(&s.cfg.JWT, u.ID, u.Email, u.DisplayName, u.Role)
	refresh, _ := auth.GenerateRefreshToken(&s.cfg.JWT, u.ID)
	return u, access, refresh, nil
}

func (s *AuthService) Refresh(refreshToken string) (*models.User, string, error) {
	id, err := auth.ParseRefreshToken(&s.cfg.JWT, refreshToken)
	if err != nil {
		return nil, "", err
	}
	u, err := s.userRepo.GetByID(id)
	if err != nil {
		return nil, "", auth.ErrInvalidToken
	}
	access, err := auth.GenerateAccessToken(&s.cfg.JWT, u.ID, u.Email, u.DisplayName, u.Role)
	return u, access, err
}

// LoginWithGoogle creates or links a user by Google ID and returns user +
// tokens + isNew flag. New accounts default to the volunteer role.
func (s *AuthService) LoginWithGoogle(googleID, email, name, avatarURL string) (*models.User, string, string, bool, error) {
	u, err := s.userRepo.GetByGoogleID(googleID)
	if err == nil {
		access, _ := auth.GenerateAccessToken(&s.cfg.JWT, u.ID, u.Email, u.DisplayName, u.Role)
		refresh, _ := auth.GenerateRefreshToken(&s.cfg.JWT, u.ID)
		return u, access, refresh, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", "", false, err
	}
	existing, _ := s.userRepo.GetByEmail(email)
	if existing != nil {
		gid := googleID
		existing.GoogleID = &gid
		if avatarURL != "" {
			existing.AvatarURL = avatarURL
		}
		if err := s.userRepo.Update(existing); err != nil {
			return nil, "", "", false, err
		}
		access, _ := auth.GenerateAccessToken(&s.cfg.JWT, existing.ID, existing.Email, existing.DisplayName, existing.Role)
		refresh, _ := auth.GenerateRefreshToken(&s.cfg.JWT, existing.ID)
		return existing, access, refresh, false, nil
	}
	gid := googleID
	if name == "" {
		name = "User"
	}
	u = &models.User{
		Email:       email,
		DisplayName: name,
		Role:        domain.RoleVolunteer,
		GoogleID:    &gid,
		AvatarURL:   avatarURL,
	}
	if err := s.userRepo.Create(u); err != nil {
		return nil, "", "", false, err
	}
	s.WelcomeIfNew(u)
	access, _ := auth.GenerateAccessToken(&s.cfg.JWT, u.ID, u.Email, u.DisplayName, u.Role)
	refresh, _ := auth.GenerateRefreshToken(&s.cfg.JWT, u.ID)
	return u, access, refresh, true, nil
}

// WelcomeIfNew sends the welcome mail once, and only while the account is
// still inside the signup grace window. Delivery is best-effort; a failed
// send is logged and retried on the next login inside the window.
func (s *AuthService) WelcomeIfNew(u *models.User) {
	if u.WelcomeEmailSent {
		return
	}
	if !u.CreatedAt.IsZero() && time.Since(u.CreatedAt) > s.cfg.Mail.WelcomeGrace {
		return
	}
	err := s.mail.SendWelcome(context.Background(), u.DisplayName, u.Email, u.Role)
	if BestEffort("welcome", err) {
		if err := s.userRepo.MarkWelcomeSent(u.ID); err == nil {
			u.WelcomeEmailSent = true
		}
	}
}

// RequestPasswordReset issues a reset token and mails it. Always succeeds
// from the caller's point of view so account existence is not revealed.
func (s *AuthService) RequestPasswordReset(email string) {
	u, err := s.userRepo.GetByEmail(email)
	if err != nil {
		return
	}
	token, err := auth.GenerateResetToken(&s.cfg.JWT, u.ID, u.Email)
	if err != nil {
		return
	}
	BestEffort("password-reset", s.mail.send(context.Background(), resetTemplate(u.DisplayName, u.Email, token)))
}

// CompletePasswordReset validates the mailed token and stores the new hash.
func (s *AuthService) CompletePasswordReset(token, newPassword string) error {
	id, err := auth.ParseResetToken(&s.cfg.JWT, token)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.userRepo.UpdatePassword(id, string(hash))
}
