// Package accounts handles registration, activation and the credential
// change flows.
package accounts

import (
	"errors"
	"fmt"
	"strings"

	"github.com/segmentio/ksuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/caddieworks/myloopcount/internal/mail"
	"github.com/caddieworks/myloopcount/internal/models"
	"github.com/caddieworks/myloopcount/internal/validation"
)

var (
	ErrNotFound    = errors.New("accounts: not found")
	ErrBadPassword = errors.New("accounts: password is incorrect")
	ErrMailSend    = errors.New("accounts: unable to send verification email")
)

// ValidationError carries per-field violations back to the form layer.
type ValidationError struct {
	Violations validation.Violations
}

func (e *ValidationError) Error() string { return "accounts: validation failed" }

type Service struct {
	db      *gorm.DB
	mailer  mail.Mailer
	baseURL string
}

func NewService(db *gorm.DB, mailer mail.Mailer, baseURL string) *Service {
	return &Service{db: db, mailer: mailer, baseURL: strings.TrimRight(baseURL, "/")}
}

type RegisterInput struct {
	Username  string
	Email     string
	Password1 string
	Password2 string
}

// Register validates the signup form, emails the activation link and, only
// if the mail went out, creates the inactive user and its caddy profile in
// one transaction. A failed send creates nothing and returns ErrMailSend.
func (s *Service) Register(in RegisterInput) error {
	username := strings.ToLower(strings.TrimSpace(in.Username))
	email := strings.ToLower(strings.TrimSpace(in.Email))

	v := validation.Violations{}
	validation.MinLen("username", username, 4, v)
	validation.Email("email", email, v)
	validation.Match("password2", in.Password1, in.Password2, v)
	validation.Password("password2", in.Password2, v)
	if v.Empty() {
		var n int64
		s.db.Model(&models.User{}).Where("username = ?", username).Count(&n)
		if n > 0 {
			v["username"] = "username_taken"
		}
		s.db.Model(&models.User{}).Where("email = ?", email).Count(&n)
		if n > 0 {
			v["email"] = "email_taken"
		}
	}
	if !v.Empty() {
		return &ValidationError{Violations: v}
	}

	key := ksuid.New().String()
	body := fmt.Sprintf("Please visit the following link to verify your email\n\n%s/activate?key=%s\n", s.baseURL, key)
	if err := s.mailer.Send(email, "MyLoopCount Email Verification", body); err != nil {
		return ErrMailSend
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password1), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		user := models.User{Username: username, Email: email, Password: string(hash), Active: false}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		caddy := models.Caddy{UserID: &user.ID, ActivationKey: key}
		return tx.Create(&caddy).Error
	})
}

// Activate flips the account active by activation key. Keys that are unknown
// or already used fail with ErrNotFound.
func (s *Service) Activate(key string) error {
	if key == "" {
		return ErrNotFound
	}
	var caddy models.Caddy
	err := s.db.Where("activation_key = ? AND email_validated = ?", key, false).First(&caddy).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if caddy.UserID == nil {
		return ErrNotFound
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).Where("id = ?", *caddy.UserID).Update("active", true).Error; err != nil {
			return err
		}
		return tx.Model(&caddy).Update("email_validated", true).Error
	})
}

// Authenticate checks username/password for login and requires an activated
// account.
func (s *Service) Authenticate(username, password string) (*models.User, error) {
	var user models.User
	err := s.db.Where("username = ?", strings.ToLower(strings.TrimSpace(username))).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBadPassword
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, ErrBadPassword
	}
	if !user.Active {
		return nil, ErrBadPassword
	}
	return &user, nil
}

// ChangePassword verifies the current password and applies the same
// complexity rules as registration to the new one.
func (s *Service) ChangePassword(userID uint, current, new1, new2 string) error {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return ErrNotFound
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(current)) != nil {
		return ErrBadPassword
	}
	v := validation.Violations{}
	validation.Match("new_password2", new1, new2, v)
	validation.Password("new_password2", new2, v)
	if !v.Empty() {
		return &ValidationError{Violations: v}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(new1), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.db.Model(&user).Update("password", string(hash)).Error
}

// RequestEmailChange parks the new address on the caddy profile and mails a
// verification link to it. The pending address is persisted before the send,
// so a failed send leaves it set; the key is only persisted when the mail
// actually went out, otherwise the link could never arrive.
func (s *Service) RequestEmailChange(userID uint, password, newEmail string) error {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return ErrNotFound
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return ErrBadPassword
	}
	email := strings.ToLower(strings.TrimSpace(newEmail))
	v := validation.Violations{}
	validation.Email("new_email", email, v)
	if v.Empty() {
		var n int64
		s.db.Model(&models.User{}).Where("email = ?", email).Count(&n)
		if n > 0 {
			v["new_email"] = "email_taken"
		}
	}
	if !v.Empty() {
		return &ValidationError{Violations: v}
	}

	var caddy models.Caddy
	if err := s.db.Where("user_id = ?", userID).First(&caddy).Error; err != nil {
		return ErrNotFound
	}
	if err := s.db.Model(&caddy).Update("change_email", email).Error; err != nil {
		return err
	}

	key := ksuid.New().String()
	body := fmt.Sprintf("Hi there! You recently added the new email address %s to your account. Please visit the following link to verify your new email\n\n%s/settings/email/verify?key=%s\n", email, s.baseURL, key)
	if err := s.mailer.Send(email, "Verify your MyLoopCount email address", body); err != nil {
		return ErrMailSend
	}
	return s.db.Model(&caddy).Update("change_email_key", key).Error
}

// VerifyEmailChange promotes the pending address onto the user that owns the
// key and clears the pending fields.
func (s *Service) VerifyEmailChange(key string) error {
	if key == "" {
		return ErrNotFound
	}
	var caddy models.Caddy
	err := s.db.Where("change_email_key = ?", key).First(&caddy).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if caddy.UserID == nil || caddy.ChangeEmail == nil {
		return ErrNotFound
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).Where("id = ?", *caddy.UserID).Update("email", *caddy.ChangeEmail).Error; err != nil {
			return err
		}
		return tx.Model(&caddy).Updates(map[string]any{"change_email": nil, "change_email_key": nil}).Error
	})
}

// CaddyFor loads the caddy profile attached to a user account.
func (s *Service) CaddyFor(userID uint) (*models.Caddy, error) {
	var caddy models.Caddy
	err := s.db.Preload("User").Where("user_id = ?", userID).First(&caddy).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &caddy, nil
}
