package services

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"messagely/db"
	"messagely/models"

	"golang.org/x/crypto/argon2"
	"gorm.io/gorm"
)

var ErrInvalidCredentials = &AppError{Status: http.StatusUnauthorized, Message: "Invalid username/password"}

type RegisterInput struct {
	Username  string
	Password  string
	FirstName string
	LastName  string
	Phone     string
}

type UserService struct {
	db  *db.Manager
	now func() time.Time
}

func NewUserService(manager *db.Manager) *UserService {
	return &UserService{
		db:  manager,
		now: func() time.Time { return time.Now().UTC() },
	}
}

func hashPassword(password string) (string, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	hash := argon2.IDKey([]byte(password), salt, 1, 64*1024, 4, 32)
	return hex.EncodeToString(salt) + "$" + hex.EncodeToString(hash), nil
}

func checkPassword(stored, password string) (bool, error) {
	parts := strings.Split(stored, "$")
	if len(parts) != 2 {
		return false, errors.New("invalid password format")
	}
	salt, err := hex.DecodeString(parts[0])
	if err != nil {
		return false, err
	}
	expected, err := hex.DecodeString(parts[1])
	if err != nil {
		return false, err
	}
	hash := argon2.IDKey([]byte(password), salt, 1, 64*1024, 4, 32)
	return subtle.ConstantTimeCompare(hash, expected) == 1, nil
}

// Register создает пользователя с argon2-хешем пароля
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	var alreadyExists int64
	err := s.db.GetWriteDB(ctx).Model(&models.User{}).Where("username = ?", in.Username).Count(&alreadyExists).Error
	if err != nil {
		return nil, fmt.Errorf("error checking if user exists: %w", err)
	}
	if alreadyExists > 0 {
		return nil, BadRequest("Username taken")
	}

	passwordHash, err := hashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		Username:  in.Username,
		Password:  passwordHash,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Phone:     in.Phone,
		JoinAt:    s.now(),
	}
	if err = s.db.GetWriteDB(ctx).Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	log.Println("Registered user:", user.Username)
	return &user, nil
}

// Authenticate проверяет пароль и обновляет last_login_at
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	var user models.User
	err := s.db.GetWriteDB(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	ok, err := checkPassword(user.Password, password)
	if err != nil {
		return nil, fmt.Errorf("failed to check password of %s: %w", username, err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	loginAt := s.now()
	if err = s.db.GetWriteDB(ctx).Model(&user).Update("last_login_at", loginAt).Error; err != nil {
		return nil, fmt.Errorf("failed to update login timestamp: %w", err)
	}
	user.LastLoginAt = &loginAt
	return &user, nil
}

func (s *UserService) Get(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := s.db.GetReadOnlyDB(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFound("No such user: %s", username)
		}
		return nil, fmt.Errorf("failed to get user %s: %w", username, err)
	}
	return &user, nil
}

func (s *UserService) All(ctx context.Context) ([]models.UserSummary, error) {
	var users []models.User
	if err := s.db.GetReadOnlyDB(ctx).Order("username").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	summaries := make([]models.UserSummary, 0, len(users))
	for _, u := range users {
		summaries = append(summaries, u.Summary())
	}
	return summaries, nil
}
