package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"

	"noteboard/db"
	"noteboard/models"

	"golang.org/x/crypto/argon2"
	"gorm.io/gorm"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// ModeratorService управляет учетками модераторов и их сессионными токенами.
// Сессионный токен и общий токен из письма равноправны для approve/reject.
type ModeratorService struct{}

func NewModeratorService() *ModeratorService {
	return &ModeratorService{}
}

// Register создает модератора. Вызывается только операторами
// (обработчик дополнительно требует общий approval токен).
func (s *ModeratorService) Register(ctx context.Context, email, password string) (*models.Moderator, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, errors.New("email and password are required")
	}

	var alreadyExists int64
	err := db.GetWriteDB(ctx).Model(&models.Moderator{}).Where("email = ?", email).Count(&alreadyExists).Error
	if err != nil {
		return nil, err
	}
	if alreadyExists > 0 {
		return nil, errors.New("moderator already exists")
	}

	passwordHash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	moderator := &models.Moderator{Email: email, Password: passwordHash}
	if err := db.GetWriteDB(ctx).Create(moderator).Error; err != nil {
		return nil, err
	}
	return moderator, nil
}

// Login проверяет пароль и выдает новый сессионный токен, старый отзывается
func (s *ModeratorService) Login(ctx context.Context, email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var moderator models.Moderator
	err := db.GetWriteDB(ctx).Where("email = ?", email).First(&moderator).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}

	if !verifyPassword(moderator.Password, password) {
		return "", ErrInvalidCredentials
	}

	// Один активный токен на модератора
	if err := db.GetWriteDB(ctx).Where("moderator_id = ?", moderator.ID).Delete(&models.ModeratorToken{}).Error; err != nil {
		return "", err
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	token := hex.EncodeToString(tokenBytes)

	err = db.GetWriteDB(ctx).Create(&models.ModeratorToken{
		ModeratorID: moderator.ID,
		Token:       token,
	}).Error
	if err != nil {
		return "", err
	}
	return token, nil
}

// CheckToken возвращает модератора по сессионному токену
func (s *ModeratorService) CheckToken(ctx context.Context, token string) (*models.Moderator, error) {
	if token == "" {
		return nil, ErrInvalidCredentials
	}

	var row models.ModeratorToken
	err := db.GetReadOnlyDB(ctx).Where("token = ?", token).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	var moderator models.Moderator
	if err := db.GetReadOnlyDB(ctx).First(&moderator, row.ModeratorID).Error; err != nil {
		return nil, ErrInvalidCredentials
	}
	return &moderator, nil
}

func (s *ModeratorService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return errors.New("token is empty")
	}
	return db.GetWriteDB(ctx).Where("token = ?", token).Delete(&models.ModeratorToken{}).Error
}

func hashPassword(password string) (string, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	hash := argon2.IDKey([]byte(password), salt, 1, 64*1024, 4, 32)
	return hex.EncodeToString(salt) + "$" + hex.EncodeToString(hash), nil
}

func verifyPassword(stored, password string) bool {
	parts := strings.Split(stored, "$")
	if len(parts) != 2 {
		return false
	}
	salt, err := hex.DecodeString(parts[0])
	if err != nil {
		return false
	}
	hash := argon2.IDKey([]byte(password), salt, 1, 64*1024, 4, 32)
	return hex.EncodeToString(hash) == parts[1]
}
