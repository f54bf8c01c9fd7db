package controllers

import (
	"errors"
	"strings"

	"inventaris-backend/config"
	"inventaris-backend/models"
	"inventaris-backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// AuthController контроллер для аутентификации
type AuthController struct {
	DB  *gorm.DB
	JWT *utils.JWTManager
	Log logrus.FieldLogger
}

// NewAuthController создает новый экземпляр AuthController
func NewAuthController(db *gorm.DB, jwt *utils.JWTManager, log logrus.FieldLogger) *AuthController {
	return &AuthController{DB: db, JWT: jwt, Log: log}
}

// RegisterRequest структура запроса регистрации
type RegisterRequest struct {
	FirstName       string `json:"first_name" validate:"omitempty,max=50"`
	LastName        string `json:"last_name" validate:"omitempty,max=50"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

// LoginRequest структура запроса входа
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// AuthUser пользователь в ответе аутентификации
type AuthUser struct {
	ID               uint   `json:"id"`
	Name             string `json:"name"`
	Email            string `json:"email"`
	ProfileCompleted bool   `json:"profile_completed"`
}

// AuthResponse структура ответа аутентификации
type AuthResponse struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Token   string              `json:"token,omitempty"`
	User    *AuthUser           `json:"user,omitempty"`
	Fields  []models.FieldError `json:"fields,omitempty"`
}

func authUser(u *models.User) *AuthUser {
	return &AuthUser{
		ID:               u.ID,
		Name:             u.FullName(),
		Email:            u.Email,
		ProfileCompleted: u.ProfileCompleted,
	}
}

// Register обрабатывает регистрацию пользователя
func (ac *AuthController) Register(c *fiber.Ctx) error {
	var req RegisterRequest

	// Парсим JSON
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(AuthResponse{
			Success: false,
			Message: "Неверный формат данных",
		})
	}

	// Валидация
	if resp, bad := validationResponse(req); bad {
		return c.Status(400).JSON(resp)
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	// Проверяем, существует ли пользователь
	var existingUser models.User
	if err := ac.DB.Where("email = ?", email).First(&existingUser).Error; err == nil {
		return c.Status(409).JSON(AuthResponse{
			Success: false,
			Message: "Пользователь с таким email уже существует",
		})
	}

	// Хэшируем пароль
	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		config.LogError(ac.Log, "auth", "Register", "hash password", nil, err)
		return c.Status(500).JSON(AuthResponse{
			Success: false,
			Message: "Ошибка при создании пользователя",
		})
	}

	user := models.User{
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Email:        email,
		PasswordHash: hashedPassword,
		IsActive:     true,
	}
	if user.FirstName == "" {
		user.FirstName = strings.SplitN(email, "@", 2)[0]
	}

	if err := ac.DB.Create(&user).Error; err != nil {
		config.LogError(ac.Log, "auth", "Register", "create user", email, err)
		return c.Status(500).JSON(AuthResponse{
			Success: false,
			Message: "Ошибка при создании пользователя",
		})
	}

	// Генерируем JWT токен
	token, err := ac.JWT.Generate(user.ID, user.Email)
	if err != nil {
		config.LogError(ac.Log, "auth", "Register", "generate token", user.ID, err)
		return c.Status(500).JSON(AuthResponse{
			Success: false,
			Message: "Ошибка при создании токена",
		})
	}

	return c.Status(201).JSON(AuthResponse{
		Success: true,
		Message: "Пользователь успешно зарегистрирован",
		Token:   token,
		User:    authUser(&user),
	})
}

// Login обрабатывает вход пользователя
func (ac *AuthController) Login(c *fiber.Ctx) error {
	var req LoginRequest

	// Парсим JSON
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(AuthResponse{
			Success: false,
			Message: "Неверный формат данных",
		})
	}

	// Валидация
	if resp, bad := validationResponse(req); bad {
		return c.Status(400).JSON(resp)
	}

	// Ищем пользователя
	var user models.User
	err := ac.DB.Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).First(&user).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		config.LogError(ac.Log, "auth", "Login", "find user", nil, err)
	}
	if err != nil || !utils.CheckPasswordHash(req.Password, user.PasswordHash) {
		return c.Status(401).JSON(AuthResponse{
			Success: false,
			Message: "Неверный email или пароль",
		})
	}

	// Проверяем активность пользователя
	if !user.IsActive {
		return c.Status(401).JSON(AuthResponse{
			Success: false,
			Message: "Аккаунт заблокирован",
		})
	}

	// Генерируем JWT токен
	token, err := ac.JWT.Generate(user.ID, user.Email)
	if err != nil {
		config.LogError(ac.Log, "auth", "Login", "generate token", user.ID, err)
		return c.Status(500).JSON(AuthResponse{
			Success: false,
			Message: "Ошибка при создании токена",
		})
	}

	return c.JSON(AuthResponse{
		Success: true,
		Message: "Успешный вход в систему",
		Token:   token,
		User:    authUser(&user),
	})
}

// validationResponse проверяет теги validate запроса
func validationResponse(req interface{}) (AuthResponse, bool) {
	err := models.ValidateStruct(req)
	if err == nil {
		return AuthResponse{}, false
	}
	resp := AuthResponse{Success: false, Message: "Проверьте введенные данные"}
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		resp.Fields = verr.Fields
	}
	return resp, true
}
