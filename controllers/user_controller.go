package controllers

import (
	"errors"
	"time"

	"inventaris-backend/config"
	"inventaris-backend/models"
	"inventaris-backend/services"
	"inventaris-backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// UserController контроллер профиля текущего пользователя
type UserController struct {
	db       *gorm.DB
	sessions *services.InventorySessions
	log      logrus.FieldLogger
}

// NewUserController создает новый экземпляр UserController
func NewUserController(db *gorm.DB, sessions *services.InventorySessions, log logrus.FieldLogger) *UserController {
	return &UserController{db: db, sessions: sessions, log: log}
}

// ProfileRequest данные экрана заполнения профиля
type ProfileRequest struct {
	DateOfBirth string               `json:"dob" validate:"required,datetime=2006-01-02"`
	Gender      string               `json:"gender" validate:"required,oneof=male female"`
	Height      models.QuantityInput `json:"height" validate:"required"`
	Weight      models.QuantityInput `json:"weight" validate:"required"`
}

func (uc *UserController) currentUser(c *fiber.Ctx) (*models.User, error) {
	userID, err := utils.CurrentUserID(c)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "Необходима авторизация")
	}

	var user models.User
	if err := uc.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "Пользователь не найден")
		}
		config.LogError(uc.log, "profile", "currentUser", "load user", userID, err)
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Ошибка при получении профиля")
	}
	return &user, nil
}

// GetProfile возвращает профиль текущего пользователя
func (uc *UserController) GetProfile(c *fiber.Ctx) error {
	user, err := uc.currentUser(c)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"user":    user,
		"error":   false,
		"message": "Профиль получен успешно",
	})
}

// UpdateProfile сохраняет данные профиля и отмечает его заполненным
func (uc *UserController) UpdateProfile(c *fiber.Ctx) error {
	user, err := uc.currentUser(c)
	if err != nil {
		return err
	}

	var req ProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error":   true,
			"message": "Неверный формат данных",
		})
	}

	verr := &models.ValidationError{}
	if err := models.ValidateStruct(req); err != nil && !errors.As(err, &verr) {
		return err
	}

	height, herr := positiveDecimal(req.Height)
	weight, werr := positiveDecimal(req.Weight)
	if herr != nil && !hasField(verr, "height") {
		verr.Fields = append(verr.Fields, models.FieldError{Field: "height", Message: "значение должно быть больше 0"})
	}
	if werr != nil && !hasField(verr, "weight") {
		verr.Fields = append(verr.Fields, models.FieldError{Field: "weight", Message: "значение должно быть больше 0"})
	}
	if len(verr.Fields) > 0 {
		return c.Status(400).JSON(fiber.Map{
			"error":   true,
			"message": "Проверьте введенные данные",
			"fields":  verr.Fields,
		})
	}

	dob, err := time.Parse(models.DateLayout, req.DateOfBirth)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Неверная дата рождения")
	}

	user.DateOfBirth = &dob
	user.Gender = req.Gender
	user.HeightCm = height.InexactFloat64()
	user.WeightKg = weight.InexactFloat64()
	user.ProfileCompleted = true

	if err := uc.db.Save(user).Error; err != nil {
		config.LogError(uc.log, "profile", "UpdateProfile", "save user", user.ID, err)
		return c.Status(500).JSON(fiber.Map{
			"error":   true,
			"message": "Ошибка при обновлении профиля",
		})
	}

	return c.JSON(fiber.Map{
		"user":    user,
		"error":   false,
		"message": "Профиль обновлен успешно",
	})
}

// DeleteAccount удаляет аккаунт и очищает его инвентарь
func (uc *UserController) DeleteAccount(c *fiber.Ctx) error {
	user, err := uc.currentUser(c)
	if err != nil {
		return err
	}

	if err := uc.sessions.Purge(c.UserContext(), user.ID); err != nil {
		config.LogError(uc.log, "profile", "DeleteAccount", "purge inventory", user.ID, err)
	}

	if err := uc.db.Delete(&models.User{}, user.ID).Error; err != nil {
		config.LogError(uc.log, "profile", "DeleteAccount", "delete user", user.ID, err)
		return c.Status(500).JSON(fiber.Map{
			"error":   true,
			"message": "Ошибка при удалении аккаунта",
		})
	}

	return c.JSON(fiber.Map{
		"error":   false,
		"message": "Аккаунт удален",
	})
}

// positiveDecimal разбирает рост или вес с теми же пределами, что и количество
func positiveDecimal(in models.QuantityInput) (decimal.Decimal, error) {
	q, err := models.ParseQuantity(string(in))
	if err != nil {
		return decimal.Zero, err
	}
	return q.Decimal(), nil
}

func hasField(verr *models.ValidationError, field string) bool {
	for _, f := range verr.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}
