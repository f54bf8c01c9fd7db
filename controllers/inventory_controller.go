package controllers

import (
	"errors"
	"fmt"
	"time"

	"inventaris-backend/config"
	"inventaris-backend/models"
	"inventaris-backend/services"
	"inventaris-backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// InventoryController контроллер инвентаря текущего аккаунта
type InventoryController struct {
	sessions *services.InventorySessions
	log      logrus.FieldLogger
	now      func() time.Time
}

// NewInventoryController создает новый экземпляр InventoryController
func NewInventoryController(sessions *services.InventorySessions, log logrus.FieldLogger) *InventoryController {
	return &InventoryController{sessions: sessions, log: log, now: time.Now}
}

// FilterRequest состояние поиска и фильтра
type FilterRequest struct {
	Search   string `json:"search"`
	Category string `json:"category"`
}

// InventoryListResponse видимый список с текущим фильтром
type InventoryListResponse struct {
	Search   string                `json:"search"`
	Category models.CategoryFilter `json:"category"`
	Total    int                   `json:"total"`
	Items    []services.ItemView   `json:"items"`
}

func (ic *InventoryController) session(c *fiber.Ctx) (*services.InventoryViewModel, error) {
	userID, err := utils.CurrentUserID(c)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "Необходима авторизация")
	}
	return ic.sessions.Get(c.UserContext(), userID), nil
}

func (ic *InventoryController) listResponse(snap services.Snapshot) InventoryListResponse {
	return InventoryListResponse{
		Search:   snap.Search,
		Category: snap.Category,
		Total:    snap.Total,
		Items:    services.DecorateRecords(snap.Visible, ic.now()),
	}
}

// List возвращает видимый список
func (ic *InventoryController) List(c *fiber.Ctx) error {
	vm, err := ic.session(c)
	if err != nil {
		return err
	}
	return c.JSON(ic.listResponse(vm.Snapshot()))
}

// SetFilter меняет поиск и категорию
func (ic *InventoryController) SetFilter(c *fiber.Ctx) error {
	vm, err := ic.session(c)
	if err != nil {
		return err
	}

	var req FilterRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Неверный формат данных")
	}
	filter, err := models.ParseCategoryFilter(req.Category)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Неизвестная категория")
	}

	return c.JSON(ic.listResponse(vm.SetFilter(req.Search, filter)))
}

// Create добавляет запись
func (ic *InventoryController) Create(c *fiber.Ctx) error {
	vm, err := ic.session(c)
	if err != nil {
		return err
	}

	var form models.InventoryForm
	if err := c.BodyParser(&form); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Неверный формат данных")
	}

	record, err := vm.Create(form)
	if err != nil {
		return ic.mutationError(c, "Create", err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"item":    services.DecorateRecords([]models.InventoryRecord{record}, ic.now())[0],
		"error":   false,
		"message": "Запись добавлена",
	})
}

// Update заменяет поля записи
func (ic *InventoryController) Update(c *fiber.Ctx) error {
	vm, err := ic.session(c)
	if err != nil {
		return err
	}

	var form models.InventoryForm
	if err := c.BodyParser(&form); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Неверный формат данных")
	}

	record, err := vm.Update(c.Params("id"), form)
	if err != nil {
		return ic.mutationError(c, "Update", err)
	}

	return c.JSON(fiber.Map{
		"item":    services.DecorateRecords([]models.InventoryRecord{record}, ic.now())[0],
		"error":   false,
		"message": "Запись обновлена",
	})
}

// Delete удаляет запись; отсутствующий ID не является ошибкой
func (ic *InventoryController) Delete(c *fiber.Ctx) error {
	vm, err := ic.session(c)
	if err != nil {
		return err
	}

	deleted, err := vm.Delete(c.Params("id"))
	if err != nil {
		return ic.mutationError(c, "Delete", err)
	}

	return c.JSON(fiber.Map{
		"deleted": deleted,
		"error":   false,
		"message": "Запись удалена",
	})
}

// EditForm возвращает форму редактирования, заполненную значениями записи
func (ic *InventoryController) EditForm(c *fiber.Ctx) error {
	vm, err := ic.session(c)
	if err != nil {
		return err
	}

	record, ok := vm.Find(c.Params("id"))
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "Запись не найдена")
	}
	return c.JSON(fiber.Map{
		"form":  models.FormFromRecord(record),
		"error": false,
	})
}

// Options списки категорий и единиц измерения для формы
func (ic *InventoryController) Options(c *fiber.Ctx) error {
	filters := []string{models.AllCategoriesLabel}
	for _, cat := range models.Categories {
		filters = append(filters, string(cat))
	}
	return c.JSON(fiber.Map{
		"categories": models.Categories,
		"filters":    filters,
		"units":      models.Units,
	})
}

// Export выгружает видимый список в XLSX
func (ic *InventoryController) Export(c *fiber.Ctx) error {
	vm, err := ic.session(c)
	if err != nil {
		return err
	}

	items := services.DecorateRecords(vm.Visible(), ic.now())
	buf, err := services.ExportWorkbook(items)
	if err != nil {
		config.LogError(ic.log, "inventory", "Export", "build workbook", len(items), err)
		return fiber.NewError(fiber.StatusInternalServerError, "Ошибка при выгрузке")
	}

	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="inventaris-%s.xlsx"`, ic.now().Format(models.DateLayout)))
	return c.Send(buf)
}

func (ic *InventoryController) mutationError(c *fiber.Ctx, op string, err error) error {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Проверьте введенные данные",
			"fields":  verr.Fields,
		})
	case errors.Is(err, services.ErrRecordNotFound):
		return fiber.NewError(fiber.StatusNotFound, "Запись не найдена")
	default:
		config.LogError(ic.log, "inventory", op, "mutation failed", nil, err)
		return fiber.NewError(fiber.StatusInternalServerError, "Ошибка при сохранении записи")
	}
}
