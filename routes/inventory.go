package routes

import (
	"inventaris-backend/controllers"

	"github.com/gofiber/fiber/v2"
)

// SetupInventoryRoutes настраивает маршруты инвентаря
func SetupInventoryRoutes(api fiber.Router, inventoryController *controllers.InventoryController) {
	inventory := api.Group("/inventory")

	// GET /api/inventory - видимый список с учетом поиска и категории
	inventory.Get("/", inventoryController.List)

	// GET /api/inventory/options - категории и единицы измерения для формы
	inventory.Get("/options", inventoryController.Options)

	// GET /api/inventory/export - выгрузка видимого списка в XLSX
	inventory.Get("/export", inventoryController.Export)

	// PUT /api/inventory/filter - поиск и категория
	inventory.Put("/filter", inventoryController.SetFilter)

	// POST /api/inventory - добавить запись
	inventory.Post("/", inventoryController.Create)

	// GET /api/inventory/:id/form - форма редактирования
	inventory.Get("/:id/form", inventoryController.EditForm)

	// PUT /api/inventory/:id - изменить запись
	inventory.Put("/:id", inventoryController.Update)

	// DELETE /api/inventory/:id - удалить запись
	inventory.Delete("/:id", inventoryController.Delete)
}
