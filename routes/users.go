package routes

import (
	"inventaris-backend/controllers"

	"github.com/gofiber/fiber/v2"
)

// SetupUserRoutes настраивает маршруты профиля текущего пользователя
func SetupUserRoutes(api fiber.Router, userController *controllers.UserController) {
	profile := api.Group("/profile")
	profile.Get("/", userController.GetProfile)       // GET /api/profile - профиль
	profile.Put("/", userController.UpdateProfile)    // PUT /api/profile - заполнить профиль
	profile.Delete("/", userController.DeleteAccount) // DELETE /api/profile - удалить аккаунт
}
