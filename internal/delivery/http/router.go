package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Aadya-Jha/AgriCare-sub001/internal/service"
)

// SetupRoutes configures all HTTP routes
func SetupRoutes(app *fiber.App, gateway *service.Gateway, jobs *service.JobManager, dashboardSvc *service.DashboardService, store service.JobStore) {
	handler := NewHandler(gateway, jobs, dashboardSvc, store)

	// Health check
	app.Get("/health", handler.HealthCheck)

	// API v1 routes
	api := app.Group("/api/v1")
	{
		// Location health predictions
		hs := api.Group("/hyperspectral")
		hs.Get("/predictions", handler.GetPredictions)
		hs.Get("/predictions/:location", handler.GetLocationPrediction)
		hs.Post("/train", handler.TrainModel)
		hs.Get("/model-info", handler.GetModelInfo)
		hs.Get("/locations", handler.GetLocations)
		hs.Get("/locations/nearest", handler.GetNearestLocation)

		// Image analysis jobs
		images := api.Group("/images")
		images.Post("/upload", handler.UploadImage)
		images.Post("/batch-upload", handler.BatchUploadImages)
		images.Get("/status/:job_id", handler.GetJobStatus)
		images.Get("/indices/:image_id", handler.GetImageIndices)

		// Dashboard
		api.Get("/dashboard/summary", handler.GetDashboardSummary)
		api.Get("/alerts", handler.GetAlerts)
	}

	app.Use(func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "Route not found")
	})
}

// ErrorHandler renders every error as {error, message} JSON
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
