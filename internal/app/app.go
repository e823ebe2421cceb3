package app

import (
	"cvbuilder/internal/handlers"
	"cvbuilder/internal/session"
	u "cvbuilder/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/monitor"
)

// SetupApp creates and configures a new Fiber app instance serving sess
func SetupApp(cfg u.Config, sess *session.Session) *fiber.App {
	app := fiber.New(fiber.Config{
		Prefork:               cfg.Server.Prefork,
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			msg := "Internal Server Error"

			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
				msg = e.Message
			}

			u.Warn("Request failed", "path", c.Path(), "status", code, "message", msg)

			return c.Status(code).JSON(fiber.Map{
				"error": fiber.Map{
					"code":    code,
					"message": msg,
				},
			})
		},
	})

	RegisterMiddleware(app, cfg)
	RegisterRoutes(app, cfg, sess)

	// Ensure all responses, including 404s, return JSON
	app.Use(func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "Not Found")
	})

	return app
}

// RegisterRoutes mounts all route handlers to the app
func RegisterRoutes(app *fiber.App, cfg u.Config, sess *session.Session) {
	v1 := app.Group("/v1")

	svc := handlers.NewCVService(sess)

	doc := v1.Group("/document")
	doc.Get("/", svc.HandleGetDocument)
	// Fixed segments first: fiber matches routes in registration order.
	doc.Put("/fields/:field", svc.HandleSetField)
	doc.Put("/experience/:index/achievements/:ach", svc.HandleSetAchievement)
	doc.Post("/experience/:index/achievements", svc.HandleAppendAchievement)
	doc.Put("/:section/:index/:field", svc.HandleSetEntryField)
	doc.Put("/:section/:index", svc.HandleSetListElement)
	doc.Post("/:section", svc.HandleAppend)

	v1.Post("/submit", submitRateLimitMiddleware(cfg), svc.HandleSubmit)
	v1.Get("/submission", svc.HandleStatus)
	v1.Delete("/submission", svc.HandleDismiss)

	v1.Get("/preview", svc.HandlePreview)
	v1.Post("/preview/print", svc.HandlePrintPreview)
	v1.Post("/download", svc.HandleDownload)

	v1.Get("/monitor", monitor.New())
}
