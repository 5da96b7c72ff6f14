package main

import (
	"os"
	"time"

	"wedding-backend/config"
	"wedding-backend/database"
	"wedding-backend/handlers"
	"wedding-backend/middleware"
	"wedding-backend/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	// Load configuration
	config.Load()

	// Connect to database
	database.Connect()

	// Connect to Redis (optional, won't crash if unavailable)
	database.ConnectRedis()

	// Make sure the couple can sign in to the admin endpoints
	if err := services.EnsureAdmin(database.DB); err != nil {
		log.Fatal().Err(err).Msg("Failed to set up admin account")
	}

	// Setup router
	r := gin.Default()
	r.Use(middleware.CORSMiddleware())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": config.AppConfig.AppName,
		})
	})

	// ==========================================
	// PUBLIC ROUTES (token-authenticated by link)
	// ==========================================
	r.POST("/auth/login", handlers.Login)

	api := r.Group("/api")
	{
		api.GET("/rsvp", handlers.GetRSVP)
		api.POST("/rsvp", handlers.SubmitRSVP)
		api.POST("/request-invitation", handlers.RequestInvitation)
	}

	// ==========================================
	// ADMIN ROUTES (JWT)
	// ==========================================
	admin := api.Group("/admin")
	admin.Use(middleware.AuthRequired())
	{
		admin.POST("/guests", handlers.CreateGuest)
		admin.POST("/guests/child", handlers.CreateChildGuest)
		admin.GET("/guests", handlers.ListGuests)
		admin.POST("/families", handlers.CreateFamily)
	}

	// Start server
	addr := "0.0.0.0:" + config.AppConfig.Port
	log.Info().Str("addr", addr).Str("service", config.AppConfig.AppName).Msg("Server starting")
	if err := r.Run(addr); err != nil {
		log.Fatal().Err(err).Msg("Failed to start server")
	}
}
