// Package middleware contains HTTP middleware functions for request processing
package middleware

import (
	"github.com/gofiber/fiber/v3"
	"github.com/outlinkhq/outlink/app/dto"
	"github.com/outlinkhq/outlink/config"
	"golang.org/x/crypto/bcrypt"
)

// APIKeyMiddleware guards the admin surface with a pre-shared API key
// Only the bcrypt hash of the key lives in configuration
type APIKeyMiddleware struct {
	securityConfig *config.SecurityConfig
}

// NewAPIKeyMiddleware creates a new API key middleware
func NewAPIKeyMiddleware(securityConfig *config.SecurityConfig) *APIKeyMiddleware {
	return &APIKeyMiddleware{
		securityConfig: securityConfig,
	}
}

// Require validates the API key header against the configured hash
// When RequireAPIKey is disabled the middleware passes everything through,
// which is how local development runs
func (m *APIKeyMiddleware) Require() fiber.Handler {
	return func(c fiber.Ctx) error {
		if !m.securityConfig.RequireAPIKey {
			return c.Next()
		}

		key := c.Get(m.securityConfig.APIKeyHeader)
		if key == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
				Success: false,
				Message: "API key is required",
				Error: dto.ErrorDetail{
					Code: "MISSING_API_KEY",
				},
			})
		}

		if err := bcrypt.CompareHashAndPassword([]byte(m.securityConfig.APIKeyHash), []byte(key)); err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
				Success: false,
				Message: "Invalid API key",
				Error: dto.ErrorDetail{
					Code: "INVALID_API_KEY",
				},
			})
		}

		return c.Next()
	}
}
