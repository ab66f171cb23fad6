package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fabricadesoftware/vumock/internal/store"
)

type HealthHandler struct {
	registry *store.Registry
}

func NewHealthHandler(registry *store.Registry) *HealthHandler {
	return &HealthHandler{registry: registry}
}

type HealthResponse struct {
	Status    string `json:"status"`
	Databases int    `json:"databases"`
}

// Health sits outside the signed API surface so probes need no credentials.
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status:    "ok",
		Databases: len(h.registry.Databases()),
	})
}
