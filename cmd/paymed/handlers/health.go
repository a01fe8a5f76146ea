package handlers

import (
	"context"
	"time"

	"github.com/payme/contracts/internal/platform/db"

	"github.com/gofiber/fiber/v2"
)

// Health reports whether storage is reachable.
type Health struct {
	MasterDB *db.DB
}

// Check runs the DB status check.
func (h *Health) Check(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	status := fiber.StatusOK
	dbStatus := "ok"
	if err := h.MasterDB.StatusCheck(ctx); err != nil {
		status = fiber.StatusServiceUnavailable
		dbStatus = err.Error()
	}

	return c.Status(status).JSON(fiber.Map{
		"storage":   dbStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	})
}
