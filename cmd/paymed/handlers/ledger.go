package handlers

import (
	"github.com/payme/contracts/internal/platform/host"

	"github.com/gofiber/fiber/v2"
)

// Ledger exposes the host ledger sequence.
type Ledger struct {
	Host *host.Host
}

// Sequence returns the current ledger sequence.
func (l *Ledger) Sequence(c *fiber.Ctx) error {
	seq, err := l.Host.Sequence(c.UserContext())
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"sequence": seq})
}
