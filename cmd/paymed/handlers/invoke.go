package handlers

import (
	"github.com/payme/contracts/internal/platform/host"
	"github.com/payme/contracts/pkg/address"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
)

// invoke runs fn as one host invocation in the request Context.
func invoke(c *fiber.Ctx, h *host.Host, operation string, fn host.Handler) error {
	return h.Invoke(c.UserContext(), operation, fn)
}

// addressParam decodes the route parameter name as an address.
func addressParam(c *fiber.Ctx, name string) (address.Address, error) {
	a, err := address.Decode(c.Params(name))
	if err != nil {
		return address.Address{}, badRequest(errors.Wrap(err, name))
	}
	return a, nil
}

// parseBody decodes the JSON body into v.
func parseBody(c *fiber.Ctx, v interface{}) error {
	if err := c.BodyParser(v); err != nil {
		return badRequest(errors.Wrap(err, "body"))
	}
	return nil
}
