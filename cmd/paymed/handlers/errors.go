package handlers

import (
	"github.com/payme/contracts/internal/platform/logger"
	"github.com/payme/contracts/pkg/protocol"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
)

var errUnauthenticated = errors.New("Missing or invalid request signature")

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    uint8  `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// rejectionStatus maps rejection codes to HTTP status codes.
var rejectionStatus = map[protocol.RejectionCode]int{
	protocol.RejectAlreadyInitialized:    fiber.StatusConflict,
	protocol.RejectNotInitialized:        fiber.StatusNotFound,
	protocol.RejectUnauthorized:          fiber.StatusForbidden,
	protocol.RejectInvalidSalary:         fiber.StatusBadRequest,
	protocol.RejectInvalidName:           fiber.StatusBadRequest,
	protocol.RejectEmployeeAlreadyExists: fiber.StatusConflict,
	protocol.RejectEmployeeNotFound:      fiber.StatusNotFound,
	protocol.RejectSameRank:              fiber.StatusUnprocessableEntity,
	protocol.RejectInsufficientBalance:   fiber.StatusUnprocessableEntity,
	protocol.RejectInsufficientAllowance: fiber.StatusUnprocessableEntity,
	protocol.RejectAllowanceExpired:      fiber.StatusUnprocessableEntity,
	protocol.RejectInvalidAmount:         fiber.StatusBadRequest,
}

// errorHandler renders rejections as 4xx responses and everything else as a 500.
func errorHandler(c *fiber.Ctx, err error) error {
	ctx := c.UserContext()

	if err == errUnauthenticated {
		logger.Warn(ctx, "Unauthenticated %s %s", c.Method(), c.Path())
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
			Error:   protocol.RejectUnauthorized.String(),
			Code:    uint8(protocol.RejectUnauthorized),
			Message: err.Error(),
		})
	}

	if rejection := protocol.RejectionFromError(err); rejection != nil {
		logger.Warn(ctx, "Rejected %s %s : %s", c.Method(), c.Path(), rejection.Code)

		status, exists := rejectionStatus[rejection.Code]
		if !exists {
			status = fiber.StatusBadRequest
		}
		return c.Status(status).JSON(ErrorResponse{
			Error:   rejection.Code.String(),
			Code:    uint8(rejection.Code),
			Message: rejection.Error(),
		})
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(ErrorResponse{
			Error:   "Request",
			Message: fe.Message,
		})
	}

	logger.Error(ctx, "Failed %s %s : %s", c.Method(), c.Path(), err)
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
		Error: "Internal",
	})
}

// badRequest wraps a decode failure.
func badRequest(err error) error {
	return fiber.NewError(fiber.StatusBadRequest, err.Error())
}
