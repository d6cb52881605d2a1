package handlers

import (
	"errors"
	"log"
	"strconv"

	"makerhub-api/internal/core/domain"
	"makerhub-api/internal/core/services"
	"makerhub-api/internal/pkg/response"
	"makerhub-api/internal/pkg/validator"

	"github.com/gofiber/fiber/v2"
)

// currentUser reads what AuthMiddleware / OptionalAuth stored
func currentUser(c *fiber.Ctx) (uint, domain.Role, bool) {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return 0, "", false
	}
	role, _ := c.Locals("role").(string)
	return userID, domain.Role(role), true
}

// callerCan is false for anonymous callers
func callerCan(c *fiber.Ctx, action domain.Action) bool {
	_, role, ok := currentUser(c)
	return ok && domain.Can(role, action)
}

func paramID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Invalid "+name)
	}
	return uint(id), nil
}

func queryUint(c *fiber.Ctx, key string) *uint {
	v, err := strconv.ParseUint(c.Query(key), 10, 64)
	if err != nil || v == 0 {
		return nil
	}
	id := uint(v)
	return &id
}

// handleError maps the errors every handler shares; anything unknown is logged
// and reported as fallback with a 500
func handleError(c *fiber.Ctx, err error, fallback string) error {
	var fields validator.FieldErrors
	var transition *domain.TransitionError
	var provider *services.ProviderError
	var fe *fiber.Error

	switch {
	case errors.As(err, &fields):
		return response.ValidationError(c, fields)
	case errors.As(err, &transition):
		return response.BadRequest(c, transition.Error())
	case errors.As(err, &provider):
		return response.ProviderError(c, provider.Message, provider.Details)
	case errors.As(err, &fe):
		return response.Error(c, fe.Code, fe.Message)
	case errors.Is(err, domain.ErrInvalidInput):
		return response.BadRequest(c, err.Error())
	case errors.Is(err, domain.ErrStaleState):
		return response.Conflict(c, domain.ErrStaleState.Error())
	}

	log.Printf("❌ %s: %v", fallback, err)
	return response.InternalServerError(c, fallback)
}
