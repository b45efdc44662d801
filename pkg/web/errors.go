package web

import (
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/handofflabs/handoff/pkg/persistence"
	"github.com/handofflabs/handoff/pkg/services"
	"github.com/moogar0880/problems"
)

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func notFound(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(404).
		WithInstance(c.Path()).
		WithType("not_found").
		WithDetail(detail)

	return c.Status(fiber.StatusNotFound).JSON(problem)
}

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(500).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

// handleServiceError maps typed service errors onto problem responses. The
// authorization denial reason travels in the problem type so the UI can
// explain exactly why an action is unavailable.
func handleServiceError(c fiber.Ctx, err error) error {
	switch {
	case services.IsValidationError(err):
		problem := problems.NewStatusProblem(400).
			WithInstance(c.Path()).
			WithType("validation_error").
			WithDetail(err.Error())

		return c.Status(fiber.StatusBadRequest).JSON(problem)

	case services.IsForbidden(err):
		reason, _ := services.ForbiddenReason(err)

		problem := problems.NewStatusProblem(403).
			WithInstance(c.Path()).
			WithType("forbidden_" + strings.ToLower(string(reason))).
			WithDetail(err.Error())

		return c.Status(fiber.StatusForbidden).JSON(problem)

	case persistence.IsWorkItemNotFound(err):
		problem := problems.NewStatusProblem(404).
			WithInstance(c.Path()).
			WithType("work_item_not_found").
			WithDetail("work item not found")

		return c.Status(fiber.StatusNotFound).JSON(problem)

	case services.IsConflictError(err):
		problem := problems.NewStatusProblem(409).
			WithInstance(c.Path()).
			WithType("conflict").
			WithDetail("work item changed concurrently, re-fetch and retry")

		return c.Status(fiber.StatusConflict).JSON(problem)

	case persistence.IsStoreUnavailable(err):
		problem := problems.NewStatusProblem(503).
			WithInstance(c.Path()).
			WithType("store_unavailable").
			WithDetail("storage temporarily unavailable, retry with backoff")

		return c.Status(fiber.StatusServiceUnavailable).JSON(problem)

	default:
		problem := problems.NewStatusProblem(500).
			WithInstance(c.Path()).
			WithType("internal_error").
			WithError(err)

		return c.Status(fiber.StatusInternalServerError).JSON(problem)
	}
}
