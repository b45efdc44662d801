// Package web provides the HTTP handlers for the delivery workflow API.
package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/handofflabs/handoff/pkg/models"
	"github.com/handofflabs/handoff/pkg/services"
)

// Principal headers set by the identity layer in front of this API. The
// engine never reads ambient session state; every request carries its actor.
const (
	HeaderPrincipalID   = "X-Principal-Id"
	HeaderPrincipalName = "X-Principal-Name"
	HeaderPrincipalRole = "X-Principal-Role"
)

type APIHandlers struct {
	deliveryService *services.Delivery
	workItemService *services.WorkItem
	validator       *validator.Validate
}

func NewAPIHandlers(
	deliveryService *services.Delivery,
	workItemService *services.WorkItem,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		deliveryService: deliveryService,
		workItemService: workItemService,
		validator:       validator,
	}
}

// principal resolves the acting principal from request headers.
func (h *APIHandlers) principal(c fiber.Ctx) (models.Principal, error) {
	p := models.Principal{
		ID:   c.Get(HeaderPrincipalID),
		Name: c.Get(HeaderPrincipalName),
		Role: models.Role(c.Get(HeaderPrincipalRole)),
	}

	err := h.validator.Struct(p)
	if err != nil {
		return models.Principal{}, err
	}

	return p, nil
}

func (h *APIHandlers) SubmitDelivery(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Work item ID is required")
	}

	principal, err := h.principal(c)
	if err != nil {
		return badRequest(c, "Missing or invalid principal headers: "+err.Error())
	}

	var req SubmitDeliveryRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	artifacts := make([]models.Artifact, 0, len(req.Artifacts))
	for _, a := range req.Artifacts {
		artifacts = append(artifacts, models.Artifact{Ref: a.Ref, Label: a.Label, CommitRef: a.CommitRef})
	}

	item, err := h.deliveryService.Submit(c.Context(), principal, id, services.SubmitRequest{
		Artifacts: artifacts,
		Note:      req.Note,
		CommitRef: req.CommitRef,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(item)
}

func (h *APIHandlers) ApproveDelivery(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Work item ID is required")
	}

	principal, err := h.principal(c)
	if err != nil {
		return badRequest(c, "Missing or invalid principal headers: "+err.Error())
	}

	var req ApproveDeliveryRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	item, err := h.deliveryService.Approve(c.Context(), principal, id, services.ApproveRequest{
		Decision: req.Decision,
		Note:     req.Note,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(item)
}

func (h *APIHandlers) GetPermissions(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Work item ID is required")
	}

	principal, err := h.principal(c)
	if err != nil {
		return badRequest(c, "Missing or invalid principal headers: "+err.Error())
	}

	canSubmit, err := h.deliveryService.CanSubmit(c.Context(), principal, id)
	if err != nil {
		return handleServiceError(c, err)
	}

	canApprove, err := h.deliveryService.CanApprove(c.Context(), principal, id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(PermissionsResponse{
		CanSubmitDelivery:  canSubmit,
		CanApproveDelivery: canApprove,
	})
}

func (h *APIHandlers) GetWorkItem(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Work item ID is required")
	}

	item, err := h.workItemService.FetchByID(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(item)
}

func (h *APIHandlers) GetWorkItemHistory(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Work item ID is required")
	}

	item, err := h.workItemService.FetchByID(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"work_item_id": item.ID,
		"history":      item.History,
	})
}

func (h *APIHandlers) GetWorkItems(c fiber.Ctx) error {
	req, err := h.parseListWorkItemsRequest(c)
	if err != nil {
		return badRequest(c, "Invalid query parameters: "+err.Error())
	}

	result, err := h.workItemService.ListWorkItems(c.Context(), *req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"work_items":    result.WorkItems,
		"total_count":   result.TotalCount,
		"has_next_page": result.HasNextPage,
		"pagination": fiber.Map{
			"limit":  req.Limit,
			"offset": req.Offset,
		},
	})
}

// parseListWorkItemsRequest parses and validates query parameters for listing work items.
func (h *APIHandlers) parseListWorkItemsRequest(c fiber.Ctx) (*services.ListWorkItemsRequest, error) {
	req := &services.ListWorkItemsRequest{}

	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			return nil, err
		}

		req.Limit = limit
	}

	if offsetStr := c.Query("offset"); offsetStr != "" {
		offset, err := strconv.Atoi(offsetStr)
		if err != nil {
			return nil, err
		}

		req.Offset = offset
	}

	req.ProjectID = c.Query("project_id")
	req.AssigneeID = c.Query("assignee_id")

	if kindStr := c.Query("kind"); kindStr != "" {
		kind := models.ItemKind(kindStr)
		req.Kind = &kind
	}

	if statusStr := c.Query("delivery_status"); statusStr != "" {
		status := models.DeliveryStatus(statusStr)
		req.DeliveryStatus = &status
	}

	req.SortBy = c.Query("sort_by")
	req.SortOrder = c.Query("sort_order")

	return req, nil
}

func (h *APIHandlers) CreateWorkItem(c fiber.Ctx) error {
	var req CreateWorkItemRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	item := &models.WorkItem{
		ProjectID:           req.ProjectID,
		Kind:                req.Kind,
		Title:               req.Title,
		AssigneeID:          req.AssigneeID,
		OperationsContactID: req.OperationsContactID,
		ReviewerID:          req.ReviewerID,
		QAID:                req.QAID,
	}

	created, err := h.workItemService.Create(c.Context(), item)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) UpdateLifecycle(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Work item ID is required")
	}

	principal, err := h.principal(c)
	if err != nil {
		return badRequest(c, "Missing or invalid principal headers: "+err.Error())
	}

	var req UpdateLifecycleRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	item, err := h.workItemService.UpdateLifecycle(c.Context(), principal, id, req.Status)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(item)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, repOk := h.workItemService.HealthCheck(c.Context())

	status := "unhealthy"
	message := "Handoff API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if repOk {
		status = "healthy"
		message = "Handoff API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}
