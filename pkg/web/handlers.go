package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/simgate/simgate/pkg/models"
	"github.com/simgate/simgate/pkg/registry"
	"github.com/simgate/simgate/pkg/services"
)

type APIHandlers struct {
	runService     *services.Run
	catalogService *services.Catalog
	validator      *validator.Validate
	registry       *registry.Registry
}

func NewAPIHandlers(
	runService *services.Run,
	catalogService *services.Catalog,
	validator *validator.Validate,
	registry *registry.Registry,
) *APIHandlers {
	return &APIHandlers{
		runService:     runService,
		catalogService: catalogService,
		validator:      validator,
		registry:       registry,
	}
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	registryCheck, regOk := h.registry.HealthCheck()
	repositoryCheck, repOk := h.runService.HealthCheck(c.Context())

	status := "unhealthy"
	message := "simgate API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if regOk && repOk {
		status = "healthy"
		message = "simgate API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"registry":   registryCheck,
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

// GetNodeTypes lists the node catalog.
func (h *APIHandlers) GetNodeTypes(c fiber.Ctx) error {
	return c.JSON(h.catalogService.NodeTypes())
}

// GetNodeType returns the full documentation and input schema for one node
// type.
func (h *APIHandlers) GetNodeType(c fiber.Ctx) error {
	nodeType := c.Params("type")
	if nodeType == "" {
		return badRequest(c, "Node type is required")
	}

	detail, err := h.catalogService.Describe(c.Context(), nodeType)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(detail)
}

// CreateRun validates and queues a run.
func (h *APIHandlers) CreateRun(c fiber.Ctx) error {
	var req CreateRunRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	run, err := h.runService.Submit(c.Context(), &services.SubmitRunRequest{
		NodeType: req.NodeType,
		Inputs:   req.Inputs,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(run)
}

// GetRun fetches one run by ID.
func (h *APIHandlers) GetRun(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Run ID is required")
	}

	run, err := h.runService.FetchByID(c.Context(), id)
	if err != nil {
		if services.IsNotFoundError(err) {
			return notFound(c, "Run not found")
		}

		return internalError(c, err)
	}

	return c.JSON(run)
}

// GetRuns lists runs with filtering, sorting and pagination.
func (h *APIHandlers) GetRuns(c fiber.Ctx) error {
	req, err := h.parseListRunsRequest(c)
	if err != nil {
		return badRequest(c, "Invalid query parameters: "+err.Error())
	}

	result, err := h.runService.ListRuns(c.Context(), *req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"runs":          result.Runs,
		"total_count":   result.TotalCount,
		"has_next_page": result.HasNextPage,
		"pagination": fiber.Map{
			"limit":  req.Limit,
			"offset": req.Offset,
		},
		"sorting": fiber.Map{
			"sort_by":    req.SortBy,
			"sort_order": req.SortOrder,
		},
	})
}

// parseListRunsRequest parses and validates query parameters for listing
// runs.
func (h *APIHandlers) parseListRunsRequest(c fiber.Ctx) (*services.ListRunsRequest, error) {
	req := &services.ListRunsRequest{}

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

	if statusStr := c.Query("status"); statusStr != "" {
		status := models.RunStatus(statusStr)
		req.Status = &status
	}

	req.NodeType = c.Query("node_type")
	req.SortBy = c.Query("sort_by")
	req.SortOrder = c.Query("sort_order")

	return req, nil
}
