package handlers

import (
	"context"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/outlinkhq/outlink/app/dto"
	businessflow "github.com/outlinkhq/outlink/business_flow"
	"github.com/outlinkhq/outlink/utils"
)

// LinkAdminHandlerInterface defines the admin endpoints for tracked links
type LinkAdminHandlerInterface interface {
	List(c fiber.Ctx) error
	Create(c fiber.Ctx) error
	Update(c fiber.Ctx) error
	Delete(c fiber.Ctx) error
	ResetStatistics(c fiber.Ctx) error
	Reconcile(c fiber.Ctx) error
	ExportExcel(c fiber.Ctx) error
}

// LinkAdminHandler implements the admin link endpoints
type LinkAdminHandler struct {
	flow      businessflow.LinkAdminFlow
	validator *validator.Validate
}

func NewLinkAdminHandler(flow businessflow.LinkAdminFlow) LinkAdminHandlerInterface {
	return &LinkAdminHandler{
		flow:      flow,
		validator: validator.New(),
	}
}

func (h *LinkAdminHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, code string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{Success: false, Message: message, Error: dto.ErrorDetail{Code: code, Details: details}})
}

// List returns all links together with the analytics summary
// @Summary List Affiliate Links
// @Tags AffiliateLinks
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.LinkListResponse}
// @Failure 500 {object} dto.APIResponse
// @Router /api/affiliate-links [get]
func (h *LinkAdminHandler) List(c fiber.Ctx) error {
	res, err := h.flow.List(h.createRequestContext(c, "/api/affiliate-links"))
	if err != nil {
		log.Println("List links failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch links", "FETCH_LINKS_FAILED", nil)
	}
	return c.Status(fiber.StatusOK).JSON(dto.APIResponse{Success: true, Message: "Links fetched", Data: res})
}

// Create registers a tracked link explicitly
// @Summary Create Affiliate Link
// @Tags AffiliateLinks
// @Accept json
// @Produce json
// @Param request body dto.CreateLinkRequest true "Link to create"
// @Success 201 {object} dto.APIResponse{data=dto.LinkDTO}
// @Failure 400 {object} dto.APIResponse
// @Failure 409 {object} dto.APIResponse
// @Failure 500 {object} dto.APIResponse
// @Router /api/affiliate-links [post]
func (h *LinkAdminHandler) Create(c fiber.Ctx) error {
	var req dto.CreateLinkRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", h.validationDetails(err))
	}

	res, err := h.flow.Create(h.createRequestContext(c, "/api/affiliate-links"), &req)
	if err != nil {
		return h.flowError(c, err, "Failed to create link", "LINK_CREATE_FAILED")
	}
	return c.Status(fiber.StatusCreated).JSON(dto.APIResponse{Success: true, Message: "Link created", Data: res})
}

// Update edits a link's title or destination; the slug never changes
// @Summary Update Affiliate Link
// @Tags AffiliateLinks
// @Accept json
// @Produce json
// @Param uuid path string true "Link UUID"
// @Param request body dto.UpdateLinkRequest true "Fields to update"
// @Success 200 {object} dto.APIResponse{data=dto.LinkDTO}
// @Failure 400 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse
// @Failure 500 {object} dto.APIResponse
// @Router /api/affiliate-links/{uuid} [put]
func (h *LinkAdminHandler) Update(c fiber.Ctx) error {
	linkUUID := c.Params("uuid")
	var req dto.UpdateLinkRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", h.validationDetails(err))
	}

	res, err := h.flow.Update(h.createRequestContext(c, "/api/affiliate-links/"+linkUUID), linkUUID, &req)
	if err != nil {
		return h.flowError(c, err, "Failed to update link", "LINK_UPDATE_FAILED")
	}
	return c.Status(fiber.StatusOK).JSON(dto.APIResponse{Success: true, Message: "Link updated", Data: res})
}

// Delete removes a link and its click history
// @Summary Delete Affiliate Link
// @Tags AffiliateLinks
// @Produce json
// @Param uuid path string true "Link UUID"
// @Success 200 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse
// @Failure 500 {object} dto.APIResponse
// @Router /api/affiliate-links/{uuid} [delete]
func (h *LinkAdminHandler) Delete(c fiber.Ctx) error {
	linkUUID := c.Params("uuid")
	if err := h.flow.Delete(h.createRequestContext(c, "/api/affiliate-links/"+linkUUID), linkUUID); err != nil {
		return h.flowError(c, err, "Failed to delete link", "LINK_DELETE_FAILED")
	}
	return c.Status(fiber.StatusOK).JSON(dto.APIResponse{Success: true, Message: "Link deleted"})
}

// ResetStatistics wipes all click history and zeroes every counter
// @Summary Reset Link Statistics
// @Tags AffiliateLinks
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.ResetStatisticsResponse}
// @Failure 500 {object} dto.APIResponse
// @Router /api/affiliate-links/reset [post]
func (h *LinkAdminHandler) ResetStatistics(c fiber.Ctx) error {
	res, err := h.flow.ResetStatistics(h.createRequestContext(c, "/api/affiliate-links/reset"))
	if err != nil {
		log.Println("Reset statistics failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to reset statistics", "RESET_STATISTICS_FAILED", nil)
	}
	return c.Status(fiber.StatusOK).JSON(dto.APIResponse{Success: true, Message: "Statistics reset", Data: res})
}

// Reconcile recomputes click counters from the recorded click history
// @Summary Reconcile Link Counters
// @Tags AffiliateLinks
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.ReconcileResponse}
// @Failure 500 {object} dto.APIResponse
// @Router /api/affiliate-links/reconcile [post]
func (h *LinkAdminHandler) Reconcile(c fiber.Ctx) error {
	res, err := h.flow.Reconcile(h.createRequestContext(c, "/api/affiliate-links/reconcile"))
	if err != nil {
		log.Println("Reconcile failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to reconcile counters", "RECONCILE_FAILED", nil)
	}
	return c.Status(fiber.StatusOK).JSON(dto.APIResponse{Success: true, Message: "Counters reconciled", Data: res})
}

// ExportExcel downloads an xlsx workbook of links and click events
// @Summary Export Affiliate Links
// @Tags AffiliateLinks
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {string} string "xlsx file"
// @Failure 500 {object} dto.APIResponse
// @Router /api/affiliate-links/export [get]
func (h *LinkAdminHandler) ExportExcel(c fiber.Ctx) error {
	filename, data, err := h.flow.ExportExcel(h.createRequestContext(c, "/api/affiliate-links/export"))
	if err != nil {
		log.Println("Export links failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to generate export", "EXPORT_FAILED", nil)
	}
	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", "attachment; filename="+filename)
	return c.Send(data)
}

// flowError maps business errors onto status codes; anything unexpected
// answers 500 with the fallback code
func (h *LinkAdminHandler) flowError(c fiber.Ctx, err error, fallbackMessage, fallbackCode string) error {
	switch {
	case businessflow.IsInvalidURL(err):
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid destination URL", "INVALID_URL", nil)
	case businessflow.IsInvalidSlug(err):
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid slug", "INVALID_SLUG", nil)
	case businessflow.IsReservedSlug(err):
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Slug is reserved", "RESERVED_SLUG", nil)
	case businessflow.IsSlugTaken(err):
		return h.ErrorResponse(c, fiber.StatusConflict, "Slug already in use", "SLUG_TAKEN", nil)
	case businessflow.IsLinkNotFound(err):
		return h.ErrorResponse(c, fiber.StatusNotFound, "Link not found", "LINK_NOT_FOUND", nil)
	}
	log.Println(fallbackMessage+":", err)
	return h.ErrorResponse(c, fiber.StatusInternalServerError, fallbackMessage, fallbackCode, nil)
}

func (h *LinkAdminHandler) validationDetails(err error) any {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	details := make([]string, 0, len(validationErrors))
	for _, fieldErr := range validationErrors {
		details = append(details, getValidationErrorMessage(fieldErr))
	}
	return details
}

func (h *LinkAdminHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 10*time.Second)
}

func (h *LinkAdminHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)
	return ctx
}
