package controller

import (
	"stratos-backend/internal/dto"
	"stratos-backend/internal/pkg/serverutils"
	"stratos-backend/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IReportController interface {
	RegisterRoutes(r fiber.Router)
	Show(ctx *fiber.Ctx) error
	SearchEvidence(ctx *fiber.Ctx) error
}

type reportController struct {
	reportService service.IReportService
}

func NewReportController(reportService service.IReportService) IReportController {
	return &reportController{
		reportService: reportService,
	}
}

func (c *reportController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/report/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Get(":id", c.Show)
	h.Post(":id/evidence-search", c.SearchEvidence)
}

func (c *reportController) Show(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	reportId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid report id")
	}

	res, err := c.reportService.GetReport(ctx.Context(), userId, reportId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show report", res))
}

func (c *reportController) SearchEvidence(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	reportId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid report id")
	}

	var req dto.EvidenceSearchRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.reportService.SearchEvidence(ctx.Context(), userId, reportId, req.Query, req.Limit)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success search evidence", res))
}
