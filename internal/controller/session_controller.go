package controller

import (
	"stratos-backend/internal/dto"
	"stratos-backend/internal/pkg/serverutils"
	"stratos-backend/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ISessionController interface {
	RegisterRoutes(r fiber.Router)
	Start(ctx *fiber.Ctx) error
	Message(ctx *fiber.Ctx) error
	Consent(ctx *fiber.Ctx) error
	Status(ctx *fiber.Ctx) error
	Transcript(ctx *fiber.Ctx) error
}

type sessionController struct {
	orchestrator service.IOrchestratorService
}

func NewSessionController(orchestrator service.IOrchestratorService) ISessionController {
	return &sessionController{
		orchestrator: orchestrator,
	}
}

func (c *sessionController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/session/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("", c.Start)
	h.Post(":id/message", c.Message)
	h.Post(":id/consent", c.Consent)
	h.Get(":id/status", c.Status)
	h.Get(":id/transcript", c.Transcript)
}

func (c *sessionController) Start(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	var req dto.StartSessionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.orchestrator.StartSession(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success start session", res))
}

func (c *sessionController) Message(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	sessionId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid session id")
	}

	var req dto.UserMessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	req.SessionId = sessionId

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.orchestrator.HandleUserMessage(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success submit message", res))
}

func (c *sessionController) Consent(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	sessionId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid session id")
	}

	res, err := c.orchestrator.AcceptConsent(ctx.Context(), userId, sessionId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success accept consent", res))
}

func (c *sessionController) Status(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	sessionId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid session id")
	}

	res, err := c.orchestrator.GetStatus(ctx.Context(), userId, sessionId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show session status", res))
}

func (c *sessionController) Transcript(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	sessionId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid session id")
	}

	res, err := c.orchestrator.GetTranscript(ctx.Context(), userId, sessionId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show transcript", res))
}
