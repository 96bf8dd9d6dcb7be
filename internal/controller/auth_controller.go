package controller

import (
	"stratos-backend/internal/dto"
	"stratos-backend/internal/pkg/serverutils"
	"stratos-backend/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IAuthController interface {
	RegisterRoutes(r fiber.Router)
	Register(ctx *fiber.Ctx) error
	Login(ctx *fiber.Ctx) error
	Refresh(ctx *fiber.Ctx) error
	Logout(ctx *fiber.Ctx) error
}

type authController struct {
	service service.IAuthService
}

func NewAuthController(service service.IAuthService) IAuthController {
	return &authController{service: service}
}

func (c *authController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/auth")
	h.Post("/register", c.Register)
	h.Post("/login", c.Login)
	h.Post("/refresh", c.Refresh)
	h.Post("/logout", c.Logout)
}

func (c *authController) Register(ctx *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Register(ctx.Context(), &req)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	return ctx.JSON(serverutils.SuccessResponse("User registered successfully", res))
}

func (c *authController) Login(ctx *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Login(ctx.Context(), &req, ctx.IP(), ctx.Get("User-Agent"))
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	}

	return ctx.JSON(serverutils.SuccessResponse("Login successful", res))
}

func (c *authController) Refresh(ctx *fiber.Ctx) error {
	var req dto.RefreshTokenRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.RefreshToken(ctx.Context(), &req)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	}

	return ctx.JSON(serverutils.SuccessResponse("Token refreshed", res))
}

func (c *authController) Logout(ctx *fiber.Ctx) error {
	var req dto.LogoutRequest
	if err := ctx.BodyParser(&req); err != nil {
		// Stateless logout still succeeds for the client.
		return ctx.JSON(serverutils.SuccessResponse("Logged out successfully", nil))
	}

	// Token revocation failures are not surfaced to the client.
	_ = c.service.Logout(ctx.Context(), req.RefreshToken)

	return ctx.JSON(serverutils.SuccessResponse("Logged out successfully", nil))
}
