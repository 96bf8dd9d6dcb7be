package controller

import (
	"fmt"
	"os"

	"stratos-backend/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IOAuthController interface {
	RegisterRoutes(r fiber.Router)
	Login(ctx *fiber.Ctx) error
	Callback(ctx *fiber.Ctx) error
}

type oauthController struct {
	service service.IOAuthService
}

func NewOAuthController(service service.IOAuthService) IOAuthController {
	return &oauthController{service: service}
}

func (c *oauthController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/auth")
	h.Get("/:provider", c.Login)
	h.Get("/:provider/callback", c.Callback)
}

func (c *oauthController) Login(ctx *fiber.Ctx) error {
	url, err := c.service.GetLoginURL(ctx.Params("provider"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return ctx.Redirect(url)
}

func (c *oauthController) Callback(ctx *fiber.Ctx) error {
	code := ctx.Query("code")
	if code == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Missing code")
	}

	res, err := c.service.HandleCallback(ctx.Context(), ctx.Params("provider"), code)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	frontendURL := os.Getenv("FRONTEND_URL")
	if frontendURL == "" {
		frontendURL = "http://localhost:5173"
	}

	return ctx.Redirect(fmt.Sprintf("%s/app?token=%s", frontendURL, res.AccessToken), fiber.StatusTemporaryRedirect)
}
