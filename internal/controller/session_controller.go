package controller

import (
	"context"
	"sync"

	"campaign-session/internal/dto"
	"campaign-session/internal/identity"
	"campaign-session/internal/mapper"
	"campaign-session/internal/pkg/logger"
	"campaign-session/internal/pkg/serverutils"
	"campaign-session/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ISessionController interface {
	// RegisterRoutes mounts the session routes; authMiddleware guards the
	// sign-in and sign-out routes only.
	RegisterRoutes(r fiber.Router, authMiddleware ...fiber.Handler)
	GetState(ctx *fiber.Ctx) error
	CheckAuth(ctx *fiber.Ctx) error
	SignIn(ctx *fiber.Ctx) error
	SignOut(ctx *fiber.Ctx) error
	UpdateProfile(ctx *fiber.Ctx) error
	AddPrompt(ctx *fiber.Ctx) error
	RefreshCampaigns(ctx *fiber.Ctx) error
	GetCampaigns(ctx *fiber.Ctx) error

	// Resubscribe starts a new identity observation and stops the previous
	// one. Close stops the current one.
	Resubscribe(ctx context.Context)
	Close()
}

type sessionController struct {
	service service.ISessionService
	log     logger.ILogger

	mu          sync.Mutex
	unsubscribe identity.Unsubscribe
}

func NewSessionController(service service.ISessionService, log logger.ILogger) ISessionController {
	return &sessionController{service: service, log: log}
}

func (c *sessionController) RegisterRoutes(r fiber.Router, authMiddleware ...fiber.Handler) {
	r.Get("/session", c.GetState)
	r.Post("/session/check", c.CheckAuth)

	auth := r.Group("/auth", authMiddleware...)
	auth.Post("/signin", c.SignIn)
	auth.Post("/signout", c.SignOut)

	profile := r.Group("/profile")
	profile.Patch("/", c.UpdateProfile)
	profile.Post("/prompts", c.AddPrompt)

	campaigns := r.Group("/campaigns")
	campaigns.Get("/", c.GetCampaigns)
	campaigns.Post("/refresh", c.RefreshCampaigns)
}

func (c *sessionController) state() dto.SessionStateResponse {
	return mapper.ToSessionStateResponse(c.service.State())
}

func (c *sessionController) GetState(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Session state", c.state()))
}

func (c *sessionController) Resubscribe(ctx context.Context) {
	next := c.service.CheckAuth(ctx)

	c.mu.Lock()
	prev := c.unsubscribe
	c.unsubscribe = next
	c.mu.Unlock()

	if prev != nil {
		prev()
	}
}

func (c *sessionController) Close() {
	c.mu.Lock()
	prev := c.unsubscribe
	c.unsubscribe = nil
	c.mu.Unlock()

	if prev != nil {
		prev()
	}
}

func (c *sessionController) CheckAuth(ctx *fiber.Ctx) error {
	c.Resubscribe(ctx.UserContext())
	return ctx.JSON(serverutils.SuccessResponse("Session checked", c.state()))
}

// SignIn blocks until the user finishes the browser consent flow.
func (c *sessionController) SignIn(ctx *fiber.Ctx) error {
	if err := c.service.SignIn(ctx.UserContext()); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Signed in", c.state()))
}

func (c *sessionController) SignOut(ctx *fiber.Ctx) error {
	if err := c.service.SignOut(ctx.UserContext()); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Sign out processed", c.state()))
}

func (c *sessionController) UpdateProfile(ctx *fiber.Ctx) error {
	var req dto.UpdateProfileRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.service.UpdateProfile(ctx.UserContext(), mapper.ToProfileFields(req)); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Profile update processed", c.state()))
}

func (c *sessionController) AddPrompt(ctx *fiber.Ctx) error {
	var req dto.AddPromptRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.service.AddPrompt(ctx.UserContext(), req.Prompt); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Prompt processed", c.state()))
}

func (c *sessionController) RefreshCampaigns(ctx *fiber.Ctx) error {
	if err := c.service.FetchCampaigns(ctx.UserContext()); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Campaigns refreshed", dto.CampaignListResponse{
		Campaigns: c.service.Campaigns(),
	}))
}

func (c *sessionController) GetCampaigns(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Campaigns", dto.CampaignListResponse{
		Campaigns: c.service.Campaigns(),
	}))
}
