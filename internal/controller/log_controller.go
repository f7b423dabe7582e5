package controller

import (
	"campaign-session/internal/dto"
	"campaign-session/internal/pkg/logger"
	"campaign-session/internal/pkg/serverutils"

	"github.com/gofiber/fiber/v2"
)

type ILogController interface {
	RegisterRoutes(r fiber.Router)
	GetLogs(ctx *fiber.Ctx) error
}

type logController struct {
	logger logger.ILogger
}

func NewLogController(log logger.ILogger) ILogController {
	return &logController{logger: log}
}

func (c *logController) RegisterRoutes(r fiber.Router) {
	r.Get("/logs", c.GetLogs)
}

func (c *logController) GetLogs(ctx *fiber.Ctx) error {
	q := dto.LogQuery{Limit: 50}
	if err := ctx.QueryParser(&q); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid query")
	}
	if err := serverutils.ValidateRequest(q); err != nil {
		return err
	}

	entries, err := c.logger.GetLogs(q.Level, q.Limit, q.Offset)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Logs", entries))
}
