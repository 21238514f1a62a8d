package controller

import (
	"ai-agent-be/internal/dto"
	"ai-agent-be/internal/pkg/serverutils"
	"ai-agent-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	NewSession(ctx *fiber.Ctx) error
	SendMessage(ctx *fiber.Ctx) error
	LoadHistory(ctx *fiber.Ctx) error
	ListSessions(ctx *fiber.Ctx) error
	DeleteSession(ctx *fiber.Ctx) error
	RenameSession(ctx *fiber.Ctx) error
}

type chatController struct {
	service service.IChatService
}

func NewChatController(service service.IChatService) IChatController {
	return &chatController{service: service}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat")
	h.Post("/new", c.NewSession)
	h.Post("/message/:chat_id", c.SendMessage)
	h.Get("/load/:chat_id", c.LoadHistory)
	h.Get("/list", c.ListSessions)
	h.Delete("/delete/:chat_id", c.DeleteSession)
	h.Post("/rename/:chat_id", c.RenameSession)
}

func (c *chatController) NewSession(ctx *fiber.Ctx) error {
	userId := serverutils.UserId(ctx)

	res, err := c.service.CreateSession(ctx.Context(), userId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success create chat session", res))
}

func (c *chatController) SendMessage(ctx *fiber.Ctx) error {
	userId := serverutils.UserId(ctx)
	chatId, err := uuid.Parse(ctx.Params("chat_id"))
	if err != nil {
		return serverutils.BadRequest("Invalid chat id")
	}

	var req dto.SendChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return serverutils.BadRequest("Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.SendChat(ctx.Context(), userId, chatId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success send message", res))
}

func (c *chatController) LoadHistory(ctx *fiber.Ctx) error {
	userId := serverutils.UserId(ctx)
	chatId, err := uuid.Parse(ctx.Params("chat_id"))
	if err != nil {
		return serverutils.BadRequest("Invalid chat id")
	}

	res, err := c.service.GetChatHistory(ctx.Context(), userId, chatId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success load chat history", res))
}

func (c *chatController) ListSessions(ctx *fiber.Ctx) error {
	userId := serverutils.UserId(ctx)

	res, err := c.service.GetAllSessions(ctx.Context(), userId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list chat sessions", res))
}

func (c *chatController) DeleteSession(ctx *fiber.Ctx) error {
	userId := serverutils.UserId(ctx)
	chatId, err := uuid.Parse(ctx.Params("chat_id"))
	if err != nil {
		return serverutils.BadRequest("Invalid chat id")
	}

	if err := c.service.DeleteSession(ctx.Context(), userId, chatId); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete chat session", nil))
}

func (c *chatController) RenameSession(ctx *fiber.Ctx) error {
	userId := serverutils.UserId(ctx)
	chatId, err := uuid.Parse(ctx.Params("chat_id"))
	if err != nil {
		return serverutils.BadRequest("Invalid chat id")
	}

	var req dto.RenameSessionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return serverutils.BadRequest("Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.service.RenameSession(ctx.Context(), userId, chatId, &req); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success rename chat session", nil))
}
