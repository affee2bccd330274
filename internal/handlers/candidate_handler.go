package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"alfredoptarigan/recruit-dashboard/internal/models"
	"alfredoptarigan/recruit-dashboard/internal/services"
)

type CandidateHandler struct {
	candidates services.CandidateService
}

func NewCandidateHandler(candidates services.CandidateService) *CandidateHandler {
	return &CandidateHandler{candidates: candidates}
}

func (h *CandidateHandler) HandleList(c *fiber.Ctx) error {
	resp, err := h.candidates.List(c.UserContext(), c.QueryInt("page", 1), c.QueryInt("limit", 10))
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

func (h *CandidateHandler) HandleSimilar(c *fiber.Ctx) error {
	results, err := h.candidates.SearchSimilar(c.UserContext(), strings.TrimSpace(c.Query("q")), c.QueryInt("limit", 10))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"results": results,
	})
}

func (h *CandidateHandler) HandleGet(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid candidate ID format")
	}

	candidate, err := h.candidates.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(candidate)
}

func (h *CandidateHandler) HandleCreate(c *fiber.Ctx) error {
	var data models.CandidateData
	if err := c.BodyParser(&data); err != nil {
		return badRequest(c, "Invalid candidate data")
	}

	candidate, err := h.candidates.Create(c.UserContext(), data)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(candidate)
}

func (h *CandidateHandler) HandleUpdate(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid candidate ID format")
	}

	var data models.CandidateData
	if err := c.BodyParser(&data); err != nil {
		return badRequest(c, "Invalid candidate data")
	}

	candidate, err := h.candidates.Update(c.UserContext(), id, data)
	if err != nil {
		return err
	}
	return c.JSON(candidate)
}

func (h *CandidateHandler) HandleDelete(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid candidate ID format")
	}

	if err := h.candidates.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "Candidate deleted",
	})
}
