package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"alfredoptarigan/recruit-dashboard/internal/services"
)

type JobHandler struct {
	jobs services.JobService
}

func NewJobHandler(jobs services.JobService) *JobHandler {
	return &JobHandler{jobs: jobs}
}

func (h *JobHandler) HandleList(c *fiber.Ctx) error {
	jobs, err := h.jobs.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(jobs)
}

func (h *JobHandler) HandleGet(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid job ID format")
	}

	job, err := h.jobs.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(job)
}

func (h *JobHandler) HandleCreate(c *fiber.Ctx) error {
	var input services.JobInput
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "Invalid job data")
	}

	job, err := h.jobs.Create(c.UserContext(), input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(job)
}

func (h *JobHandler) HandleUpdate(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid job ID format")
	}

	var input services.JobInput
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "Invalid job data")
	}

	job, err := h.jobs.Update(c.UserContext(), id, input)
	if err != nil {
		return err
	}
	return c.JSON(job)
}

func (h *JobHandler) HandleDelete(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid job ID format")
	}

	if err := h.jobs.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "Job deleted",
	})
}
