package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	CV         *CVHandler
	Candidates *CandidateHandler
	Jobs       *JobHandler
}

// Register mounts the API routes on router, usually the /api/v1 group.
func Register(router fiber.Router, h Handlers) {
	router.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now(),
		})
	})

	cv := router.Group("/cv")
	cv.Post("/upload", h.CV.HandleUpload)
	cv.Post("/process", h.CV.HandleProcess)

	candidates := router.Group("/candidates")
	candidates.Get("/", h.Candidates.HandleList)
	candidates.Get("/similar", h.Candidates.HandleSimilar)
	candidates.Post("/", h.Candidates.HandleCreate)
	candidates.Get("/:id", h.Candidates.HandleGet)
	candidates.Put("/:id", h.Candidates.HandleUpdate)
	candidates.Delete("/:id", h.Candidates.HandleDelete)

	jobs := router.Group("/jobs")
	jobs.Get("/", h.Jobs.HandleList)
	jobs.Post("/", h.Jobs.HandleCreate)
	jobs.Get("/:id", h.Jobs.HandleGet)
	jobs.Put("/:id", h.Jobs.HandleUpdate)
	jobs.Delete("/:id", h.Jobs.HandleDelete)
}
