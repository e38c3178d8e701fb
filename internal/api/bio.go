package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/illegalcall/cofoundr-waitlist/internal/bio"
	"github.com/illegalcall/cofoundr-waitlist/internal/metrics"
	"github.com/illegalcall/cofoundr-waitlist/internal/models"
)

func (s *Server) handleGenerateBio(c *fiber.Ctx) error {
	var req models.GenerateBioRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	text, err := s.bio.Generate(c.UserContext(), bio.Input{
		FullName:    req.FullName,
		PrimaryRole: req.PrimaryRole,
		CoreSkills:  req.CoreSkills,
	})
	s.metrics.BioGenerations.WithLabelValues(metrics.Result(err)).Inc()
	switch {
	case errors.Is(err, bio.ErrDisabled):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Bio generation is not available",
		})
	case err != nil:
		s.logger.Warn("Bio generation failed", "user_id", account(c).ID, "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": s.detail("Failed to generate bio", err),
		})
	}

	return c.JSON(models.GenerateBioResponse{Bio: text, Generated: true})
}
