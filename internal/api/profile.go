package api

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/illegalcall/cofoundr-waitlist/internal/models"
	"github.com/illegalcall/cofoundr-waitlist/internal/profile"
)

const (
	submittedMessage = "Your CoFoundr profile has been submitted successfully."
	skippedTitle     = "Got It, You're In!"
	skippedMessage   = "We'll keep you updated on our launch. You can complete your profile any time."
)

// handleSubmitProfile accepts a multipart profile submission.
func (s *Server) handleSubmitProfile(c *fiber.Ctx) error {
	acct := account(c)

	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid multipart form",
		})
	}

	payload, err := profile.ParseMultipart(form)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   s.detail("Invalid avatar file", err),
		})
	}

	s.logger.Info("Profile submission received", "user_id", acct.ID, "has_avatar", payload.Avatar != nil)
	sub, err := s.profiles.Submit(c.UserContext(), acct, payload)
	return s.respondSubmission(c, acct, sub, err, "form")
}

// respondSubmission maps the outcome of profile.Service.Submit to a response.
func (s *Server) respondSubmission(c *fiber.Ctx, acct models.Account, sub *profile.Submission, err error, source string) error {
	s.metrics.Submissions.WithLabelValues(string(sub.Stage), source).Inc()

	var verr *profile.ValidationError
	switch {
	case err == nil:
	case errors.As(err, &verr):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid profile data.",
			"errors":  verr.Fields,
		})
	case errors.Is(err, profile.ErrUpload):
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   s.detail("Avatar upload failed", cause(err, profile.ErrUpload)),
		})
	case errors.Is(err, profile.ErrPersist):
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   s.detail("Database error", cause(err, profile.ErrPersist)),
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   s.detail("Failed to save profile", err),
		})
	}

	s.publish(c, models.EventProfileSaved, acct)
	return c.JSON(models.SubmitProfileResponse{
		Success: true,
		Profile: *sub.Profile,
		Message: submittedMessage,
	})
}

// cause strips the sentinel prefix a service error was wrapped with.
func cause(err, sentinel error) error {
	return errors.New(strings.TrimPrefix(err.Error(), sentinel.Error()+": "))
}

func (s *Server) handleGetProfile(c *fiber.Ctx) error {
	acct := account(c)

	p, err := s.profiles.Get(c.UserContext(), acct.ID)
	if errors.Is(err, profile.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Profile not found",
		})
	}
	if err != nil {
		s.logger.Error("Failed to fetch profile", "user_id", acct.ID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": s.detail("Failed to fetch profile", err),
		})
	}

	return c.JSON(fiber.Map{"profile": p})
}

func (s *Server) handleProfileStatus(c *fiber.Ctx) error {
	acct := account(c)

	ok, err := s.profiles.HasProfile(c.UserContext(), acct.ID)
	if err != nil {
		s.logger.Error("Failed to check for existing profile", "user_id", acct.ID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": s.detail("Failed to check for existing profile", err),
		})
	}
	return c.JSON(models.ProfileStatusResponse{HasProfile: ok})
}

// handleSkipProfile records that the user joined the waitlist without a
// profile.
func (s *Server) handleSkipProfile(c *fiber.Ctx) error {
	acct := account(c)
	s.logger.Info("Profile skipped", "user_id", acct.ID)
	s.publish(c, models.EventProfileSkipped, acct)

	return c.JSON(fiber.Map{
		"success": true,
		"title":   skippedTitle,
		"message": skippedMessage,
	})
}
