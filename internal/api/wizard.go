package api

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/illegalcall/cofoundr-waitlist/internal/bio"
	"github.com/illegalcall/cofoundr-waitlist/internal/metrics"
	"github.com/illegalcall/cofoundr-waitlist/internal/models"
	"github.com/illegalcall/cofoundr-waitlist/internal/profile"
	"github.com/illegalcall/cofoundr-waitlist/internal/wizard"
)

// wizardResponse is the client's view of a wizard session.
type wizardResponse struct {
	Step       int           `json:"step"`
	Current    wizard.Step   `json:"current"`
	TotalSteps int           `json:"total_steps"`
	Direction  int           `json:"direction"`
	IsLast     bool          `json:"is_last"`
	Submitting bool          `json:"submitting"`
	Draft      profile.Draft `json:"draft"`
}

func (s *Server) view(st *wizard.State) wizardResponse {
	return wizardResponse{
		Step:       st.Step,
		Current:    s.wizard.Current(st),
		TotalSteps: len(s.wizard.Steps()),
		Direction:  st.Direction,
		IsLast:     s.wizard.IsLast(st),
		Submitting: st.Submitting,
		Draft:      st.Draft,
	}
}

func (s *Server) handleSteps(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"steps": s.wizard.Steps()})
}

// loadState fetches the caller's session, answering 500 itself on failure.
func (s *Server) loadState(c *fiber.Ctx) (*wizard.State, error) {
	acct := account(c)
	st, err := s.drafts.Load(c.UserContext(), acct.ID)
	if err != nil {
		s.logger.Error("Failed to load wizard draft", "user_id", acct.ID, "error", err)
		return nil, c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": s.detail("Failed to load draft", err),
		})
	}
	return st, nil
}

// saveState stores st and answers with the new view.
func (s *Server) saveState(c *fiber.Ctx, st *wizard.State) error {
	if err := s.drafts.Save(c.UserContext(), st); err != nil {
		s.logger.Error("Failed to save wizard draft", "user_id", st.UserID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": s.detail("Failed to save draft", err),
		})
	}
	return c.JSON(s.view(st))
}

func (s *Server) handleGetWizard(c *fiber.Ctx) error {
	st, err := s.loadState(c)
	if st == nil {
		return err
	}
	return c.JSON(s.view(st))
}

func (s *Server) handlePatchWizard(c *fiber.Ctx) error {
	st, err := s.loadState(c)
	if st == nil {
		return err
	}
	if err := s.wizard.Update(st, c.Body()); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return s.saveState(c, st)
}

func (s *Server) handleDiscardWizard(c *fiber.Ctx) error {
	acct := account(c)
	if err := s.drafts.Delete(c.UserContext(), acct.ID); err != nil {
		s.logger.Error("Failed to discard wizard draft", "user_id", acct.ID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": s.detail("Failed to discard draft", err),
		})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// handleSetAvatar stages a new avatar on the draft. Oversized or unsupported
// files are rejected before they are stored.
func (s *Server) handleSetAvatar(c *fiber.Ctx) error {
	fh, err := c.FormFile(profile.FieldAvatar)
	if err != nil || fh.Size == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Avatar file is required",
		})
	}
	upload, err := profile.ReadUpload(fh)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": s.detail("Invalid avatar file", err),
		})
	}

	st, err := s.loadState(c)
	if st == nil {
		return err
	}
	st.Draft.SetAvatar(upload)
	if errs := s.wizard.Validate(st, profile.FieldAvatar); errs != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"errors": errs,
		})
	}
	return s.saveState(c, st)
}

func (s *Server) handleRemoveAvatar(c *fiber.Ctx) error {
	st, err := s.loadState(c)
	if st == nil {
		return err
	}
	st.Draft.RemoveAvatar()
	return s.saveState(c, st)
}

func (s *Server) handleNext(c *fiber.Ctx) error {
	st, err := s.loadState(c)
	if st == nil {
		return err
	}

	errs, err := s.wizard.Advance(st)
	switch {
	case errors.Is(err, wizard.ErrLastStep):
		s.metrics.WizardTransitions.WithLabelValues("next", "rejected").Inc()
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": err.Error(),
		})
	case errs != nil:
		s.metrics.WizardTransitions.WithLabelValues("next", "invalid").Inc()
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"errors": errs,
		})
	}

	s.metrics.WizardTransitions.WithLabelValues("next", "success").Inc()
	return s.saveState(c, st)
}

func (s *Server) handlePrev(c *fiber.Ctx) error {
	st, err := s.loadState(c)
	if st == nil {
		return err
	}
	s.wizard.Retreat(st)
	s.metrics.WizardTransitions.WithLabelValues("prev", "success").Inc()
	return s.saveState(c, st)
}

// handleWizardBio drafts a bio from the draft's name, role and skills. A
// failed attempt leaves the typed bio in place.
func (s *Server) handleWizardBio(c *fiber.Ctx) error {
	st, err := s.loadState(c)
	if st == nil {
		return err
	}

	text, err := s.bio.Generate(c.UserContext(), bio.Input{
		FullName:    st.Draft.FullName,
		PrimaryRole: st.Draft.PrimaryRoleSeeking,
		CoreSkills:  st.Draft.CoreSkills,
	})
	s.metrics.BioGenerations.WithLabelValues(metrics.Result(err)).Inc()
	if err != nil {
		s.logger.Warn("Bio generation failed", "user_id", st.UserID, "error", err)
		return c.JSON(models.GenerateBioResponse{Bio: st.Draft.Bio, Generated: false})
	}

	// Re-read so edits made while the model was running are kept. A draft
	// that was submitted or discarded meanwhile stays gone.
	fresh, err := s.drafts.Find(c.UserContext(), st.UserID)
	switch {
	case errors.Is(err, wizard.ErrNoDraft):
		s.logger.Info("Wizard draft gone before bio was ready", "user_id", st.UserID)
		return c.JSON(models.GenerateBioResponse{Bio: st.Draft.Bio, Generated: false})
	case err != nil:
		s.logger.Error("Failed to load wizard draft", "user_id", st.UserID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": s.detail("Failed to load draft", err),
		})
	}
	fresh.Draft.Bio = text
	if err := s.drafts.Save(c.UserContext(), fresh); err != nil {
		s.logger.Error("Failed to save wizard draft", "user_id", fresh.UserID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": s.detail("Failed to save draft", err),
		})
	}
	return c.JSON(models.GenerateBioResponse{Bio: text, Generated: true})
}

// handleWizardSubmit validates the whole draft and hands it to the profile
// service. Only one submission per user runs at a time.
func (s *Server) handleWizardSubmit(c *fiber.Ctx) error {
	acct := account(c)
	ctx := c.UserContext()

	locked, err := s.drafts.Lock(ctx, acct.ID)
	if err != nil {
		s.logger.Error("Failed to acquire submit lock", "user_id", acct.ID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": s.detail("Failed to start submission", err),
		})
	}
	if !locked {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": wizard.ErrSubmitting.Error(),
		})
	}
	defer func() {
		unlockCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.drafts.Unlock(unlockCtx, acct.ID); err != nil {
			s.logger.Error("Failed to release submit lock", "user_id", acct.ID, "error", err)
		}
	}()

	st, err := s.loadState(c)
	if st == nil {
		return err
	}
	if st.Submitting {
		// The lock is ours, so the flag was left by an attempt that died.
		s.logger.Warn("Clearing stale submission flag", "user_id", acct.ID)
		st.Submitting = false
	}

	errs, err := s.wizard.ReadyToSubmit(st)
	switch {
	case errors.Is(err, wizard.ErrNotLastStep), errors.Is(err, wizard.ErrSubmitting):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": err.Error(),
		})
	case errs != nil:
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"errors": errs,
		})
	}

	st.Submitting = true
	if err := s.drafts.Save(ctx, st); err != nil {
		s.logger.Error("Failed to save wizard draft", "user_id", acct.ID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": s.detail("Failed to save draft", err),
		})
	}

	sub, err := s.profiles.Submit(ctx, acct, profile.Encode(st.Draft))
	if err != nil {
		st.Submitting = false
		if saveErr := s.drafts.Save(ctx, st); saveErr != nil {
			s.logger.Error("Failed to save wizard draft", "user_id", acct.ID, "error", saveErr)
		}
		return s.respondSubmission(c, acct, sub, err, "wizard")
	}

	if err := s.drafts.Delete(ctx, acct.ID); err != nil {
		s.logger.Error("Failed to delete submitted draft", "user_id", acct.ID, "error", err)
	}
	return s.respondSubmission(c, acct, sub, nil, "wizard")
}
