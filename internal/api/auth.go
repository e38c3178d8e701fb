package api

import (
	"net/mail"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/illegalcall/cofoundr-waitlist/internal/metrics"
	"github.com/illegalcall/cofoundr-waitlist/internal/models"
	"github.com/illegalcall/cofoundr-waitlist/internal/profile"
)

const minPasswordLength = 8

// verifierCookie holds the PKCE code verifier set when the login flow began.
const verifierCookie = "sb-code-verifier"

const (
	callbackNotConfigured = "Supabase environment variables are not configured correctly on the server."
	signupSuccessMessage  = "Your account is created. Let's build your profile."
	signupFailedMessage   = "An unexpected error occurred."
)

func validateSignup(req models.SignupRequest) profile.FieldErrors {
	errs := profile.FieldErrors{}
	if addr, err := mail.ParseAddress(req.Email); err != nil || addr.Address != req.Email {
		errs.Add("email", "Please enter a valid email address.")
	}
	if len(req.Password) < minPasswordLength {
		errs.Add("password", "Password must be at least 8 characters long.")
	}
	if req.Password != req.ConfirmPassword {
		errs.Add("confirm_password", "Passwords do not match.")
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func (s *Server) handleSignup(c *fiber.Ctx) error {
	var req models.SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	req.Email = strings.TrimSpace(req.Email)

	if errs := validateSignup(req); errs != nil {
		s.metrics.Signups.WithLabelValues("invalid").Inc()
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"success": false,
			"errors":  errs,
		})
	}

	acct, err := s.auth.SignUp(c.UserContext(), req.Email, req.Password)
	s.metrics.Signups.WithLabelValues(metrics.Result(err)).Inc()
	if err != nil {
		s.logger.Error("Signup failed", "email", req.Email, "error", err)
		msg := err.Error()
		if s.cfg.Server.IsProduction() {
			msg = signupFailedMessage
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   msg,
		})
	}

	s.logger.Info("Account created", "user_id", acct.ID)
	s.publish(c, models.EventAccountSignedUp, *acct)

	return c.Status(fiber.StatusCreated).JSON(models.SignupResponse{
		Success: true,
		User:    *acct,
		Message: signupSuccessMessage,
	})
}

func (s *Server) handleLogin(c *fiber.Ctx) error {
	var req models.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	// Validate required fields
	if req.Email == "" || req.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Email and password are required",
		})
	}

	s.logger.Info("Authentication attempt", "email", req.Email)

	session, err := s.auth.SignIn(c.UserContext(), req.Email, req.Password)
	if err != nil {
		s.logger.Error("Authentication error", "email", req.Email, "error", err)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": s.detail("Invalid credentials", err),
		})
	}

	s.setSessionCookie(c, session)
	s.logger.Info("User successfully authenticated", "user_id", session.User.ID)

	return c.JSON(models.LoginResponse{
		Token:        session.AccessToken,
		TokenType:    "Bearer",
		RefreshToken: session.RefreshToken,
		ExpiresIn:    session.ExpiresIn,
	})
}

// handleAuthCallback finishes the email confirmation / OAuth flow.
func (s *Server) handleAuthCallback(c *fiber.Ctx) error {
	site := strings.TrimRight(s.cfg.Server.SiteURL, "/")
	failed := func(msg string) error {
		return c.Redirect(site + "/auth/auth-code-error?message=" + url.QueryEscape(msg))
	}

	if s.auth == nil {
		s.logger.Error(callbackNotConfigured)
		return failed(callbackNotConfigured)
	}

	code := c.Query("code")
	if code == "" {
		return c.Redirect(site + "/choose")
	}

	session, err := s.auth.ExchangeCode(c.UserContext(), code, c.Cookies(verifierCookie))
	if err != nil {
		s.logger.Error("Auth code exchange failed", "error", err)
		return failed(err.Error())
	}

	s.setSessionCookie(c, session)
	c.ClearCookie(verifierCookie)
	return c.Redirect(site + "/choose")
}

func (s *Server) setSessionCookie(c *fiber.Ctx, session *models.Session) {
	expires := time.Now().Add(time.Hour)
	if session.ExpiresIn > 0 {
		expires = time.Now().Add(time.Duration(session.ExpiresIn) * time.Second)
	}
	c.Cookie(&fiber.Cookie{
		Name:     s.cfg.JWT.CookieName,
		Value:    session.AccessToken,
		Path:     "/",
		Expires:  expires,
		HTTPOnly: true,
		Secure:   s.cfg.Server.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func (s *Server) handleMe(c *fiber.Ctx) error {
	user, err := s.auth.GetUser(c.UserContext(), rawToken(c))
	if err != nil {
		s.logger.Error("Failed to load current user", "error", err)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	resp := models.MeResponse{User: *user}
	if s.profiles != nil {
		resp.HasProfile, err = s.profiles.HasProfile(c.UserContext(), user.ID)
		if err != nil {
			s.logger.Error("Failed to check for existing profile", "user_id", user.ID, "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": s.detail("Failed to check for existing profile", err),
			})
		}
	}
	return c.JSON(resp)
}
