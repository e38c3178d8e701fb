package api

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cache"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	jwtware "github.com/gofiber/jwt/v3"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"github.com/illegalcall/cofoundr-waitlist/internal/bio"
	"github.com/illegalcall/cofoundr-waitlist/internal/config"
	"github.com/illegalcall/cofoundr-waitlist/internal/events"
	"github.com/illegalcall/cofoundr-waitlist/internal/metrics"
	"github.com/illegalcall/cofoundr-waitlist/internal/models"
	"github.com/illegalcall/cofoundr-waitlist/internal/profile"
	"github.com/illegalcall/cofoundr-waitlist/internal/wizard"
)

const notConfiguredMessage = "Supabase URL and Anon Key are not configured. Please check your .env file."

var errUnauthorized = errors.New("missing or invalid session")

// Auth is the account backend.
type Auth interface {
	SignUp(ctx context.Context, email, password string) (*models.Account, error)
	SignIn(ctx context.Context, email, password string) (*models.Session, error)
	ExchangeCode(ctx context.Context, code, verifier string) (*models.Session, error)
	GetUser(ctx context.Context, token string) (*models.Account, error)
}

// Deps are the collaborators the HTTP layer is built from. Auth and Profiles
// are nil when the backend is not configured.
type Deps struct {
	Auth      Auth
	Profiles  *profile.Service
	Wizard    *wizard.Wizard
	Drafts    *wizard.DraftStore
	Bio       bio.Generator
	Events    events.Publisher
	Metrics   *metrics.Metrics
	AvatarDir string
	Logger    *slog.Logger
}

type Server struct {
	app      *fiber.App
	cfg      *config.Config
	auth     Auth
	profiles *profile.Service
	wizard   *wizard.Wizard
	drafts   *wizard.DraftStore
	bio      bio.Generator
	events   events.Publisher
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func NewServer(cfg *config.Config, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Bio == nil {
		deps.Bio = bio.Disabled{}
	}
	if deps.Events == nil {
		deps.Events = events.Noop{}
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}

	app := fiber.New(fiber.Config{
		BodyLimit:             cfg.Server.BodyLimit,
		DisableStartupMessage: true,
	})

	// Middleware
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${ip} ${method} ${path} ${status}\n",
	}))
	app.Use(limiter.New(limiter.Config{
		Max:        cfg.Server.MaxRequests,
		Expiration: cfg.Server.RequestTimeout,
	}))

	server := &Server{
		app:      app,
		cfg:      cfg,
		auth:     deps.Auth,
		profiles: deps.Profiles,
		wizard:   deps.Wizard,
		drafts:   deps.Drafts,
		bio:      deps.Bio,
		events:   deps.Events,
		metrics:  deps.Metrics,
		logger:   deps.Logger,
	}

	if deps.AvatarDir != "" {
		app.Static("/avatars", deps.AvatarDir)
	}

	// Routes
	server.setupRoutes()

	return server
}

func (s *Server) setupRoutes() {
	s.app.Get("/metrics", adaptor.HTTPHandler(s.metrics.Handler()))
	s.app.Get("/auth/callback", s.handleAuthCallback)

	api := s.app.Group("/api")

	// Public routes
	api.Post("/signup", s.requireAuthBackend, s.handleSignup)
	api.Post("/login", s.requireAuthBackend, s.handleLogin)
	api.Get("/wizard/steps", cache.New(cache.Config{
		Expiration:   s.cfg.Server.CacheExpiration,
		CacheControl: true,
	}), s.handleSteps)

	// Protected routes
	protected := api.Use(jwtware.New(jwtware.Config{
		SigningKey:    []byte(s.cfg.JWT.Secret),
		SigningMethod: "HS256",
		TokenLookup:   "header:Authorization,cookie:" + s.cfg.JWT.CookieName,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized",
			})
		},
	}), s.requireAccount)

	protected.Get("/me", s.requireAuthBackend, s.handleMe)
	protected.Post("/bio", s.handleGenerateBio)

	protected.Post("/profile", s.requireProfiles, s.handleSubmitProfile)
	protected.Get("/profile", s.requireProfiles, s.handleGetProfile)
	protected.Get("/profile/status", s.requireProfiles, s.handleProfileStatus)
	protected.Post("/profile/skip", s.handleSkipProfile)

	protected.Get("/wizard", s.handleGetWizard)
	protected.Patch("/wizard", s.handlePatchWizard)
	protected.Delete("/wizard", s.handleDiscardWizard)
	protected.Put("/wizard/avatar", s.handleSetAvatar)
	protected.Delete("/wizard/avatar", s.handleRemoveAvatar)
	protected.Post("/wizard/next", s.handleNext)
	protected.Post("/wizard/prev", s.handlePrev)
	protected.Post("/wizard/bio", s.handleWizardBio)
	protected.Post("/wizard/submit", s.requireProfiles, s.handleWizardSubmit)
}

func (s *Server) Start() error {
	s.logger.Info("API server listening", "port", s.cfg.Server.Port)
	return s.app.Listen(s.cfg.Server.Port)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// requireAccount resolves the verified token into the caller's account.
func (s *Server) requireAccount(c *fiber.Ctx) error {
	acct, err := accountFromToken(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}
	c.Locals("account", acct)
	return c.Next()
}

func accountFromToken(c *fiber.Ctx) (models.Account, error) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return models.Account{}, errUnauthorized
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return models.Account{}, errUnauthorized
	}

	sub, _ := claims["sub"].(string)
	if _, err := uuid.Parse(sub); err != nil {
		return models.Account{}, errUnauthorized
	}
	email, _ := claims["email"].(string)
	return models.Account{ID: sub, Email: email}, nil
}

func account(c *fiber.Ctx) models.Account {
	acct, _ := c.Locals("account").(models.Account)
	return acct
}

func rawToken(c *fiber.Ctx) string {
	if token, ok := c.Locals("user").(*jwt.Token); ok {
		return token.Raw
	}
	return ""
}

func (s *Server) requireAuthBackend(c *fiber.Ctx) error {
	if s.auth == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"success": false,
			"error":   notConfiguredMessage,
		})
	}
	return c.Next()
}

func (s *Server) requireProfiles(c *fiber.Ctx) error {
	if s.profiles == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"success": false,
			"error":   notConfiguredMessage,
		})
	}
	return c.Next()
}

// detail returns msg, followed by err outside production.
func (s *Server) detail(msg string, err error) string {
	if s.cfg.Server.IsProduction() || err == nil {
		return msg
	}
	return msg + ": " + err.Error()
}

// publish hands ev to the publisher. Failures are logged and never fail the
// request.
func (s *Server) publish(c *fiber.Ctx, t models.EventType, acct models.Account) {
	ev := events.New(t, acct)
	err := s.events.Publish(c.UserContext(), ev)
	s.metrics.EventsPublished.WithLabelValues(string(t), metrics.Result(err)).Inc()
	if err != nil {
		s.logger.Error("Failed to publish event", "type", t, "user_id", acct.ID, "error", err)
	}
}
