package handlers

import (
	"context"
	"log"
	"os"
	"testing"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/illegalcall/cofoundr-waitlist/internal/config"
	"github.com/illegalcall/cofoundr-waitlist/internal/models"
)

// Load environment variables from .env file before tests run.
func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found; relying on environment variables")
	}
}

func TestNotificationHandler_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	emailRecipient := os.Getenv("EMAIL_RECIPIENT") // Set this in your .env file
	if emailRecipient == "" {
		t.Skip("Skipping integration test: missing EMAIL_RECIPIENT")
	}

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	mailer, err := NewSMTPMailer(cfg.Email)
	if err != nil {
		t.Skipf("Skipping integration test: %v", err)
	}

	h, err := NewNotificationHandler(mailer, cfg.Server.SiteURL, nil)
	require.NoError(t, err)

	result, err := h.Handle(context.Background(), models.Event{
		ID:    "integration-test",
		Type:  models.EventProfileSkipped,
		Email: emailRecipient,
	})
	assert.NoError(t, err)
	assert.Equal(t, "Email sent successfully", result.Message)

	log.Println("Please check the inbox of", emailRecipient, "to verify the email was received.")
}
