package handlers

import (
	"bufio"
	"context"
	"errors"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/illegalcall/cofoundr-waitlist/internal/config"
	"github.com/illegalcall/cofoundr-waitlist/internal/models"
)

// -----------------------------------------------------------------------------
// Mock SMTP Server for Local Testing
// -----------------------------------------------------------------------------

type mockSMTPServer struct {
	mu       sync.Mutex
	messages []string
	listener net.Listener
}

func newMockSMTPServer() *mockSMTPServer {
	return &mockSMTPServer{}
}

func (s *mockSMTPServer) start() error {
	// smtp.PlainAuth only sends credentials to localhost without TLS.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return err
	}
	s.listener = ln
	go s.listenAndServe()
	return nil
}

func (s *mockSMTPServer) port() int {
	return s.listener.Addr().(*net.TCPAddr).Port
}

func (s *mockSMTPServer) listenAndServe() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			break
		}
		go s.handleConnection(conn)
	}
}

func (s *mockSMTPServer) handleConnection(conn net.Conn) {
	defer conn.Close()

	// Send initial 220 greeting.
	conn.Write([]byte("220 mock.smtp.server Service Ready\r\n"))

	scanner := bufio.NewScanner(conn)
	var builder strings.Builder
	inData := false

	for scanner.Scan() {
		line := scanner.Text()
		builder.WriteString(line + "\n")
		if inData {
			if line == "." {
				inData = false
				conn.Write([]byte("250 OK: queued as 12345\r\n"))
			}
			continue
		}
		switch {
		case strings.HasPrefix(line, "EHLO"), strings.HasPrefix(line, "HELO"):
			conn.Write([]byte("250-mock.smtp.server Hello\r\n250 AUTH LOGIN PLAIN\r\n"))
		case strings.HasPrefix(line, "AUTH"):
			conn.Write([]byte("235 Authentication succeeded\r\n"))
		case strings.HasPrefix(line, "MAIL FROM:"):
			conn.Write([]byte("250 OK\r\n"))
		case strings.HasPrefix(line, "RCPT TO:"):
			conn.Write([]byte("250 OK\r\n"))
		case strings.HasPrefix(line, "DATA"):
			inData = true
			conn.Write([]byte("354 End data with <CR><LF>.<CR><LF>\r\n"))
		case strings.HasPrefix(line, "QUIT"):
			conn.Write([]byte("221 Bye\r\n"))
			s.record(builder.String())
			return
		}
	}
	s.record(builder.String())
}

func (s *mockSMTPServer) record(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
}

func (s *mockSMTPServer) received() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.messages...)
}

func (s *mockSMTPServer) stop() {
	if s.listener != nil {
		s.listener.Close()
	}
}

// MockMailer records the emails it is asked to send
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	args := m.Called(ctx, to, subject, htmlBody)
	return args.Error(0)
}

// -----------------------------------------------------------------------------
// Tests for SMTPMailer
// -----------------------------------------------------------------------------

func TestSMTPMailer_Success(t *testing.T) {
	// Setup mock SMTP server
	smtpServer := newMockSMTPServer()
	require.NoError(t, smtpServer.start())
	defer smtpServer.stop()

	mailer, err := NewSMTPMailer(config.EmailConfig{
		From:     "test@example.com",
		Password: "password",
		Host:     "127.0.0.1",
		Port:     smtpServer.port(),
	})
	require.NoError(t, err)

	err = mailer.Send(context.Background(), "recipient@example.com", "Test Email", "<p>This is a test email body.</p>")
	assert.NoError(t, err)

	// Allow a brief moment for the server goroutine to record the session
	assert.Eventually(t, func() bool { return len(smtpServer.received()) > 0 }, time.Second, 10*time.Millisecond)

	// Check that the email content includes key headers and parts.
	emailContent := smtpServer.received()[0]
	assert.Contains(t, emailContent, "To: recipient@example.com")
	assert.Contains(t, emailContent, "Subject: Test Email")
	assert.Contains(t, emailContent, "This is a test email body.")
	assert.Contains(t, emailContent, "Content-Type: text/html")
}

func TestSMTPMailer_MissingConfig(t *testing.T) {
	_, err := NewSMTPMailer(config.EmailConfig{From: "test@example.com"})
	assert.ErrorIs(t, err, ErrIncompleteConfig)
}

func TestSMTPMailer_Unreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	mailer, err := NewSMTPMailer(config.EmailConfig{
		From:     "test@example.com",
		Password: "password",
		Host:     "127.0.0.1",
		Port:     port,
	})
	require.NoError(t, err)

	err = mailer.Send(context.Background(), "recipient@example.com", "Test", "body")
	assert.ErrorContains(t, err, "failed to send email")
}

func TestBuildMessage(t *testing.T) {
	msg, err := buildMessage("a@example.com", "b@example.com", "Hi", "<b>hello</b>")
	require.NoError(t, err)
	s := string(msg)
	assert.Contains(t, s, "From: a@example.com\r\n")
	assert.Contains(t, s, "Content-Type: multipart/mixed; boundary=")
	assert.Contains(t, s, "<b>hello</b>")
}

// -----------------------------------------------------------------------------
// Tests for NotificationHandler
// -----------------------------------------------------------------------------

func TestNotificationHandler(t *testing.T) {
	tests := []struct {
		event   models.EventType
		subject string
		snippet string
	}{
		{models.EventAccountSignedUp, "Welcome to CoFoundr", "Thanks for signing up with ada@example.com"},
		{models.EventProfileSaved, "Your CoFoundr profile is saved", "Thanks for completing your profile"},
		{models.EventProfileSkipped, "You're on the CoFoundr waitlist", "https://cofoundr.test/profile"},
	}

	for _, tt := range tests {
		t.Run(string(tt.event), func(t *testing.T) {
			mailer := &MockMailer{}
			mailer.On("Send", mock.Anything, "ada@example.com", tt.subject, mock.MatchedBy(func(body string) bool {
				return strings.Contains(body, tt.snippet)
			})).Return(nil)

			h, err := NewNotificationHandler(mailer, "https://cofoundr.test", nil)
			require.NoError(t, err)

			result, err := h.Handle(context.Background(), models.Event{ID: "e1", Type: tt.event, Email: "ada@example.com"})
			require.NoError(t, err)
			assert.Equal(t, "Email sent successfully", result.Message)
			mailer.AssertExpectations(t)
		})
	}
}

func TestNotificationHandler_Errors(t *testing.T) {
	mailer := &MockMailer{}
	h, err := NewNotificationHandler(mailer, "https://cofoundr.test", nil)
	require.NoError(t, err)

	_, err = h.Handle(context.Background(), models.Event{Type: "profile.deleted", Email: "ada@example.com"})
	assert.ErrorIs(t, err, ErrUnsupportedEvent)

	_, err = h.Handle(context.Background(), models.Event{Type: models.EventProfileSaved})
	assert.ErrorContains(t, err, "recipient is required")

	mailer.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("relay down"))
	_, err = h.Handle(context.Background(), models.Event{Type: models.EventProfileSaved, Email: "ada@example.com"})
	assert.ErrorContains(t, err, "relay down")
}
