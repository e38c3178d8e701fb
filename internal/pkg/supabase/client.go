package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/supabase-community/gotrue-go"
	"github.com/supabase-community/gotrue-go/types"
	"github.com/supabase-community/postgrest-go"
	storage_go "github.com/supabase-community/storage-go"
	supa "github.com/supabase-community/supabase-go"
	"github.com/tidwall/gjson"

	"github.com/illegalcall/cofoundr-waitlist/internal/models"
	"github.com/illegalcall/cofoundr-waitlist/internal/profile"
)

var ErrNoSession = errors.New("no session returned")

// Client wraps the hosted auth, storage and row APIs behind the narrow
// operations the service needs.
type Client struct {
	api    *supa.Client
	url    string
	key    string
	table  string
	logger *slog.Logger
}

// extractProjectRef extracts just the project reference ID from a Supabase URL
// From: akrqbuajqkirdekonpzy.supabase.co
// To: akrqbuajqkirdekonpzy
func extractProjectRef(url string) string {
	// Remove any protocol prefix
	url = strings.TrimPrefix(url, "https://")
	url = strings.TrimPrefix(url, "http://")

	// Split by the first dot to get just the project reference
	parts := strings.Split(url, ".")
	return parts[0]
}

// NewClient initializes the Supabase clients for url and key.
func NewClient(url, key, table string, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	url = strings.TrimRight(url, "/")

	api, err := supa.NewClient(url, key, &supa.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to create Supabase client: %w", err)
	}

	// Truncate key for logging to avoid exposing the full key
	truncatedKey := ""
	if len(key) > 10 {
		truncatedKey = key[:10] + "..."
	}
	logger.Info("Initializing Supabase client", "project", extractProjectRef(url), "key", truncatedKey)

	return &Client{api: api, url: url, key: key, table: table, logger: logger}, nil
}

// auth returns a fresh auth client. gotrue clients carry a mutable token, so
// one is built per call instead of sharing a single instance.
func (c *Client) auth() gotrue.Client {
	return gotrue.New(extractProjectRef(c.url), c.key).WithCustomGoTrueURL(c.url + "/auth/v1")
}

// await runs a read and stops waiting once ctx is done. The SDK calls take no
// context, so an abandoned request still runs to completion in the background.
// Writes must not use it: a write abandoned here may still commit.
func await[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn()
		done <- result{v, err}
	}()

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case r := <-done:
		return r.v, r.err
	}
}

// Ping checks that the auth service answers.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := await(ctx, c.auth().GetSettings); err != nil {
		return fmt.Errorf("failed to connect to Supabase: %w", err)
	}
	return nil
}

func (c *Client) SignUp(ctx context.Context, email, password string) (*models.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resp, err := c.auth().Signup(types.SignupRequest{
		Email:    email,
		Password: password,
	})
	if err != nil {
		return nil, fmt.Errorf("signup failed: %w", err)
	}
	return &models.Account{ID: resp.ID.String(), Email: resp.Email}, nil
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*models.Session, error) {
	resp, err := await(ctx, func() (*types.TokenResponse, error) {
		return c.auth().SignInWithEmailPassword(email, password)
	})
	if err != nil {
		return nil, fmt.Errorf("authentication failed: %w", err)
	}
	return sessionFrom(resp)
}

// ExchangeCode completes an OAuth or magic-link login.
func (c *Client) ExchangeCode(ctx context.Context, code, verifier string) (*models.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resp, err := c.auth().Token(types.TokenRequest{
		GrantType:    "pkce",
		Code:         code,
		CodeVerifier: verifier,
	})
	if err != nil {
		return nil, fmt.Errorf("code exchange failed: %w", err)
	}
	return sessionFrom(resp)
}

func (c *Client) GetUser(ctx context.Context, token string) (*models.Account, error) {
	resp, err := await(ctx, c.auth().WithToken(token).GetUser)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &models.Account{ID: resp.ID.String(), Email: resp.Email}, nil
}

func sessionFrom(resp *types.TokenResponse) (*models.Session, error) {
	if resp == nil || resp.AccessToken == "" {
		return nil, ErrNoSession
	}
	return &models.Session{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		TokenType:    resp.TokenType,
		ExpiresIn:    resp.ExpiresIn,
		User:         models.Account{ID: resp.User.ID.String(), Email: resp.User.Email},
	}, nil
}

// Upload stores an object and returns its public URL.
func (c *Client) Upload(ctx context.Context, bucket, path, contentType string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	upsert := false
	_, err := c.api.Storage.UploadFile(bucket, path, bytes.NewReader(data), storage_go.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s/%s: %w", bucket, path, err)
	}
	return c.api.Storage.GetPublicUrl(bucket, path).SignedURL, nil
}

func (c *Client) Delete(ctx context.Context, bucket, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := c.api.Storage.RemoveFile(bucket, []string{path}); err != nil {
		return fmt.Errorf("failed to remove %s/%s: %w", bucket, path, err)
	}
	return nil
}

// rows starts a PostgREST query on the profile table.
func (c *Client) rows() *postgrest.QueryBuilder {
	return c.api.From(c.table)
}

// Upsert writes the record through PostgREST, replacing any row with the same
// id. Once PostgREST accepts the write, a row that cannot be decoded is
// reported as profile.ErrReadBack.
func (c *Client) Upsert(ctx context.Context, rec profile.Record) (*models.Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	body, _, err := c.rows().
		Upsert(rec.Values(), "id", "representation", "").
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to upsert profile: %w", err)
	}
	p, err := decodeProfile(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", profile.ErrReadBack, err)
	}
	return p, nil
}

func (c *Client) Get(ctx context.Context, id string) (*models.Profile, error) {
	body, err := await(ctx, func() ([]byte, error) {
		body, _, err := c.rows().
			Select(strings.Join(profile.SelectColumns, ","), "", false).
			Eq("id", id).
			Execute()
		return body, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}
	return decodeProfile(body)
}

func (c *Client) Exists(ctx context.Context, id string) (bool, error) {
	count, err := await(ctx, func() (int64, error) {
		_, count, err := c.rows().
			Select("id", "exact", true).
			Eq("id", id).
			Execute()
		return count, err
	})
	if err != nil {
		return false, fmt.Errorf("failed to check for existing profile: %w", err)
	}
	return count > 0, nil
}

// decodeProfile reads the first row of a PostgREST array response.
func decodeProfile(body []byte) (*models.Profile, error) {
	row := gjson.GetBytes(body, "0")
	if !row.Exists() {
		return nil, profile.ErrNotFound
	}

	var p models.Profile
	if err := json.Unmarshal([]byte(row.Raw), &p); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	return &p, nil
}
