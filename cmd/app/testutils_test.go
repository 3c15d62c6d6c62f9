package main

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/sushihentaime/dreamblog/internal/blogservice"
	"github.com/sushihentaime/dreamblog/internal/commentservice"
	"github.com/sushihentaime/dreamblog/internal/common"
	"github.com/sushihentaime/dreamblog/internal/tokenservice"
	"github.com/sushihentaime/dreamblog/internal/userservice"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestTokens(t *testing.T) *tokenservice.TokenService {
	t.Helper()

	tokens, err := tokenservice.NewTokenService(tokenservice.Keys{
		tokenservice.PurposeAccess:            []byte("access-secret"),
		tokenservice.PurposeRefresh:           []byte("refresh-secret"),
		tokenservice.PurposeEmailVerification: []byte("verification-secret"),
		tokenservice.PurposeAccountDeletion:   []byte("deletion-secret"),
	})
	require.NoError(t, err)

	return tokens
}

// newUnitApplication builds an application without a database. Only code paths that never
// reach storage may be exercised with it.
func newUnitApplication(t *testing.T) *application {
	logger := discardLogger()

	return &application{
		config:      &Config{Environment: "development", Version: "1.0.0"},
		logger:      logger,
		userService: userservice.NewUserService(nil, nil, newTestTokens(t), logger),
	}
}

func newTestApplication(t *testing.T) (*application, *sql.DB, *common.MockProducer) {
	db := common.TestDB("file://../../migrations", t)
	logger := discardLogger()
	producer := &common.MockProducer{}

	userService := userservice.NewUserService(db, producer, newTestTokens(t), logger)
	notifier := common.NewNotifier(producer, userService, logger)
	blogService := blogservice.NewBlogService(db, common.NewCache(time.Minute, time.Minute), notifier, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := blogService.SeedTags(ctx, []string{"go", "postgres"})
	require.NoError(t, err)

	app := &application{
		config:         &Config{Environment: "development", Version: "1.0.0"},
		logger:         logger,
		userService:    userService,
		blogService:    blogService,
		commentService: commentservice.NewCommentService(db, commentservice.NewBlacklist([]string{"spam"}), notifier, logger),
	}

	return app, db, producer
}

type testServer struct {
	*httptest.Server
}

func newTestServer(t *testing.T, h http.Handler) *testServer {
	ts := httptest.NewServer(h)

	t.Cleanup(ts.Close)

	return &testServer{ts}
}

func readResponse(t *testing.T, res *http.Response) (int, envelope) {
	defer res.Body.Close()

	responseBody, err := io.ReadAll(res.Body)
	require.NoError(t, err)

	var env envelope
	require.NoError(t, json.Unmarshal(responseBody, &env), string(responseBody))

	return res.StatusCode, env
}

// do sends a request with an optional JSON payload and bearer token.
func (ts *testServer) do(t *testing.T, method, path, token string, payload any) (int, envelope) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, ts.URL+path, body)
	require.NoError(t, err)

	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := ts.Client().Do(req)
	require.NoError(t, err)

	return readResponse(t, res)
}

func recordResponse(t *testing.T, rr *httptest.ResponseRecorder) envelope {
	t.Helper()

	var env envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env), rr.Body.String())

	return env
}
