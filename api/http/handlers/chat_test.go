package handlers_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apihttp "github.com/greenswap/greenswap/api/http"
	"github.com/greenswap/greenswap/api/http/handlers"
	"github.com/greenswap/greenswap/pkg/auth"
	"github.com/greenswap/greenswap/pkg/catalog"
	"github.com/greenswap/greenswap/pkg/chat"
	"github.com/greenswap/greenswap/pkg/llm"
	"github.com/greenswap/greenswap/pkg/security/jwt"
	"github.com/greenswap/greenswap/pkg/tools"
)

const (
	testSecret = "handler-test-secret"
	testIssuer = "greenswap-test"
)

type fakeChatUseCase struct {
	chunks     []llm.StreamChunk
	streamErr  error
	deleteErr  error
	summaries  []chat.Summary
	historyErr error

	gotUserID uuid.UUID
	gotConvID string
}

func (f *fakeChatUseCase) StreamTurn(ctx context.Context, userID uuid.UUID, convID string, messages []chat.Message) (<-chan llm.StreamChunk, error) {
	f.gotUserID = userID
	f.gotConvID = convID
	if f.streamErr != nil {
		return nil, f.streamErr
	}
	out := make(chan llm.StreamChunk, len(f.chunks))
	for _, c := range f.chunks {
		out <- c
	}
	close(out)
	return out, nil
}

func (f *fakeChatUseCase) Delete(ctx context.Context, requesterID uuid.UUID, convID string) error {
	f.gotUserID = requesterID
	f.gotConvID = convID
	return f.deleteErr
}

func (f *fakeChatUseCase) History(ctx context.Context, userID uuid.UUID, limit, offset int) ([]chat.Summary, error) {
	f.gotUserID = userID
	return f.summaries, f.historyErr
}

type fakeCatalogUseCase struct {
	products []catalog.Product
	detail   catalog.ProductDetail
	quote    catalog.PriceQuote
	err      error
}

func (f *fakeCatalogUseCase) ListSustainableOptions(ctx context.Context, category string) ([]catalog.Product, error) {
	return f.products, f.err
}

func (f *fakeCatalogUseCase) GetProductDetail(ctx context.Context, productID string) (catalog.ProductDetail, error) {
	return f.detail, f.err
}

func (f *fakeCatalogUseCase) QuotePrice(ctx context.Context, productID string, selectedFeatures []string) (catalog.PriceQuote, error) {
	return f.quote, f.err
}

func newTestApp(t *testing.T, chatUC chat.UseCase, catalogUC catalog.UseCase) *fiber.App {
	t.Helper()
	app := fiber.New()

	registry := tools.NewRegistry()
	if catalogUC != nil {
		require.NoError(t, tools.RegisterCatalog(registry, catalogUC))
	}

	chatHandler := handlers.NewChatHandler(chatUC, registry)
	catalogHandler := handlers.NewCatalogHandler(catalogUC)
	authMW := jwt.NewAuthMiddleware(testSecret, testIssuer)
	optionalAuthMW := jwt.NewOptionalAuthMiddleware(testSecret, testIssuer)

	apihttp.Register(app, nil, nil, chatHandler, catalogHandler, authMW, optionalAuthMW)
	return app
}

func issueToken(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	gen := jwt.NewGenerator(testSecret, testIssuer, time.Hour)
	token, err := gen.Generate(context.Background(), auth.User{ID: userID})
	require.NoError(t, err)
	return token
}

func TestChatStreamUnauthorized(t *testing.T) {
	app := newTestApp(t, &fakeChatUseCase{}, &fakeCatalogUseCase{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat",
		strings.NewReader(`{"id":"c1","messages":[{"role":"user","content":"hi"}]}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestChatStreamDeliversSSE(t *testing.T) {
	uc := &fakeChatUseCase{chunks: []llm.StreamChunk{
		{Text: "Try bamboo"}, {Text: " instead."},
	}}
	app := newTestApp(t, uc, &fakeCatalogUseCase{})
	userID := uuid.New()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat",
		strings.NewReader(`{"id":"c1","messages":[{"role":"user","content":"plastic cutlery"}]}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+issueToken(t, userID))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "data: Try bamboo\n\n")
	assert.Contains(t, string(body), "data:  instead.\n\n")
	assert.Contains(t, string(body), "data: [DONE]\n\n")

	assert.Equal(t, userID, uc.gotUserID)
	assert.Equal(t, "c1", uc.gotConvID)
}

func TestChatStreamMultilineChunkFraming(t *testing.T) {
	uc := &fakeChatUseCase{chunks: []llm.StreamChunk{
		{Text: "first line\nsecond line"},
	}}
	app := newTestApp(t, uc, &fakeCatalogUseCase{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat",
		strings.NewReader(`{"id":"c1","messages":[{"role":"user","content":"hi"}]}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+issueToken(t, uuid.New()))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	// A newline inside a chunk becomes consecutive data: lines of one
	// event, so SSE clients rejoin the full text instead of dropping
	// everything after the newline.
	assert.Contains(t, string(body), "data: first line\ndata: second line\n\n")
	assert.Contains(t, string(body), "data: [DONE]\n\n")
}

func TestChatStreamEmptyConversation(t *testing.T) {
	uc := &fakeChatUseCase{streamErr: chat.ErrEmptyConversation}
	app := newTestApp(t, uc, &fakeCatalogUseCase{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat",
		strings.NewReader(`{"id":"c1","messages":[{"role":"user","content":""}]}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+issueToken(t, uuid.New()))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestChatStreamMissingID(t *testing.T) {
	app := newTestApp(t, &fakeChatUseCase{}, &fakeCatalogUseCase{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat",
		strings.NewReader(`{"messages":[{"role":"user","content":"hi"}]}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+issueToken(t, uuid.New()))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestChatStreamProviderFailure(t *testing.T) {
	uc := &fakeChatUseCase{streamErr: llm.ErrGeneration}
	app := newTestApp(t, uc, &fakeCatalogUseCase{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat",
		strings.NewReader(`{"id":"c1","messages":[{"role":"user","content":"hi"}]}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+issueToken(t, uuid.New()))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

// slowModel keeps producing chunks until its ctx is cancelled, signalling the
// cancellation so tests can assert the stream was torn down.
type slowModel struct {
	cancelled chan struct{}
}

func (m *slowModel) Stream(ctx context.Context, systemPrompt string, messages []llm.Message) (<-chan llm.StreamChunk, error) {
	out := make(chan llm.StreamChunk)
	go func() {
		defer close(out)
		for {
			select {
			case out <- llm.StreamChunk{Text: "chunk "}:
			case <-ctx.Done():
				close(m.cancelled)
				return
			}
			select {
			case <-time.After(10 * time.Millisecond):
			case <-ctx.Done():
				close(m.cancelled)
				return
			}
		}
	}()
	return out, nil
}

type nopChatRepo struct{}

func (nopChatRepo) Save(ctx context.Context, conv chat.Conversation) error { return nil }
func (nopChatRepo) GetByID(ctx context.Context, id string) (chat.Conversation, error) {
	return chat.Conversation{}, chat.ErrNotFound
}
func (nopChatRepo) DeleteByID(ctx context.Context, id string) error { return nil }
func (nopChatRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]chat.Conversation, error) {
	return nil, nil
}

func TestChatStreamClientDisconnectReleasesProvider(t *testing.T) {
	model := &slowModel{cancelled: make(chan struct{})}
	app := fiber.New(fiber.Config{DisableStartupMessage: true})

	chatHandler := handlers.NewChatHandler(chat.NewService(model, nopChatRepo{}), tools.NewRegistry())
	catalogHandler := handlers.NewCatalogHandler(&fakeCatalogUseCase{})
	authMW := jwt.NewAuthMiddleware(testSecret, testIssuer)
	optionalAuthMW := jwt.NewOptionalAuthMiddleware(testSecret, testIssuer)
	apihttp.Register(app, nil, nil, chatHandler, catalogHandler, authMW, optionalAuthMW)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()
	defer func() { _ = app.Shutdown() }()

	conn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)

	body := `{"id":"c1","messages":[{"role":"user","content":"plastic cutlery"}]}`
	_, err = fmt.Fprintf(conn,
		"POST /api/v1/chat HTTP/1.1\r\nHost: localhost\r\nContent-Type: application/json\r\nAuthorization: Bearer %s\r\nContent-Length: %d\r\n\r\n%s",
		issueToken(t, uuid.New()), len(body), body)
	require.NoError(t, err)

	// Read a little of the stream, then drop the connection.
	buf := make([]byte, 256)
	_, err = conn.Read(buf)
	require.NoError(t, err)
	require.NoError(t, conn.Close())

	select {
	case <-model.cancelled:
	case <-time.After(3 * time.Second):
		t.Fatal("provider stream was not released after client disconnect")
	}
}

func TestChatDeleteMissingIDBeatsAuth(t *testing.T) {
	app := newTestApp(t, &fakeChatUseCase{}, &fakeCatalogUseCase{})

	// No token at all: the missing id still wins.
	resp, err := app.Test(httptest.NewRequest(http.MethodDelete, "/api/v1/chat", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestChatDeleteUnauthenticated(t *testing.T) {
	app := newTestApp(t, &fakeChatUseCase{}, &fakeCatalogUseCase{})

	resp, err := app.Test(httptest.NewRequest(http.MethodDelete, "/api/v1/chat?id=c1", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestChatDeleteNonOwner(t *testing.T) {
	uc := &fakeChatUseCase{deleteErr: chat.ErrNotOwner}
	app := newTestApp(t, uc, &fakeCatalogUseCase{})

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/chat?id=c1", nil)
	req.Header.Set("Authorization", "Bearer "+issueToken(t, uuid.New()))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestChatDeleteNotFound(t *testing.T) {
	uc := &fakeChatUseCase{deleteErr: chat.ErrNotFound}
	app := newTestApp(t, uc, &fakeCatalogUseCase{})

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/chat?id=missing", nil)
	req.Header.Set("Authorization", "Bearer "+issueToken(t, uuid.New()))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestChatDeleteInternalError(t *testing.T) {
	uc := &fakeChatUseCase{deleteErr: errors.New("db exploded")}
	app := newTestApp(t, uc, &fakeCatalogUseCase{})

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/chat?id=c1", nil)
	req.Header.Set("Authorization", "Bearer "+issueToken(t, uuid.New()))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	// The cause must not leak to the client.
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "db exploded")
}

func TestChatDeleteSuccess(t *testing.T) {
	uc := &fakeChatUseCase{}
	app := newTestApp(t, uc, &fakeCatalogUseCase{})
	userID := uuid.New()

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/chat?id=c1", nil)
	req.Header.Set("Authorization", "Bearer "+issueToken(t, userID))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, userID, uc.gotUserID)
	assert.Equal(t, "c1", uc.gotConvID)
}

func TestChatHistory(t *testing.T) {
	uc := &fakeChatUseCase{summaries: []chat.Summary{
		{ID: "c1", Title: "plastic bags", UpdatedAt: time.Now().UTC()},
	}}
	app := newTestApp(t, uc, &fakeCatalogUseCase{})
	userID := uuid.New()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/chats", nil)
	req.Header.Set("Authorization", "Bearer "+issueToken(t, userID))
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "plastic bags")
	assert.Equal(t, userID, uc.gotUserID)
}

func TestChatHistoryRequiresAuth(t *testing.T) {
	app := newTestApp(t, &fakeChatUseCase{}, &fakeCatalogUseCase{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/chats", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestChatToolsListing(t *testing.T) {
	app := newTestApp(t, &fakeChatUseCase{}, &fakeCatalogUseCase{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/chat/tools", nil)
	req.Header.Set("Authorization", "Bearer "+issueToken(t, uuid.New()))
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "listSustainableOptions")
	assert.Contains(t, string(body), "getProductDetail")
	assert.Contains(t, string(body), "quotePrice")
}
