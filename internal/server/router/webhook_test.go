package router

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/mamadbah2/pricecheck/internal/config"
	"github.com/mamadbah2/pricecheck/internal/server/handlers"
	commandsvc "github.com/mamadbah2/pricecheck/internal/service/commands"
	"github.com/mamadbah2/pricecheck/internal/service/comparison"
	"github.com/mamadbah2/pricecheck/internal/service/ranking"
	whatsappsvc "github.com/mamadbah2/pricecheck/internal/service/whatsapp"
	whatsappclient "github.com/mamadbah2/pricecheck/pkg/clients/whatsapp"
)

type recordingClient struct {
	mu     sync.Mutex
	bodies []string
}

func (c *recordingClient) SendTextMessage(_ context.Context, req whatsappclient.SendTextMessageRequest) (*whatsappclient.SendMessageResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bodies = append(c.bodies, req.Body)
	return &whatsappclient.SendMessageResponse{}, nil
}

func (c *recordingClient) SendButtonMessage(_ context.Context, req whatsappclient.SendButtonMessageRequest) (*whatsappclient.SendMessageResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bodies = append(c.bodies, req.Body)
	return &whatsappclient.SendMessageResponse{}, nil
}

func newWebhookEngine(t *testing.T) (*gin.Engine, *comparison.Registry, *recordingClient) {
	t.Helper()
	formatter := ranking.NewFormatter(language.English, "฿", "ml", "L")
	registry := comparison.NewRegistry(ranking.NewEngine(language.English, formatter), comparison.Options{})
	t.Cleanup(registry.Close)

	client := &recordingClient{}
	messaging := whatsappsvc.NewMetaWhatsAppService(
		config.WhatsAppConfig{VerifyToken: "secret"},
		client,
		registry,
		commandsvc.NewService(formatter, nil, nil, nil),
		nil,
	)
	engine := New(config.ServerConfig{},
		handlers.NewComparisonHandler(registry, nil, testMaxUploadBytes, nil),
		handlers.NewWebhookHandler(messaging, nil),
		nil)
	gin.SetMode(gin.TestMode)
	return engine, registry, client
}

func serve(engine *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestWebhookVerify(t *testing.T) {
	engine, _, _ := newWebhookEngine(t)

	rec := serve(engine, httptest.NewRequest(http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=secret&hub.challenge=1158201444", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1158201444", rec.Body.String())

	rec = serve(engine, httptest.NewRequest(http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=1158201444", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "verification failed", rec.Body.String())
}

func TestWebhookReceive(t *testing.T) {
	engine, registry, client := newWebhookEngine(t)

	payload := `{"object":"whatsapp_business_account","entry":[{"id":"1","changes":[{"field":"messages","value":{"messaging_product":"whatsapp","messages":[{"from":"6681","id":"wamid.1","type":"text","text":{"body":"/add Brand A 1000 100"}}]}}]}]}`
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	require.Equal(t, http.StatusOK, serve(engine, req).Code)

	session, err := registry.Get(whatsappsvc.SessionPrefix + "6681")
	require.NoError(t, err)
	assert.Len(t, session.View().Entries, 1)
	require.Len(t, client.bodies, 1)
	assert.Contains(t, client.bodies[0], "Added #1 Brand A")
}

func TestWebhookReceiveMalformedBody(t *testing.T) {
	engine, registry, client := newWebhookEngine(t)

	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewBufferString(`{"entry": [`))
	req.Header.Set("Content-Type", "application/json")
	rec := serve(engine, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"invalid payload"}`, rec.Body.String())
	assert.Zero(t, registry.Len())
	assert.Empty(t, client.bodies)
}

func TestWebhookRoutesAbsentWithoutHandler(t *testing.T) {
	api := newTestAPI(t, nil)

	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/webhook", nil).Code)
}
