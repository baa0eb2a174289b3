package whatsapp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/pricecheck/internal/config"
)

type capturedRequest struct {
	path string
	auth string
	body map[string]any
}

func newTestClient(t *testing.T, status int, response string) (*APIClient, *capturedRequest) {
	t.Helper()
	captured := &capturedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.path = r.URL.Path
		captured.auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&captured.body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)

	client := NewClient(config.WhatsAppConfig{
		AccessToken:   "token",
		PhoneNumberID: "12345",
		BaseURL:       srv.URL + "/",
		APIVersion:    "v20.0",
	})
	return client, captured
}

func TestSendTextMessage(t *testing.T) {
	client, captured := newTestClient(t, http.StatusOK, `{"messages":[{"id":"wamid.1"}]}`)

	resp, err := client.SendTextMessage(context.Background(), SendTextMessageRequest{To: "66800000000", Body: "Price comparison"})
	require.NoError(t, err)

	require.Len(t, resp.Messages, 1)
	assert.Equal(t, "wamid.1", resp.Messages[0].ID)
	assert.Equal(t, "/v20.0/12345/messages", captured.path)
	assert.Equal(t, "Bearer token", captured.auth)
	assert.Equal(t, "text", captured.body["type"])
	assert.Equal(t, "Price comparison", captured.body["text"].(map[string]any)["body"])
}

func TestSendButtonMessage(t *testing.T) {
	client, captured := newTestClient(t, http.StatusOK, `{"messages":[{"id":"wamid.2"}]}`)

	_, err := client.SendButtonMessage(context.Background(), SendButtonMessageRequest{
		To:   "66800000000",
		Body: "Delete Brand A?",
		Buttons: []Button{
			{ID: "/confirm", Title: "Delete"},
			{ID: "/keep", Title: "Keep"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "interactive", captured.body["type"])
	interactive := captured.body["interactive"].(map[string]any)
	buttons := interactive["action"].(map[string]any)["buttons"].([]any)
	require.Len(t, buttons, 2)
	assert.Equal(t, "/confirm", buttons[0].(map[string]any)["reply"].(map[string]any)["id"])
}

func TestSendButtonMessageRejectsTooManyButtons(t *testing.T) {
	client := NewClient(config.WhatsAppConfig{BaseURL: "http://127.0.0.1:0", APIVersion: "v20.0"})

	_, err := client.SendButtonMessage(context.Background(), SendButtonMessageRequest{
		Buttons: []Button{{ID: "1"}, {ID: "2"}, {ID: "3"}, {ID: "4"}},
	})
	assert.Error(t, err)
}

func TestSendTextMessageAPIError(t *testing.T) {
	client, _ := newTestClient(t, http.StatusBadRequest, `{"error":{"message":"Recipient not allowed","code":131030}}`)

	_, err := client.SendTextMessage(context.Background(), SendTextMessageRequest{To: "1", Body: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "code=131030")
	assert.Contains(t, err.Error(), "Recipient not allowed")
}
