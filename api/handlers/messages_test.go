package handlers_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"messagely/config"
	"messagely/models"
	"messagely/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type createResponse struct {
	Message map[string]any `json:"message"`
}

type sentResponse struct {
	Message models.SentMessage `json:"message"`
}

type detailResponse struct {
	Msg models.MessageDetail `json:"msg"`
}

type receiptResponse struct {
	Message models.ReadReceipt `json:"message"`
}

func sendMessage(t *testing.T, env *testEnv, from, to, body string) models.SentMessage {
	t.Helper()
	w := env.do(t, http.MethodPost, "/api/v1/messages", from, map[string]string{"to_username": to, "body": body})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode[sentResponse](t, w).Message
}

func TestMessagesScenario(t *testing.T) {
	env := newTestEnv(t, config.ReadPolicyKeep)

	sent := sendMessage(t, env, "alice", "bob", "hi")
	assert.NotZero(t, sent.ID)
	assert.Equal(t, "alice", sent.FromUsername)
	assert.Equal(t, "bob", sent.ToUsername)
	assert.Equal(t, "hi", sent.Body)
	assert.False(t, sent.SentAt.IsZero())

	w := env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/messages/%d/read", sent.ID), "bob", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	receipt := decode[receiptResponse](t, w).Message
	assert.Equal(t, sent.ID, receipt.ID)
	require.NotNil(t, receipt.ReadAt)
	assert.False(t, receipt.ReadAt.Before(sent.SentAt))

	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/messages/%d", sent.ID), "carol", nil)
	requireError(t, w, http.StatusUnauthorized, "Unauthorized")
}

func TestCreateMessageResponseShape(t *testing.T) {
	env := newTestEnv(t, config.ReadPolicyKeep)

	w := env.do(t, http.MethodPost, "/api/v1/messages", "alice", map[string]string{"to_username": "bob", "body": "hi"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	msg := decode[createResponse](t, w).Message
	assert.ElementsMatch(t, []string{"id", "from_username", "to_username", "body", "sent_at"}, keys(msg))

	stored, err := env.messages.Get(context.Background(), int64(msg["id"].(float64)))
	require.NoError(t, err)
	assert.Equal(t, "alice", stored.FromUser.Username)
	assert.Equal(t, "bob", stored.ToUser.Username)
	assert.Equal(t, "hi", stored.Body)
	assert.Nil(t, stored.ReadAt)

	events := env.notifier.Events()
	require.Len(t, events, 1)
	assert.Equal(t, services.EventMessageSent, events[0].Event)
	assert.Equal(t, "bob", events[0].Recipient)
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestCreateMessageSenderIsCaller(t *testing.T) {
	env := newTestEnv(t, config.ReadPolicyKeep)

	w := env.do(t, http.MethodPost, "/api/v1/messages", "carol",
		map[string]string{"to_username": "bob", "body": "spoof", "from_username": "alice"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "carol", decode[sentResponse](t, w).Message.FromUsername)
}

func TestCreateMessageValidation(t *testing.T) {
	env := newTestEnv(t, config.ReadPolicyKeep)

	w := env.do(t, http.MethodPost, "/api/v1/messages", "alice", map[string]string{"to_username": "bob"})
	requireError(t, w, http.StatusBadRequest, "")

	w = env.do(t, http.MethodPost, "/api/v1/messages", "alice", map[string]string{"to_username": "nobody", "body": "hi"})
	requireError(t, w, http.StatusNotFound, "No such user: nobody")

	w = env.do(t, http.MethodPost, "/api/v1/messages", "", map[string]string{"to_username": "bob", "body": "hi"})
	requireError(t, w, http.StatusUnauthorized, "Unauthorized")

	assert.Empty(t, env.notifier.Events())
}

func TestCreateMessageIDsAreUnique(t *testing.T) {
	env := newTestEnv(t, config.ReadPolicyKeep)

	seen := map[int64]bool{}
	for i := 0; i < 5; i++ {
		sent := sendMessage(t, env, "alice", "bob", fmt.Sprintf("msg %d", i))
		assert.False(t, seen[sent.ID], "duplicate id %d", sent.ID)
		seen[sent.ID] = true
	}
}

func TestGetMessageAuthorization(t *testing.T) {
	env := newTestEnv(t, config.ReadPolicyKeep)
	sent := sendMessage(t, env, "alice", "bob", "hi")
	path := fmt.Sprintf("/api/v1/messages/%d", sent.ID)

	// отправитель и получатель оба видят сообщение, остальные - нет
	for _, username := range []string{"alice", "bob"} {
		w := env.do(t, http.MethodGet, path, username, nil)
		require.Equal(t, http.StatusOK, w.Code, "caller %s: %s", username, w.Body.String())
		msg := decode[detailResponse](t, w).Msg
		assert.Equal(t, sent.ID, msg.ID)
		assert.Equal(t, "hi", msg.Body)
		assert.Equal(t, "alice", msg.FromUser.Username)
		assert.Equal(t, "bob", msg.ToUser.Username)
		assert.NotEmpty(t, msg.FromUser.FirstName)
		assert.NotEmpty(t, msg.ToUser.LastName)
		assert.Nil(t, msg.ReadAt)
	}

	w := env.do(t, http.MethodGet, path, "carol", nil)
	requireError(t, w, http.StatusUnauthorized, "Unauthorized")

	w = env.do(t, http.MethodGet, path, "", nil)
	requireError(t, w, http.StatusUnauthorized, "Unauthorized")
}

func TestGetMessageInvalidToken(t *testing.T) {
	env := newTestEnv(t, config.ReadPolicyKeep)
	sent := sendMessage(t, env, "alice", "bob", "hi")

	req, err := http.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/messages/%d", sent.ID), nil)
	require.NoError(t, err)
	foreign, err := services.NewTokenIssuer("other-secret", time.Hour).Issue("alice")
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+foreign)

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	requireError(t, w, http.StatusUnauthorized, "Unauthorized")
}

func TestGetMessageQueryToken(t *testing.T) {
	env := newTestEnv(t, config.ReadPolicyKeep)
	sent := sendMessage(t, env, "alice", "bob", "hi")

	w := env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/messages/%d?_token=%s", sent.ID, env.token(t, "bob")), "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestGetMessageNotFound(t *testing.T) {
	env := newTestEnv(t, config.ReadPolicyKeep)

	w := env.do(t, http.MethodGet, "/api/v1/messages/999", "alice", nil)
	requireError(t, w, http.StatusNotFound, "No such message: 999")

	w = env.do(t, http.MethodGet, "/api/v1/messages/abc", "alice", nil)
	requireError(t, w, http.StatusBadRequest, "Invalid message id")

	// числовые id вне диапазона доходят до хранилища и дают его 404
	w = env.do(t, http.MethodGet, "/api/v1/messages/0", "alice", nil)
	requireError(t, w, http.StatusNotFound, "No such message: 0")

	w = env.do(t, http.MethodPost, "/api/v1/messages/-1/read", "bob", nil)
	requireError(t, w, http.StatusNotFound, "No such message: -1")
}

func TestMarkReadOnlyRecipient(t *testing.T) {
	env := newTestEnv(t, config.ReadPolicyKeep)
	sent := sendMessage(t, env, "alice", "bob", "hi")
	path := fmt.Sprintf("/api/v1/messages/%d/read", sent.ID)

	w := env.do(t, http.MethodPost, path, "alice", nil)
	requireError(t, w, http.StatusUnauthorized, "Unauthorized")

	w = env.do(t, http.MethodPost, path, "carol", nil)
	requireError(t, w, http.StatusUnauthorized, "Unauthorized")

	stored, err := env.messages.Get(context.Background(), sent.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.ReadAt, "unauthorized mark-read must not touch the message")

	w = env.do(t, http.MethodPost, path, "bob", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body map[string]map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.ElementsMatch(t, []string{"id", "read_at"}, keys(body["message"]))

	events := env.notifier.Events()
	require.Len(t, events, 2)
	assert.Equal(t, services.EventMessageRead, events[1].Event)
	assert.Equal(t, "alice", events[1].Recipient, "read receipt goes to the sender")
}

func TestMarkReadNotFoundIsNotUnauthorized(t *testing.T) {
	env := newTestEnv(t, config.ReadPolicyKeep)

	w := env.do(t, http.MethodPost, "/api/v1/messages/404/read", "bob", nil)
	requireError(t, w, http.StatusNotFound, "No such message: 404")
}

func TestMarkReadTwiceKeepsTimestamp(t *testing.T) {
	env := newTestEnv(t, config.ReadPolicyKeep)
	sent := sendMessage(t, env, "alice", "bob", "hi")
	path := fmt.Sprintf("/api/v1/messages/%d/read", sent.ID)

	first := decode[receiptResponse](t, env.do(t, http.MethodPost, path, "bob", nil)).Message
	time.Sleep(5 * time.Millisecond)
	second := decode[receiptResponse](t, env.do(t, http.MethodPost, path, "bob", nil)).Message

	require.NotNil(t, first.ReadAt)
	require.NotNil(t, second.ReadAt)
	assert.True(t, second.ReadAt.Equal(*first.ReadAt))
}

func TestMarkReadTwiceRestamps(t *testing.T) {
	env := newTestEnv(t, config.ReadPolicyRestamp)
	sent := sendMessage(t, env, "alice", "bob", "hi")
	path := fmt.Sprintf("/api/v1/messages/%d/read", sent.ID)

	first := decode[receiptResponse](t, env.do(t, http.MethodPost, path, "bob", nil)).Message
	time.Sleep(5 * time.Millisecond)
	second := decode[receiptResponse](t, env.do(t, http.MethodPost, path, "bob", nil)).Message

	require.NotNil(t, first.ReadAt)
	require.NotNil(t, second.ReadAt)
	assert.True(t, second.ReadAt.After(*first.ReadAt))
}

func TestGetMessageAfterRead(t *testing.T) {
	env := newTestEnv(t, config.ReadPolicyKeep)
	sent := sendMessage(t, env, "alice", "bob", "hi")

	w := env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/messages/%d/read", sent.ID), "bob", nil)
	require.Equal(t, http.StatusOK, w.Code)
	receipt := decode[receiptResponse](t, w).Message

	msg := decode[detailResponse](t, env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/messages/%d", sent.ID), "alice", nil)).Msg
	require.NotNil(t, msg.ReadAt)
	assert.True(t, msg.ReadAt.Equal(*receipt.ReadAt))
}
