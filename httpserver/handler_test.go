package httpserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thresholdshare/escrow-backend/api"
	"github.com/thresholdshare/escrow-backend/escrow"
	"github.com/thresholdshare/escrow-backend/interfaces"
	"github.com/thresholdshare/escrow-backend/repository"
	"github.com/thresholdshare/escrow-backend/storage"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := repository.NewMemory()
	blobs := storage.NewMemoryStore()
	coordinator := escrow.New(repo, blobs, time.Minute, log)
	handler := NewHandler(coordinator, repo, log)

	srv, err := New(&HTTPServerConfig{
		ListenAddr:  "127.0.0.1:0",
		MetricsAddr: "",
		Log:         log,
	}, handler)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.getRouter())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, body any, into any) int {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	defer resp.Body.Close()

	if into != nil && resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(into))
	}
	return resp.StatusCode
}

func registerUser(t *testing.T, baseURL, name string) string {
	t.Helper()
	var user interfaces.User
	status := postJSON(t, baseURL+"/api/users", api.RegisterUserRequest{Name: name}, &user)
	require.Equal(t, http.StatusOK, status)
	require.NotEmpty(t, user.ID)
	return user.ID.String()
}

func pendingFor(t *testing.T, baseURL, userID string) (int, []api.PendingItemResponse) {
	t.Helper()
	resp, err := http.Get(fmt.Sprintf("%s/api/users/%s/pending", baseURL, userID))
	require.NoError(t, err)
	defer resp.Body.Close()

	var items []api.PendingItemResponse
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&items))
	}
	return resp.StatusCode, items
}

func TestUserEndpoints(t *testing.T) {
	ts := newTestServer(t)

	alice := registerUser(t, ts.URL, "alice")
	bob := registerUser(t, ts.URL, "bob")
	assert.NotEqual(t, alice, bob)

	resp, err := http.Get(ts.URL + "/api/users")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var users []interfaces.User
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&users))
	assert.Len(t, users, 2)

	status := postJSON(t, ts.URL+"/api/users", api.RegisterUserRequest{}, nil)
	assert.Equal(t, http.StatusBadRequest, status, "Empty name should be rejected")
}

func TestSendMessageValidation(t *testing.T) {
	ts := newTestServer(t)
	alice := registerUser(t, ts.URL, "alice")

	status := postJSON(t, ts.URL+"/api/messages", api.SendMessageRequest{
		SenderID: alice, Threshold: 0, Filename: "f", Payload: []byte("x"),
	}, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status = postJSON(t, ts.URL+"/api/messages", api.SendMessageRequest{
		SenderID: "not-a-uuid", Threshold: 1, Filename: "f", Payload: []byte("x"),
	}, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status = postJSON(t, ts.URL+"/api/messages", api.SendMessageRequest{
		SenderID: interfaces.NewUserID().String(), Threshold: 1, Filename: "f", Payload: []byte("x"),
	}, nil)
	assert.Equal(t, http.StatusNotFound, status, "Unregistered sender should 404")
}

func TestEscrowFlowOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	alice := registerUser(t, ts.URL, "alice")
	bob := registerUser(t, ts.URL, "bob")
	carol := registerUser(t, ts.URL, "carol")

	payload := []byte("secret document contents")
	var msg api.MessageResponse
	status := postJSON(t, ts.URL+"/api/messages", api.SendMessageRequest{
		SenderID:    alice,
		ReceiverIDs: []string{bob, carol},
		Threshold:   2,
		Filename:    "doc.txt",
		Payload:     payload,
	}, &msg)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 2, msg.Threshold)
	assert.True(t, msg.IsEncrypted)
	assert.Nil(t, msg.ValidTill)

	// Every participant, the sender included, is owed a key share.
	shares := make(map[string]string)
	for _, u := range []string{alice, bob, carol} {
		status, items := pendingFor(t, ts.URL, u)
		require.Equal(t, http.StatusOK, status)
		require.Len(t, items, 1)
		assert.Equal(t, api.PendingKindKeyShare, items[0].Kind)
		assert.Equal(t, msg.ID, items[0].MessageID)
		assert.NotEmpty(t, items[0].Share)
		assert.Empty(t, items[0].Payload)
		shares[u] = items[0].Share
	}

	// Shares are delivered once; a second poll is empty.
	status, _ = pendingFor(t, ts.URL, bob)
	assert.Equal(t, http.StatusNoContent, status)

	ackURL := fmt.Sprintf("%s/api/messages/%s/acknowledge", ts.URL, msg.ID)

	var ack api.AcknowledgeResponse
	status = postJSON(t, ackURL, api.AcknowledgeRequest{UserID: bob, Share: shares[bob]}, &ack)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, ack.Effect)
	require.NotNil(t, ack.Message)
	assert.Equal(t, 1, ack.Message.ConfirmedCount)
	assert.NotNil(t, ack.Message.ValidTill)
	assert.True(t, ack.Message.IsEncrypted)

	// Repeated acknowledgment succeeds without effect.
	status = postJSON(t, ackURL, api.AcknowledgeRequest{UserID: bob, Share: shares[bob]}, &ack)
	require.Equal(t, http.StatusOK, status)
	assert.False(t, ack.Effect)

	// Second distinct confirmation reaches the threshold.
	status = postJSON(t, ackURL, api.AcknowledgeRequest{UserID: carol, Share: shares[carol]}, &ack)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, ack.Effect)
	require.NotNil(t, ack.Message)
	assert.False(t, ack.Message.IsEncrypted)
	assert.Equal(t, 2, ack.Message.ConfirmedCount)

	// Recipients now collect the decrypted payload, exactly once.
	status, items := pendingFor(t, ts.URL, alice)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, items, 1)
	assert.Equal(t, api.PendingKindPayload, items[0].Kind)
	assert.Equal(t, "doc.txt", items[0].Filename)
	assert.Equal(t, payload, items[0].Payload)
	assert.Empty(t, items[0].Share)

	status, _ = pendingFor(t, ts.URL, alice)
	assert.Equal(t, http.StatusNoContent, status)
}

func TestAcknowledgeValidation(t *testing.T) {
	ts := newTestServer(t)
	alice := registerUser(t, ts.URL, "alice")

	var msg api.MessageResponse
	status := postJSON(t, ts.URL+"/api/messages", api.SendMessageRequest{
		SenderID: alice, Threshold: 1, Filename: "f", Payload: []byte("x"),
	}, &msg)
	require.Equal(t, http.StatusOK, status)

	ackURL := fmt.Sprintf("%s/api/messages/%s/acknowledge", ts.URL, msg.ID)

	status = postJSON(t, ackURL, api.AcknowledgeRequest{UserID: alice, Share: "not hex"}, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status = postJSON(t, ackURL, api.AcknowledgeRequest{UserID: "bad", Share: "aabb"}, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	unknownURL := fmt.Sprintf("%s/api/messages/%s/acknowledge", ts.URL, interfaces.NewMessageID())
	status = postJSON(t, unknownURL, api.AcknowledgeRequest{UserID: alice, Share: "aabb"}, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestHealthAndDrainEndpoints(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := repository.NewMemory()
	coordinator := escrow.New(repo, storage.NewMemoryStore(), time.Minute, log)

	srv, err := New(&HTTPServerConfig{
		ListenAddr:  "127.0.0.1:0",
		MetricsAddr: "",
		Log:         log,
	}, NewHandler(coordinator, repo, log))
	require.NoError(t, err)

	ts := httptest.NewServer(srv.getRouter())
	defer ts.Close()

	get := func(path string) int {
		resp, err := http.Get(ts.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		return resp.StatusCode
	}

	assert.Equal(t, http.StatusOK, get("/livez"))
	assert.Equal(t, http.StatusOK, get("/readyz"))
	assert.Equal(t, http.StatusOK, get("/drain"))
	assert.Equal(t, http.StatusServiceUnavailable, get("/readyz"))
	assert.Equal(t, http.StatusOK, get("/undrain"))
	assert.Equal(t, http.StatusOK, get("/readyz"))
}
