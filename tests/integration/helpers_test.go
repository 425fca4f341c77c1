//go:build integration
// +build integration

package integration

import (
	"encoding/json"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/palavraduelo/arena/internal/auth"
	wsmsg "github.com/palavraduelo/arena/pkg/http/ws"
)

type playerInfo struct {
	ID          uuid.UUID
	AccessToken string
}

func envOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// mintPlayer signs an access token with the same shared secret the server
// under test was started with. Production tokens come from the external auth
// service; integration runs mint their own.
func mintPlayer(t *testing.T, displayName string) playerInfo {
	t.Helper()

	secret := envOrDefault("INTEGRATION_JWT_SECRET", "local-dev-secret")
	issuer := envOrDefault("INTEGRATION_JWT_ISSUER", "palavra-arena")

	userID := uuid.New()
	verifier := auth.NewVerifier([]byte(secret), issuer)
	token, err := verifier.Issue(userID, displayName, time.Hour)
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}
	return playerInfo{ID: userID, AccessToken: token}
}

func dialDuelWS(t *testing.T, wsBase, token string) *websocket.Conn {
	t.Helper()

	u, err := url.Parse(wsBase)
	if err != nil {
		t.Fatalf("invalid WS url: %v", err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		t.Fatalf("websocket dial failed: %v", err)
	}
	return conn
}

func sendMessage(t *testing.T, conn *websocket.Conn, msgType string, payload interface{}) {
	t.Helper()

	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal %s payload: %v", msgType, err)
	}
	conn.SetWriteDeadline(time.Now().Add(3 * time.Second))
	if err := conn.WriteJSON(wsmsg.Message{Type: msgType, Payload: raw}); err != nil {
		t.Fatalf("failed to send %s: %v", msgType, err)
	}
}

// waitForType reads messages until one of the wanted type arrives, skipping
// everything else (pings, lobby stats, stale room states).
func waitForType(t *testing.T, conn *websocket.Conn, msgType string, timeout time.Duration) wsmsg.Message {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var msg wsmsg.Message
		if err := conn.ReadJSON(&msg); err != nil {
			continue
		}
		if msg.Type == msgType {
			return msg
		}
	}
	t.Fatalf("timeout waiting for %s", msgType)
	return wsmsg.Message{}
}

func waitForMatchFound(t *testing.T, conn *websocket.Conn, timeout time.Duration) wsmsg.MatchFoundPayload {
	t.Helper()

	msg := waitForType(t, conn, wsmsg.TypeMatchFound, timeout)
	var payload wsmsg.MatchFoundPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		t.Fatalf("decode match_found payload: %v", err)
	}
	return payload
}

func waitForErrorCode(t *testing.T, conn *websocket.Conn, code string, timeout time.Duration) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var msg wsmsg.Message
		if err := conn.ReadJSON(&msg); err != nil {
			continue
		}
		if msg.Type != wsmsg.TypeError {
			continue
		}
		var payload wsmsg.ErrorPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			t.Fatalf("decode error payload: %v", err)
		}
		if payload.Code == code {
			return
		}
	}
	t.Fatalf("timeout waiting for error code %q", code)
}
