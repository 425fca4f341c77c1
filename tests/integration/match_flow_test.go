//go:build integration
// +build integration

package integration

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	wsmsg "github.com/palavraduelo/arena/pkg/http/ws"
)

type duelState struct {
	GameType     string `json:"game_type"`
	Phase        string `json:"phase"`
	Participants []struct {
		UserID string `json:"user_id"`
		Seat   string `json:"seat"`
	} `json:"participants"`
	TicTacToe *struct {
		Board         [9]string `json:"board"`
		CurrentPlayer string    `json:"current_player"`
	} `json:"tic_tac_toe"`
}

func attachRoom(t *testing.T, conn *websocket.Conn, roomID string) wsmsg.RoomStatePayload {
	t.Helper()

	sendMessage(t, conn, wsmsg.TypeAttachRoom, wsmsg.AttachRoomPayload{RoomID: roomID})
	msg := waitForType(t, conn, wsmsg.TypeRoomState, 10*time.Second)
	var payload wsmsg.RoomStatePayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		t.Fatalf("decode room_state payload: %v", err)
	}
	return payload
}

// waitForVersion drains room_state messages until the version advances past
// the given floor.
func waitForVersion(t *testing.T, conn *websocket.Conn, after int64, timeout time.Duration) wsmsg.RoomStatePayload {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var msg wsmsg.Message
		if err := conn.ReadJSON(&msg); err != nil {
			continue
		}
		if msg.Type != wsmsg.TypeRoomState {
			continue
		}
		var payload wsmsg.RoomStatePayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			t.Fatalf("decode room_state payload: %v", err)
		}
		if payload.Version > after {
			return payload
		}
	}
	t.Fatalf("timeout waiting for room_state past version %d", after)
	return wsmsg.RoomStatePayload{}
}

func TestTicTacToeMoveFlow(t *testing.T) {
	baseWS := envOrDefault("INTEGRATION_WS_URL", "ws://localhost:8080/ws/duels")

	host := mintPlayer(t, "FlowHost")
	guest := mintPlayer(t, "FlowGuest")

	hostConn := dialDuelWS(t, baseWS, host.AccessToken)
	defer hostConn.Close()
	guestConn := dialDuelWS(t, baseWS, guest.AccessToken)
	defer guestConn.Close()

	sendMessage(t, hostConn, wsmsg.TypeJoinQueue, wsmsg.JoinQueuePayload{
		GameType: "tic_tac_toe", Rating: 1500, SkillBracket: "ouro",
		Region: "br-south", Mode: "private", Seat: "host",
	})
	ack := waitForType(t, hostConn, wsmsg.TypeQueueUpdate, 10*time.Second)
	var ackPayload wsmsg.QueueUpdatePayload
	if err := json.Unmarshal(ack.Payload, &ackPayload); err != nil {
		t.Fatalf("decode queue_update payload: %v", err)
	}

	sendMessage(t, guestConn, wsmsg.TypeJoinQueue, wsmsg.JoinQueuePayload{
		GameType: "tic_tac_toe", Rating: 1480, SkillBracket: "ouro",
		Region: "br-south", Mode: "private", MatchCode: ackPayload.MatchCode, Seat: "guest",
	})

	match := waitForMatchFound(t, hostConn, 15*time.Second)
	waitForMatchFound(t, guestConn, 15*time.Second)

	hostState := attachRoom(t, hostConn, match.RoomID)
	attachRoom(t, guestConn, match.RoomID)

	var initial duelState
	if err := json.Unmarshal(hostState.State, &initial); err != nil {
		t.Fatalf("decode game state: %v", err)
	}
	if initial.TicTacToe == nil {
		t.Fatal("tic_tac_toe variant missing from room state")
	}
	if initial.TicTacToe.CurrentPlayer != "X" {
		t.Fatalf("host (X) should open, current player is %s", initial.TicTacToe.CurrentPlayer)
	}

	// Host plays the center; both sides must observe the new version.
	sendMessage(t, hostConn, wsmsg.TypeMakeMove, wsmsg.MakeMovePayload{RoomID: match.RoomID, Cell: 4})

	updated := waitForVersion(t, guestConn, hostState.Version, 10*time.Second)
	var after duelState
	if err := json.Unmarshal(updated.State, &after); err != nil {
		t.Fatalf("decode game state: %v", err)
	}
	if after.TicTacToe.Board[4] != "X" {
		t.Fatalf("expected X at cell 4, board: %v", after.TicTacToe.Board)
	}
	if after.TicTacToe.CurrentPlayer != "O" {
		t.Fatalf("turn should pass to O, got %s", after.TicTacToe.CurrentPlayer)
	}

	// Out-of-turn move from the host is rejected without a version bump.
	sendMessage(t, hostConn, wsmsg.TypeMakeMove, wsmsg.MakeMovePayload{RoomID: match.RoomID, Cell: 0})

	// Guest answers and the board accumulates both marks.
	sendMessage(t, guestConn, wsmsg.TypeMakeMove, wsmsg.MakeMovePayload{RoomID: match.RoomID, Cell: 0})
	final := waitForVersion(t, hostConn, updated.Version, 10*time.Second)
	var done duelState
	if err := json.Unmarshal(final.State, &done); err != nil {
		t.Fatalf("decode game state: %v", err)
	}
	if done.TicTacToe.Board[0] != "O" || done.TicTacToe.Board[4] != "X" {
		t.Fatalf("unexpected board after two moves: %v", done.TicTacToe.Board)
	}
}

func TestBattleshipFleetIssuedOnAttach(t *testing.T) {
	baseWS := envOrDefault("INTEGRATION_WS_URL", "ws://localhost:8080/ws/duels")

	host := mintPlayer(t, "FleetHost")
	guest := mintPlayer(t, "FleetGuest")

	hostConn := dialDuelWS(t, baseWS, host.AccessToken)
	defer hostConn.Close()
	guestConn := dialDuelWS(t, baseWS, guest.AccessToken)
	defer guestConn.Close()

	sendMessage(t, hostConn, wsmsg.TypeJoinQueue, wsmsg.JoinQueuePayload{
		GameType: "battleship", Rating: 1500, SkillBracket: "ouro",
		Region: "br-south", Mode: "private", Seat: "host",
	})
	ack := waitForType(t, hostConn, wsmsg.TypeQueueUpdate, 10*time.Second)
	var ackPayload wsmsg.QueueUpdatePayload
	if err := json.Unmarshal(ack.Payload, &ackPayload); err != nil {
		t.Fatalf("decode queue_update payload: %v", err)
	}

	sendMessage(t, guestConn, wsmsg.TypeJoinQueue, wsmsg.JoinQueuePayload{
		GameType: "battleship", Rating: 1500, SkillBracket: "ouro",
		Region: "br-south", Mode: "private", MatchCode: ackPayload.MatchCode, Seat: "guest",
	})

	match := waitForMatchFound(t, hostConn, 15*time.Second)

	sendMessage(t, hostConn, wsmsg.TypeAttachRoom, wsmsg.AttachRoomPayload{RoomID: match.RoomID})
	msg := waitForType(t, hostConn, wsmsg.TypeFleetIssued, 10*time.Second)

	var fleet wsmsg.FleetIssuedPayload
	if err := json.Unmarshal(msg.Payload, &fleet); err != nil {
		t.Fatalf("decode fleet_issued payload: %v", err)
	}
	if fleet.RoomID != match.RoomID {
		t.Fatalf("fleet issued for wrong room: %s", fleet.RoomID)
	}
	if len(fleet.Ocean) == 0 {
		t.Fatal("empty ocean grid in fleet_issued")
	}
}
