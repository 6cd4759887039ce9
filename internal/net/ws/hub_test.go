package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"gridwar/server/internal/config"
	"gridwar/server/internal/defs"
	"gridwar/server/internal/net/proto"
	"gridwar/server/internal/protocol"
	"gridwar/server/internal/worldmap"
)

func newTestConfig() config.Config {
	return config.Config{
		Simulation: config.Simulation{
			TickRate:         25,
			MaxBattleSeconds: 180,
			StartingGold:     1000,
			CheatsEnabled:    true,
		},
		Navigation: config.Navigation{
			CacheCapacity:   64,
			CacheTTLSeconds: 2,
			RequestsPerTick: 8,
			SmoothingWindow: 6,
		},
		Network: config.Network{WriteWait: time.Second},
	}
}

// newTestHub serves one room over a real websocket endpoint so tests cover
// the full handshake and frame paths.
func newTestHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	catalog := defs.DefaultCatalog()
	hub := NewHub(HubConfig{
		Config:      newTestConfig(),
		Catalog:     catalog,
		Battlefield: worldmap.Default(catalog),
	})
	session := NewSession(hub, nil)
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		session.Serve("room-1", conn)
	}))
	t.Cleanup(func() {
		hub.Close()
		server.Close()
	})
	return hub, server
}

func dialTestServer(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// serverFrame is the superset of every server frame layout, decoded loosely
// the way a client would sniff the type field.
type serverFrame struct {
	Ver        int             `json:"ver"`
	Type       string          `json:"type"`
	Event      string          `json:"event"`
	Seq        uint64          `json:"seq"`
	Reason     string          `json:"reason"`
	ClientTime int64           `json:"clientTime"`
	Payload    json.RawMessage `json:"payload"`
	Result     protocol.Result `json:"result"`

	raw []byte
}

// readFrameOfType pumps frames until one of the wanted type arrives,
// skipping interleaved broadcasts.
func readFrameOfType(t *testing.T, conn *websocket.Conn, frameType string) serverFrame {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for {
		conn.SetReadDeadline(deadline)
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("waiting for %q frame: %v", frameType, err)
		}
		var frame serverFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			t.Fatalf("malformed server frame %s: %v", data, err)
		}
		frame.raw = data
		if frame.Type == frameType {
			return frame
		}
	}
}

func TestJoinHandshakeCarriesSnapshotAndCounters(t *testing.T) {
	_, server := newTestHub(t)
	conn := dialTestServer(t, server)

	frame := readFrameOfType(t, conn, "joined")
	var joined proto.JoinedV1
	if err := json.Unmarshal(frame.raw, &joined); err != nil {
		t.Fatalf("decoding joined frame: %v", err)
	}
	if joined.Ver != proto.Version || joined.RoomID != "room-1" {
		t.Fatalf("handshake header wrong: %+v", joined)
	}
	if joined.PlayerID != 0 || joined.Team != 0 {
		t.Fatalf("first seat should be player 0 on team 0: %+v", joined)
	}
	// The starting layout populated the room before anyone joined.
	if len(joined.Entities) == 0 {
		t.Fatalf("handshake snapshot carried no entities")
	}
	if joined.NextEntityID == 0 || joined.NextPlacementID <= 1 {
		t.Fatalf("handshake missing identifier counters: entity=%d placement=%d",
			joined.NextEntityID, joined.NextPlacementID)
	}
	if len(joined.Players) != 1 || joined.Players[0].Gold != 1000 {
		t.Fatalf("handshake player table wrong: %+v", joined.Players)
	}
}

func TestSessionAcksCommandsAndSuppressesDuplicateSeq(t *testing.T) {
	_, server := newTestHub(t)
	conn := dialTestServer(t, server)
	readFrameOfType(t, conn, "joined")

	cheat := map[string]any{
		"type": "command",
		"seq":  5,
		"command": map[string]any{
			"type":  "Cheat",
			"cheat": map[string]any{"gold": 25},
		},
	}
	if err := conn.WriteJSON(cheat); err != nil {
		t.Fatalf("send command: %v", err)
	}
	ack := readFrameOfType(t, conn, "commandAck")
	if ack.Seq != 5 || !ack.Result.Success {
		t.Fatalf("command not acked: %+v", ack)
	}
	if ack.Result.Gold != 1025 {
		t.Fatalf("cheat result wrong: %+v", ack.Result)
	}

	// Replaying the same sequence number never reaches the simulation.
	if err := conn.WriteJSON(cheat); err != nil {
		t.Fatalf("resend command: %v", err)
	}
	rejected := readFrameOfType(t, conn, "commandReject")
	if rejected.Seq != 5 || rejected.Reason != proto.RejectDuplicate {
		t.Fatalf("duplicate not suppressed: %+v", rejected)
	}
}

func TestLobbyBroadcastsArmTheBattle(t *testing.T) {
	hub, server := newTestHub(t)
	first := dialTestServer(t, server)
	readFrameOfType(t, first, "joined")

	second := dialTestServer(t, server)
	readFrameOfType(t, second, "joined")

	// The first client observes the lobby filling, then the round arming.
	sawFullLobby := false
	for {
		frame := readFrameOfType(t, first, "event")
		if frame.Event == protocol.EventReadyForBattleUpdate {
			var ready readyUpdate
			if err := json.Unmarshal(frame.Payload, &ready); err != nil {
				t.Fatalf("decoding ready payload: %v", err)
			}
			if ready.PlayersJoined == 2 && ready.PlayersNeeded == 2 {
				sawFullLobby = true
			}
			continue
		}
		if frame.Event == protocol.EventNextRound {
			break
		}
	}
	if !sawFullLobby {
		t.Fatalf("lobby never reported both seats filled")
	}

	engine, ok := hub.Engine("room-1")
	if !ok || !engine.BattleActive() {
		t.Fatalf("battle not armed after both seats filled")
	}
}

func TestSessionSurvivesMalformedFrames(t *testing.T) {
	_, server := newTestHub(t)
	conn := dialTestServer(t, server)
	readFrameOfType(t, conn, "joined")

	if err := conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatalf("send garbage: %v", err)
	}
	if err := conn.WriteJSON(map[string]any{"type": "heartbeat", "sentAt": 42}); err != nil {
		t.Fatalf("send heartbeat: %v", err)
	}
	beat := readFrameOfType(t, conn, "heartbeat")
	if beat.ClientTime != 42 {
		t.Fatalf("heartbeat echo wrong: %+v", beat)
	}
}
