package game

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleWebSocket upgrades the connection, pushes the initial lobby
// snapshots and hands the socket to the read loop. A non-empty `name`
// query registers the player immediately; otherwise the client is
// expected to send setPlayerName first.
func (reg *Registry) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[HandleWebSocket] upgrade failed: %v", err)
		return
	}

	p := &Player{
		ID:      uuid.NewString(),
		conn:    conn,
		limiter: newInboundLimiter(reg.cfg),
	}

	log.Printf("[HandleWebSocket] player=%s connected", p.ID)

	// New connections get the current lobby picture straight away.
	sendTo(p, EventOnlinePlayersUpdate, reg.OnlinePlayers())
	sendTo(p, EventAvailableRooms, reg.AvailableRooms())

	if name := r.URL.Query().Get("name"); name != "" {
		reg.RegisterName(p, name)
	}

	go reg.readLoop(p, conn)
}

// readLoop parses inbound frames and dispatches them until the
// connection drops, then runs the disconnect path.
func (reg *Registry) readLoop(p *Player, conn *websocket.Conn) {
	defer func() {
		conn.Close()
		reg.Disconnect(p)
		log.Printf("[readLoop] player=%s disconnected", p.ID)
	}()

	for {
		var msg Message[json.RawMessage]
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[readLoop] player=%s read error: %v", p.ID, err)
			}
			return
		}

		if !p.allow() {
			rejectAction(p, msg.Type, "too many requests, slow down")
			continue
		}

		reg.dispatch(p, msg)
	}
}

// dispatch routes one inbound event to its engine operation. Unknown
// types are logged and dropped; malformed payloads are acknowledged to
// the sender.
func (reg *Registry) dispatch(p *Player, msg Message[json.RawMessage]) {
	switch msg.Type {
	case EventSetPlayerName:
		var name string
		if !decode(p, msg, &name) {
			return
		}
		reg.RegisterName(p, name)

	case EventCreateRoom:
		reg.CreateRoom(p)

	case EventGetAvailableRooms:
		reg.SendAvailableRooms(p)

	case EventJoinRoom:
		var req roomIDRequest
		if !decode(p, msg, &req) {
			return
		}
		reg.JoinRoom(p, req.RoomID)

	case EventStartGame:
		var req roomIDRequest
		if !decode(p, msg, &req) {
			return
		}
		reg.StartGame(p, req.RoomID)

	case EventSubmitWord:
		var req submitWordRequest
		if !decode(p, msg, &req) {
			return
		}
		reg.SubmitWord(p, req.RoomID, req.Word)

	case EventChangeDifficulty:
		var req changeDifficultyRequest
		if !decode(p, msg, &req) {
			return
		}
		reg.ChangeDifficulty(p, req.RoomID, req.Difficulty)

	case EventEndRoom:
		var req roomIDRequest
		if !decode(p, msg, &req) {
			return
		}
		reg.EndRoom(p, req.RoomID)

	case EventLeaveRoom:
		var req roomIDRequest
		if !decode(p, msg, &req) {
			return
		}
		reg.LeaveRoom(p, req.RoomID)

	default:
		log.Printf("[dispatch] player=%s unknown event type %q", p.ID, msg.Type)
	}
}

func decode(p *Player, msg Message[json.RawMessage], v any) bool {
	if err := json.Unmarshal(msg.Data, v); err != nil {
		log.Printf("[dispatch] player=%s bad %s payload: %v", p.ID, msg.Type, err)
		rejectAction(p, msg.Type, "malformed payload")
		return false
	}
	return true
}
