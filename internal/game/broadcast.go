package game

import "log"

// sendTo writes one event to a single player.
func sendTo(p *Player, event string, data any) {
	if p == nil {
		return
	}
	if err := p.send(Message[any]{Type: event, Data: data}); err != nil {
		log.Printf("[sendTo] player=%s event=%s write failed: %v", p.ID, event, err)
	}
}

// broadcast writes one event to every player in the snapshot. Callers
// snapshot membership first and hold no locks here; a slow or dead
// connection only costs its own write.
func broadcast(players []*Player, event string, data any) {
	msg := Message[any]{Type: event, Data: data}
	for _, p := range players {
		if err := p.send(msg); err != nil {
			log.Printf("[broadcast] player=%s event=%s write failed: %v", p.ID, event, err)
		}
	}
}

// broadcastLobby pushes the shared lobby snapshots (online players and
// joinable rooms) to every connection. Both go out after nearly every
// state change; the chatty contract keeps thin clients trivial.
func (reg *Registry) broadcastLobby() {
	all := reg.allPlayers()
	broadcast(all, EventOnlinePlayersUpdate, reg.OnlinePlayers())
	broadcast(all, EventAvailableRooms, reg.AvailableRooms())
}

func (reg *Registry) broadcastAvailableRooms() {
	broadcast(reg.allPlayers(), EventAvailableRooms, reg.AvailableRooms())
}

func (reg *Registry) broadcastOnlinePlayers() {
	broadcast(reg.allPlayers(), EventOnlinePlayersUpdate, reg.OnlinePlayers())
}
