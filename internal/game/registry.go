package game

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"golang.org/x/time/rate"

	"github.com/syllaclash/backend/internal/lexicon"
	"github.com/syllaclash/backend/internal/syllable"
)

// Config carries the tunables the engine needs at runtime.
type Config struct {
	// TurnSecondsMin/Max bound the per-turn clock; each turn draws
	// uniformly from [Min, Max].
	TurnSecondsMin int
	TurnSecondsMax int
	// EmptyRoomGrace is how long a room observed empty by a timer tick
	// survives before it is reaped.
	EmptyRoomGrace time.Duration
	// RateRPS/RateBurst bound inbound messages per connection.
	RateRPS   float64
	RateBurst int
}

// DefaultConfig returns the stock game timings.
func DefaultConfig() Config {
	return Config{
		TurnSecondsMin: 5,
		TurnSecondsMax: 10,
		EmptyRoomGrace: 15 * time.Second,
		RateRPS:        10,
		RateBurst:      20,
	}
}

// Registry is the process-wide source of truth for who is online and
// which rooms exist. It owns both maps behind one RWMutex; room state
// itself is serialized by each room's own mutex (lock order: registry
// before room, and neither is held across a broadcast).
type Registry struct {
	mu      sync.RWMutex
	rooms   map[string]*Room
	players map[string]*Player

	index    *lexicon.Index
	selector *syllable.Selector
	cfg      Config
}

func NewRegistry(index *lexicon.Index, selector *syllable.Selector, cfg Config) *Registry {
	return &Registry{
		rooms:    make(map[string]*Room),
		players:  make(map[string]*Player),
		index:    index,
		selector: selector,
		cfg:      cfg,
	}
}

// newInboundLimiter bounds how fast one connection may send events.
func newInboundLimiter(cfg Config) *rate.Limiter {
	return rate.NewLimiter(rate.Limit(cfg.RateRPS), cfg.RateBurst)
}

func (reg *Registry) player(id string) *Player {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return reg.players[id]
}

func (reg *Registry) room(id string) *Room {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return reg.rooms[id]
}

// removePlayer drops the lobby record and returns it, if it existed.
func (reg *Registry) removePlayer(id string) *Player {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	p := reg.players[id]
	delete(reg.players, id)
	return p
}

// deleteRoom removes the room from the registry. Idempotent: the second
// reclamation path to arrive finds nothing and reports false. A room that
// regained a member between the caller observing it empty and this call
// is left alone.
func (reg *Registry) deleteRoom(id string) bool {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	r, ok := reg.rooms[id]
	if !ok {
		return false
	}

	r.mu.Lock()
	repopulated := len(r.players) > 0
	r.mu.Unlock()
	if repopulated {
		return false
	}

	delete(reg.rooms, id)
	return true
}

// OnlinePlayers snapshots every connected player for broadcast.
func (reg *Registry) OnlinePlayers() []PlayerSnapshot {
	reg.mu.RLock()
	players := lo.Values(reg.players)
	reg.mu.RUnlock()

	return lo.Map(players, func(p *Player, _ int) PlayerSnapshot {
		return p.snapshot("")
	})
}

// AvailableRooms snapshots every room still in its lobby phase.
func (reg *Registry) AvailableRooms() []RoomSummary {
	reg.mu.RLock()
	rooms := lo.Values(reg.rooms)
	players := reg.players
	ownerName := func(id string) string {
		if owner, ok := players[id]; ok {
			return owner.Name
		}
		return "Unknown"
	}

	summaries := make([]RoomSummary, 0, len(rooms))
	for _, r := range rooms {
		r.mu.Lock()
		if !r.isActive {
			summaries = append(summaries, RoomSummary{
				ID:          r.ID,
				OwnerName:   ownerName(r.OwnerID),
				PlayerCount: len(r.players),
				Difficulty:  r.difficulty,
				IsActive:    r.isActive,
			})
		}
		r.mu.Unlock()
	}
	reg.mu.RUnlock()

	return summaries
}

// allPlayers snapshots the connection list for lobby-wide broadcasts.
func (reg *Registry) allPlayers() []*Player {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return lo.Values(reg.players)
}

// newRoomID returns a short shareable room code.
func newRoomID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
