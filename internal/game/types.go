package game

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/syllaclash/backend/internal/lexicon"
	"github.com/syllaclash/backend/internal/syllable"
)

// Message is the JSON envelope for every frame in both directions.
type Message[T any] struct {
	Type string `json:"type"`
	Data T      `json:"data"`
}

// Conn is the slice of a websocket connection the game layer writes to.
// *websocket.Conn satisfies it; tests inject a recording fake.
type Conn interface {
	WriteJSON(v any) error
	Close() error
}

// Player is one connected client. A single record backs both the lobby
// view and any room membership; mutable fields are guarded by mu, which
// is a leaf lock (never held while acquiring another).
type Player struct {
	ID   string
	Name string

	mu            sync.Mutex
	score         int
	inGame        bool
	currentRoomID string

	conn    Conn
	writeMu sync.Mutex
	limiter *rate.Limiter
}

// PlayerSnapshot is the broadcast shape of a player.
type PlayerSnapshot struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Score    int    `json:"score"`
	IsInGame bool   `json:"isInGame"`
	IsOwner  bool   `json:"isOwner,omitempty"`
}

func (p *Player) Score() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.score
}

func (p *Player) addScore(delta int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.score += delta
	return p.score
}

func (p *Player) setGameState(inGame bool, roomID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.inGame = inGame
	p.currentRoomID = roomID
}

func (p *Player) resetGameState() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.score = 0
	p.inGame = false
	p.currentRoomID = ""
}

func (p *Player) snapshot(ownerID string) PlayerSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return PlayerSnapshot{
		ID:       p.ID,
		Name:     p.Name,
		Score:    p.score,
		IsInGame: p.inGame,
		IsOwner:  ownerID != "" && p.ID == ownerID,
	}
}

// send writes one frame to the player's connection. The per-player write
// mutex keeps broadcast and direct writes from interleaving frames.
func (p *Player) send(msg Message[any]) error {
	if p.conn == nil {
		return nil
	}
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	return p.conn.WriteJSON(msg)
}

// allow reports whether the connection is within its inbound rate budget.
func (p *Player) allow() bool {
	return p.limiter == nil || p.limiter.Allow()
}

// PlayedWord is one accepted submission in a room's ordered log.
type PlayedWord struct {
	Word        string               `json:"word"`
	PlayerID    string               `json:"playerId"`
	PlayerName  string               `json:"playerName"`
	Syllable    string               `json:"syllable"`
	Definitions []lexicon.Definition `json:"definitions,omitempty"`
	Synonyms    []string             `json:"synonyms,omitempty"`
}

// Room is one game session. All state behind mu; the iteration order of
// players is kept in order, which defines the turn sequence.
type Room struct {
	ID      string
	OwnerID string

	mu              sync.Mutex
	players         map[string]*Player
	order           []string
	difficulty      syllable.Difficulty
	currentSyllable string
	timeLeft        int
	isActive        bool
	currentPlayerID string
	playedWords     []PlayedWord

	// At most one live countdown per room: arming bumps timerGen and
	// cancels the previous context, so a stale tick is always a no-op.
	timerGen    uint64
	timerCancel context.CancelFunc
	graceTimer  *time.Timer
}

// cancelTimerLocked stops the room's countdown. Callers hold r.mu.
func (r *Room) cancelTimerLocked() {
	r.timerGen++
	if r.timerCancel != nil {
		r.timerCancel()
		r.timerCancel = nil
	}
}

func (r *Room) memberSnapshots() []PlayerSnapshot {
	snaps := make([]PlayerSnapshot, 0, len(r.order))
	for _, id := range r.order {
		if p, ok := r.players[id]; ok {
			snaps = append(snaps, p.snapshot(r.OwnerID))
		}
	}
	return snaps
}

func (r *Room) memberConns() []*Player {
	members := make([]*Player, 0, len(r.order))
	for _, id := range r.order {
		if p, ok := r.players[id]; ok {
			members = append(members, p)
		}
	}
	return members
}

// removeMemberLocked drops one player from the room without renumbering
// the remaining turn slots.
func (r *Room) removeMemberLocked(playerID string) {
	delete(r.players, playerID)
	for i, id := range r.order {
		if id == playerID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}
