package game

import (
	"context"
	"log"
	"math/rand"
	"time"

	"github.com/syllaclash/backend/internal/syllable"
	"github.com/syllaclash/backend/internal/wordcheck"
)

// rejectAction acknowledges a request the engine will not perform.
// Answering the caller makes the failure visible without leaking state
// to anyone else.
func rejectAction(p *Player, action, message string) {
	log.Printf("[rejectAction] player=%s action=%s: %s", p.ID, action, message)
	sendTo(p, EventActionRejected, actionRejectedPayload{Action: action, Message: message})
}

// RegisterName handles setPlayerName: creates the lobby record for this
// connection and announces the new roster.
func (reg *Registry) RegisterName(p *Player, name string) {
	if name == "" {
		rejectAction(p, EventSetPlayerName, "name must not be empty")
		return
	}

	p.mu.Lock()
	p.Name = name
	p.mu.Unlock()

	reg.mu.Lock()
	reg.players[p.ID] = p
	reg.mu.Unlock()

	log.Printf("[RegisterName] player=%s name=%q joined the lobby", p.ID, name)
	reg.broadcastOnlinePlayers()
}

// CreateRoom handles createRoom: the caller becomes owner and the sole
// member of a fresh lobby-phase room.
func (reg *Registry) CreateRoom(p *Player) {
	if reg.player(p.ID) == nil {
		rejectAction(p, EventCreateRoom, "set a player name first")
		return
	}

	r := &Room{
		ID:         newRoomID(),
		OwnerID:    p.ID,
		players:    map[string]*Player{p.ID: p},
		order:      []string{p.ID},
		difficulty: syllable.DifficultyEasy,
		timeLeft:   30,
	}
	p.setGameState(true, r.ID)

	reg.mu.Lock()
	reg.rooms[r.ID] = r
	reg.mu.Unlock()

	log.Printf("[CreateRoom] room=%s owner=%s created", r.ID, p.ID)

	sendTo(p, EventRoomCreated, roomCreatedPayload{RoomID: r.ID, IsOwner: true})

	r.mu.Lock()
	snapshots := r.memberSnapshots()
	r.mu.Unlock()
	sendTo(p, EventPlayerJoined, snapshots)

	reg.broadcastLobby()
}

// JoinRoom handles joinRoom: adds the caller to a lobby-phase room. The
// registry read lock is held across the insert so a concurrent deleteRoom
// (which needs the write lock) cannot strand the joiner in an
// unregistered room. A player already in the room is re-acked without
// touching the turn order.
func (reg *Registry) JoinRoom(p *Player, roomID string) {
	if reg.player(p.ID) == nil {
		rejectAction(p, EventJoinRoom, "set a player name first")
		return
	}

	reg.mu.RLock()
	r := reg.rooms[roomID]
	if r == nil {
		reg.mu.RUnlock()
		rejectAction(p, EventJoinRoom, "room not found")
		return
	}

	r.mu.Lock()
	if r.isActive {
		r.mu.Unlock()
		reg.mu.RUnlock()
		rejectAction(p, EventJoinRoom, "game already in progress")
		return
	}
	if _, ok := r.players[p.ID]; ok {
		isOwner := r.OwnerID == p.ID
		r.mu.Unlock()
		reg.mu.RUnlock()
		sendTo(p, EventRoomCreated, roomCreatedPayload{RoomID: roomID, IsOwner: isOwner})
		return
	}
	r.stopGraceLocked()
	r.players[p.ID] = p
	r.order = append(r.order, p.ID)
	p.setGameState(true, r.ID)
	snapshots := r.memberSnapshots()
	members := r.memberConns()
	r.mu.Unlock()
	reg.mu.RUnlock()

	log.Printf("[JoinRoom] room=%s player=%s joined (%d players)", roomID, p.ID, len(members))

	// A join is acked with the same event as a create; only isOwner differs.
	sendTo(p, EventRoomCreated, roomCreatedPayload{RoomID: roomID, IsOwner: false})
	broadcast(members, EventPlayerJoined, snapshots)
	reg.broadcastLobby()
}

// SendAvailableRooms answers getAvailableRooms for one caller.
func (reg *Registry) SendAvailableRooms(p *Player) {
	sendTo(p, EventAvailableRooms, reg.AvailableRooms())
}

// StartGame handles startGame: owner-only, room must still be in its
// lobby phase. Draws the opening clock and syllable, hands the turn to
// the first player in join order and arms the countdown.
func (reg *Registry) StartGame(p *Player, roomID string) {
	r := reg.room(roomID)
	if r == nil {
		rejectAction(p, EventStartGame, "room not found")
		return
	}
	if r.OwnerID != p.ID {
		rejectAction(p, EventStartGame, "only the room owner can start the game")
		return
	}

	r.mu.Lock()
	if r.isActive {
		r.mu.Unlock()
		rejectAction(p, EventStartGame, "game already started")
		return
	}
	if len(r.order) == 0 {
		r.mu.Unlock()
		rejectAction(p, EventStartGame, "room has no players")
		return
	}

	frag, err := reg.selector.Select(r.difficulty)
	if err != nil {
		r.mu.Unlock()
		log.Printf("[StartGame] room=%s syllable draw failed: %v", roomID, err)
		rejectAction(p, EventStartGame, "no syllables available for this difficulty")
		return
	}

	r.isActive = true
	r.currentSyllable = frag
	r.timeLeft = reg.drawTurnSeconds()
	r.currentPlayerID = r.order[0]
	reg.armTimerLocked(r)

	payload := gameStartedPayload{
		Syllable:        r.currentSyllable,
		TimeLeft:        r.timeLeft,
		Players:         r.memberSnapshots(),
		CurrentPlayerID: r.currentPlayerID,
	}
	members := r.memberConns()
	r.mu.Unlock()

	log.Printf("[StartGame] room=%s syllable=%q timeLeft=%d first=%s",
		roomID, payload.Syllable, payload.TimeLeft, payload.CurrentPlayerID)

	broadcast(members, EventGameStarted, payload)
	reg.broadcastOnlinePlayers()
}

// SubmitWord handles submitWord: turn check, validation pipeline, then
// score + log + turn advance on acceptance. Rejections reach only the
// submitter and never mutate room state.
func (reg *Registry) SubmitWord(p *Player, roomID, word string) {
	r := reg.room(roomID)
	if r == nil {
		rejectAction(p, EventSubmitWord, "room not found")
		return
	}

	r.mu.Lock()
	if !r.isActive {
		r.mu.Unlock()
		rejectAction(p, EventSubmitWord, "game is not active")
		return
	}
	if _, ok := r.players[p.ID]; !ok {
		r.mu.Unlock()
		rejectAction(p, EventSubmitWord, "not a member of this room")
		return
	}
	if p.ID != r.currentPlayerID {
		r.mu.Unlock()
		sendTo(p, EventWordRejected, wordRejectedPayload{Message: "It's not your turn!"})
		return
	}

	res := wordcheck.Validate(reg.index, word, r.currentSyllable)
	if !res.Accepted {
		r.mu.Unlock()
		log.Printf("[SubmitWord] room=%s player=%s word=%q rejected: %s", roomID, p.ID, word, res.Reason)
		sendTo(p, EventWordRejected, wordRejectedPayload{Message: res.Message})
		return
	}

	p.addScore(1)
	r.playedWords = append(r.playedWords, PlayedWord{
		Word:        res.Entry.Word,
		PlayerID:    p.ID,
		PlayerName:  p.Name,
		Syllable:    r.currentSyllable,
		Definitions: res.Entry.Definitions,
		Synonyms:    res.Entry.Synonyms,
	})

	reg.advanceTurnLocked(r)

	payload := wordAcceptedPayload{
		PlayerID:        p.ID,
		NewSyllable:     r.currentSyllable,
		TimeLeft:        r.timeLeft,
		Players:         r.memberSnapshots(),
		CurrentPlayerID: r.currentPlayerID,
		PlayedWords:     append([]PlayedWord(nil), r.playedWords...),
	}
	members := r.memberConns()
	r.mu.Unlock()

	log.Printf("[SubmitWord] room=%s player=%s word=%q accepted, next=%s",
		roomID, p.ID, word, payload.CurrentPlayerID)

	broadcast(members, EventWordAccepted, payload)
	reg.broadcastOnlinePlayers()
}

// ChangeDifficulty handles changeDifficulty: owner-only, allowed at any
// time (even mid-game); regenerates the prompt immediately but leaves a
// running clock alone.
func (reg *Registry) ChangeDifficulty(p *Player, roomID string, difficulty syllable.Difficulty) {
	if !difficulty.Valid() {
		rejectAction(p, EventChangeDifficulty, "unknown difficulty")
		return
	}
	r := reg.room(roomID)
	if r == nil {
		rejectAction(p, EventChangeDifficulty, "room not found")
		return
	}
	if r.OwnerID != p.ID {
		rejectAction(p, EventChangeDifficulty, "only the room owner can change settings")
		return
	}

	r.mu.Lock()
	r.difficulty = difficulty
	frag, err := reg.selector.Select(difficulty)
	if err != nil {
		r.mu.Unlock()
		log.Printf("[ChangeDifficulty] room=%s syllable draw failed: %v", roomID, err)
		rejectAction(p, EventChangeDifficulty, "no syllables available for this difficulty")
		return
	}
	r.currentSyllable = frag
	payload := roomSettingsUpdatedPayload{Difficulty: difficulty, NewSyllable: frag}
	members := r.memberConns()
	r.mu.Unlock()

	log.Printf("[ChangeDifficulty] room=%s difficulty=%s syllable=%q", roomID, difficulty, frag)

	broadcast(members, EventRoomSettingsUpdated, payload)
	reg.broadcastLobby()
}

// EndRoom handles endRoom: owner-only. Resets every member's score and
// in-game flag, cancels the countdown, deletes the room and notifies
// each former member individually.
func (reg *Registry) EndRoom(p *Player, roomID string) {
	r := reg.room(roomID)
	if r == nil {
		rejectAction(p, EventEndRoom, "room not found")
		return
	}
	if r.OwnerID != p.ID {
		rejectAction(p, EventEndRoom, "only the room owner can end the room")
		return
	}

	r.mu.Lock()
	r.cancelTimerLocked()
	r.stopGraceLocked()
	r.currentPlayerID = ""
	members := r.memberConns()
	for _, m := range members {
		m.resetGameState()
	}
	// Release membership here so the delete below sees an empty room.
	r.players = make(map[string]*Player)
	r.order = nil
	r.mu.Unlock()

	reg.deleteRoom(roomID)
	log.Printf("[EndRoom] room=%s ended by owner %s (%d players released)", roomID, p.ID, len(members))

	for _, m := range members {
		sendTo(m, EventLeftRoom, nil)
	}
	broadcast(members, EventRoomEnded, nil)
	reg.broadcastLobby()
}

// LeaveRoom handles leaveRoom: removes the caller, advancing the turn if
// it was theirs and tearing the room down at once if it emptied.
func (reg *Registry) LeaveRoom(p *Player, roomID string) {
	r := reg.room(roomID)
	if r == nil {
		rejectAction(p, EventLeaveRoom, "room not found")
		return
	}
	if !reg.removeFromRoom(r, p) {
		rejectAction(p, EventLeaveRoom, "not a member of this room")
		return
	}
	p.resetGameState()
	sendTo(p, EventLeftRoom, nil)
	reg.broadcastLobby()
}

// Disconnect tears down everything the connection owned: the lobby
// record and any room membership.
func (reg *Registry) Disconnect(p *Player) {
	if reg.removePlayer(p.ID) != nil {
		log.Printf("[Disconnect] player=%s removed from lobby", p.ID)
		reg.broadcastOnlinePlayers()
	}

	reg.mu.RLock()
	rooms := make([]*Room, 0, len(reg.rooms))
	for _, r := range reg.rooms {
		rooms = append(rooms, r)
	}
	reg.mu.RUnlock()

	for _, r := range rooms {
		if reg.removeFromRoom(r, p) {
			reg.broadcastAvailableRooms()
		}
	}
}

// removeFromRoom is the single departure path shared by leaveRoom and
// disconnect. Returns false when the player was not a member. When the
// departing player held the turn, the turn passes to the player who
// occupied the next slot (the shrunken order is never re-walked from the
// top, so nobody is skipped). An emptied room is torn down immediately.
func (reg *Registry) removeFromRoom(r *Room, p *Player) bool {
	r.mu.Lock()
	if _, ok := r.players[p.ID]; !ok {
		r.mu.Unlock()
		return false
	}

	idx := indexOf(r.order, p.ID)
	wasCurrent := r.currentPlayerID == p.ID
	r.removeMemberLocked(p.ID)

	if len(r.players) == 0 {
		r.currentPlayerID = ""
		r.cancelTimerLocked()
		r.stopGraceLocked()
		r.mu.Unlock()

		if reg.deleteRoom(r.ID) {
			log.Printf("[removeFromRoom] room=%s empty after %s left, deleted", r.ID, p.ID)
		}
		return true
	}

	var turn turnChangedPayload
	advanced := false
	if wasCurrent && r.isActive {
		// idx now points at the member who moved into the vacated slot.
		reg.advanceTurnToLocked(r, idx%len(r.order))
		turn = turnChangedPayload{
			CurrentPlayerID: r.currentPlayerID,
			TimeLeft:        r.timeLeft,
			CurrentSyllable: r.currentSyllable,
		}
		advanced = true
	}
	snapshots := r.memberSnapshots()
	members := r.memberConns()
	r.mu.Unlock()

	log.Printf("[removeFromRoom] room=%s player=%s left (%d remain)", r.ID, p.ID, len(members))

	if advanced {
		broadcast(members, EventTurnChanged, turn)
	}
	broadcast(members, EventPlayerLeft, snapshots)
	return true
}

// --- turn clock ---

// drawTurnSeconds picks the next turn's clock uniformly from the
// configured [min, max] range.
func (reg *Registry) drawTurnSeconds() int {
	min, max := reg.cfg.TurnSecondsMin, reg.cfg.TurnSecondsMax
	if max <= min {
		return min
	}
	return min + rand.Intn(max-min+1)
}

// advanceTurnLocked rotates to the next player in join order. Callers
// hold r.mu. No-op when the room has no players.
func (reg *Registry) advanceTurnLocked(r *Room) {
	if len(r.order) == 0 {
		return
	}
	next := (indexOf(r.order, r.currentPlayerID) + 1) % len(r.order)
	reg.advanceTurnToLocked(r, next)
}

// advanceTurnToLocked hands the turn to order[next]: fresh clock, fresh
// syllable, re-armed countdown. A failed syllable draw keeps the current
// prompt rather than presenting a blank one.
func (reg *Registry) advanceTurnToLocked(r *Room, next int) {
	r.currentPlayerID = r.order[next]
	r.timeLeft = reg.drawTurnSeconds()

	if frag, err := reg.selector.Select(r.difficulty); err != nil {
		log.Printf("[advanceTurn] room=%s keeping syllable %q, draw failed: %v", r.ID, r.currentSyllable, err)
	} else {
		r.currentSyllable = frag
	}

	reg.armTimerLocked(r)
}

// --- countdown timer ---

// armTimerLocked replaces the room's countdown: the previous generation
// is cancelled before the new ticker goroutine starts, so two tick
// sources can never be live for one room. Callers hold r.mu.
func (reg *Registry) armTimerLocked(r *Room) {
	r.cancelTimerLocked()
	ctx, cancel := context.WithCancel(context.Background())
	r.timerCancel = cancel
	go reg.runCountdown(r, ctx, r.timerGen)
}

func (reg *Registry) runCountdown(r *Room, ctx context.Context, gen uint64) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if reg.tickOnce(r, gen) {
				return
			}
		}
	}
}

// tickOnce performs one countdown step for the given timer generation.
// Returns true when this tick source must stop: the generation is stale
// (a submission already advanced the turn), the room emptied, or the
// advance re-armed a fresh timer.
func (reg *Registry) tickOnce(r *Room, gen uint64) bool {
	r.mu.Lock()
	if r.timerGen != gen {
		r.mu.Unlock()
		return true
	}

	if len(r.players) == 0 {
		// Emptiness observed by a tick gets the grace window before the
		// reap; explicit departures tear down immediately elsewhere.
		r.cancelTimerLocked()
		r.currentPlayerID = ""
		reg.scheduleGraceReapLocked(r)
		r.mu.Unlock()
		return true
	}

	r.timeLeft--
	if r.timeLeft <= 0 {
		reg.advanceTurnLocked(r)
		payload := turnChangedPayload{
			CurrentPlayerID: r.currentPlayerID,
			TimeLeft:        r.timeLeft,
			CurrentSyllable: r.currentSyllable,
		}
		members := r.memberConns()
		r.mu.Unlock()

		log.Printf("[tick] room=%s turn timed out, next=%s", r.ID, payload.CurrentPlayerID)
		broadcast(members, EventTurnChanged, payload)
		return true
	}

	payload := timeUpdatePayload{TimeLeft: r.timeLeft}
	members := r.memberConns()
	r.mu.Unlock()

	broadcast(members, EventTimeUpdate, payload)
	return false
}

// --- empty-room reclamation ---

// scheduleGraceReapLocked arms the 15s grace window, once. Callers hold
// r.mu. All deletion funnels through deleteRoom, which is idempotent, so
// a grace reap racing an explicit teardown cannot double-delete.
func (reg *Registry) scheduleGraceReapLocked(r *Room) {
	if r.graceTimer != nil {
		return
	}
	log.Printf("[graceReap] room=%s observed empty, reaping in %s", r.ID, reg.cfg.EmptyRoomGrace)
	r.graceTimer = time.AfterFunc(reg.cfg.EmptyRoomGrace, func() {
		reg.reapIfEmpty(r.ID)
	})
}

// reapIfEmpty deletes the room if it is still empty when the grace
// window closes.
func (reg *Registry) reapIfEmpty(roomID string) {
	r := reg.room(roomID)
	if r == nil {
		return
	}

	r.mu.Lock()
	r.graceTimer = nil
	if len(r.players) > 0 {
		r.mu.Unlock()
		return
	}
	r.cancelTimerLocked()
	r.mu.Unlock()

	if reg.deleteRoom(roomID) {
		log.Printf("[graceReap] room=%s still empty, deleted", roomID)
		reg.broadcastAvailableRooms()
	}
}

func (r *Room) stopGraceLocked() {
	if r.graceTimer != nil {
		r.graceTimer.Stop()
		r.graceTimer = nil
	}
}

func indexOf(order []string, id string) int {
	for i, v := range order {
		if v == id {
			return i
		}
	}
	return -1
}
