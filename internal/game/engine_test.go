package game

import (
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syllaclash/backend/internal/lexicon"
	"github.com/syllaclash/backend/internal/syllable"
)

// fakeConn records every frame written to it.
type fakeConn struct {
	mu     sync.Mutex
	frames []Message[any]
}

func (c *fakeConn) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, v.(Message[any]))
	return nil
}

func (c *fakeConn) Close() error { return nil }

func (c *fakeConn) count(event string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, f := range c.frames {
		if f.Type == event {
			n++
		}
	}
	return n
}

func (c *fakeConn) last(event string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.frames) - 1; i >= 0; i-- {
		if c.frames[i].Type == event {
			return c.frames[i].Data, true
		}
	}
	return nil, false
}

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	idx := lexicon.Build([]lexicon.Entry{
		{Word: "apple", Synonyms: []string{"pome"}},
		{Word: "banana"},
		{Word: "carrot"},
	})
	sel := syllable.NewSelectorWithRand(
		syllable.Pools{Easy: []string{"a"}},
		rand.New(rand.NewSource(1)),
	)
	cfg := DefaultConfig()
	cfg.EmptyRoomGrace = 10 * time.Millisecond
	return NewRegistry(idx, sel, cfg)
}

func connect(t *testing.T, reg *Registry, name string) (*Player, *fakeConn) {
	t.Helper()
	conn := &fakeConn{}
	p := &Player{ID: "conn-" + name, conn: conn}
	reg.RegisterName(p, name)
	return p, conn
}

// singleRoom returns the only room in the registry.
func singleRoom(t *testing.T, reg *Registry) *Room {
	t.Helper()
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	require.Len(t, reg.rooms, 1)
	for _, r := range reg.rooms {
		return r
	}
	return nil
}

func currentPlayer(r *Room) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.currentPlayerID
}

func startedThreePlayerRoom(t *testing.T, reg *Registry) (*Room, [3]*Player, [3]*fakeConn) {
	t.Helper()
	a, ca := connect(t, reg, "A")
	b, cb := connect(t, reg, "B")
	c, cc := connect(t, reg, "C")

	reg.CreateRoom(a)
	r := singleRoom(t, reg)
	reg.JoinRoom(b, r.ID)
	reg.JoinRoom(c, r.ID)
	reg.StartGame(a, r.ID)

	require.Equal(t, a.ID, currentPlayer(r))
	return r, [3]*Player{a, b, c}, [3]*fakeConn{ca, cb, cc}
}

func TestTurnRotationFollowsJoinOrder(t *testing.T) {
	reg := testRegistry(t)
	r, players, _ := startedThreePlayerRoom(t, reg)
	a, b, c := players[0], players[1], players[2]

	reg.SubmitWord(a, r.ID, "apple")
	assert.Equal(t, b.ID, currentPlayer(r))

	reg.SubmitWord(b, r.ID, "banana")
	assert.Equal(t, c.ID, currentPlayer(r))

	reg.SubmitWord(c, r.ID, "carrot")
	assert.Equal(t, a.ID, currentPlayer(r))

	assert.Equal(t, 1, a.Score())
	assert.Equal(t, 1, b.Score())
	assert.Equal(t, 1, c.Score())

	r.mu.Lock()
	words := append([]PlayedWord(nil), r.playedWords...)
	r.mu.Unlock()
	require.Len(t, words, 3)
	assert.Equal(t, "apple", words[0].Word)
	assert.Equal(t, "banana", words[1].Word)
	assert.Equal(t, "carrot", words[2].Word)
}

func TestSubmitWordNotYourTurn(t *testing.T) {
	reg := testRegistry(t)
	r, players, conns := startedThreePlayerRoom(t, reg)
	a, b := players[0], players[1]

	reg.SubmitWord(b, r.ID, "banana")

	data, ok := conns[1].last(EventWordRejected)
	require.True(t, ok)
	assert.Equal(t, "It's not your turn!", data.(wordRejectedPayload).Message)

	assert.Equal(t, 0, conns[0].count(EventWordRejected))
	assert.Equal(t, a.ID, currentPlayer(r), "turn must not advance on a violation")
	assert.Equal(t, 0, b.Score())
}

func TestSubmitWordRejectionReasons(t *testing.T) {
	reg := testRegistry(t)
	r, players, conns := startedThreePlayerRoom(t, reg)
	a, ca := players[0], conns[0]

	cases := []struct {
		word    string
		message string
	}{
		{"", "Please enter a word!"},
		{"zyzzyx", `Word must contain the syllable "a"!`},
		{"zzza", "Word not found in dictionary!"},
	}

	for _, tc := range cases {
		reg.SubmitWord(a, r.ID, tc.word)
		data, ok := ca.last(EventWordRejected)
		require.True(t, ok, "word %q", tc.word)
		assert.Equal(t, tc.message, data.(wordRejectedPayload).Message)
		assert.Equal(t, a.ID, currentPlayer(r))
		assert.Equal(t, 0, a.Score())
	}

	r.mu.Lock()
	assert.Empty(t, r.playedWords, "rejected words must not be logged")
	r.mu.Unlock()
}

func TestSubmitWordAcceptsSynonym(t *testing.T) {
	reg := testRegistry(t)
	r, players, conns := startedThreePlayerRoom(t, reg)

	// "pome" resolves to apple via the synonym index.
	reg.SubmitWord(players[0], r.ID, "pome")

	data, ok := conns[0].last(EventWordAccepted)
	require.True(t, ok)
	payload := data.(wordAcceptedPayload)
	assert.Equal(t, players[0].ID, payload.PlayerID)
	require.Len(t, payload.PlayedWords, 1)
	assert.Equal(t, "apple", payload.PlayedWords[0].Word)
}

func TestDuplicateJoinKeepsOneTurnSlot(t *testing.T) {
	reg := testRegistry(t)
	a, _ := connect(t, reg, "A")
	b, cb := connect(t, reg, "B")
	reg.CreateRoom(a)
	r := singleRoom(t, reg)
	reg.JoinRoom(b, r.ID)

	reg.JoinRoom(b, r.ID)

	r.mu.Lock()
	assert.Equal(t, []string{a.ID, b.ID}, r.order, "a repeated join must not add a turn slot")
	r.mu.Unlock()

	// The repeat is still acked like any join.
	assert.Equal(t, 2, cb.count(EventRoomCreated))
	data, ok := cb.last(EventRoomCreated)
	require.True(t, ok)
	assert.False(t, data.(roomCreatedPayload).IsOwner)

	// With a single slot per member, B's departure leaves no stale ID
	// for the rotation to land on.
	reg.StartGame(a, r.ID)
	reg.SubmitWord(a, r.ID, "apple")
	require.Equal(t, b.ID, currentPlayer(r))
	reg.LeaveRoom(b, r.ID)

	r.mu.Lock()
	_, member := r.players[r.currentPlayerID]
	assert.Equal(t, []string{a.ID}, r.order)
	r.mu.Unlock()
	assert.True(t, member, "turn holder must always be a member")
	assert.Equal(t, a.ID, currentPlayer(r))
}

func TestSubmitWordFromDepartedPlayerRejected(t *testing.T) {
	reg := testRegistry(t)
	r, players, conns := startedThreePlayerRoom(t, reg)
	a, b := players[0], players[1]

	reg.LeaveRoom(a, r.ID)
	require.Equal(t, b.ID, currentPlayer(r))

	reg.SubmitWord(a, r.ID, "apple")

	data, ok := conns[0].last(EventActionRejected)
	require.True(t, ok)
	assert.Equal(t, EventSubmitWord, data.(actionRejectedPayload).Action)
	assert.Equal(t, 0, a.Score())
	assert.Equal(t, b.ID, currentPlayer(r))
	r.mu.Lock()
	assert.Empty(t, r.playedWords, "a non-member submission must not score or log")
	r.mu.Unlock()
}

func TestDeleteRoomRefusesRepopulatedRoom(t *testing.T) {
	reg := testRegistry(t)
	a, _ := connect(t, reg, "A")
	reg.CreateRoom(a)
	r := singleRoom(t, reg)

	// A reclamation path that observed the room empty before a join
	// committed must find the deletion refused.
	assert.False(t, reg.deleteRoom(r.ID))
	assert.NotNil(t, reg.room(r.ID))
}

func TestDepartureMidTurnAdvancesToNextSlot(t *testing.T) {
	reg := testRegistry(t)
	r, players, _ := startedThreePlayerRoom(t, reg)
	a, b, c := players[0], players[1], players[2]

	reg.SubmitWord(a, r.ID, "apple")
	require.Equal(t, b.ID, currentPlayer(r))

	reg.LeaveRoom(b, r.ID)

	assert.Equal(t, c.ID, currentPlayer(r), "C follows B, A must not be skipped to")
	r.mu.Lock()
	assert.Equal(t, []string{a.ID, c.ID}, r.order)
	r.mu.Unlock()
}

func TestLastSlotDepartureWrapsToFirst(t *testing.T) {
	reg := testRegistry(t)
	r, players, _ := startedThreePlayerRoom(t, reg)
	a, b, c := players[0], players[1], players[2]

	reg.SubmitWord(a, r.ID, "apple")
	reg.SubmitWord(b, r.ID, "banana")
	require.Equal(t, c.ID, currentPlayer(r))

	reg.LeaveRoom(c, r.ID)

	assert.Equal(t, a.ID, currentPlayer(r))
}

func TestEmptyRoomTearsDownAtOnce(t *testing.T) {
	reg := testRegistry(t)
	a, ca := connect(t, reg, "A")
	reg.CreateRoom(a)
	r := singleRoom(t, reg)
	reg.StartGame(a, r.ID)

	reg.LeaveRoom(a, r.ID)

	assert.Nil(t, reg.room(r.ID), "room must be deleted when the last player leaves")

	// Any timer goroutine still holding the old generation must refuse
	// to act: no timeUpdate or turnChanged can follow the teardown.
	updatesBefore := ca.count(EventTimeUpdate) + ca.count(EventTurnChanged)
	r.mu.Lock()
	staleGen := r.timerGen - 1
	r.mu.Unlock()
	assert.True(t, reg.tickOnce(r, staleGen), "stale tick must stop its loop")
	assert.Equal(t, updatesBefore, ca.count(EventTimeUpdate)+ca.count(EventTurnChanged))
}

func TestTickCountsDownAndBroadcasts(t *testing.T) {
	reg := testRegistry(t)
	r, _, conns := startedThreePlayerRoom(t, reg)

	r.mu.Lock()
	r.timeLeft = 3
	gen := r.timerGen
	r.mu.Unlock()

	require.False(t, reg.tickOnce(r, gen))

	data, ok := conns[2].last(EventTimeUpdate)
	require.True(t, ok)
	assert.Equal(t, 2, data.(timeUpdatePayload).TimeLeft)
}

func TestTimeoutAdvancesTurn(t *testing.T) {
	reg := testRegistry(t)
	r, players, conns := startedThreePlayerRoom(t, reg)

	r.mu.Lock()
	r.timeLeft = 1
	gen := r.timerGen
	r.mu.Unlock()

	assert.True(t, reg.tickOnce(r, gen), "an advancing tick retires its own loop")
	assert.Equal(t, players[1].ID, currentPlayer(r))

	data, ok := conns[0].last(EventTurnChanged)
	require.True(t, ok)
	payload := data.(turnChangedPayload)
	assert.Equal(t, players[1].ID, payload.CurrentPlayerID)
	assert.GreaterOrEqual(t, payload.TimeLeft, reg.cfg.TurnSecondsMin)
	assert.LessOrEqual(t, payload.TimeLeft, reg.cfg.TurnSecondsMax)
	assert.NotEmpty(t, payload.CurrentSyllable)
}

func TestStaleTickAfterSubmissionIsNoop(t *testing.T) {
	reg := testRegistry(t)
	r, players, _ := startedThreePlayerRoom(t, reg)

	r.mu.Lock()
	staleGen := r.timerGen
	r.mu.Unlock()

	// The submission advances the turn and re-arms, bumping the
	// generation; the old tick source must do nothing afterwards.
	reg.SubmitWord(players[0], r.ID, "apple")
	require.Equal(t, players[1].ID, currentPlayer(r))

	assert.True(t, reg.tickOnce(r, staleGen))
	assert.Equal(t, players[1].ID, currentPlayer(r), "stale tick must not advance the turn again")
}

func TestTickObservedEmptinessGetsGraceThenReap(t *testing.T) {
	reg := testRegistry(t)
	r, players, _ := startedThreePlayerRoom(t, reg)

	// Simulate the race the grace window exists for: the member set
	// empties between a departure and the next tick.
	r.mu.Lock()
	for _, p := range players {
		r.removeMemberLocked(p.ID)
	}
	gen := r.timerGen
	r.mu.Unlock()

	assert.True(t, reg.tickOnce(r, gen))

	r.mu.Lock()
	assert.NotNil(t, r.graceTimer, "tick-observed emptiness must arm the grace window")
	assert.Empty(t, r.currentPlayerID)
	r.mu.Unlock()

	reg.reapIfEmpty(r.ID)
	assert.Nil(t, reg.room(r.ID))

	// The second reclamation path to arrive finds nothing to delete.
	assert.False(t, reg.deleteRoom(r.ID))
}

func TestEndRoomResetsScoresAndNotifiesEveryone(t *testing.T) {
	reg := testRegistry(t)
	a, ca := connect(t, reg, "A")
	b, cb := connect(t, reg, "B")
	reg.CreateRoom(a)
	r := singleRoom(t, reg)
	reg.JoinRoom(b, r.ID)
	reg.StartGame(a, r.ID)

	a.addScore(3)
	b.addScore(5)

	reg.EndRoom(a, r.ID)

	assert.Equal(t, 0, a.Score())
	assert.Equal(t, 0, b.Score())
	assert.Nil(t, reg.room(r.ID))
	assert.Empty(t, reg.AvailableRooms())

	for _, conn := range []*fakeConn{ca, cb} {
		assert.Equal(t, 1, conn.count(EventLeftRoom))
		assert.Equal(t, 1, conn.count(EventRoomEnded))
	}
}

func TestEndRoomNonOwnerRejected(t *testing.T) {
	reg := testRegistry(t)
	a, _ := connect(t, reg, "A")
	b, cb := connect(t, reg, "B")
	reg.CreateRoom(a)
	r := singleRoom(t, reg)
	reg.JoinRoom(b, r.ID)

	reg.EndRoom(b, r.ID)

	assert.NotNil(t, reg.room(r.ID), "room must survive a non-owner end request")
	data, ok := cb.last(EventActionRejected)
	require.True(t, ok)
	assert.Equal(t, EventEndRoom, data.(actionRejectedPayload).Action)
}

func TestStartGameOwnerOnly(t *testing.T) {
	reg := testRegistry(t)
	a, _ := connect(t, reg, "A")
	b, cb := connect(t, reg, "B")
	reg.CreateRoom(a)
	r := singleRoom(t, reg)
	reg.JoinRoom(b, r.ID)

	reg.StartGame(b, r.ID)

	r.mu.Lock()
	assert.False(t, r.isActive)
	r.mu.Unlock()
	_, ok := cb.last(EventActionRejected)
	assert.True(t, ok)
}

func TestStartGameFailsLoudlyOnEmptyPools(t *testing.T) {
	idx := lexicon.Build([]lexicon.Entry{{Word: "apple"}})
	sel := syllable.NewSelectorWithRand(syllable.Pools{}, rand.New(rand.NewSource(1)))
	reg := NewRegistry(idx, sel, DefaultConfig())

	a, ca := connect(t, reg, "A")
	reg.CreateRoom(a)
	r := singleRoom(t, reg)

	reg.StartGame(a, r.ID)

	r.mu.Lock()
	assert.False(t, r.isActive, "a game must not start without a prompt")
	assert.Empty(t, r.currentSyllable)
	r.mu.Unlock()
	_, ok := ca.last(EventActionRejected)
	assert.True(t, ok)
}

func TestJoinActiveRoomRejected(t *testing.T) {
	reg := testRegistry(t)
	a, _ := connect(t, reg, "A")
	reg.CreateRoom(a)
	r := singleRoom(t, reg)
	reg.StartGame(a, r.ID)

	late, cl := connect(t, reg, "Late")
	reg.JoinRoom(late, r.ID)

	r.mu.Lock()
	assert.Len(t, r.players, 1)
	r.mu.Unlock()
	_, ok := cl.last(EventActionRejected)
	assert.True(t, ok)
}

func TestChangeDifficultyRegeneratesSyllableWithoutTouchingClock(t *testing.T) {
	idx := lexicon.Build([]lexicon.Entry{{Word: "apple"}})
	sel := syllable.NewSelectorWithRand(
		syllable.Pools{
			Easy:   []string{"a"},
			Medium: []string{"m1", "m2", "m3", "m4"},
		},
		rand.New(rand.NewSource(1)),
	)
	reg := NewRegistry(idx, sel, DefaultConfig())

	a, ca := connect(t, reg, "A")
	reg.CreateRoom(a)
	r := singleRoom(t, reg)
	reg.StartGame(a, r.ID)

	r.mu.Lock()
	clockBefore := r.timeLeft
	genBefore := r.timerGen
	r.mu.Unlock()

	reg.ChangeDifficulty(a, r.ID, syllable.DifficultyMedium)

	r.mu.Lock()
	assert.Equal(t, syllable.DifficultyMedium, r.difficulty)
	assert.NotEmpty(t, r.currentSyllable)
	assert.Equal(t, clockBefore, r.timeLeft, "difficulty change must not reset the clock")
	assert.Equal(t, genBefore, r.timerGen, "difficulty change must not re-arm the timer")
	r.mu.Unlock()

	data, ok := ca.last(EventRoomSettingsUpdated)
	require.True(t, ok)
	assert.Equal(t, syllable.DifficultyMedium, data.(roomSettingsUpdatedPayload).Difficulty)
}

func TestDisconnectRemovesPlayerEverywhere(t *testing.T) {
	reg := testRegistry(t)
	r, players, _ := startedThreePlayerRoom(t, reg)
	a, b := players[0], players[1]

	reg.Disconnect(a)

	assert.Nil(t, reg.player(a.ID))
	r.mu.Lock()
	_, stillMember := r.players[a.ID]
	r.mu.Unlock()
	assert.False(t, stillMember)
	assert.Equal(t, b.ID, currentPlayer(r), "departing turn holder hands the turn on")
}
