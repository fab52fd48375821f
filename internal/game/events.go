package game

import "github.com/syllaclash/backend/internal/syllable"

// Inbound event types (client -> server).
const (
	EventSetPlayerName     = "setPlayerName"
	EventCreateRoom        = "createRoom"
	EventGetAvailableRooms = "getAvailableRooms"
	EventJoinRoom          = "joinRoom"
	EventStartGame         = "startGame"
	EventSubmitWord        = "submitWord"
	EventChangeDifficulty  = "changeDifficulty"
	EventEndRoom           = "endRoom"
	EventLeaveRoom         = "leaveRoom"
)

// Outbound event types (server -> client).
const (
	EventOnlinePlayersUpdate = "onlinePlayersUpdate"
	EventAvailableRooms      = "availableRooms"
	EventRoomCreated         = "roomCreated"
	EventPlayerJoined        = "playerJoined"
	EventPlayerLeft          = "playerLeft"
	EventGameStarted         = "gameStarted"
	EventTurnChanged         = "turnChanged"
	EventTimeUpdate          = "timeUpdate"
	EventWordAccepted        = "wordAccepted"
	EventWordRejected        = "wordRejected"
	EventRoomSettingsUpdated = "roomSettingsUpdated"
	EventRoomEnded           = "roomEnded"
	EventLeftRoom            = "leftRoom"
	EventActionRejected      = "actionRejected"
)

// RoomSummary is one row of the availableRooms listing.
type RoomSummary struct {
	ID          string              `json:"id"`
	OwnerName   string              `json:"ownerName"`
	PlayerCount int                 `json:"playerCount"`
	Difficulty  syllable.Difficulty `json:"difficulty"`
	IsActive    bool                `json:"isActive"`
}

type roomCreatedPayload struct {
	RoomID  string `json:"roomId"`
	IsOwner bool   `json:"isOwner"`
}

type gameStartedPayload struct {
	Syllable        string           `json:"syllable"`
	TimeLeft        int              `json:"timeLeft"`
	Players         []PlayerSnapshot `json:"players"`
	CurrentPlayerID string           `json:"currentPlayerId"`
}

type turnChangedPayload struct {
	CurrentPlayerID string `json:"currentPlayerId"`
	TimeLeft        int    `json:"timeLeft"`
	CurrentSyllable string `json:"currentSyllable"`
}

type timeUpdatePayload struct {
	TimeLeft int `json:"timeLeft"`
}

type wordAcceptedPayload struct {
	PlayerID        string           `json:"playerId"`
	NewSyllable     string           `json:"newSyllable"`
	TimeLeft        int              `json:"timeLeft"`
	Players         []PlayerSnapshot `json:"players"`
	CurrentPlayerID string           `json:"currentPlayerId"`
	PlayedWords     []PlayedWord     `json:"playedWords"`
}

type wordRejectedPayload struct {
	Message string `json:"message"`
}

type roomSettingsUpdatedPayload struct {
	Difficulty  syllable.Difficulty `json:"difficulty"`
	NewSyllable string              `json:"newSyllable"`
}

// actionRejectedPayload acknowledges an owner-gated or malformed request.
type actionRejectedPayload struct {
	Action  string `json:"action"`
	Message string `json:"message"`
}

type changeDifficultyRequest struct {
	RoomID     string              `json:"roomId"`
	Difficulty syllable.Difficulty `json:"difficulty"`
}

type submitWordRequest struct {
	RoomID string `json:"roomId"`
	Word   string `json:"word"`
}

type roomIDRequest struct {
	RoomID string `json:"roomId"`
}
