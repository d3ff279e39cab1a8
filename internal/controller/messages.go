package controller

// Inbound message types (participant -> coordinator).
const (
	msgCreateRoom = "create-room"
	msgJoinRoom   = "join-room"
	msgPlay       = "play"
	msgPause      = "pause"
	msgSeek       = "seek"
	msgFullscreen = "fullscreen"
)

// Outbound message types (coordinator -> room members).
const (
	evConnected   = "connected"
	evRoomCreated = "room-created"
	evRoomJoined  = "room-joined"
	evPlay        = "play-event"
	evPause       = "pause-event"
	evSeek        = "seek-event"
	evFullscreen  = "fullscreen-event"
	evUserCount   = "user-count-update"
	evHostChanged = "host-changed"
	evRoomClosed  = "room-closed"
)
