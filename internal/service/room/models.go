package room

// RoomState is the snapshot handed to a joining participant. Field names
// follow the wire contract.
type RoomState struct {
	VideoUrl    string  `json:"videoUrl"`
	CurrentTime float64 `json:"currentTime"`
	IsPlaying   bool    `json:"isPlaying"`
	IsHost      bool    `json:"isHost"`
	UserCount   int     `json:"userCount"`
}
