package room

// Room is the authoritative playback state of one watch session.
// CurrentTime only moves on explicit play/pause/seek mutations.
type Room struct {
	VideoUrl    string  `redis:"video_url"`
	CurrentTime float64 `redis:"current_time"`
	IsPlaying   bool    `redis:"is_playing"`
	HostId      string  `redis:"host_id"`
	CreatedAt   int64   `redis:"created_at"`
}
