package room

type SetRoomParams struct {
	RoomId      string
	VideoUrl    string
	CurrentTime float64
	IsPlaying   bool
	HostId      string
	CreatedAt   int64
}

type AddMemberParams struct {
	RoomId   string
	MemberId string
}

type RemoveMemberParams struct {
	RoomId   string
	MemberId string
}

type UpdatePlayerStateParams struct {
	RoomId      string
	CurrentTime float64
	IsPlaying   bool
}
