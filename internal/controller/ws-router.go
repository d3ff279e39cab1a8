package controller

import (
	"github.com/watchlock/server/pkg/wsrouter"
)

func (c controller) getWSRouter() *wsrouter.WSRouter {
	mux := wsrouter.New()

	mux.Use(c.loggingWSMw())

	// room lifecycle
	mux.Handle(msgCreateRoom, c.handleCreateRoom)
	mux.Handle(msgJoinRoom, c.handleJoinRoom)

	// playback control, host only
	mux.Handle(msgPlay, c.handlePlay)
	mux.Handle(msgPause, c.handlePause)
	mux.Handle(msgSeek, c.handleSeek)
	mux.Handle(msgFullscreen, c.handleFullscreen)

	return mux
}
