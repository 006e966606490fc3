package app

// Key binding constants used in handleKey.
const (
	KeyAccept       = "enter"
	KeyCancel       = "esc"
	KeyQuit         = "q"
	KeyCtrlC        = "ctrl+c"
	KeyMarkBegin    = "b"
	KeyMarkEnd      = "e"
	KeyFromBegin    = "B"
	KeyToEnd        = "E"
	KeyPlaySelect   = "p"
	KeyPause        = " "
	KeySeekBack     = "left"
	KeySeekForward  = "right"
	KeyBeginEarlier = "["
	KeyBeginLater   = "]"
	KeyEndEarlier   = "{"
	KeyEndLater     = "}"
)

// SeekStep is how far the arrow keys move playback, in seconds.
const SeekStep = 5
