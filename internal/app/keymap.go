package app

// Key binding constants used in handleKey.
const (
	KeyQuit      = "q"
	KeyQuitUpper = "Q"
	KeyCtrlC     = "ctrl+c"
	KeyEsc       = "esc"
	KeySpace     = " "
	KeyLeft      = "left"
	KeyRight     = "right"
	KeyNext      = "n"
	KeyRestart   = "r"
	KeyTab       = "tab"
	KeyUp        = "up"
	KeyDown      = "down"
	KeyEnter     = "enter"
)
