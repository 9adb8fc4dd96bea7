package web

type StatusPlayer struct {
	Name      string
	Score     int
	Connected bool
}

type StatusView struct {
	Phase       string
	Round       int
	Drawer      string
	Hint        string
	SecondsLeft int
	Width       int
	Height      int
	Port        int
	Players     []StatusPlayer
}
