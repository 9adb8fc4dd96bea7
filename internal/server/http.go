package server

import (
	"net/http"

	"github.com/a-h/templ"
	"github.com/gin-gonic/gin"

	"termibbl/internal/game"
	"termibbl/internal/protocol"
	"termibbl/internal/web"
)

type stateResponse struct {
	Phase       string                `json:"phase"`
	Round       int                   `json:"round"`
	Cycle       int                   `json:"cycle"`
	Drawer      string                `json:"drawer,omitempty"`
	Hint        string                `json:"hint,omitempty"`
	SecondsLeft int                   `json:"seconds_left,omitempty"`
	Width       int                   `json:"width"`
	Height      int                   `json:"height"`
	Strokes     int                   `json:"strokes"`
	Connected   int                   `json:"connected"`
	Players     []protocol.PlayerInfo `json:"players"`
}

func (s *Server) routes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/ws", s.handleWebsocket)
	r.GET("/api/state", s.handleState)
	r.GET("/healthz", s.handleHealth)
	r.GET("/", s.handleStatusPage)
	return r
}

func (s *Server) handleHealth(c *gin.Context) {
	if s.ctx.Err() != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "stopping"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleState(c *gin.Context) {
	sum, ok := s.Summary()
	if !ok {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "server stopping"})
		return
	}
	c.JSON(http.StatusOK, toStateResponse(sum))
}

func toStateResponse(sum game.Summary) stateResponse {
	return stateResponse{
		Phase:       string(sum.Phase),
		Round:       sum.Round,
		Cycle:       sum.Cycle,
		Drawer:      sum.Drawer,
		Hint:        sum.Hint,
		SecondsLeft: sum.SecondsLeft,
		Width:       sum.Width,
		Height:      sum.Height,
		Strokes:     sum.Strokes,
		Connected:   sum.Connected,
		Players:     sum.Players,
	}
}

func (s *Server) handleStatusPage(c *gin.Context) {
	sum, ok := s.Summary()
	if !ok {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	view := web.StatusView{
		Phase:       string(sum.Phase),
		Round:       sum.Round,
		Drawer:      sum.Drawer,
		Hint:        sum.Hint,
		SecondsLeft: sum.SecondsLeft,
		Width:       sum.Width,
		Height:      sum.Height,
		Port:        s.cfg.Port,
	}
	for _, p := range sum.Players {
		view.Players = append(view.Players, web.StatusPlayer{Name: p.Name, Score: p.Score, Connected: p.Connected})
	}
	templ.Handler(web.Status(view)).ServeHTTP(c.Writer, c.Request)
}
