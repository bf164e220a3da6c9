// Package server serves the web dashboard: embedded static assets, a
// WebSocket feed of simulation snapshots, and the config and peak-reset APIs.
package server

import (
	"context"
	"encoding/json"
	"io"
	"io/fs"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/prasadtara/enginesim/internal/engine"
	"github.com/prasadtara/enginesim/internal/logger"
)

// Server polls the simulation on its own cadence and fans snapshots out to
// every connected WebSocket client.
type Server struct {
	cfg    *Config
	sim    *engine.Simulation
	webFS  fs.FS
	logger *logger.Logger

	mu      sync.RWMutex
	clients map[*wsClient]struct{}

	upgrader websocket.Upgrader
}

// wsClient is one dashboard connection. Frames queue on send; a full queue
// means the client is too slow and frames are dropped for it.
type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// Frame is the JSON structure sent to all WebSocket clients.
type Frame struct {
	Snapshot *engine.Snapshot `json:"snapshot,omitempty"`
	Tuning   *TuningView      `json:"tuning,omitempty"`
	Display  *DisplayConfig   `json:"display,omitempty"`
	Stamp    int64            `json:"stamp"` // Unix ms
}

// TuningView carries the derived parameters the dashboard needs for its
// reference lines and gauge scales.
type TuningView struct {
	AtmosphericPSI float64 `json:"atmosphericPsi"`
	BoostActivePSI float64 `json:"boostActivePsi"`
	MaxBoostPSI    float64 `json:"maxBoostPsi"`
	RedlineRPM     int     `json:"redlineRpm"`
	IdleRPM        int     `json:"idleRpm"`
	BasePeakHP     float64 `json:"basePeakHp"`
	RPMGaugeMax    int     `json:"rpmGaugeMax"`
	MAPGaugeMax    float64 `json:"mapGaugeMax"`
	HistorySpanS   float64 `json:"historySpanS"`
}

// New creates a new Server around a simulation.
func New(cfg *Config, sim *engine.Simulation, webFS fs.FS) *Server {
	return &Server{
		cfg:   cfg,
		sim:   sim,
		webFS: webFS,
		logger: logger.New(logger.Config{
			Enabled:    cfg.Logging.Enabled,
			Path:       cfg.Logging.Path,
			IntervalMs: cfg.Logging.Interval,
		}),
		clients: make(map[*wsClient]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Run starts the broadcast loop and serves HTTP until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.FS(s.webFS)))
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/api/config", s.handleConfig)
	mux.HandleFunc("/api/peaks/reset", s.handleResetPeaks)

	go s.broadcastLoop(ctx)

	srv := &http.Server{Addr: s.cfg.Server.ListenAddr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutCtx)
	}()

	log.Printf("[server] listening on %s", s.cfg.Server.ListenAddr)
	return srv.ListenAndServe()
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade error: %v", err)
		return
	}

	client := &wsClient{conn: conn, send: make(chan []byte, 64)}
	s.addClient(client)

	// The first frame carries the tuning view and display preferences so the
	// dashboard can scale its gauges before any snapshot arrives.
	hello := Frame{
		Tuning:  s.tuningView(),
		Display: &s.cfg.Display,
		Stamp:   time.Now().UnixMilli(),
	}
	if data, err := json.Marshal(hello); err == nil {
		client.send <- data
	}

	go client.writeLoop()
	go func() {
		client.readLoop()
		s.removeClient(client)
	}()
}

func (s *Server) addClient(c *wsClient) {
	s.mu.Lock()
	s.clients[c] = struct{}{}
	n := len(s.clients)
	s.mu.Unlock()
	log.Printf("[ws] client connected (%d total)", n)
}

func (s *Server) removeClient(c *wsClient) {
	s.mu.Lock()
	delete(s.clients, c)
	n := len(s.clients)
	s.mu.Unlock()
	close(c.send)
	log.Printf("[ws] client disconnected (%d total)", n)
}

// writeLoop drains the send queue onto the connection until it closes.
func (c *wsClient) writeLoop() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

// readLoop blocks until the peer goes away. Inbound messages are ignored;
// reading them keeps ping/pong alive and detects the disconnect.
func (c *wsClient) readLoop() {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		data, err := s.cfg.ToJSON()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, data)

	case http.MethodPost:
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		if err := s.cfg.UpdateFromJSON(body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := s.cfg.Save(); err != nil {
			log.Printf("[config] save failed: %v", err)
		}
		// Push the updated display preferences to all clients. Tuning
		// changes take effect on the next simulator start.
		s.broadcast(Frame{Display: &s.cfg.Display, Stamp: time.Now().UnixMilli()})
		writeJSON(w, []byte(`{"status":"ok"}`))

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleResetPeaks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.sim.ResetPeaks()
	writeJSON(w, []byte(`{"status":"ok"}`))
}

func writeJSON(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

// broadcastLoop polls the simulation independently of the producer tick and
// pushes each snapshot to the clients and the CSV logger.
func (s *Server) broadcastLoop(ctx context.Context) {
	ms := s.cfg.Server.BroadcastMs
	if ms <= 0 {
		ms = 50
	}
	ticker := time.NewTicker(time.Duration(ms) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Close()
			return
		case <-ticker.C:
			snap := s.sim.Snapshot()
			s.broadcast(Frame{Snapshot: &snap, Stamp: time.Now().UnixMilli()})
			s.logger.Record(snap)
		}
	}
}

func (s *Server) tuningView() *TuningView {
	p := s.sim.Params()
	return &TuningView{
		AtmosphericPSI: p.AtmosphericPSI,
		BoostActivePSI: p.BoostActivePSI,
		MaxBoostPSI:    p.MaxBoostPSI,
		RedlineRPM:     p.RedlineRPM,
		IdleRPM:        p.IdleRPM,
		BasePeakHP:     p.BasePeakHP,
		RPMGaugeMax:    p.RedlineRPM + s.cfg.Display.RPMGaugePad,
		MAPGaugeMax:    p.MaxBoostPSI + s.cfg.Display.MAPGaugePad,
		HistorySpanS:   float64(p.HistorySize) * p.TickInterval.Seconds(),
	}
}

func (s *Server) broadcast(frame Frame) {
	data, err := json.Marshal(frame)
	if err != nil {
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for client := range s.clients {
		select {
		case client.send <- data:
		default:
			// Client too slow, skip this frame for it.
		}
	}
}
