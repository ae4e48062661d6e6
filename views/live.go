package views

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/jithu2111/SenseKey/utils"
)

// MonitorStatus is the live snapshot pushed to connected dashboards: enough
// to render the recording state and a running sample count.
type MonitorStatus struct {
	State       string `json:"state"`
	SessionID   string `json:"session_id"`
	TrialNumber int    `json:"trial_number"`
	TargetPIN   string `json:"target_pin"`
	SampleCount int    `json:"sample_count"`
	UpdatedMs   int64  `json:"updated_ms"`
}

// LiveMonitor broadcasts MonitorStatus updates over websockets. It is purely
// observational: slow consumers have updates dropped, and broadcast never
// blocks the caller.
type LiveMonitor struct {
	mu      sync.Mutex
	last    MonitorStatus
	clients map[*websocket.Conn]chan MonitorStatus

	upgrader websocket.Upgrader
}

func NewLiveMonitor() *LiveMonitor {
	return &LiveMonitor{
		clients: make(map[*websocket.Conn]chan MonitorStatus),
		upgrader: websocket.Upgrader{
			// Dashboard pages are served from file:// or localhost during
			// collection sessions; origin checks add nothing here.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Update records the latest status and fans it out to every client.
func (m *LiveMonitor) Update(s MonitorStatus) {
	m.mu.Lock()
	m.last = s
	for _, ch := range m.clients {
		select {
		case ch <- s:
		default: // slow consumer, drop
		}
	}
	m.mu.Unlock()
}

// Handler upgrades the request and streams status updates until the client
// disconnects. The latest status is sent immediately on connect.
func (m *LiveMonitor) Handler(w http.ResponseWriter, r *http.Request) {
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		utils.L().Warn("monitor: websocket upgrade: %v", err)
		return
	}

	ch := make(chan MonitorStatus, 16)
	m.mu.Lock()
	m.clients[conn] = ch
	last := m.last
	m.mu.Unlock()

	select {
	case ch <- last:
	default:
	}

	go m.writeLoop(conn, ch)
}

func (m *LiveMonitor) writeLoop(conn *websocket.Conn, ch <-chan MonitorStatus) {
	defer func() {
		m.mu.Lock()
		delete(m.clients, conn)
		m.mu.Unlock()
		_ = conn.Close()
	}()

	for s := range ch {
		if err := conn.WriteJSON(s); err != nil {
			utils.L().Debug("monitor: client write: %v", err)
			return
		}
	}
}

// Serve runs an HTTP server exposing the websocket feed at /ws/status.
// Intended to be called from main in a goroutine; errors are logged, not
// fatal — the monitor is an optional surface.
func (m *LiveMonitor) Serve(addr string) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws/status", m.Handler)
	utils.L().Info("live monitor listening on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		utils.L().Warn("live monitor server: %v", err)
	}
}
