package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/websocket"
	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/relabs-tech/gps_bridge/internal/config"
	"github.com/relabs-tech/gps_bridge/internal/metrics"
	"github.com/relabs-tech/gps_bridge/internal/publish"
)

const defaultWebPort = 8080

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // monitor is meant for the local network
	},
}

const wsSendBuffer = 64

type wsClient struct {
	conn *websocket.Conn
	send chan publish.Pair
}

// Monitor serves the bridge diagnostics: Prometheus metrics, the latest
// value of every topic and a live WebSocket feed of everything published.
// It is also a publish.Sink so the pipeline can fan out to it.
type Monitor struct {
	metrics *metrics.Metrics
	latest  func() map[string]string

	mu      sync.Mutex
	clients map[*wsClient]struct{}
}

func NewMonitor(m *metrics.Metrics, latest func() map[string]string) *Monitor {
	return &Monitor{
		metrics: m,
		latest:  latest,
		clients: make(map[*wsClient]struct{}),
	}
}

func (mon *Monitor) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(mon.metrics.Registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/api/gps", mon.handleLatest)
	mux.HandleFunc("/ws", mon.handleWS)
	return mux
}

// Publish forwards a message to every connected client. Slow clients miss
// messages rather than hold up the caller.
func (mon *Monitor) Publish(topic, payload string, _ byte) error {
	msg := publish.Pair{Topic: topic, Payload: payload}
	mon.mu.Lock()
	defer mon.mu.Unlock()
	for c := range mon.clients {
		select {
		case c.send <- msg:
		default:
		}
	}
	return nil
}

func (mon *Monitor) handleLatest(w http.ResponseWriter, r *http.Request) {
	latest := mon.latest()
	if len(latest) == 0 {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(latest); err != nil {
		log.Printf("web: json encode error: %v", err)
	}
}

func (mon *Monitor) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("web: websocket upgrade error: %v", err)
		return
	}
	c := &wsClient{conn: conn, send: make(chan publish.Pair, wsSendBuffer)}

	// Start every client off with the current state, sorted by topic.
	latest := mon.latest()
	topics := make([]string, 0, len(latest))
	for t := range latest {
		topics = append(topics, t)
	}
	sort.Strings(topics)
	for _, t := range topics {
		if err := conn.WriteJSON(publish.Pair{Topic: t, Payload: latest[t]}); err != nil {
			conn.Close()
			return
		}
	}

	mon.mu.Lock()
	mon.clients[c] = struct{}{}
	mon.mu.Unlock()

	go mon.writeLoop(c)

	// Reads only detect the client going away.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("web: websocket error: %v", err)
			}
			break
		}
	}

	mon.mu.Lock()
	delete(mon.clients, c)
	close(c.send)
	mon.mu.Unlock()
}

func (mon *Monitor) writeLoop(c *wsClient) {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

func (mon *Monitor) clientCount() int {
	mon.mu.Lock()
	defer mon.mu.Unlock()
	return len(mon.clients)
}

func serveMonitor(mon *Monitor, port int) *http.Server {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mon.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Printf("web: listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("web: server error: %v", err)
		}
	}()
	return srv
}

// monitorHandler records every received message as the latest value of its
// topic and forwards it to the monitor's WebSocket clients.
func monitorHandler(latest cmap.ConcurrentMap[string, string], mon *Monitor) mqtt.MessageHandler {
	return func(_ mqtt.Client, msg mqtt.Message) {
		payload := string(msg.Payload())
		latest.Set(msg.Topic(), payload)
		mon.Publish(msg.Topic(), payload, msg.Qos())
	}
}

// RunWeb serves the monitor from any host that can reach the broker, fed
// by a subscription to the base topic rather than by a local pipeline.
func RunWeb() error {
	cfg := config.Get()
	if cfg == nil {
		return errors.New("config not loaded")
	}
	port := cfg.WebServerPort
	if port == 0 {
		port = defaultWebPort
	}

	client, err := publish.Connect(cfg.MQTTBroker, cfg.MQTTClientIDWeb)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)
	log.Printf("web: connected to MQTT broker at %s", cfg.MQTTBroker)

	latest := cmap.New[string]()
	mon := NewMonitor(metrics.New(), latest.Items)

	filter := cfg.MQTTBaseTopic + "#"
	token := client.Subscribe(filter, cfg.MQTTQoS, monitorHandler(latest, mon))
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("web: subscribed to %s", filter)

	srv := serveMonitor(mon, port)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("web: shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
