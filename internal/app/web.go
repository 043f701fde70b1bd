package app

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/relabs-tech/baro_computer/internal/config"
	"github.com/relabs-tech/baro_computer/internal/dps310"
	"github.com/relabs-tech/baro_computer/internal/env"
	"github.com/relabs-tech/baro_computer/internal/gps"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Tool runs on a trusted LAN; the UI is served from another port.
	CheckOrigin: func(r *http.Request) bool { return true },
}

var (
	webPressure = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "baro_pressure_hpa",
		Help: "Latest compensated pressure reading in hPa.",
	}, []string{"source"})
	webTemperature = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "baro_temperature_celsius",
		Help: "Latest compensated temperature reading in °C.",
	}, []string{"source"})
	webAltitude = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "baro_altitude_meters",
		Help: "Latest barometric altitude against the configured QNH.",
	}, []string{"source"})
	webMessages = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "baro_mqtt_messages_total",
		Help: "MQTT messages received by the web server.",
	}, []string{"topic"})
)

func init() {
	prometheus.MustRegister(webPressure)
	prometheus.MustRegister(webTemperature)
	prometheus.MustRegister(webAltitude)
	prometheus.MustRegister(webMessages)
}

// webState holds the latest samples received over MQTT plus the adjustable
// sea-level reference.
type webState struct {
	mu      sync.RWMutex
	samples map[string]env.Sample
	lastFix gps.Fix
	haveFix bool
	qnhHPa  float64
}

// snapshot returns the samples with altitude recomputed against the current
// QNH, so a reference change takes effect without waiting for the producer.
func (st *webState) snapshot() map[string]env.Sample {
	st.mu.RLock()
	defer st.mu.RUnlock()

	out := make(map[string]env.Sample, len(st.samples))
	for src, s := range st.samples {
		s.Altitude = dps310.AltitudeFromPressure(s.PressureHPa, st.qnhHPa)
		out[src] = s
	}
	return out
}

// RunWeb serves the latest env/GPS data as JSON, a live websocket stream,
// and Prometheus metrics.
func RunWeb() error {
	cfg := config.Get()

	st := &webState{
		samples: make(map[string]env.Sample),
		qnhHPa:  cfg.SeaLevelHPa,
	}
	if st.qnhHPa == 0 {
		st.qnhHPa = 1013.25
	}

	// 1) Connect to MQTT broker
	clientID := cfg.MQTTClientIDWeb
	if clientID == "" {
		clientID = "baro-web-subscriber"
	}
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(clientID)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("connected to MQTT broker at %s", cfg.MQTTBroker)

	// 2) Subscribe to env topics and update the latest sample per source
	envHandler := func(_ mqtt.Client, msg mqtt.Message) {
		var s env.Sample
		if err := json.Unmarshal(msg.Payload(), &s); err != nil {
			log.Printf("MQTT payload unmarshal error: %v", err)
			return
		}
		st.mu.Lock()
		st.samples[s.Source] = s
		st.mu.Unlock()

		webMessages.WithLabelValues(msg.Topic()).Inc()
		webPressure.WithLabelValues(s.Source).Set(s.PressureHPa)
		webTemperature.WithLabelValues(s.Source).Set(s.Temperature)
		webAltitude.WithLabelValues(s.Source).Set(s.Altitude)
	}

	envTopics := []string{cfg.TopicEnvPrimary, cfg.TopicEnvSecondary, cfg.TopicEnvSim}
	fallbacks := []string{"baro/env/primary", "baro/env/secondary", "baro/env/sim"}
	for i, topic := range envTopics {
		if topic == "" {
			topic = fallbacks[i]
		}
		token := client.Subscribe(topic, 0, envHandler)
		token.Wait()
		if token.Error() != nil {
			return token.Error()
		}
		log.Printf("subscribed to MQTT topic %s", topic)
	}

	gpsTopic := cfg.TopicGPS
	if gpsTopic == "" {
		gpsTopic = "baro/gps"
	}
	token := client.Subscribe(gpsTopic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var f gps.Fix
		if err := json.Unmarshal(msg.Payload(), &f); err != nil {
			log.Printf("MQTT gps unmarshal error: %v", err)
			return
		}
		st.mu.Lock()
		st.lastFix = f
		st.haveFix = true
		st.mu.Unlock()
		webMessages.WithLabelValues(msg.Topic()).Inc()
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("subscribed to MQTT topic %s", gpsTopic)

	// 3) JSON API endpoint: latest samples per source
	http.HandleFunc("/api/env", func(w http.ResponseWriter, r *http.Request) {
		samples := st.snapshot()
		if len(samples) == 0 {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(samples); err != nil {
			log.Printf("json encode error: %v", err)
		}
	})

	// Latest GPS fix, for the altitude cross-check
	http.HandleFunc("/api/gps", func(w http.ResponseWriter, r *http.Request) {
		st.mu.RLock()
		defer st.mu.RUnlock()

		if !st.haveFix {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(st.lastFix); err != nil {
			log.Printf("json encode error: %v", err)
		}
	})

	// 4) QNH: read and adjust the sea-level reference pressure
	http.HandleFunc("/api/qnh", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			st.mu.RLock()
			qnh := st.qnhHPa
			st.mu.RUnlock()
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]float64{"qnh_hpa": qnh})

		case http.MethodPost:
			var body struct {
				QNHHPa float64 `json:"qnh_hpa"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				http.Error(w, "invalid JSON body", http.StatusBadRequest)
				return
			}
			if body.QNHHPa < 800 || body.QNHHPa > 1200 {
				http.Error(w, "qnh_hpa must be within 800-1200", http.StatusBadRequest)
				return
			}
			st.mu.Lock()
			st.qnhHPa = body.QNHHPa
			st.mu.Unlock()
			log.Printf("QNH set to %.2f hPa", body.QNHHPa)
			w.WriteHeader(http.StatusNoContent)

		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})

	// 5) Websocket live stream: one snapshot per second
	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("websocket upgrade error: %v", err)
			return
		}
		defer conn.Close()

		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()

		for range ticker.C {
			if err := conn.WriteJSON(st.snapshot()); err != nil {
				return
			}
		}
	})

	// 6) Prometheus metrics
	http.Handle("/metrics", promhttp.Handler())

	// 7) Static files from ./web as the root
	fs := http.FileServer(http.Dir("web"))
	http.Handle("/", fs)

	port := cfg.WebServerPort
	if port == 0 {
		port = 8080
	}
	addr := fmt.Sprintf(":%d", port)
	log.Printf("web server listening on %s", addr)
	return http.ListenAndServe(addr, nil)
}
