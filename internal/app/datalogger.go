package app

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	_ "github.com/mattn/go-sqlite3"

	"github.com/relabs-tech/baro_computer/internal/config"
	"github.com/relabs-tech/baro_computer/internal/env"
	"github.com/relabs-tech/baro_computer/internal/gps"
)

const datalogSchema = `
CREATE TABLE IF NOT EXISTS samples (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	time TEXT NOT NULL,
	source TEXT NOT NULL,
	temp_c REAL,
	pressure_hpa REAL,
	pressure_pa REAL,
	altitude_m REAL
);
CREATE TABLE IF NOT EXISTS gps_fixes (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	time TEXT,
	date TEXT,
	lat REAL,
	lon REAL,
	alt_m REAL,
	speed_knots REAL,
	course_deg REAL,
	quality INTEGER,
	satellites INTEGER,
	validity TEXT
);
`

// RunDatalogger subscribes to the env and GPS topics and appends every
// message to a local sqlite database.
func RunDatalogger() error {
	cfg := config.Get()

	path := cfg.DatalogPath
	if path == "" {
		path = "./baro_log.db"
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("datalog: open %s: %w", path, err)
	}
	defer db.Close()

	if _, err := db.Exec(datalogSchema); err != nil {
		return fmt.Errorf("datalog: create schema: %w", err)
	}
	log.Printf("datalog: logging to %s", path)

	insertSample, err := db.Prepare(
		`INSERT INTO samples (time, source, temp_c, pressure_hpa, pressure_pa, altitude_m)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("datalog: prepare sample insert: %w", err)
	}
	defer insertSample.Close()

	insertFix, err := db.Prepare(
		`INSERT INTO gps_fixes (time, date, lat, lon, alt_m, speed_knots, course_deg, quality, satellites, validity)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("datalog: prepare fix insert: %w", err)
	}
	defer insertFix.Close()

	// Connect to MQTT
	clientID := cfg.MQTTClientIDDatalogger
	if clientID == "" {
		clientID = "baro-datalogger"
	}
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(clientID)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)
	log.Printf("datalog: connected to MQTT broker at %s", cfg.MQTTBroker)

	envHandler := func(_ mqtt.Client, msg mqtt.Message) {
		var s env.Sample
		if err := json.Unmarshal(msg.Payload(), &s); err != nil {
			log.Printf("datalog: env unmarshal error: %v", err)
			return
		}
		if _, err := insertSample.Exec(s.Time, s.Source, s.Temperature, s.PressureHPa, s.PressurePa, s.Altitude); err != nil {
			log.Printf("datalog: sample insert error: %v", err)
		}
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
		log.Printf("datalog: subscribed to %s", topic)
	}

	gpsTopic := cfg.TopicGPS
	if gpsTopic == "" {
		gpsTopic = "baro/gps"
	}
	token := client.Subscribe(gpsTopic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var f gps.Fix
		if err := json.Unmarshal(msg.Payload(), &f); err != nil {
			log.Printf("datalog: gps unmarshal error: %v", err)
			return
		}
		if _, err := insertFix.Exec(f.Time, f.Date, f.Latitude, f.Longitude, f.AltitudeM,
			f.SpeedKnots, f.CourseDeg, f.Quality, f.Satellites, f.Validity); err != nil {
			log.Printf("datalog: fix insert error: %v", err)
		}
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("datalog: subscribed to %s", gpsTopic)

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("datalog: shutting down")
	return nil
}
