package app

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/baro_computer/internal/config"
	"github.com/relabs-tech/baro_computer/internal/env"
	"github.com/relabs-tech/baro_computer/internal/gps"
)

// RunConsoleMQTT subscribes to the env and GPS topics and prints each
// message as a one-line reading.
func RunConsoleMQTT() error {
	cfg := config.Get()

	clientID := cfg.MQTTClientIDConsole
	if clientID == "" {
		clientID = "baro-console-subscriber"
	}
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(clientID)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("console: connected to MQTT broker at %s", cfg.MQTTBroker)

	envHandler := func(label string) mqtt.MessageHandler {
		return func(_ mqtt.Client, msg mqtt.Message) {
			var s env.Sample
			if err := json.Unmarshal(msg.Payload(), &s); err != nil {
				log.Printf("console: env unmarshal error: %v", err)
				return
			}

			fmt.Printf(
				"[%s] p=%8.2fhPa  t=%6.2f°C  alt=%7.1fm  %s\n",
				label, s.PressureHPa, s.Temperature, s.Altitude, s.Time,
			)
		}
	}

	subscriptions := []struct {
		topic    string
		fallback string
		handler  mqtt.MessageHandler
	}{
		{cfg.TopicEnvPrimary, "baro/env/primary", envHandler("BARO-P")},
		{cfg.TopicEnvSecondary, "baro/env/secondary", envHandler("BARO-S")},
		{cfg.TopicEnvSim, "baro/env/sim", envHandler("SIM  ")},
	}

	for _, sub := range subscriptions {
		topic := sub.topic
		if topic == "" {
			topic = sub.fallback
		}
		token := client.Subscribe(topic, 0, sub.handler)
		token.Wait()
		if token.Error() != nil {
			return token.Error()
		}
		log.Printf("console: subscribed to %s", topic)
	}

	// Subscribe to GPS
	gpsTopic := cfg.TopicGPS
	if gpsTopic == "" {
		gpsTopic = "baro/gps"
	}
	gpsToken := client.Subscribe(gpsTopic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var f gps.Fix
		if err := json.Unmarshal(msg.Payload(), &f); err != nil {
			log.Printf("console: gps unmarshal error: %v", err)
			return
		}

		fmt.Printf(
			"[GPS  ] time=%s lat=%.6f lon=%.6f alt=%.0fm sats=%d q=%d speed=%.1fkn validity=%s\n",
			f.Time, f.Latitude, f.Longitude, f.AltitudeM, f.Satellites, f.Quality, f.SpeedKnots, f.Validity,
		)
	})
	gpsToken.Wait()
	if gpsToken.Error() != nil {
		return gpsToken.Error()
	}
	log.Printf("console: subscribed to %s", gpsTopic)

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("console: shutting down")
	client.Disconnect(250)
	return nil
}
