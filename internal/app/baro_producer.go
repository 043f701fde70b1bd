package app

import (
	"encoding/json"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/relabs-tech/baro_computer/internal/config"
	"github.com/relabs-tech/baro_computer/internal/env"
	"github.com/relabs-tech/baro_computer/internal/sensors"
)

// RunBaroProducer reads the DPS310 sensors on a fixed interval and publishes
// env samples to MQTT.
func RunBaroProducer() error {
	log.Println("starting baro-computer env producer")

	cfg := config.Get()

	// --- Initialize barometer manager (primary and optional secondary) ---
	mgr := sensors.GetBaroManager()
	if err := mgr.Init(); err != nil {
		log.Fatalf("failed to initialize barometer manager: %v", err)
		return err
	}

	// --- connect to MQTT ---
	clientID := cfg.MQTTClientIDProducer
	if clientID == "" {
		clientID = "baro-producer"
	}
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(clientID)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalf("MQTT connect error: %v", token.Error())
		return token.Error()
	}
	defer client.Disconnect(250)

	topicPrimary := cfg.TopicEnvPrimary
	if topicPrimary == "" {
		topicPrimary = "baro/env/primary"
	}
	topicSecondary := cfg.TopicEnvSecondary
	if topicSecondary == "" {
		topicSecondary = "baro/env/secondary"
	}

	log.Println("connected to MQTT, starting publish loop")

	// main tick
	ticker := time.NewTicker(time.Duration(cfg.SampleInterval) * time.Millisecond)
	defer ticker.Stop()

	for t := range ticker.C {
		primary, err := sensors.ReadPrimaryEnv()
		if err != nil {
			log.Printf("primary env read error: %v", err)
			continue
		}
		publishSample(client, topicPrimary, primary)

		var secondary env.Sample
		haveSecondary := false
		if mgr.IsSecondaryAvailable() {
			secondary, err = sensors.ReadSecondaryEnv()
			if err != nil {
				log.Printf("secondary env read error: %v", err)
			} else {
				publishSample(client, topicSecondary, secondary)
				haveSecondary = true
			}
		}

		if haveSecondary {
			log.Printf("%s tick: primary p=%.2fhPa t=%.2f°C alt=%.1fm | secondary p=%.2fhPa t=%.2f°C alt=%.1fm",
				t.Format(time.RFC3339),
				primary.PressureHPa, primary.Temperature, primary.Altitude,
				secondary.PressureHPa, secondary.Temperature, secondary.Altitude,
			)
		} else {
			log.Printf("%s tick: primary p=%.2fhPa t=%.2f°C alt=%.1fm",
				t.Format(time.RFC3339),
				primary.PressureHPa, primary.Temperature, primary.Altitude,
			)
		}
	}
	return nil
}

func publishSample(client mqtt.Client, topic string, s env.Sample) {
	payload, err := json.Marshal(s)
	if err != nil {
		log.Printf("env marshal error (%s): %v", s.Source, err)
		return
	}
	if token := client.Publish(topic, 0, true, payload); token.Wait() && token.Error() != nil {
		log.Printf("MQTT publish error (%s): %v", topic, token.Error())
	}
}
