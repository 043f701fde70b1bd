package app

import (
	"encoding/json"
	"fmt"
	"image"
	"log"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/baro_computer/internal/config"
	"github.com/relabs-tech/baro_computer/internal/env"
	"github.com/relabs-tech/baro_computer/internal/gps"
)

// displayData holds the latest data for the display
type displayData struct {
	mu sync.RWMutex

	envPrimary       env.Sample
	haveEnvPrimary   bool
	envSecondary     env.Sample
	haveEnvSecondary bool

	fix     gps.Fix
	haveFix bool
}

// RunDisplay drives an SSD1306 OLED with the latest barometer or GPS
// readings, fed from MQTT.
func RunDisplay() error {
	cfg := config.Get()

	// Initialize periph
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph: %w", err)
	}

	// Open I2C bus
	bus, err := i2creg.Open(cfg.BaroI2CBus)
	if err != nil {
		return fmt.Errorf("failed to open I2C bus: %w", err)
	}
	defer bus.Close()

	addr := cfg.DisplayI2CAddr
	if addr == 0 {
		addr = 0x3C
	}
	display, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		return fmt.Errorf("failed to initialize display: %w", err)
	}
	log.Printf("display: initialized at 0x%02X", addr)

	if err := showSplash(display); err != nil {
		log.Printf("display: error showing splash: %v", err)
	}

	// Data storage
	data := &displayData{}

	// Connect to MQTT and subscribe
	clientID := cfg.MQTTClientIDDisplay
	if clientID == "" {
		clientID = "baro-display-subscriber"
	}
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(clientID)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("MQTT connect: %w", token.Error())
	}
	defer client.Disconnect(250)

	topicPrimary := cfg.TopicEnvPrimary
	if topicPrimary == "" {
		topicPrimary = "baro/env/primary"
	}
	client.Subscribe(topicPrimary, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var s env.Sample
		if err := json.Unmarshal(msg.Payload(), &s); err != nil {
			return
		}
		data.mu.Lock()
		data.envPrimary = s
		data.haveEnvPrimary = true
		data.mu.Unlock()
	})

	topicSecondary := cfg.TopicEnvSecondary
	if topicSecondary == "" {
		topicSecondary = "baro/env/secondary"
	}
	client.Subscribe(topicSecondary, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var s env.Sample
		if err := json.Unmarshal(msg.Payload(), &s); err != nil {
			return
		}
		data.mu.Lock()
		data.envSecondary = s
		data.haveEnvSecondary = true
		data.mu.Unlock()
	})

	topicGPS := cfg.TopicGPS
	if topicGPS == "" {
		topicGPS = "baro/gps"
	}
	client.Subscribe(topicGPS, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var f gps.Fix
		if err := json.Unmarshal(msg.Payload(), &f); err != nil {
			return
		}
		data.mu.Lock()
		data.fix = f
		data.haveFix = true
		data.mu.Unlock()
	})

	content := cfg.DisplayContent
	if content == "" {
		content = "env_primary"
	}

	interval := cfg.DisplayUpdateInterval
	if interval <= 0 {
		interval = 500
	}
	ticker := time.NewTicker(time.Duration(interval) * time.Millisecond)
	defer ticker.Stop()

	for range ticker.C {
		data.mu.RLock()
		var err error
		switch content {
		case "env_primary":
			err = updateEnvDisplay(display, data.envPrimary, data.haveEnvPrimary, "PRI")
		case "env_secondary":
			err = updateEnvDisplay(display, data.envSecondary, data.haveEnvSecondary, "SEC")
		case "gps":
			err = updateGPSDisplay(display, data.fix, data.haveFix)
		default:
			err = fmt.Errorf("unknown display content type: %s", content)
		}
		data.mu.RUnlock()

		if err != nil {
			log.Printf("display: update error: %v", err)
		}
	}
	return nil
}

func newDrawer() (*image1bit.VerticalLSB, *font.Drawer) {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, 128, 64))

	// Blank image
	for i := 0; i < 1024; i++ {
		img.Pix[i] = 0
	}

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
	return img, drawer
}

func updateEnvDisplay(dev *ssd1306.Dev, s env.Sample, haveData bool, label string) error {
	img, drawer := newDrawer()

	if !haveData {
		drawer.Dot = fixed.P(0, 26)
		drawer.DrawBytes([]byte("Baro " + label))
		drawer.Dot = fixed.P(0, 39)
		drawer.DrawBytes([]byte("Waiting..."))
	} else {
		drawer.Dot = fixed.P(0, 13)
		drawer.DrawBytes([]byte(fmt.Sprintf("P:%8.2fhPa", s.PressureHPa)))

		drawer.Dot = fixed.P(0, 26)
		drawer.DrawBytes([]byte(fmt.Sprintf("T:%7.2fC", s.Temperature)))

		drawer.Dot = fixed.P(0, 39)
		drawer.DrawBytes([]byte(fmt.Sprintf("Alt:%6.1fm", s.Altitude)))

		drawer.Dot = fixed.P(0, 52)
		drawer.DrawBytes([]byte(label))
	}

	return dev.Draw(dev.Bounds(), img, image.Point{})
}

func updateGPSDisplay(dev *ssd1306.Dev, f gps.Fix, haveData bool) error {
	img, drawer := newDrawer()

	if !haveData {
		drawer.Dot = fixed.P(0, 26)
		drawer.DrawBytes([]byte("GPS Position"))
		drawer.Dot = fixed.P(0, 39)
		drawer.DrawBytes([]byte("Waiting..."))
	} else {
		// Latitude
		drawer.Dot = fixed.P(0, 13)
		latDir := "N"
		lat := f.Latitude
		if lat < 0 {
			latDir = "S"
			lat = -lat
		}
		drawer.DrawBytes([]byte(fmt.Sprintf("%.4f%s", lat, latDir)))

		// Longitude
		drawer.Dot = fixed.P(0, 26)
		lonDir := "E"
		lon := f.Longitude
		if lon < 0 {
			lonDir = "W"
			lon = -lon
		}
		drawer.DrawBytes([]byte(fmt.Sprintf("%.4f%s", lon, lonDir)))

		// Altitude and satellites
		drawer.Dot = fixed.P(0, 39)
		drawer.DrawBytes([]byte(fmt.Sprintf("Alt: %.0fm", f.AltitudeM)))

		drawer.Dot = fixed.P(0, 52)
		drawer.DrawBytes([]byte(fmt.Sprintf("Sats: %d", f.Satellites)))
	}

	return dev.Draw(dev.Bounds(), img, image.Point{})
}

func showSplash(dev *ssd1306.Dev) error {
	img, drawer := newDrawer()

	drawer.Dot = fixed.P(10, 26)
	drawer.DrawBytes([]byte("Baro Pi"))

	drawer.Dot = fixed.P(5, 43)
	drawer.DrawBytes([]byte("Waiting for"))

	drawer.Dot = fixed.P(25, 56)
	drawer.DrawBytes([]byte("samples"))

	return dev.Draw(dev.Bounds(), img, image.Point{})
}
