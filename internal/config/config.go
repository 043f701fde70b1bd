package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker             string
	MQTTClientIDProducer   string
	MQTTClientIDGPS        string
	MQTTClientIDConsole    string
	MQTTClientIDWeb        string
	MQTTClientIDDisplay    string
	MQTTClientIDDatalogger string

	// Topics
	TopicEnvPrimary   string
	TopicEnvSecondary string
	TopicEnvSim       string
	TopicGPS          string

	// Barometer hardware
	BaroI2CBus        string // periph i2creg name, e.g. "1" or "/dev/i2c-1"
	BaroPrimaryAddr   uint16 // default 0x77
	BaroSecondaryAddr uint16 // 0 = no secondary sensor fitted
	BaroI2CSpeedKHz   int    // 0 = leave the bus at its default speed

	// Barometer channel configuration.
	// Rate: 0-7 for 1,2,4,8,16,32,64,128 Hz.
	// Oversample: 0-7 for 1,2,4,8,16,32,64,128 samples.
	BaroPressureRate       byte
	BaroPressureOversample byte
	BaroTempRate           byte
	BaroTempOversample     byte

	// Upper bound in milliseconds on reset/calibration/measurement waits.
	BaroInitTimeoutMS int

	// Sea-level reference pressure (QNH) in hPa for altitude computation.
	SeaLevelHPa float64

	// GPS
	GPSSerialPort string
	GPSBaudRate   int

	// Timing
	SampleInterval     int // milliseconds
	ConsoleLogInterval int // milliseconds

	// Web Server
	WebServerPort int

	// Display
	DisplayI2CAddr        uint16
	DisplayUpdateInterval int    // milliseconds
	DisplayContent        string // what to show: "env_primary", "env_secondary", "gps"

	// Datalogger
	DatalogPath string

	// Registers the debug tool is allowed to write, e.g. "0x06,0x07,0x08,0x09,0x0C"
	RegisterDebugWritable []byte
}

// Package-level unexported variables for singleton pattern:
//   - globalConfig: unexported (lowercase) so other packages cannot access it directly.
//     This enforces encapsulation and prevents external code from modifying config without proper locking.
//   - configOnce: ensures InitGlobal() only runs once, even if called multiple times.
//   - configMu: RWMutex protects concurrent access. Write lock (Lock) for initialization,
//     read lock (RLock) for Get() allows multiple concurrent readers without blocking each other.
//
// External code must use InitGlobal() to set and Get() to read, ensuring thread safety.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Load reads the configuration file and returns a Config struct.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := &Config{}
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Validate required fields
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_PRODUCER":
		c.MQTTClientIDProducer = value
	case "MQTT_CLIENT_ID_GPS":
		c.MQTTClientIDGPS = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value
	case "MQTT_CLIENT_ID_DISPLAY":
		c.MQTTClientIDDisplay = value
	case "MQTT_CLIENT_ID_DATALOGGER":
		c.MQTTClientIDDatalogger = value

	// Topics
	case "TOPIC_ENV_PRIMARY":
		c.TopicEnvPrimary = value
	case "TOPIC_ENV_SECONDARY":
		c.TopicEnvSecondary = value
	case "TOPIC_ENV_SIM":
		c.TopicEnvSim = value
	case "TOPIC_GPS":
		c.TopicGPS = value

	// Barometer hardware
	case "BARO_I2C_BUS":
		c.BaroI2CBus = value
	case "BARO_PRIMARY_ADDR":
		addr, err := strconv.ParseUint(value, 0, 16)
		if err != nil {
			return fmt.Errorf("invalid BARO_PRIMARY_ADDR %q: %w", value, err)
		}
		c.BaroPrimaryAddr = uint16(addr)
	case "BARO_SECONDARY_ADDR":
		addr, err := strconv.ParseUint(value, 0, 16)
		if err != nil {
			return fmt.Errorf("invalid BARO_SECONDARY_ADDR %q: %w", value, err)
		}
		c.BaroSecondaryAddr = uint16(addr)
	case "BARO_I2C_SPEED_KHZ":
		speed, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid BARO_I2C_SPEED_KHZ %q: %w", value, err)
		}
		c.BaroI2CSpeedKHz = speed

	// Barometer channel configuration
	case "BARO_PRESSURE_RATE":
		val, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid BARO_PRESSURE_RATE %q: %w", value, err)
		}
		if val < 0 || val > 7 {
			return fmt.Errorf("BARO_PRESSURE_RATE must be 0-7 (1,2,4,8,16,32,64,128 Hz), got %d", val)
		}
		c.BaroPressureRate = byte(val)
	case "BARO_PRESSURE_OVERSAMPLE":
		val, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid BARO_PRESSURE_OVERSAMPLE %q: %w", value, err)
		}
		if val < 0 || val > 7 {
			return fmt.Errorf("BARO_PRESSURE_OVERSAMPLE must be 0-7 (1,2,4,8,16,32,64,128 samples), got %d", val)
		}
		c.BaroPressureOversample = byte(val)
	case "BARO_TEMP_RATE":
		val, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid BARO_TEMP_RATE %q: %w", value, err)
		}
		if val < 0 || val > 7 {
			return fmt.Errorf("BARO_TEMP_RATE must be 0-7 (1,2,4,8,16,32,64,128 Hz), got %d", val)
		}
		c.BaroTempRate = byte(val)
	case "BARO_TEMP_OVERSAMPLE":
		val, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid BARO_TEMP_OVERSAMPLE %q: %w", value, err)
		}
		if val < 0 || val > 7 {
			return fmt.Errorf("BARO_TEMP_OVERSAMPLE must be 0-7 (1,2,4,8,16,32,64,128 samples), got %d", val)
		}
		c.BaroTempOversample = byte(val)
	case "BARO_INIT_TIMEOUT_MS":
		val, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid BARO_INIT_TIMEOUT_MS %q: %w", value, err)
		}
		if val < 0 {
			return fmt.Errorf("BARO_INIT_TIMEOUT_MS must be >= 0, got %d", val)
		}
		c.BaroInitTimeoutMS = val

	case "SEA_LEVEL_HPA":
		hpa, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid SEA_LEVEL_HPA %q: %w", value, err)
		}
		if hpa < 800 || hpa > 1200 {
			return fmt.Errorf("SEA_LEVEL_HPA must be within 800-1200 hPa, got %g", hpa)
		}
		c.SeaLevelHPa = hpa

	// GPS
	case "GPS_SERIAL_PORT":
		c.GPSSerialPort = value
	case "GPS_BAUD_RATE":
		rate, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid GPS_BAUD_RATE %q: %w", value, err)
		}
		c.GPSBaudRate = rate

	// Timing
	case "SAMPLE_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid SAMPLE_INTERVAL %q: %w", value, err)
		}
		c.SampleInterval = interval
	case "CONSOLE_LOG_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid CONSOLE_LOG_INTERVAL %q: %w", value, err)
		}
		c.ConsoleLogInterval = interval

	// Web Server
	case "WEB_SERVER_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_SERVER_PORT %q: %w", value, err)
		}
		c.WebServerPort = port

	// Display
	case "DISPLAY_I2C_ADDR":
		addr, err := strconv.ParseUint(value, 0, 16)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_I2C_ADDR %q: %w", value, err)
		}
		c.DisplayI2CAddr = uint16(addr)
	case "DISPLAY_UPDATE_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_UPDATE_INTERVAL %q: %w", value, err)
		}
		c.DisplayUpdateInterval = interval
	case "DISPLAY_CONTENT":
		c.DisplayContent = value

	// Datalogger
	case "DATALOG_PATH":
		c.DatalogPath = value

	case "REGISTER_DEBUG_WRITABLE":
		regs, err := parseRegisterList(value)
		if err != nil {
			return fmt.Errorf("invalid REGISTER_DEBUG_WRITABLE %q: %w", value, err)
		}
		c.RegisterDebugWritable = regs

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

// parseRegisterList parses a comma-separated list of register addresses,
// e.g. "0x06,0x07,0x08,0x09,0x0C".
func parseRegisterList(value string) ([]byte, error) {
	var regs []byte
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		addr, err := strconv.ParseUint(part, 0, 8)
		if err != nil {
			return nil, fmt.Errorf("register %q: %w", part, err)
		}
		regs = append(regs, byte(addr))
	}
	return regs, nil
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.BaroI2CBus == "" {
		return fmt.Errorf("BARO_I2C_BUS is required")
	}
	if c.GPSSerialPort == "" {
		return fmt.Errorf("GPS_SERIAL_PORT is required")
	}
	if c.GPSBaudRate == 0 {
		return fmt.Errorf("GPS_BAUD_RATE is required")
	}
	if c.SampleInterval == 0 {
		return fmt.Errorf("SAMPLE_INTERVAL is required")
	}
	if c.ConsoleLogInterval == 0 {
		return fmt.Errorf("CONSOLE_LOG_INTERVAL is required")
	}
	return nil
}

// InitGlobal initializes the global configuration from file.
// Uses sync.Once to ensure this only runs once, even if called multiple times.
// Acquires write lock (configMu.Lock) during initialization to prevent concurrent access.
// This is the only function that can set globalConfig.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
// Uses read lock (configMu.RLock) to allow multiple concurrent readers without blocking.
// This is thread-safe and efficient for concurrent access across goroutines.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
