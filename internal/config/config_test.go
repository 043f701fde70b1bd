package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "baro_config.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const validConfig = `# baro_computer configuration
MQTT_BROKER=tcp://localhost:1883
MQTT_CLIENT_ID_PRODUCER=baro-producer

TOPIC_ENV_PRIMARY=baro/env/primary
TOPIC_GPS=baro/gps

BARO_I2C_BUS=1
BARO_PRIMARY_ADDR=0x77
BARO_SECONDARY_ADDR=0x76
BARO_I2C_SPEED_KHZ=400
BARO_PRESSURE_RATE=6
BARO_PRESSURE_OVERSAMPLE=6
BARO_TEMP_RATE=6
BARO_TEMP_OVERSAMPLE=6
BARO_INIT_TIMEOUT_MS=3000
SEA_LEVEL_HPA=1019.5

GPS_SERIAL_PORT=/dev/serial0
GPS_BAUD_RATE=9600

SAMPLE_INTERVAL=250
CONSOLE_LOG_INTERVAL=1000
WEB_SERVER_PORT=8080

REGISTER_DEBUG_WRITABLE=0x06,0x07,0x08,0x09,0x0C
`

func TestLoadValid(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig))
	require.NoError(t, err)

	assert.Equal(t, "tcp://localhost:1883", cfg.MQTTBroker)
	assert.Equal(t, "baro/env/primary", cfg.TopicEnvPrimary)
	assert.Equal(t, "1", cfg.BaroI2CBus)
	assert.Equal(t, uint16(0x77), cfg.BaroPrimaryAddr)
	assert.Equal(t, uint16(0x76), cfg.BaroSecondaryAddr)
	assert.Equal(t, 400, cfg.BaroI2CSpeedKHz)
	assert.Equal(t, byte(6), cfg.BaroPressureOversample)
	assert.Equal(t, 3000, cfg.BaroInitTimeoutMS)
	assert.Equal(t, 1019.5, cfg.SeaLevelHPa)
	assert.Equal(t, 250, cfg.SampleInterval)
	assert.Equal(t, []byte{0x06, 0x07, 0x08, 0x09, 0x0C}, cfg.RegisterDebugWritable)
}

func TestLoadUnknownKey(t *testing.T) {
	_, err := Load(writeConfig(t, validConfig+"BOGUS_KEY=1\n"))
	assert.ErrorContains(t, err, "unknown config key")
}

func TestLoadMalformedLine(t *testing.T) {
	_, err := Load(writeConfig(t, validConfig+"NOT A KEY VALUE\n"))
	assert.ErrorContains(t, err, "invalid config line")
}

func TestLoadOutOfRangeOversample(t *testing.T) {
	bad := validConfig + "BARO_PRESSURE_OVERSAMPLE=8\n"
	_, err := Load(writeConfig(t, bad))
	assert.ErrorContains(t, err, "BARO_PRESSURE_OVERSAMPLE must be 0-7")
}

func TestLoadOutOfRangeSeaLevel(t *testing.T) {
	bad := validConfig + "SEA_LEVEL_HPA=500\n"
	_, err := Load(writeConfig(t, bad))
	assert.ErrorContains(t, err, "SEA_LEVEL_HPA")
}

func TestLoadMissingRequired(t *testing.T) {
	missing := `MQTT_BROKER=tcp://localhost:1883
BARO_I2C_BUS=1
GPS_SERIAL_PORT=/dev/serial0
GPS_BAUD_RATE=9600
SAMPLE_INTERVAL=250
`
	_, err := Load(writeConfig(t, missing))
	assert.ErrorContains(t, err, "CONSOLE_LOG_INTERVAL is required")
}

func TestParseRegisterList(t *testing.T) {
	regs, err := parseRegisterList("0x06, 0x07,0x0C")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x06, 0x07, 0x0C}, regs)

	_, err = parseRegisterList("0x06,zz")
	assert.Error(t, err)
}
