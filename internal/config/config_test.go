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
	path := filepath.Join(t.TempDir(), "pet_tracker_config.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const minimalConfig = `
# radio
RADIO_SPI_DEVICE = /dev/spidev0.0
RADIO_RESET_PIN = GPIO22
RADIO_DIO0_PIN = GPIO25
RADIO_FREQUENCY_HZ = 868000000

SEND_PERIOD_SECONDS = 10
LOOP_INTERVAL = 5
`

func TestLoadMinimal(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "/dev/spidev0.0", cfg.RadioSPIDevice)
	assert.Equal(t, "GPIO22", cfg.RadioResetPin)
	assert.Equal(t, "GPIO25", cfg.RadioDIO0Pin)
	assert.Equal(t, uint32(868000000), cfg.RadioFrequencyHz)
	assert.Equal(t, 10, cfg.SendPeriodSeconds)
	assert.Equal(t, 5, cfg.LoopInterval)
}

func TestLoadFullRadioProfile(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig+`
RADIO_TX_POWER_DBM = 14
RADIO_SPREADING_FACTOR = 9
RADIO_BANDWIDTH_KHZ = 125
RADIO_CODING_RATE = 7
RADIO_SYNC_WORD = 0x12
RADIO_PREAMBLE_LENGTH = 8
GPS_SERIAL_PORT = /dev/serial0
GPS_BAUD_RATE = 9600
MQTT_BROKER = tcp://localhost:1883
DISPLAY_ENABLED = true
WEB_SERVER_PORT = 8080
`))
	require.NoError(t, err)

	assert.Equal(t, 14, cfg.RadioTxPowerDBm)
	assert.Equal(t, 9, cfg.RadioSpreadingFactor)
	assert.Equal(t, 125, cfg.RadioBandwidthKHz)
	assert.Equal(t, 7, cfg.RadioCodingRate)
	assert.Equal(t, byte(0x12), cfg.RadioSyncWord)
	assert.Equal(t, 8, cfg.RadioPreambleLength)
	assert.Equal(t, "/dev/serial0", cfg.GPSSerialPort)
	assert.Equal(t, 9600, cfg.GPSBaudRate)
	assert.Equal(t, "tcp://localhost:1883", cfg.MQTTBroker)
	assert.True(t, cfg.DisplayEnabled)
	assert.Equal(t, 8080, cfg.WebServerPort)
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"unknown key", "NOT_A_KEY = 1"},
		{"missing equals", "RADIO_TX_POWER_DBM 14"},
		{"power out of range", "RADIO_TX_POWER_DBM = 30"},
		{"spreading factor out of range", "RADIO_SPREADING_FACTOR = 13"},
		{"unsupported bandwidth", "RADIO_BANDWIDTH_KHZ = 100"},
		{"period at a minute", "SEND_PERIOD_SECONDS = 60"},
		{"period zero", "SEND_PERIOD_SECONDS = 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, minimalConfig+tt.line+"\n"))
			assert.Error(t, err)
		})
	}
}

func TestLoadRequiresRadioWiring(t *testing.T) {
	_, err := Load(writeConfig(t, "LOOP_INTERVAL = 5\nSEND_PERIOD_SECONDS = 10\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RADIO_SPI_DEVICE")
}
