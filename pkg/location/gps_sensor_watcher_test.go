package location

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSentence_ValidGGA(t *testing.T) {
	w := NewGPSSensorWatcher("/dev/ttyUSB0", 9600, zerolog.Nop())

	fix, ok := w.parseSentence("$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*47")

	require.True(t, ok)
	assert.InDelta(t, 48.1173, fix.Latitude, 1e-4)
	assert.InDelta(t, 11.5167, fix.Longitude, 1e-4)
	assert.Equal(t, SourcePrecise, fix.Source)
	assert.True(t, fix.HasAccuracy)
	assert.InDelta(t, 0.9*gpsBaseErrorMeters, fix.Accuracy, 1e-9)
	assert.False(t, fix.CapturedAt.IsZero())
}

func TestParseSentence_InvalidFixQualitySkipped(t *testing.T) {
	w := NewGPSSensorWatcher("/dev/ttyUSB0", 9600, zerolog.Nop())

	// Same sentence with fix quality 0 (no fix).
	_, ok := w.parseSentence("$GPGGA,123519,4807.038,N,01131.000,E,0,08,0.9,545.4,M,46.9,M,,*46")

	assert.False(t, ok)
}

func TestParseSentence_NonGGASentencesSkipped(t *testing.T) {
	w := NewGPSSensorWatcher("/dev/ttyUSB0", 9600, zerolog.Nop())

	_, ok := w.parseSentence("$GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W*6A")
	assert.False(t, ok)

	_, ok = w.parseSentence("not nmea at all")
	assert.False(t, ok)
}

func TestParseSentence_CorruptSentenceSkipped(t *testing.T) {
	w := NewGPSSensorWatcher("/dev/ttyUSB0", 9600, zerolog.Nop())

	_, ok := w.parseSentence("$GPGGA,garbage*00")
	assert.False(t, ok)
}

func TestGPSSensorWatcher_IsEnabled(t *testing.T) {
	assert.True(t, NewGPSSensorWatcher("/dev/ttyUSB0", 9600, zerolog.Nop()).IsEnabled())
	assert.False(t, NewGPSSensorWatcher("", 9600, zerolog.Nop()).IsEnabled())
}

func TestNetworkGeolocationWatcher_DisabledWithoutAPIKey(t *testing.T) {
	w, err := NewNetworkGeolocationWatcher("", 0, 0, zerolog.Nop())
	require.NoError(t, err)
	assert.False(t, w.IsEnabled())

	_, err = w.Subscribe(func(Fix) {}, func(error) {})
	assert.ErrorIs(t, err, ErrWatcherDisabled)
}

func TestIsValidMAC(t *testing.T) {
	assert.True(t, isValidMAC("00:14:22:01:23:45"))
	assert.False(t, isValidMAC("00:14:22:01:23"))
	assert.False(t, isValidMAC("00:14:22:01:23:GG"))
	assert.False(t, isValidMAC("garbage"))
}
