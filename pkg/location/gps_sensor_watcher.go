package location

import (
	"bufio"
	"strings"
	"sync"
	"time"

	"github.com/adrianmo/go-nmea"
	"github.com/rs/zerolog"
	"github.com/tarm/serial"
)

// gpsBaseErrorMeters is the sensor's nominal horizontal error at HDOP 1.0.
// Multiplying it by the reported HDOP gives a usable accuracy estimate in
// meters for arbitration.
const gpsBaseErrorMeters = 5.0

// GPSSensorWatcher streams position fixes from a GPS device connected via
// serial port. It is the precise source: every valid GGA sentence read from
// the device becomes one Fix.
type GPSSensorWatcher struct {
	port     string
	baudRate int
	logger   zerolog.Logger
}

// NewGPSSensorWatcher creates a watcher for the GPS device on the given serial
// port. An empty port leaves the watcher disabled.
func NewGPSSensorWatcher(port string, baudRate int, logger zerolog.Logger) *GPSSensorWatcher {
	return &GPSSensorWatcher{
		port:     port,
		baudRate: baudRate,
		logger:   logger,
	}
}

// IsEnabled reports whether a serial device is configured.
func (g *GPSSensorWatcher) IsEnabled() bool {
	return g.port != ""
}

// Source returns SourcePrecise.
func (g *GPSSensorWatcher) Source() Source {
	return SourcePrecise
}

// Subscribe opens the serial port and starts a reader goroutine that emits a
// Fix per valid GGA sentence until the subscription is cancelled.
func (g *GPSSensorWatcher) Subscribe(onFix func(Fix), onError func(error)) (Subscription, error) {
	c := &serial.Config{Name: g.port, Baud: g.baudRate}
	s, err := serial.OpenPort(c)
	if err != nil {
		return nil, err
	}

	sub := &gpsSubscription{port: s}

	go func() {
		scanner := bufio.NewScanner(s)
		for scanner.Scan() {
			if sub.stopped() {
				return
			}

			fix, ok := g.parseSentence(scanner.Text())
			if !ok {
				continue
			}
			onFix(fix)
		}

		// Closing the port on Unsubscribe aborts the scanner; only report
		// errors from a subscription that is still live.
		if err := scanner.Err(); err != nil && !sub.stopped() {
			g.logger.Error().Err(err).Str("port", g.port).Msg("GPS serial read failed")
			onError(err)
		}
	}()

	return sub, nil
}

// parseSentence converts one NMEA line into a Fix. Lines that are not GGA
// sentences, or report fix quality "invalid", are skipped.
func (g *GPSSensorWatcher) parseSentence(line string) (Fix, bool) {
	if !strings.HasPrefix(line, "$GPGGA") && !strings.HasPrefix(line, "$GNGGA") {
		return Fix{}, false
	}

	sentence, err := nmea.Parse(line)
	if err != nil {
		g.logger.Debug().Err(err).Msg("Skipping unparseable NMEA sentence")
		return Fix{}, false
	}

	gga, ok := sentence.(nmea.GGA)
	if !ok || gga.FixQuality == nmea.Invalid {
		return Fix{}, false
	}

	fix := Fix{
		Latitude:   gga.Latitude,
		Longitude:  gga.Longitude,
		Source:     SourcePrecise,
		CapturedAt: time.Now().UTC(),
	}
	if gga.HDOP > 0 {
		fix.Accuracy = gga.HDOP * gpsBaseErrorMeters
		fix.HasAccuracy = true
	}
	return fix, true
}

// gpsSubscription cancels the reader by closing the serial port.
type gpsSubscription struct {
	port *serial.Port

	mu     sync.Mutex
	closed bool
}

func (s *gpsSubscription) Unsubscribe() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	_ = s.port.Close()
}

func (s *gpsSubscription) stopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
