package location

import (
	"bufio"
	"context"
	"errors"
	"os/exec"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"googlemaps.github.io/maps"
)

// ErrWatcherDisabled is returned by Subscribe when the watcher has no usable
// source configured.
var ErrWatcherDisabled = errors.New("positioning source is not enabled")

// scanWiFiAccessPoints lists nearby WiFi access points using nmcli. A missing
// tool or failed scan yields an empty list; the geolocation request falls back
// to IP-based resolution.
func scanWiFiAccessPoints(ctx context.Context, logger zerolog.Logger) []maps.WiFiAccessPoint {
	if _, err := exec.LookPath("nmcli"); err != nil {
		logger.Debug().Msg("nmcli not found, skipping WiFi scan")
		return nil
	}

	cmd := exec.CommandContext(ctx, "nmcli", "-t", "-f", "BSSID,SIGNAL", "dev", "wifi", "list")
	output, err := cmd.Output()
	if err != nil {
		logger.Debug().Err(err).Msg("WiFi scan failed")
		return nil
	}

	var wifiAPs []maps.WiFiAccessPoint
	scanner := bufio.NewScanner(strings.NewReader(string(output)))
	for scanner.Scan() {
		parts := strings.Split(scanner.Text(), ":")
		if len(parts) != 2 {
			continue
		}
		macAddress := strings.TrimSpace(parts[0])
		if !isValidMAC(macAddress) {
			continue
		}
		signal, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			continue
		}
		wifiAPs = append(wifiAPs, maps.WiFiAccessPoint{
			MACAddress:     macAddress,
			SignalStrength: float64(signal),
		})
	}

	return wifiAPs
}

// scanCellTowers reads the serving cell of the given modem using mmcli. Like
// the WiFi scan this is best effort and returns nil when no complete cell
// description is available.
func scanCellTowers(ctx context.Context, modemIndex int, logger zerolog.Logger) []maps.CellTower {
	if _, err := exec.LookPath("mmcli"); err != nil {
		logger.Debug().Msg("mmcli not found, skipping cell scan")
		return nil
	}

	cmd := exec.CommandContext(ctx, "mmcli", "-m", strconv.Itoa(modemIndex), "--output-keyvalue")
	output, err := cmd.Output()
	if err != nil {
		logger.Debug().Err(err).Int("modem", modemIndex).Msg("Cell scan failed")
		return nil
	}

	var cellTower maps.CellTower
	scanner := bufio.NewScanner(strings.NewReader(string(output)))
	for scanner.Scan() {
		parts := strings.Split(scanner.Text(), ":")
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		switch key {
		case "modem.3gpp.mcc":
			mcc, err := strconv.Atoi(value)
			if err != nil {
				continue
			}
			cellTower.MobileCountryCode = mcc
		case "modem.3gpp.mnc":
			mnc, err := strconv.Atoi(value)
			if err != nil {
				continue
			}
			cellTower.MobileNetworkCode = mnc
		case "modem.3gpp.lac":
			lac, err := strconv.ParseInt(value, 16, 32)
			if err != nil {
				continue
			}
			cellTower.LocationAreaCode = int(lac)
		case "modem.3gpp.cid":
			cid, err := strconv.ParseInt(value, 16, 32)
			if err != nil {
				continue
			}
			cellTower.CellID = int(cid)
		}
	}

	if cellTower.MobileCountryCode == 0 || cellTower.MobileNetworkCode == 0 {
		return nil
	}

	return []maps.CellTower{cellTower}
}

// isValidMAC checks if the MAC address is in a valid format (e.g., "00:14:22:01:23:45").
func isValidMAC(mac string) bool {
	parts := strings.Split(mac, ":")
	if len(parts) != 6 {
		return false
	}
	for _, part := range parts {
		if len(part) != 2 {
			return false
		}
		if _, err := strconv.ParseInt(part, 16, 8); err != nil {
			return false
		}
	}
	return true
}
