// Package access gates position acquisition behind explicit user consent, the
// agent's counterpart to a mobile runtime permission.
package access

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/waypost/waypost/pkg/file"
)

// Controller answers whether the user has allowed this device's positioning
// sources to be read, and can ask for that consent.
type Controller interface {
	HasPermission() bool
	RequestPermission() bool
}

// consentRecord is the on-disk shape of a granted consent.
type consentRecord struct {
	Granted   bool   `json:"granted"`
	GrantedAt string `json:"granted_at,omitempty"`
}

// ConsentController persists consent in a JSON file and prompts interactively
// on first use. A denial is not persisted, so the next invocation asks again.
type ConsentController struct {
	consentFile string
	fileClient  file.FileOperations
	in          io.Reader
	out         io.Writer
	logger      zerolog.Logger
}

// NewConsentController creates a controller storing consent at consentFile and
// prompting over the given reader/writer pair.
func NewConsentController(consentFile string, fileClient file.FileOperations, in io.Reader, out io.Writer, logger zerolog.Logger) *ConsentController {
	return &ConsentController{
		consentFile: consentFile,
		fileClient:  fileClient,
		in:          in,
		out:         out,
		logger:      logger,
	}
}

// HasPermission reports whether a previously granted consent is on disk.
func (c *ConsentController) HasPermission() bool {
	exists, err := c.fileClient.IsFileExists(c.consentFile)
	if err != nil || !exists {
		return false
	}

	var record consentRecord
	if err := c.fileClient.ReadJsonFile(c.consentFile, &record); err != nil {
		c.logger.Warn().Err(err).Str("file", c.consentFile).Msg("Failed to read consent file")
		return false
	}
	return record.Granted
}

// RequestPermission prompts the user and persists a grant. It returns false on
// denial or on any prompt/persist failure.
func (c *ConsentController) RequestPermission() bool {
	fmt.Fprint(c.out, "waypost needs access to this device's positioning sources (GPS sensor, network geolocation). Allow? [y/N]: ")

	reader := bufio.NewReader(c.in)
	answer, err := reader.ReadString('\n')
	if err != nil {
		c.logger.Warn().Err(err).Msg("Failed to read consent answer")
		return false
	}

	answer = strings.ToLower(strings.TrimSpace(answer))
	if answer != "y" && answer != "yes" {
		c.logger.Info().Msg("Position access denied by user")
		return false
	}

	record := consentRecord{
		Granted:   true,
		GrantedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if err := c.fileClient.WriteJsonFile(c.consentFile, record); err != nil {
		c.logger.Error().Err(err).Str("file", c.consentFile).Msg("Failed to persist consent")
		return false
	}

	c.logger.Info().Str("file", c.consentFile).Msg("Position access granted")
	return true
}
