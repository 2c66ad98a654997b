// Package consent stores the auto-consent decisions used by non-interactive donation runs.
// A global decision applies to every platform unless the platform has its own decision.
package consent

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/ubuntu/ddp-insights/internal/constants"
	"github.com/ubuntu/ddp-insights/internal/fileutils"
	"github.com/ubuntu/decorate"
)

// Manager reads and writes consent files in a single directory.
type Manager struct {
	path string
	log  *slog.Logger
}

type consentFile struct {
	ConsentState bool `toml:"consent_state"`
}

// New returns a Manager storing consent files under path.
func New(log *slog.Logger, path string) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{path: path, log: log}
}

// GetState returns the stored decision for platform.
// An empty platform returns the global decision. A missing file is an error.
func (cm Manager) GetState(platform string) (bool, error) {
	c, err := readFile(cm.log, cm.file(platform))
	if err != nil {
		return false, err
	}
	return c.ConsentState, nil
}

// SetState stores state for platform, or globally when platform is empty.
func (cm Manager) SetState(platform string, state bool) (err error) {
	defer decorate.OnError(&err, "could not set consent state")

	if strings.ContainsAny(platform, `/\`) || platform == "." || platform == ".." {
		return fmt.Errorf("invalid platform name %q", platform)
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(consentFile{ConsentState: state}); err != nil {
		return fmt.Errorf("could not encode consent file: %v", err)
	}
	if err := fileutils.AtomicWrite(cm.log, cm.file(platform), buf.Bytes(), 0600); err != nil {
		return err
	}
	cm.log.Debug("Wrote consent file", "platform", platform, "consent", state)
	return nil
}

// HasConsent reports whether donations for platform are accepted without prompting.
// A readable platform decision wins. Otherwise the global decision applies.
func (cm Manager) HasConsent(platform string) (bool, error) {
	if platform != "" {
		state, err := cm.GetState(platform)
		if err == nil {
			return state, nil
		}
		cm.log.Debug("Falling back to global consent", "platform", platform, "error", err)
	}

	state, err := cm.GetState("")
	if err != nil {
		return false, fmt.Errorf("no usable consent state for %q: %v", platform, err)
	}
	return state, nil
}

// States returns the decision of every platform with a consent file.
// Unreadable files are logged and skipped when continueOnErr is set.
func (cm Manager) States(continueOnErr bool) (map[string]bool, error) {
	files, err := cm.files()
	if err != nil {
		return nil, err
	}

	states := make(map[string]bool)
	for platform, path := range files {
		c, err := readFile(cm.log, path)
		if err != nil {
			if !continueOnErr {
				return nil, err
			}
			cm.log.Warn("Skipping unreadable consent file", "file", path, "error", err)
			continue
		}
		states[platform] = c.ConsentState
	}
	return states, nil
}

func (cm Manager) file(platform string) string {
	if platform == "" {
		return filepath.Join(cm.path, constants.ConsentFileName)
	}
	return filepath.Join(cm.path, platform+constants.ConsentPlatformSeparator+constants.ConsentFileName)
}

// files maps each platform to its consent file. The global file is not included.
func (cm Manager) files() (map[string]string, error) {
	files := make(map[string]string)

	entries, err := os.ReadDir(cm.path)
	if err != nil {
		if os.IsNotExist(err) {
			return files, nil
		}
		return nil, err
	}

	suffix := constants.ConsentPlatformSeparator + constants.ConsentFileName
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), suffix) {
			continue
		}
		platform := strings.TrimSuffix(e.Name(), suffix)
		if platform == "" {
			continue
		}
		files[platform] = filepath.Join(cm.path, e.Name())
	}
	return files, nil
}

func readFile(log *slog.Logger, path string) (*consentFile, error) {
	var c consentFile
	md, err := toml.DecodeFile(path, &c)
	if err != nil {
		return nil, err
	}
	if !md.IsDefined("consent_state") {
		return nil, fmt.Errorf("%s has no consent_state", path)
	}
	log.Debug("Read consent file", "file", path, "consent", c.ConsentState)
	return &c, nil
}
