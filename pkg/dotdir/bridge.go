package dotdir

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	bridgeFile = "bridge.json"

	// bridgeHintFile marks that the "no bridge running" hint was shown.
	bridgeHintFile = "bridge-hint"
)

// BridgeState describes a running hook bridge so one-shot hook commands can
// forward events to it instead of starting a fresh session each time.
type BridgeState struct {
	// Listen is the address the bridge accepts connections on.
	Listen string `json:"listen"`

	PID       int       `json:"pid"`
	StartedAt time.Time `json:"started_at"`
}

// URL is the bridge base URL.
func (s *BridgeState) URL() string {
	return "http://" + s.Listen
}

// LoadBridgeState reads .memhooks/bridge.json.
// Returns nil, nil when no bridge has been recorded.
func (m *Manager) LoadBridgeState(overrideDir string) (*BridgeState, error) {
	dir, err := m.Target(overrideDir)
	if err != nil || dir == "" {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(dir, bridgeFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading bridge state: %w", err)
	}

	state := &BridgeState{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("parsing bridge state: %w", err)
	}
	return state, nil
}

// SaveBridgeState writes .memhooks/bridge.json, creating the directory when
// needed.
func (m *Manager) SaveBridgeState(state *BridgeState, overrideDir string) error {
	if state == nil {
		return errors.New("cannot save nil bridge state")
	}

	dir, err := m.Ensure(overrideDir)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling bridge state: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, bridgeFile), data, 0o600); err != nil {
		return fmt.Errorf("writing bridge state: %w", err)
	}
	return nil
}

// ClearBridgeState removes the bridge state file. A missing file is not an
// error.
func (m *Manager) ClearBridgeState(overrideDir string) error {
	dir, err := m.Target(overrideDir)
	if err != nil || dir == "" {
		return err
	}

	if err := os.Remove(filepath.Join(dir, bridgeFile)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing bridge state: %w", err)
	}
	return nil
}

// ClaimBridgeHint reports true exactly once per .memhooks directory, the
// first time a hook runs without a bridge. Later calls report false.
func (m *Manager) ClaimBridgeHint(overrideDir string) (bool, error) {
	dir, err := m.Ensure(overrideDir)
	if err != nil {
		return false, err
	}

	f, err := os.OpenFile(filepath.Join(dir, bridgeHintFile), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return false, nil
		}
		return false, fmt.Errorf("recording bridge hint: %w", err)
	}
	return true, f.Close()
}
