// Package presentation provides host-side notification capabilities for the
// CLI: a console sink, a terminal-bell sound player and an in-memory
// preference store. Browser hosts substitute their own implementations.
package presentation

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"pulse/config"
	"pulse/internal/domain/entity"
	domainerrors "pulse/internal/domain/errors"
	"pulse/internal/domain/service"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// ConsoleSink shows notifications on a terminal. The console needs no host
// permission, but the grant still only happens through an explicit request so
// the permission flow matches browser hosts.
type ConsoleSink struct {
	out io.Writer

	mu         sync.Mutex
	permission service.PermissionState
}

// NewConsoleSink creates a sink writing to stdout.
func NewConsoleSink() service.NotificationSink {
	return &ConsoleSink{out: os.Stdout, permission: service.PermissionDefault}
}

// NewConsoleSinkWriter creates a sink writing to the given writer.
func NewConsoleSinkWriter(out io.Writer) *ConsoleSink {
	return &ConsoleSink{out: out, permission: service.PermissionDefault}
}

func (s *ConsoleSink) Permission() service.PermissionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.permission
}

func (s *ConsoleSink) RequestPermission(_ context.Context) (service.PermissionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.permission = service.PermissionGranted

	return s.permission, nil
}

func (s *ConsoleSink) Show(_ context.Context, title, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.permission != service.PermissionGranted {
		return errors.Wrap(domainerrors.NewFailure(domainerrors.KindPresentation, "notification permission not granted"), title)
	}

	_, err := fmt.Fprintf(s.out, "[%s] %s\n", title, message)

	return errors.Wrap(err, "write notification")
}

// BellPlayer plays alert sounds as terminal bells. Higher severities ring
// more bells; volume zero is silence.
type BellPlayer struct {
	out io.Writer
	mu  sync.Mutex
}

// NewBellPlayer creates a player writing to stdout.
func NewBellPlayer() service.SoundPlayer {
	return &BellPlayer{out: os.Stdout}
}

// NewBellPlayerWriter creates a player writing to the given writer.
func NewBellPlayerWriter(out io.Writer) *BellPlayer {
	return &BellPlayer{out: out}
}

func (p *BellPlayer) Play(_ context.Context, severity entity.Severity, volume float64) error {
	if volume <= 0 {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	_, err := p.out.Write([]byte(strings.Repeat("\a", bellCount(severity))))

	return errors.Wrap(err, "play bell")
}

func bellCount(severity entity.Severity) int {
	switch severity {
	case entity.SeverityCritical:
		return 3
	case entity.SeverityHigh:
		return 2
	default:
		return 1
	}
}

// MemoryPreferenceStore holds the notification preference in memory. One
// writer at a time; the presenter reads a copy on every event.
type MemoryPreferenceStore struct {
	mu         sync.RWMutex
	preference entity.NotificationPreference
}

// StoreParams holds dependencies for the preference store, injected by Fx.
type StoreParams struct {
	fx.In

	Config *config.Config
}

// NewMemoryPreferenceStore seeds the store from config.
func NewMemoryPreferenceStore(params StoreParams) service.PreferenceStore {
	return &MemoryPreferenceStore{preference: params.Config.Preference()}
}

// NewMemoryPreferenceStoreWith seeds the store with an explicit preference.
func NewMemoryPreferenceStoreWith(preference entity.NotificationPreference) *MemoryPreferenceStore {
	return &MemoryPreferenceStore{preference: preference.Clone()}
}

func (s *MemoryPreferenceStore) Preferences() entity.NotificationPreference {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.preference.Clone()
}

func (s *MemoryPreferenceStore) Update(mutate func(*entity.NotificationPreference)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	preference := s.preference.Clone()
	mutate(&preference)
	s.preference = preference
}
