// Package config owns the host configuration file: the admin allow-list,
// the UI theme, and the persisted report collection. The file is read once
// at startup and rewritten after every mutating operation.
package config

import (
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	goccy "github.com/goccy/go-json"
	"github.com/zond/overseer"
)

// Theme holds the console's colors and font. Colors are "r g b a" strings
// as the widget layer expects them.
type Theme struct {
	PrimaryColor    string `json:"primary_color"`
	SecondaryColor  string `json:"secondary_color"`
	DangerColor     string `json:"danger_color"`
	SuccessColor    string `json:"success_color"`
	WarningColor    string `json:"warning_color"`
	BackgroundColor string `json:"background_color"`
	PanelColor      string `json:"panel_color"`
	TextColor       string `json:"text_color"`
	SubtitleColor   string `json:"subtitle_color"`
	DisabledColor   string `json:"disabled_color"`
	FontSize        int    `json:"font_size"`
	FontName        string `json:"font_name"`
}

func DefaultTheme() Theme {
	return Theme{
		PrimaryColor:    "0.12 0.23 0.54 1",
		SecondaryColor:  "0.23 0.51 0.96 1",
		DangerColor:     "0.94 0.27 0.27 1",
		SuccessColor:    "0.06 0.73 0.51 1",
		WarningColor:    "0.96 0.62 0.04 1",
		BackgroundColor: "0.07 0.09 0.15 0.95",
		PanelColor:      "0.12 0.16 0.24 0.9",
		TextColor:       "0.9 0.92 0.93 1",
		SubtitleColor:   "0.61 0.64 0.69 1",
		DisabledColor:   "0.3 0.3 0.3 0.5",
		FontSize:        14,
		FontName:        "robotocondensed-regular.ttf",
	}
}

// StoredReport is the persisted form of a report.
type StoredReport struct {
	ID         uint64    `json:"id"`
	Reporter   string    `json:"reporter"`
	TargetName string    `json:"target_name"`
	TargetID   string    `json:"target_id"`
	Category   string    `json:"category"`
	Subject    string    `json:"subject"`
	Message    string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
}

// Data is the on-disk configuration object.
type Data struct {
	AllowedAdmins map[string]string `json:"allowed_admins"`
	UI            Theme             `json:"ui"`
	StoredReports []StoredReport    `json:"stored_reports"`
}

func defaultData() Data {
	return Data{
		AllowedAdmins: map[string]string{},
		UI:            DefaultTheme(),
	}
}

// Store provides locked access to the configuration and rewrites the file
// after each mutation.
type Store struct {
	mu   sync.RWMutex
	path string
	data Data
}

// Load reads the configuration at path. A missing or corrupt file falls
// back to fresh defaults rather than failing startup; the file is rewritten
// immediately so it is always valid on disk after load.
func Load(path string) (*Store, error) {
	s := &Store{path: path, data: defaultData()}
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		log.Printf("No configuration at %q, creating defaults", path)
	} else if err != nil {
		return nil, overseer.WithStack(err)
	} else {
		data := defaultData()
		if err := goccy.Unmarshal(b, &data); err != nil {
			log.Printf("Corrupt configuration at %q (%v), using defaults", path, err)
			data = defaultData()
		}
		if data.AllowedAdmins == nil {
			data.AllowedAdmins = map[string]string{}
		}
		if data.UI == (Theme{}) {
			data.UI = DefaultTheme()
		}
		s.data = data
	}
	if err := s.Save(); err != nil {
		return nil, overseer.WithStack(err)
	}
	return s, nil
}

// Save rewrites the configuration file atomically.
func (s *Store) Save() error {
	s.mu.RLock()
	b, err := goccy.MarshalIndent(s.data, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return overseer.WithStack(err)
	}
	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return overseer.WithStack(err)
	}
	if err := os.WriteFile(tmp, b, 0600); err != nil {
		return overseer.WithStack(err)
	}
	return overseer.WithStack(os.Rename(tmp, s.path))
}

func (s *Store) Theme() Theme {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.UI
}

// IsAllowedAdmin reports whether id is in the static allow-list.
func (s *Store) IsAllowedAdmin(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, found := s.data.AllowedAdmins[id]
	return found
}

// AllowAdmin adds id to the allow-list and persists.
func (s *Store) AllowAdmin(id, name string) error {
	s.mu.Lock()
	s.data.AllowedAdmins[id] = name
	s.mu.Unlock()
	return s.Save()
}

// Reports returns a copy of the persisted report collection.
func (s *Store) Reports() []StoredReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]StoredReport, len(s.data.StoredReports))
	copy(result, s.data.StoredReports)
	return result
}

// SetReports replaces the persisted report collection and rewrites the
// file. It is the persist hook handed to the report store.
func (s *Store) SetReports(reports []StoredReport) error {
	s.mu.Lock()
	s.data.StoredReports = make([]StoredReport, len(reports))
	copy(s.data.StoredReports, reports)
	s.mu.Unlock()
	return s.Save()
}
