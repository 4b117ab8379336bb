// Package config holds the service profile store and the application
// settings. Service profiles describe how to interact with one chat website
// and live in a flat JSON file keyed by service name. User values override
// the built-in defaults field by field, unknown names become custom
// profiles.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// SubmitMethod determines how a typed question is sent off.
type SubmitMethod string

const (
	SubmitEnter  SubmitMethod = "enter"
	SubmitButton SubmitMethod = "button"
)

// ServiceProfile describes how to interact with one chat website.
type ServiceProfile struct {
	Name                 string       `json:"-"`
	URL                  string       `json:"url"`
	InputSelector        string       `json:"input_selector"`
	OutputSelector       string       `json:"output_selector"`
	SubmitMethod         SubmitMethod `json:"submit_method"`
	SubmitButtonSelector string       `json:"submit_button_selector,omitempty"`
	WaitSelector         string       `json:"wait_selector,omitempty"`
	ResponseWaitSeconds  int          `json:"response_wait_time"`
}

// Validate checks the fields every profile needs to be usable.
func (p *ServiceProfile) Validate() error {
	if p.Name == "" {
		return errors.New("profile name cannot be empty")
	}
	if p.URL == "" {
		return fmt.Errorf("profile %s: url cannot be empty", p.Name)
	}
	if p.InputSelector == "" {
		return fmt.Errorf("profile %s: input_selector cannot be empty", p.Name)
	}
	if p.OutputSelector == "" {
		return fmt.Errorf("profile %s: output_selector cannot be empty", p.Name)
	}
	if p.SubmitMethod != SubmitEnter && p.SubmitMethod != SubmitButton {
		return fmt.Errorf("profile %s: submit_method must be '%s' or '%s', got '%s'", p.Name, SubmitEnter, SubmitButton, p.SubmitMethod)
	}
	return nil
}

func (p *ServiceProfile) clone() *ServiceProfile {
	c := *p
	return &c
}

// DefaultProfiles returns the built-in profiles for the three known
// services. Selectors drift whenever the vendors redesign their frontends,
// which is why they are user-overridable in the first place.
func DefaultProfiles() map[string]*ServiceProfile {
	return map[string]*ServiceProfile{
		"ChatGPT": {
			Name:                "ChatGPT",
			URL:                 "https://chatgpt.com",
			InputSelector:       "#prompt-textarea",
			OutputSelector:      "[data-message-author-role='assistant']",
			SubmitMethod:        SubmitEnter,
			WaitSelector:        "[data-testid='stop-button']",
			ResponseWaitSeconds: 15,
		},
		"Claude": {
			Name:                "Claude",
			URL:                 "https://claude.ai",
			InputSelector:       "div[contenteditable='true'][data-placeholder]",
			OutputSelector:      "div.message-content, .font-claude-message, [data-message-id]",
			SubmitMethod:        SubmitEnter,
			WaitSelector:        "button[aria-label*='Stop'], .stop-button",
			ResponseWaitSeconds: 20,
		},
		"Gemini": {
			Name:                 "Gemini",
			URL:                  "https://gemini.google.com",
			InputSelector:        ".input-area, textarea, [class*='input-area'], [class*='ql-editor']",
			OutputSelector:       ".markdown, [class*='markdown'], .model-response-text, [class*='message-content']",
			SubmitMethod:         SubmitButton,
			SubmitButtonSelector: "button[aria-label*='Send'], button[aria-label*='send'], button[data-testid*='send']",
			ResponseWaitSeconds:  20,
		},
	}
}

// Store is the in-memory view of the profile configuration file.
type Store struct {
	Path     string
	Profiles map[string]*ServiceProfile
}

// LoadStore reads the profile file at path and merges it onto the built-in
// defaults. A missing file yields the defaults, a malformed file logs a
// warning and also yields the defaults.
func LoadStore(path string) *Store {
	s := &Store{
		Path:     path,
		Profiles: DefaultProfiles(),
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			slog.Warn(fmt.Sprintf("error reading config %s: %v. Using defaults.", path, err))
		}
		return s
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		slog.Warn(fmt.Sprintf("error loading config %s: %v. Using defaults.", path, err))
		return s
	}
	for name, rawProfile := range raw {
		base, ok := s.Profiles[name]
		if ok {
			base = base.clone()
		} else {
			base = &ServiceProfile{}
		}
		if err := json.Unmarshal(rawProfile, base); err != nil {
			slog.Warn(fmt.Sprintf("error loading config for service %s: %v. Skipping.", name, err))
			continue
		}
		base.Name = name
		if err := base.Validate(); err != nil {
			slog.Warn(fmt.Sprintf("invalid config for service %s: %v. Skipping.", name, err))
			continue
		}
		s.Profiles[name] = base
	}
	return s
}

// Save rewrites the complete merged configuration, defaults included.
func (s *Store) Save() error {
	data, err := json.MarshalIndent(s.Profiles, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}
	if err := os.WriteFile(s.Path, data, 0644); err != nil {
		return fmt.Errorf("error saving config to %s: %w", s.Path, err)
	}
	return nil
}

// Profile looks up a service by name, ignoring case. For unknown names the
// error contains a suggestion based on the closest known name.
func (s *Store) Profile(name string) (*ServiceProfile, error) {
	if p, ok := s.Profiles[name]; ok {
		return p, nil
	}
	for n, p := range s.Profiles {
		if strings.EqualFold(n, name) {
			return p, nil
		}
	}
	if suggestion := closestName(name, s.Names()); suggestion != "" {
		return nil, fmt.Errorf("unknown service '%s', did you mean '%s'?", name, suggestion)
	}
	return nil, fmt.Errorf("unknown service '%s', known services: %v", name, s.Names())
}

// Set adds or replaces a profile after validating it.
func (s *Store) Set(p *ServiceProfile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.Profiles[p.Name] = p
	return nil
}

// Delete removes a custom profile. Built-in services cannot be deleted.
func (s *Store) Delete(name string) error {
	if _, ok := DefaultProfiles()[name]; ok {
		return fmt.Errorf("default service '%s' cannot be deleted", name)
	}
	if _, ok := s.Profiles[name]; !ok {
		return fmt.Errorf("unknown service '%s'", name)
	}
	delete(s.Profiles, name)
	return nil
}

// Names returns all configured service names, sorted.
func (s *Store) Names() []string {
	names := make([]string, 0, len(s.Profiles))
	for n := range s.Profiles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func closestName(name string, candidates []string) string {
	best := ""
	bestDist := 4 // suggestions further away than 3 edits are useless
	for _, c := range candidates {
		if d := levenshtein.ComputeDistance(name, c); d < bestDist {
			best = c
			bestDist = d
		}
	}
	return best
}
