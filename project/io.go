package project

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/blang/semver"
)

// FormatVersion is the project file layout written by Save. Version 1
// files stored the settings of a single layer directly in the state object.
const FormatVersion = 2

// AppVersion is the application version recorded in saved projects.
var AppVersion = "1.0.0"

// ErrNewerProject is returned when a project was written by an application
// with a newer major version.
var ErrNewerProject = errors.New("project written by a newer version")

type envelope struct {
	Version    int             `json:"version"`
	AppVersion string          `json:"app_version,omitempty"`
	State      json.RawMessage `json:"state"`
}

// Encode writes the project as indented JSON. Source paths are written as is.
func Encode(w io.Writer, s *ProjectState) error {
	state, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding project: %w", err)
	}
	env := envelope{
		Version:    FormatVersion,
		AppVersion: AppVersion,
		State:      state,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(env); err != nil {
		return fmt.Errorf("encoding project: %w", err)
	}
	return nil
}

// Decode reads a project file. Missing fields take their defaults and
// version 1 files are migrated into a single layer project.
func Decode(r io.Reader) (*ProjectState, error) {
	var env envelope
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return nil, fmt.Errorf("decoding project: %w", err)
	}
	if err := checkAppVersion(env.AppVersion); err != nil {
		return nil, err
	}

	raw := bytes.TrimSpace(env.State)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		raw = []byte("{}")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("decoding project state: %w", err)
	}

	s := New()
	if err := json.Unmarshal(raw, s); err != nil {
		return nil, fmt.Errorf("decoding project state: %w", err)
	}
	if _, ok := fields["layers"]; !ok {
		// Flat single layer layout.
		l := NewLayerState("Layer 1")
		if err := json.Unmarshal(raw, l); err != nil {
			return nil, fmt.Errorf("migrating project layer: %w", err)
		}
		s.Layers = []*LayerState{l}
		s.ActiveLayerIndex = 0
	}
	return s, nil
}

func checkAppVersion(v string) error {
	if v == "" {
		return nil
	}
	written, err := semver.ParseTolerant(v)
	if err != nil {
		// Unknown writers are accepted; the layout version still applies.
		return nil
	}
	current, err := semver.ParseTolerant(AppVersion)
	if err != nil {
		return nil
	}
	if written.Major > current.Major {
		return fmt.Errorf("%w: %s > %s", ErrNewerProject, written, current)
	}
	return nil
}

// Save writes the project to path. Source paths below the project
// directory are stored relative to it.
func Save(path string, s *ProjectState) error {
	base, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return fmt.Errorf("saving project: %w", err)
	}
	out := s.Clone()
	for _, l := range out.Layers {
		l.SrcPath = relativeTo(base, l.SrcPath)
	}

	var buf bytes.Buffer
	if err := Encode(&buf, out); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("saving project: %w", err)
	}
	return nil
}

// Load reads the project at path, resolving relative source paths against
// the project directory.
func Load(path string) (*ProjectState, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open the project file: %w", err)
	}
	defer f.Close()

	s, err := Decode(f)
	if err != nil {
		return nil, err
	}
	base, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("loading project: %w", err)
	}
	for _, l := range s.Layers {
		if l.SrcPath != "" && !filepath.IsAbs(l.SrcPath) {
			l.SrcPath = filepath.Join(base, l.SrcPath)
		}
	}
	return s, nil
}

func relativeTo(base, src string) string {
	if src == "" {
		return ""
	}
	abs, err := filepath.Abs(src)
	if err != nil {
		return src
	}
	rel, err := filepath.Rel(base, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return src
	}
	return filepath.ToSlash(rel)
}
