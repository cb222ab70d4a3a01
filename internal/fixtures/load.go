package fixtures

import (
	"bytes"
	"embed"
	"fmt"
	"os"

	"vulnboard/internal/logging"

	"gopkg.in/yaml.v3"
)

//go:embed defaults/*.yaml
var defaultsFS embed.FS

// LoadDashboard reads the dashboard dataset from path. An empty path returns
// the embedded default dataset.
func LoadDashboard(path string) (*Dashboard, error) {
	data, src, err := readSource(path, "defaults/dashboard.yaml")
	if err != nil {
		return nil, err
	}
	var d Dashboard
	if err := decodeStrict(data, &d); err != nil {
		return nil, fmt.Errorf("failed to parse dashboard fixtures %s: %w", src, err)
	}
	logging.Fixtures("Loaded dashboard fixtures from %s (%d actions)", src, len(d.PriorityActions))
	return &d, nil
}

// LoadWizard reads the wizard dataset from path. An empty path returns the
// embedded default dataset.
func LoadWizard(path string) (*Wizard, error) {
	data, src, err := readSource(path, "defaults/wizard.yaml")
	if err != nil {
		return nil, err
	}
	var w Wizard
	if err := decodeStrict(data, &w); err != nil {
		return nil, fmt.Errorf("failed to parse wizard fixtures %s: %w", src, err)
	}
	logging.Fixtures("Loaded wizard fixtures from %s (%d phases)", src, len(w.Phases))
	return &w, nil
}

// DefaultDashboard returns the embedded dashboard dataset. It panics if the
// embedded file is malformed, which only a broken build can cause.
func DefaultDashboard() *Dashboard {
	d, err := LoadDashboard("")
	if err != nil {
		panic(err)
	}
	return d
}

// DefaultWizard returns the embedded wizard dataset.
func DefaultWizard() *Wizard {
	w, err := LoadWizard("")
	if err != nil {
		panic(err)
	}
	return w
}

// Marshal renders a dataset back to YAML.
func Marshal(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("failed to marshal fixtures: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func readSource(path, embedded string) ([]byte, string, error) {
	if path == "" {
		data, err := defaultsFS.ReadFile(embedded)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read embedded fixtures: %w", err)
		}
		return data, "embedded:" + embedded, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read fixtures: %w", err)
	}
	return data, path, nil
}

func decodeStrict(data []byte, out interface{}) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	return dec.Decode(out)
}
