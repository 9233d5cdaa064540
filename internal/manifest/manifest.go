// Package manifest reads and writes batch manifests: TOML files listing the
// headers to extract together with their arguments and outputs.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"objcmeta/internal/errors"
	"objcmeta/internal/export"
)

// DefaultName is the manifest file name looked up when none is given.
const DefaultName = "headers.toml"

// Manifest is a batch of extractions stored in headers.toml
type Manifest struct {
	// Defaults apply to every header unless the header overrides them
	Defaults Defaults `toml:"defaults"`

	// Headers is the list of headers to extract, in order
	Headers []Entry `toml:"headers"`

	dir string
}

// Defaults are the settings shared by all entries
type Defaults struct {
	Provider  string   `toml:"provider,omitempty"`
	Args      []string `toml:"args,omitempty"`
	Format    string   `toml:"format,omitempty"`
	OutputDir string   `toml:"output_dir,omitempty"`
}

// Entry is one header to extract
type Entry struct {
	// Name labels the entry in logs; defaults to the header base name
	Name string `toml:"name,omitempty"`

	// Header is the header or snapshot path, relative to the manifest
	Header string `toml:"header"`

	// Args are appended to the default args
	Args []string `toml:"args,omitempty"`

	// Output is the output path; derived from the header name when empty
	Output   string `toml:"output,omitempty"`
	Format   string `toml:"format,omitempty"`
	Provider string `toml:"provider,omitempty"`
}

// Job is an entry with defaults applied and paths resolved.
type Job struct {
	Name     string
	Header   string
	Args     []string
	Output   string
	Format   export.Format
	Provider string
}

// Load reads and validates a manifest. Unknown keys are rejected.
func Load(path string) (*Manifest, error) {
	var m Manifest
	meta, err := toml.DecodeFile(path, &m)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.ManifestInvalid, fmt.Sprintf("manifest not found: %s", path), err)
		}
		return nil, errors.New(errors.ManifestInvalid, fmt.Sprintf("failed to parse manifest %s", path), err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.Newf(errors.ManifestInvalid, "unknown manifest keys: %s", strings.Join(keys, ", "))
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve manifest path: %w", err)
	}
	m.dir = filepath.Dir(abs)

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Save writes the manifest to path.
func (m *Manifest) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create manifest directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create manifest file: %w", err)
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(m); err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	return nil
}

// Example returns a manifest that documents every field.
func Example() *Manifest {
	return &Manifest{
		Defaults: Defaults{
			Args:      []string{"-Iinclude"},
			Format:    string(export.FormatJSON),
			OutputDir: "metadata",
		},
		Headers: []Entry{
			{Header: "include/Foundation.h"},
			{
				Name:   "kit",
				Header: "include/Kit/Kit.h",
				Args:   []string{"-DKIT_EXTRAS=1"},
				Format: string(export.FormatYAML),
			},
			{
				Header:   "snapshots/UIKit.yaml",
				Provider: "snapshot",
				Output:   "metadata/uikit.json",
			},
		},
	}
}

// Validate checks that every entry names a header, every format is known
// and no two entries write the same output.
func (m *Manifest) Validate() error {
	if len(m.Headers) == 0 {
		return errors.Newf(errors.ManifestInvalid, "manifest lists no headers")
	}
	if m.Defaults.Format != "" {
		if _, err := export.ParseFormat(m.Defaults.Format); err != nil {
			return errors.New(errors.ManifestInvalid, "invalid default format", err)
		}
	}

	outputs := make(map[string]int)
	for i, e := range m.Headers {
		if strings.TrimSpace(e.Header) == "" {
			return errors.Newf(errors.ManifestInvalid, "headers[%d] has no header path", i)
		}
		if e.Format != "" {
			if _, err := export.ParseFormat(e.Format); err != nil {
				return errors.New(errors.ManifestInvalid, fmt.Sprintf("headers[%d] has an invalid format", i), err)
			}
		}
	}
	for i, job := range m.Jobs() {
		if prev, ok := outputs[job.Output]; ok {
			return errors.Newf(errors.ManifestInvalid, "headers[%d] and headers[%d] both write %s", prev, i, job.Output)
		}
		outputs[job.Output] = i
	}
	return nil
}

// Jobs resolves every entry against the defaults and the manifest directory.
func (m *Manifest) Jobs() []Job {
	jobs := make([]Job, 0, len(m.Headers))
	for _, e := range m.Headers {
		header := m.resolve(e.Header)
		base := strings.TrimSuffix(filepath.Base(header), filepath.Ext(header))

		job := Job{
			Name:     e.Name,
			Header:   header,
			Args:     append(append([]string{}, m.Defaults.Args...), e.Args...),
			Provider: firstNonEmpty(e.Provider, m.Defaults.Provider),
		}
		if job.Name == "" {
			job.Name = base
		}

		switch {
		case e.Format != "":
			job.Format, _ = export.ParseFormat(e.Format)
		case e.Output != "":
			job.Format = export.FormatFromPath(e.Output)
		default:
			job.Format, _ = export.ParseFormat(m.Defaults.Format)
		}

		if e.Output != "" {
			job.Output = m.resolve(e.Output)
		} else {
			job.Output = m.resolve(filepath.Join(m.Defaults.OutputDir, base+"."+extension(job.Format)))
		}
		jobs = append(jobs, job)
	}
	return jobs
}

// Dir returns the directory relative paths are resolved against.
func (m *Manifest) Dir() string {
	return m.dir
}

func (m *Manifest) resolve(path string) string {
	if filepath.IsAbs(path) || m.dir == "" {
		return filepath.Clean(path)
	}
	return filepath.Join(m.dir, path)
}

func extension(f export.Format) string {
	switch f {
	case export.FormatText:
		return "txt"
	case "":
		return "json"
	}
	return string(f)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
