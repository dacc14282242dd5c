// Package snapshot decodes the task versions handed to the merge engine from
// JSON, YAML or TOML documents.
//
// A single merge input looks like:
//
//	strategy: timestamp
//	local:  {content: "buy milk", status: pending, updatedAt: 2026-01-02T10:00:00Z}
//	remote: {content: "buy oat milk", status: pending, updatedAt: 2026-01-02T11:00:00Z}
//	base:   {content: "milk", status: pending, updatedAt: 2026-01-01T09:00:00Z}
//
// A batch holds a list of items, each with an id and the same three keys.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/klauern/tasksync/internal/logging"
	"github.com/klauern/tasksync/internal/model"
	"github.com/klauern/tasksync/internal/sync"
)

// ErrUnsupportedFormat is returned for file extensions snapshot cannot decode.
var ErrUnsupportedFormat = errors.New("unsupported snapshot format")

// Format is a document encoding.
type Format string

const (
	// FormatJSON is JSON.
	FormatJSON Format = "json"
	// FormatYAML is YAML.
	FormatYAML Format = "yaml"
	// FormatTOML is TOML.
	FormatTOML Format = "toml"
)

// Stdin is the path that selects standard input. Standard input is read as JSON.
const Stdin = "-"

// Input is a single three-way merge request.
type Input struct {
	// Strategy optionally overrides the configured strategy.
	Strategy string             `json:"strategy,omitempty" yaml:"strategy,omitempty" toml:"strategy,omitempty"`
	Local    *model.TaskVersion `json:"local,omitempty" yaml:"local,omitempty" toml:"local,omitempty"`
	Remote   *model.TaskVersion `json:"remote,omitempty" yaml:"remote,omitempty" toml:"remote,omitempty"`
	Base     *model.TaskVersion `json:"base,omitempty" yaml:"base,omitempty" toml:"base,omitempty"`
}

// Validate normalizes status aliases and checks the shape of every present
// version.
func (in *Input) Validate() error {
	for _, side := range []struct {
		name string
		v    *model.TaskVersion
	}{{"local", in.Local}, {"remote", in.Remote}, {"base", in.Base}} {
		if err := normalize(side.v); err != nil {
			return fmt.Errorf("%s: %w", side.name, err)
		}
	}
	return nil
}

func normalize(v *model.TaskVersion) error {
	if v == nil {
		return nil
	}
	status, err := model.ParseStatus(string(v.Status))
	if err != nil {
		return err
	}
	v.Status = status
	return v.Validate()
}

// Batch is a list of merge requests sharing one strategy.
type Batch struct {
	Strategy string      `json:"strategy,omitempty" yaml:"strategy,omitempty" toml:"strategy,omitempty"`
	Items    []sync.Item `json:"items" yaml:"items" toml:"items"`
}

// Validate checks every item and rejects duplicate ids, since two merges of
// the same task in one batch would race to produce the next base.
func (b *Batch) Validate() error {
	seen := make(map[string]int, len(b.Items))
	for i, item := range b.Items {
		in := Input{Local: item.Local, Remote: item.Remote, Base: item.Base}
		if err := in.Validate(); err != nil {
			return fmt.Errorf("item %d (%s): %w", i, item.ID, err)
		}
		if item.ID == "" {
			continue
		}
		if prev, dup := seen[item.ID]; dup {
			return fmt.Errorf("item %d: duplicate id %q (first seen at item %d)", i, item.ID, prev)
		}
		seen[item.ID] = i
	}
	return nil
}

// FormatFromPath picks a format from the file extension.
func FormatFromPath(path string) (Format, error) {
	if path == Stdin {
		return FormatJSON, nil
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("%w: %q (use .json, .yaml, .yml or .toml)", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// ParseFormat converts a format name to a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatYAML, FormatTOML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// Decode reads one document in the given format into v.
func Decode(r io.Reader, format Format, v any) error {
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		return dec.Decode(v)
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		return nil
	case FormatTOML:
		md, err := toml.NewDecoder(r).Decode(v)
		if err != nil {
			return err
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return fmt.Errorf("unknown keys: %v", undecoded)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// DecodeInput reads and validates a single merge request.
func DecodeInput(r io.Reader, format Format) (*Input, error) {
	var in Input
	if err := Decode(r, format, &in); err != nil {
		return nil, fmt.Errorf("failed to decode %s input: %w", format, err)
	}
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}
	return &in, nil
}

// DecodeBatch reads and validates a batch of merge requests.
func DecodeBatch(r io.Reader, format Format) (*Batch, error) {
	var b Batch
	if err := Decode(r, format, &b); err != nil {
		return nil, fmt.Errorf("failed to decode %s batch: %w", format, err)
	}
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("invalid batch: %w", err)
	}
	return &b, nil
}

// LoadInput reads a merge request from path, or standard input for "-".
func LoadInput(path string) (*Input, error) {
	var in *Input
	err := withFile(path, func(r io.Reader, f Format) error {
		var err error
		in, err = DecodeInput(r, f)
		return err
	})
	return in, err
}

// LoadBatch reads a batch from path, or standard input for "-".
func LoadBatch(path string) (*Batch, error) {
	var b *Batch
	err := withFile(path, func(r io.Reader, f Format) error {
		var err error
		b, err = DecodeBatch(r, f)
		return err
	})
	return b, err
}

func withFile(path string, fn func(io.Reader, Format) error) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}

	logging.Debug("loading snapshot", logging.Path(path), "format", string(format))

	if path == Stdin {
		return fn(os.Stdin, format)
	}

	// #nosec G304 - path is provided by the user on the command line
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer func() { _ = f.Close() }()

	return fn(f, format)
}

// LoadTask reads a single task version from path, or standard input for "-".
func LoadTask(path string) (*model.TaskVersion, error) {
	var v model.TaskVersion
	err := withFile(path, func(r io.Reader, f Format) error {
		if err := Decode(r, f, &v); err != nil {
			return fmt.Errorf("failed to decode %s task: %w", f, err)
		}
		return normalize(&v)
	})
	if err != nil {
		return nil, err
	}
	return &v, nil
}
