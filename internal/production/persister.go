package production

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Persister saves and loads snapshots by machine ID.
type Persister interface {
	Save(ctx context.Context, snapshot MachineSnapshot) error
	Load(ctx context.Context, machineID string) (MachineSnapshot, error)
}

// Codec is a snapshot file encoding.
type Codec struct {
	Name      string
	Ext       string
	Marshal   func(v any) ([]byte, error)
	Unmarshal func(data []byte, v any) error
}

var (
	JSON = Codec{
		Name: "json",
		Ext:  ".json",
		Marshal: func(v any) ([]byte, error) {
			return json.MarshalIndent(v, "", "  ")
		},
		Unmarshal: json.Unmarshal,
	}
	YAML = Codec{
		Name:      "yaml",
		Ext:       ".yaml",
		Marshal:   yaml.Marshal,
		Unmarshal: yaml.Unmarshal,
	}
)

// NewPersister returns a file persister for dir in the named format.
func NewPersister(format, dir string) (*FilePersister, error) {
	switch format {
	case "", "json":
		return NewFilePersister(dir, JSON)
	case "yaml", "yml":
		return NewFilePersister(dir, YAML)
	default:
		return nil, fmt.Errorf("unknown snapshot format %q", format)
	}
}

// FilePersister keeps one file per machine in dir.
type FilePersister struct {
	dir   string
	codec Codec
}

// NewFilePersister creates the directory if needed.
func NewFilePersister(dir string, codec Codec) (*FilePersister, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return &FilePersister{dir: dir, codec: codec}, nil
}

// Path returns the file a machine's snapshot is stored in.
func (p *FilePersister) Path(machineID string) string {
	return filepath.Join(p.dir, machineID+p.codec.Ext)
}

func (p *FilePersister) Save(ctx context.Context, snapshot MachineSnapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := p.codec.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("%s marshal: %w", p.codec.Name, err)
	}
	fn := p.Path(snapshot.MachineID)
	if err := os.WriteFile(fn, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", fn, err)
	}
	return nil
}

// Load reads a snapshot. A missing file yields an error matching
// os.ErrNotExist.
func (p *FilePersister) Load(ctx context.Context, machineID string) (MachineSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return MachineSnapshot{}, err
	}
	fn := p.Path(machineID)
	data, err := os.ReadFile(fn)
	if errors.Is(err, os.ErrNotExist) {
		return MachineSnapshot{}, fmt.Errorf("machine %q: %w", machineID, os.ErrNotExist)
	}
	if err != nil {
		return MachineSnapshot{}, fmt.Errorf("read %s: %w", fn, err)
	}

	var snapshot MachineSnapshot
	if err := p.codec.Unmarshal(data, &snapshot); err != nil {
		return MachineSnapshot{}, fmt.Errorf("%s unmarshal: %w", p.codec.Name, err)
	}
	snapshot.MachineID = machineID
	return snapshot, nil
}
