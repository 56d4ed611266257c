package primitives

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
)

// ComputeVersion returns the user-provided Version, else the first 8 bytes
// of SHA256 over the definition's JSON. Equal tables hash equally.
func ComputeVersion(config *MachineConfig) string {
	if config.Version != "" {
		return config.Version
	}

	c := *config
	c.Version = ""
	data, err := json.Marshal(c)
	if err != nil {
		return "invalid"
	}

	hash := sha256.Sum256(data)
	return fmt.Sprintf("%x", hash[:8])
}
