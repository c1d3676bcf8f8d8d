// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Governance is the YAML template of a router's administration. Signers
// are unresolved signer entries (address, public key, paymail or dns:domain).
type Governance struct {
	Router    string   `yaml:"router"`
	Owner     string   `yaml:"owner"`
	Signers   []string `yaml:"signers"`
	Threshold int      `yaml:"threshold"`
}

// LoadGovernance reads a governance template from a YAML file.
func LoadGovernance(path string) (*Governance, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read governance %s: %w", path, err)
	}
	var g Governance
	if err := yaml.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("%w: governance: %w", ErrInvalidOffering, err)
	}
	return &g, nil
}
