// Package artifact loads compiled-contract descriptors and rebuilds the
// standard JSON input needed for explorer verification.
package artifact

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Artifact is the compiled-contract descriptor produced by the build step.
// Unlike the bytecode decoder, a missing or unreadable artifact is a hard
// error: nothing downstream can proceed without it.
type Artifact struct {
	ContractName     string          `json:"contractName"`
	SourcePath       string          `json:"sourcePath"`
	License          string          `json:"license,omitempty"`
	ABI              json.RawMessage `json:"abi"`
	Bytecode         string          `json:"bytecode"`
	DeployedBytecode string          `json:"deployedBytecode,omitempty"`
	Compiler         Compiler        `json:"compiler"`
	// Sources lists every logical source path of the original compilation
	// unit, primary contract first.
	Sources []string `json:"sources"`
}

// Compiler holds the compiler invocation details recorded at build time.
type Compiler struct {
	Version    string    `json:"version"` // "v0.8.20+commit.a1b2c3d4" or "0.8.20"
	Optimizer  Optimizer `json:"optimizer"`
	EVMVersion string    `json:"evmVersion,omitempty"`
}

// Optimizer holds the optimizer settings used for the original compile.
// These must be passed through verbatim: a mismatch against the deployed
// build is a common, expected cause of verification rejection and must be
// surfaced, not corrected.
type Optimizer struct {
	Enabled bool `json:"enabled"`
	Runs    int  `json:"runs"`
}

// Load reads an artifact descriptor from disk.
func Load(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading artifact: %w", err)
	}

	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("parsing artifact JSON: %w", err)
	}

	if a.ContractName == "" {
		return nil, fmt.Errorf("artifact %s has no contract name", path)
	}
	if a.Bytecode == "" || a.Bytecode == "0x" {
		return nil, fmt.Errorf("artifact %s has no bytecode (likely an interface)", path)
	}
	if len(a.Sources) == 0 && a.SourcePath != "" {
		a.Sources = []string{a.SourcePath}
	}
	return &a, nil
}

// ParsedABI parses the embedded contract ABI.
func (a *Artifact) ParsedABI() (abi.ABI, error) {
	parsed, err := abi.JSON(strings.NewReader(string(a.ABI)))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("parsing contract ABI: %w", err)
	}
	return parsed, nil
}

// FullyQualifiedName is the source-path:contract-name pair explorers use to
// pick a contract out of a multi-file compilation unit.
func (a *Artifact) FullyQualifiedName() string {
	return a.SourcePath + ":" + a.ContractName
}

// BytecodeBytes decodes the creation bytecode to raw bytes.
func (a *Artifact) BytecodeBytes() ([]byte, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(a.Bytecode, "0x"))
	if err != nil {
		return nil, fmt.Errorf("decoding artifact bytecode: %w", err)
	}
	return raw, nil
}
