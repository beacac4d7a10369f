package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// StandardJSONInput is the Solidity compiler input format bundling every
// source file and setting needed to reproduce a compiled output. Explorers
// recompile from this payload, so the file set and settings must mirror the
// original compile exactly.
type StandardJSONInput struct {
	Language string                   `json:"language"`
	Sources  map[string]SourceContent `json:"sources"`
	Settings Settings                 `json:"settings"`
}

// SourceContent wraps a single source file's content.
type SourceContent struct {
	Content string `json:"content"`
}

// Settings holds the compiler settings section of the standard JSON input.
type Settings struct {
	Optimizer       OptimizerSettings              `json:"optimizer"`
	EVMVersion      string                         `json:"evmVersion,omitempty"`
	OutputSelection map[string]map[string][]string `json:"outputSelection"`
}

// OptimizerSettings mirrors the solc optimizer block.
type OptimizerSettings struct {
	Enabled bool `json:"enabled"`
	Runs    int  `json:"runs"`
}

// defaultOutputSelection requests the outputs explorers expect.
func defaultOutputSelection() map[string]map[string][]string {
	return map[string]map[string][]string{
		"*": {
			"*": {"abi", "evm.bytecode", "evm.deployedBytecode", "metadata"},
		},
	}
}

// BuildStandardJSON reconstructs the multi-file compilation unit for an
// artifact by reading every listed source from contractsDir. A missing
// source file is a hard error: verification cannot proceed without the
// exact original file set.
func BuildStandardJSON(a *Artifact, contractsDir string) (*StandardJSONInput, error) {
	if len(a.Sources) == 0 {
		return nil, fmt.Errorf("artifact %s lists no source files", a.ContractName)
	}

	sources := make(map[string]SourceContent, len(a.Sources))
	for _, logical := range a.Sources {
		content, err := os.ReadFile(filepath.Join(contractsDir, filepath.FromSlash(logical)))
		if err != nil {
			return nil, fmt.Errorf("reading source %s: %w", logical, err)
		}
		sources[logical] = SourceContent{Content: string(content)}
	}

	return &StandardJSONInput{
		Language: "Solidity",
		Sources:  sources,
		Settings: Settings{
			Optimizer: OptimizerSettings{
				Enabled: a.Compiler.Optimizer.Enabled,
				Runs:    a.Compiler.Optimizer.Runs,
			},
			EVMVersion:      a.Compiler.EVMVersion,
			OutputSelection: defaultOutputSelection(),
		},
	}, nil
}

// Encode serializes the input for submission.
func (s *StandardJSONInput) Encode() ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encoding standard JSON input: %w", err)
	}
	return data, nil
}
