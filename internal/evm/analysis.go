package evm

import (
	"fmt"
	"log/slog"
)

// MaxDeployedHexLength is the EIP-170 deployed-code ceiling (24576 bytes)
// expressed in hex characters.
const MaxDeployedHexLength = 49152

// selfDestructOpcode is the SELFDESTRUCT opcode byte as hex text.
const selfDestructOpcode = "ff"

// Report is the static analysis result for a deployed bytecode string.
type Report struct {
	HasMetadata     bool     `json:"hasMetadata"`
	CompilerVersion string   `json:"compilerVersion,omitempty"`
	HasIPFSHash     bool     `json:"hasIpfsHash"`
	HasSelfDestruct bool     `json:"hasSelfDestruct"`
	ByteLength      int      `json:"byteLength"`
	Warnings        []string `json:"warnings,omitempty"`
}

// Analyze runs the pure static checks over a hex bytecode string. It never
// fails: malformed inputs simply produce a report with no metadata.
func Analyze(bytecode string, logger *slog.Logger) Report {
	code := NormalizeBytecode(bytecode)
	md := DecodeMetadata(code, logger)

	report := Report{
		HasMetadata:     md.Present,
		CompilerVersion: md.CompilerVersion,
		HasIPFSHash:     len(md.IPFSHash) > 0,
		ByteLength:      len(code) / 2,
	}

	if !md.Present {
		report.Warnings = append(report.Warnings, "no compiler metadata found in bytecode")
	} else if md.CompilerVersion == "" {
		report.Warnings = append(report.Warnings, "metadata present but compiler version unknown")
	}

	if scanForSelfDestruct(ExecutableSection(code, md)) {
		report.HasSelfDestruct = true
		report.Warnings = append(report.Warnings,
			"bytecode may contain SELFDESTRUCT (textual scan, not disassembly; false positives are likely)")
	}

	if len(code) > MaxDeployedHexLength {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("bytecode is close to or exceeds the 24576-byte deployment limit (%d bytes)", len(code)/2))
	}

	return report
}

// scanForSelfDestruct looks for the SELFDESTRUCT opcode at even hex
// offsets. This is a known-weak heuristic: PUSH immediates are not skipped,
// so 0xff bytes inside constants also match. True detection would need
// opcode-level disassembly.
func scanForSelfDestruct(executable string) bool {
	for i := 0; i+2 <= len(executable); i += 2 {
		if executable[i:i+2] == selfDestructOpcode {
			return true
		}
	}
	return false
}
