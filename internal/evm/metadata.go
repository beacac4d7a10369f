// Package evm provides EVM bytecode inspection: compiler metadata trailer
// decoding, static bytecode analysis, token read checks, and constructor
// argument encoding.
package evm

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fxamacker/cbor/v2"
)

// Metadata is the decoded compiler metadata trailer appended to deployed
// bytecode by solc. A zero value with Present=false means the bytecode
// carries no recognizable trailer; that is an expected condition, not an
// error.
type Metadata struct {
	// Present reports whether a well-formed trailer was found.
	Present bool
	// CompilerVersion is the dotted solc version ("0.8.20"), empty when the
	// trailer lacks a 3-byte solc entry.
	CompilerVersion string
	// IPFSHash is the raw IPFS content hash from the trailer, if any.
	IPFSHash []byte
	// TrailerBytes is the total trailer size including the 2-byte length
	// field. Zero when Present is false.
	TrailerBytes int
}

// cborTrailer mirrors the solc metadata mapping. Only the keys the tool
// cares about are decoded; unknown keys are ignored.
type cborTrailer struct {
	Solc []byte `cbor:"solc"`
	IPFS []byte `cbor:"ipfs"`
}

// NormalizeBytecode strips an optional 0x prefix and lowercases the hex
// string so that all offset arithmetic operates on a consistent form.
func NormalizeBytecode(bytecode string) string {
	return strings.ToLower(strings.TrimPrefix(bytecode, "0x"))
}

// DecodeMetadata extracts the CBOR metadata trailer from hex bytecode.
// The trailer layout is: <CBOR map> <2-byte big-endian payload length>.
// Malformed or truncated trailers yield Present=false; this function never
// fails.
func DecodeMetadata(bytecode string, logger *slog.Logger) Metadata {
	if logger == nil {
		logger = slog.Default()
	}

	code := NormalizeBytecode(bytecode)
	if len(code) < 4 {
		return Metadata{}
	}

	lengthField, err := hex.DecodeString(code[len(code)-4:])
	if err != nil || len(lengthField) != 2 {
		return Metadata{}
	}
	payloadLen := int(binary.BigEndian.Uint16(lengthField))
	trailerBytes := payloadLen + 2

	totalBytes := len(code) / 2
	if trailerBytes > totalBytes {
		// Length field points past the start of the bytecode: no metadata.
		return Metadata{}
	}

	payloadHex := code[len(code)-trailerBytes*2 : len(code)-4]
	payload, err := hex.DecodeString(payloadHex)
	if err != nil {
		logger.Debug("metadata trailer is not valid hex", "err", err)
		return Metadata{}
	}

	var trailer cborTrailer
	if err := cbor.Unmarshal(payload, &trailer); err != nil {
		logger.Debug("metadata trailer failed CBOR decode", "err", err)
		return Metadata{}
	}

	md := Metadata{
		Present:      true,
		IPFSHash:     trailer.IPFS,
		TrailerBytes: trailerBytes,
	}
	if len(trailer.Solc) == 3 {
		md.CompilerVersion = fmt.Sprintf("%d.%d.%d", trailer.Solc[0], trailer.Solc[1], trailer.Solc[2])
	}
	return md
}

// ExecutableSection returns the hex bytecode with the metadata trailer
// removed. When no trailer was decoded the input is returned unchanged
// (after prefix normalization).
func ExecutableSection(bytecode string, md Metadata) string {
	code := NormalizeBytecode(bytecode)
	if !md.Present || md.TrailerBytes*2 > len(code) {
		return code
	}
	return code[:len(code)-md.TrailerBytes*2]
}
