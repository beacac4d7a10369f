package evm

import (
	"encoding/binary"
	"encoding/hex"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildBytecode appends a well-formed CBOR trailer to the given executable
// hex string.
func buildBytecode(t *testing.T, executable string, trailer map[string][]byte) string {
	t.Helper()
	payload, err := cbor.Marshal(trailer)
	require.NoError(t, err)

	length := make([]byte, 2)
	binary.BigEndian.PutUint16(length, uint16(len(payload)))
	return executable + hex.EncodeToString(payload) + hex.EncodeToString(length)
}

func TestDecodeMetadata_SolcVersion(t *testing.T) {
	bytecode := buildBytecode(t, "6080604052", map[string][]byte{"solc": {0, 8, 20}})

	md := DecodeMetadata(bytecode, nil)
	assert.True(t, md.Present)
	assert.Equal(t, "0.8.20", md.CompilerVersion)
	assert.Empty(t, md.IPFSHash)
}

func TestDecodeMetadata_IPFSHash(t *testing.T) {
	ipfs := []byte{0x12, 0x20, 0xaa, 0xbb}
	bytecode := buildBytecode(t, "6080604052", map[string][]byte{
		"solc": {0, 8, 28},
		"ipfs": ipfs,
	})

	md := DecodeMetadata("0x"+bytecode, nil)
	assert.True(t, md.Present)
	assert.Equal(t, "0.8.28", md.CompilerVersion)
	assert.Equal(t, ipfs, md.IPFSHash)
}

func TestDecodeMetadata_ShortInputs(t *testing.T) {
	for _, bytecode := range []string{"", "0x", "ff", "0xff", "abc"} {
		md := DecodeMetadata(bytecode, nil)
		assert.False(t, md.Present, "bytecode %q", bytecode)
	}
}

func TestDecodeMetadata_LengthExceedsBytecode(t *testing.T) {
	// Length field claims 0xffff payload bytes on a tiny input.
	md := DecodeMetadata("6080ffff", nil)
	assert.False(t, md.Present)
}

func TestDecodeMetadata_MalformedCBOR(t *testing.T) {
	// Length field says 3 payload bytes, but the payload is CBOR garbage.
	md := DecodeMetadata("6080604052" + "ffffff" + "0003", nil)
	assert.False(t, md.Present)
}

func TestDecodeMetadata_SolcWrongLength(t *testing.T) {
	bytecode := buildBytecode(t, "6080604052", map[string][]byte{"solc": {0, 8}})

	md := DecodeMetadata(bytecode, nil)
	assert.True(t, md.Present)
	assert.Empty(t, md.CompilerVersion)
}

func TestExecutableSection(t *testing.T) {
	executable := "6080604052"
	bytecode := buildBytecode(t, executable, map[string][]byte{"solc": {0, 8, 20}})

	md := DecodeMetadata(bytecode, nil)
	require.True(t, md.Present)
	assert.Equal(t, executable, ExecutableSection(bytecode, md))

	// Without metadata the input passes through unchanged.
	assert.Equal(t, "6080", ExecutableSection("0x6080", Metadata{}))
}
