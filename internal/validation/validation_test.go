package validation

import (
	"math/big"
	"testing"
)

func TestValidateTokenName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "My Token", false},
		{"valid single char", "X", false},
		{"valid with punctuation", "Wrapped Ether (PoS)", false},
		{"empty", "", true},
		{"whitespace only", "   ", true},
		{"leading space", " Token", true},
		{"trailing space", "Token ", true},
		{"too long", string(make([]byte, 65)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTokenName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateTokenName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateTokenSymbol(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid short", "MYT", false},
		{"valid single letter", "X", false},
		{"valid with digits", "C98", false},
		{"valid max length", "ABCDEFGHIJK", false},
		{"too long", "ABCDEFGHIJKL", true},
		{"lowercase", "myt", true},
		{"starts with digit", "1INCH", true},
		{"contains space", "MY T", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTokenSymbol(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateTokenSymbol(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateDecimals(t *testing.T) {
	tests := []struct {
		name    string
		input   int
		wantErr bool
	}{
		{"standard", 18, false},
		{"usdc style", 6, false},
		{"zero", 0, false},
		{"negative", -1, true},
		{"too large", 19, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDecimals(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateDecimals(%d) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateTotalSupply(t *testing.T) {
	huge := new(big.Int).Lsh(big.NewInt(1), 200)

	tests := []struct {
		name    string
		input   *big.Int
		wantErr bool
	}{
		{"valid", big.NewInt(1000000000), false},
		{"one", big.NewInt(1), false},
		{"zero", big.NewInt(0), true},
		{"negative", big.NewInt(-1), true},
		{"nil", nil, true},
		{"overflows when scaled", huge, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTotalSupply(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateTotalSupply(%v) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateCompilerVersion(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"short form", "0.8.20", false},
		{"with v prefix", "v0.8.20", false},
		{"long form", "v0.8.20+commit.a1b2c3d4", false},
		{"prerelease", "0.8.20-nightly.2023.5.1", false},
		{"no patch", "0.8", true},
		{"major only", "8", true},
		{"garbage", "latest", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCompilerVersion(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateCompilerVersion(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestCompareCompilerVersions(t *testing.T) {
	if CompareCompilerVersions("0.8.19", "0.8.20") != -1 {
		t.Error("expected 0.8.19 < 0.8.20")
	}
	if CompareCompilerVersions("v0.8.20", "0.8.20") != 0 {
		t.Error("expected v0.8.20 == 0.8.20")
	}
	if CompareCompilerVersions("0.8.21", "0.8.20") != 1 {
		t.Error("expected 0.8.21 > 0.8.20")
	}
}

func TestValidateAddress(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid lowercase", "0x742d35cc6634c0532925a3b844bc9e7595f0beb0", false},
		{"valid checksummed", "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266", false},
		{"no prefix", "742d35cc6634c0532925a3b844bc9e7595f0beb000", true},
		{"too short", "0x742d35cc", true},
		{"non-hex chars", "0x742d35cc6634c0532925a3b844bc9e7595f0bezz", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAddress(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAddress(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateChainID(t *testing.T) {
	if err := ValidateChainID(11155111); err != nil {
		t.Errorf("ValidateChainID(11155111) = %v", err)
	}
	if err := ValidateChainID(0); err == nil {
		t.Error("ValidateChainID(0) expected error")
	}
	if err := ValidateChainID(-1); err == nil {
		t.Error("ValidateChainID(-1) expected error")
	}
}

func TestValidateDerivationIndex(t *testing.T) {
	if err := ValidateDerivationIndex(0); err != nil {
		t.Errorf("ValidateDerivationIndex(0) = %v", err)
	}
	if err := ValidateDerivationIndex(0x7fffffff); err != nil {
		t.Errorf("ValidateDerivationIndex(max) = %v", err)
	}
	if err := ValidateDerivationIndex(-1); err == nil {
		t.Error("ValidateDerivationIndex(-1) expected error")
	}
	if err := ValidateDerivationIndex(0x80000000); err == nil {
		t.Error("ValidateDerivationIndex(2^31) expected error")
	}
}
