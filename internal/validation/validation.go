// Package validation provides input validation for deployment parameters.
package validation

import (
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"golang.org/x/mod/semver"
)

// Token symbols: uppercase alphanumeric, 1-11 chars, starting with a letter.
// 11 is the longest symbol major explorers render without truncation.
var symbolRegex = regexp.MustCompile(`^[A-Z][A-Z0-9]{0,10}$`)

// ValidateTokenName validates an ERC-20 token name.
func ValidateTokenName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return errors.New("token name cannot be empty")
	}
	if len(name) > 64 {
		return errors.New("token name too long (max 64 chars)")
	}
	if trimmed != name {
		return errors.New("token name has leading or trailing whitespace")
	}
	return nil
}

// ValidateTokenSymbol validates an ERC-20 ticker symbol.
func ValidateTokenSymbol(symbol string) error {
	if symbol == "" {
		return errors.New("token symbol cannot be empty")
	}
	if !symbolRegex.MatchString(symbol) {
		return errors.New("invalid symbol: must be 1-11 uppercase alphanumeric characters, starting with a letter")
	}
	return nil
}

// ValidateDecimals validates the token decimals value.
func ValidateDecimals(decimals int) error {
	if decimals < 0 || decimals > 18 {
		return errors.New("decimals must be between 0 and 18")
	}
	return nil
}

// ValidateTotalSupply validates the human-unit total supply.
func ValidateTotalSupply(supply *big.Int) error {
	if supply == nil || supply.Sign() <= 0 {
		return errors.New("total supply must be positive")
	}
	// Scaled by up to 10^18 it must still fit in uint256.
	if supply.BitLen() > 192 {
		return errors.New("total supply too large")
	}
	return nil
}

// ValidateCompilerVersion validates a solc version in short or long form
// ("0.8.20", "v0.8.20+commit.a1b2c3d4").
func ValidateCompilerVersion(v string) error {
	normalized := strings.TrimPrefix(v, "v")
	if normalized == "" {
		return errors.New("compiler version cannot be empty")
	}
	if i := strings.Index(normalized, "+"); i >= 0 {
		normalized = normalized[:i]
	}
	if !semver.IsValid("v" + normalized) {
		return errors.New("invalid compiler version: must be in format X.Y.Z")
	}
	if strings.Count(strings.SplitN(normalized, "-", 2)[0], ".") < 2 {
		return errors.New("invalid compiler version: must be in format X.Y.Z (major.minor.patch)")
	}
	return nil
}

// CompareCompilerVersions compares two solc versions.
// Returns -1 if v1 < v2, 0 if v1 == v2, 1 if v1 > v2.
func CompareCompilerVersions(v1, v2 string) int {
	n1 := "v" + strings.TrimPrefix(v1, "v")
	n2 := "v" + strings.TrimPrefix(v2, "v")
	return semver.Compare(n1, n2)
}

// ValidateAddress validates an Ethereum address.
func ValidateAddress(addr string) error {
	if len(addr) != 42 {
		return errors.New("invalid address length: must be 42 characters (0x + 40 hex)")
	}
	if !strings.HasPrefix(addr, "0x") {
		return errors.New("invalid address: must start with 0x")
	}
	for _, c := range addr[2:] {
		isDigit := c >= '0' && c <= '9'
		isLowerHex := c >= 'a' && c <= 'f'
		isUpperHex := c >= 'A' && c <= 'F'
		if !isDigit && !isLowerHex && !isUpperHex {
			return errors.New("invalid address: contains non-hex characters")
		}
	}
	return nil
}

// ValidateChainID validates a chain ID.
func ValidateChainID(chainID int) error {
	if chainID <= 0 {
		return errors.New("chain ID must be positive")
	}
	return nil
}

// ValidateDerivationIndex validates an HD wallet account index.
func ValidateDerivationIndex(index int) error {
	if index < 0 {
		return errors.New("account index must not be negative")
	}
	if index > 0x7fffffff {
		return fmt.Errorf("account index %d exceeds the non-hardened derivation range", index)
	}
	return nil
}
