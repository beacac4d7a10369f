package evm

import (
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// TokenConstructorValues builds the ordered value list for the standard
// token constructor (name, symbol, decimals, totalSupply). The supply is
// scaled to raw integer units, matching the scaling applied at deploy time.
func TokenConstructorValues(cfg TokenConfig) []interface{} {
	return []interface{}{
		cfg.Name,
		cfg.Symbol,
		cfg.Decimals,
		ScaleSupply(cfg.TotalSupply, cfg.Decimals),
	}
}

// EncodeArguments ABI-encodes values against an ordered argument list and
// returns the encoding as hex without a 0x prefix.
func EncodeArguments(args abi.Arguments, values ...interface{}) (string, error) {
	if len(args) != len(values) {
		return "", fmt.Errorf("argument count mismatch: abi declares %d, got %d values", len(args), len(values))
	}
	packed, err := args.Pack(values...)
	if err != nil {
		return "", fmt.Errorf("pack constructor arguments: %w", err)
	}
	return hex.EncodeToString(packed), nil
}

// EncodeConstructorArgs encodes the token constructor arguments declared by
// the contract ABI. Encoding failures degrade to an empty string with a
// logged warning: some explorers accept verification without constructor
// args for simple cases, so a mismatch here should not abort the run.
func EncodeConstructorArgs(contractABI abi.ABI, cfg TokenConfig, logger *slog.Logger) string {
	if logger == nil {
		logger = slog.Default()
	}
	inputs := contractABI.Constructor.Inputs
	if len(inputs) == 0 {
		return ""
	}

	encoded, err := EncodeArguments(inputs, TokenConstructorValues(cfg)...)
	if err != nil {
		logger.Warn("constructor argument encoding failed, submitting without args", "err", err)
		return ""
	}
	return encoded
}
