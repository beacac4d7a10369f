package cli

import (
	"fmt"
	"io"
	"math/big"
	"os"
	"strconv"
	"syscall"

	"github.com/manifoldco/promptui"
	"golang.org/x/term"

	"github.com/libersoft-org/smart-contracts/internal/validation"
)

// out is where progress output goes; quiet mode discards it.
func out() io.Writer {
	if quiet {
		return io.Discard
	}
	return os.Stdout
}

func captureString(label string, validate func(string) error) (string, error) {
	prompt := promptui.Prompt{
		Label:    label,
		Validate: validate,
	}
	return prompt.Run()
}

func captureInt(label string, def int, validate func(int) error) (int, error) {
	prompt := promptui.Prompt{
		Label:   label,
		Default: strconv.Itoa(def),
		Validate: func(s string) error {
			v, err := strconv.Atoi(s)
			if err != nil {
				return fmt.Errorf("not a number: %s", s)
			}
			return validate(v)
		},
	}
	s, err := prompt.Run()
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(s)
}

func captureBigInt(label string, validate func(*big.Int) error) (*big.Int, error) {
	prompt := promptui.Prompt{
		Label: label,
		Validate: func(s string) error {
			v, ok := new(big.Int).SetString(s, 10)
			if !ok {
				return fmt.Errorf("not a decimal number: %s", s)
			}
			return validate(v)
		},
	}
	s, err := prompt.Run()
	if err != nil {
		return nil, err
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("not a decimal number: %s", s)
	}
	return v, nil
}

func captureYesNo(label string) (bool, error) {
	sel := promptui.Select{
		Label: label,
		Items: []string{"Yes", "No"},
	}
	_, choice, err := sel.Run()
	if err != nil {
		return false, err
	}
	return choice == "Yes", nil
}

// capturePassword reads a password without echo.
func capturePassword(label string) (string, error) {
	fmt.Printf("%s: ", label)
	data, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(data), nil
}

// capturePasswordConfirmed reads a password twice and requires a match.
func capturePasswordConfirmed(label string) (string, error) {
	first, err := capturePassword(label)
	if err != nil {
		return "", err
	}
	second, err := capturePassword(label + " (again)")
	if err != nil {
		return "", err
	}
	if first != second {
		return "", fmt.Errorf("passwords do not match")
	}
	return first, nil
}

// captureTokenName and friends pre-wire the validators.
func captureTokenName() (string, error) {
	return captureString("Token name", validation.ValidateTokenName)
}

func captureTokenSymbol() (string, error) {
	return captureString("Token symbol", validation.ValidateTokenSymbol)
}

func captureDecimals() (int, error) {
	return captureInt("Decimals", 18, validation.ValidateDecimals)
}

func captureTotalSupply() (*big.Int, error) {
	return captureBigInt("Total supply (whole tokens)", validation.ValidateTotalSupply)
}
