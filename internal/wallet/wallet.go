// Package wallet manages deployer keys: BIP-39 mnemonic import, BIP-44
// derivation, and encrypted keystore files on disk.
package wallet

import (
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/tyler-smith/go-bip39"
)

// Account is a derived deployer key.
type Account struct {
	Address common.Address
	Index   int
	key     *ecdsa.PrivateKey
}

// PrivateKey returns the account's signing key.
func (a *Account) PrivateKey() *ecdsa.PrivateKey {
	return a.key
}

// NewMnemonic generates a fresh 12-word BIP-39 mnemonic.
func NewMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(128)
	if err != nil {
		return "", fmt.Errorf("generating entropy: %w", err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("building mnemonic: %w", err)
	}
	return mnemonic, nil
}

// FromMnemonic derives the account at m/44'/60'/0'/0/index from a BIP-39
// mnemonic. An empty passphrase matches what wallets like MetaMask produce.
func FromMnemonic(mnemonic, passphrase string, index int) (*Account, error) {
	mnemonic = strings.TrimSpace(mnemonic)
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, fmt.Errorf("invalid mnemonic: checksum or word list mismatch")
	}
	if index < 0 || index >= hdkeychain.HardenedKeyStart {
		return nil, fmt.Errorf("account index %d out of range", index)
	}

	seed := bip39.NewSeed(mnemonic, passphrase)
	masterKey, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, fmt.Errorf("creating master key: %w", err)
	}

	// BIP-44 path m/44'/60'/0'/0/index: purpose, Ethereum coin type,
	// account 0, external chain, address index.
	path := []uint32{
		hdkeychain.HardenedKeyStart + 44,
		hdkeychain.HardenedKeyStart + 60,
		hdkeychain.HardenedKeyStart + 0,
		0,
		uint32(index),
	}

	key := masterKey
	for _, step := range path {
		key, err = key.Derive(step)
		if err != nil {
			return nil, fmt.Errorf("deriving key path: %w", err)
		}
	}

	btcPriv, err := key.ECPrivKey()
	if err != nil {
		return nil, fmt.Errorf("extracting private key: %w", err)
	}
	priv, err := crypto.ToECDSA(btcPriv.Serialize())
	if err != nil {
		return nil, fmt.Errorf("converting private key: %w", err)
	}

	return &Account{
		Address: crypto.PubkeyToAddress(priv.PublicKey),
		Index:   index,
		key:     priv,
	}, nil
}

// FromPrivateKey imports a raw hex private key.
func FromPrivateKey(hexKey string) (*Account, error) {
	hexKey = strings.TrimPrefix(strings.TrimSpace(hexKey), "0x")
	priv, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("parsing private key: %w", err)
	}
	return &Account{
		Address: crypto.PubkeyToAddress(priv.PublicKey),
		key:     priv,
	}, nil
}

// Keystore persists accounts as web3 secret storage JSON files.
type Keystore struct {
	dir string
}

// NewKeystore opens (creating if needed) a keystore directory.
func NewKeystore(dir string) (*Keystore, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("creating keystore directory: %w", err)
	}
	return &Keystore{dir: dir}, nil
}

// Save encrypts the account under the given name.
func (k *Keystore) Save(account *Account, name, password string) error {
	key := &keystore.Key{
		Id:         uuid.New(),
		Address:    account.Address,
		PrivateKey: account.key,
	}
	encrypted, err := keystore.EncryptKey(key, password, keystore.StandardScryptN, keystore.StandardScryptP)
	if err != nil {
		return fmt.Errorf("encrypting key: %w", err)
	}
	return os.WriteFile(k.path(name), encrypted, 0600)
}

// Load decrypts the named account.
func (k *Keystore) Load(name, password string) (*Account, error) {
	data, err := os.ReadFile(k.path(name))
	if err != nil {
		return nil, fmt.Errorf("reading keystore file: %w", err)
	}
	key, err := keystore.DecryptKey(data, password)
	if err != nil {
		return nil, fmt.Errorf("decrypting key (wrong password?): %w", err)
	}
	return &Account{
		Address: key.Address,
		key:     key.PrivateKey,
	}, nil
}

// List returns the names of stored accounts with their addresses.
func (k *Keystore) List() (map[string]common.Address, error) {
	entries, err := os.ReadDir(k.dir)
	if err != nil {
		return nil, fmt.Errorf("reading keystore directory: %w", err)
	}

	accounts := make(map[string]common.Address)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ".json")
		addr, err := readAddress(filepath.Join(k.dir, entry.Name()))
		if err != nil {
			continue
		}
		accounts[name] = addr
	}
	return accounts, nil
}

// Delete removes the named account file.
func (k *Keystore) Delete(name string) error {
	if err := os.Remove(k.path(name)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("no stored account named %q", name)
		}
		return err
	}
	return nil
}

func (k *Keystore) path(name string) string {
	return filepath.Join(k.dir, name+".json")
}

// readAddress pulls the address field out of a keystore file without
// decrypting it.
func readAddress(path string) (common.Address, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return common.Address{}, err
	}
	var partial struct {
		Address string `json:"address"`
	}
	if err := json.Unmarshal(data, &partial); err != nil {
		return common.Address{}, err
	}
	if partial.Address == "" {
		return common.Address{}, fmt.Errorf("no address field in %s", path)
	}
	return common.HexToAddress(partial.Address), nil
}
