package ethereum

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Wallet signs transactions with a private key held in memory
type Wallet struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

// NewWallet wraps an existing key
func NewWallet(key *ecdsa.PrivateKey) *Wallet {
	return &Wallet{key: key, address: crypto.PubkeyToAddress(key.PublicKey)}
}

// NewWalletFromHex parses a hex private key, with or without 0x prefix
func NewWalletFromHex(hexKey string) (*Wallet, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return NewWallet(key), nil
}

// Address returns the wallet's account address
func (w *Wallet) Address() common.Address {
	return w.address
}

// Transactor returns signing options bound to ctx for the given chain
func (w *Wallet) Transactor(ctx context.Context, chainID *big.Int) (*bind.TransactOpts, error) {
	opts, err := bind.NewKeyedTransactorWithChainID(w.key, chainID)
	if err != nil {
		return nil, err
	}
	opts.Context = ctx
	return opts, nil
}

// Keystore indexes wallets by address
type Keystore struct {
	wallets map[common.Address]*Wallet
}

// NewKeystore loads wallets from hex private keys
func NewKeystore(hexKeys []string) (*Keystore, error) {
	ks := &Keystore{wallets: make(map[common.Address]*Wallet, len(hexKeys))}
	for i, hexKey := range hexKeys {
		if strings.TrimSpace(hexKey) == "" {
			continue
		}
		w, err := NewWalletFromHex(hexKey)
		if err != nil {
			return nil, fmt.Errorf("key %d: %w", i, err)
		}
		ks.wallets[w.Address()] = w
	}
	return ks, nil
}

// Get returns the wallet for address
func (ks *Keystore) Get(address common.Address) (*Wallet, bool) {
	w, ok := ks.wallets[address]
	return w, ok
}

// Len returns the number of loaded wallets
func (ks *Keystore) Len() int {
	return len(ks.wallets)
}
