package generator

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/mr-tron/base58"
	"github.com/tyler-smith/go-bip39"

	"github.com/AvaProtocol/ap-airdrop/model"
)

const (
	SecretLength = 32
	PhraseWords  = 12
)

// AddressDeriver turns a secret into the display address of a chain variant. The
// transforms are one way placeholders, they only reproduce the shape of a real
// address.
type AddressDeriver interface {
	Derive(secret []byte) string
}

type AddressDeriverFunc func(secret []byte) string

func (f AddressDeriverFunc) Derive(secret []byte) string {
	return f(secret)
}

// evmAddress keeps the last 20 bytes of a keccak digest: 0x followed by 40 hex
// characters in EIP-55 casing
func evmAddress(secret []byte) string {
	digest := crypto.Keccak256(secret)
	return common.BytesToAddress(digest[len(digest)-common.AddressLength:]).Hex()
}

// solanaAddress base-58 encodes a 32 byte digest
func solanaAddress(secret []byte) string {
	digest := sha256.Sum256(append([]byte("solana:"), secret...))
	return base58.Encode(digest[:])
}

// DefaultDerivers is the strategy table for every supported chain variant
func DefaultDerivers() map[model.ChainVariant]AddressDeriver {
	return map[model.ChainVariant]AddressDeriver{
		model.ChainEVM:    AddressDeriverFunc(evmAddress),
		model.ChainSolana: AddressDeriverFunc(solanaAddress),
	}
}

// newSecret draws SecretLength random bytes
func newSecret(entropy io.Reader) ([]byte, error) {
	secret := make([]byte, SecretLength)
	if _, err := io.ReadFull(entropy, secret); err != nil {
		return nil, fmt.Errorf("cannot draw secret: %w", err)
	}
	return secret, nil
}

// newPhrase draws PhraseWords words independently and uniformly from the BIP-39
// English list. The list has 2048 entries, so a 16 bit draw reduced modulo 2048
// stays uniform. The result is not a checksummed mnemonic.
func newPhrase(entropy io.Reader, words []string) (string, error) {
	buf := make([]byte, 2*PhraseWords)
	if _, err := io.ReadFull(entropy, buf); err != nil {
		return "", fmt.Errorf("cannot draw recovery phrase: %w", err)
	}

	phrase := make([]string, PhraseWords)
	for i := range phrase {
		n := binary.BigEndian.Uint16(buf[2*i:])
		phrase[i] = words[int(n)%len(words)]
	}

	return strings.Join(phrase, " "), nil
}

func wordList() []string {
	return bip39.GetWordList()
}
