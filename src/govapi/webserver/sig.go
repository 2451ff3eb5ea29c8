package webserver

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	schnorrkel "github.com/ChainSafe/go-schnorrkel"
	"github.com/golang-jwt/jwt/v5"
	"github.com/mr-tron/base58"
	"golang.org/x/crypto/blake2b"
)

var ss58Prefix = []byte("SS58PRE")

// decodeSS58 converts an SS58-formatted address to the raw 32-byte public
// key, verifying the blake2b checksum. Hex addresses (0x...) pass through.
func decodeSS58(addr string) ([]byte, error) {
	if strings.HasPrefix(addr, "0x") {
		return hex.DecodeString(addr[2:])
	}

	raw, err := base58.Decode(addr)
	if err != nil || len(raw) < 35 {
		return nil, fmt.Errorf("invalid ss58 address")
	}

	body := raw[:len(raw)-2]
	checksum := raw[len(raw)-2:]
	hasher, err := blake2b.New512(nil)
	if err != nil {
		return nil, err
	}
	hasher.Write(ss58Prefix)
	hasher.Write(body)
	if !bytes.Equal(hasher.Sum(nil)[:2], checksum) {
		return nil, fmt.Errorf("ss58 checksum mismatch")
	}

	return raw[1:33], nil // drop 1-byte network prefix
}

func strip0x(s string) string {
	if len(s) > 1 && s[:2] == "0x" {
		return s[2:]
	}
	return s
}

func verifySignature(addr, sigHex, nonce string) error {
	pubKeyBytes, err := decodeSS58(addr)
	if err != nil {
		return err
	}
	if len(pubKeyBytes) != 32 {
		return fmt.Errorf("invalid public key length: %d", len(pubKeyBytes))
	}

	sigBytes, err := hex.DecodeString(strip0x(sigHex))
	if err != nil {
		return err
	}
	if len(sigBytes) != 64 {
		return fmt.Errorf("invalid signature length: %d", len(sigBytes))
	}

	var pkRaw [32]byte
	copy(pkRaw[:], pubKeyBytes)
	var sigRaw [64]byte
	copy(sigRaw[:], sigBytes)

	var pk schnorrkel.PublicKey
	if err = pk.Decode(pkRaw); err != nil {
		return err
	}

	var sig schnorrkel.Signature
	if err = sig.Decode(sigRaw); err != nil {
		return err
	}

	ctx := schnorrkel.NewSigningContext([]byte("substrate"), []byte(nonce))
	valid, err := pk.Verify(&sig, ctx)
	if err != nil {
		return err
	}
	if !valid {
		return fmt.Errorf("signature verification failed")
	}
	return nil
}

func issueJWT(addr string, admin bool, secret []byte) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"addr":  addr,
		"admin": admin,
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	return token.SignedString(secret)
}
