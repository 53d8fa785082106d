package ast

import (
	"encoding/hex"
	"strings"
)

type Identifier string

func (i Identifier) String() string {
	return string(i)
}

// QualifiedIdentifier is a dotted reference as written in source,
// e.g. `Coin.mint` or `0x1.Hash`.
type QualifiedIdentifier string

func (q QualifiedIdentifier) Module() Identifier {
	if i := strings.LastIndex(string(q), "."); i >= 0 {
		return Identifier(q[:i])
	}
	return ""
}

func (q QualifiedIdentifier) Name() Identifier {
	if i := strings.LastIndex(string(q), "."); i >= 0 {
		return Identifier(q[i+1:])
	}
	return Identifier(q)
}

const AddressLength = 16

// Address is an account address, the disambiguating prefix of every
// external module reference.
type Address [AddressLength]byte

func (a Address) String() string {
	s := strings.TrimLeft(hex.EncodeToString(a[:]), "0")
	if s == "" {
		s = "0"
	}
	return "0x" + s
}

func (a Address) IsZero() bool {
	return a == Address{}
}

func AddressFromHex(s string) (Address, bool) {
	s = strings.TrimPrefix(s, "0x")
	if len(s)%2 == 1 {
		s = "0" + s
	}
	raw, err := hex.DecodeString(s)
	if err != nil || len(raw) > AddressLength {
		return Address{}, false
	}
	var a Address
	copy(a[AddressLength-len(raw):], raw)
	return a, true
}
