// Copyright 2026 Intel Corporation. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package uid implements the opaque token all PEs of a job share to find
// each other during initialization.
//
// The token is a fixed-size byte array. It carries a session identifier and
// the address of the rendezvous service hosted by the originating PE, and is
// protected by a checksum so that a truncated or corrupted copy is detected
// instead of silently joining the wrong job.
package uid

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"hash/crc32"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	// Size is the size of an ID in bytes.
	Size = 512
	// MaxAddressLen is the longest rendezvous address an ID can carry.
	MaxAddressLen = 256

	magic   = "SHMU"
	version = uint32(1<<16) + Size

	offMagic   = 0
	offVersion = 4
	offSession = 8
	offAddrLen = offSession + 16
	offAddr    = offAddrLen + 2
	offCRC     = Size - 4
)

var (
	// ErrInvalid is returned for tokens that fail validation.
	ErrInvalid = errors.New("invalid unique id")
)

// ID is the opaque unique id token.
type ID [Size]byte

// New creates an ID for a new session reachable at the given address.
func New(address string) (ID, error) {
	var id ID

	if address == "" || len(address) > MaxAddressLen {
		return id, errors.Wrapf(ErrInvalid, "bad rendezvous address %q", address)
	}

	session, err := uuid.NewRandom()
	if err != nil {
		return id, errors.Wrap(err, "failed to generate session id")
	}

	copy(id[offMagic:], magic)
	binary.LittleEndian.PutUint32(id[offVersion:], version)
	copy(id[offSession:offAddrLen], session[:])
	binary.LittleEndian.PutUint16(id[offAddrLen:], uint16(len(address)))
	copy(id[offAddr:], address)
	binary.LittleEndian.PutUint32(id[offCRC:], id.checksum())

	return id, nil
}

// FromBytes creates an ID from a byte slice, which must be exactly Size long.
func FromBytes(b []byte) (ID, error) {
	var id ID
	if len(b) != Size {
		return id, errors.Wrapf(ErrInvalid, "got %d bytes instead of %d", len(b), Size)
	}
	copy(id[:], b)
	return id, id.Validate()
}

// Parse parses an ID from its hex string representation.
func Parse(s string) (ID, error) {
	b, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return ID{}, errors.Wrapf(ErrInvalid, "failed to decode: %v", err)
	}
	return FromBytes(b)
}

// Validate checks the magic, version, checksum, and address of the ID.
func (id ID) Validate() error {
	if string(id[offMagic:offMagic+len(magic)]) != magic {
		return errors.Wrap(ErrInvalid, "bad magic")
	}
	if v := binary.LittleEndian.Uint32(id[offVersion:]); v != version {
		return errors.Wrapf(ErrInvalid, "unsupported version 0x%x", v)
	}
	if sum := binary.LittleEndian.Uint32(id[offCRC:]); sum != id.checksum() {
		return errors.Wrap(ErrInvalid, "checksum mismatch")
	}
	if n := id.addressLen(); n == 0 || n > MaxAddressLen {
		return errors.Wrapf(ErrInvalid, "bad address length %d", n)
	}
	return nil
}

// Session returns the session identifier of the ID.
func (id ID) Session() uuid.UUID {
	var u uuid.UUID
	copy(u[:], id[offSession:offAddrLen])
	return u
}

// Address returns the rendezvous address carried by the ID.
func (id ID) Address() string {
	n := id.addressLen()
	if n > MaxAddressLen {
		return ""
	}
	return string(id[offAddr : offAddr+n])
}

// Bytes returns a copy of the raw token.
func (id ID) Bytes() []byte {
	b := make([]byte, Size)
	copy(b, id[:])
	return b
}

// String returns the hex representation of the ID.
func (id ID) String() string {
	return hex.EncodeToString(id[:])
}

// Short returns an abbreviated form of the ID for logging.
func (id ID) Short() string {
	return fmt.Sprintf("%s@%s", id.Session().String()[:8], id.Address())
}

// MarshalText implements encoding.TextMarshaler.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ID) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id ID) addressLen() int {
	return int(binary.LittleEndian.Uint16(id[offAddrLen:]))
}

func (id ID) checksum() uint32 {
	return crc32.ChecksumIEEE(id[:offCRC])
}
