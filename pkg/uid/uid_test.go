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

package uid

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	id, err := New("127.0.0.1:4321")
	require.NoError(t, err)
	require.NoError(t, id.Validate())
	require.Equal(t, "127.0.0.1:4321", id.Address())
	require.Len(t, id.Bytes(), Size)

	other, err := New("127.0.0.1:4321")
	require.NoError(t, err)
	require.NotEqual(t, id.Session(), other.Session(), "sessions must differ")
}

func TestInvalidAddress(t *testing.T) {
	for _, addr := range []string{"", string(make([]byte, MaxAddressLen+1))} {
		_, err := New(addr)
		require.True(t, errors.Is(err, ErrInvalid), "address of length %d", len(addr))
	}
}

func TestValidate(t *testing.T) {
	id, err := New("localhost:1")
	require.NoError(t, err)

	type testCase struct {
		name   string
		mangle func(*ID)
	}

	for _, tc := range []testCase{
		{name: "zero token", mangle: func(id *ID) { *id = ID{} }},
		{name: "bad magic", mangle: func(id *ID) { id[0] = 'X' }},
		{name: "bad version", mangle: func(id *ID) { id[offVersion]++ }},
		{name: "corrupt address", mangle: func(id *ID) { id[offAddr]++ }},
		{name: "corrupt padding", mangle: func(id *ID) { id[offCRC-1] = 0xff }},
		{name: "corrupt checksum", mangle: func(id *ID) { id[offCRC] ^= 0x1 }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			c := id
			tc.mangle(&c)
			require.True(t, errors.Is(c.Validate(), ErrInvalid))
		})
	}
}

func TestRoundTrip(t *testing.T) {
	id, err := New("10.0.0.1:9000")
	require.NoError(t, err)

	parsed, err := Parse(id.String())
	require.NoError(t, err)
	require.Equal(t, id, parsed)

	fromBytes, err := FromBytes(id.Bytes())
	require.NoError(t, err)
	require.Equal(t, id, fromBytes)

	_, err = FromBytes(id.Bytes()[:Size-1])
	require.True(t, errors.Is(err, ErrInvalid), "truncated token")

	_, err = Parse("not hex")
	require.True(t, errors.Is(err, ErrInvalid), "garbage token")

	var text ID
	raw, err := id.MarshalText()
	require.NoError(t, err)
	require.NoError(t, text.UnmarshalText(raw))
	require.Equal(t, id, text)
}
