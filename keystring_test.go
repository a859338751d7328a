// keystring_test.go: tests for canonical key serialization.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package bastion

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeyStringPrimitives(t *testing.T) {
	require.Equal(t, "user:1", KeyString("user:1"))
	require.Equal(t, "42", KeyString(42))
	require.Equal(t, "-7", KeyString(int64(-7)))
	require.Equal(t, "42", KeyString(uint64(42)))
	require.Equal(t, "255", KeyString(uint8(255)))
}

func TestKeyStringComposite(t *testing.T) {
	type userKey struct {
		Tenant string
		ID     int
	}
	a := KeyString(userKey{"acme", 1})
	b := KeyString(userKey{"acme", 2})
	require.NotEqual(t, a, b)
}

func TestLockKeyPrefix(t *testing.T) {
	require.Equal(t, "lock:user:1", lockKey("user:1"))
}
