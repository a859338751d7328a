// keystring.go: canonical string serialization of cache keys, used to name
// filter entries, hot-key records, and distributed lock keys.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package bastion

import (
	"fmt"
	"strconv"
)

// KeyString converts a key of any comparable type to its canonical string
// form. Uses a type switch to avoid allocations for common key kinds,
// falling back to fmt.Sprintf for composite types.
//
// The fallback is not guaranteed injective for every possible K (two
// distinct structs with a lossy String() method could collide); callers
// that need strict injectivity for composite keys should stick to the
// primitive kinds covered by the fast path.
func KeyString[K comparable](key K) string {
	switch v := any(key).(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case int8:
		return strconv.FormatInt(int64(v), 10)
	case int16:
		return strconv.FormatInt(int64(v), 10)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint:
		return strconv.FormatUint(uint64(v), 10)
	case uint8:
		return strconv.FormatUint(uint64(v), 10)
	case uint16:
		return strconv.FormatUint(uint64(v), 10)
	case uint32:
		return strconv.FormatUint(uint64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	default:
		return fmt.Sprintf("%v", key)
	}
}

// lockKey builds the distributed lock key for a given canonical key string.
func lockKey(s string) string {
	return "lock:" + s
}
