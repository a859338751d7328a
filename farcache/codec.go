// codec.go: Entry wire (de)serialization for the Redis far-cache adapter.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package farcache

import (
	"github.com/agilira/bastion"
	"github.com/vmihailenco/msgpack/v5"
)

// wireEntry mirrors bastion.Entry[V]'s fields in a shape msgpack can encode
// without needing V to implement any interface beyond being msgpack-
// encodable itself.
type wireEntry[V any] struct {
	Value      V
	CreatedAt  int64
	ExpiresAt  int64
	Version    uint64
	IsNegative bool
	IsHot      bool
}

func encodeEntry[V any](e bastion.Entry[V]) ([]byte, error) {
	return msgpack.Marshal(wireEntry[V]{
		Value:      e.Value,
		CreatedAt:  e.CreatedAt,
		ExpiresAt:  e.ExpiresAt,
		Version:    e.Version,
		IsNegative: e.IsNegative,
		IsHot:      e.IsHot,
	})
}

func decodeEntry[V any](data []byte) (bastion.Entry[V], error) {
	var w wireEntry[V]
	if err := msgpack.Unmarshal(data, &w); err != nil {
		var zero bastion.Entry[V]
		return zero, err
	}
	return bastion.Entry[V]{
		Value:      w.Value,
		CreatedAt:  w.CreatedAt,
		ExpiresAt:  w.ExpiresAt,
		Version:    w.Version,
		IsNegative: w.IsNegative,
		IsHot:      w.IsHot,
	}, nil
}
