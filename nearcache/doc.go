// Package nearcache provides the default process-local near-cache
// collaborator for bastion.Facade: a bounded, sampled-LFU-eviction,
// TTL-stamping, mutex-guarded store.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package nearcache
