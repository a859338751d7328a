// Package farcache provides the default networked far-cache collaborator
// for bastion.Facade, backed by Redis.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package farcache
