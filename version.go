// Copyright (c) 2012-2018 The Revel Framework Authors, All rights reserved.
// Revel Framework source code and usage is governed by a MIT style
// license that can be found in the LICENSE file.

package cmd

const (
	// Version current campsite version
	Version = "0.4.0"

	// BuildDate latest commit/release date
	BuildDate = "2026-10-19"

	// MinimumGoVersion minimum required Go version for campsite
	MinimumGoVersion = ">= go1.25"
)
