// Copyright 2025 The Palette Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package main implements the palette search server and CLI [DBG] application.

Palette ranks commands and CI pipelines for a command palette as the user
types. Short queries go through a Patricia trie index, longer ones through a
full scan; results are cached for a few seconds per query and invalidated
whenever aliases, commands or pipelines change.

# Usage

Start the msgpack IPC server (the default command):

	palette
	palette serve -d

Run the interactive debug loop:

	palette cli --limit 5

Manage aliases and recent searches:

	palette alias add nb new-build --params main
	palette alias list
	palette alias rm nb
	palette recent

# Configuration

Runtime configuration lives in config.toml inside the platform config dir
and is created with defaults on first run:

	[search]
	default_limit = 10
	max_limit = 50
	short_query_len = 3
	single_char_cap = 20
	cache_ttl_ms = 3000

	[trie]
	max_depth = 16
	max_results = 50

	[prefs]
	file = "prefs.toml"
	max_recent = 10

	[sources]
	commands = "commands.yaml"
	pipelines = "pipelines.yaml"

	[server]
	max_query_len = 256

A section that fails to parse falls back to its defaults without affecting
the others. Use --config to point at another file.

# IPC Protocol

The server reads msgpack requests from stdin and writes responses to stdout:

	{"id": "r1", "op": "commands", "q": "dep", "l": 10}
	{"id": "r1", "s": [{"id": "new-build", "n": "Create New Build", "sc": 60, "r": 1}], "c": 1, "t": 85}

See package server for every op. Logs always go to stderr.
*/
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

const (
	Version = "0.3.0-beta"
	AppName = "palette"
	gh      = "https://github.com/bastiangx/palette"
)

// sigHandler is a simple handler for OS signals to exit normally.
func sigHandler() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		fmt.Fprintf(os.Stderr, "\nExiting...\n")
		os.Exit(0)
	}()
}

func main() {
	sigHandler()
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
