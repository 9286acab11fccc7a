// Package testutil provides test doubles shared by package tests: a
// loopback UDP listener standing in for the engine and a fixed session ID
// generator.
package testutil
