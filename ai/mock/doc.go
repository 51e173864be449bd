// Package mock provides test doubles for the ai interfaces. The defaults
// are deterministic so tests are repeatable without external services.
package mock
