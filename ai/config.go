// Copyright 2025 Poiesic Systems
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


package ai

import (
	"fmt"
	"strings"

	"github.com/poiesic/embedfill/core"
)

// Provider names an embedding backend.
type Provider string

const (
	// ProviderHugot runs a sentence-transformer model in-process.
	ProviderHugot Provider = "hugot"
	// ProviderOpenAI calls an OpenAI-compatible embeddings endpoint.
	ProviderOpenAI Provider = "openai"
	// ProviderMock produces deterministic hash-based vectors.
	ProviderMock Provider = "mock"
)

// Config holds configuration for embedding providers.
type Config struct {
	// Provider selects the embedding backend. Default: hugot
	Provider Provider

	// Host is the base URL of an OpenAI-compatible embedding API.
	// Example: "http://localhost:11434/v1" for a local Ollama server
	Host string

	// Model is the embedding model identifier.
	// Example: "all-MiniLM-L6-v2", "text-embedding-3-small"
	Model string

	// Token authenticates against the embedding API. Local servers that do
	// not check credentials accept any value.
	Token string

	// ModelDir is the directory holding a local model's tokenizer.json and
	// ONNX weights. Used by the hugot provider.
	ModelDir string

	// Dimension is the vector length the model produces. 0 disables
	// dimension checks. Default: 384
	Dimension int
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithProvider sets the embedding backend.
func WithProvider(provider Provider) ConfigOption {
	return func(c *Config) {
		c.Provider = provider
	}
}

// WithHost sets the embedding service host URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.Host = host
	}
}

// WithModel sets the embedding model identifier.
func WithModel(model string) ConfigOption {
	return func(c *Config) {
		c.Model = model
	}
}

// WithToken sets the API token.
func WithToken(token string) ConfigOption {
	return func(c *Config) {
		c.Token = token
	}
}

// WithModelDir sets the local model directory.
func WithModelDir(dir string) ConfigOption {
	return func(c *Config) {
		c.ModelDir = dir
	}
}

// WithDimension sets the expected vector length.
func WithDimension(dimension int) ConfigOption {
	return func(c *Config) {
		c.Dimension = dimension
	}
}

// DefaultConfig returns a Config for the all-MiniLM-L6-v2 sentence
// transformer run locally.
func DefaultConfig() *Config {
	return &Config{
		Provider:  ProviderHugot,
		Host:      "http://localhost:11434/v1",
		Model:     "all-MiniLM-L6-v2",
		Dimension: 384,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithProvider(ProviderOpenAI),
//	    WithHost("http://localhost:11434"),
//	    WithModel("nomic-embed-text"),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// It adds the /v1 suffix to the host if missing, which most
// OpenAI-compatible APIs (Ollama, LocalAI, vLLM) require.
func (c *Config) Normalize() {
	if c.Provider == "" {
		c.Provider = ProviderHugot
	}
	c.Provider = Provider(strings.ToLower(string(c.Provider)))
	if c.Host != "" && !strings.HasSuffix(c.Host, "/v1") {
		c.Host = strings.TrimSuffix(c.Host, "/") + "/v1"
	}
}

// Validate checks that the configuration is complete for its provider.
// It normalizes the configuration first.
func (c *Config) Validate() error {
	c.Normalize()

	if c.Dimension < 0 {
		return fmt.Errorf("%w: ai config: Dimension must not be negative", core.ErrConfiguration)
	}

	switch c.Provider {
	case ProviderOpenAI:
		if c.Host == "" {
			return fmt.Errorf("%w: ai config: Host is required for the openai provider", core.ErrConfiguration)
		}
		if c.Model == "" {
			return fmt.Errorf("%w: ai config: Model is required for the openai provider", core.ErrConfiguration)
		}
	case ProviderHugot:
		if c.ModelDir == "" {
			return fmt.Errorf("%w: ai config: ModelDir is required for the hugot provider", core.ErrConfiguration)
		}
	case ProviderMock:
	default:
		return fmt.Errorf("%w: ai config: unknown provider %q", core.ErrConfiguration, c.Provider)
	}
	return nil
}
