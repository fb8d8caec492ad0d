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


// Package ai provides the embedding abstraction used by embedfill.
//
// The drain loop depends only on the Embedder interface; concrete
// providers live in sub-packages:
//
//   - ai/hugot: a sentence-transformer model (all-MiniLM-L6-v2 by default)
//     run in-process through ONNX
//   - ai/openai: any OpenAI-compatible embeddings endpoint (OpenAI, Ollama,
//     vLLM, LocalAI)
//   - ai/mock: deterministic vectors for tests and dry runs
//
// # Constructor Return Type Pattern
//
// Production constructors (openai.NewEmbedder, hugot.NewEmbedder) return
// the ai.Embedder interface, or a closer when the provider holds native
// resources. The mock returns its concrete type so tests can inject
// behavior and assert on calls:
//
//	mockEmbed := mock.NewMockEmbedder()
//	mockEmbed.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
//	    return nil, errors.New("boom")
//	}
//	count := mockEmbed.CallCount()
//
// # Usage Example
//
//	cfg := ai.NewConfig(
//	    ai.WithProvider(ai.ProviderOpenAI),
//	    ai.WithHost("http://localhost:11434"),
//	    ai.WithModel("nomic-embed-text"),
//	)
//	embedder, err := openai.NewEmbedder(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	vectors, err := embedder.EmbedTexts(ctx, []string{"Intro to Go Learn the basics"})
package ai
