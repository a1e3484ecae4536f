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

// Package ai defines the embedding service contract used to backfill tender
// vectors for similarity rescoring.
//
// Implementations live in sub-packages:
//
//   - ai/openai: OpenAI-compatible APIs through langchaingo
//   - ai/mock: deterministic test double
//
// Production constructors return the ai.Embedder interface. The mock
// constructor returns its concrete type so tests can inject behaviour and
// read call counts.
//
//	embedder, err := openai.NewEmbedder(ai.NewConfig(ai.WithToken(token)))
//	if err != nil {
//	    return err
//	}
//	vectors, err := embedder.EmbedTexts(ctx, texts)
package ai
