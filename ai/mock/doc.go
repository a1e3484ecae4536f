// Package mock provides a test double for ai.Embedder.
//
// The mock produces deterministic unit vectors from a hash of the input text,
// so identical tender descriptions always embed identically.
//
//	embedder := mock.NewMockEmbedder()
//	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
//	    return nil, errors.New("rate limited")
//	}
//	count := embedder.CallCount()
package mock
