package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/poiesic/tendermatch/core"
	"github.com/poiesic/tendermatch/storage"
	"github.com/urfave/cli/v2"
)

// maxLineSize bounds one JSON record. Embedding lines are the largest.
const maxLineSize = 16 << 20

// embeddingRecord is one line of an embeddings import.
type embeddingRecord struct {
	TenderID string    `json:"tender_id"`
	Vector   []float32 `json:"vector"`
}

// importer reads JSON lines from r and writes them to store in batches.
// It returns the number of records written.
type importer func(ctx context.Context, store storage.Store, r io.Reader, batchSize int) (int, error)

var importers = map[string]importer{
	"tenders": func(ctx context.Context, store storage.Store, r io.Reader, batchSize int) (int, error) {
		return importLines(ctx, r, batchSize, func(ctx context.Context, batch []*core.Tender) error {
			for _, t := range batch {
				if err := core.ValidateTender(t); err != nil {
					return fmt.Errorf("tender %q: %w", t.ID, err)
				}
			}
			return store.PutTenders(ctx, batch...)
		})
	},
	"profiles": func(ctx context.Context, store storage.Store, r io.Reader, batchSize int) (int, error) {
		return importLines(ctx, r, batchSize, func(ctx context.Context, batch []*core.CompanyProfile) error {
			for _, p := range batch {
				if err := core.ValidateProfile(p); err != nil {
					return fmt.Errorf("profile %q: %w", p.UserID, err)
				}
			}
			return store.PutProfiles(ctx, batch...)
		})
	},
	"competitors": func(ctx context.Context, store storage.Store, r io.Reader, batchSize int) (int, error) {
		return importLines(ctx, r, batchSize, func(ctx context.Context, batch []*core.ParticipationRecord) error {
			return store.PutCompetitors(ctx, batch...)
		})
	},
	"results": func(ctx context.Context, store storage.Store, r io.Reader, batchSize int) (int, error) {
		return importLines(ctx, r, batchSize, func(ctx context.Context, batch []*core.ResultRecord) error {
			return store.PutResults(ctx, batch...)
		})
	},
	"embeddings": func(ctx context.Context, store storage.Store, r io.Reader, batchSize int) (int, error) {
		return importLines(ctx, r, batchSize, func(ctx context.Context, batch []*embeddingRecord) error {
			vectors := make(map[string][]float32, len(batch))
			for _, rec := range batch {
				vectors[rec.TenderID] = rec.Vector
			}
			return store.PutEmbeddings(ctx, vectors)
		})
	},
}

func importKinds() []string {
	kinds := make([]string, 0, len(importers))
	for k := range importers {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}

// importLines decodes one T per non-blank line and flushes every batchSize records.
func importLines[T any](ctx context.Context, r io.Reader, batchSize int, flush func(context.Context, []*T) error) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	written := 0
	batch := make([]*T, 0, batchSize)
	write := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := flush(ctx, batch); err != nil {
			return err
		}
		written += len(batch)
		batch = batch[:0]
		return nil
	}

	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		rec := new(T)
		if err := json.Unmarshal([]byte(text), rec); err != nil {
			return written, fmt.Errorf("line %d: %w", line, err)
		}
		batch = append(batch, rec)
		if len(batch) >= batchSize {
			if err := write(); err != nil {
				return written, fmt.Errorf("failed to write batch ending at line %d: %w", line, err)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return written, fmt.Errorf("failed to read input: %w", err)
	}
	if err := write(); err != nil {
		return written, fmt.Errorf("failed to write final batch: %w", err)
	}
	return written, nil
}

func importCommand(c *cli.Context) error {
	kind := strings.ToLower(c.String("kind"))
	imp, ok := importers[kind]
	if !ok {
		return fmt.Errorf("unknown kind %q: must be one of %s", kind, strings.Join(importKinds(), ", "))
	}
	if c.Int("batch-size") <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one FILE argument, use - for stdin")
	}

	var in io.Reader = os.Stdin
	if path := c.Args().First(); path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer f.Close()
		in = f
	}

	db, cleanup, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer cleanup()

	n, err := imp(c.Context, db.Store(), in, c.Int("batch-size"))
	if err != nil {
		return fmt.Errorf("import of %s failed after %d records: %w", kind, n, err)
	}
	fmt.Fprintf(os.Stderr, "Imported %d %s\n", n, kind)
	return nil
}
