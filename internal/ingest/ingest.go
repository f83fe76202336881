package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"ordprov-service/internal/domain"
)

// Extractor pulls ORD questions out of one exam document. Implemented by
// internal/genai.
type Extractor interface {
	ExtractQuestions(ctx context.Context, document string, year int, term string) ([]domain.QuizItem, error)
}

// ManifestEntry describes one source document on the exam archive.
type ManifestEntry struct {
	File string `json:"file"`
	Year int    `json:"year"`
	Term string `json:"term"`
	Type string `json:"type"`
}

// Options configures one pipeline run.
type Options struct {
	ManifestPath string
	BaseURL      string // archive root the manifest files are relative to
	DocumentDir  string
	OutputPath   string
	// Pause between model calls to stay under rate limits.
	Pause time.Duration
}

// Pipeline is the offline ingestion run: download the manifest's source
// documents, extract questions from the verbal ones, and write the bank
// file the server loads at startup. One document failing does not stop
// the run.
type Pipeline struct {
	extractor Extractor
	client    *http.Client
	sleep     func(time.Duration)
}

func NewPipeline(extractor Extractor) *Pipeline {
	return &Pipeline{
		extractor: extractor,
		client:    &http.Client{Timeout: 2 * time.Minute},
		sleep:     time.Sleep,
	}
}

// Run executes the pipeline and returns how many questions were written.
func (p *Pipeline) Run(ctx context.Context, opts Options) (int, error) {
	entries, err := loadManifest(opts.ManifestPath)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(opts.DocumentDir, 0o755); err != nil {
		return 0, fmt.Errorf("create document dir: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(opts.OutputPath), 0o755); err != nil {
		return 0, fmt.Errorf("create output dir: %w", err)
	}

	if opts.BaseURL != "" {
		p.download(ctx, entries, opts)
	}

	var all []domain.QuizItem
	verbal := 0
	for _, entry := range entries {
		if entry.Type != "verbal" {
			continue
		}
		verbal++

		filename := filepath.Base(entry.File)
		path := filepath.Join(opts.DocumentDir, filename)
		document, err := os.ReadFile(path)
		if err != nil {
			log.Printf("skipping %s: %v", filename, err)
			continue
		}

		log.Printf("extracting %s (%d %s)", filename, entry.Year, entry.Term)
		items, err := p.extractor.ExtractQuestions(ctx, string(document), entry.Year, entry.Term)
		if err != nil {
			log.Printf("extraction failed for %s: %v", filename, err)
			continue
		}

		for i := range items {
			items[i].Source = filename
		}
		all = append(all, items...)
		log.Printf("added %d questions from %s", len(items), filename)

		// Write intermediate results so a crash keeps what we have.
		if err := writeBank(opts.OutputPath, all); err != nil {
			return len(all), err
		}

		if opts.Pause > 0 {
			p.sleep(opts.Pause)
		}
	}

	if verbal == 0 {
		log.Printf("manifest has no verbal documents")
	}
	if err := writeBank(opts.OutputPath, all); err != nil {
		return len(all), err
	}
	log.Printf("total questions collected: %d", len(all))
	return len(all), nil
}

// download fetches manifest documents that are not on disk yet. Failures
// are logged and skipped; extraction simply will not see those files.
func (p *Pipeline) download(ctx context.Context, entries []ManifestEntry, opts Options) {
	for _, entry := range entries {
		filename := filepath.Base(entry.File)
		path := filepath.Join(opts.DocumentDir, filename)
		if _, err := os.Stat(path); err == nil {
			log.Printf("skipping %s, already exists", filename)
			continue
		}

		fileURL, err := url.JoinPath(opts.BaseURL, entry.File)
		if err != nil {
			log.Printf("bad manifest path %q: %v", entry.File, err)
			continue
		}
		if err := p.fetch(ctx, fileURL, path); err != nil {
			log.Printf("failed to download %s: %v", fileURL, err)
			continue
		}
		log.Printf("downloaded %s", filename)
	}
}

func (p *Pipeline) fetch(ctx context.Context, fileURL, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := f.ReadFrom(resp.Body); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

func loadManifest(path string) ([]ManifestEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var entries []ManifestEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return entries, nil
}

func writeBank(path string, items []domain.QuizItem) error {
	if items == nil {
		items = []domain.QuizItem{}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal bank: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write bank: %w", err)
	}
	return nil
}
