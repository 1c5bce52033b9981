// Package retrieval implements the knowledge corpus search tool. Documents are
// read from a directory (any URL viant/afs understands, local paths by
// default), split into paragraph chunks and ranked by query term overlap.
package retrieval

import (
	"context"
	"fmt"
	"math"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/option"

	"github.com/hupe1980/taskmesh/logging"
	"github.com/hupe1980/taskmesh/tool"
)

// ToolName is the name agents use to call the retrieval tool.
const ToolName = "knowledge_search"

// Options configures a Retriever.
type Options struct {
	// MaxResults caps the number of returned chunks.
	MaxResults int
	// Extensions lists the file suffixes that are indexed.
	Extensions []string
	// MaxChunkChars bounds the size of merged paragraph chunks.
	MaxChunkChars int
	Logger        logging.Logger
}

// Retriever searches a directory of reference documents.
type Retriever struct {
	fs   afs.Service
	dir  string
	opts Options
}

// New creates a Retriever over dir. The directory is read on every search,
// so documents ingested between runs are picked up without a restart.
func New(dir string, optFns ...func(o *Options)) *Retriever {
	opts := Options{
		MaxResults:    6,
		Extensions:    []string{".md", ".markdown", ".txt"},
		MaxChunkChars: 1200,
		Logger:        logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Retriever{fs: afs.New(), dir: normalizeURL(dir), opts: opts}
}

// NewTool exposes a Retriever over dir as the knowledge_search tool.
func NewTool(dir string, optFns ...func(o *Options)) *tool.SearchTool {
	return tool.NewSearchTool(
		ToolName,
		"Search the internal knowledge base (policies, regulations, past partnerships). "+
			"Pass a short natural-language query as search_query.",
		New(dir, optFns...),
	)
}

// Dir returns the normalized corpus location.
func (r *Retriever) Dir() string { return r.dir }

type chunk struct {
	source string
	title  string
	text   string
	index  int
	score  float64
}

// Search returns the best matching chunks for query. A missing corpus
// directory yields no results.
func (r *Retriever) Search(ctx context.Context, query string) ([]tool.SearchResult, error) {
	terms := tokenize(query)
	if len(terms) == 0 {
		return []tool.SearchResult{}, nil
	}

	exists, err := r.fs.Exists(ctx, r.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to check knowledge dir: %w", err)
	}
	if !exists {
		r.opts.Logger.Warn("retrieval.dir.missing", "dir", r.dir)
		return []tool.SearchResult{}, nil
	}

	objects, err := r.fs.List(ctx, r.dir, option.NewRecursive(true))
	if err != nil {
		return nil, fmt.Errorf("failed to list knowledge dir: %w", err)
	}

	var candidates []chunk
	for _, object := range objects {
		if object.IsDir() || !r.indexed(object.Name()) {
			continue
		}
		data, err := r.fs.Download(ctx, object)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", object.URL(), err)
		}
		for i, text := range splitChunks(string(data), r.opts.MaxChunkChars) {
			score := scoreChunk(terms, text)
			if score <= 0 {
				continue
			}
			candidates = append(candidates, chunk{
				source: object.Name(),
				title:  chunkTitle(object.Name(), text),
				text:   text,
				index:  i,
				score:  score,
			})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		if candidates[i].source != candidates[j].source {
			return candidates[i].source < candidates[j].source
		}
		return candidates[i].index < candidates[j].index
	})

	if len(candidates) > r.opts.MaxResults {
		candidates = candidates[:r.opts.MaxResults]
	}

	results := make([]tool.SearchResult, 0, len(candidates))
	for _, c := range candidates {
		results = append(results, tool.SearchResult{
			Title:   c.title,
			Source:  c.source,
			Snippet: c.text,
			Score:   math.Round(c.score*100) / 100,
		})
	}

	r.opts.Logger.Debug("retrieval.search", "query", query, "files", len(objects), "results", len(results))

	return results, nil
}

func (r *Retriever) indexed(name string) bool {
	ext := strings.ToLower(path.Ext(name))
	for _, e := range r.opts.Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Ingest copies the document at src into the corpus directory, creating the
// directory when needed, and returns the destination URL.
func Ingest(ctx context.Context, src, knowledgeDir string) (string, error) {
	fs := afs.New()
	srcURL := normalizeURL(src)
	dirURL := normalizeURL(knowledgeDir)

	ok, err := fs.Exists(ctx, srcURL)
	if err != nil {
		return "", fmt.Errorf("failed to check source: %w", err)
	}
	if !ok {
		return "", fmt.Errorf("source not found: %s", src)
	}

	exists, _ := fs.Exists(ctx, dirURL)
	if !exists {
		if err := fs.Create(ctx, dirURL, file.DefaultDirOsMode, true); err != nil {
			return "", fmt.Errorf("failed to create knowledge dir: %w", err)
		}
	}

	dest := strings.TrimRight(dirURL, "/") + "/" + path.Base(filepath.ToSlash(src))
	if err := fs.Copy(ctx, srcURL, dest); err != nil {
		return "", fmt.Errorf("failed to copy %s: %w", src, err)
	}
	return dest, nil
}

// normalizeURL turns relative local paths into absolute ones; URLs with a
// scheme are returned unchanged.
func normalizeURL(p string) string {
	if strings.Contains(p, "://") {
		return p
	}
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

// splitChunks splits text into paragraphs (blank line separated) and merges
// neighbours up to maxChars so short paragraphs keep their context.
func splitChunks(text string, maxChars int) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var (
		chunks  []string
		current strings.Builder
	)
	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			chunks = append(chunks, s)
		}
		current.Reset()
	}
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if current.Len() > 0 && current.Len()+len(para)+2 > maxChars {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
	}
	flush()
	return chunks
}

var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "with": {}, "that": {}, "this": {}, "from": {},
	"are": {}, "was": {}, "what": {}, "how": {}, "into": {}, "about": {}, "our": {},
}

func tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	seen := make(map[string]struct{}, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) < 3 {
			continue
		}
		if _, stop := stopwords[f]; stop {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

// scoreChunk counts distinct matched query terms and adds a damped term
// frequency bonus.
func scoreChunk(terms []string, text string) float64 {
	counts := map[string]int{}
	for _, tok := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		counts[tok]++
	}
	var score float64
	for _, t := range terms {
		if n := counts[t]; n > 0 {
			score += 1 + 0.1*math.Log1p(float64(n))
		}
	}
	return score
}

// chunkTitle uses a leading Markdown heading when present, else the file name.
func chunkTitle(name, text string) string {
	first, _, _ := strings.Cut(text, "\n")
	if strings.HasPrefix(first, "#") {
		if t := strings.TrimSpace(strings.TrimLeft(first, "#")); t != "" {
			return t
		}
	}
	return name
}
