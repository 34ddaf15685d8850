package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"strings"
	"time"

	"devassist/internal/adapter/cache"
	"devassist/internal/adapter/embedding"
	"devassist/internal/adapter/memstore"
)

var vocabulary = strings.Fields(`cache server client request response handler config
parse token stream index query vector embed model branch commit review merge retry
timeout error logger metric worker queue channel mutex context cancel deadline file
path walker settings store bucket schema migrate github ollama prompt template`)

func main() {
	docs := flag.Int("n", 2000, "Number of synthetic documents")
	words := flag.Int("words", 60, "Words per document")
	queries := flag.Int("queries", 200, "Number of queries")
	limit := flag.Int("k", memstore.DefaultQueryLimit, "Results per query")
	provider := flag.String("provider", "mock", "Embedding provider: mock or ollama")
	endpoint := flag.String("endpoint", embedding.DefaultOllamaHost, "Embedding endpoint")
	model := flag.String("model", "nomic-embed-text", "Embedding model")
	dim := flag.Int("dim", 256, "Mock embedding dimension")
	seed := flag.Int64("seed", 1, "Random seed")
	flag.Parse()

	p, err := embedding.NewProvider(embedding.Config{Provider: *provider, Dimension: *dim})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating provider: %v\n", err)
		os.Exit(1)
	}
	cached := cache.NewCachedProvider(p, *docs+*queries)

	idx := memstore.NewVectorIndex(cached, nil)
	if *provider == "mock" {
		*model = "mock"
	}
	idx.Configure(*endpoint, *model)

	rng := rand.New(rand.NewSource(*seed))
	ctx := context.Background()

	fmt.Println("SIMILARITY INDEX BENCHMARK")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Provider: %s  Model: %s\n", *provider, *model)
	fmt.Printf("Documents: %d x %d words  Queries: %d  k=%d\n\n", *docs, *words, *queries, *limit)

	start := time.Now()
	for i := 0; i < *docs; i++ {
		id := fmt.Sprintf("doc-%05d", i)
		if err := idx.Upsert(ctx, id, sentence(rng, *words)); err != nil {
			fmt.Fprintf(os.Stderr, "Upsert error: %v\n", err)
			os.Exit(1)
		}
	}
	upsertTime := time.Since(start)

	// Re-upsert a tenth of the ids to exercise replacement.
	start = time.Now()
	for i := 0; i < *docs/10; i++ {
		id := fmt.Sprintf("doc-%05d", rng.Intn(*docs))
		if err := idx.Upsert(ctx, id, sentence(rng, *words)); err != nil {
			fmt.Fprintf(os.Stderr, "Upsert error: %v\n", err)
			os.Exit(1)
		}
	}
	replaceTime := time.Since(start)

	latencies := make([]time.Duration, 0, *queries)
	totalTop := 0.0
	for i := 0; i < *queries; i++ {
		q := sentence(rng, 4)
		t := time.Now()
		results, err := idx.QueryScored(ctx, q, *limit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Query error: %v\n", err)
			os.Exit(1)
		}
		latencies = append(latencies, time.Since(t))
		if len(results) > 0 {
			totalTop += results[0].Score
		}
	}
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	fmt.Printf("Indexed:        %d documents in %s (%s/doc)\n", idx.Count(), upsertTime, perOp(upsertTime, *docs))
	fmt.Printf("Replaced:       %d upserts in %s\n", *docs/10, replaceTime)
	fmt.Println(strings.Repeat("-", 70))
	fmt.Printf("Query p50:      %s\n", percentile(latencies, 0.50))
	fmt.Printf("Query p95:      %s\n", percentile(latencies, 0.95))
	fmt.Printf("Query max:      %s\n", percentile(latencies, 1))
	if *queries > 0 {
		fmt.Printf("Avg top-1:      %.3f\n", totalTop/float64(*queries))
	}
	fmt.Printf("Cached vectors: %d\n", cached.Len())

}

func sentence(rng *rand.Rand, n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = vocabulary[rng.Intn(len(vocabulary))]
	}
	return strings.Join(words, " ")
}

func perOp(d time.Duration, n int) time.Duration {
	if n == 0 {
		return 0
	}
	return d / time.Duration(n)
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	i := int(float64(len(sorted)-1) * p)
	return sorted[i]
}
