//go:build js && wasm

package main

import (
	"context"
	"encoding/json"
	"math"
	"syscall/js"

	"devassist/internal/adapter/cache"
	"devassist/internal/adapter/embedding"
	"devassist/internal/adapter/memstore"
	"devassist/internal/port"
)

// mockModel selects the in-process embedding provider instead of Ollama.
const mockModel = "mock"

var index *memstore.VectorIndex

func init() {
	index = memstore.NewVectorIndex(newRouter(), nil)
}

// router sends the mock model to the in-process provider and everything else
// to Ollama over fetch.
type router struct {
	mock   port.EmbeddingProvider
	ollama port.EmbeddingProvider
}

func newRouter() *router {
	return &router{
		mock:   embedding.NewMockProvider(64),
		ollama: cache.NewCachedProvider(embedding.NewOllamaProvider(0), cache.DefaultSize),
	}
}

func (r *router) Embed(ctx context.Context, endpoint, model, text string) ([]float32, error) {
	if model == mockModel {
		return r.mock.Embed(ctx, endpoint, model, text)
	}
	return r.ollama.Embed(ctx, endpoint, model, text)
}

func main() {
	c := make(chan struct{})

	js.Global().Set("devassistConfigure", js.FuncOf(configure))
	js.Global().Set("devassistUpsert", js.FuncOf(upsert))
	js.Global().Set("devassistQuery", js.FuncOf(query))
	js.Global().Set("devassistCount", js.FuncOf(count))
	js.Global().Set("devassistClear", js.FuncOf(clearIndex))

	<-c
}

func configure(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return makeError("usage: devassistConfigure(endpoint, model)")
	}
	index.Configure(args[0].String(), args[1].String())
	return makeResult(map[string]interface{}{
		"success": true,
	})
}

// upsert returns a Promise: embedding may need a network round trip, which
// must not block the JS event loop.
func upsert(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return makeError("usage: devassistUpsert(id, content)")
	}
	id, content := args[0].String(), args[1].String()

	return newPromise(func() (interface{}, error) {
		if err := index.Upsert(context.Background(), id, content); err != nil {
			return nil, err
		}
		return makeResult(map[string]interface{}{
			"success": true,
			"id":      id,
			"count":   index.Count(),
		}), nil
	})
}

func query(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return makeError("usage: devassistQuery(text, [limit])")
	}
	text := args[0].String()
	limit := memstore.DefaultQueryLimit
	if len(args) > 1 && args[1].Type() == js.TypeNumber {
		limit = args[1].Int()
	}

	return newPromise(func() (interface{}, error) {
		results, err := index.QueryScored(context.Background(), text, limit)
		if err != nil {
			return nil, err
		}
		output := make([]map[string]interface{}, 0, len(results))
		for _, r := range results {
			output = append(output, map[string]interface{}{
				"id":      r.Document.ID,
				"content": r.Document.Content,
				"score":   finiteScore(r.Score),
			})
		}
		return makeResult(map[string]interface{}{
			"results": output,
			"query":   text,
		}), nil
	})
}

func count(this js.Value, args []js.Value) interface{} {
	return index.Count()
}

func clearIndex(this js.Value, args []js.Value) interface{} {
	index.Clear()
	return makeResult(map[string]interface{}{
		"success": true,
	})
}

func finiteScore(score float64) float64 {
	if math.IsInf(score, -1) {
		return -1
	}
	return score
}

func newPromise(fn func() (interface{}, error)) interface{} {
	handler := js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		resolve, reject := args[0], args[1]
		go func() {
			result, err := fn()
			if err != nil {
				reject.Invoke(js.Global().Get("Error").New(err.Error()))
				return
			}
			resolve.Invoke(result)
		}()
		return nil
	})
	promise := js.Global().Get("Promise").New(handler)
	handler.Release()
	return promise
}

func makeError(msg string) interface{} {
	result, _ := json.Marshal(map[string]interface{}{
		"error": msg,
	})
	return string(result)
}

func makeResult(data map[string]interface{}) interface{} {
	result, _ := json.Marshal(data)
	return string(result)
}
