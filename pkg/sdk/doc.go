// Package ragsearch embeds the school information search pipeline in a Go program,
// without the HTTP server.
//
// A query is embedded, matched against the content store by cosine similarity and,
// when a reranker is configured, reordered by relevance. If the embedding provider or
// the vector query fails, keyword search answers instead.
//
//	client, _ := ragsearch.New(ctx,
//	    ragsearch.WithPostgres(os.Getenv("DATABASE_URL")),
//	    ragsearch.WithEmbedder(myEmbedder),
//	    ragsearch.WithReranker(myReranker),
//	)
//	defer client.Close()
//
//	resp, err := client.Search(ctx, "급식 식단표")
//	for _, r := range resp.Results {
//	    fmt.Println(r.ID, r.Content)
//	}
package ragsearch
