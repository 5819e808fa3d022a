// Package pokerag embeds the pokerag pipeline in a Go program: a bbolt
// document store, facet and embedding indexes, answer generation and
// hallucination-risk scoring.
//
// The caller supplies the embedding and generation providers:
//
//	client, _ := pokerag.New(ctx,
//	    pokerag.WithStorePath("data/pokerag.db"),
//	    pokerag.WithEmbedder(myEmbedder, pokerag.Space{Provider: "openai", Model: "text-embedding-3-small", Dimensions: 1536}),
//	    pokerag.WithGenerator(myGenerator),
//	)
//	defer client.Close()
//
//	_, _ = client.Ingest(ctx, pokerag.Source{Records: []string{"data/pokeapi/**/*.json"}})
//	_, _ = client.Rebuild(ctx)
//	ans, _ := client.Ask(ctx, pokerag.Question{
//	    Text:    "Which fire type Pokémon live in mountains?",
//	    Filters: map[string][]string{"type": {"fire"}, "habitat": {"mountain"}},
//	})
//	if ans.Warning != nil {
//	    fmt.Println(ans.Warning.Message)
//	}
package pokerag
