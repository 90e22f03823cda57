package fable_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/fable"
	"github.com/aretw0/fable/pkg/adapters/memory"
	"github.com/aretw0/fable/pkg/datacontext"
	"github.com/aretw0/fable/pkg/domain"
	"github.com/aretw0/fable/pkg/dsl"
)

// ExampleEngine_Run builds templates with the DSL and runs one turn against
// a scripted generator that wraps its JSON in chatter and a code fence.
func ExampleEngine_Run() {
	b := dsl.New()
	b.Add("camp").
		Info("{hero} rests by the fire.").
		Instruct("Pick what happens next").
		Output("choice", domain.FieldString).
		Store("choice", "last_choice").
		Next("choice", "ambush")
	b.Add("ambush").
		Info("Bandits leap from the trees!")

	templates, err := b.Build()
	if err != nil {
		log.Fatal(err)
	}

	gen := memory.NewGenerator("Sure!\n```json\n{\"choice\": \"ambush\"}\n```")
	engine, err := fable.New(fable.WithTemplates(templates), fable.WithGenerator(gen))
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	if err := engine.Saves().Save(ctx, "save-1", map[string]domain.Value{"hero": domain.String("Ayla")}); err != nil {
		log.Fatal(err)
	}

	turn, err := engine.Run(ctx, "camp", "save-1")
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(turn.Result.Stage)
	fmt.Println(turn.Stored["last_choice"])
	fmt.Println(turn.Next["choice"])
	// Output:
	// extraction
	// ambush
	// [ambush]
}

// ExampleEngine_Resolve expands a nested index and an attribute whose value
// itself holds a placeholder.
func ExampleEngine_Resolve() {
	engine, err := fable.New()
	if err != nil {
		log.Fatal(err)
	}

	dc := datacontext.FromMap(map[string]any{
		"hero":  map[string]any{"name": "Ayla", "items": []any{"sword", "lamp"}},
		"slot":  1,
		"title": "{hero.name} the Bold",
	})
	res := engine.Resolve(context.Background(), "{title} carries a {hero.items[{slot}]}.", dc)
	fmt.Println(res.Text)
	// Output:
	// Ayla the Bold carries a lamp.
}
