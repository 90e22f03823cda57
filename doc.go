/*
Package fable assembles prompts from templated segments, sends them to a
text generator and recovers structured data from whatever comes back.

A turn reads a save (a set of named attributes), fills in the template's
placeholders from those attributes and from external datasets, asks the
generator for a JSON object shaped by the template's output specs, recovers
that object even from noisy output, and writes the recovered fields back to
the save.

# Placeholders

Text may reference values with "{name}", "{character.skills[0]}" or
"{text;dataset;path}". References nest ("{stats.{active}}"), and a resolved
string that contains placeholders is expanded again, up to a depth bound.
A reference that cannot be resolved stays as literal text by default.

# Segments

A template is a list of segments:

	(background information)
	<an instruction>
	[field="type: description", other="number"]

Info segments become context, instructions become tasks, and output specs
declare the fields the generator must return. Each spec pairs with the
nearest preceding unpaired instruction.

# Usage

	eng, err := fable.New(
		fable.WithTemplates(templates),
		fable.WithDatasets(datasets),
		fable.WithStore(store),
		fable.WithGenerator(generator),
	)
	if err != nil {
		log.Fatal(err)
	}

	turn, err := eng.Run(ctx, "scene", "save-1")
	if err != nil {
		log.Fatal(err)
	}
	if !turn.Result.OK {
		log.Printf("unusable output: %v", turn.Result.Map())
	}

The building blocks are usable on their own: see packages datacontext,
resolver, prompt and recovery.
*/
package fable
