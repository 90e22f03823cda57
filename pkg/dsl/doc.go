/*
Package dsl builds templates in Go instead of JSON or YAML files.

	b := dsl.New()

	b.Add("describe_room").
		Info("You are in {location}.").
		Instruct("Describe the room in two sentences").
		Output("description", domain.FieldString).
		Store("description", "room_description").
		Require("location", "a cellar")

	loader, err := b.Build()
	// pass loader to fable.New(fable.WithTemplates(loader))
*/
package dsl
