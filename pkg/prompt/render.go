package prompt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aretw0/fable/pkg/domain"
)

// DefaultTemplate is the prompt frame used when no custom template is set.
const DefaultTemplate = `Respond strictly with a JSON object in the following format. Do not add any other content or explanation:

{json_format}

Make sure the output is valid JSON and contains every specified field.
Information provided to you: {input_info}{notes}`

// Render fills a prompt frame. Recognized keys:
//
//	{background}   info segments, one "(...)" per line
//	{content}      instructions, one "<...>" per line
//	{format}       same as {json_format}
//	{json_format}  the JSON shape of the contract
//	{input_info}   info segments on one line
//	{tasks}        numbered instruction/field list
//	{notes}        unpaired instructions and specs
//
// Unknown "{...}" text is left alone.
func Render(frame string, s Sections, contract []domain.OutputFieldSpec) string {
	if frame == "" {
		frame = DefaultTemplate
	}
	shape := JSONShape(contract)

	background := make([]string, len(s.Background))
	for i, b := range s.Background {
		background[i] = "(" + b + ")"
	}
	content := make([]string, len(s.Instructions))
	for i, c := range s.Instructions {
		content[i] = "<" + c + ">"
	}

	notes := ""
	if len(s.Notes) > 0 {
		notes = "\n\nAdditional instructions:\n- " + strings.Join(s.Notes, "\n- ")
	}

	return strings.NewReplacer(
		"{background}", strings.Join(background, "\n"),
		"{content}", strings.Join(content, "\n"),
		"{format}", shape,
		"{json_format}", shape,
		"{input_info}", strings.Join(background, " "),
		"{tasks}", renderTasks(s.Tasks),
		"{notes}", notes,
	).Replace(frame)
}

// JSONShape renders the expected output object, one field per line with its
// type and description as the example value.
func JSONShape(contract []domain.OutputFieldSpec) string {
	if len(contract) == 0 {
		return "{}"
	}
	var b strings.Builder
	b.WriteString("{\n")
	for i, f := range contract {
		hint := string(f.Type)
		if f.Description != "" {
			hint += ": " + f.Description
		}
		fmt.Fprintf(&b, "  %s: %s", quote(f.Name), quote(hint))
		if i < len(contract)-1 {
			b.WriteByte(',')
		}
		b.WriteByte('\n')
	}
	b.WriteString("}")
	return b.String()
}

func renderTasks(tasks []Task) string {
	var b strings.Builder
	for i, t := range tasks {
		names := make([]string, len(t.Fields))
		for j, f := range t.Fields {
			names[j] = f.Name
		}
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d. %s -> %s", i+1, t.Instruction, strings.Join(names, ", "))
	}
	return b.String()
}

func quote(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return `"` + s + `"`
	}
	return strings.TrimRight(buf.String(), "\n")
}
