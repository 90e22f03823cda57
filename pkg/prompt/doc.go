// Package prompt assembles generation prompts from template segments.
//
// A template is a list of segments classified by their leading delimiter:
// "(...)" carries background information, "<...>" an instruction, and
// "[name=\"string\", age=\"number\"]" declares output fields. Each output
// spec is paired with the nearest preceding unpaired instruction, whose
// resolved text describes the declared fields. The accumulated fields form
// the output contract handed to the recovery parser.
package prompt
