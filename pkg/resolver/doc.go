/*
Package resolver expands "{...}" placeholder expressions in template text
against a datacontext.Context.

Supported forms:

	{name}                       local attribute
	{character.title}            dotted path
	{skills[2]}                  array index
	{skills[{active_index}]}     nested expression, resolved innermost first
	{text;eras;[0].name}         external dataset reference

Resolution is bottom-up and bounded by a single depth counter shared by
expression nesting and by re-expansion of resolved values that themselves
contain placeholders, so self-referencing data always terminates.

A placeholder that cannot be resolved never aborts the template. It is
reported as a domain.Diagnostic and, under the default PolicyKeepLiteral,
left in the output verbatim.
*/
package resolver
