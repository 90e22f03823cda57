/*
Package datacontext provides the read-only data snapshot that placeholder
expressions are resolved against.

A Context carries two scopes:

  - local: the flat attribute map of the current save (character sheet,
    world state, previous generation results).
  - external:<name>: named datasets, loaded lazily through a
    ports.DatasetLoader the first time they are referenced.

Paths use dots to descend into objects and brackets to index arrays:

	character.skills[2].name
	eras[0][1]

An index outside the bounds of its array selects the whole array and traversal
continues from there. Lookups never panic; any failure is reported as a
missing value.
*/
package datacontext
