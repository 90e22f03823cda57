/*
Package domain contains the core data model shared by every fable component.

It is kept pure and free of I/O so that the resolver, the prompt assembler and
the recovery parser can all depend on it without pulling adapters along.

# Key Entities

  - Value: tagged variant (null, bool, number, string, array, object) used for
    attributes, datasets and recovered output alike.
  - Diagnostic: a non-fatal report with an ErrorKind; unwraps to a sentinel error.
  - OutputFieldSpec: a declared output field (name, type, description).
  - RecoveryResult: the outcome of parsing generation output.
  - Template: a stored generation step (segments, prompt frame, output storage).
*/
package domain
