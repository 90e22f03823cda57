/*
Package recovery turns loosely structured generation output into a flat
key/value mapping.

Parse never fails with a Go error. It runs an ordered pipeline and the first
stage that yields an object with at least one key wins:

 1. direct: strict JSON parse of the trimmed text
 2. extraction: fenced code blocks, then the widest balanced {...} span
 3. repair: textual repairs (comments, quotes, bare keys, literals,
    trailing commas) with a strict re-parse after each one
 4. lenient: Hjson parse of the candidate
 5. library_repair: github.com/RealAlexandreAI/json-repair on the candidate
 6. pattern: key=value, key: value and "key": "value" token scan

When every stage comes up empty the result is a failure carrying the verbatim
input. When an output contract is supplied, declared fields are checked and
coerced; problems become diagnostics and never turn a success into a failure.
*/
package recovery
