/*
Package ports defines the driven ports (interfaces) for the Fable engine.

These interfaces decouple the resolver, assembler and recovery core from
external implementations, allowing the engine to work with various storage
backends, dataset sources and generation backends.

# Key Interfaces

  - DatasetLoader: Loads named external datasets (e.g., "eras", "skills").
  - AttributeStore: Persists and loads the flat attribute map of a save.
  - TemplateLoader: Retrieves generation templates by ID.
  - Generator: Sends an assembled prompt to a text generation backend.
  - DistributedLocker: Provides distributed locking for concurrent save access.
*/
package ports
