/*
Package saves serializes access to saved attribute sets.

A save is the attribute map a generation turn reads and writes. Manager
guarantees that two turns against the same save ID never interleave
inside one process, and optionally across replicas through a
ports.DistributedLocker.
*/
package saves
