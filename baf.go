// Package baf compiles structured source data into a byte-exact binary file
// according to a user-declared schema.
//
// A schema is a tree of models: fixed-width scalars (U8..S64), raw byte
// payloads, arrays, optionals, alignment padding, external file contents, and
// named blocks of ordered fields. Input data arrives as a cty.Value tree,
// typically loaded from TOML, JSON, or HCL. Blocks may compute fields at
// build time through setters registered with OnBuild; setters may reference
// the sizes and offsets of sibling fields, including fields that have not
// been built yet. The scheduler resolves those forward references by running
// passes over the datum tree until everything is complete, and reports a
// CyclicDependency error when a full pass makes no progress.
//
// Models are immutable and reusable; each build instantiates its own datum
// tree. A single build is strictly single-threaded.
package baf
