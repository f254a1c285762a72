// Package formdef describes forms declaratively so engines can be built from
// configuration files instead of Go literals. A Definition lists fields in
// display order together with their initial value and validation constraints;
// Rules and Values translate it into the inputs formengine.New expects.
//
// Definitions are stored as JSON or YAML. LoadFile reads a single document and
// LoadFS walks a filesystem collecting every definition into a Store keyed by
// definition id.
package formdef
