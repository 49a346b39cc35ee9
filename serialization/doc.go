// Package serialization provides the explicit, versioned constructor
// registries used to persist and restore pipeline components.
//
// Every persisted component is written as an Object: a closed class tag plus a
// Config map. A Registry maps each tag to the constructor that rebuilds the
// component from its Config. Registries are plain values handed to Save and
// Load; there is no process-wide registration.
package serialization
