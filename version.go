package arbor

// Version is the release of the library and CLI, set at build time with
// -ldflags "-X github.com/aretw0/arbor.Version=...".
var Version = "dev"
