package constant

// Set at link time with -ldflags "-X".
var (
	Version     = "dev"
	CompileTime = "unknown"
)
