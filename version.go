package donorline

// Version is overridden at build time with -ldflags "-X github.com/aretw0/donorline.Version=...".
var Version = "dev"
