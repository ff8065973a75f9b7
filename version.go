package archon

// Version is the release version of the Archon service.
const Version = "0.1.0"
