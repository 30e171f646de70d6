package resources

import "embed"

// PlatformFiles holds the embedded platform catalog, one YAML file per platform.
//
//go:embed platforms/*.yaml
var PlatformFiles embed.FS
