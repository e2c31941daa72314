// Package version - Versions-Information fuer attnlens
package version

// Version wird beim Build via -ldflags ueberschrieben
var Version string = "0.0.0"
