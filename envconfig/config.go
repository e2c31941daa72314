// config.go - Haupt-Konfigurationsfunktionen fuer attnlens
//
// Dieses Modul enthaelt:
// - Host: Gibt Scheme und Host zurueck (ATTNLENS_HOST)
// - AllowedOrigins: Gibt erlaubte Origins zurueck (ATTNLENS_ORIGINS)
// - Models: Gibt Model-Verzeichnis zurueck (ATTNLENS_MODELS)
// - SampleDir: Gibt Sample-Ausgabeverzeichnis zurueck (ATTNLENS_SAMPLES)
// - LoadTimeout: Gibt Load-Timeout zurueck (ATTNLENS_LOAD_TIMEOUT)
// - ProcessTimeout: Gibt Timeout fuer Extraktion zurueck (ATTNLENS_PROCESS_TIMEOUT)
// - DetectHeads: Head-Klassifikation an/aus (ATTNLENS_DETECT_HEADS)
// - LogLevel: Gibt Log-Level zurueck (ATTNLENS_DEBUG)
//
// Utility-Funktionen und AsMap/Values liegen in config_utils.go
package envconfig

import (
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Host gibt Scheme und Host zurueck
// Konfigurierbar via ATTNLENS_HOST
// Default: http://127.0.0.1:8000
func Host() *url.URL {
	defaultPort := "8000"

	s := strings.TrimSpace(Var("ATTNLENS_HOST"))
	scheme, hostport, ok := strings.Cut(s, "://")
	switch {
	case !ok:
		scheme, hostport = "http", s
	case scheme == "http":
		defaultPort = "80"
	case scheme == "https":
		defaultPort = "443"
	}

	hostport, path, _ := strings.Cut(hostport, "/")
	host, port, err := net.SplitHostPort(hostport)
	if err != nil {
		host, port = "127.0.0.1", defaultPort
		if ip := net.ParseIP(strings.Trim(hostport, "[]")); ip != nil {
			host = ip.String()
		} else if hostport != "" {
			host = hostport
		}
	}

	if n, err := strconv.ParseInt(port, 10, 32); err != nil || n > 65535 || n < 0 {
		slog.Warn("invalid port, using default", "port", port, "default", defaultPort)
		port = defaultPort
	}

	return &url.URL{
		Scheme: scheme,
		Host:   net.JoinHostPort(host, port),
		Path:   path,
	}
}

// AllowedOrigins gibt erlaubte Origins zurueck
// Konfigurierbar via ATTNLENS_ORIGINS (komma-separiert)
// Enthaelt Standard-Origins fuer localhost
func AllowedOrigins() (origins []string) {
	if s := Var("ATTNLENS_ORIGINS"); s != "" {
		origins = strings.Split(s, ",")
	}

	// Standard-Origins fuer das lokale Frontend
	for _, origin := range []string{"localhost", "127.0.0.1", "0.0.0.0"} {
		origins = append(origins,
			fmt.Sprintf("http://%s", origin),
			fmt.Sprintf("https://%s", origin),
			fmt.Sprintf("http://%s", net.JoinHostPort(origin, "*")),
			fmt.Sprintf("https://%s", net.JoinHostPort(origin, "*")),
		)
	}

	origins = append(origins,
		"app://*",
		"file://*",
		"vscode-webview://*",
	)

	return origins
}

// Models gibt das Verzeichnis mit den Model-Gewichten zurueck
// Erwartet pro Model ein Unterverzeichnis im HuggingFace-Layout
// Konfigurierbar via ATTNLENS_MODELS
// Default: $HOME/.attnlens/models
func Models() string {
	if s := Var("ATTNLENS_MODELS"); s != "" {
		return s
	}

	home, err := os.UserHomeDir()
	if err != nil {
		panic(err)
	}

	return filepath.Join(home, ".attnlens", "models")
}

// SampleDir gibt das Ausgabeverzeichnis fuer Sample-Dateien zurueck
// Konfigurierbar via ATTNLENS_SAMPLES
// Default: ./data
func SampleDir() string {
	if s := Var("ATTNLENS_SAMPLES"); s != "" {
		return s
	}

	return "data"
}

// LoadTimeout gibt das Timeout fuer Model-Laden zurueck
// Konfigurierbar via ATTNLENS_LOAD_TIMEOUT
// 0 oder negative Werte = unendlich
// Default: 5 Minuten
func LoadTimeout() (loadTimeout time.Duration) {
	loadTimeout = 5 * time.Minute
	if s := Var("ATTNLENS_LOAD_TIMEOUT"); s != "" {
		if d, err := time.ParseDuration(s); err == nil {
			loadTimeout = d
		} else if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			loadTimeout = time.Duration(n) * time.Second
		}
	}

	if loadTimeout <= 0 {
		return time.Duration(math.MaxInt64)
	}

	return loadTimeout
}

// ProcessTimeout gibt das Timeout fuer eine Extraktion zurueck
// Der Forward-Pass blockiert, das Timeout begrenzt die Wartezeit des Callers
// Konfigurierbar via ATTNLENS_PROCESS_TIMEOUT
// 0 oder negative Werte = unendlich
// Default: 2 Minuten
func ProcessTimeout() (processTimeout time.Duration) {
	processTimeout = 2 * time.Minute
	if s := Var("ATTNLENS_PROCESS_TIMEOUT"); s != "" {
		if d, err := time.ParseDuration(s); err == nil {
			processTimeout = d
		} else if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			processTimeout = time.Duration(n) * time.Second
		}
	}

	if processTimeout <= 0 {
		return time.Duration(math.MaxInt64)
	}

	return processTimeout
}

// DetectHeads steuert ob Head-Rollen klassifiziert werden
// Konfigurierbar via ATTNLENS_DETECT_HEADS
// Default: true
var DetectHeads = BoolWithDefault("ATTNLENS_DETECT_HEADS")

// LogLevel gibt das Log-Level zurueck
// Konfigurierbar via ATTNLENS_DEBUG
// Werte: 0/false = INFO (Default), 1/true = DEBUG, 2 = TRACE
func LogLevel() slog.Level {
	level := slog.LevelInfo
	if s := Var("ATTNLENS_DEBUG"); s != "" {
		if b, _ := strconv.ParseBool(s); b {
			level = slog.LevelDebug
		} else if i, _ := strconv.ParseInt(s, 10, 64); i != 0 {
			level = slog.Level(i * -4)
		}
	}

	return level
}

// Var gibt eine Environment-Variable zurueck
// Entfernt fuehrende/trailing Quotes und Leerzeichen
func Var(key string) string {
	return strings.Trim(strings.TrimSpace(os.Getenv(key)), "\"'")
}
