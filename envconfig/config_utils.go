// config_utils.go - Utility-Funktionen und Export fuer Konfiguration
//
// Dieses Modul enthaelt:
// - BoolWithDefault/Bool: Boolean-Getter mit Default-Wert
// - String: String-Getter
// - EnvVar: Struktur fuer Environment-Variablen-Info
// - AsMap: Gibt alle Konfigurationen als Map zurueck
// - Values: Gibt alle Konfigurationswerte als String-Map zurueck
package envconfig

import (
	"fmt"
	"strconv"
)

// BoolWithDefault gibt eine Funktion zurueck, die einen Bool mit Default-Wert liest
func BoolWithDefault(k string) func(defaultValue bool) bool {
	return func(defaultValue bool) bool {
		if s := Var(k); s != "" {
			b, err := strconv.ParseBool(s)
			if err != nil {
				return true
			}
			return b
		}
		return defaultValue
	}
}

// Bool gibt eine Funktion zurueck, die einen Bool liest (Default: false)
func Bool(k string) func() bool {
	withDefault := BoolWithDefault(k)
	return func() bool {
		return withDefault(false)
	}
}

// String gibt eine Funktion zurueck, die einen String liest
func String(s string) func() string {
	return func() string {
		return Var(s)
	}
}

// EnvVar repraesentiert eine Environment-Variable mit Metadaten
type EnvVar struct {
	Name        string
	Value       any
	Description string
}

// AsMap gibt alle Konfigurationen als Map zurueck
// Enthaelt Namen, aktuelle Werte und Beschreibungen
func AsMap() map[string]EnvVar {
	return map[string]EnvVar{
		"ATTNLENS_DEBUG":           {"ATTNLENS_DEBUG", LogLevel(), "Show additional debug information (e.g. ATTNLENS_DEBUG=1)"},
		"ATTNLENS_DETECT_HEADS":    {"ATTNLENS_DETECT_HEADS", DetectHeads(true), "Classify attention head roles per request (default: true)"},
		"ATTNLENS_HOST":            {"ATTNLENS_HOST", Host(), "IP Address for the attnlens server (default 127.0.0.1:8000)"},
		"ATTNLENS_LOAD_TIMEOUT":    {"ATTNLENS_LOAD_TIMEOUT", LoadTimeout(), "How long to allow model loads to run before giving up (default \"5m\")"},
		"ATTNLENS_MODELS":          {"ATTNLENS_MODELS", Models(), "The path to the model weights directory"},
		"ATTNLENS_ORIGINS":         {"ATTNLENS_ORIGINS", AllowedOrigins(), "A comma separated list of allowed origins"},
		"ATTNLENS_PROCESS_TIMEOUT": {"ATTNLENS_PROCESS_TIMEOUT", ProcessTimeout(), "Upper bound for a single extraction request (default \"2m\")"},
		"ATTNLENS_SAMPLES":         {"ATTNLENS_SAMPLES", SampleDir(), "Output directory for pre-generated sample files (default \"data\")"},
	}
}

// Values gibt alle Konfigurationswerte als String-Map fuers Logging zurueck
func Values() map[string]string {
	vals := make(map[string]string)
	for k, v := range AsMap() {
		vals[k] = fmt.Sprintf("%v", v.Value)
	}
	return vals
}
