package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

const (
	// EnvPrefix is stripped from environment variables before they are
	// mapped onto config keys, e.g. KMLEAGLE_OSRM_BASEURL -> osrm.baseUrl.
	EnvPrefix = "KMLEAGLE_"

	defaultName = "config"
)

// DefaultSearchPaths are tried in order, relative to the working directory.
var DefaultSearchPaths = []string{".", "config", "../config", "../../config"}

type Config struct {
	Server   Server   `json:"server" yaml:"server"`
	OSRM     OSRM     `json:"osrm" yaml:"osrm"`
	TSP      TSP      `json:"tsp" yaml:"tsp"`
	Simplify Simplify `json:"simplify" yaml:"simplify"`
	Log      Log      `json:"log" yaml:"log"`
	Database Database `json:"database" yaml:"database"`
}

type Server struct {
	Addr         string        `json:"addr" yaml:"addr"`
	ReadTimeout  time.Duration `json:"readTimeout" yaml:"readTimeout"`
	WriteTimeout time.Duration `json:"writeTimeout" yaml:"writeTimeout"`
	IdleTimeout  time.Duration `json:"idleTimeout" yaml:"idleTimeout"`
}

// OSRM configures the remote routing service.
type OSRM struct {
	BaseURL string `json:"baseUrl" yaml:"baseUrl"`
	// Profile is the routing profile path segment, usually "driving".
	Profile           string        `json:"profile" yaml:"profile"`
	Timeout           time.Duration `json:"timeout" yaml:"timeout"`
	RequestsPerSecond float64       `json:"requestsPerSecond" yaml:"requestsPerSecond"`
	// MaxRouteCoordinates is both the single-call route threshold and the
	// chunk size for long inputs.
	MaxRouteCoordinates int `json:"maxRouteCoordinates" yaml:"maxRouteCoordinates"`
	MaxMatchCoordinates int `json:"maxMatchCoordinates" yaml:"maxMatchCoordinates"`
}

type TSP struct {
	CollectionRadius float64       `json:"collectionRadius" yaml:"collectionRadius"`
	TimeBudget       time.Duration `json:"timeBudget" yaml:"timeBudget"`
}

// Simplify holds the route cleaning thresholds, all in meters.
type Simplify struct {
	MinDistance       float64 `json:"minDistance" yaml:"minDistance"`
	MaxGap            float64 `json:"maxGap" yaml:"maxGap"`
	DisorderGap       float64 `json:"disorderGap" yaml:"disorderGap"`
	KeepOrderDistance float64 `json:"keepOrderDistance" yaml:"keepOrderDistance"`
}

type Log struct {
	Pretty bool   `json:"pretty" yaml:"pretty"`
	Level  string `json:"level" yaml:"level"`
}

type Database struct {
	// Path of the sqlite file. Empty means ~/.kml-eagle/data.db.
	Path string `json:"path" yaml:"path"`
}

// Default returns the built-in configuration used when no file is present.
func Default() *Config {
	return &Config{
		Server: Server{
			Addr:         "localhost:8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 2 * time.Minute,
			IdleTimeout:  60 * time.Second,
		},
		OSRM: OSRM{
			BaseURL:             "https://router.project-osrm.org",
			Profile:             "driving",
			Timeout:             30 * time.Second,
			RequestsPerSecond:   5,
			MaxRouteCoordinates: 25,
			MaxMatchCoordinates: 100,
		},
		TSP: TSP{
			CollectionRadius: 20,
		},
		Simplify: Simplify{
			MinDistance:       5,
			MaxGap:            100_000,
			DisorderGap:       50_000,
			KeepOrderDistance: 25_000,
		},
		Log: Log{Level: "info"},
	}
}

// Load reads config.yaml from the default search paths, then applies
// KMLEAGLE_* environment overrides on top of Default().
func Load() (*Config, error) {
	return LoadFrom(defaultName, os.Environ(), DefaultSearchPaths...)
}

// LoadFrom is Load with an explicit file base name, environment and search
// paths. A missing file is not an error.
func LoadFrom(name string, environ []string, searchPaths ...string) (*Config, error) {
	cfg := Default()
	k := koanf.New(".")

	if path, ok := findFile(name, searchPaths); ok {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "read %s config failed", path)
		}
	}

	existing := defaultKeys()
	for key, value := range k.Raw() {
		existing[key] = value
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(key, value string) (string, any) {
			return canonicalizeEnvKey(strings.TrimPrefix(key, EnvPrefix), existing), value
		},
		EnvironFunc: func() []string { return environ },
	}), nil); err != nil {
		return nil, errors.Wrap(err, "load env variables failed")
	}

	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
			),
			MatchName: func(mapKey, fieldName string) bool {
				return strings.EqualFold(mapKey, fieldName)
			},
		},
	}); err != nil {
		return nil, errors.Wrap(err, "unmarshal config failed")
	}

	return cfg, nil
}

func findFile(name string, searchPaths []string) (string, bool) {
	for _, dir := range searchPaths {
		candidate := filepath.Join(dir, name+".yaml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true
		}
	}

	return "", false
}

// defaultKeys gives the env canonicalizer the camelCase key tree even when no
// yaml file was loaded.
func defaultKeys() map[string]any {
	return map[string]any{
		"server":   map[string]any{"addr": "", "readTimeout": "", "writeTimeout": "", "idleTimeout": ""},
		"osrm":     map[string]any{"baseUrl": "", "profile": "", "timeout": "", "requestsPerSecond": "", "maxRouteCoordinates": "", "maxMatchCoordinates": ""},
		"tsp":      map[string]any{"collectionRadius": "", "timeBudget": ""},
		"simplify": map[string]any{"minDistance": "", "maxGap": "", "disorderGap": "", "keepOrderDistance": ""},
		"log":      map[string]any{"pretty": "", "level": ""},
		"database": map[string]any{"path": ""},
	}
}

func canonicalizeEnvKey(rawKey string, existing map[string]any) string {
	segments := strings.Split(strings.ToLower(rawKey), "_")
	canonical := make([]string, 0, len(segments))
	current := existing

	for _, segment := range segments {
		if segment == "" {
			continue
		}

		if matched, next, ok := findExistingSegment(current, segment); ok {
			canonical = append(canonical, matched)
			current = next
		} else {
			canonical = append(canonical, segment)
			current = nil
		}
	}

	return strings.Join(canonical, ".")
}

func findExistingSegment(current map[string]any, segment string) (matched string, next map[string]any, ok bool) {
	if len(current) == 0 {
		return "", nil, false
	}

	needle := normalizeToken(segment)
	for key, value := range current {
		if normalizeToken(key) != needle {
			continue
		}

		child, _ := value.(map[string]any)

		return key, child, true
	}

	return "", nil, false
}

func normalizeToken(s string) string {
	var normalized strings.Builder
	normalized.Grow(len(s))

	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			continue
		}
		normalized.WriteRune(unicode.ToLower(r))
	}

	return normalized.String()
}
