// Package config builds process settings from, strongest first:
// positional arguments, environment variables, a .env file.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// environment keys
const (
	EnvLookupPort   = "MDB_PORT"
	EnvDatabase     = "MDB_DATABASE"
	EnvHTTPPort     = "HTTP_PORT"
	EnvWebRoot      = "HTTP_WEB_ROOT"
	EnvMdbHost      = "MDB_HOST"
	EnvUpstreamPort = "MDB_UPSTREAM_PORT"
	EnvLogLevel     = "LOG_LEVEL"
)

// ErrUsage means the command line was wrong; main prints usage and exits 1
var ErrUsage = errors.New("usage")

// Lookup is the mdb-lookup-server setup
type Lookup struct {
	Port     int
	Database string
	LogLevel string
}

// HTTP is the http-server setup
type HTTP struct {
	Port     int
	WebRoot  string
	MdbHost  string
	MdbPort  int
	LogLevel string
}

// source merges the environment over a .env file
type source struct {
	dotenv map[string]string
}

func newSource(envFile string) (*source, error) {
	m, err := godotenv.Read(envFile)
	if errors.Is(err, fs.ErrNotExist) {
		return &source{dotenv: map[string]string{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", envFile, err)
	}
	return &source{dotenv: m}, nil
}

func (s *source) get(key string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return s.dotenv[key]
}

// common flags of both binaries
type flags struct {
	set      *flag.FlagSet
	envFile  *string
	logLevel *string
}

func newFlags(name string, out io.Writer, usage string) *flags {
	set := flag.NewFlagSet(name, flag.ContinueOnError)
	set.SetOutput(out)
	f := &flags{
		set:      set,
		envFile:  set.String("env", ".env", "optional `file` with KEY=value settings"),
		logLevel: set.String("log-level", "", "debug, info, warn or error (default $"+EnvLogLevel+" or info)"),
	}
	set.Usage = func() {
		fmt.Fprintf(out, "usage: %s [flags] %s\n", name, usage)
		set.PrintDefaults()
	}
	return f
}

// parse flags and open the settings source
func (f *flags) parse(args []string) (*source, error) {
	if err := f.set.Parse(args); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUsage, err)
	}
	return newSource(*f.envFile)
}

func (f *flags) level(src *source) string {
	if *f.logLevel != "" {
		return *f.logLevel
	}
	if v := src.get(EnvLogLevel); v != "" {
		return v
	}
	return "info"
}

// pick positional args if given, env otherwise
func positional(set *flag.FlagSet, src *source, keys ...string) ([]string, error) {
	switch set.NArg() {
	case len(keys):
		return set.Args(), nil
	case 0:
		vals := make([]string, len(keys))
		for i, k := range keys {
			if vals[i] = src.get(k); vals[i] == "" {
				set.Usage()
				return nil, fmt.Errorf("%w: missing argument, $%s not set", ErrUsage, k)
			}
		}
		return vals, nil
	default:
		set.Usage()
		return nil, fmt.Errorf("%w: want %d arguments, got %d", ErrUsage, len(keys), set.NArg())
	}
}

func parsePort(what, s string) (int, error) {
	p, err := strconv.Atoi(s)
	if err != nil || p < 1 || p > 65535 {
		return 0, fmt.Errorf("%w: bad %s %q", ErrUsage, what, s)
	}
	return p, nil
}

// LoadLookup reads: mdb-lookup-server [flags] <server-port> <database>
func LoadLookup(name string, args []string, out io.Writer) (Lookup, error) {
	f := newFlags(name, out, "<server-port> <database>")
	src, err := f.parse(args)
	if err != nil {
		return Lookup{}, err
	}

	vals, err := positional(f.set, src, EnvLookupPort, EnvDatabase)
	if err != nil {
		return Lookup{}, err
	}
	port, err := parsePort("server-port", vals[0])
	if err != nil {
		return Lookup{}, err
	}

	return Lookup{Port: port, Database: vals[1], LogLevel: f.level(src)}, nil
}

// LoadHTTP reads: http-server [flags] <http-port> <web-root> <mdb-host> <mdb-port>
func LoadHTTP(name string, args []string, out io.Writer) (HTTP, error) {
	f := newFlags(name, out, "<http-port> <web-root> <mdb-host> <mdb-port>")
	src, err := f.parse(args)
	if err != nil {
		return HTTP{}, err
	}

	vals, err := positional(f.set, src, EnvHTTPPort, EnvWebRoot, EnvMdbHost, EnvUpstreamPort)
	if err != nil {
		return HTTP{}, err
	}
	port, err := parsePort("http-port", vals[0])
	if err != nil {
		return HTTP{}, err
	}
	mdbPort, err := parsePort("mdb-port", vals[3])
	if err != nil {
		return HTTP{}, err
	}

	return HTTP{
		Port:     port,
		WebRoot:  vals[1],
		MdbHost:  vals[2],
		MdbPort:  mdbPort,
		LogLevel: f.level(src),
	}, nil
}
