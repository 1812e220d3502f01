// Package credentials resolves the API key for the chat completion provider.
//
// Lookup order is the environment, then the first positional argument, then
// dotenv files. The first non-empty value wins.
package credentials

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// DefaultEnvVar is the variable consulted when no provider-specific one applies.
const DefaultEnvVar = "XAI_API_KEY"

var envVars = map[string]string{
	"xai":        "XAI_API_KEY",
	"openai":     "OPENAI_API_KEY",
	"openrouter": "OPENROUTER_API_KEY",
}

// ErrNotFound is returned when no source supplies a credential.
var ErrNotFound = errors.New("api key not found")

// Source identifies where a credential came from.
type Source string

const (
	SourceEnv      Source = "env"
	SourceArgument Source = "argument"
	SourceDotenv   Source = "dotenv"
)

// Credential is a resolved API key.
type Credential struct {
	Key    string
	Source Source
	// Path is the dotenv file the key was read from, if any.
	Path string
}

// Sources describes where to look. LookupEnv defaults to os.LookupEnv and
// EnvVar to DefaultEnvVar.
type Sources struct {
	EnvVar      string
	LookupEnv   func(string) (string, bool)
	Args        []string
	DotenvPaths []string
}

// EnvVarFor returns the key variable for a provider name.
func EnvVarFor(provider string) string {
	if v, ok := envVars[strings.ToLower(provider)]; ok {
		return v
	}
	return DefaultEnvVar
}

// DefaultSources looks at the process environment, os.Args, and a .env file
// next to the executable followed by one in the working directory.
func DefaultSources(envVar string) Sources {
	var paths []string
	if exe, err := os.Executable(); err == nil {
		paths = append(paths, filepath.Join(filepath.Dir(exe), ".env"))
	}
	paths = append(paths, ".env")

	var args []string
	if len(os.Args) > 1 {
		args = os.Args[1:]
	}

	return Sources{
		EnvVar:      envVar,
		LookupEnv:   os.LookupEnv,
		Args:        args,
		DotenvPaths: paths,
	}
}

// Resolve returns the first credential found, or ErrNotFound.
func Resolve(s Sources) (Credential, error) {
	envVar := s.EnvVar
	if envVar == "" {
		envVar = DefaultEnvVar
	}
	lookup := s.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}

	if v, ok := lookup(envVar); ok && v != "" {
		return Credential{Key: v, Source: SourceEnv}, nil
	}

	if len(s.Args) > 0 && s.Args[0] != "" {
		return Credential{Key: s.Args[0], Source: SourceArgument}, nil
	}

	for _, path := range s.DotenvPaths {
		key, err := readDotenvKey(path, envVar)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return Credential{}, fmt.Errorf("failed to read %s: %w", path, err)
		}
		if key != "" {
			return Credential{Key: key, Source: SourceDotenv, Path: path}, nil
		}
	}

	return Credential{}, ErrNotFound
}

// readDotenvKey returns the value of the first line in path that defines key.
// Lines are parsed one at a time so that a later duplicate cannot override
// an earlier definition.
func readDotenvKey(path, key string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || !strings.Contains(line, "=") {
			continue
		}
		values, err := godotenv.Unmarshal(line)
		if err != nil {
			continue
		}
		if v, ok := values[key]; ok {
			return v, nil
		}
	}
	return "", scanner.Err()
}

// Usage is the remediation text printed when no credential is found.
func Usage(envVar, program string) string {
	if envVar == "" {
		envVar = DefaultEnvVar
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Error: %s not found\n", envVar)
	b.WriteString("Set it via:\n")
	fmt.Fprintf(&b, "  1. Environment: export %s=your_key\n", envVar)
	fmt.Fprintf(&b, "  2. Command line: %s YOUR_KEY\n", program)
	fmt.Fprintf(&b, "  3. Create .env file with: %s=your_key\n", envVar)
	return b.String()
}
