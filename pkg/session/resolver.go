// Package session resolves the Advent of Code session token used to
// authenticate leaderboard requests.
//
// Resolution is a pure function over an Input snapshot: invocation
// arguments, environment and the optional config file content. The first
// source that yields a value wins; sources are never merged.
package session

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/v2"
)

const (
	// EnvVar is the environment variable holding the session token.
	EnvVar = "AOC_SESSION"

	// DefaultConfigFile is the config file consulted when neither an argument
	// nor EnvVar supplies a token. Relative to the working directory.
	DefaultConfigFile = "aoc_leaderboard_config.json"

	// FileKey is the key holding the token inside the config file.
	FileKey = "session"
)

// Source identifies where a token came from.
type Source string

const (
	SourceArgument Source = "argument"
	SourceEnv      Source = "env"
	SourceFile     Source = "file"
)

// Token is a resolved session credential.
type Token struct {
	Value  string
	Source Source
}

// String hides the token value so a Token can be logged safely.
func (t Token) String() string {
	return fmt.Sprintf("session token from %s", t.Source)
}

// Input is everything the resolver looks at.
type Input struct {
	// Args are the invocation arguments without the program name.
	Args []string

	// Env is a snapshot of the environment.
	Env map[string]string

	// FilePath is the config file location, used for format detection and
	// error messages.
	FilePath string

	// FileContent is the raw config file, nil when the file does not exist.
	FileContent []byte
}

// Resolve returns the session token following argument > env > file
// precedence. It returns ErrNotFound when no source yields a token and
// ErrMalformedFile when the config file cannot be parsed.
func Resolve(in Input) (Token, error) {
	if len(in.Args) > 0 {
		return Token{Value: in.Args[0], Source: SourceArgument}, nil
	}

	if v := in.Env[EnvVar]; v != "" {
		return Token{Value: v, Source: SourceEnv}, nil
	}

	if in.FileContent != nil {
		v, err := fromFile(in.FilePath, in.FileContent)
		if err != nil {
			return Token{}, err
		}
		if v != "" {
			return Token{Value: v, Source: SourceFile}, nil
		}
	}

	return Token{}, ErrNotFound
}

// fromFile extracts the session key from config file content.
func fromFile(path string, content []byte) (string, error) {
	var parser koanf.Parser = json.Parser()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	}

	values, err := parser.Unmarshal(content)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrMalformedFile, displayPath(path), err)
	}

	raw, ok := values[FileKey]
	if !ok || raw == nil {
		return "", nil
	}

	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s: %q must be a string, got %T", ErrMalformedFile, displayPath(path), FileKey, raw)
	}
	return s, nil
}

// ReadFile returns the content of the config file at path, or nil without
// error when the file does not exist.
func ReadFile(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if b == nil {
		b = []byte{}
	}
	return b, nil
}

// EnvFromOS snapshots the process environment.
func EnvFromOS() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		env[k] = v
	}
	return env
}

// Diagnostic is the message printed when no source yields a token.
func Diagnostic(configPath string) string {
	if configPath == "" {
		configPath = DefaultConfigFile
	}
	return fmt.Sprintf("Error: AoC session not found. Provide it as the first argument, in the %s environment variable, or as %q in %s.",
		EnvVar, FileKey, configPath)
}

func displayPath(path string) string {
	if path == "" {
		return "config file"
	}
	return path
}
