// Package config parses command-line flags via go-flags and an
// optional YAML overlay: flags set the connection-level concerns (db
// path, mode), the YAML file overlays tuning knobs (token limit,
// tokenizer) that are awkward to spell on a command line.
package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/falcon-search/falcon/ferr"
	"github.com/falcon-search/falcon/ngram"
)

// Flags is the direct decode target for go-flags, mirroring the field
// shape of cmd/mysqldef's parseOptions option struct.
type Flags struct {
	DB             string   `short:"d" long:"db" description:"Database file path" value-name:"path"`
	Query          string   `short:"q" long:"query" description:"Run a search and print results" value-name:"query"`
	Title          string   `short:"t" long:"title" description:"Title of a document to add" value-name:"title"`
	Content        string   `short:"c" long:"content" description:"Content of a document to add" value-name:"content"`
	Tokenizer      string   `short:"z" long:"tokenizer" description:"Bigram|Trigram" value-name:"kind" default:"Bigram"`
	Memory         bool     `short:"M" long:"memory" description:"Run in an in-memory store"`
	HTTP           bool     `short:"H" long:"http" description:"Run the HTTP server"`
	Port           int      `short:"p" long:"port" description:"HTTP port" value-name:"port" default:"8888"`
	DumpIndex      bool     `short:"I" long:"dump-index" description:"Dump the index table"`
	DumpDocuments  bool     `short:"C" long:"dump-documents" description:"Dump the documents table"`
	SelfTest       bool     `short:"T" long:"selftest" description:"Run built-in smoke tests"`
	Debug          bool     `long:"debug" description:"Enable debug trace logging"`
	ConfigFile     string   `long:"config" description:"YAML file overlaying tuning knobs" value-name:"path"`
	Help           bool     `long:"help" description:"Show this help"`
	Version        bool     `long:"version" description:"Show this version"`
	Positional struct {
		Files []string `positional-arg-name:"file" description:"batch files, one 'title<TAB>content' per line"`
	} `positional-args:"yes"`
}

// Overlay is the YAML-decoded tuning overlay, decoded with strict
// field checking via yaml.Decoder.KnownFields(true).
type Overlay struct {
	TokenPositionLimit uint64 `yaml:"token_position_limit"`
	Tokenizer          string `yaml:"tokenizer"`
}

// Config is the fully resolved, engine-ready configuration: Flags with
// ConfigFile applied on top, and Tokenizer resolved to its ngram.Kind.
type Config struct {
	DB                 string
	Query              string
	Title              string
	Content            string
	Tokenizer          ngram.Kind
	Memory             bool
	HTTP               bool
	Port               int
	DumpIndex          bool
	DumpDocuments      bool
	SelfTest           bool
	Debug              bool
	TokenPositionLimit uint64
	Files              []string
}

// Resolve turns parsed Flags into a Config, applying ConfigFile as an
// overlay: overlay values win over flag defaults.
func Resolve(flags Flags) (Config, error) {
	tokenizerName := flags.Tokenizer
	var overlay Overlay
	if flags.ConfigFile != "" {
		var err error
		overlay, err = parseOverlay(flags.ConfigFile)
		if err != nil {
			return Config{}, err
		}
		if overlay.Tokenizer != "" {
			tokenizerName = overlay.Tokenizer
		}
	}

	kind, err := ngram.FromName(tokenizerName)
	if err != nil {
		return Config{}, ferr.Config("config.Resolve", err)
	}

	return Config{
		DB:                 flags.DB,
		Query:              flags.Query,
		Title:              flags.Title,
		Content:            flags.Content,
		Tokenizer:          kind,
		Memory:             flags.Memory,
		HTTP:               flags.HTTP,
		Port:               flags.Port,
		DumpIndex:          flags.DumpIndex,
		DumpDocuments:      flags.DumpDocuments,
		SelfTest:           flags.SelfTest,
		Debug:              flags.Debug,
		TokenPositionLimit: overlay.TokenPositionLimit,
		Files:              flags.Positional.Files,
	}, nil
}

func parseOverlay(path string) (Overlay, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return Overlay{}, ferr.Config("config.parseOverlay: read", err)
	}

	var overlay Overlay
	dec := yaml.NewDecoder(bytes.NewReader(buf))
	dec.KnownFields(true)
	if err := dec.Decode(&overlay); err != nil {
		return Overlay{}, ferr.Config("config.parseOverlay: decode", fmt.Errorf("%s: %w", path, err))
	}
	return overlay, nil
}
