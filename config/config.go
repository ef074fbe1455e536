// Package config implements the Config record and repository-open
// wiring of spec §6: `config.json` at the repository root names the
// user identity, the main branch, HEAD, and the recognized Transform
// Pipeline options, and Open composes the full storage stack — byte
// map, transform pipeline, sharding, object database, ref store,
// commit engine — the way the teacher's `merkletree.NewMerkleTree`
// composes one Storage into one *MerkleTree, generalized here to the
// several storage roles a repository needs (objects vs. refs).
package config

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"github.com/jmosbacher/igit-go/bytemap/fs"
	"github.com/jmosbacher/igit-go/igiterr"
	"github.com/jmosbacher/igit-go/metrics"
	"github.com/jmosbacher/igit-go/objectdb"
	"github.com/jmosbacher/igit-go/refs"
	"github.com/jmosbacher/igit-go/repo"
	"github.com/jmosbacher/igit-go/shard"
	"github.com/jmosbacher/igit-go/transform"
)

// User identifies who is committing, matching repo.User's shape — kept
// as a separate type since the Config record is a wire/persistence
// concern, not a commit-authorship one, even though the two structs
// are field-for-field identical (spec §6's `user: {username, email}`).
type User struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Config is the persisted repository configuration (spec §6), loaded
// from and saved to `<root>/config.json` verbatim as JSON — the wire
// format spec.md names explicitly, not a stand-in for a missing
// library.
type Config struct {
	User             User                   `json:"user"`
	MainBranch       string                 `json:"main_branch"`
	HEAD             string                 `json:"HEAD"`
	RootPath         string                 `json:"root_path"`
	IgitPath         string                 `json:"igit_path"`
	Serializer       string                 `json:"serializer"`
	HashFunc         string                 `json:"hash_func"`
	Compression      string                 `json:"compression"`
	Encryption       string                 `json:"encryption"`
	EncryptionKwargs map[string]interface{} `json:"encryption_kwargs,omitempty"`
}

const configFileName = "config.json"
const igitDirName = ".igit"

// defaultConfig returns the Config a brand-new repository at root
// starts with: the "label" tree variant's natural home, main/main as
// the main branch and starting HEAD, and every Transform Pipeline
// option at its "none"/"json" default (spec §4.B: "a layer configured
// with none is the identity").
func defaultConfig(root string) Config {
	abs, err := filepath.Abs(root)
	if err != nil {
		abs = root
	}
	return Config{
		MainBranch:  "main",
		HEAD:        "main",
		RootPath:    abs,
		IgitPath:    filepath.Join(abs, igitDirName),
		Serializer:  "json",
		HashFunc:    "md5",
		Compression: "none",
		Encryption:  "none",
	}
}

// Load reads and parses `<root>/config.json`.
func Load(root string) (Config, error) {
	data, err := os.ReadFile(filepath.Join(root, configFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, igiterr.NotFound(configFileName)
		}
		return Config{}, igiterr.BackendIO("read config", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, igiterr.DataCorruption("config.json", err)
	}
	return cfg, nil
}

// Save writes cfg to `<root>/config.json`, pretty-printed for a
// human-readable on-disk record (spec §6: "Config record (JSON)").
func (c Config) Save(root string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return igiterr.DataCorruption("config.json", err)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return igiterr.BackendIO("mkdir", err)
	}
	if err := os.WriteFile(filepath.Join(root, configFileName), data, 0o644); err != nil {
		return igiterr.BackendIO("write config", err)
	}
	return nil
}

// encryptionKey extracts the 32-byte key an "authenticated" encryption
// config carries in encryption_kwargs (hex-encoded under "key"), the
// one piece of the Config record spec §6 leaves backend-specific.
func (c Config) encryptionKey() ([]byte, error) {
	if c.Encryption == "" || c.Encryption == "none" {
		return nil, nil
	}
	raw, ok := c.EncryptionKwargs["key"].(string)
	if !ok {
		return nil, igiterr.UnsupportedVariant("encryption_kwargs.key missing")
	}
	key, err := hex.DecodeString(raw)
	if err != nil {
		return nil, igiterr.UnsupportedVariant("encryption_kwargs.key must be hex-encoded")
	}
	if len(key) != 32 {
		return nil, igiterr.UnsupportedVariant("encryption key must be 32 bytes")
	}
	return key, nil
}

// Repository bundles a repository's storage stack and its Commit
// Engine, the unit config.Open hands back to a caller.
type Repository struct {
	Config  Config
	ODB     *objectdb.DB
	Refs    *refs.Store
	Engine  *repo.Engine
	Metrics *metrics.Recorder
}

// Open loads (or, if config.json does not yet exist, creates) the
// repository rooted at root, wiring together the Byte Map, Transform
// Pipeline, Key-Sharding Map, Object Database, Ref Store, and Commit
// Engine per spec §6's on-disk layout:
//
//	<root>/config.json
//	<root>/.igit/objects/XX/YY...
//	<root>/.igit/refs/heads|tags|remotes/<name>
func Open(ctx context.Context, root string) (*Repository, error) {
	cfg, err := Load(root)
	if err != nil {
		if !errors.Is(err, igiterr.ErrNotFound) {
			return nil, err
		}
		cfg = defaultConfig(root)
		if err := cfg.Save(root); err != nil {
			return nil, err
		}
	}

	key, err := cfg.encryptionKey()
	if err != nil {
		return nil, err
	}
	pipeline, err := transform.New(cfg.Serializer, cfg.Compression, cfg.Encryption, key)
	if err != nil {
		return nil, err
	}

	repoLog := log.StandardLogger().WithField("repo", cfg.RootPath)

	objectsRoot, err := fs.New(filepath.Join(cfg.IgitPath, "objects"))
	if err != nil {
		return nil, err
	}
	odb := objectdb.New(shard.New(objectsRoot), pipeline, true)
	odb.SetLogger(repoLog)

	refsRoot, err := fs.New(filepath.Join(cfg.IgitPath, "refs"))
	if err != nil {
		return nil, err
	}
	refStore := refs.New(refs.FromByteMap(refsRoot), pipeline)

	rec, err := metrics.New(prometheus.NewRegistry())
	if err != nil {
		return nil, err
	}
	odb.SetMetrics(rec)
	refStore.SetMetrics(rec)

	engine, err := repo.Open(ctx, odb, refStore, cfg.HEAD, "label")
	if err != nil {
		return nil, err
	}
	engine.SetLogger(repoLog)

	return &Repository{Config: cfg, ODB: odb, Refs: refStore, Engine: engine, Metrics: rec}, nil
}
