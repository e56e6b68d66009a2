// Package config loads the gateway's static configuration: server
// bindings, upstream/embedding/backend endpoints, and the per-role
// persona definitions that drive session.update and tool dispatch.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Role identifies an agent persona role. Spec.md §4.6 fixes exactly two.
type Role string

const (
	RoleAnonymous     Role = "A"
	RoleAuthenticated Role = "B"
)

// Config is the top-level gateway configuration.
type Config struct {
	Version int `yaml:"version"`

	Server  ServerConfig  `yaml:"server"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Backend BackendConfig `yaml:"backend"`
	RAG     RAGConfig     `yaml:"rag"`

	Personas map[Role]*PersonaConfig `yaml:"personas"`
}

// ServerConfig configures the HTTP/websocket listener.
type ServerConfig struct {
	Host               string   `yaml:"host"`
	Port               int      `yaml:"port"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
}

// UpstreamConfig configures the realtime model peer (C4).
type UpstreamConfig struct {
	Endpoint       string        `yaml:"endpoint"`
	APIKey         string        `yaml:"api_key"`
	DeploymentName string        `yaml:"deployment_name"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

// EmbeddingConfig configures the embedding service used by the retrieval
// index (C2).
type EmbeddingConfig struct {
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
}

// BackendConfig configures the account API (§6).
type BackendConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// RAGConfig configures chunking, the corpus location, and whether the
// vector store is used at all.
type RAGConfig struct {
	CorpusPath      string `yaml:"corpus_path"`
	StoreDir        string `yaml:"store_dir"`
	UseVectorStore  bool   `yaml:"use_vector_store"`
	ChunkSize       int    `yaml:"chunk_size"`
	ChunkOverlap    int    `yaml:"chunk_overlap"`
	DefaultTopK     int    `yaml:"default_top_k"`
	EmbeddingBatch  int    `yaml:"embedding_batch"`
}

// VADParams carries server-VAD tuning forwarded in session.update.
type VADParams struct {
	Threshold         float64 `yaml:"threshold"`
	PrefixPaddingMs    int     `yaml:"prefix_padding_ms"`
	SilenceDurationMs int     `yaml:"silence_duration_ms"`
	CreateResponse    bool    `yaml:"create_response"`
}

// ToolSchema describes one tool a persona can invoke, mirroring spec.md §3.
type ToolSchema struct {
	Name            string                       `yaml:"name"`
	Description     string                       `yaml:"description"`
	ArgumentsSchema map[string]ToolArgumentSchema `yaml:"arguments_schema"`
}

// ToolArgumentSchema describes one named tool argument.
type ToolArgumentSchema struct {
	Type     string `yaml:"type"`
	Required bool   `yaml:"required"`
}

// PersonaConfig is the immutable per-role persona definition (§3, §4.1).
type PersonaConfig struct {
	RoleID         string       `yaml:"role_id"`
	VoiceID        string       `yaml:"voice_id"`
	IntroUtterance string       `yaml:"intro_utterance"`
	Instructions   string       `yaml:"instructions"`
	Tools          []ToolSchema `yaml:"tools"`
	VAD            VADParams    `yaml:"vad_params"`

	// HandoffDelayMs resolves the spec's Open Question: a single
	// persona-configurable delay in [800, 2500]ms before the gateway
	// emits agent.handoff to the browser after a handoff tool call.
	HandoffDelayMs int `yaml:"handoff_delay_ms"`
}

const (
	minHandoffDelayMs     = 800
	maxHandoffDelayMs     = 2500
	defaultHandoffDelayMs = 1500
)

// Validate fails fast with ErrConfigInvalid if a required field is
// missing, per spec.md §4.1's "on startup, every agent's schema is
// validated" contract.
func (p *PersonaConfig) Validate() error {
	if p == nil {
		return &Error{Kind: ErrConfigInvalid, Msg: "persona config is nil"}
	}
	if strings.TrimSpace(p.RoleID) == "" {
		return &Error{Kind: ErrConfigInvalid, Msg: "persona missing role_id"}
	}
	if strings.TrimSpace(p.VoiceID) == "" {
		return &Error{Kind: ErrConfigInvalid, Msg: fmt.Sprintf("persona %s missing voice_id", p.RoleID)}
	}
	if strings.TrimSpace(p.IntroUtterance) == "" {
		return &Error{Kind: ErrConfigInvalid, Msg: fmt.Sprintf("persona %s missing intro_utterance", p.RoleID)}
	}
	if strings.TrimSpace(p.Instructions) == "" {
		return &Error{Kind: ErrConfigInvalid, Msg: fmt.Sprintf("persona %s missing instructions", p.RoleID)}
	}
	if p.VAD.SilenceDurationMs <= 0 {
		return &Error{Kind: ErrConfigInvalid, Msg: fmt.Sprintf("persona %s missing vad_params.silence_duration_ms", p.RoleID)}
	}
	for _, tool := range p.Tools {
		if strings.TrimSpace(tool.Name) == "" {
			return &Error{Kind: ErrConfigInvalid, Msg: fmt.Sprintf("persona %s has a tool with no name", p.RoleID)}
		}
	}
	return nil
}

// normalizeHandoffDelay clamps HandoffDelayMs into the spec-mandated
// [800, 2500]ms range, defaulting to 1500ms when unset.
func (p *PersonaConfig) normalizeHandoffDelay() {
	if p.HandoffDelayMs <= 0 {
		p.HandoffDelayMs = defaultHandoffDelayMs
		return
	}
	if p.HandoffDelayMs < minHandoffDelayMs {
		p.HandoffDelayMs = minHandoffDelayMs
	}
	if p.HandoffDelayMs > maxHandoffDelayMs {
		p.HandoffDelayMs = maxHandoffDelayMs
	}
}

// ErrKind enumerates the error kinds of spec.md §7.
type ErrKind string

const (
	ErrConfigInvalid        ErrKind = "ConfigInvalid"
	ErrUpstreamConnectFailed ErrKind = "UpstreamConnectFailed"
	ErrUpstreamDropped       ErrKind = "UpstreamDropped"
	ErrClientDropped         ErrKind = "ClientDropped"
	ErrToolBadArguments      ErrKind = "ToolBadArguments"
	ErrToolUnauthenticated   ErrKind = "ToolUnauthenticated"
	ErrBackendTimeout        ErrKind = "BackendTimeout"
	ErrBackendHTTPError      ErrKind = "BackendHttpError"
	ErrEmbeddingFailure      ErrKind = "EmbeddingFailure"
	ErrMalformedUpstreamEvent ErrKind = "MalformedUpstreamEvent"
)

// Error is a kinded error per spec.md §7 (error kinds, not types).
type Error struct {
	Kind ErrKind
	Msg  string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Load reads and validates the gateway config at path, applying
// environment variable overrides per spec.md §6.
func Load(path string) (*Config, error) {
	raw, err := LoadRaw(path)
	if err != nil {
		return nil, &Error{Kind: ErrConfigInvalid, Msg: err.Error()}
	}
	cfg, err := decodeRawConfig(raw)
	if err != nil {
		return nil, &Error{Kind: ErrConfigInvalid, Msg: err.Error()}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays the environment variables named in spec.md §6 onto an
// already-decoded config, so a deployment can avoid checking secrets into
// the config file at all.
func (c *Config) applyEnv() {
	if v := os.Getenv("UPSTREAM_REALTIME_ENDPOINT"); v != "" {
		c.Upstream.Endpoint = v
	}
	if v := os.Getenv("UPSTREAM_API_KEY"); v != "" {
		c.Upstream.APIKey = v
	}
	if v := os.Getenv("UPSTREAM_DEPLOYMENT_NAME"); v != "" {
		c.Upstream.DeploymentName = v
	}
	if v := os.Getenv("EMBEDDING_ENDPOINT"); v != "" {
		c.Embedding.Endpoint = v
	}
	if v := os.Getenv("EMBEDDING_API_KEY"); v != "" {
		c.Embedding.APIKey = v
	}
	if v := os.Getenv("EMBEDDING_MODEL"); v != "" {
		c.Embedding.Model = v
	}
	if v := os.Getenv("BACKEND_API_BASE"); v != "" {
		c.Backend.BaseURL = v
	}
	if v := os.Getenv("USE_VECTOR_STORE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.RAG.UseVectorStore = b
		}
	}
	if v := os.Getenv("HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		c.Server.CORSAllowedOrigins = strings.Split(v, ",")
	}
}

// Validate applies defaults and validates every persona. A missing
// persona or a persona with a missing required field fails fast with
// ErrConfigInvalid, per spec.md §4.1.
func (c *Config) Validate() error {
	if c.Version > 0 {
		if err := ValidateVersion(c.Version); err != nil {
			return &Error{Kind: ErrConfigInvalid, Msg: err.Error()}
		}
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Upstream.ConnectTimeout <= 0 {
		c.Upstream.ConnectTimeout = 10 * time.Second
	}
	if c.Backend.Timeout <= 0 {
		c.Backend.Timeout = 5 * time.Second
	}
	if c.RAG.ChunkSize <= 0 {
		c.RAG.ChunkSize = 500
	}
	if c.RAG.ChunkOverlap <= 0 {
		c.RAG.ChunkOverlap = 100
	}
	if c.RAG.DefaultTopK <= 0 {
		c.RAG.DefaultTopK = 3
	}
	if c.RAG.EmbeddingBatch <= 0 {
		c.RAG.EmbeddingBatch = 50
	}

	if c.Personas == nil {
		return &Error{Kind: ErrConfigInvalid, Msg: "no personas configured"}
	}
	for _, role := range []Role{RoleAnonymous, RoleAuthenticated} {
		persona, ok := c.Personas[role]
		if !ok {
			return &Error{Kind: ErrConfigInvalid, Msg: fmt.Sprintf("missing persona for role %s", role)}
		}
		if err := persona.Validate(); err != nil {
			return err
		}
		persona.normalizeHandoffDelay()
	}
	return nil
}

// PersonaFor returns the persona configured for role.
func (c *Config) PersonaFor(role Role) *PersonaConfig {
	if c == nil || c.Personas == nil {
		return nil
	}
	return c.Personas[role]
}
