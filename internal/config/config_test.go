package config

import (
	"os"
	"path/filepath"
	"testing"
)

func validPersonaYAML(roleID, voiceID string) string {
	return `
role_id: ` + roleID + `
voice_id: ` + voiceID + `
intro_utterance: "Hi there"
instructions: "Be helpful."
tools: []
vad_params:
  threshold: 0.5
  prefix_padding_ms: 300
  silence_duration_ms: 500
  create_response: true
`
}

func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	body := `
server:
  host: "0.0.0.0"
  port: 9000
upstream:
  endpoint: "wss://upstream.example.com/v1/realtime"
personas:
  A:
` + indent(validPersonaYAML("general", "alloy"), "    ") + `
  B:
` + indent(validPersonaYAML("account-manager", "verse"), "    ")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func indent(s, prefix string) string {
	out := ""
	for _, line := range splitLines(s) {
		if line == "" {
			out += "\n"
			continue
		}
		out += prefix + line + "\n"
	}
	return out
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i, r := range s {
		if r == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}

func TestLoad_ValidConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 9000 {
		t.Fatalf("expected port 9000, got %d", cfg.Server.Port)
	}
	if persona := cfg.PersonaFor(RoleAnonymous); persona == nil || persona.RoleID != "general" {
		t.Fatalf("expected role A persona, got %+v", persona)
	}
	if persona := cfg.PersonaFor(RoleAuthenticated); persona.VAD.SilenceDurationMs != 500 {
		t.Fatalf("expected silence_duration_ms 500, got %+v", persona.VAD)
	}
	if persona := cfg.PersonaFor(RoleAuthenticated); persona.HandoffDelayMs != defaultHandoffDelayMs {
		t.Fatalf("expected default handoff delay, got %d", persona.HandoffDelayMs)
	}
}

func TestLoad_MissingPersonaFieldFailsFast(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := `
personas:
  A:
    role_id: "general"
  B:
    role_id: "account-manager"
    voice_id: "verse"
    intro_utterance: "Hi"
    instructions: "Be helpful."
    vad_params:
      silence_duration_ms: 500
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected ConfigInvalid error for missing voice_id")
	}
	cfgErr, ok := err.(*Error)
	if !ok || cfgErr.Kind != ErrConfigInvalid {
		t.Fatalf("expected ErrConfigInvalid, got %v", err)
	}
}

func TestLoad_MissingRoleFailsFast(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := `
personas:
  A:
` + indent(validPersonaYAML("general", "alloy"), "    ")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected ConfigInvalid error for missing role B persona")
	}
}

func TestPersonaConfig_HandoffDelayClamped(t *testing.T) {
	p := &PersonaConfig{HandoffDelayMs: 100}
	p.normalizeHandoffDelay()
	if p.HandoffDelayMs != minHandoffDelayMs {
		t.Fatalf("expected clamp to min, got %d", p.HandoffDelayMs)
	}

	p = &PersonaConfig{HandoffDelayMs: 10000}
	p.normalizeHandoffDelay()
	if p.HandoffDelayMs != maxHandoffDelayMs {
		t.Fatalf("expected clamp to max, got %d", p.HandoffDelayMs)
	}
}

func TestConfig_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir)

	t.Setenv("PORT", "7001")
	t.Setenv("USE_VECTOR_STORE", "false")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com,https://b.example.com")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 7001 {
		t.Fatalf("expected env override port 7001, got %d", cfg.Server.Port)
	}
	if cfg.RAG.UseVectorStore {
		t.Fatal("expected USE_VECTOR_STORE=false to be honored")
	}
	if len(cfg.Server.CORSAllowedOrigins) != 2 {
		t.Fatalf("expected 2 CORS origins, got %v", cfg.Server.CORSAllowedOrigins)
	}
}
