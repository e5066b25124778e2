package config

import (
	_ "embed"
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

//go:embed schema.cue
var schemaSource string

// cue.Context is not safe for concurrent use.
var (
	schemaMu   sync.Mutex
	schemaOnce sync.Once
	schemaCtx  *cue.Context
	schema     cue.Value
	schemaErr  error
)

// schemaView is the shape the CUE schema constrains. Durations are
// flattened to milliseconds so the schema can bound them as integers.
type schemaView struct {
	Token            string   `json:"token"`
	Prefix           string   `json:"prefix"`
	OwnerIDs         []string `json:"owner_ids"`
	DBPath           string   `json:"db_path"`
	PromptTimeoutMS  int64    `json:"prompt_timeout_ms"`
	GatewayURL       string   `json:"gateway_url"`
	ReconnectDelayMS int64    `json:"reconnect_delay_ms"`
	APIBaseURL       string   `json:"api_base_url"`
	APITimeoutMS     int64    `json:"api_timeout_ms"`
	LogLevel         string   `json:"log_level"`
	LogFormat        string   `json:"log_format"`
}

func loadSchema() (*cue.Context, cue.Value, error) {
	schemaOnce.Do(func() {
		schemaCtx = cuecontext.New()
		v := schemaCtx.CompileString(schemaSource, cue.Filename("schema.cue"))
		if err := v.Err(); err != nil {
			schemaErr = fmt.Errorf("compile config schema: %w", err)
			return
		}
		schema = v.LookupPath(cue.ParsePath("#Config"))
		if !schema.Exists() {
			schemaErr = fmt.Errorf("config schema has no #Config definition")
		}
	})
	return schemaCtx, schema, schemaErr
}

// Validate checks cfg against the embedded schema.
func Validate(cfg Config) error {
	schemaMu.Lock()
	defer schemaMu.Unlock()

	ctx, s, err := loadSchema()
	if err != nil {
		return err
	}

	owners := cfg.OwnerIDs
	if owners == nil {
		owners = []string{}
	}
	view := schemaView{
		Token:            cfg.Token,
		Prefix:           cfg.Prefix,
		OwnerIDs:         owners,
		DBPath:           cfg.DBPath,
		PromptTimeoutMS:  cfg.PromptTimeout.Milliseconds(),
		GatewayURL:       cfg.GatewayURL,
		ReconnectDelayMS: cfg.ReconnectDelay.Milliseconds(),
		APIBaseURL:       cfg.APIBaseURL,
		APITimeoutMS:     cfg.APITimeout.Milliseconds(),
		LogLevel:         cfg.LogLevel,
		LogFormat:        cfg.LogFormat,
	}

	unified := s.Unify(ctx.Encode(view))
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
