package manifest

import (
	"reflect"
	"testing"

	"skiff/internal/diag"
	"skiff/internal/source"
	"skiff/internal/toml"
)

func projectConfig(t *testing.T, text string) (*AppConfig, error) {
	t.Helper()
	fs := source.NewFileSet()
	f := fs.Get(fs.AddVirtual("config.toml", []byte(text)))
	tab, err := toml.Parse(f)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	return ConfigFromTable(f, tab)
}

func TestNormalizeShorthandBindings(t *testing.T) {
	cfg, err := projectConfig(t, `
id = "app"

[mysql]
main = "mysql://db/main"
replica = { url = "mysql://db/replica" }

[pubsub]
events = "prod-events"
audit = { namespace = "prod-audit" }
`)
	if err != nil {
		t.Fatalf("ConfigFromTable() error: %v", err)
	}
	cfg.Normalize()

	if got := cfg.Mysql[0].URL(); got != "mysql://db/main" {
		t.Errorf("mysql main URL = %q", got)
	}
	if got := cfg.Mysql[1].URL(); got != "mysql://db/replica" {
		t.Errorf("mysql replica URL = %q", got)
	}
	if got := cfg.Pubsub[0].Namespace(); got != "prod-events" {
		t.Errorf("pubsub events namespace = %q", got)
	}
	if got := cfg.Pubsub[1].Namespace(); got != "prod-audit" {
		t.Errorf("pubsub audit namespace = %q", got)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	cfg, err := projectConfig(t, `
id = "app"

[mysql]
main = "mysql://db/main"

[pubsub]
events = "prod-events"
`)
	if err != nil {
		t.Fatalf("ConfigFromTable() error: %v", err)
	}
	cfg.Normalize()
	onceMysql := append([]MysqlBinding(nil), cfg.Mysql...)
	oncePubsub := append([]PubsubBinding(nil), cfg.Pubsub...)

	cfg.Normalize()
	if !reflect.DeepEqual(onceMysql, cfg.Mysql) || !reflect.DeepEqual(oncePubsub, cfg.Pubsub) {
		t.Errorf("Normalize is not idempotent")
	}
}

func TestRawBindingReadPanics(t *testing.T) {
	cfg, err := projectConfig(t, `
id = "app"

[mysql]
main = "mysql://db/main"
`)
	if err != nil {
		t.Fatalf("ConfigFromTable() error: %v", err)
	}
	defer func() {
		if recover() == nil {
			t.Errorf("URL() on a raw binding did not panic")
		}
	}()
	_ = cfg.Mysql[0].URL()
}

func TestConfigShapeErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"missing id", "[env]\nA = \"1\"\n"},
		{"env not a table", "id = \"app\"\nenv = [\"A\"]\n"},
		{"env value not a string", "id = \"app\"\n\n[env]\nA = 1\n"},
		{"mysql table without url", "id = \"app\"\n\n[mysql]\nmain = { host = \"db\" }\n"},
		{"mysql root certificate not a string", "id = \"app\"\n\n[mysql]\nmain = { url = \"u\", root_certificate = 1 }\n"},
		{"pubsub table without namespace", "id = \"app\"\n\n[pubsub]\nevents = { topic = \"t\" }\n"},
		{"binding wrong kind", "id = \"app\"\n\n[mysql]\nmain = 5\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := projectConfig(t, tt.text)
			if err == nil {
				t.Fatalf("projection succeeded, want error")
			}
			if d, ok := err.(*diag.Diagnostic); !ok || d.Code != diag.CfgParse {
				t.Errorf("error = %v, want CfgParse diagnostic", err)
			}
		})
	}
}

func TestMetadataProjection(t *testing.T) {
	cfg, err := projectConfig(t, `
id = "app"
detached_secrets = true

[env]
A = "1"

[secrets]
S = "hidden"

[mysql]
main = "mysql://db/main"

[pubsub]
events = { namespace = "prod-events" }
`)
	if err != nil {
		t.Fatalf("ConfigFromTable() error: %v", err)
	}
	cfg.Normalize()

	md := MetadataFromConfig(cfg)
	if md.ID != "app" || !md.DetachedSecrets {
		t.Errorf("metadata = %+v", md)
	}
	if md.Env["A"] != "1" || md.Secrets["S"] != "hidden" {
		t.Errorf("metadata values = %+v", md)
	}
	if md.Mysql["main"].URL != "mysql://db/main" || md.Pubsub["events"].Namespace != "prod-events" {
		t.Errorf("metadata bindings = %+v", md)
	}
}

func TestMysqlRootCertificate(t *testing.T) {
	cfg, err := projectConfig(t, `
id = "app"

[mysql]
main = { url = "mysql://db/main", root_certificate = "pem-data" }
replica = "mysql://db/replica"
`)
	if err != nil {
		t.Fatalf("ConfigFromTable() error: %v", err)
	}
	cfg.Normalize()

	if got := cfg.Mysql[0].RootCertificate(); got != "pem-data" {
		t.Errorf("main root certificate = %q", got)
	}
	if got := cfg.Mysql[1].RootCertificate(); got != "" {
		t.Errorf("shorthand binding grew a root certificate: %q", got)
	}

	md := MetadataFromConfig(cfg)
	if md.Mysql["main"].RootCertificate != "pem-data" {
		t.Errorf("metadata mysql = %+v", md.Mysql)
	}
	if md.Mysql["replica"].RootCertificate != "" {
		t.Errorf("metadata mysql = %+v", md.Mysql)
	}
}

func TestSpecProjection(t *testing.T) {
	fs := source.NewFileSet()
	f := fs.Get(fs.AddVirtual("spec.toml", []byte(`
env = ["PORT", { key = "DATABASE_URL", regex = "^mysql://", optional = false }]
secrets = [{ key = "API_TOKEN", optional = true }]
mysql = ["main"]
build = "make release"
static = "public"
artifact = "bin/server"
`)))
	tab, err := toml.Parse(f)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	spec, err := SpecFromTable(f, tab)
	if err != nil {
		t.Fatalf("SpecFromTable() error: %v", err)
	}

	want := []EnvRequirement{
		{Key: "PORT", Span: spec.Env[0].Span},
		{Key: "DATABASE_URL", Regex: "^mysql://", HasRegex: true, Span: spec.Env[1].Span},
	}
	if !reflect.DeepEqual(spec.Env, want) {
		t.Errorf("env = %+v, want %+v", spec.Env, want)
	}
	if len(spec.Secrets) != 1 || !spec.Secrets[0].Optional || spec.Secrets[0].Key != "API_TOKEN" {
		t.Errorf("secrets = %+v", spec.Secrets)
	}
	if len(spec.Mysql) != 1 || spec.Mysql[0].Value != "main" {
		t.Errorf("mysql = %+v", spec.Mysql)
	}
	if spec.Build != "make release" || spec.Static != "public" || spec.Artifact != "bin/server" {
		t.Errorf("build fields = %+v", spec)
	}
}

func TestSpecProjectionErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"env not an array", `env = "PORT"`},
		{"requirement missing key", `env = [{ regex = "^x$" }]`},
		{"requirement wrong kind", `env = [42]`},
		{"unknown requirement field", `env = [{ key = "A", pattern = "x" }]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := source.NewFileSet()
			f := fs.Get(fs.AddVirtual("spec.toml", []byte(tt.text)))
			tab, err := toml.Parse(f)
			if err != nil {
				t.Fatalf("Parse() error: %v", err)
			}
			if _, err := SpecFromTable(f, tab); err == nil {
				t.Errorf("projection succeeded, want error")
			}
		})
	}
}
