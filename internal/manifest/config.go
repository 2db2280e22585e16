package manifest

import (
	"fmt"

	"skiff/internal/diag"
	"skiff/internal/source"
	"skiff/internal/toml"
)

// ConfigEntry is one concrete key/value pair from a configuration
// namespace. The key span is what namespace diagnostics point at.
type ConfigEntry struct {
	Key     string
	KeySpan source.Span
	Value   string
}

// MysqlBinding attaches a database to the deployment. The plain shorthand
// (name = "mysql://...") is equivalent to {url = "mysql://..."}; Normalize
// collapses the former into the latter. The structured form may also carry
// a CA certificate for the connection.
type MysqlBinding struct {
	Name    string
	KeySpan source.Span
	Span    source.Span

	url      string
	rootCert string
	plain    string
	raw      bool
}

// URL returns the structured connection URL. Calling it before Normalize
// ran is a contract violation and panics.
func (b *MysqlBinding) URL() string {
	if b.raw {
		panic(fmt.Sprintf("mysql binding %q read before normalization", b.Name))
	}
	return b.url
}

// RootCertificate returns the optional CA certificate of the structured
// form; the shorthand never has one. Panics before Normalize like URL.
func (b *MysqlBinding) RootCertificate() string {
	if b.raw {
		panic(fmt.Sprintf("mysql binding %q read before normalization", b.Name))
	}
	return b.rootCert
}

// PubsubBinding attaches a message namespace to the deployment. The plain
// shorthand (name = "ns") is equivalent to {namespace = "ns"}.
type PubsubBinding struct {
	Name    string
	KeySpan source.Span
	Span    source.Span

	namespace string
	plain     string
	raw       bool
}

// Namespace returns the structured namespace. Calling it before Normalize
// ran is a contract violation and panics.
func (b *PubsubBinding) Namespace() string {
	if b.raw {
		panic(fmt.Sprintf("pubsub binding %q read before normalization", b.Name))
	}
	return b.namespace
}

// AppConfig is the typed configuration document.
type AppConfig struct {
	ID string

	Env     []ConfigEntry
	Secrets []ConfigEntry

	Mysql  []MysqlBinding
	Pubsub []PubsubBinding

	DetachedSecrets bool
}

// LookupEnv finds a key in the plain namespace only.
func (c *AppConfig) LookupEnv(key string) (*ConfigEntry, bool) {
	return lookup(c.Env, key)
}

// Lookup finds a key in env first, then secrets. Requirement coverage
// accepts either namespace.
func (c *AppConfig) Lookup(key string) (*ConfigEntry, bool) {
	if e, ok := lookup(c.Env, key); ok {
		return e, true
	}
	return lookup(c.Secrets, key)
}

func lookup(entries []ConfigEntry, key string) (*ConfigEntry, bool) {
	for i := range entries {
		if entries[i].Key == key {
			return &entries[i], true
		}
	}
	return nil, false
}

// Normalize rewrites every plain-shorthand binding into its structured
// form. It is idempotent and must run before validation or any structured
// read of a binding.
func (c *AppConfig) Normalize() {
	for i := range c.Mysql {
		b := &c.Mysql[i]
		if b.raw {
			b.url = b.plain
			b.plain = ""
			b.raw = false
		}
	}
	for i := range c.Pubsub {
		b := &c.Pubsub[i]
		if b.raw {
			b.namespace = b.plain
			b.plain = ""
			b.raw = false
		}
	}
}

// ConfigFromTable projects the spanned tree of a configuration document.
// The file supplies a document-level span for a missing id.
func ConfigFromTable(f *source.File, tab *toml.Table) (*AppConfig, error) {
	cfg := &AppConfig{}
	for _, e := range tab.Entries {
		var err error
		switch e.Key {
		case "id":
			cfg.ID, err = stringScalar(e)
		case "env":
			cfg.Env, err = entryList(e)
		case "secrets":
			cfg.Secrets, err = entryList(e)
		case "mysql":
			cfg.Mysql, err = mysqlBindings(e)
		case "pubsub":
			cfg.Pubsub, err = pubsubBindings(e)
		case "detached_secrets":
			if e.Value.Kind != toml.KindBool {
				err = shapeErr(e.Value.Span, e.Key, "a boolean")
			} else {
				cfg.DetachedSecrets = e.Value.Bool
			}
		default:
			// Unknown keys are left for future fields.
		}
		if err != nil {
			return nil, err
		}
	}
	if cfg.ID == "" {
		return nil, diag.New(diag.CfgParse, source.Point(f.ID, 0),
			`configuration is missing the "id" field`)
	}
	return cfg, nil
}

func entryList(e *toml.Entry) ([]ConfigEntry, error) {
	if e.Value.Kind != toml.KindTable {
		return nil, shapeErr(e.Value.Span, e.Key, "a table of strings")
	}
	entries := make([]ConfigEntry, 0, len(e.Value.Tab.Entries))
	for _, f := range e.Value.Tab.Entries {
		if f.Value.Kind != toml.KindString {
			return nil, shapeErr(f.Value.Span, f.Key, "a string")
		}
		entries = append(entries, ConfigEntry{
			Key:     f.Key,
			KeySpan: f.KeySpan,
			Value:   f.Value.Str,
		})
	}
	return entries, nil
}

func mysqlBindings(e *toml.Entry) ([]MysqlBinding, error) {
	if e.Value.Kind != toml.KindTable {
		return nil, shapeErr(e.Value.Span, e.Key, "a table")
	}
	bindings := make([]MysqlBinding, 0, len(e.Value.Tab.Entries))
	for _, f := range e.Value.Tab.Entries {
		b := MysqlBinding{Name: f.Key, KeySpan: f.KeySpan, Span: f.Value.Span}
		switch f.Value.Kind {
		case toml.KindString:
			b.plain = f.Value.Str
			b.raw = true
		case toml.KindTable:
			url, ok := f.Value.Tab.GetString("url")
			if !ok {
				return nil, diag.New(diag.CfgParse, f.Value.Span,
					fmt.Sprintf(`mysql binding %q is missing the "url" field`, f.Key))
			}
			b.url = url
			if cert, ok := f.Value.Tab.Entry("root_certificate"); ok {
				if cert.Value.Kind != toml.KindString {
					return nil, shapeErr(cert.Value.Span, "root_certificate", "a string")
				}
				b.rootCert = cert.Value.Str
			}
		default:
			return nil, shapeErr(f.Value.Span, f.Key, "a string or a table")
		}
		bindings = append(bindings, b)
	}
	return bindings, nil
}

func pubsubBindings(e *toml.Entry) ([]PubsubBinding, error) {
	if e.Value.Kind != toml.KindTable {
		return nil, shapeErr(e.Value.Span, e.Key, "a table")
	}
	bindings := make([]PubsubBinding, 0, len(e.Value.Tab.Entries))
	for _, f := range e.Value.Tab.Entries {
		b := PubsubBinding{Name: f.Key, KeySpan: f.KeySpan, Span: f.Value.Span}
		switch f.Value.Kind {
		case toml.KindString:
			b.plain = f.Value.Str
			b.raw = true
		case toml.KindTable:
			ns, ok := f.Value.Tab.GetString("namespace")
			if !ok {
				return nil, diag.New(diag.CfgParse, f.Value.Span,
					fmt.Sprintf(`pubsub binding %q is missing the "namespace" field`, f.Key))
			}
			b.namespace = ns
		default:
			return nil, shapeErr(f.Value.Span, f.Key, "a string or a table")
		}
		bindings = append(bindings, b)
	}
	return bindings, nil
}
