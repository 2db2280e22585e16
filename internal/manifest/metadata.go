package manifest

import "encoding/json"

// AppMetadata is the backend-facing projection of a validated, normalized
// configuration. It carries concrete values only; spans stay behind.
type AppMetadata struct {
	ID              string                    `json:"id"`
	Env             map[string]string         `json:"env"`
	Secrets         map[string]string         `json:"secrets"`
	Mysql           map[string]MysqlMetadata  `json:"mysql,omitempty"`
	Pubsub          map[string]PubsubMetadata `json:"pubsub,omitempty"`
	DetachedSecrets bool                      `json:"detached_secrets,omitempty"`
}

// MysqlMetadata is the wire form of one database binding.
type MysqlMetadata struct {
	URL             string `json:"url"`
	RootCertificate string `json:"root_certificate,omitempty"`
}

// PubsubMetadata is the wire form of one message namespace binding.
type PubsubMetadata struct {
	Namespace string `json:"namespace"`
}

// MetadataFromConfig builds the projection. The config must be normalized;
// reading a raw binding panics.
func MetadataFromConfig(cfg *AppConfig) *AppMetadata {
	md := &AppMetadata{
		ID:              cfg.ID,
		Env:             make(map[string]string, len(cfg.Env)),
		Secrets:         make(map[string]string, len(cfg.Secrets)),
		DetachedSecrets: cfg.DetachedSecrets,
	}
	for _, e := range cfg.Env {
		md.Env[e.Key] = e.Value
	}
	for _, e := range cfg.Secrets {
		md.Secrets[e.Key] = e.Value
	}
	if len(cfg.Mysql) > 0 {
		md.Mysql = make(map[string]MysqlMetadata, len(cfg.Mysql))
		for i := range cfg.Mysql {
			b := &cfg.Mysql[i]
			md.Mysql[b.Name] = MysqlMetadata{URL: b.URL(), RootCertificate: b.RootCertificate()}
		}
	}
	if len(cfg.Pubsub) > 0 {
		md.Pubsub = make(map[string]PubsubMetadata, len(cfg.Pubsub))
		for i := range cfg.Pubsub {
			md.Pubsub[cfg.Pubsub[i].Name] = PubsubMetadata{Namespace: cfg.Pubsub[i].Namespace()}
		}
	}
	return md
}

// JSON renders the metadata for transport.
func (m *AppMetadata) JSON() ([]byte, error) {
	return json.Marshal(m)
}
