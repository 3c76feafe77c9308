package formatter

import (
	"context"
	"fmt"

	"github.com/viant/afs"
	"gopkg.in/yaml.v3"

	logx "github.com/Chative-core-poc-v1/userdesk/pkg/logger"
)

// Schema is the declared field list of the users collection.
type Schema struct {
	Fields []string
}

// schemaFile mirrors {"collections": {"users": {"fields": [...]}}}. JSON is
// valid YAML, so the same decoder accepts either spelling.
type schemaFile struct {
	Collections map[string]struct {
		Fields []string `yaml:"fields"`
	} `yaml:"collections"`
}

// ParseSchema decodes a schema document.
func ParseSchema(data []byte) (Schema, error) {
	var f schemaFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Schema{}, fmt.Errorf("decode schema: %w", err)
	}
	users, ok := f.Collections["users"]
	if !ok {
		return Schema{Fields: []string{}}, nil
	}
	fields := make([]string, 0, len(users.Fields))
	for _, name := range users.Fields {
		if name != "" {
			fields = append(fields, name)
		}
	}
	return Schema{Fields: fields}, nil
}

// LoadSchema reads the schema at location through afs. A missing, empty or
// corrupt file yields an empty field list and a warning.
func LoadSchema(ctx context.Context, fs afs.Service, location string) Schema {
	empty := Schema{Fields: []string{}}
	log := logx.With().Str("component", "schema").Str("location", location).Logger()

	exists, err := fs.Exists(ctx, location)
	if err != nil || !exists {
		log.Warn().Err(err).Msg("schema file is missing, using empty field list")
		return empty
	}
	data, err := fs.DownloadWithURL(ctx, location)
	if err != nil {
		log.Warn().Err(err).Msg("schema file unreadable, using empty field list")
		return empty
	}
	if len(data) == 0 {
		log.Warn().Msg("schema file is empty, using empty field list")
		return empty
	}
	schema, err := ParseSchema(data)
	if err != nil {
		log.Warn().Err(err).Msg("schema file is corrupt, using empty field list")
		return empty
	}
	log.Debug().Strs("fields", schema.Fields).Msg("schema loaded")
	return schema
}
