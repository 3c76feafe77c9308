package model

// ================ Config ================
type OracleConfig struct {
	Model       string  `envconfig:"ORACLE_MODEL" default:"gemini-2.0-flash"`
	MaxTokens   int     `envconfig:"ORACLE_MAX_TOKENS" default:"2000"`
	Temperature float32 `envconfig:"ORACLE_TEMPERATURE" default:"0.1"`
}

type IndexConfig struct {
	// Backend selects the retrieval strategy: "text" (sqlite FTS5) or "embedding".
	Backend string `envconfig:"INDEX_BACKEND" default:"text"`
	// Source selects what the index mirrors: "store" or "mirror" (the JSON file).
	Source         string `envconfig:"INDEX_SOURCE" default:"store"`
	TopK           int    `envconfig:"INDEX_TOP_K" default:"2"`
	DBPath         string `envconfig:"INDEX_DB_PATH"`
	EmbeddingModel string `envconfig:"EMBEDDING_MODEL" default:"gemini-embedding-001"`
}

type PipelineConfig struct {
	MaxPasses int `envconfig:"PIPELINE_MAX_PASSES" default:"2"`
	// Classifier selects the intent strategy: "llm" or "keyword".
	Classifier string `envconfig:"PIPELINE_CLASSIFIER" default:"llm"`
}
