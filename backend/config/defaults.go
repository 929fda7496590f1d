package config

import "time"

const (
	DefaultIAMURL         = "https://iam.cloud.ibm.com/identity/token"
	DefaultNLUVersion     = "2022-04-07"
	DefaultWatsonxVersion = "2023-05-29"
	DefaultWatsonxModel   = "ibm/granite-13b-instruct-v2"
	DefaultInferenceURL   = "https://api-inference.huggingface.co"
	DefaultInferenceModel = "google/flan-t5-large"
	DefaultVertexModel    = "gemini-1.5-flash"
)

// ApplyDefaults fills zero values. Load calls it; tests and the CLI call it
// on configs built in code.
func (c *Config) ApplyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Store.MaxContracts == 0 {
		c.Store.MaxContracts = 100
	}
	if c.Minio.ExpireDays == 0 {
		c.Minio.ExpireDays = 7
	}
	if c.Auth.TokenExpireHours == 0 {
		c.Auth.TokenExpireHours = 24
	}
	if c.Mineru.ModelVersion == "" {
		c.Mineru.ModelVersion = "vlm"
	}
	if c.Mineru.PollInterval == 0 {
		c.Mineru.PollInterval = 5 * time.Second
	}
	if c.Mineru.MaxPolls == 0 {
		c.Mineru.MaxPolls = 60
	}

	if c.NLU.Version == "" {
		c.NLU.Version = DefaultNLUVersion
	}
	if c.NLU.IAMURL == "" {
		c.NLU.IAMURL = DefaultIAMURL
	}

	w := &c.Watsonx
	if w.Version == "" {
		w.Version = DefaultWatsonxVersion
	}
	if w.IAMURL == "" {
		w.IAMURL = DefaultIAMURL
	}
	if w.ModelID == "" {
		w.ModelID = DefaultWatsonxModel
	}
	if w.DecodingMethod == "" {
		w.DecodingMethod = "greedy"
	}
	if w.MaxNewTokens == 0 {
		w.MaxNewTokens = 800
	}
	if w.MinNewTokens == 0 {
		w.MinNewTokens = 50
	}
	if w.Temperature == 0 {
		w.Temperature = 0.3
	}
	if w.TopK == 0 {
		w.TopK = 50
	}
	if w.TopP == 0 {
		w.TopP = 1
	}
	if w.ChunkLimit == 0 {
		w.ChunkLimit = 2000
	}

	inf := &c.Inference
	if inf.URL == "" {
		inf.URL = DefaultInferenceURL
	}
	if inf.Model == "" {
		inf.Model = DefaultInferenceModel
	}
	if inf.MaxNewTokens == 0 {
		inf.MaxNewTokens = 512
	}
	if inf.Temperature == 0 {
		inf.Temperature = 0.3
	}
	if inf.MaxAttempts == 0 {
		inf.MaxAttempts = 3
	}
	if inf.RetryDelay == 0 {
		inf.RetryDelay = 10 * time.Second
	}
	if inf.ChunkLimit == 0 {
		inf.ChunkLimit = 1000
	}

	v := &c.Vertex
	if v.Model == "" {
		v.Model = DefaultVertexModel
	}
	if v.Temperature == 0 {
		v.Temperature = 0.3
	}
	if v.MaxOutputTokens == 0 {
		v.MaxOutputTokens = 800
	}
	if v.ChunkLimit == 0 {
		v.ChunkLimit = 2000
	}

	if c.Redis.TTL == 0 {
		c.Redis.TTL = 24 * time.Hour
	}
	if c.Redis.Prefix == "" {
		c.Redis.Prefix = "clausewise:analysis:"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}

	a := &c.Analysis
	if a.EntityConfidence == 0 {
		a.EntityConfidence = 0.6
	}
	if a.KeywordRelevance == 0 {
		a.KeywordRelevance = 0.6
	}
	if a.BackendTimeout == 0 {
		a.BackendTimeout = 30 * time.Second
	}
	if a.RunTimeout == 0 {
		a.RunTimeout = 5 * time.Minute
	}
	if a.MinTextLength == 0 {
		a.MinTextLength = 50
	}
	if a.MaxFileSizeMB == 0 {
		a.MaxFileSizeMB = 10
	}
}
