package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.MaxUploadMB == 0 {
		cfg.Server.MaxUploadMB = 32
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/itemx/data/jobs.db"
	}
	if cfg.Extract.LineOverlap == 0 {
		cfg.Extract.LineOverlap = 0.5
	}
	if cfg.Extract.ColumnGap == 0 {
		cfg.Extract.ColumnGap = 2.0
	}
	if cfg.Extract.MinColumnWidth == 0 {
		cfg.Extract.MinColumnWidth = 10.0
	}
	if cfg.Extract.SummaryAnchors == nil {
		cfg.Extract.SummaryAnchors = []string{"Troca / R&I", "Troca/R&I"}
	}
	if cfg.Output.Directory == "" {
		cfg.Output.Directory = "/usr/local/var/itemx/output"
	}
	// Recursive defaults to true when unset (nil).
	if len(cfg.Watch.Directories) > 0 && cfg.Watch.Recursive == nil {
		t := true
		cfg.Watch.Recursive = &t
	}
}
