package app

// Config 存放应用级默认路径配置。
type Config struct {
	DBPath     string
	RangesPath string
	ExportDir  string
}

// DefaultConfig 返回本地单机环境的默认配置。
func DefaultConfig() Config {
	return Config{
		DBPath:     "data/organizer.db",
		RangesPath: "data/ranges.yaml",
		ExportDir:  "data/exports",
	}
}
