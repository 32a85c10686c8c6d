package cfg

import "time"

type Cfg struct {
	// HTTP configuration
	Port       string
	ProxyPath  string
	ProxyAllow []string

	// Pipeline configuration
	SourcesFile    string
	RequestTimeout time.Duration
	Concurrency    int

	// Run statistics
	StatsDB string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
