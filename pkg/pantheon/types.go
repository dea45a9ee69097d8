package pantheon

// Site is a Pantheon site as returned by the sites endpoint.
type Site struct {
	ID        string `json:"id" mapstructure:"id"`
	Name      string `json:"name" mapstructure:"name"`
	Label     string `json:"label" mapstructure:"label"`
	PlanName  string `json:"plan_name" mapstructure:"plan_name"`
	Framework string `json:"framework" mapstructure:"framework"`
	Upstream  string `json:"upstream" mapstructure:"upstream"`
	Created   int64  `json:"created" mapstructure:"created"`
	Frozen    bool   `json:"frozen" mapstructure:"frozen"`
}

// Environment is one environment of a site. The API has no endpoint for a
// single environment; Environment values are extracted from the full
// environment map returned by the environments endpoint.
type Environment struct {
	Name                string `json:"-" mapstructure:"-"`
	ConnectionMode      string `json:"connection_mode" mapstructure:"connection_mode"`
	PHPVersion          string `json:"php_version" mapstructure:"php_version"`
	OnServerDevelopment bool   `json:"on_server_development" mapstructure:"on_server_development"`
	Locked              bool   `json:"lock,omitempty" mapstructure:"lock"`
	TargetCommit        string `json:"target_commit" mapstructure:"target_commit"`
}

// Connection modes for an environment.
const (
	ConnectionModeGit  = "git"
	ConnectionModeSFTP = "sftp"
)

// Commit is one entry of an environment's commit log.
type Commit struct {
	Hash     string   `json:"hash"`
	Author   string   `json:"author"`
	Message  string   `json:"message"`
	Datetime string   `json:"datetime"`
	Labels   []string `json:"labels"`
}

// DiffStat describes pending (uncommitted) file changes on an sftp-mode
// environment.
type DiffStat struct {
	File      string `json:"file"`
	Status    string `json:"status"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
}

// Domain is a hostname attached to an environment.
type Domain struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Status  string `json:"status"`
	Primary bool   `json:"primary"`
}

// Backup describes one archive in an environment's backup catalog.
type Backup struct {
	ID         string  `json:"id"`
	Element    string  `json:"element"`
	Size       int64   `json:"size"`
	FinishTime float64 `json:"finish_time"`
	Folder     string  `json:"folder"`
}

// Backup elements accepted by CreateBackup. RestoreBackup accepts the same
// set minus ElementAll.
const (
	ElementCode     = "code"
	ElementDatabase = "database"
	ElementFiles    = "files"
	ElementAll      = "all"
)

// MetricSample is one point of an environment's traffic timeseries.
type MetricSample struct {
	Timestamp   int64 `json:"timestamp"`
	Visits      int64 `json:"visits"`
	PagesServed int64 `json:"pages_served"`
	CacheHits   int64 `json:"cache_hits"`
	CacheMisses int64 `json:"cache_misses"`
}

// Metrics is the response of the environment metrics endpoint.
type Metrics struct {
	Timeseries []MetricSample `json:"timeseries"`
}

// Settings is the environment settings record. Addon enablement is embedded
// here by the upstream API, which is why toggling an addon must invalidate
// the settings cache as well as the addon list.
type Settings struct {
	Label  string          `json:"label"`
	Addons map[string]bool `json:"addons"`
}

// UpstreamUpdates reports how far a site is behind its upstream.
type UpstreamUpdates struct {
	Behind    int      `json:"behind"`
	UpdateLog []Commit `json:"update_log"`
}

// Workflow identifies an asynchronous multi-step operation on a site, and
// carries its status when fetched.
type Workflow struct {
	ID                string              `json:"id"`
	SiteID            string              `json:"site_id"`
	Type              string              `json:"type"`
	Description       string              `json:"description"`
	ActiveDescription string              `json:"active_description"`
	Step              int                 `json:"step"`
	Operations        []WorkflowOperation `json:"operations"`
	Result            string              `json:"result"`
}

// WorkflowOperation is one step of a workflow.
type WorkflowOperation struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Result      string `json:"result"`
}

// Workflow terminal results.
const (
	WorkflowSucceeded = "succeeded"
	WorkflowFailed    = "failed"
)

// Terminal reports whether the workflow has reached a terminal result.
func (w Workflow) Terminal() bool {
	return w.Result == WorkflowSucceeded || w.Result == WorkflowFailed
}

// Progress derives fractional completion from step counts. It returns 0
// when step counts are unknown.
func (w Workflow) Progress() int {
	if w.Step <= 0 || len(w.Operations) == 0 {
		return 0
	}
	p := int(float64(w.Step)/float64(len(w.Operations))*100 + 0.5)
	if p > 100 {
		p = 100
	}
	return p
}
