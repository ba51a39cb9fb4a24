package config

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

const (
	defaultDataDir                    = "~/.local/share/eventsift"
	defaultLogDir                     = "~/.local/share/eventsift/logs"
	defaultStorageDriver              = DriverSQLite
	defaultFetchTimeoutSeconds        = 8
	defaultFetchMinDelayMillis        = 500
	defaultFetchMaxBodyBytes          = 5 << 20
	defaultFetchMaxPerSource          = 15
	defaultLocation                   = "London"
	defaultLinkTimeoutSeconds         = 8
	defaultLinkDelayMillis            = 500
	defaultEnhanceTimeoutSeconds      = 5
	defaultEnhanceDelayMillis         = 200
	defaultLinkUserAgent              = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36"
	defaultClassifierBaseURL          = "https://api.openai.com/v1/chat/completions"
	defaultClassifierModel            = "gpt-4o-mini"
	defaultClassifierReferer          = "https://github.com/eventsift/eventsift"
	defaultClassifierTitle            = "eventsift classifier"
	defaultClassifierTimeoutSeconds   = 60
	defaultClassifierRetryAttempts    = 1
	defaultClassifierBatchSize        = 20
	defaultClassifierMaxBatches       = 1
	defaultClassifierThreshold        = 0.7
	defaultClassifierRegion           = "London"
	defaultClassifierTemperature      = 0.2
	defaultClassifierMaxTokens        = 1500
	defaultScheduleIntervalHours      = 24
	defaultLogFormat                  = "console"
	defaultLogLevel                   = "info"
	defaultLogRetentionDays           = 30
	minimumClassifierThreshold        = 0.7
	maximumClassifierBatchSize        = 20
	defaultMetricsBind                = ""
	defaultNotifyTimeoutSeconds       = 10
	defaultPostgresDSNEnv             = "EVENTSIFT_POSTGRES_DSN"
	defaultPostgresFallbackDSNEnv     = "DATABASE_URL"
	defaultClassifierAPIKeyEnv        = "EVENTSIFT_LLM_API_KEY"
	defaultClassifierOpenAIAPIKeyEnv  = "OPENAI_API_KEY"
	defaultClassifierOpenRouterKeyEnv = "OPENROUTER_API_KEY"
)

// DefaultUserAgents is the client identity pool rotated by the fetcher.
func DefaultUserAgents() []string {
	return []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
		"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:89.0) Gecko/20100101 Firefox/89.0",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/14.1.1 Safari/605.1.15",
	}
}

// DefaultRestrictedPhrases marks events that are closed to the public.
func DefaultRestrictedPhrases() []string {
	return []string{
		"student only",
		"university of",
		"imperial college",
		"ucl only",
		"kcl only",
		"qmul only",
		"for students",
		"student event",
		"alumni only",
		"staff only",
		"member only",
		"internal event",
	}
}

// DefaultSources lists the London tech event pages scraped when no sources are configured.
func DefaultSources() []Source {
	return []Source{
		{URL: "https://www.eventbrite.co.uk/d/united-kingdom--london/technology--events", Type: "eventbrite"},
		{URL: "https://londontechweek.com", Type: "ltw"},
		{URL: "https://www.feverup.com/london", Type: "fever"},
		{URL: "https://devpost.com/hackathons?search=london", Type: "devpost"},
		{URL: "https://mlh.io/seasons/2026/events", Type: "mlh"},
		{URL: "https://www.hackerearth.com/challenges", Type: "hackerearth"},
		{URL: "https://angelhack.com", Type: "angelhack"},
		{URL: "https://itch.io/jams", Type: "itch"},
		{URL: "https://www.kaggle.com/competitions", Type: "kaggle"},
		{URL: "https://www.imperial.ac.uk/events", Type: "imperial"},
		{URL: "https://www.ucl.ac.uk/events", Type: "ucl"},
		{URL: "https://generalassemb.ly/events", Type: "ga"},
		{URL: "https://www.lewagon.com/events", Type: "lewagon"},
		{URL: "https://codebar.io/events", Type: "codebar"},
		{URL: "https://www.womenwhocode.com/london", Type: "wwc"},
		{URL: "https://technation.io/events", Type: "technation"},
		{URL: "https://www.startupgrind.com/london", Type: "startupgrind"},
	}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Storage: Storage{
			Driver: defaultStorageDriver,
		},
		Fetch: Fetch{
			TimeoutSeconds:  defaultFetchTimeoutSeconds,
			MinDelayMillis:  defaultFetchMinDelayMillis,
			MaxBodyBytes:    defaultFetchMaxBodyBytes,
			MaxPerSource:    defaultFetchMaxPerSource,
			UserAgents:      DefaultUserAgents(),
			DefaultLocation: defaultLocation,
		},
		Sources: DefaultSources(),
		Links: Links{
			TimeoutSeconds:        defaultLinkTimeoutSeconds,
			DelayMillis:           defaultLinkDelayMillis,
			EnhanceTimeoutSeconds: defaultEnhanceTimeoutSeconds,
			EnhanceDelayMillis:    defaultEnhanceDelayMillis,
			UserAgent:             defaultLinkUserAgent,
		},
		Filter: Filter{
			RestrictedPhrases: DefaultRestrictedPhrases(),
		},
		Classifier: Classifier{
			BaseURL:             defaultClassifierBaseURL,
			Model:               defaultClassifierModel,
			Referer:             defaultClassifierReferer,
			Title:               defaultClassifierTitle,
			TimeoutSeconds:      defaultClassifierTimeoutSeconds,
			RetryAttempts:       defaultClassifierRetryAttempts,
			BatchSize:           defaultClassifierBatchSize,
			MaxBatches:          defaultClassifierMaxBatches,
			ConfidenceThreshold: defaultClassifierThreshold,
			Region:              defaultClassifierRegion,
			Temperature:         defaultClassifierTemperature,
			MaxTokens:           defaultClassifierMaxTokens,
		},
		Schedule: Schedule{
			IntervalHours: defaultScheduleIntervalHours,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
		Metrics: Metrics{
			Bind: defaultMetricsBind,
		},
		Notifications: Notifications{
			RequestTimeoutSeconds: defaultNotifyTimeoutSeconds,
		},
	}
}
