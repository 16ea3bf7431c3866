package config

const (
	defaultConfigPath            = "~/.config/echodl/config.toml"
	defaultBinDir                = "bin"
	defaultOutputDir             = "."
	defaultStateDir              = "~/.local/share/echodl"
	defaultDriverCommand         = "chromedriver"
	defaultDriverDownloadRoot    = "https://chromedriver.storage.googleapis.com"
	defaultDriverVersion         = "2.38"
	defaultDriverDownloadTimeout = 300
	defaultDriverStartupTimeout  = 20
	defaultPortalBaseURL         = "https://echo360.org.au"
	defaultPortalUserAgent       = "echodl/dev"
	defaultPortalRequestTimeout  = 60
	defaultHeaderTimeout         = 30
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			BinDir:    defaultBinDir,
			OutputDir: defaultOutputDir,
			StateDir:  defaultStateDir,
		},
		Driver: Driver{
			Command:         defaultDriverCommand,
			DownloadRoot:    defaultDriverDownloadRoot,
			Version:         defaultDriverVersion,
			DownloadTimeout: defaultDriverDownloadTimeout,
			Launch:          false,
			StartupTimeout:  defaultDriverStartupTimeout,
		},
		Portal: Portal{
			BaseURL:        defaultPortalBaseURL,
			UserAgent:      defaultPortalUserAgent,
			RequestTimeout: defaultPortalRequestTimeout,
		},
		Download: Download{
			SkipExisting:  true,
			HeaderTimeout: defaultHeaderTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
