package searchwatch

import (
	"errors"
	"log/slog"
	"time"
)

// wConfig holds mutable state during Watcher construction.
type wConfig struct {
	title           string
	serverURL       string
	headers         map[string]string
	episodes        []Episode
	pollInterval    time.Duration
	queuedInterval  time.Duration
	timeout         time.Duration
	maxErrorTicks   int
	port            int
	dashboard       bool
	logger          *slog.Logger
	updateCallbacks []func(Update)
	reloadCallbacks []func(Episode)
	extractor       ResultExtractor
	statusPath      string
	searchPath      string
}

// Option configures a [Watcher] during construction.
//
// Options return an error if validation fails, which [New] passes on.
type Option func(*wConfig) error

// WithServer sets the base URL of the Medusa server, including any web root
// (e.g. "http://localhost:8081" or "https://nas.local/medusa"). Required.
func WithServer(rawURL string) Option {
	return func(cfg *wConfig) error {
		if rawURL == "" {
			return errors.New("server URL cannot be empty")
		}
		cfg.serverURL = rawURL
		return nil
	}
}

// WithHeaders adds HTTP headers sent with every request to the server,
// typically an API key or session cookie. Accepts key-value pairs.
//
// Example:
//
//	w, err := searchwatch.New(
//	    searchwatch.WithServer("http://localhost:8081"),
//	    searchwatch.WithHeaders("X-Api-Key", os.Getenv("MEDUSA_API_KEY")),
//	    searchwatch.WithEpisode(ep),
//	)
func WithHeaders(keyValues ...string) Option {
	return func(cfg *wConfig) error {
		if len(keyValues)%2 != 0 {
			return errors.New("WithHeaders requires an even number of arguments (key-value pairs)")
		}
		for i := 0; i < len(keyValues); i += 2 {
			cfg.headers[keyValues[i]] = keyValues[i+1]
		}
		return nil
	}
}

// WithEpisode adds an [Episode] to watch. Can be called multiple times.
func WithEpisode(e Episode) Option {
	return func(cfg *wConfig) error {
		cfg.episodes = append(cfg.episodes, e)
		return nil
	}
}

// WithEpisodes adds several episodes at once, e.g. from [NewEpisodeGrid].
func WithEpisodes(episodes ...Episode) Option {
	return func(cfg *wConfig) error {
		cfg.episodes = append(cfg.episodes, episodes...)
		return nil
	}
}

// WithPollInterval sets the delay between checks while a search is running.
// Defaults to 5 seconds.
func WithPollInterval(d time.Duration) Option {
	return func(cfg *wConfig) error {
		if d <= 0 {
			return errors.New("poll interval must be positive")
		}
		cfg.pollInterval = d
		return nil
	}
}

// WithQueuedInterval sets the delay between checks while a search is
// queued behind another one. Defaults to 7 seconds.
func WithQueuedInterval(d time.Duration) Option {
	return func(cfg *wConfig) error {
		if d <= 0 {
			return errors.New("queued interval must be positive")
		}
		cfg.queuedInterval = d
		return nil
	}
}

// WithTimeout sets the per-request timeout. Defaults to 15 seconds.
func WithTimeout(d time.Duration) Option {
	return func(cfg *wConfig) error {
		if d <= 0 {
			return errors.New("timeout must be positive")
		}
		cfg.timeout = d
		return nil
	}
}

// WithMaxErrorTicks stops polling an episode after n consecutive failed
// checks, counting both transport failures and server-reported errors.
// Zero, the default, polls indefinitely.
func WithMaxErrorTicks(n int) Option {
	return func(cfg *wConfig) error {
		if n < 0 {
			return errors.New("max error ticks cannot be negative")
		}
		cfg.maxErrorTicks = n
		return nil
	}
}

// WithPort sets the dashboard port. Defaults to 8080.
func WithPort(port int) Option {
	return func(cfg *wConfig) error {
		if port < 1 || port > 65535 {
			return errors.New("port must be between 1 and 65535")
		}
		cfg.port = port
		return nil
	}
}

// WithoutDashboard disables the HTTP dashboard. Updates are still delivered
// to callbacks.
func WithoutDashboard() Option {
	return func(cfg *wConfig) error {
		cfg.dashboard = false
		return nil
	}
}

// WithTitle sets the dashboard title. Defaults to "searchwatch".
func WithTitle(title string) Option {
	return func(cfg *wConfig) error {
		cfg.title = title
		return nil
	}
}

// WithLogger sets the [slog.Logger] used by the watcher. Defaults to
// [slog.Default].
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *wConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithUpdateCallback registers a function called with every [Update].
//
// Callbacks run synchronously, in registration order, on a single
// goroutine, after the dashboard store has been updated. They must not
// block. Panics are recovered and logged. Nil callbacks are ignored.
func WithUpdateCallback(cb func(Update)) Option {
	return func(cfg *wConfig) error {
		if cb != nil {
			cfg.updateCallbacks = append(cfg.updateCallbacks, cb)
		}
		return nil
	}
}

// WithReloadCallback registers a function called when the server reports
// that an episode's search results changed and should be reloaded.
// The same rules as [WithUpdateCallback] apply.
func WithReloadCallback(cb func(Episode)) Option {
	return func(cfg *wConfig) error {
		if cb != nil {
			cfg.reloadCallbacks = append(cfg.reloadCallbacks, cb)
		}
		return nil
	}
}

// WithExtractor replaces [DefaultExtractor] for reading status responses.
func WithExtractor(e ResultExtractor) Option {
	return func(cfg *wConfig) error {
		if e == nil {
			return errors.New("extractor cannot be nil")
		}
		cfg.extractor = e
		return nil
	}
}

// WithStatusPath overrides the status-check path, relative to the server
// URL. Defaults to "home/manualSearchCheckCache".
func WithStatusPath(path string) Option {
	return func(cfg *wConfig) error {
		if path == "" {
			return errors.New("status path cannot be empty")
		}
		cfg.statusPath = path
		return nil
	}
}

// WithSearchPath overrides the forced-search path, relative to the server
// URL. Defaults to "home/snatchSelection".
func WithSearchPath(path string) Option {
	return func(cfg *wConfig) error {
		if path == "" {
			return errors.New("search path cannot be empty")
		}
		cfg.searchPath = path
		return nil
	}
}
