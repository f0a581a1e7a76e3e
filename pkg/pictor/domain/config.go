package domain

// A list of built-in config keys supported by the core. Config describes the deployment
// (paths, backend choice, timeouts); user-editable state lives in Preferences instead.

const (
	// ConfigKeyBackend selects the image backend: "gemini" (the default) talks to the remote API,
	// "offline" renders local placeholder images for testing without network access
	ConfigKeyBackend = "backend"
	// ConfigKeyLogPath file path where to save the logs
	ConfigKeyLogPath = "logPath"
	// ConfigKeyPreferencesPath file path where user preferences are persisted as JSON
	ConfigKeyPreferencesPath = "preferencesPath"
	// ConfigKeyScratchPath directory for process-scoped working copies of generated and downloaded images.
	// The directory is purged on reset and on normal process exit.
	ConfigKeyScratchPath = "scratchPath"
	// ConfigKeyDownloadTimeout how long to wait for remote pages and images before giving up, in milliseconds
	ConfigKeyDownloadTimeout = "downloadTimeout"
	// ConfigKeyFeedURL the RSS feed used to pull headlines for prompt inspiration
	ConfigKeyFeedURL = "feedURL"
	// ConfigKeyTopicSentenceCount how many sentences of a topic summary to fetch for prompt context
	ConfigKeyTopicSentenceCount = "topicSentenceCount"
)
