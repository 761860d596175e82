package config

const (
	defaultConfigPath           = "~/.config/audiosketch/config.toml"
	defaultProjectsDir          = "~/.local/share/audiosketch/projects"
	defaultLogDir               = "~/.local/share/audiosketch/logs"
	defaultJournalPath          = "~/.local/share/audiosketch/journal.db"
	defaultAPIBind              = "127.0.0.1:4567"
	defaultOpenAIBaseURL        = "https://api.openai.com/v1"
	defaultTextModel            = "gpt-4o"
	defaultTranscriptionModel   = "whisper-1"
	defaultTranscriptionMode    = "translate"
	defaultOpenAITimeout        = 480
	defaultImageSize            = "1024x1024"
	defaultImageQuality         = "standard"
	defaultImageModel           = "dall-e-3"
	defaultUpscalerBinary       = "realesrgan-ncnn-vulkan"
	defaultUpscaleFactor        = 3
	defaultPngquantBinary       = "pngquant"
	defaultConvertBinary        = "convert"
	defaultFeatherMask          = "./bgw_edge.png"
	defaultNtfyTimeout          = 10
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultLogRetentionDays     = 30
	transcriptionModeTranslate  = "translate"
	transcriptionModeTranscribe = "transcribe"
)

func defaultImageModels() []string {
	return []string{"dall-e-2", "dall-e-3"}
}

// DefaultColors returns the colour palette offered by the colorize actions.
func DefaultColors() map[string]string {
	return map[string]string{
		"brown": "#573320",
		"red":   "#910E0E",
		"green": "#406F37",
		"navy":  "#102255",
		"gray":  "#75797B",
	}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ProjectsDir: defaultProjectsDir,
			LogDir:      defaultLogDir,
			JournalPath: defaultJournalPath,
			APIBind:     defaultAPIBind,
		},
		OpenAI: OpenAI{
			BaseURL:            defaultOpenAIBaseURL,
			TextModel:          defaultTextModel,
			TranscriptionModel: defaultTranscriptionModel,
			TranscriptionMode:  defaultTranscriptionMode,
			TimeoutSeconds:     defaultOpenAITimeout,
		},
		Images: Images{
			Size:         defaultImageSize,
			Quality:      defaultImageQuality,
			DefaultModel: defaultImageModel,
			Models:       defaultImageModels(),
		},
		Actions: Actions{
			UpscalerBinary: defaultUpscalerBinary,
			UpscaleFactor:  defaultUpscaleFactor,
			PngquantBinary: defaultPngquantBinary,
			ConvertBinary:  defaultConvertBinary,
			FeatherMask:    defaultFeatherMask,
			Colors:         DefaultColors(),
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyTimeout,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
