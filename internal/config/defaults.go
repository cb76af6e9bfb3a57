package config

const (
	defaultConfigPath           = "~/.config/vtrpon/config.toml"
	defaultDataDir              = "~/.local/share/vtrpon"
	defaultLogDir               = "~/.local/share/vtrpon/logs"
	defaultConverterBackend     = BackendAuto
	defaultConverterTimeout     = 600
	defaultSofficeBinary        = "soffice"
	defaultPdftoppmBinary       = "pdftoppm"
	defaultPdfinfoBinary        = "pdfinfo"
	defaultFFmpegBinary         = "ffmpeg"
	defaultFFprobeBinary        = "ffprobe"
	defaultProbeTimeout         = 30
	defaultSlideSeconds         = "1"
	defaultVideoCodec           = "libx264"
	defaultPixelFormat          = "yuv420p"
	defaultContainer            = "mp4"
	defaultThumbnailWidth       = 112
	defaultThumbnailHeight      = 63
	defaultThumbnailFormat      = ThumbnailPNG
	defaultMaxConcurrent        = 1
	defaultAlertSeconds         = 5
	defaultWatchDebounceMS      = 750
	defaultAPIBind              = "127.0.0.1:7488"
	defaultNotifyRequestTimeout = 10
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

// Converter backends.
const (
	BackendAuto        = "auto"
	BackendPowerPoint  = "powerpoint"
	BackendLibreOffice = "libreoffice"
)

// Thumbnail encodings.
const (
	ThumbnailPNG  = "png"
	ThumbnailWebP = "webp"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Converter: Converter{
			Backend:        defaultConverterBackend,
			TimeoutSeconds: defaultConverterTimeout,
			SofficeBinary:  defaultSofficeBinary,
			PdftoppmBinary: defaultPdftoppmBinary,
			PdfinfoBinary:  defaultPdfinfoBinary,
		},
		Encoder: Encoder{
			FFmpegBinary: defaultFFmpegBinary,
			SlideSeconds: defaultSlideSeconds,
			VideoCodec:   defaultVideoCodec,
			PixelFormat:  defaultPixelFormat,
			Container:    defaultContainer,
		},
		Probe: Probe{
			FFprobeBinary:  defaultFFprobeBinary,
			TimeoutSeconds: defaultProbeTimeout,
		},
		Thumbnails: Thumbnails{
			Width:  defaultThumbnailWidth,
			Height: defaultThumbnailHeight,
			Format: defaultThumbnailFormat,
		},
		Playlist: Playlist{
			MaxConcurrent:   defaultMaxConcurrent,
			ResumeOnStartup: true,
			AlertSeconds:    defaultAlertSeconds,
			WatchDebounceMS: defaultWatchDebounceMS,
		},
		API: API{
			Bind: defaultAPIBind,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			Completed:      true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
