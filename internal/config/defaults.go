package config

const (
	defaultLogDir           = "~/.local/share/sttbatch/logs"
	defaultStateDir         = "~/.local/share/sttbatch/state"
	defaultOutputDir        = "~/.local/share/sttbatch/output"
	defaultModelID          = "openai/whisper-large-v3"
	defaultLanguage         = "Hindi"
	defaultTask             = "transcribe"
	defaultBatchSize        = 16
	defaultSampleRate       = 16000
	defaultInferenceCommand = "sttbatch-infer"
	defaultInferenceDevice  = "cuda"
	defaultInferenceTimeout = 900
	defaultWorldSize        = 1
	defaultProbeWorkers     = 32
	defaultFFprobeBinary    = "ffprobe"
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	taskTranscribe          = "transcribe"
	taskTranslate           = "translate"
	deviceCUDA              = "cuda"
	deviceCPU               = "cpu"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:    defaultLogDir,
			StateDir:  defaultStateDir,
			OutputDir: defaultOutputDir,
		},
		Model: Model{
			ID:              defaultModelID,
			Language:        defaultLanguage,
			Task:            defaultTask,
			BatchSize:       defaultBatchSize,
			SampleRate:      defaultSampleRate,
			NormalizeLogits: true,
		},
		Inference: Inference{
			Command:        defaultInferenceCommand,
			Device:         defaultInferenceDevice,
			TimeoutSeconds: defaultInferenceTimeout,
		},
		Distributed: Distributed{
			LocalRank: 0,
			WorldSize: defaultWorldSize,
		},
		Manifest: Manifest{
			ProbeWorkers:  defaultProbeWorkers,
			FFprobeBinary: defaultFFprobeBinary,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
