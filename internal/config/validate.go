package config

import (
	"fmt"
	"strings"

	"github.com/speakly/speakly/internal/langcode"
)

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	if strings.TrimSpace(cfg.Translate.Endpoint) == "" {
		return nil, fmt.Errorf("translate.endpoint must not be empty")
	}
	provider := strings.ToLower(strings.TrimSpace(cfg.Translate.Provider))
	if provider != "mymemory" && provider != "libre" {
		return nil, fmt.Errorf("translate.provider must be one of: mymemory, libre")
	}
	if cfg.Translate.TimeoutMS <= 0 {
		return nil, fmt.Errorf("translate.timeout_ms must be > 0")
	}
	if strings.TrimSpace(cfg.Recognizer.Endpoint) == "" {
		return nil, fmt.Errorf("recognizer.endpoint must not be empty")
	}
	if cfg.Recognizer.SampleRate <= 0 {
		return nil, fmt.Errorf("recognizer.sample_rate must be > 0")
	}
	if strings.TrimSpace(cfg.Languages.Source) == "" {
		return nil, fmt.Errorf("languages.source must not be empty")
	}
	target := strings.TrimSpace(cfg.Languages.Target)
	if target == "" {
		return nil, fmt.Errorf("languages.target must not be empty")
	}
	if langcode.Base(target) == langcode.Auto {
		return nil, fmt.Errorf("languages.target must be a concrete language, not %q", langcode.Auto)
	}
	if cfg.Session.DebounceMS < 0 {
		return nil, fmt.Errorf("session.debounce_ms must be >= 0")
	}
	if cfg.Session.DebounceMS > 2000 {
		warnings = append(warnings, Warning{Message: fmt.Sprintf("session.debounce_ms=%d delays live translation noticeably", cfg.Session.DebounceMS)})
	}
	if cfg.Speech.Enable {
		if strings.TrimSpace(cfg.Speech.Module) == "" {
			return nil, fmt.Errorf("speech.module must not be empty when speech.enable=true")
		}
		if strings.TrimSpace(cfg.Speech.ClientName) == "" {
			return nil, fmt.Errorf("speech.client_name must not be empty when speech.enable=true")
		}
		if len(cfg.Speech.Voices) == 0 {
			warnings = append(warnings, Warning{Message: "speech.voices is empty; translations will be text-only"})
		}
	}
	if cfg.Clipboard.Raw != "" && len(cfg.Clipboard.Argv) == 0 {
		return nil, fmt.Errorf("clipboard_cmd is configured but empty")
	}
	if len(cfg.Clipboard.Argv) == 0 {
		warnings = append(warnings, Warning{Message: "clipboard_cmd is empty; copy is disabled"})
	}

	return warnings, nil
}
