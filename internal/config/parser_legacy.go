package config

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
)

// parseLegacy reads the flat key=value format kept for early adopters.
// Unknown keys produce line-numbered warnings instead of hard failures.
func parseLegacy(content string, base Config) (Config, []Warning, error) {
	cfg := base
	warnings := make([]Warning, 0)

	scanner := bufio.NewScanner(strings.NewReader(content))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, found := strings.Cut(line, "=")
		if !found {
			warnings = append(warnings, Warning{Line: lineNo, Message: fmt.Sprintf("ignoring malformed line %q", line)})
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case "translate_endpoint":
			cfg.Translate.Endpoint = value
		case "translate_provider":
			cfg.Translate.Provider = strings.ToLower(value)
		case "translate_api_key":
			cfg.Translate.APIKey = value
		case "translate_timeout_ms":
			parsed, err := strconv.Atoi(value)
			if err != nil {
				return Config{}, nil, fmt.Errorf("line %d: translate_timeout_ms: %w", lineNo, err)
			}
			cfg.Translate.TimeoutMS = parsed
		case "recognizer_endpoint":
			cfg.Recognizer.Endpoint = value
		case "recognizer_sample_rate":
			parsed, err := strconv.Atoi(value)
			if err != nil {
				return Config{}, nil, fmt.Errorf("line %d: recognizer_sample_rate: %w", lineNo, err)
			}
			cfg.Recognizer.SampleRate = parsed
		case "audio_input":
			cfg.Audio.Input = value
		case "audio_fallback":
			cfg.Audio.Fallback = value
		case "source_lang":
			cfg.Languages.Source = value
		case "target_lang":
			cfg.Languages.Target = value
		case "debounce_ms":
			parsed, err := strconv.Atoi(value)
			if err != nil {
				return Config{}, nil, fmt.Errorf("line %d: debounce_ms: %w", lineNo, err)
			}
			cfg.Session.DebounceMS = parsed
		case "speech_enable":
			parsed, err := strconv.ParseBool(value)
			if err != nil {
				return Config{}, nil, fmt.Errorf("line %d: speech_enable: %w", lineNo, err)
			}
			cfg.Speech.Enable = parsed
		case "speech_module":
			cfg.Speech.Module = value
		case "speech_client_name":
			cfg.Speech.ClientName = value
		case "clipboard_cmd":
			argv, err := parseArgv(value)
			if err != nil {
				return Config{}, nil, fmt.Errorf("line %d: invalid clipboard_cmd: %w", lineNo, err)
			}
			cfg.Clipboard = CommandConfig{Raw: value, Argv: argv}
		default:
			warnings = append(warnings, Warning{Line: lineNo, Message: fmt.Sprintf("unknown config key %q", key)})
		}
	}
	if err := scanner.Err(); err != nil {
		return Config{}, nil, fmt.Errorf("scan config: %w", err)
	}

	validatedWarnings, err := Validate(cfg)
	if err != nil {
		return Config{}, nil, err
	}
	warnings = append(warnings, validatedWarnings...)
	return cfg, warnings, nil
}
