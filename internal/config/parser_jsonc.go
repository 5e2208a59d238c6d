package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

type jsoncConfig struct {
	Translate  *jsoncTranslate  `json:"translate"`
	Recognizer *jsoncRecognizer `json:"recognizer"`
	Audio      *jsoncAudio      `json:"audio"`
	Languages  *jsoncLanguages  `json:"languages"`
	Session    *jsoncSession    `json:"session"`
	Speech     *jsoncSpeech     `json:"speech"`

	ClipboardCmd *string `json:"clipboard_cmd"`
}

type jsoncTranslate struct {
	Endpoint  *string `json:"endpoint"`
	Provider  *string `json:"provider"`
	APIKey    *string `json:"api_key"`
	TimeoutMS *int    `json:"timeout_ms"`
}

type jsoncRecognizer struct {
	Endpoint   *string `json:"endpoint"`
	SampleRate *int    `json:"sample_rate"`
}

type jsoncAudio struct {
	Input    *string `json:"input"`
	Fallback *string `json:"fallback"`
}

type jsoncLanguages struct {
	Source *string `json:"source"`
	Target *string `json:"target"`
}

type jsoncSession struct {
	DebounceMS *int `json:"debounce_ms"`
}

type jsoncSpeech struct {
	Enable     *bool        `json:"enable"`
	Module     *string      `json:"module"`
	ClientName *string      `json:"client_name"`
	Voices     []jsoncVoice `json:"voices"`
}

type jsoncVoice struct {
	Name *string `json:"name"`
	Lang *string `json:"lang"`
}

func parseJSONC(content string, base Config) (Config, []Warning, error) {
	normalized, err := normalizeJSONC(content)
	if err != nil {
		return Config{}, nil, err
	}

	decoder := json.NewDecoder(strings.NewReader(normalized))
	decoder.DisallowUnknownFields()

	var payload jsoncConfig
	if err := decoder.Decode(&payload); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}
	if err := ensureSingleJSONValue(decoder); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}

	cfg := base
	warnings, err := payload.applyTo(&cfg)
	if err != nil {
		return Config{}, nil, err
	}

	validatedWarnings, err := Validate(cfg)
	if err != nil {
		return Config{}, nil, err
	}
	warnings = append(warnings, validatedWarnings...)
	return cfg, warnings, nil
}

func (payload jsoncConfig) applyTo(cfg *Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	if payload.Translate != nil {
		if payload.Translate.Endpoint != nil {
			cfg.Translate.Endpoint = strings.TrimSpace(*payload.Translate.Endpoint)
		}
		if payload.Translate.Provider != nil {
			cfg.Translate.Provider = strings.ToLower(strings.TrimSpace(*payload.Translate.Provider))
		}
		if payload.Translate.APIKey != nil {
			cfg.Translate.APIKey = strings.TrimSpace(*payload.Translate.APIKey)
		}
		if payload.Translate.TimeoutMS != nil {
			cfg.Translate.TimeoutMS = *payload.Translate.TimeoutMS
		}
	}

	if payload.Recognizer != nil {
		if payload.Recognizer.Endpoint != nil {
			cfg.Recognizer.Endpoint = strings.TrimSpace(*payload.Recognizer.Endpoint)
		}
		if payload.Recognizer.SampleRate != nil {
			cfg.Recognizer.SampleRate = *payload.Recognizer.SampleRate
		}
	}

	if payload.Audio != nil {
		if payload.Audio.Input != nil {
			cfg.Audio.Input = *payload.Audio.Input
		}
		if payload.Audio.Fallback != nil {
			cfg.Audio.Fallback = *payload.Audio.Fallback
		}
	}

	if payload.Languages != nil {
		if payload.Languages.Source != nil {
			cfg.Languages.Source = strings.TrimSpace(*payload.Languages.Source)
		}
		if payload.Languages.Target != nil {
			cfg.Languages.Target = strings.TrimSpace(*payload.Languages.Target)
		}
	}

	if payload.Session != nil && payload.Session.DebounceMS != nil {
		cfg.Session.DebounceMS = *payload.Session.DebounceMS
	}

	if payload.Speech != nil {
		if payload.Speech.Enable != nil {
			cfg.Speech.Enable = *payload.Speech.Enable
		}
		if payload.Speech.Module != nil {
			cfg.Speech.Module = strings.TrimSpace(*payload.Speech.Module)
		}
		if payload.Speech.ClientName != nil {
			cfg.Speech.ClientName = strings.TrimSpace(*payload.Speech.ClientName)
		}
		if payload.Speech.Voices != nil {
			voices := make([]VoiceEntry, 0, len(payload.Speech.Voices))
			for i, voice := range payload.Speech.Voices {
				entry := VoiceEntry{}
				if voice.Name != nil {
					entry.Name = strings.TrimSpace(*voice.Name)
				}
				if voice.Lang != nil {
					entry.Lang = strings.TrimSpace(*voice.Lang)
				}
				if entry.Name == "" || entry.Lang == "" {
					return nil, fmt.Errorf("speech.voices[%d] needs both name and lang", i)
				}
				voices = append(voices, entry)
			}
			cfg.Speech.Voices = voices
		}
	}

	if payload.ClipboardCmd != nil {
		raw := *payload.ClipboardCmd
		argv, err := parseArgv(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid clipboard_cmd: %w", err)
		}
		cfg.Clipboard = CommandConfig{Raw: raw, Argv: argv}
	}

	return warnings, nil
}

func normalizeJSONC(content string) (string, error) {
	withoutComments, err := stripJSONCComments(content)
	if err != nil {
		return "", err
	}
	return stripJSONCTrailingCommas(withoutComments), nil
}

func stripJSONCComments(content string) (string, error) {
	var out strings.Builder
	out.Grow(len(content))

	inString := false
	escape := false
	lineComment := false
	blockComment := false

	for i := 0; i < len(content); i++ {
		ch := content[i]

		if lineComment {
			if ch == '\n' {
				lineComment = false
				out.WriteByte(ch)
				continue
			}
			if ch == '\r' {
				lineComment = false
				out.WriteByte(ch)
				continue
			}
			out.WriteByte(' ')
			continue
		}

		if blockComment {
			if ch == '*' && i+1 < len(content) && content[i+1] == '/' {
				blockComment = false
				out.WriteString("  ")
				i++
				continue
			}
			if ch == '\n' || ch == '\r' || ch == '\t' {
				out.WriteByte(ch)
			} else {
				out.WriteByte(' ')
			}
			continue
		}

		if inString {
			out.WriteByte(ch)
			if escape {
				escape = false
				continue
			}
			if ch == '\\' {
				escape = true
				continue
			}
			if ch == '"' {
				inString = false
			}
			continue
		}

		if ch == '"' {
			inString = true
			out.WriteByte(ch)
			continue
		}

		if ch == '/' && i+1 < len(content) {
			next := content[i+1]
			if next == '/' {
				lineComment = true
				out.WriteString("  ")
				i++
				continue
			}
			if next == '*' {
				blockComment = true
				out.WriteString("  ")
				i++
				continue
			}
		}

		out.WriteByte(ch)
	}

	if blockComment {
		return "", fmt.Errorf("unterminated block comment in JSONC")
	}

	return out.String(), nil
}

func stripJSONCTrailingCommas(content string) string {
	var out strings.Builder
	out.Grow(len(content))

	inString := false
	escape := false

	for i := 0; i < len(content); i++ {
		ch := content[i]

		if inString {
			out.WriteByte(ch)
			if escape {
				escape = false
				continue
			}
			if ch == '\\' {
				escape = true
				continue
			}
			if ch == '"' {
				inString = false
			}
			continue
		}

		if ch == '"' {
			inString = true
			out.WriteByte(ch)
			continue
		}

		if ch == ',' {
			j := i + 1
			for j < len(content) && isJSONWhitespace(content[j]) {
				j++
			}
			if j < len(content) && (content[j] == '}' || content[j] == ']') {
				continue
			}
		}

		out.WriteByte(ch)
	}

	return out.String()
}

func isJSONWhitespace(ch byte) bool {
	switch ch {
	case ' ', '\n', '\r', '\t':
		return true
	default:
		return false
	}
}

func ensureSingleJSONValue(decoder *json.Decoder) error {
	var extra struct{}
	err := decoder.Decode(&extra)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err == nil {
		return fmt.Errorf("multiple JSON values are not allowed")
	}
	return err
}

func wrapJSONDecodeError(content string, err error) error {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		line, col := offsetToLineCol(content, syntaxErr.Offset)
		return fmt.Errorf("line %d column %d: %w", line, col, err)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		line, col := offsetToLineCol(content, typeErr.Offset)
		return fmt.Errorf("line %d column %d: %w", line, col, err)
	}

	return err
}

func offsetToLineCol(content string, offset int64) (int, int) {
	if offset <= 0 {
		return 1, 1
	}

	limit := int(offset)
	if limit > len(content) {
		limit = len(content)
	}

	line := 1
	col := 1
	for i := 0; i < limit-1; i++ {
		if content[i] == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}
