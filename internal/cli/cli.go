package cli

import (
	"errors"
	"fmt"
	"strings"
)

type Command string

const (
	CommandTranslate Command = "translate"
	CommandTalk      Command = "talk"
	CommandRepl      Command = "repl"
	CommandVoices    Command = "voices"
	CommandLanguages Command = "languages"
	CommandStatus    Command = "status"
	CommandStop      Command = "stop"
	CommandCancel    Command = "cancel"
	CommandMute      Command = "mute"
	CommandDoctor    Command = "doctor"
	CommandVersion   Command = "version"
	CommandHelp      Command = "help"
)

var validCommands = map[Command]struct{}{
	CommandTranslate: {},
	CommandTalk:      {},
	CommandRepl:      {},
	CommandVoices:    {},
	CommandLanguages: {},
	CommandStatus:    {},
	CommandStop:      {},
	CommandCancel:    {},
	CommandMute:      {},
	CommandDoctor:    {},
	CommandVersion:   {},
	CommandHelp:      {},
}

type Parsed struct {
	Command    Command
	ConfigPath string
	Source     string
	Target     string
	Copy       bool
	Mute       bool
	Text       string
	ShowHelp   bool
}

func Parse(args []string) (Parsed, error) {
	parsed := Parsed{Command: CommandHelp, ShowHelp: true}

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch arg {
		case "-h", "--help":
			parsed.ShowHelp = true
			parsed.Command = CommandHelp
		case "--version":
			parsed.ShowHelp = false
			parsed.Command = CommandVersion
		case "--copy":
			parsed.Copy = true
		case "--mute":
			parsed.Mute = true
		case "--config":
			i++
			if i >= len(args) {
				return Parsed{}, errors.New("--config requires a path")
			}
			parsed.ConfigPath = args[i]
		case "--source":
			i++
			if i >= len(args) {
				return Parsed{}, errors.New("--source requires a language code")
			}
			parsed.Source = args[i]
		case "--target":
			i++
			if i >= len(args) {
				return Parsed{}, errors.New("--target requires a language code")
			}
			parsed.Target = args[i]
		default:
			if strings.HasPrefix(arg, "-") {
				return Parsed{}, fmt.Errorf("unknown flag: %s", arg)
			}

			cmd := Command(arg)
			if _, ok := validCommands[cmd]; !ok {
				return Parsed{}, fmt.Errorf("unknown command: %s", arg)
			}

			parsed.Command = cmd
			parsed.ShowHelp = cmd == CommandHelp

			// translate takes the remaining arguments as the input text.
			if cmd == CommandTranslate {
				if i == len(args)-1 {
					return Parsed{}, errors.New("translate requires text to translate")
				}
				parsed.Text = strings.Join(args[i+1:], " ")
				return parsed, nil
			}
			if i != len(args)-1 {
				return Parsed{}, fmt.Errorf("unexpected arguments after command %q", arg)
			}
		}
	}

	return parsed, nil
}

func HelpText(binaryName string) string {
	return fmt.Sprintf(`Usage:
  %[1]s [flags] <command> [text]

Commands:
  translate TEXT  Translate TEXT once and print (and speak) the result
  talk            Run an interactive session with microphone capture
  repl            Run an interactive typed-input session
  voices          List configured synthesis voices
  languages       List supported language codes
  status          Print current session state
  stop            Stop active capture and translate the transcript
  cancel          Cancel active capture and discard its audio
  mute            Toggle speech output of the running session
  doctor          Run configuration and environment checks
  version         Print version information
  help            Show this help

Flags:
  --config PATH   Config file path (default: $XDG_CONFIG_HOME/speakly/config.conf)
  --source CODE   Source language code, or "auto" (default from config)
  --target CODE   Target language code (default from config)
  --copy          Copy each translation to the clipboard
  --mute          Start the session with speech output muted
  -h, --help      Show help
  --version       Show version
`, binaryName)
}
