// Package main provides a speech plugin that says announced gestures aloud.
// It uses say on macOS, espeak or spd-say on Linux and System.Speech on Windows.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
)

// Request represents the input from the plugin executor.
type Request struct {
	Action     string          `json:"action"`
	Label      string          `json:"label"`
	Text       string          `json:"text"`
	Confidence float64         `json:"confidence"`
	Session    string          `json:"session"`
	Config     json.RawMessage `json:"config"`
	Params     json.RawMessage `json:"params"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Settings are the optional voice settings from the plugin config.
type Settings struct {
	Voice string `json:"voice"`
	Rate  int    `json:"rate"` // words per minute, 0 keeps the system default
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	switch req.Action {
	case "speak":
		text := phrase(req)
		if text == "" {
			writeErrorResponse("nothing to say")
			return
		}
		var s Settings
		if len(req.Config) > 0 {
			if err := json.Unmarshal(req.Config, &s); err != nil {
				writeErrorResponse(fmt.Sprintf("failed to parse config: %v", err))
				return
			}
		}
		if err := speak(text, s); err != nil {
			writeErrorResponse(fmt.Sprintf("action speak failed: %v", err))
			return
		}
		writeSuccessResponse(text)
	default:
		writeErrorResponse(fmt.Sprintf("unknown action: %s", req.Action))
	}
}

// phrase picks the text to say, falling back to the label with underscores as spaces.
func phrase(req Request) string {
	if t := strings.TrimSpace(req.Text); t != "" {
		return t
	}
	return strings.TrimSpace(strings.ReplaceAll(req.Label, "_", " "))
}

func speak(text string, s Settings) error {
	cmd, err := speechCommand(text, s)
	if err != nil {
		return err
	}
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}

// speechCommand builds the synthesizer invocation for the current platform.
func speechCommand(text string, s Settings) (*exec.Cmd, error) {
	switch runtime.GOOS {
	case "darwin":
		args := []string{}
		if s.Voice != "" {
			args = append(args, "-v", s.Voice)
		}
		if s.Rate > 0 {
			args = append(args, "-r", strconv.Itoa(s.Rate))
		}
		return exec.Command("say", append(args, text)...), nil
	case "windows":
		script := "Add-Type -AssemblyName System.Speech; " +
			"$s = New-Object System.Speech.Synthesis.SpeechSynthesizer; "
		if s.Voice != "" {
			script += "$s.SelectVoice('" + strings.ReplaceAll(s.Voice, "'", "''") + "'); "
		}
		script += "$s.Speak('" + strings.ReplaceAll(text, "'", "''") + "')"
		return exec.Command("powershell", "-NoProfile", "-Command", script), nil
	default:
		if path, err := exec.LookPath("espeak"); err == nil {
			args := []string{}
			if s.Voice != "" {
				args = append(args, "-v", s.Voice)
			}
			if s.Rate > 0 {
				args = append(args, "-s", strconv.Itoa(s.Rate))
			}
			return exec.Command(path, append(args, text)...), nil
		}
		if path, err := exec.LookPath("spd-say"); err == nil {
			return exec.Command(path, "--wait", text), nil
		}
		return nil, errors.New("no speech synthesizer found (install espeak or speech-dispatcher)")
	}
}

// writeErrorResponse writes an error response to stdout.
func writeErrorResponse(errMsg string) {
	resp := Response{
		Success: false,
		Error:   errMsg,
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}

// writeSuccessResponse writes a success response carrying the spoken text.
func writeSuccessResponse(text string) {
	data, _ := json.Marshal(map[string]string{"spoken": text})
	resp := Response{
		Success: true,
		Data:    data,
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}
