// Package voice is the boundary to a hosted real-time voice model.
//
// The hosted model owns speech recognition, turn detection, reasoning and
// speech synthesis. A Pipeline streams microphone audio up, plays audio
// back, and surfaces the model's function calls. Session binds a Pipeline
// to a tool registry: each call is dispatched through the registry and the
// rendered result string is submitted back under the same call id.
//
// Providers register themselves from the bundled package:
//
//	import _ "github.com/teslashibe/go-hero/pkg/voice/bundled"
//
//	p, err := voice.New(voice.DefaultConfig().WithAPIKey(key))
package voice
