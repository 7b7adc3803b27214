package regza

import "fmt"

var intentOrder = []Intent{
	IntentPowerToggle,
	IntentMuteToggle,
	IntentVolumeDown,
	IntentVolumeUp,
	IntentNavUp,
	IntentNavDown,
	IntentNavLeft,
	IntentNavRight,
	IntentSelect,
	IntentBack,
	IntentPlayPause,
	IntentRewind,
	IntentFastForward,
	IntentNextTrack,
	IntentPreviousTrack,
	IntentExit,
	IntentInformation,
}

// keyMap has an entry for every supported intent. Known intents without an
// entry have no REGZA key.
var keyMap = map[Intent]RemoteKeyCode{
	IntentPowerToggle: PowerToggleCode,
	IntentMuteToggle:  MuteToggleCode,
	IntentVolumeDown:  VolumeDownCode,
	IntentVolumeUp:    VolumeUpCode,
	IntentNavUp:       NavUpCode,
	IntentNavDown:     NavDownCode,
	IntentNavLeft:     NavLeftCode,
	IntentNavRight:    NavRightCode,
	IntentSelect:      SelectCode,
	IntentBack:        BackCode,
	IntentPlayPause:   PlayPauseCode,
}

// Resolve returns the key code for intent, or false when the television
// has no key for it
func Resolve(intent Intent) (RemoteKeyCode, bool) {
	code, ok := keyMap[intent]
	return code, ok
}

// Intents returns every known intent, supported or not
func Intents() []Intent {
	out := make([]Intent, len(intentOrder))
	copy(out, intentOrder)
	return out
}

// ParseIntent validates an intent name
func ParseIntent(name string) (Intent, error) {
	for _, intent := range intentOrder {
		if string(intent) == name {
			return intent, nil
		}
	}
	return "", fmt.Errorf("unknown intent: %s", name)
}
