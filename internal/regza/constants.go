package regza

import "time"

// Remote key codes for REGZA televisions
const (
	PowerToggleCode RemoteKeyCode = "40BF12"
	MuteToggleCode  RemoteKeyCode = "40BF10"
	VolumeDownCode  RemoteKeyCode = "40BF1E"
	VolumeUpCode    RemoteKeyCode = "40BF1A"
	NavUpCode       RemoteKeyCode = "40BF3E"
	NavDownCode     RemoteKeyCode = "40BF3F"
	NavLeftCode     RemoteKeyCode = "40BF5F"
	NavRightCode    RemoteKeyCode = "40BF5B"
	SelectCode      RemoteKeyCode = "40BF3D"
	BackCode        RemoteKeyCode = "40BF3B"
	PlayPauseCode   RemoteKeyCode = "40BE2D"
)

// Remote-control intents
const (
	IntentPowerToggle   Intent = "power-toggle"
	IntentMuteToggle    Intent = "mute-toggle"
	IntentVolumeDown    Intent = "volume-down"
	IntentVolumeUp      Intent = "volume-up"
	IntentNavUp         Intent = "nav-up"
	IntentNavDown       Intent = "nav-down"
	IntentNavLeft       Intent = "nav-left"
	IntentNavRight      Intent = "nav-right"
	IntentSelect        Intent = "select"
	IntentBack          Intent = "back"
	IntentPlayPause     Intent = "play-pause"
	IntentRewind        Intent = "rewind"
	IntentFastForward   Intent = "fast-forward"
	IntentNextTrack     Intent = "next-track"
	IntentPreviousTrack Intent = "previous-track"
	IntentExit          Intent = "exit"
	IntentInformation   Intent = "information"
)

const (
	VolumeUp   VolumeDirection = "up"
	VolumeDown VolumeDirection = "down"
)

const (
	MuteSourceFixed MuteSource = "fixed"
	MuteSourceLive  MuteSource = "live"
)

// Status API
const (
	SecurePort      = 4430
	PowerStatusPath = "/v2/remote/play/status"
	MuteStatusPath  = "/v2/remote/status/mute"
	RemoteKeyPath   = "/remote/remote.htm"
)

// Digest parameters. nc and cnonce never change: every authenticated call
// probes for a fresh server nonce, so the pair is never replayed under one nonce.
const (
	DigestNonceCount  = "00000001"
	DigestClientNonce = "abc27321496dfe31"
	DigestQOP         = "auth"
)

const (
	DefaultTimeout      = 10 * time.Second
	DefaultName         = "REGZA"
	DefaultModel        = "Z720X"
	DefaultManufacturer = "TOSHIBA"
)
