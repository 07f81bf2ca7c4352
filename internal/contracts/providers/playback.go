package providers

// Playback is the TTS playback collaborator. Synthesis and playback live
// outside this core; the interrupt path only needs the stop operation.
type Playback interface {
	StopImmediately() error
}
