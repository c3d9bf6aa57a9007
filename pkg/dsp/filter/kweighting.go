package filter

// K-weighting prefilter constants. A high shelf models the acoustic effect
// of the head, then a highpass removes inaudible low end before the energy
// measurement.
const (
	kShelfFrequency = 1680.0
	kShelfQ         = 0.707
	kShelfGainDB    = 4.0

	kHighpassFrequency = 38.0
	kHighpassQ         = 0.5
)

// KWeighting is the two-stage weighting filter applied to a signal before
// loudness energy is accumulated.
type KWeighting struct {
	shelf  *Biquad
	lowCut *Biquad
}

// NewKWeighting creates the weighting chain for the given channel count.
// Call SetSampleRate before processing.
func NewKWeighting(channels int) *KWeighting {
	return &KWeighting{
		shelf:  NewBiquad(channels),
		lowCut: NewBiquad(channels),
	}
}

// SetSampleRate designs both stages for the given sample rate and clears
// their state.
func (k *KWeighting) SetSampleRate(sampleRate float64) {
	k.shelf.SetHighShelf(sampleRate, kShelfFrequency, kShelfQ, kShelfGainDB)
	k.lowCut.SetHighpass(sampleRate, kHighpassFrequency, kHighpassQ)
	k.Reset()
}

// Process weights buffer in place using the delay lines of the given channel.
func (k *KWeighting) Process(buffer []float32, channel int) {
	k.shelf.Process(buffer, channel)
	k.lowCut.Process(buffer, channel)
}

// Reset clears the state of both stages.
func (k *KWeighting) Reset() {
	k.shelf.Reset()
	k.lowCut.Reset()
}
