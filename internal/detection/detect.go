package detection

// Stage names a step of the detection pipeline reported to an Observer.
type Stage string

// Pipeline stages in the order Detect runs them.
const (
	StageEnergyEnvelope  Stage = "energy_envelope"
	StageSpectralFlux    Stage = "spectral_flux"
	StageEnergyIntervals Stage = "energy_intervals"
	StageFluxIntervals   Stage = "flux_intervals"
	StageMerged          Stage = "merged"
	StageEvents          Stage = "events"
)

// Observer receives the number of items each stage produced: frames for the
// two series, intervals for the segmenters and merger, events at the end.
type Observer func(stage Stage, count int)

// Detect runs the full pipeline over sig and returns events in ascending
// start order. observe may be nil.
//
// Detect keeps no state between calls and may be run concurrently on
// independent signals.
func Detect(sig Signal, cfg Config, observe Observer) []Event {
	if observe == nil {
		observe = func(Stage, int) {}
	}
	if len(sig.Samples) == 0 || sig.SampleRate <= 0 {
		observe(StageEvents, 0)
		return nil
	}
	cfg = cfg.sized()

	energy := EnergyEnvelope(sig, cfg.WindowSize, cfg.HopLength)
	observe(StageEnergyEnvelope, len(energy))

	flux := SpectralFlux(sig, cfg.NFFT, cfg.FluxHop)
	observe(StageSpectralFlux, len(flux))

	energyIntervals := SegmentEnergy(energy, cfg.EnergyThreshold)
	observe(StageEnergyIntervals, len(energyIntervals))

	fluxIntervals := SegmentFluxPeaks(flux, cfg.SpectralThreshold)
	observe(StageFluxIntervals, len(fluxIntervals))

	merged := MergeIntervals(Fuse(energyIntervals, fluxIntervals), cfg.MergeGap, cfg.MinDuration)
	observe(StageMerged, len(merged))

	events := DetailEvents(sig, merged)
	observe(StageEvents, len(events))
	return events
}
