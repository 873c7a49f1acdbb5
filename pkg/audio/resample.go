package audio

import (
	"fmt"

	resampling "github.com/tphakala/go-audio-resampling"
)

// ResamplePCM converts 16-bit mono PCM from srcRate to dstRate using a
// high-quality polyphase resampler. Equal rates return the input unchanged.
// The output length is the input length scaled by dstRate/srcRate (within a
// sample of rounding).
func ResamplePCM(pcm []int16, srcRate, dstRate int) ([]int16, error) {
	if srcRate <= 0 || dstRate <= 0 {
		return nil, fmt.Errorf("audio: resample: invalid rates %d -> %d", srcRate, dstRate)
	}
	if srcRate == dstRate || len(pcm) == 0 {
		return pcm, nil
	}

	rs, err := resampling.New(&resampling.Config{
		InputRate:  float64(srcRate),
		OutputRate: float64(dstRate),
		Channels:   1,
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	})
	if err != nil {
		return nil, fmt.Errorf("audio: create resampler: %w", err)
	}

	in := make([]float64, len(pcm))
	for i, s := range pcm {
		in[i] = float64(s) / 32768.0
	}

	out, err := rs.Process(in)
	if err != nil {
		return nil, fmt.Errorf("audio: resample %d -> %d: %w", srcRate, dstRate, err)
	}
	return Quantize(out), nil
}
