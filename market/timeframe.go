package market

import (
	"fmt"
	"sort"
	"time"
)

func SecondsToTFString(sec int32) (string, error) {
	if sec <= 0 {
		return "", fmt.Errorf("invalid timeframe seconds: %d", sec)
	}

	// Minutes
	if sec < 3600 && sec%60 == 0 {
		return fmt.Sprintf("M%d", sec/60), nil
	}

	// Hours
	if sec < 86400 && sec%3600 == 0 {
		return fmt.Sprintf("H%d", sec/3600), nil
	}

	// Days
	if sec%86400 == 0 {
		days := sec / 86400
		if days == 7 {
			return "W1", nil
		}
		if days == 30 {
			return "MN1", nil
		}
		return fmt.Sprintf("D%d", days), nil
	}

	return "", fmt.Errorf("cannot map timeframe: %d seconds", sec)
}

func TFStringToSeconds(tf string) (int32, error) {
	switch tf {
	case "M1":
		return 60, nil
	case "M5":
		return 300, nil
	case "M15":
		return 900, nil
	case "M30":
		return 1800, nil
	case "H1":
		return 3600, nil
	case "H4":
		return 14400, nil
	case "D1":
		return 86400, nil
	case "W1":
		return 604800, nil
	case "MN1":
		return 2592000, nil
	default:
		return 0, fmt.Errorf("unsupported timeframe string: %s", tf)
	}
}

// InferTimeframe guesses the bar timeframe from the median spacing between
// consecutive bars, so weekend and session gaps do not skew it.
func InferTimeframe(bars []Candle) (string, error) {
	if len(bars) < 2 {
		return "", fmt.Errorf("need at least 2 bars to infer timeframe, got %d", len(bars))
	}
	steps := make([]time.Duration, 0, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		steps = append(steps, bars[i].Time.Sub(bars[i-1].Time))
	}
	sort.Slice(steps, func(a, b int) bool { return steps[a] < steps[b] })
	median := steps[len(steps)/2]
	return SecondsToTFString(int32(median / time.Second))
}
