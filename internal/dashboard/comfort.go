package dashboard

import "github.com/perchlabs/boothboard/internal/sheets"

// ComfortScore rates a reading 0-100 as the average of per-metric band
// scores. Metrics missing from the reading are left out of the average; a
// reading with no scorable metrics rates 0.
func ComfortScore(r sheets.Reading) float64 {
	var scores []float64

	if v := r.TempC; v != nil {
		switch {
		case *v >= 20 && *v <= 25:
			scores = append(scores, 100)
		case (*v >= 18 && *v < 20) || (*v > 25 && *v <= 27):
			scores = append(scores, 50)
		default:
			scores = append(scores, 0)
		}
	}

	if v := r.HumidityPct; v != nil {
		switch {
		case *v >= 40 && *v <= 50:
			scores = append(scores, 100)
		case (*v >= 30 && *v < 40) || (*v > 50 && *v <= 60):
			scores = append(scores, 50)
		default:
			scores = append(scores, 0)
		}
	}

	if v := r.CO2PPM; v != nil {
		switch {
		case *v <= 600:
			scores = append(scores, 100)
		case *v <= 1000:
			scores = append(scores, 75)
		case *v <= 2000:
			scores = append(scores, 25)
		default:
			scores = append(scores, 0)
		}
	}

	if v := r.VOC; v != nil {
		switch {
		case *v <= 300:
			scores = append(scores, 100)
		case *v <= 500:
			scores = append(scores, 50)
		default:
			scores = append(scores, 0)
		}
	}

	if v := r.PM25UGM3; v != nil {
		switch {
		case *v <= 12:
			scores = append(scores, 100)
		case *v <= 35:
			scores = append(scores, 50)
		default:
			scores = append(scores, 0)
		}
	}

	if len(scores) == 0 {
		return 0
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	return sum / float64(len(scores))
}
