package service

import (
	"math"
	"strconv"
	"strings"
)

// PreContext is the canonical shape of one session's pre-workout music
// context, distilled from whatever the enrichment jobs happened to write.
// Nil means the source row carried nothing usable for that field.
type PreContext struct {
	Energy        *float64
	Valence       *float64
	TopGenre      *string
	TopArtist     *string
	BPM           *float64
	ListenMinutes float64
}

// Field aliases, in resolution order (first match wins). Kept as explicit
// tables so a new upstream key is a one-line change here, not a new
// conditional at a call site. Lookups are case-insensitive.
var (
	energyAliases       = []string{"energy", "avg_energy", "energy_mean", "pre_energy"}
	energyBucketAliases = []string{"energy", "energy_bucket", "energy_level", "energy_band"}
	valenceAliases      = []string{"valence", "avg_valence", "valence_mean", "pre_valence"}
	valenceBucketAlias  = []string{"valence", "valence_bucket", "valence_level"}
	bpmAliases          = []string{"bpm", "avg_bpm", "bpm_mean", "tempo"}
	genreAliases        = []string{"top_genre", "genre", "primary_genre", "genres"}
	artistAliases       = []string{"top_artist", "artist", "primary_artist", "artists"}
	minutesAliases      = []string{"listen_minutes", "minutes"}
	millisAliases       = []string{"listen_ms", "duration_ms", "total_ms"}
)

// Bucket labels map to fixed midpoints of their range.
const (
	bucketLowMidpoint  = 0.2
	bucketMidMidpoint  = 0.5
	bucketHighMidpoint = 0.8
)

// BPM-derived energy: clamp to [60,200] then rescale linearly to [0,1].
const (
	bpmEnergyFloor   = 60.0
	bpmEnergyCeiling = 200.0
)

// NormalizeMusicContext maps one raw music-context record into a canonical
// PreContext. It never fails: a field that cannot be resolved through any
// alias or fallback comes back nil (or zero minutes). The upstream schema
// is known to drift, and a half-usable row beats a dropped session.
func NormalizeMusicContext(fields map[string]any) PreContext {
	folded := foldKeys(fields)

	var out PreContext

	out.BPM = resolveNumber(folded, bpmAliases)

	out.Energy = resolveNumber(folded, energyAliases)
	if out.Energy == nil {
		out.Energy = resolveBucket(folded, energyBucketAliases)
	}
	if out.Energy == nil && out.BPM != nil {
		e := bpmToEnergy(*out.BPM)
		out.Energy = &e
	}

	out.Valence = resolveNumber(folded, valenceAliases)
	if out.Valence == nil {
		out.Valence = resolveBucket(folded, valenceBucketAlias)
	}

	out.TopGenre = resolveLabel(folded, genreAliases)
	out.TopArtist = resolveLabel(folded, artistAliases)

	if m := resolveNumber(folded, minutesAliases); m != nil && *m >= 0 {
		out.ListenMinutes = *m
	} else if ms := resolveNumber(folded, millisAliases); ms != nil && *ms >= 0 {
		out.ListenMinutes = *ms / 60000.0
	}

	return out
}

// foldKeys lower-cases keys so alias lookup is case-insensitive. On a
// casing collision the last key wins, matching the row's own ambiguity.
func foldKeys(fields map[string]any) map[string]any {
	folded := make(map[string]any, len(fields))
	for k, v := range fields {
		folded[strings.ToLower(k)] = v
	}
	return folded
}

// resolveNumber walks the alias list and returns the first value coercible
// to a finite number.
func resolveNumber(folded map[string]any, aliases []string) *float64 {
	for _, alias := range aliases {
		v, ok := folded[alias]
		if !ok {
			continue
		}
		if n, ok := toNumber(v); ok {
			return &n
		}
	}
	return nil
}

// resolveBucket walks the alias list for a low/mid/high bucket label and
// maps it to the bucket midpoint.
func resolveBucket(folded map[string]any, aliases []string) *float64 {
	for _, alias := range aliases {
		v, ok := folded[alias]
		if !ok {
			continue
		}
		s, ok := v.(string)
		if !ok {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "low":
			m := bucketLowMidpoint
			return &m
		case "mid":
			m := bucketMidMidpoint
			return &m
		case "high":
			m := bucketHighMidpoint
			return &m
		}
	}
	return nil
}

// resolveLabel walks the alias list and returns the first value that looks
// like a label: a non-empty string, the first element of a non-empty
// array, or an object's "name" property.
func resolveLabel(folded map[string]any, aliases []string) *string {
	for _, alias := range aliases {
		v, ok := folded[alias]
		if !ok {
			continue
		}
		if s, ok := toLabel(v); ok {
			return &s
		}
	}
	return nil
}

// toNumber coerces JSON primitive shapes into a finite float64.
// String-numeric values are accepted; NaN and infinities are not.
func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		if !isFinite(n) {
			return 0, false
		}
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil || !isFinite(parsed) {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

// toLabel coerces string-like shapes into a non-empty label.
func toLabel(v any) (string, bool) {
	switch l := v.(type) {
	case string:
		trimmed := strings.TrimSpace(l)
		if trimmed == "" {
			return "", false
		}
		return trimmed, true
	case []any:
		if len(l) == 0 {
			return "", false
		}
		return toLabel(l[0])
	case map[string]any:
		if name, ok := l["name"]; ok {
			if s, ok := name.(string); ok {
				return toLabel(s)
			}
		}
		return "", false
	default:
		return "", false
	}
}

// bpmToEnergy clamps a BPM reading to [60,200] and rescales it to [0,1].
func bpmToEnergy(bpm float64) float64 {
	clamped := math.Min(math.Max(bpm, bpmEnergyFloor), bpmEnergyCeiling)
	return (clamped - bpmEnergyFloor) / (bpmEnergyCeiling - bpmEnergyFloor)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
