package match

import "github.com/freese/jobradar/internal/config"

// defaultQueryParams is the fixed base parameter set for Arbeitsagentur
// search queries. Overlay keys win over these.
var defaultQueryParams = map[string]string{
	"angebotsart": "1",
	"arbeitszeit": "vz;tz",
	"size":        "25",
}

// Queries merges each of the profile's Arbeitsagentur query overlays onto the
// default parameter set, last write per key winning. A profile with zero
// overlays yields zero queries: the source is skipped, not defaulted.
func Queries(profile config.SearchProfile) []map[string]string {
	queries := make([]map[string]string, 0, len(profile.ArbeitsagenturQueries))
	for _, overlay := range profile.ArbeitsagenturQueries {
		q := make(map[string]string, len(defaultQueryParams)+len(overlay))
		for k, v := range defaultQueryParams {
			q[k] = v
		}
		for k, v := range overlay {
			q[k] = v
		}
		queries = append(queries, q)
	}
	return queries
}
