package model

// Known source tags.
const (
	SourceArbeitsagentur = "arbeitsagentur"
	SourceArbeitnow      = "arbeitnow"
)

// ListingURL derives the public posting URL for a listing. Pure string
// construction; an unknown source tag yields "".
func ListingURL(externalID, source string) string {
	switch source {
	case SourceArbeitsagentur:
		return "https://www.arbeitsagentur.de/jobsuche/jobdetail/" + externalID
	case SourceArbeitnow:
		return "https://www.arbeitnow.com/view/" + externalID
	default:
		return ""
	}
}
