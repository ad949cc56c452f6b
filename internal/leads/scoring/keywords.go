package scoring

// urgentKeywords flag symptoms that need same-day or next-day attention.
// Entries are lower case; matching is substring based.
var urgentKeywords = []string{
	// emergency
	"sudden vision loss",
	"görə bilmirəm",
	"görmürəm",
	"eye injury",
	"gözə zədə",
	"severe pain",
	"dözülməz ağrı",
	"flashes of light",
	"işıq çaxmaları",
	"curtain over vision",
	"pərdə",
	// within 24 hours
	"red eye",
	"qırmızı göz",
	"floaters",
	"qaranlıq nöqtələr",
	"double vision",
	"ikili görmə",
	"post-surgery",
	"əməliyyatdan sonra",
	"təcili",
}
